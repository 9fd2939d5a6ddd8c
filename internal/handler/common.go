package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/villaedu/reserva/internal/engine"
	"github.com/villaedu/reserva/internal/model"
	"github.com/villaedu/reserva/internal/schema"
	"github.com/villaedu/reserva/internal/store"
	"github.com/villaedu/reserva/internal/utils"
)

// loadDocument performs the read half of the read-normalize-mutate-write
// pipeline: a fresh read from the store plus normalization.  Every
// interactive action starts here; no document copy survives between
// requests.
func loadDocument(ctx context.Context, st store.Store) (*model.Document, string, error) {
	raw, token, err := st.Read(ctx)
	if err != nil {
		return nil, "", err
	}
	doc, err := schema.Load(raw)
	if err != nil {
		return nil, "", err
	}
	return doc, token, nil
}

// ctxString reads a context value set by the JWT middleware as a string,
// returning "" for missing or mistyped values.
func ctxString(c echo.Context, key string) string {
	if v, ok := c.Get(key).(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// isAdmin reports whether the current token carries the admin role.
func isAdmin(c echo.Context) bool {
	return ctxString(c, "role") == utils.RoleAdmin
}

// getFamilyIdentity extracts the family identity claims injected by the
// JWT middleware.  Guardian and student are required for every family
// action; grade and class may be empty for identities entered manually
// without a roster match.
func getFamilyIdentity(c echo.Context) (utils.FamilyIdentity, error) {
	id := utils.FamilyIdentity{
		GuardianName: ctxString(c, "guardian"),
		StudentName:  ctxString(c, "student"),
		Grade:        ctxString(c, "grade"),
		ClassName:    ctxString(c, "class"),
	}
	if id.GuardianName == "" || id.StudentName == "" {
		return utils.FamilyIdentity{}, errors.New("missing family identity in token")
	}
	return id, nil
}

// paramItemID parses the :id path parameter.
func paramItemID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeEngineError translates engine and store sentinel errors into the
// HTTP responses the UI expects.  State errors on the item are reported as
// "no longer available" rather than as system faults, and a version
// conflict tells the caller to re-fetch and re-attempt.
func writeEngineError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, engine.ErrAlreadyReserved):
		return c.JSON(http.StatusConflict, echo.Map{"error": "this item is no longer available"})
	case errors.Is(err, engine.ErrQuotaExceeded):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "reservation quota reached for this category"})
	case errors.Is(err, engine.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, engine.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "someone else changed this, please retry"})
	case errors.Is(err, engine.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, store.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable, try again"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// equalFoldTrim compares two names ignoring case and surrounding
// whitespace, the same rule the engine applies.
func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// parseCategories reads the optional comma separated "categories" query
// parameter.  An empty parameter means all categories.
func parseCategories(c echo.Context) ([]model.Category, bool) {
	q := strings.TrimSpace(c.QueryParam("categories"))
	if q == "" {
		return nil, true
	}
	var out []model.Category
	for _, part := range strings.Split(q, ",") {
		cat, ok := model.ParseCategory(part)
		if !ok {
			return nil, false
		}
		out = append(out, cat)
	}
	return out, true
}
