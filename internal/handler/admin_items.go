package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/villaedu/reserva/internal/engine"
	"github.com/villaedu/reserva/internal/model"
	"github.com/villaedu/reserva/internal/store"
)

// AdminHandler groups the administrative operations: inventory management,
// roster management, reservation listing and reports.  All routes carrying
// it sit behind the ADMIN role check.
type AdminHandler struct {
	Store  store.Store
	Engine *engine.ReservationEngine
	Roster *engine.RosterEngine
}

// NewAdminHandler constructs an AdminHandler.  All dependencies must be
// non-nil.
func NewAdminHandler(st store.Store, eng *engine.ReservationEngine, roster *engine.RosterEngine) *AdminHandler {
	if st == nil || eng == nil || roster == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Store: st, Engine: eng, Roster: roster}
}

// ListItems handles GET /v1/admin/items and returns the full inventory,
// reserved items included.
func (h *AdminHandler) ListItems(c echo.Context) error {
	doc, _, err := loadDocument(c.Request().Context(), h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	items := doc.Items
	if items == nil {
		items = []model.Item{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// itemInput is the request shape for creating items.
type itemInput struct {
	Title     string `json:"title"`
	Category  string `json:"category"`
	Grade     string `json:"grade"`
	ClassName string `json:"class_name"`
}

func (in itemInput) toModel() (model.Item, bool) {
	item := model.Item{Title: in.Title, Grade: in.Grade, ClassName: in.ClassName}
	if in.Category != "" {
		cat, ok := model.ParseCategory(in.Category)
		if !ok {
			return model.Item{}, false
		}
		item.Category = cat
	}
	return item, true
}

// AddItems handles POST /v1/admin/items.  The body is either a single
// item object or {"items": [...]} for a batch; either way the whole
// request is one conditional write.
func (h *AdminHandler) AddItems(c echo.Context) error {
	var body struct {
		itemInput
		Items []itemInput `json:"items"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	inputs := body.Items
	if len(inputs) == 0 {
		inputs = []itemInput{body.itemInput}
	}
	items := make([]model.Item, 0, len(inputs))
	for _, in := range inputs {
		item, ok := in.toModel()
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
		}
		items = append(items, item)
	}

	ctx := c.Request().Context()
	doc, token, err := loadDocument(ctx, h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	added, err := h.Engine.AddItems(ctx, doc, token, items)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"items": added})
}

// UpdateItem handles PATCH /v1/admin/items/:id.  Only metadata can be
// corrected here; availability moves exclusively through reserve and
// cancel.
func (h *AdminHandler) UpdateItem(c echo.Context) error {
	itemID, ok := paramItemID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var body struct {
		Title     *string `json:"title"`
		Grade     *string `json:"grade"`
		ClassName *string `json:"class_name"`
		Category  *string `json:"category"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	upd := engine.ItemUpdate{Title: body.Title, Grade: body.Grade, ClassName: body.ClassName}
	if body.Category != nil {
		cat, ok := model.ParseCategory(*body.Category)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
		}
		upd.Category = &cat
	}

	ctx := c.Request().Context()
	doc, token, err := loadDocument(ctx, h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	item, err := h.Engine.UpdateItem(ctx, doc, token, itemID, upd)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": item})
}

// DeleteItem handles DELETE /v1/admin/items/:id.  Reserved items cannot be
// deleted; the reservation must be cancelled first.
func (h *AdminHandler) DeleteItem(c echo.Context) error {
	itemID, ok := paramItemID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	ctx := c.Request().Context()
	doc, token, err := loadDocument(ctx, h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	if err := h.Engine.DeleteItem(ctx, doc, token, itemID); err != nil {
		return writeEngineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RotateSecret handles PUT /v1/admin/secret.
func (h *AdminHandler) RotateSecret(c echo.Context) error {
	var body struct {
		Secret string `json:"secret"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()
	doc, token, err := loadDocument(ctx, h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	if err := h.Engine.SetAdminSecret(ctx, doc, token, body.Secret); err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "secret rotated"})
}
