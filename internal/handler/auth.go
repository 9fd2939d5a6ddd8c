package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/villaedu/reserva/internal/engine"
	"github.com/villaedu/reserva/internal/store"
	"github.com/villaedu/reserva/internal/utils"
)

// AuthHandler issues session tokens.  Families authenticate by identifying
// themselves (optionally resolved against the roster by contact key);
// admins authenticate with the shared secret stored, hashed, in the
// document itself.
type AuthHandler struct {
	Store        store.Store
	Engine       *engine.ReservationEngine
	Roster       *engine.RosterEngine
	JWTSecret    string
	AccessTTLMin int
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
// All dependencies must be non-nil.
func NewAuthHandler(st store.Store, eng *engine.ReservationEngine, roster *engine.RosterEngine, jwtSecret string, ttlMin int) *AuthHandler {
	if st == nil || eng == nil || roster == nil {
		panic("nil dependency passed to NewAuthHandler")
	}
	return &AuthHandler{Store: st, Engine: eng, Roster: roster, JWTSecret: jwtSecret, AccessTTLMin: ttlMin}
}

// FamilyLogin handles POST /v1/auth/family.  Two request shapes are
// accepted: a contact key to resolve against the roster, or the full
// identity typed by hand.  When a contact key matches several children the
// matches are returned so the UI can ask which student is meant; sending
// the contact key together with a student name picks directly.
func (h *AuthHandler) FamilyLogin(c echo.Context) error {
	var body struct {
		ContactKey   string `json:"contact_key"`
		GuardianName string `json:"guardian_name"`
		StudentName  string `json:"student_name"`
		Grade        string `json:"grade"`
		ClassName    string `json:"class_name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	var id utils.FamilyIdentity
	switch {
	case strings.TrimSpace(body.ContactKey) != "":
		doc, _, err := loadDocument(c.Request().Context(), h.Store)
		if err != nil {
			return writeEngineError(c, err)
		}
		matches := h.Roster.ResolveByContactKey(doc, body.ContactKey)
		if len(matches) == 0 {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "contact key not on roster"})
		}
		if body.StudentName != "" {
			for _, m := range matches {
				if strings.EqualFold(strings.TrimSpace(m.Name), strings.TrimSpace(body.StudentName)) {
					matches = matches[:0]
					matches = append(matches, m)
					break
				}
			}
		}
		if len(matches) > 1 {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":    "multiple students for this contact key, pick one",
				"students": matches,
			})
		}
		rec := matches[0]
		guardian := strings.TrimSpace(body.GuardianName)
		if guardian == "" {
			guardian = rec.GuardianLabel
		}
		if guardian == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "guardian_name is required"})
		}
		id = utils.FamilyIdentity{
			GuardianName: guardian,
			StudentName:  rec.Name,
			Grade:        rec.Grade,
			ClassName:    rec.ClassName,
		}
	default:
		if body.GuardianName == "" || body.StudentName == "" || body.Grade == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "guardian_name, student_name and grade are required"})
		}
		id = utils.FamilyIdentity{
			GuardianName: strings.TrimSpace(body.GuardianName),
			StudentName:  strings.TrimSpace(body.StudentName),
			Grade:        strings.TrimSpace(body.Grade),
			ClassName:    strings.TrimSpace(body.ClassName),
		}
	}

	tok, err := utils.NewFamilyToken(h.JWTSecret, id, h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp,
		"identity":     id,
	})
}

// AdminLogin handles POST /v1/auth/admin.  The secret is checked against
// the hash stored in the document; the route itself is rate limited per
// client IP to slow down guessing.
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var body struct {
		Secret string `json:"secret"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	doc, _, err := loadDocument(c.Request().Context(), h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	if !h.Engine.VerifyAdminSecret(doc, body.Secret) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "wrong secret"})
	}
	tok, err := utils.NewAdminToken(h.JWTSecret, h.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp,
	})
}
