package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/villaedu/reserva/internal/engine"
	"github.com/villaedu/reserva/internal/model"
	"github.com/villaedu/reserva/internal/queue"
	queue_publisher "github.com/villaedu/reserva/internal/service"
	"github.com/villaedu/reserva/internal/store"
)

// FamilyHandler serves the family-facing actions: browsing availability
// for the student's grade and class, reserving, cancelling and listing the
// family's own reservations.  Every action re-reads the document fresh;
// on a version conflict the family is told to retry, never retried for.
type FamilyHandler struct {
	Store  store.Store
	Engine *engine.ReservationEngine
}

// NewFamilyHandler constructs a FamilyHandler.  All dependencies must be
// non-nil.
func NewFamilyHandler(st store.Store, eng *engine.ReservationEngine) *FamilyHandler {
	if st == nil || eng == nil {
		panic("nil dependency passed to NewFamilyHandler")
	}
	return &FamilyHandler{Store: st, Engine: eng}
}

// ListItems handles GET /v1/items.  It returns the items the family can
// act on (available for their grade/class, or held by their student) plus
// the student's remaining quota per category.
func (h *FamilyHandler) ListItems(c echo.Context) error {
	id, err := getFamilyIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	categories, ok := parseCategories(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category in categories parameter"})
	}
	doc, _, err := loadDocument(c.Request().Context(), h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	items := h.Engine.ListAvailable(doc, id.Grade, id.ClassName, categories, id.StudentName)
	return c.JSON(http.StatusOK, echo.Map{
		"items":           items,
		"quota_remaining": h.Engine.QuotaRemaining(doc, id.StudentName, id.Grade),
	})
}

// Reserve handles POST /v1/items/:id/reserve.  The reservation is decided
// against the document read in this very request and submitted under that
// read's version token, so of several racing families exactly one wins and
// the rest see a conflict response asking them to retry.
func (h *FamilyHandler) Reserve(c echo.Context) error {
	id, err := getFamilyIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	itemID, ok := paramItemID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	ctx := c.Request().Context()
	doc, token, err := loadDocument(ctx, h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	res, err := h.Engine.Reserve(ctx, doc, token, itemID, id.GuardianName, id.StudentName)
	if err != nil {
		return writeEngineError(c, err)
	}

	// Best effort: a reservation is valid whether or not its event got out.
	_ = queue_publisher.PublishReservationEvent(ctx, reservationEvent(queue.EventReservationConfirmed, res))

	return c.JSON(http.StatusCreated, echo.Map{"reservation": res})
}

// Cancel handles POST /v1/items/:id/cancel.  Families can only cancel
// reservations recorded under their own guardian name; an admin token
// bypasses the holder check.  An optional reservation_id in the body pins
// the exact record, which matters for legacy reservations without an item
// reference.
func (h *FamilyHandler) Cancel(c echo.Context) error {
	var guardian string
	admin := isAdmin(c)
	if !admin {
		id, err := getFamilyIdentity(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		guardian = id.GuardianName
	}
	itemID, ok := paramItemID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var body struct {
		ReservationID string `json:"reservation_id"`
	}
	if err := c.Bind(&body); err != nil && c.Request().ContentLength > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	doc, token, err := loadDocument(ctx, h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}

	// Snapshot the record before it is removed, for the event payload.
	var cancelled *model.Reservation
	for i := range doc.Reservations {
		r := doc.Reservations[i]
		if body.ReservationID != "" && r.ReservationID == body.ReservationID {
			cancelled = &r
			break
		}
		if body.ReservationID == "" && r.ItemID != nil && *r.ItemID == itemID {
			cancelled = &r
			break
		}
	}

	if err := h.Engine.Cancel(ctx, doc, token, itemID, guardian, body.ReservationID, admin); err != nil {
		return writeEngineError(c, err)
	}
	if cancelled != nil {
		_ = queue_publisher.PublishReservationEvent(ctx, reservationEvent(queue.EventReservationCancelled, *cancelled))
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "cancelled"})
}

// MyReservations handles GET /v1/me/reservations and lists the records
// belonging to the authenticated family.
func (h *FamilyHandler) MyReservations(c echo.Context) error {
	id, err := getFamilyIdentity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	doc, _, err := loadDocument(c.Request().Context(), h.Store)
	if err != nil {
		return writeEngineError(c, err)
	}
	out := make([]model.Reservation, 0, 4)
	for _, r := range doc.Reservations {
		if equalFoldTrim(r.GuardianName, id.GuardianName) && equalFoldTrim(r.StudentName, id.StudentName) {
			out = append(out, r)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// reservationEvent maps a reservation record onto the broker payload.
func reservationEvent(t queue.EventType, r model.Reservation) queue.ReservationEvent {
	ev := queue.ReservationEvent{
		Type:          t,
		ReservationID: r.ReservationID,
		ItemTitle:     r.ItemTitle,
		Category:      string(r.Category),
		GuardianName:  r.GuardianName,
		StudentName:   r.StudentName,
		Grade:         r.Grade,
		ClassName:     r.ClassName,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if r.ItemID != nil {
		ev.ItemID = *r.ItemID
	}
	return ev
}
