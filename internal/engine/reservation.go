package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/villaedu/reserva/internal/model"
	"github.com/villaedu/reserva/internal/store"
)

// ReservationEngine performs the reserve/cancel state transition with
// optimistic concurrency.  The backing store offers no locking, so
// at-most-one-successful-reservation-per-item is enforced purely by the
// in-memory recheck of availability plus the conditional write rejecting
// any write based on a stale version token.
type ReservationEngine struct {
	store  store.Store
	quotas QuotaConfig
	now    func() time.Time
}

// NewReservationEngine constructs an engine bound to a document store.
func NewReservationEngine(st store.Store, quotas QuotaConfig) *ReservationEngine {
	if st == nil {
		panic("nil store passed to NewReservationEngine")
	}
	return &ReservationEngine{store: st, quotas: quotas, now: time.Now}
}

// ListAvailable filters the inventory for one family's view: items of the
// requested categories matching the student's grade and class.  An item is
// included when it is available, or when it is already held by the
// requesting student so the family can see and unwind its own reservation.
// Available items sort first; within each group insertion order is kept.
func (e *ReservationEngine) ListAvailable(doc *model.Document, grade, className string, categories []model.Category, studentName string) []model.Item {
	wanted := make(map[model.Category]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	out := make([]model.Item, 0, len(doc.Items))
	for _, item := range doc.Items {
		if item.Grade != grade {
			continue
		}
		if className != "" && item.ClassName != className {
			continue
		}
		if len(wanted) > 0 && !wanted[item.Category] {
			continue
		}
		if item.Available || item.HeldBy(studentName) {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Available && !out[j].Available
	})
	return out
}

// Reserve flips an available item to reserved for the given family and
// appends the reservation record, then submits the whole document under
// the version token obtained from the same read that produced the item's
// available state.  It returns the new reservation on success.
//
// Failure modes, none of which write anything: ErrNotFound when the item
// does not exist, ErrAlreadyReserved when it was taken at read time,
// ErrQuotaExceeded when the student has no remaining quota in the item's
// category.  ErrConflict means the store rejected the write because the
// document changed; the caller must re-read and may retry the user action
// if the item is still available.
func (e *ReservationEngine) Reserve(ctx context.Context, doc *model.Document, token string, itemID int64, guardianName, studentName string) (model.Reservation, error) {
	item := doc.FindItem(itemID)
	if item == nil {
		return model.Reservation{}, ErrNotFound
	}
	if !item.Available {
		return model.Reservation{}, ErrAlreadyReserved
	}
	if e.QuotaRemaining(doc, studentName, item.Grade)[item.Category] <= 0 {
		return model.Reservation{}, ErrQuotaExceeded
	}

	item.SetHolder(guardianName, studentName)
	res := model.Reservation{
		ReservationID: e.newReservationID(doc),
		ItemID:        &item.ID,
		Category:      item.Category,
		GuardianName:  guardianName,
		StudentName:   studentName,
		Grade:         item.Grade,
		ClassName:     item.ClassName,
		ItemTitle:     item.Title,
		Timestamp:     e.now().UTC().Format(model.TimestampLayout),
	}
	doc.Reservations = append(doc.Reservations, res)

	msg := fmt.Sprintf("Reserve %q for %s", item.Title, guardianName)
	if err := e.submit(ctx, doc, token, msg); err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

// Cancel undoes a reservation.  The reservation is matched by id when one
// is given and by item id otherwise, which covers legacy records lacking a
// stable item reference.  When both are given they must agree on the item.
// The requesting guardian must equal the recorded holder unless
// adminOverride is set.  When the item still exists it flips back to
// available with both holder fields cleared.
func (e *ReservationEngine) Cancel(ctx context.Context, doc *model.Document, token string, itemID int64, requestingGuardian, reservationID string, adminOverride bool) error {
	idx := -1
	for i, r := range doc.Reservations {
		if reservationID != "" {
			if r.ReservationID == reservationID {
				idx = i
				break
			}
			continue
		}
		if r.ItemID != nil && *r.ItemID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	res := doc.Reservations[idx]
	if !adminOverride && !sameName(res.GuardianName, requestingGuardian) {
		return ErrForbidden
	}
	if res.ItemID != nil {
		// A reservation id naming a different item than the request is a
		// caller mistake; acting on it would free the wrong item.
		if itemID != 0 && *res.ItemID != itemID {
			return fmt.Errorf("%w: reservation %s does not belong to item %d", ErrValidation, res.ReservationID, itemID)
		}
		itemID = *res.ItemID
	}

	if item := doc.FindItem(itemID); item != nil && !item.Available {
		if !adminOverride && item.ReservedByGuardian != nil && !sameName(*item.ReservedByGuardian, requestingGuardian) {
			return ErrForbidden
		}
		item.ClearHolder()
	}
	doc.Reservations = append(doc.Reservations[:idx], doc.Reservations[idx+1:]...)

	msg := fmt.Sprintf("Cancel reservation %s (%q)", res.ReservationID, res.ItemTitle)
	return e.submit(ctx, doc, token, msg)
}

// newReservationID derives a fresh id from wall-clock seconds, the same
// monotonically increasing source the stored documents have always used.
// If that second is already taken inside this document the id is bumped
// until unique, which also keeps it monotonic.
func (e *ReservationEngine) newReservationID(doc *model.Document) string {
	used := make(map[string]bool, len(doc.Reservations))
	for _, r := range doc.Reservations {
		used[r.ReservationID] = true
	}
	for id := e.now().UTC().Unix(); ; id++ {
		candidate := strconv.FormatInt(id, 10)
		if !used[candidate] {
			return candidate
		}
	}
}

// submit marshals the document and performs the single conditional write
// that ends every state-changing operation.  A conflict outcome surfaces
// as ErrConflict; the engine never retries internally.
func (e *ReservationEngine) submit(ctx context.Context, doc *model.Document, token, message string) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	outcome, _, err := e.store.Write(ctx, raw, token, message)
	if err != nil {
		return err
	}
	if outcome == store.WriteConflict {
		return ErrConflict
	}
	return nil
}
