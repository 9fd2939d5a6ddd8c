package model

import (
	"encoding/json"
	"strconv"
)

// Reservation records one successful reservation event.  The record is kept
// independent of the underlying item: the title, grade, class and category
// are snapshots taken at reservation time, and ItemID may be nil for records
// written by the very first release which did not store an item reference.
//
// Fields:
//  ReservationID – unique identifier.  Fresh ids are decimal unix seconds;
//                  ids synthesized for legacy records carry a "legacy-" tag.
//  ItemID        – id of the reserved item, nil for legacy records.
//  Category      – category snapshot of the item.
//  GuardianName  – guardian who made the reservation.
//  StudentName   – student the item was reserved for.
//  Grade         – grade snapshot.
//  ClassName     – class snapshot, "Unspecified" for legacy records.
//  ItemTitle     – title snapshot, not a live reference.
//  Timestamp     – creation time formatted as "2006-01-02 15:04:05" UTC.
type Reservation struct {
	ReservationID string   `json:"reservationId"`
	ItemID        *int64   `json:"itemId,omitempty"`
	Category      Category `json:"category"`
	GuardianName  string   `json:"guardianName"`
	StudentName   string   `json:"studentName"`
	Grade         string   `json:"grade"`
	ClassName     string   `json:"className"`
	ItemTitle     string   `json:"itemTitle"`
	Timestamp     string   `json:"timestamp"`
}

// TimestampLayout is the wire format of Reservation.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05"

// reservationAlias mirrors Reservation with every key the stored document
// has ever used for this record.  The earliest schema wrote reservations
// with snake_case keys ("parent_name", "student_name", "book_title") and a
// numeric "id"; documents written by that engine are still in circulation,
// so decoding accepts both spellings.  Encoding always produces the current
// keys only.
type reservationAlias struct {
	ReservationID json.RawMessage `json:"reservationId"`
	LegacyID      json.RawMessage `json:"id"`
	ItemID        *int64          `json:"itemId"`
	Category      Category        `json:"category"`
	GuardianName  string          `json:"guardianName"`
	ParentName    string          `json:"parent_name"`
	StudentName   string          `json:"studentName"`
	LegacyStudent string          `json:"student_name"`
	Grade         string          `json:"grade"`
	ClassName     string          `json:"className"`
	ItemTitle     string          `json:"itemTitle"`
	BookTitle     string          `json:"book_title"`
	Timestamp     string          `json:"timestamp"`
}

// UnmarshalJSON decodes a reservation from either the current or the legacy
// key set.  Field defaults for records that predate a key entirely (category,
// className, reservationId) are not applied here; that is the normalizer's
// job so that decoding stays a pure renaming step.
func (r *Reservation) UnmarshalJSON(b []byte) error {
	var aux reservationAlias
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.ReservationID = decodeReservationID(aux.ReservationID)
	if r.ReservationID == "" {
		r.ReservationID = decodeReservationID(aux.LegacyID)
	}
	r.ItemID = aux.ItemID
	r.Category = aux.Category
	r.GuardianName = firstNonEmpty(aux.GuardianName, aux.ParentName)
	r.StudentName = firstNonEmpty(aux.StudentName, aux.LegacyStudent)
	r.Grade = aux.Grade
	r.ClassName = aux.ClassName
	r.ItemTitle = firstNonEmpty(aux.ItemTitle, aux.BookTitle)
	r.Timestamp = aux.Timestamp
	return nil
}

// decodeReservationID accepts the id as either a JSON string or a JSON
// number (the legacy engine stored int(unix seconds)) and returns its
// string form, or "" when the value is absent or null.
func decodeReservationID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// NumericID returns the reservation id as an integer when it is one of the
// freshly generated unix-second ids.  Synthesized legacy ids return false.
func (r Reservation) NumericID() (int64, bool) {
	n, err := strconv.ParseInt(r.ReservationID, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
