// Package schema upgrades stored documents to the current shape.  The
// store is the single source of truth and may have been written by an
// older engine, so normalization runs after every read.  Every rule is
// idempotent and the whole pass is total: any input document comes out
// satisfying the invariants the rest of the code relies on.
package schema

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/villaedu/reserva/internal/model"
)

// UnspecifiedClass is the sentinel class name given to reservations written
// before classes existed in the schema.
const UnspecifiedClass = "Unspecified"

// DefaultAdminSecret is the secret an admin uses on a fresh document until
// it is rotated.  Only its hash is ever stored.
const DefaultAdminSecret = "changeme"

// defaultSecretHash is a fixed bcrypt digest of DefaultAdminSecret.  It is
// a constant rather than hashed at startup so that normalization stays
// idempotent: the same bytes go into every document that lacks a hash.
const defaultSecretHash = "$2a$10$muQrRcUknJsH/4X0dEyXYe/E7Wqk9R5/t3rSluOkiWHho89y4ima2"

// Load decodes raw document bytes and normalizes the result.  nil or empty
// raw bytes mean no document exists yet and yield an empty normalized
// document, ready to be created with an empty version token.
func Load(raw []byte) (*model.Document, error) {
	doc := &model.Document{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
	}
	Normalize(doc)
	return doc, nil
}

// Normalize applies every schema upgrade rule in place.  Rules are
// independent and each is a no-op on an already current document, so
// Normalize(Normalize(d)) == Normalize(d).
func Normalize(doc *model.Document) {
	foldLegacyBooks(doc)

	if doc.Items == nil {
		doc.Items = []model.Item{}
	}
	if doc.Reservations == nil {
		doc.Reservations = []model.Reservation{}
	}
	if doc.Students == nil {
		doc.Students = []model.StudentRecord{}
	}
	if doc.AdminConfig.SecretHash == "" {
		doc.AdminConfig.SecretHash = defaultSecretHash
	}

	for i := range doc.Items {
		// The pre-category schema assumed books only.
		if doc.Items[i].Category == "" {
			doc.Items[i].Category = model.CategoryBook
		}
	}

	seen := make(map[string]bool, len(doc.Reservations))
	for i := range doc.Reservations {
		r := &doc.Reservations[i]
		if r.Category == "" {
			r.Category = model.CategoryBook
		}
		if r.ClassName == "" {
			r.ClassName = UnspecifiedClass
		}
		if r.ReservationID == "" {
			r.ReservationID = legacyReservationID(*r, seen)
		}
		seen[r.ReservationID] = true
	}
}

// foldLegacyBooks moves the original "books" collection into items.  The
// first release stored books with snake_case keys and a single reserved_by
// holder; once folded, the legacy key is consumed so the round trip does
// not duplicate the data.
func foldLegacyBooks(doc *model.Document) {
	raw, ok := doc.Extra("books")
	if !ok {
		return
	}
	var books []struct {
		ID         int64   `json:"id"`
		Title      string  `json:"title"`
		Author     string  `json:"author"`
		Grade      string  `json:"grade"`
		Subject    string  `json:"subject"`
		Available  bool    `json:"available"`
		ReservedBy *string `json:"reserved_by"`
	}
	if err := json.Unmarshal(raw, &books); err != nil {
		// Unreadable legacy data is left where it is rather than dropped.
		return
	}
	for _, b := range books {
		item := model.Item{
			ID:        b.ID,
			Title:     b.Title,
			Category:  model.CategoryBook,
			Grade:     b.Grade,
			ClassName: UnspecifiedClass,
			Available: b.Available,
		}
		// The legacy schema only recorded the guardian.  Both holder
		// fields move together, so the guardian name stands in for the
		// student until the family re-reserves.
		if !b.Available && b.ReservedBy != nil {
			item.SetHolder(*b.ReservedBy, *b.ReservedBy)
		}
		if !item.Available && item.ReservedByGuardian == nil {
			// Reserved with no recorded holder: treat as available, the
			// reservation list is the authoritative record for these.
			item.Available = true
		}
		doc.Items = append(doc.Items, item)
	}
	doc.SetExtra("books", nil)
}

// legacyReservationID synthesizes a stable id for a reservation written
// before ids existed.  The id is derived from the record's own content (a
// positional index would become ambiguous if the list were ever reordered
// between normalizations) and tagged "legacy-" so it can never collide
// with a freshly generated unix-seconds id.  Identical records are
// disambiguated with a numeric suffix in list order.
func legacyReservationID(r model.Reservation, seen map[string]bool) string {
	content := strings.Join([]string{r.GuardianName, r.StudentName, r.ItemTitle, r.Grade, r.Timestamp}, "|")
	sum := sha1.Sum([]byte(content))
	id := fmt.Sprintf("legacy-%s-%x", nameFragment(r.StudentName), sum[:4])
	if !seen[id] {
		return id
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if !seen[candidate] {
			return candidate
		}
	}
}

// nameFragment reduces a student name to a short lowercase alphanumeric
// tag for readable legacy ids.
func nameFragment(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= 8 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return "student"
	}
	return b.String()
}
