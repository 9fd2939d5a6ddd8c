// Package model defines the persisted document and the records it holds.
// All application state lives in a single JSON document stored in a remote
// version-controlled object store; every operation decodes the whole
// document, mutates a private copy and writes it back conditionally.
package model

import (
	"encoding/json"
)

// Document is the single root object.  Items and reservations are ordered
// sequences (insertion order doubles as the display-order fallback), the
// roster is an unordered collection, and AdminConfig is a singleton.
//
// Top-level keys the current engine does not know about are captured in
// extra and written back untouched, so a document produced by a newer
// engine survives a read-modify-write round trip through this one.
type Document struct {
	Items        []Item
	Reservations []Reservation
	Students     []StudentRecord
	AdminConfig  AdminConfig

	extra map[string]json.RawMessage
}

// AdminConfig holds the shared admin secret.  Only a bcrypt digest of the
// secret is stored; the default digest is injected by the normalizer when
// the field is absent so that older documents keep working.
type AdminConfig struct {
	SecretHash string `json:"secretHash"`
}

// UnmarshalJSON decodes the document from its stored form.  Known top-level
// keys are decoded into their typed fields; everything else is retained as
// raw bytes for the round trip guarantee.
func (d *Document) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		var err error
		switch key {
		case "items":
			err = json.Unmarshal(val, &d.Items)
		case "reservations":
			err = json.Unmarshal(val, &d.Reservations)
		case "students":
			err = json.Unmarshal(val, &d.Students)
		case "adminConfig":
			err = json.Unmarshal(val, &d.AdminConfig)
		default:
			if d.extra == nil {
				d.extra = make(map[string]json.RawMessage)
			}
			d.extra[key] = val
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON encodes the document for storage.  The four known collections
// are always emitted (empty collections encode as empty arrays, not null)
// and unknown keys captured at decode time are merged back in.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.extra)+4)
	for k, v := range d.extra {
		out[k] = v
	}
	items := d.Items
	if items == nil {
		items = []Item{}
	}
	reservations := d.Reservations
	if reservations == nil {
		reservations = []Reservation{}
	}
	students := d.Students
	if students == nil {
		students = []StudentRecord{}
	}
	for key, v := range map[string]any{
		"items":        items,
		"reservations": reservations,
		"students":     students,
		"adminConfig":  d.AdminConfig,
	} {
		enc, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out[key] = enc
	}
	return json.Marshal(out)
}

// Extra returns the raw value of an unknown top-level key, if present.
func (d *Document) Extra(key string) (json.RawMessage, bool) {
	v, ok := d.extra[key]
	return v, ok
}

// SetExtra stores or removes an unknown top-level key.  Passing nil removes
// the key; the normalizer uses this to consume legacy keys it has folded
// into typed collections.
func (d *Document) SetExtra(key string, val json.RawMessage) {
	if val == nil {
		delete(d.extra, key)
		return
	}
	if d.extra == nil {
		d.extra = make(map[string]json.RawMessage)
	}
	d.extra[key] = val
}

// FindItem returns a pointer into Items for the item with the given id, or
// nil when no such item exists.  The pointer stays valid until Items is
// reallocated, so callers mutate and write back within one operation.
func (d *Document) FindItem(id int64) *Item {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return &d.Items[i]
		}
	}
	return nil
}

// NextItemID returns one past the highest assigned item id, starting at 1
// for an empty inventory.  Ids are never reused after deletion.
func (d *Document) NextItemID() int64 {
	var max int64
	for i := range d.Items {
		if d.Items[i].ID > max {
			max = d.Items[i].ID
		}
	}
	return max + 1
}
