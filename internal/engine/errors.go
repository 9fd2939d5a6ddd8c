// Package engine implements the business rules of the reservation system:
// availability, per-category quotas, the reserve/cancel state transition
// and roster resolution.  Every state-changing operation works on a
// private in-memory copy of the document and ends in exactly one
// conditional write; every failure before that write leaves the store
// untouched.
//
// This file defines the sentinel error values shared by the engine's
// operations.  Handlers compare against them with errors.Is and translate
// each into an HTTP status.
package engine

import "errors"

// ErrNotFound is returned when the targeted item or reservation does not
// exist in the document the operation read.
var ErrNotFound = errors.New("not found")

// ErrAlreadyReserved is returned when the item exists but was no longer
// available at the in-memory recheck.  Users see "this item is no longer
// available", not a system fault.
var ErrAlreadyReserved = errors.New("item already reserved")

// ErrQuotaExceeded is a business-rule rejection: the student has no
// remaining quota in the item's category.  No write is attempted.
var ErrQuotaExceeded = errors.New("quota exceeded")

// ErrForbidden is returned when a cancel or delete is attempted by an
// identity that does not match the recorded holder and is not an admin
// override, or when a reserved item is targeted for deletion.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when the conditional write was rejected because
// the document changed underneath the operation.  The engine never retries
// on its own; the caller must re-read and decide.
var ErrConflict = errors.New("document changed, retry")

// ErrValidation is returned for malformed input, such as roster rows
// missing required fields.  It is reported before any mutation is
// attempted.
var ErrValidation = errors.New("validation failed")
