// Package store defines the document store contract and its backends.  The
// store holds exactly one JSON document and hands out an opaque version
// token on every read; a write is conditional on that token still being
// current.  The conditional write is the only synchronization primitive in
// the system: it never blocks, it either succeeds and produces a new token
// or reports a conflict, and every retry decision is left to the caller.
package store

import (
	"context"
	"errors"
)

// WriteOutcome is the three-valued result of a conditional write.  Callers
// branch on it deterministically instead of catching a create-on-failure
// exception chain.
type WriteOutcome int

const (
	// WriteCreated means the document did not exist and was created.  Only
	// possible when the supplied token is empty.
	WriteCreated WriteOutcome = iota
	// WriteUpdated means the document was replaced under a matching token.
	WriteUpdated
	// WriteConflict means the store's current token no longer matches the
	// supplied one: another writer got there first.  Nothing was written.
	WriteConflict
)

// String returns the outcome name for logs.
func (o WriteOutcome) String() string {
	switch o {
	case WriteCreated:
		return "created"
	case WriteUpdated:
		return "updated"
	case WriteConflict:
		return "conflict"
	}
	return "unknown"
}

// ErrUnavailable is returned (wrapped) when the backing store cannot be
// reached at all – network or auth failure on read or write.  It is a
// retryable infrastructure error; no partial state is ever applied.
var ErrUnavailable = errors.New("document store unavailable")

// Store is the persistence boundary for the single application document.
//
// Read returns the raw document bytes and the current version token.  When
// no document exists yet it returns (nil, "", nil); the empty token is then
// the correct input for a creating Write.
//
// Write replaces the document if and only if the supplied token still
// matches the store's current one (or, with an empty token, if the document
// does not exist yet).  The message is a human-readable description of the
// change; backends with commit semantics record it and the rest ignore it.
// A conflict is reported through the outcome, not through the error.
type Store interface {
	Read(ctx context.Context) (raw []byte, token string, err error)
	Write(ctx context.Context, raw []byte, token, message string) (WriteOutcome, string, error)
}
