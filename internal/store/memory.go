package store

import (
	"context"
	"strconv"
	"sync"
)

// MemoryStore keeps the document in process memory behind a mutex.  It is
// the backend for tests and for local development without any external
// service.  The version token is a monotonically increasing counter.
type MemoryStore struct {
	mu      sync.Mutex
	raw     []byte
	version int64
}

// NewMemoryStore returns an empty in-memory store: the first Read reports
// an absent document.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Read returns a copy of the stored bytes and the current token, or
// (nil, "") when no document has been written yet.
func (s *MemoryStore) Read(ctx context.Context) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, "", nil
	}
	out := make([]byte, len(s.raw))
	copy(out, s.raw)
	return out, strconv.FormatInt(s.version, 10), nil
}

// Write applies the same token discipline as the remote backends: an empty
// token only creates, a non-empty token only updates when it is still
// current.  Anything else is a conflict with no state change.
func (s *MemoryStore) Write(ctx context.Context, raw []byte, token, message string) (WriteOutcome, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome := WriteUpdated
	switch {
	case token == "":
		if s.raw != nil {
			return WriteConflict, "", nil
		}
		outcome = WriteCreated
	default:
		if s.raw == nil || token != strconv.FormatInt(s.version, 10) {
			return WriteConflict, "", nil
		}
	}
	s.raw = make([]byte, len(raw))
	copy(s.raw, raw)
	s.version++
	return outcome, strconv.FormatInt(s.version, 10), nil
}
