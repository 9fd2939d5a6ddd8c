package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the document under one key and its version counter
// under a sibling key.  Conditional writes run inside a WATCH/MULTI
// transaction on both keys: if any other writer touches them between the
// caller's read of the version and the EXEC, the transaction fails and the
// write is reported as a conflict.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore wraps an existing client.  The key names the document;
// "<key>:version" holds the counter.
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if rdb == nil {
		panic("nil redis client passed to NewRedisStore")
	}
	if key == "" {
		key = "reserva:document"
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) versionKey() string { return s.key + ":version" }

// Read fetches the document bytes and version counter.  A missing version
// key means no document has been written yet.
func (s *RedisStore) Read(ctx context.Context) ([]byte, string, error) {
	version, err := s.rdb.Get(ctx, s.versionKey()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: redis read: %v", ErrUnavailable, err)
	}
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		return nil, "", fmt.Errorf("%w: redis read: %v", ErrUnavailable, err)
	}
	return raw, version, nil
}

// Write sets both keys transactionally.  The version is re-read under
// WATCH and compared against the caller's token; a mismatch, or a
// concurrent modification aborting the transaction, is a conflict.
func (s *RedisStore) Write(ctx context.Context, raw []byte, token, message string) (WriteOutcome, string, error) {
	outcome := WriteUpdated
	var newToken string

	txn := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, s.versionKey()).Result()
		switch {
		case errors.Is(err, redis.Nil):
			current = ""
		case err != nil:
			return err
		}
		if current != token {
			outcome = WriteConflict
			return nil
		}
		next := int64(1)
		if token != "" {
			n, err := strconv.ParseInt(token, 10, 64)
			if err != nil {
				outcome = WriteConflict
				return nil
			}
			next = n + 1
		} else {
			outcome = WriteCreated
		}
		newToken = strconv.FormatInt(next, 10)
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, raw, 0)
			pipe.Set(ctx, s.versionKey(), newToken, 0)
			return nil
		})
		return err
	}

	err := s.rdb.Watch(ctx, txn, s.key, s.versionKey())
	if errors.Is(err, redis.TxFailedErr) {
		return WriteConflict, "", nil
	}
	if err != nil {
		return WriteConflict, "", fmt.Errorf("%w: redis write: %v", ErrUnavailable, err)
	}
	if outcome == WriteConflict {
		return WriteConflict, "", nil
	}
	return outcome, newToken, nil
}
