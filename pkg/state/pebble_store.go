package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"
)

// PebbleStore keeps records as JSON envelopes in a pebble database, keyed by
// Ref.Identifier.
type PebbleStore[T any] struct {
	db  *pebble.DB
	now func() time.Time
}

// OpenPebble opens (creating when needed) the database in dir.
func OpenPebble[T any](dir string) (*PebbleStore[T], error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("state: pebble dir is required")
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("state: open pebble %s: %w", dir, err)
	}
	return &PebbleStore[T]{db: db, now: time.Now}, nil
}

// Close flushes and closes the database.
func (s *PebbleStore[T]) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PebbleStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}
	value, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return zero, Meta{}, false, nil
	}
	if err != nil {
		return zero, Meta{}, false, fmt.Errorf("state: get %s: %w", key, err)
	}
	data := append([]byte(nil), value...)
	_ = closer.Close()

	snapshot, meta, err := decodeEnvelope[T](data)
	if err != nil {
		return zero, Meta{}, false, fmt.Errorf("%s: %w", key, err)
	}
	return snapshot, meta, true, nil
}

func (s *PebbleStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}
	stamped := Stamp(meta, s.now())
	data, err := encodeEnvelope(snapshot, stamped)
	if err != nil {
		return Meta{}, err
	}
	if err := s.db.Set([]byte(key), data, pebble.Sync); err != nil {
		return Meta{}, fmt.Errorf("state: set %s: %w", key, err)
	}
	return stamped, nil
}
