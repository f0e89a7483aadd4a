package localstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("key not found")

// SchemaVersion tags every persisted document so a future migration can detect
// and rewrite stale layouts. Documents with a different version are treated as
// absent by readers.
const SchemaVersion = 1

// Store defines the interface for browser-local style key/value persistence.
// Writes follow last-write-wins semantics; callers do not coordinate beyond
// the store's own locking.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}
