// Package cache defines the persistent store of engine evaluations keyed
// by position and search parameters.
package cache

import (
	"context"
	"errors"

	"github.com/discochess/gamereview/internal/eval"
)

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache: closed")

// Entry is one evaluation to store.
type Entry struct {
	Key eval.Key
	Set eval.Set
}

// Cache stores evaluation sets. A stored empty set is a valid hit and is
// distinct from a missing key.
type Cache interface {
	// BatchGet returns the stored sets for keys. Missing keys are absent
	// from the result.
	BatchGet(ctx context.Context, keys []eval.Key) (map[eval.Key]eval.Set, error)

	// BatchPut stores entries, replacing existing ones. Nil sets are
	// skipped.
	BatchPut(ctx context.Context, entries []Entry) error

	// Close releases resources. Further calls return ErrClosed.
	Close() error
}

// Counter is implemented by caches that can report how many entries
// they hold.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Storable filters out entries that must not be persisted.
func Storable(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Set != nil {
			out = append(out, e)
		}
	}
	return out
}
