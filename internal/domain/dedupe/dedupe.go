// Package dedupe tracks keys already seen so tables keep only the first row per key.
package dedupe

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// Deduper records seen keys. It never evicts: forgetting a key would let a
// later duplicate through and break keep-first semantics.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool
	Size() int64
}

// inMemoryDeduper implements Deduper with a mutex-guarded set.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	sizeHint int
	size     atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.sizeHint)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}

// Key joins key parts with a separator that cannot occur in ids.
func Key(parts ...string) string {
	return strings.Join(parts, "\x00")
}

// KeepFirst returns rows with every repeated key after the first removed,
// preserving order. It returns the number of rows dropped as well.
func KeepFirst[T any](ctx context.Context, rows []T, key func(T) string) ([]T, int) {
	d := NewInMemoryDeduper(WithSizeHint(len(rows)))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if d.SeenAndRecord(ctx, key(r)) {
			continue
		}
		out = append(out, r)
	}
	return out, len(rows) - len(out)
}
