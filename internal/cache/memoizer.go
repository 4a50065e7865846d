package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/singleflight"
)

// Memoizer layers typed fill-on-miss semantics over a byte Cache:
// Memoize invokes the compute function only on a miss, stores the
// JSON-encoded result under the key, and de-duplicates concurrent
// computes so at most one is in flight per key. A failed or cancelled
// compute stores nothing, so the next caller retries from scratch.
type Memoizer struct {
	cache Cache
	group singleflight.Group
}

// NewMemoizer creates a Memoizer over the given cache.
func NewMemoizer(c Cache) *Memoizer {
	return &Memoizer{cache: c}
}

// Close closes the underlying cache.
func (m *Memoizer) Close() error {
	return m.cache.Close()
}

// Memoize returns the value stored under key, or runs compute, stores
// its result, and returns it. Readers of an already-resolved entry
// never observe a partially-written value: the entry is written only
// after compute fully succeeds.
func Memoize[T any](ctx context.Context, m *Memoizer, key string, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if v, ok := lookup[T](m, key); ok {
		return v, nil
	}

	res, err, _ := m.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have filled the entry while this
		// caller was waiting on the flight group.
		if v, ok := lookup[T](m, key); ok {
			return v, nil
		}

		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("memoize %s: encode: %w", key, err)
		}
		m.cache.Set(key, raw)
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}

// lookup decodes the entry under key. A corrupt entry reads as a miss
// and is recomputed.
func lookup[T any](m *Memoizer, key string) (T, bool) {
	var v T
	raw, ok := m.cache.Get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}
