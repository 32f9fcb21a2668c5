// Package state binds one storage key to an in-memory value.
package state

import (
	"context"
	"sync"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/storage"
)

// Container holds the value stored under a single key. Every mutation is
// mirrored to storage before it returns. If that write fails the in-memory
// value still changes and the two diverge until the next successful write.
type Container[T any] struct {
	mu    sync.Mutex
	key   string
	store *storage.Adapter
	value T
}

// New reads key once from the adapter, falling back to initial.
func New[T any](ctx context.Context, store *storage.Adapter, key string, initial T) *Container[T] {
	return &Container[T]{
		key:   key,
		store: store,
		value: storage.Read(ctx, store, key, initial),
	}
}

func (c *Container[T]) Key() string { return c.key }

// Get returns the current value. Reference types are shared with the
// container; callers must not mutate them in place.
func (c *Container[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// SetValue replaces the value and persists it.
func (c *Container[T]) SetValue(ctx context.Context, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.store.Write(ctx, c.key, v)
}

// UpdateValue computes the next value from the previous one, persists it and
// returns it. fn runs under the container lock and must build a new value
// rather than mutate prev.
func (c *Container[T]) UpdateValue(ctx context.Context, fn func(prev T) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = fn(c.value)
	c.store.Write(ctx, c.key, c.value)
	return c.value
}

// Clear resets the value to the zero value and removes the key from storage.
func (c *Container[T]) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value = zero
	c.store.Remove(ctx, c.key)
}
