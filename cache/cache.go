// Package cache provides the caches the edge keeps in front of slow
// collaborators.
//
// Available implementations:
//   - TTLCache: a single value refreshed on read once it is older than its
//     TTL, with a fallback when the refresh fails
//   - Redis: a thin go-redis client shared between edge replicas
package cache

import (
	"context"
	"time"
)

// SyncFunc loads a fresh value. It should honor ctx for cancellation.
type SyncFunc[T any] func(ctx context.Context) (T, error)

// FallbackFunc derives the value to cache when a sync fails. ctx carries the
// caller's values but is never cancelled; bound any I/O inside it yourself.
// prev is the value cached before the failed sync, possibly the zero value.
type FallbackFunc[T any] func(ctx context.Context, prev T, err error) T

// EmptyFunc reports whether v counts as empty. An empty value is always
// refreshed, whatever its age.
type EmptyFunc[T any] func(v T) bool

// Entry is a cached value paired with the time it was stored
type Entry[T any] struct {
	Value       T
	RefreshedAt time.Time
	// Invalidated is set by Invalidate until the next refresh
	Invalidated bool
}

// TTLCache holds one value that is refreshed lazily by readers.
//
// Readers never block each other. There is no single-flight: readers that
// observe a stale value at the same time each run their own sync, and the
// last one to finish wins. Value and timestamp are published together.
//
// For reference types Get returns the cached value itself, not a copy.
// Callers MUST treat it as read-only.
type TTLCache[T any] interface {
	// Get returns the cached value, syncing first when it is empty, stale
	// or invalidated. Sync failures are absorbed by the fallback.
	Get(ctx context.Context) T

	// Refresh syncs unconditionally and returns the value now cached
	Refresh(ctx context.Context) T

	// Invalidate marks the current value stale without discarding it
	Invalidate()

	// Peek returns the current entry without syncing
	Peek() Entry[T]
}
