package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dailyyoga/storefront-edge/logger"
	"github.com/dailyyoga/storefront-edge/routine"
	"go.uber.org/zap"
)

// TTLCacheOption customizes a TTLCache
type TTLCacheOption[T any] func(*ttlCache[T])

// WithClock replaces time.Now, mostly for tests
func WithClock[T any](now func() time.Time) TTLCacheOption[T] {
	return func(c *ttlCache[T]) {
		c.now = now
	}
}

// WithFallback sets the function deriving a value from a failed sync.
// Without it a failed sync keeps the previous value.
func WithFallback[T any](fn FallbackFunc[T]) TTLCacheOption[T] {
	return func(c *ttlCache[T]) {
		c.fallback = fn
	}
}

// WithEmpty sets the emptiness check. Without it no value is empty.
func WithEmpty[T any](fn EmptyFunc[T]) TTLCacheOption[T] {
	return func(c *ttlCache[T]) {
		c.empty = fn
	}
}

type ttlCache[T any] struct {
	logger   logger.Logger
	syncFunc SyncFunc[T]
	fallback FallbackFunc[T]
	empty    EmptyFunc[T]
	now      func() time.Time

	name        string
	ttl         time.Duration
	syncTimeout time.Duration

	entry atomic.Pointer[Entry[T]]
	// gen counts Invalidate calls so a sync started before one cannot clear it
	gen atomic.Uint64
}

// NewTTLCache creates a TTLCache. The cache starts empty, stamped with the
// construction time.
func NewTTLCache[T any](
	log logger.Logger,
	cfg *TTLCacheConfig,
	syncFunc SyncFunc[T],
	opts ...TTLCacheOption[T],
) (TTLCache[T], error) {
	if cfg == nil {
		cfg = DefaultTTLCacheConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if syncFunc == nil {
		return nil, ErrInvalidConfig
	}

	c := &ttlCache[T]{
		logger:      log,
		syncFunc:    syncFunc,
		now:         time.Now,
		name:        cfg.Name,
		ttl:         cfg.TTL,
		syncTimeout: cfg.SyncTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entry.Store(&Entry[T]{RefreshedAt: c.now()})
	return c, nil
}

func (c *ttlCache[T]) Get(ctx context.Context) T {
	e := c.entry.Load()
	if !c.stale(e) {
		return e.Value
	}
	return c.Refresh(ctx)
}

func (c *ttlCache[T]) Refresh(ctx context.Context) T {
	gen := c.gen.Load()
	prev := c.entry.Load()

	// the result is shared by every reader, so a departing caller must not cancel it
	syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.syncTimeout)
	defer cancel()

	start := c.now()
	var data T
	err := routine.Safe(c.logger, c.name+"-sync", func() error {
		var syncErr error
		data, syncErr = c.syncFunc(syncCtx)
		return syncErr
	})

	if err != nil {
		c.logger.Warn("sync failed, using fallback",
			zap.String("cache", c.name),
			zap.Error(ErrSync(err)),
		)
		data = prev.Value
		if c.fallback != nil {
			data = c.fallback(context.WithoutCancel(ctx), prev.Value, err)
		}
	} else {
		c.logger.Debug("sync completed successfully",
			zap.String("cache", c.name),
			zap.Duration("duration", c.now().Sub(start)),
		)
	}

	c.publish(gen, data)
	return data
}

// publish stores data, keeping it invalidated when Invalidate ran after gen
// was read.
func (c *ttlCache[T]) publish(gen uint64, data T) {
	for {
		cur := c.entry.Load()
		next := &Entry[T]{Value: data, RefreshedAt: c.now(), Invalidated: c.gen.Load() != gen}
		if c.entry.CompareAndSwap(cur, next) {
			return
		}
	}
}

func (c *ttlCache[T]) Invalidate() {
	c.gen.Add(1)
	for {
		cur := c.entry.Load()
		if cur.Invalidated {
			return
		}
		next := &Entry[T]{Value: cur.Value, RefreshedAt: cur.RefreshedAt, Invalidated: true}
		if c.entry.CompareAndSwap(cur, next) {
			c.logger.Info("cache invalidated", zap.String("cache", c.name))
			return
		}
	}
}

func (c *ttlCache[T]) Peek() Entry[T] {
	return *c.entry.Load()
}

func (c *ttlCache[T]) stale(e *Entry[T]) bool {
	if e.Invalidated {
		return true
	}
	if c.empty != nil && c.empty(e.Value) {
		return true
	}
	return c.now().Sub(e.RefreshedAt) > c.ttl
}
