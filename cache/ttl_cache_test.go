package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func isZero(v int) bool { return v == 0 }

func TestTTLCacheConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TTLCacheConfig
		wantErr bool
	}{
		{"valid", &TTLCacheConfig{Name: "regions", TTL: time.Hour, SyncTimeout: time.Second}, false},
		{"empty name", &TTLCacheConfig{TTL: time.Hour, SyncTimeout: time.Second}, true},
		{"zero ttl", &TTLCacheConfig{Name: "regions", SyncTimeout: time.Second}, true},
		{"negative timeout", &TTLCacheConfig{Name: "regions", TTL: time.Hour, SyncTimeout: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewTTLCache_Errors(t *testing.T) {
	load := func(ctx context.Context) (int, error) { return 1, nil }

	if _, err := NewTTLCache[int](testLogger(t), nil, load); err == nil {
		t.Error("expected error for nil config without name")
	}
	if _, err := NewTTLCache[int](testLogger(t), &TTLCacheConfig{Name: "x"}, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestTTLCache_SyncsWhenEmpty(t *testing.T) {
	clock := newFakeClock()
	var calls atomic.Int32
	c, err := NewTTLCache(testLogger(t), &TTLCacheConfig{Name: "test"},
		func(ctx context.Context) (int, error) {
			calls.Add(1)
			return 42, nil
		},
		WithClock[int](clock.Now),
		WithEmpty(isZero),
	)
	if err != nil {
		t.Fatalf("NewTTLCache failed: %v", err)
	}

	if got := c.Peek(); got.Value != 0 || !got.RefreshedAt.Equal(clock.Now()) {
		t.Errorf("expected empty entry stamped at construction, got %+v", got)
	}
	if v := c.Get(context.Background()); v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
	if v := c.Get(context.Background()); v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 sync, got %d", calls.Load())
	}
}

func TestTTLCache_RespectsTTL(t *testing.T) {
	clock := newFakeClock()
	var calls atomic.Int32
	c, _ := NewTTLCache(testLogger(t), &TTLCacheConfig{Name: "test", TTL: time.Hour},
		func(ctx context.Context) (int, error) {
			return int(calls.Add(1)), nil
		},
		WithClock[int](clock.Now),
		WithEmpty(isZero),
	)
	ctx := context.Background()

	c.Get(ctx)
	clock.Advance(time.Hour - time.Second)
	if v := c.Get(ctx); v != 1 {
		t.Errorf("expected cached value 1 just before expiry, got %d", v)
	}
	clock.Advance(2 * time.Second)
	if v := c.Get(ctx); v != 2 {
		t.Errorf("expected refreshed value 2 after expiry, got %d", v)
	}
}

func TestTTLCache_FallbackOnFailure(t *testing.T) {
	clock := newFakeClock()
	core, recorded := observer.New(zapcore.WarnLevel)
	var calls atomic.Int32
	upstream := errors.New("connection refused")

	c, _ := NewTTLCache(zap.New(core), &TTLCacheConfig{Name: "test", TTL: time.Hour},
		func(ctx context.Context) (int, error) {
			calls.Add(1)
			return 0, upstream
		},
		WithClock[int](clock.Now),
		WithEmpty(isZero),
		WithFallback(func(ctx context.Context, prev int, err error) int {
			if !errors.Is(err, upstream) {
				t.Errorf("fallback got unexpected error %v", err)
			}
			return prev + 7
		}),
	)
	ctx := context.Background()

	if v := c.Get(ctx); v != 7 {
		t.Errorf("expected fallback value 7, got %d", v)
	}
	// the fallback is stamped, so no refetch inside the ttl
	clock.Advance(time.Minute)
	c.Get(ctx)
	if calls.Load() != 1 {
		t.Errorf("expected 1 sync during outage window, got %d", calls.Load())
	}
	if n := recorded.FilterMessage("sync failed, using fallback").Len(); n != 1 {
		t.Errorf("expected 1 warning, got %d", n)
	}

	clock.Advance(time.Hour)
	if v := c.Get(ctx); v != 14 {
		t.Errorf("expected fallback to build on previous value, got %d", v)
	}
}

func TestTTLCache_FailureKeepsPreviousWithoutFallback(t *testing.T) {
	clock := newFakeClock()
	fail := false
	c, _ := NewTTLCache(testLogger(t), &TTLCacheConfig{Name: "test"},
		func(ctx context.Context) (int, error) {
			if fail {
				return 0, errors.New("timeout")
			}
			return 5, nil
		},
		WithClock[int](clock.Now),
		WithEmpty(isZero),
	)
	ctx := context.Background()

	c.Get(ctx)
	fail = true
	if v := c.Refresh(ctx); v != 5 {
		t.Errorf("expected previous value 5, got %d", v)
	}
}

func TestTTLCache_PanicIsTreatedAsFailure(t *testing.T) {
	c, _ := NewTTLCache(testLogger(t), &TTLCacheConfig{Name: "test"},
		func(ctx context.Context) (int, error) { panic("bad payload") },
		WithEmpty(isZero),
		WithFallback(func(ctx context.Context, prev int, err error) int { return -1 }),
	)
	if v := c.Get(context.Background()); v != -1 {
		t.Errorf("expected fallback after panic, got %d", v)
	}
}

func TestTTLCache_Invalidate(t *testing.T) {
	clock := newFakeClock()
	var calls atomic.Int32
	c, _ := NewTTLCache(testLogger(t), &TTLCacheConfig{Name: "test"},
		func(ctx context.Context) (int, error) {
			return int(calls.Add(1)), nil
		},
		WithClock[int](clock.Now),
		WithEmpty(isZero),
	)
	ctx := context.Background()

	c.Get(ctx)
	c.Invalidate()
	c.Invalidate()

	entry := c.Peek()
	if !entry.Invalidated || entry.Value != 1 {
		t.Errorf("expected invalidated entry keeping value 1, got %+v", entry)
	}
	if v := c.Get(ctx); v != 2 {
		t.Errorf("expected refresh after invalidate, got %d", v)
	}
	if c.Peek().Invalidated {
		t.Error("refresh should clear the invalidated flag")
	}
}

func TestTTLCache_InvalidateDuringSync(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	c, _ := NewTTLCache(testLogger(t), &TTLCacheConfig{Name: "test"},
		func(ctx context.Context) (int, error) {
			n := calls.Add(1)
			if n == 2 {
				close(started)
				<-release
			}
			return int(n), nil
		},
		WithEmpty(isZero),
	)
	ctx := context.Background()

	c.Get(ctx)
	c.Invalidate()

	done := make(chan int)
	go func() { done <- c.Get(ctx) }()
	<-started
	c.Invalidate()
	close(release)

	if v := <-done; v != 2 {
		t.Fatalf("expected in-flight sync to return 2, got %d", v)
	}
	if !c.Peek().Invalidated {
		t.Fatal("invalidation during sync was lost")
	}
	if v := c.Get(ctx); v != 3 {
		t.Errorf("expected another sync after invalidation, got %d", v)
	}
}

func TestTTLCache_SyncIgnoresCallerCancellation(t *testing.T) {
	c, _ := NewTTLCache(testLogger(t), &TTLCacheConfig{Name: "test"},
		func(ctx context.Context) (int, error) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			return 3, nil
		},
		WithEmpty(isZero),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if v := c.Get(ctx); v != 3 {
		t.Errorf("expected sync to run despite cancelled caller, got %d", v)
	}
}

func TestTTLCache_SyncTimeout(t *testing.T) {
	c, _ := NewTTLCache(testLogger(t), &TTLCacheConfig{Name: "test", SyncTimeout: 20 * time.Millisecond},
		func(ctx context.Context) (int, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		},
		WithEmpty(isZero),
		WithFallback(func(ctx context.Context, prev int, err error) int {
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("expected deadline exceeded, got %v", err)
			}
			return 9
		}),
	)
	if v := c.Get(context.Background()); v != 9 {
		t.Errorf("expected fallback after timeout, got %d", v)
	}
}

func TestTTLCache_ConcurrentReaders(t *testing.T) {
	c, _ := NewTTLCache(testLogger(t), &TTLCacheConfig{Name: "test"},
		func(ctx context.Context) (int, error) {
			time.Sleep(5 * time.Millisecond)
			return 11, nil
		},
		WithEmpty(isZero),
	)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v := c.Get(context.Background()); v != 11 {
				t.Errorf("expected 11, got %d", v)
			}
		}()
	}
	wg.Wait()
}
