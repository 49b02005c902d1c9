package cache

import (
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig is returned when a cache is constructed without a sync function
	ErrInvalidConfig = fmt.Errorf("cache: invalid config")
)

// ErrSync wraps a failed sync
func ErrSync(err error) error {
	return fmt.Errorf("cache: sync failed: %w", err)
}

// ErrInvalidName returns an error for an empty cache name
func ErrInvalidName(name string) error {
	return fmt.Errorf("cache: invalid name: %q (must be non-empty)", name)
}

// ErrInvalidTTL returns an error for a non-positive ttl
func ErrInvalidTTL(ttl time.Duration) error {
	return fmt.Errorf("cache: invalid ttl: %v (must be > 0)", ttl)
}

// ErrInvalidSyncTimeout returns an error for a non-positive sync timeout
func ErrInvalidSyncTimeout(timeout time.Duration) error {
	return fmt.Errorf("cache: invalid sync timeout: %v (must be > 0)", timeout)
}

// ErrInvalidRedisConfig returns an error describing an invalid redis config
func ErrInvalidRedisConfig(msg string) error {
	return fmt.Errorf("cache: invalid redis config: %s", msg)
}

// ErrRedisConnection wraps a redis connection failure
func ErrRedisConnection(err error) error {
	return fmt.Errorf("cache: redis connection failed: %w", err)
}
