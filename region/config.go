package region

import (
	"regexp"
	"strings"
	"time"
)

const (
	// TTL is how long a fetched mapping is served before it is refetched
	TTL = time.Hour

	// CountryCookie persists the resolved country on the visitor
	CountryCookie = "_medusa_country"

	// CountryQueryParam overrides the cookie for one request
	CountryQueryParam = "country"

	// CookieMaxAge is one year in seconds
	CookieMaxAge = 60 * 60 * 24 * 365

	// WarmTaskName is the cron task refreshing the mapping
	WarmTaskName = "regions-refresh"
)

var countryCodePattern = regexp.MustCompile(`^[a-z]{2}$`)

// Config configures the resolver
type Config struct {
	// DefaultCountry is used when neither query nor cookie carry a country
	// default: "us"
	DefaultCountry string `env:"NEXT_PUBLIC_DEFAULT_REGION"`

	// CacheKey names the mapping in snapshots and invalidation events
	// default: "medusa-regions"
	CacheKey string `env:"REGION_CACHE_KEY"`

	// WarmSpec is the 6-field cron spec of the warm task
	// default: "0 */10 * * * *"
	WarmSpec string `env:"REGION_WARM_SPEC"`

	// SnapshotTTL is the expiry of the shared snapshot
	// default: 24h
	SnapshotTTL time.Duration `env:"REGION_SNAPSHOT_TTL"`

	// SyncTimeout bounds one refresh including the snapshot fallback
	// default: 10s
	SyncTimeout time.Duration `env:"REGION_SYNC_TIMEOUT"`
}

// DefaultConfig returns the default resolver configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultCountry: "us",
		CacheKey:       "medusa-regions",
		WarmSpec:       "0 */10 * * * *",
		SnapshotTTL:    24 * time.Hour,
		SyncTimeout:    10 * time.Second,
	}
}

// MergeDefaults fills zero fields with defaults. DefaultCountry is
// lowercased, matching the mapping keys.
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	c.DefaultCountry = strings.ToLower(strings.TrimSpace(c.DefaultCountry))
	if c.DefaultCountry == "" {
		c.DefaultCountry = defaults.DefaultCountry
	}
	if c.CacheKey == "" {
		c.CacheKey = defaults.CacheKey
	}
	if c.WarmSpec == "" {
		c.WarmSpec = defaults.WarmSpec
	}
	if c.SnapshotTTL == 0 {
		c.SnapshotTTL = defaults.SnapshotTTL
	}
	if c.SyncTimeout == 0 {
		c.SyncTimeout = defaults.SyncTimeout
	}
	return c
}

// Validate validates the resolver configuration
func (c *Config) Validate() error {
	if !countryCodePattern.MatchString(c.DefaultCountry) {
		return ErrInvalidConfig("default country must be a two letter code, got " + c.DefaultCountry)
	}
	if c.CacheKey == "" {
		return ErrInvalidConfig("cache key is required")
	}
	if c.SnapshotTTL < 0 {
		return ErrInvalidConfig("snapshot ttl must not be negative")
	}
	if c.SyncTimeout <= 0 {
		return ErrInvalidConfig("sync timeout must be greater than 0")
	}
	return nil
}

// Tag is the tag carried by invalidation events and the snapshot key
func (c *Config) Tag() string {
	return "regions-" + c.CacheKey
}
