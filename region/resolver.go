// Package region resolves the visitor's country against the commerce
// backend's regions and decides whether a request path needs a country
// prefix.
package region

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dailyyoga/storefront-edge/cache"
	"github.com/dailyyoga/storefront-edge/commerce"
	"github.com/dailyyoga/storefront-edge/logger"
	"github.com/dailyyoga/storefront-edge/metrics"
	"go.uber.org/zap"
)

// Fetcher lists the backend's regions; commerce.Client satisfies it
type Fetcher interface {
	ListRegions(ctx context.Context) ([]commerce.StoreRegion, error)
}

// Decision is the outcome for one request
type Decision struct {
	CountryCode string
	// Rewrite is set when the path lacks a known country prefix
	Rewrite bool
	// Path is the path to serve, prefixed when Rewrite is set
	Path string
	// Cookie persists CountryCode and is set on every decision
	Cookie *http.Cookie
}

// Option customizes a Resolver
type Option func(*Resolver)

// WithClock replaces time.Now for the mapping TTL
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithSnapshotStore shares fetched mappings through store and reads them
// back when the backend fails
func WithSnapshotStore(store SnapshotStore) Option {
	return func(r *Resolver) {
		r.store = store
	}
}

// Resolver owns the process-wide region mapping
type Resolver struct {
	logger  logger.Logger
	config  *Config
	fetcher Fetcher
	store   SnapshotStore
	now     func() time.Time

	cache cache.TTLCache[*Mapping]
}

// refreshReport carries the outcome of one Refresh call through the cache
type refreshReport struct {
	err error
}

type reportKey struct{}

// NewResolver creates a resolver. The mapping starts empty and is fetched by
// the first request or Refresh.
func NewResolver(log logger.Logger, cfg *Config, fetcher Fetcher, opts ...Option) (*Resolver, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fetcher == nil {
		return nil, ErrInvalidConfig("fetcher is required")
	}

	r := &Resolver{
		logger:  log,
		config:  cfg,
		fetcher: fetcher,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	c, err := cache.NewTTLCache[*Mapping](log,
		&cache.TTLCacheConfig{Name: cfg.Tag(), TTL: TTL, SyncTimeout: cfg.SyncTimeout},
		r.fetch,
		cache.WithClock[*Mapping](r.now),
		cache.WithFallback[*Mapping](r.fallback),
		cache.WithEmpty[*Mapping](func(m *Mapping) bool { return m.Len() == 0 }),
	)
	if err != nil {
		return nil, err
	}
	r.cache = c
	return r, nil
}

// Config returns the resolver's configuration
func (r *Resolver) Config() Config {
	return *r.config
}

// EnsureFreshMapping returns the mapping, refetching it first when it is
// empty, older than TTL or invalidated. It never fails: a failed refetch
// yields the fallback mapping.
func (r *Resolver) EnsureFreshMapping(ctx context.Context) *Mapping {
	return r.cache.Get(ctx)
}

// Refresh refetches unconditionally. The returned mapping is always usable;
// the error reports why it did not come from the backend.
func (r *Resolver) Refresh(ctx context.Context) (*Mapping, error) {
	report := &refreshReport{}
	m := r.cache.Refresh(context.WithValue(ctx, reportKey{}, report))
	return m, report.err
}

// Invalidate makes the next request refetch while still serving the current
// mapping to concurrent readers
func (r *Resolver) Invalidate(trigger string) {
	r.cache.Invalidate()
	metrics.RecordInvalidation(trigger)
}

// Snapshot returns the current mapping and when it was stored, without
// refetching
func (r *Resolver) Snapshot() (*Mapping, time.Time) {
	e := r.cache.Peek()
	return e.Value, e.RefreshedAt
}

// ResolveCountryCode picks the query parameter, then the cookie, then the
// default country. A code that is not in m becomes m's first country, or the
// default when m is empty.
func (r *Resolver) ResolveCountryCode(req *http.Request, m *Mapping) string {
	code := req.URL.Query().Get(CountryQueryParam)
	if code == "" {
		if c, err := req.Cookie(CountryCookie); err == nil && c.Value != "" {
			code = c.Value
		}
	}
	if code == "" {
		code = r.config.DefaultCountry
	}

	if m.Has(code) {
		return code
	}
	if first, ok := m.First(); ok {
		return first
	}
	return r.config.DefaultCountry
}

// DecideRewrite passes the request through when its first path segment is a
// country of m, and otherwise prefixes the path with countryCode.
func (r *Resolver) DecideRewrite(req *http.Request, m *Mapping, countryCode string) Decision {
	path := req.URL.Path
	d := Decision{
		CountryCode: countryCode,
		Path:        path,
		Cookie:      CountryCookieFor(countryCode),
	}

	if m.Has(firstSegment(req.URL.EscapedPath())) {
		return d
	}

	d.Rewrite = true
	d.Path = "/" + countryCode + path
	return d
}

// Resolve runs the whole per-request flow
func (r *Resolver) Resolve(req *http.Request) Decision {
	m := r.EnsureFreshMapping(req.Context())
	return r.DecideRewrite(req, m, r.ResolveCountryCode(req, m))
}

// RewriteURL returns a copy of u pointing at d.Path, keeping the query
func RewriteURL(u *url.URL, d Decision) *url.URL {
	out := *u
	out.Path = d.Path
	out.RawPath = ""
	if u.RawPath != "" && d.Rewrite {
		out.RawPath = "/" + url.PathEscape(d.CountryCode) + u.RawPath
	}
	return &out
}

// CountryCookieFor builds the cookie persisting code for a year
func CountryCookieFor(code string) *http.Cookie {
	return &http.Cookie{
		Name:   CountryCookie,
		Value:  code,
		Path:   "/",
		MaxAge: CookieMaxAge,
	}
}

// firstSegment returns the segment after the first "/". "/" and "" yield "".
func firstSegment(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func (r *Resolver) fetch(ctx context.Context) (*Mapping, error) {
	start := time.Now()
	regions, err := r.fetcher.ListRegions(ctx)
	metrics.ObserveRegionFetch(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	m := BuildMapping(regions)
	if m.Len() == 0 {
		return nil, ErrNoCountries
	}

	metrics.RecordRegionRefresh(metrics.RefreshSuccess, m.Len())
	r.saveSnapshot(ctx, m)

	r.logger.Info("region mapping refreshed",
		zap.Int("regions", len(regions)),
		zap.Int("countries", m.Len()),
	)
	return m, nil
}

// fallback keeps the previous mapping when it holds fetched regions, else
// serves the shared snapshot when there is one, and makes sure the default
// country resolves either way
func (r *Resolver) fallback(ctx context.Context, prev *Mapping, err error) *Mapping {
	source := metrics.RefreshFallback
	base := prev
	if !prev.HasFetchedRegions() {
		if snap := r.loadSnapshot(ctx); snap != nil {
			source = metrics.RefreshSnapshot
			base = snap
		}
	}

	m := base.WithDefault(r.config.DefaultCountry)
	if report, ok := ctx.Value(reportKey{}).(*refreshReport); ok {
		report.err = err
	}
	metrics.RecordRegionRefresh(source, m.Len())

	fields := []zap.Field{
		zap.String("source", source),
		zap.Int("countries", m.Len()),
		zap.Error(err),
	}
	var upstream *commerce.UpstreamError
	if errors.As(err, &upstream) {
		fields = append(fields, zap.Int("status", upstream.StatusCode))
	}
	r.logger.Warn("region fetch failed, serving fallback mapping", fields...)
	return m
}

func (r *Resolver) saveSnapshot(ctx context.Context, m *Mapping) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, m); err != nil {
		r.logger.Warn("failed to save region snapshot", zap.Error(err))
	}
}

func (r *Resolver) loadSnapshot(ctx context.Context) *Mapping {
	if r.store == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.SyncTimeout)
	defer cancel()

	m, err := r.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrSnapshotNotFound) {
			r.logger.Warn("failed to load region snapshot", zap.Error(err))
		}
		return nil
	}
	return m
}
