package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dailyyoga/storefront-edge/commerce"
	"github.com/dailyyoga/storefront-edge/config"
	"github.com/dailyyoga/storefront-edge/logger"
	"github.com/dailyyoga/storefront-edge/region"
)

// newTestEdge starts a fake commerce backend and renderer and returns the
// edge router in front of them
func newTestEdge(t *testing.T, regionsBody string) (http.Handler, *region.Resolver) {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, regionsBody)
	}))
	t.Cleanup(backend.Close)

	renderer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "rendered "+r.URL.RequestURI())
	}))
	t.Cleanup(renderer.Close)

	cfg := &config.Config{
		Server:   config.Server{RendererURL: renderer.URL},
		Commerce: commerce.Config{BaseURL: backend.URL, PublishableKey: "pk_test"},
	}
	cfg.MergeDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}

	client, err := commerce.NewClient(logger.Nop(), &cfg.Commerce)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	resolver, err := region.NewResolver(logger.Nop(), &cfg.Region, client)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	router, err := newRouter(logger.Nop(), cfg, resolver)
	if err != nil {
		t.Fatalf("newRouter failed: %v", err)
	}
	return router, resolver
}

const twoRegions = `{"regions":[
	{"id":"reg_eu","name":"Europe","countries":[{"iso_2":"de"},{"iso_2":"fr"}]},
	{"id":"reg_na","name":"North America","countries":[{"iso_2":"us"}]}
]}`

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRouter_RewritesAndProxies(t *testing.T) {
	router, _ := newTestEdge(t, twoRegions)

	rec := get(router, "/products/mug?ref=home")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "rendered /us/products/mug?ref=home" {
		t.Errorf("unexpected renderer request %q", body)
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), "_medusa_country=us") {
		t.Errorf("expected country cookie, got %q", rec.Header().Get("Set-Cookie"))
	}
}

func TestRouter_ExcludedPathsAreProxiedUntouched(t *testing.T) {
	router, _ := newTestEdge(t, twoRegions)

	rec := get(router, "/_next/static/app.js")
	if body := rec.Body.String(); body != "rendered /_next/static/app.js" {
		t.Errorf("unexpected renderer request %q", body)
	}
	if rec.Header().Get("Set-Cookie") != "" {
		t.Error("did not expect a cookie on static assets")
	}
}

func TestRouter_Healthz(t *testing.T) {
	router, _ := newTestEdge(t, twoRegions)

	var before healthResponse
	if err := json.Unmarshal(get(router, "/healthz").Body.Bytes(), &before); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if before.Status != "ok" || before.Countries != 0 || before.RefreshedAt != nil {
		t.Errorf("expected an untouched cache before traffic, got %+v", before)
	}

	get(router, "/")

	var after healthResponse
	if err := json.Unmarshal(get(router, "/healthz").Body.Bytes(), &after); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if after.Countries != 3 || after.RefreshedAt == nil || after.Placeholder {
		t.Errorf("unexpected health after traffic %+v", after)
	}
}

func TestRouter_HealthzReportsPlaceholder(t *testing.T) {
	router, resolver := newTestEdge(t, `{"regions":[]}`)
	get(router, "/")

	var health healthResponse
	if err := json.Unmarshal(get(router, "/healthz").Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if !health.Placeholder || health.Countries != 1 {
		t.Errorf("expected the placeholder mapping, got %+v", health)
	}
	if m, _ := resolver.Snapshot(); !m.Has("us") {
		t.Error("expected the default country to be mapped")
	}
}

func TestRouter_Metrics(t *testing.T) {
	router, _ := newTestEdge(t, twoRegions)
	get(router, "/")

	rec := get(router, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "storefront_edge_region_refresh_total") {
		t.Errorf("expected region metrics, got %d", rec.Code)
	}
}

func TestRouter_RendererDown(t *testing.T) {
	// nothing listens on the discard port
	down, err := newRouter(logger.Nop(), &config.Config{Server: config.Server{RendererURL: "http://127.0.0.1:9"}}, mustResolver(t))
	if err != nil {
		t.Fatalf("newRouter failed: %v", err)
	}
	if rec := get(down, "/de/cart"); rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func mustResolver(t *testing.T) *region.Resolver {
	t.Helper()
	client, err := commerce.NewClient(logger.Nop(), &commerce.Config{BaseURL: "http://127.0.0.1:9"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	r, err := region.NewResolver(logger.Nop(), nil, client)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	return r
}
