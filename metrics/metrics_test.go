package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCanonicalPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"/us", "/:country"},
		{"/us/products/shirt", "/:country/products"},
		{"/products/shirt", "/products"},
		{"/healthz", "/healthz"},
	}
	for _, tt := range tests {
		if got := canonicalPath(tt.in); got != tt.want {
			t.Errorf("canonicalPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInstrumentHandler(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/:country/products", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/de/products/mug", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/:country/products", "418"))

	if after-before != 1 {
		t.Errorf("expected request counter to increase by 1, got %v", after-before)
	}
	if got := testutil.ToFloat64(httpInFlight); got != 0 {
		t.Errorf("expected no in-flight requests, got %v", got)
	}
}

func TestRecordRegionRefresh(t *testing.T) {
	before := testutil.ToFloat64(regionRefreshes.WithLabelValues(RefreshFallback))
	RecordRegionRefresh(RefreshFallback, 1)

	if got := testutil.ToFloat64(regionRefreshes.WithLabelValues(RefreshFallback)); got-before != 1 {
		t.Errorf("expected fallback counter to increase by 1, got %v", got-before)
	}
	if got := testutil.ToFloat64(regionMappingSize); got != 1 {
		t.Errorf("expected mapping size 1, got %v", got)
	}
}

func TestObserveRegionFetchAndDecisions(t *testing.T) {
	ObserveRegionFetch(10*time.Millisecond, nil)
	ObserveRegionFetch(time.Second, errors.New("boom"))
	RecordLocaleDecision(DecisionRewrite)
	RecordInvalidation("")

	if got := testutil.ToFloat64(regionInvalidations.WithLabelValues("unknown")); got < 1 {
		t.Errorf("expected unknown trigger to be counted, got %v", got)
	}
	if got := testutil.ToFloat64(localeDecisions.WithLabelValues(DecisionRewrite)); got < 1 {
		t.Errorf("expected rewrite decision to be counted, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	RecordLocaleDecision(DecisionPassthrough)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "storefront_edge_locale_decisions_total") {
		t.Error("expected locale decision metric in exposition")
	}
}
