// Package metrics holds the edge's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront_edge"

// Refresh results
const (
	RefreshSuccess  = "success"
	RefreshSnapshot = "snapshot"
	RefreshFallback = "fallback"
)

// Locale middleware decisions
const (
	DecisionRewrite     = "rewrite"
	DecisionPassthrough = "passthrough"
	DecisionSkipped     = "skipped"
)

var (
	// Registry holds the edge's collectors
	Registry = prometheus.NewRegistry()

	regionRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "region",
			Name:      "refresh_total",
			Help:      "Region mapping refreshes by the source that produced the mapping.",
		},
		[]string{"result"},
	)

	regionFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "region",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of region fetches against the commerce backend.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 11), // 5ms to ~5s
		},
		[]string{"success"},
	)

	regionMappingSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "region",
			Name:      "mapping_size",
			Help:      "Number of countries in the cached region mapping.",
		},
	)

	regionInvalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "region",
			Name:      "invalidations_total",
			Help:      "Region cache invalidations by trigger.",
		},
		[]string{"trigger"},
	)

	localeDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "locale",
			Name:      "decisions_total",
			Help:      "Locale middleware outcomes.",
		},
		[]string{"decision"},
	)

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		regionRefreshes,
		regionFetchDuration,
		regionMappingSize,
		regionInvalidations,
		localeDecisions,
		httpInFlight,
		httpRequests,
		httpDuration,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler exposes the registry
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRegionRefresh counts a refresh and the size of the mapping it produced
func RecordRegionRefresh(result string, size int) {
	regionRefreshes.WithLabelValues(result).Inc()
	regionMappingSize.Set(float64(size))
}

// ObserveRegionFetch records one backend fetch
func ObserveRegionFetch(duration time.Duration, err error) {
	regionFetchDuration.WithLabelValues(strconv.FormatBool(err == nil)).Observe(duration.Seconds())
}

// RecordInvalidation counts a cache invalidation
func RecordInvalidation(trigger string) {
	if trigger == "" {
		trigger = "unknown"
	}
	regionInvalidations.WithLabelValues(trigger).Inc()
}

// RecordLocaleDecision counts one middleware outcome
func RecordLocaleDecision(decision string) {
	localeDecisions.WithLabelValues(decision).Inc()
}

// InstrumentHandler wraps next with HTTP metrics
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		method := strings.ToUpper(r.Method)
		path := canonicalPath(r.URL.Path)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// canonicalPath keeps label cardinality bounded: the country prefix and the
// first resource segment, nothing deeper
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts[0]) == 2 {
		if len(parts) == 1 {
			return "/:country"
		}
		return "/:country/" + parts[1]
	}
	return "/" + parts[0]
}
