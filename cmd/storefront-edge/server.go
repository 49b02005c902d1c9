package main

import (
	"encoding/json"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/dailyyoga/storefront-edge/config"
	"github.com/dailyyoga/storefront-edge/logger"
	"github.com/dailyyoga/storefront-edge/metrics"
	"github.com/dailyyoga/storefront-edge/middleware"
	"github.com/dailyyoga/storefront-edge/region"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type healthResponse struct {
	Status      string     `json:"status"`
	Mode        string     `json:"mode"`
	Countries   int        `json:"countries"`
	Placeholder bool       `json:"placeholder"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
}

func newRouter(log logger.Logger, cfg *config.Config, resolver *region.Resolver) (http.Handler, error) {
	target, err := url.Parse(cfg.Server.RendererURL)
	if err != nil {
		return nil, err
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("renderer request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusBadGateway)
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", healthHandler(cfg.Server.Mode, resolver)).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(metrics.InstrumentHandler(middleware.Locale(log, resolver)(proxy)))
	return r, nil
}

// healthHandler reports the cached mapping without refetching it
func healthHandler(mode config.Mode, resolver *region.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, refreshedAt := resolver.Snapshot()

		resp := healthResponse{
			Status:    "ok",
			Mode:      string(mode),
			Countries: m.Len(),
		}
		if m.Len() > 0 {
			resp.RefreshedAt = &refreshedAt
			if def, ok := m.Lookup(resolver.Config().DefaultCountry); ok {
				resp.Placeholder = def.IsPlaceholder()
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
