// Package middleware holds the HTTP middlewares sitting in front of the
// storefront renderer.
package middleware

import (
	"net/http"

	"github.com/dailyyoga/storefront-edge/logger"
	"github.com/dailyyoga/storefront-edge/metrics"
	"github.com/dailyyoga/storefront-edge/region"
	"go.uber.org/zap"
)

// Resolver decides the country and path of a request; *region.Resolver
// satisfies it
type Resolver interface {
	Resolve(r *http.Request) region.Decision
}

// LocaleOption customizes the locale middleware
type LocaleOption func(*localeOptions)

type localeOptions struct {
	matcher Matcher
}

// WithMatcher replaces the default prefix matcher
func WithMatcher(m Matcher) LocaleOption {
	return func(o *localeOptions) {
		o.matcher = m
	}
}

// Locale resolves the visitor's country for every matched request. It sets
// the country cookie on the response and, when the path lacks a known
// country prefix, rewrites the request to the prefixed path before handing
// it to next. next is always called.
func Locale(log logger.Logger, resolver Resolver, opts ...LocaleOption) func(http.Handler) http.Handler {
	o := &localeOptions{matcher: NewPrefixMatcher(DefaultExcludedPrefixes...)}
	for _, opt := range opts {
		opt(o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !o.matcher.Match(r) {
				metrics.RecordLocaleDecision(metrics.DecisionSkipped)
				next.ServeHTTP(w, r)
				return
			}

			d := resolver.Resolve(r)
			http.SetCookie(w, d.Cookie)

			if !d.Rewrite {
				metrics.RecordLocaleDecision(metrics.DecisionPassthrough)
				next.ServeHTTP(w, r)
				return
			}

			metrics.RecordLocaleDecision(metrics.DecisionRewrite)
			log.Debug("rewriting request",
				zap.String("from", r.URL.Path),
				zap.String("to", d.Path),
				zap.String("country", d.CountryCode),
			)

			rewritten := r.Clone(r.Context())
			rewritten.URL = region.RewriteURL(r.URL, d)
			rewritten.RequestURI = rewritten.URL.RequestURI()
			next.ServeHTTP(w, rewritten)
		})
	}
}
