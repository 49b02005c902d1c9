package middleware

import (
	"net/http"
	"strings"
)

// DefaultExcludedPrefixes are never localised: api routes, build assets
// and static files
var DefaultExcludedPrefixes = []string{
	"api",
	"_next/static",
	"_next/image",
	"favicon.ico",
	"public",
}

// Matcher decides which requests the locale middleware handles
type Matcher interface {
	Match(r *http.Request) bool
}

// MatcherFunc adapts a function to Matcher
type MatcherFunc func(r *http.Request) bool

// Match calls f
func (f MatcherFunc) Match(r *http.Request) bool { return f(r) }

// PrefixMatcher matches every path that does not start with one of its
// prefixes. Prefixes are compared against the path without its leading "/",
// so "api" also excludes "/apiary".
type PrefixMatcher struct {
	excluded []string
}

// NewPrefixMatcher creates a matcher excluding prefixes. Leading slashes on
// prefixes are ignored.
func NewPrefixMatcher(prefixes ...string) *PrefixMatcher {
	excluded := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = strings.TrimLeft(p, "/"); p != "" {
			excluded = append(excluded, p)
		}
	}
	return &PrefixMatcher{excluded: excluded}
}

// Match reports whether r should be localised
func (m *PrefixMatcher) Match(r *http.Request) bool {
	path := strings.TrimPrefix(r.URL.Path, "/")
	for _, p := range m.excluded {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	return true
}
