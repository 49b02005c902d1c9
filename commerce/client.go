// Package commerce is the storefront's client for the commerce backend's
// store API.
package commerce

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/dailyyoga/storefront-edge/logger"
	"go.uber.org/zap"
)

// PublishableKeyHeader carries the storefront's publishable api key
const PublishableKeyHeader = "x-publishable-api-key"

// maxBodySize caps how much of a response body is read
const maxBodySize = 4 << 20

// Client talks to the commerce backend
type Client interface {
	// ListRegions returns every region visible to the publishable key
	ListRegions(ctx context.Context) ([]StoreRegion, error)
}

type defaultClient struct {
	logger         logger.Logger
	http           *http.Client
	baseURL        string
	publishableKey string
	debug          bool
}

// NewClient creates a backend client. A nil cfg uses DefaultConfig.
func NewClient(log logger.Logger, cfg *Config) (Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.MergeDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.PublishableKey == "" {
		log.Warn("no publishable api key configured, store requests may be rejected",
			zap.String("base_url", cfg.BaseURL))
	}

	return &defaultClient{
		logger:         log,
		http:           &http.Client{Timeout: cfg.Timeout},
		baseURL:        cfg.BaseURL,
		publishableKey: cfg.PublishableKey,
		debug:          cfg.Debug,
	}, nil
}

func (c *defaultClient) ListRegions(ctx context.Context) ([]StoreRegion, error) {
	var out listRegionsResponse
	if err := c.get(ctx, "/store/regions", &out); err != nil {
		return nil, err
	}
	if len(out.Regions) == 0 {
		return nil, ErrEmptyRegions
	}
	return out.Regions, nil
}

// get performs a GET against path and decodes a 2xx json body into dest
func (c *defaultClient) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return ErrRequest(err)
	}
	req.Header.Set("Accept", "application/json")
	if c.publishableKey != "" {
		req.Header.Set(PublishableKeyHeader, c.publishableKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return ErrRequest(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return ErrRequest(err)
	}

	if c.debug {
		c.logger.Debug("commerce request",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.Int("bytes", len(body)),
			zap.Duration("duration", time.Since(start)),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.Unmarshal(body, &e)
		return &UpstreamError{StatusCode: resp.StatusCode, Message: e.Message}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return ErrDecode(err)
	}
	return nil
}
