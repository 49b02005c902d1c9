package commerce

import (
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is used when neither backend url variable is set
const DefaultBaseURL = "http://localhost:9000"

// Config is the configuration for the commerce backend client
type Config struct {
	// BaseURL is the backend url used from inside the deployment network
	BaseURL string `env:"MEDUSA_BACKEND_URL"`
	// PublicBaseURL is the browser-facing backend url, used when BaseURL is empty
	PublicBaseURL string `env:"NEXT_PUBLIC_MEDUSA_BACKEND_URL"`
	// PublishableKey is sent as x-publishable-api-key
	PublishableKey string `env:"NEXT_PUBLIC_MEDUSA_PUBLISHABLE_KEY"`
	// Debug logs every backend call at debug level
	Debug bool `env:"MEDUSA_DEBUG"`
	// Timeout bounds a single backend call
	// default: 5 * time.Second
	Timeout time.Duration `env:"COMMERCE_TIMEOUT"`
}

// DefaultConfig returns the default client configuration
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: 5 * time.Second,
	}
}

// MergeDefaults resolves the base url chain and fills zero fields
func (c *Config) MergeDefaults() *Config {
	defaults := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = c.PublicBaseURL
	}
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	return c
}

// Validate validates the client configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return ErrInvalidConfig("base_url: " + err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidConfig("base_url must be an http or https url, got " + c.BaseURL)
	}
	if u.Host == "" {
		return ErrInvalidConfig("base_url has no host")
	}
	if c.Timeout <= 0 {
		return ErrInvalidConfig("timeout must be greater than 0")
	}
	return nil
}
