// Package config reads the edge configuration from .env files and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/dailyyoga/storefront-edge/cache"
	"github.com/dailyyoga/storefront-edge/commerce"
	"github.com/dailyyoga/storefront-edge/kafka"
	"github.com/dailyyoga/storefront-edge/logger"
	"github.com/dailyyoga/storefront-edge/region"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Mode selects which parts of the edge a process runs
type Mode string

const (
	// ModeShared runs the HTTP edge, the warm task and the event consumer
	ModeShared Mode = "shared"
	// ModeServer runs the HTTP edge and the event consumer
	ModeServer Mode = "server"
	// ModeWorker runs the warm task only
	ModeWorker Mode = "worker"
)

// ServesHTTP reports whether m runs the HTTP edge
func (m Mode) ServesHTTP() bool { return m == ModeShared || m == ModeServer }

// RunsWarmer reports whether m runs the warm task
func (m Mode) RunsWarmer() bool { return m == ModeShared || m == ModeWorker }

// Server configures the HTTP edge
type Server struct {
	// Port default: 8000
	Port int `env:"PORT"`
	// RendererURL is where requests are proxied after localisation
	// default: "http://localhost:3000"
	RendererURL string `env:"RENDERER_URL"`
	// Mode default: "shared"
	Mode Mode `env:"EDGE_MODE"`
	// ShutdownTimeout default: 10s
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// Kafka configures the region event consumer
type Kafka struct {
	// Brokers is a comma separated broker list; empty disables the consumer
	Brokers string `env:"KAFKA_BROKERS"`
	// GroupID default: "storefront-edge"
	GroupID string `env:"KAFKA_GROUP_ID"`
	// Topic default: "commerce.regions"
	Topic string `env:"REGION_EVENTS_TOPIC"`
}

// Enabled reports whether brokers are configured
func (k Kafka) Enabled() bool {
	return len(k.BrokerList()) > 0
}

// BrokerList splits Brokers on commas
func (k Kafka) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// ConsumerConfig converts k into a kafka consumer configuration
func (k Kafka) ConsumerConfig() *kafka.ConsumerConfig {
	return (&kafka.ConsumerConfig{
		Brokers: k.BrokerList(),
		GroupID: k.GroupID,
		Topics:  []string{k.Topic},
	}).MergeDefaults()
}

// Config is the whole edge configuration
type Config struct {
	Server   Server
	Logger   logger.Config
	Commerce commerce.Config
	Region   region.Config
	Redis    cache.RedisConfig
	Kafka    Kafka
}

// Load reads files into the environment, skipping missing ones, then
// decodes the environment. Variables already set win over file values.
// Without files ".env" is read.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, ErrLoadEnvFile(f, err)
		}
	}

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil && !nothingSet(err) {
		return nil, ErrDecode(err)
	}

	cfg.MergeDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// nothingSet reports whether err only means no variable was set. StrictDecode
// reports that as ErrInvalidTarget; cfg is always a valid target here.
func nothingSet(err error) bool {
	return errors.Is(err, envdecode.ErrInvalidTarget) || errors.Is(err, envdecode.ErrNoTargetFieldsAreSet)
}

// MergeDefaults fills every section's zero fields
func (c *Config) MergeDefaults() *Config {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.RendererURL == "" {
		c.Server.RendererURL = "http://localhost:3000"
	}
	c.Server.Mode = Mode(strings.ToLower(string(c.Server.Mode)))
	if c.Server.Mode == "" {
		c.Server.Mode = ModeShared
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "storefront-edge"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "commerce.regions"
	}

	c.Logger.MergeDefaults()
	c.Commerce.MergeDefaults()
	c.Region.MergeDefaults()
	if c.Redis.Enabled() {
		c.Redis.MergeDefaults()
	}
	return c
}

// Validate validates every enabled section
func (c *Config) Validate() error {
	if err := c.Server.validate(); err != nil {
		return ErrInvalid("server", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return ErrInvalid("logger", err)
	}
	if err := c.Commerce.Validate(); err != nil {
		return ErrInvalid("commerce", err)
	}
	if err := c.Region.Validate(); err != nil {
		return ErrInvalid("region", err)
	}
	if c.Redis.Enabled() {
		if err := c.Redis.Validate(); err != nil {
			return ErrInvalid("redis", err)
		}
	}
	if c.Kafka.Enabled() {
		if err := c.Kafka.ConsumerConfig().Validate(); err != nil {
			return ErrInvalid("kafka", err)
		}
	}
	return nil
}

func (s Server) validate() error {
	switch s.Mode {
	case ModeShared, ModeServer, ModeWorker:
	default:
		return fmt.Errorf("unknown mode %q", s.Mode)
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port %d out of range", s.Port)
	}
	u, err := url.Parse(s.RendererURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("renderer url %q must be an absolute http(s) url", s.RendererURL)
	}
	if s.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown timeout must not be negative")
	}
	return nil
}

// Addr is the listen address of the HTTP edge
func (s Server) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
