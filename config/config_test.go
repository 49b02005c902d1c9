package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable the config reads for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "RENDERER_URL", "EDGE_MODE", "SHUTDOWN_TIMEOUT",
		"LOG_LEVEL", "LOG_ENCODING", "LOG_NAME",
		"MEDUSA_BACKEND_URL", "NEXT_PUBLIC_MEDUSA_BACKEND_URL", "NEXT_PUBLIC_MEDUSA_PUBLISHABLE_KEY",
		"MEDUSA_DEBUG", "COMMERCE_TIMEOUT",
		"NEXT_PUBLIC_DEFAULT_REGION", "REGION_CACHE_KEY", "REGION_WARM_SPEC", "REGION_SNAPSHOT_TTL", "REGION_SYNC_TIMEOUT",
		"REDIS_URL", "REDIS_ADDR", "REDIS_USERNAME", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
		"REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
		"KAFKA_BROKERS", "KAFKA_GROUP_ID", "REGION_EVENTS_TOPIC",
	} {
		if old, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { _ = os.Setenv(key, old) })
		} else {
			t.Cleanup(func() { _ = os.Unsetenv(key) })
		}
		_ = os.Unsetenv(key)
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8000 || cfg.Server.Mode != ModeShared || cfg.Server.RendererURL != "http://localhost:3000" {
		t.Errorf("unexpected server defaults %+v", cfg.Server)
	}
	if cfg.Commerce.BaseURL != "http://localhost:9000" || cfg.Commerce.Timeout != 5*time.Second {
		t.Errorf("unexpected commerce defaults %+v", cfg.Commerce)
	}
	if cfg.Region.DefaultCountry != "us" || cfg.Region.CacheKey != "medusa-regions" {
		t.Errorf("unexpected region defaults %+v", cfg.Region)
	}
	if cfg.Logger.Level != "info" || cfg.Logger.Encoding != "json" {
		t.Errorf("unexpected logger defaults %+v", cfg.Logger)
	}
	if cfg.Redis.Enabled() || cfg.Kafka.Enabled() {
		t.Error("redis and kafka should be disabled by default")
	}
}

func TestLoad_FromEnvFile(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, strings.Join([]string{
		"PORT=8080",
		"EDGE_MODE=Server",
		"NEXT_PUBLIC_MEDUSA_BACKEND_URL=https://api.example.com/",
		"NEXT_PUBLIC_MEDUSA_PUBLISHABLE_KEY=pk_123",
		"NEXT_PUBLIC_DEFAULT_REGION=DK",
		"COMMERCE_TIMEOUT=2s",
		"REDIS_URL=redis://localhost:6379/1",
		"KAFKA_BROKERS=k1:9092, k2:9092",
	}, "\n"))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 || cfg.Server.Mode != ModeServer {
		t.Errorf("unexpected server %+v", cfg.Server)
	}
	if cfg.Commerce.BaseURL != "https://api.example.com" || cfg.Commerce.PublishableKey != "pk_123" {
		t.Errorf("unexpected commerce %+v", cfg.Commerce)
	}
	if cfg.Commerce.Timeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %v", cfg.Commerce.Timeout)
	}
	if cfg.Region.DefaultCountry != "dk" {
		t.Errorf("expected lowercased default, got %q", cfg.Region.DefaultCountry)
	}
	if !cfg.Redis.Enabled() || cfg.Redis.PoolSize != 10 {
		t.Errorf("expected redis enabled with defaults, got %+v", cfg.Redis)
	}
	if got := cfg.Kafka.BrokerList(); !reflect.DeepEqual(got, []string{"k1:9092", "k2:9092"}) {
		t.Errorf("unexpected brokers %v", got)
	}
	consumer := cfg.Kafka.ConsumerConfig()
	if consumer.GroupID != "storefront-edge" || !reflect.DeepEqual(consumer.Topics, []string{"commerce.regions"}) {
		t.Errorf("unexpected consumer config %+v", consumer)
	}
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	path := writeEnvFile(t, "PORT=8080\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected process env to win, got %d", cfg.Server.Port)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		section string
	}{
		{"mode", map[string]string{"EDGE_MODE": "cluster"}, "server"},
		{"port", map[string]string{"PORT": "70000"}, "server"},
		{"renderer", map[string]string{"RENDERER_URL": "localhost:3000"}, "server"},
		{"log level", map[string]string{"LOG_LEVEL": "verbose"}, "logger"},
		{"backend", map[string]string{"MEDUSA_BACKEND_URL": "ftp://backend"}, "commerce"},
		{"default country", map[string]string{"NEXT_PUBLIC_DEFAULT_REGION": "usa"}, "region"},
		{"redis", map[string]string{"REDIS_URL": "http://localhost:6379"}, "redis"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			if err == nil || !strings.Contains(err.Error(), "config: invalid "+tt.section) {
				t.Errorf("expected invalid %s error, got %v", tt.section, err)
			}
		})
	}
}

func TestLoad_BadValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMMERCE_TIMEOUT", "soon")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil || !strings.Contains(err.Error(), "config: decode") {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestLoad_UnrelatedEnvFileOnly(t *testing.T) {
	clearEnv(t)
	t.Cleanup(func() { _ = os.Unsetenv("STOREFRONT_UNUSED") })

	file := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(file, []byte("STOREFRONT_UNUSED=1\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("expected defaults when no variable is set, got %v", err)
	}
	if cfg.Server.Port != 8000 || cfg.Region.DefaultCountry != "us" {
		t.Errorf("unexpected defaults %+v %+v", cfg.Server, cfg.Region)
	}
}

func TestMode(t *testing.T) {
	tests := []struct {
		mode       Mode
		http, warm bool
	}{
		{ModeShared, true, true},
		{ModeServer, true, false},
		{ModeWorker, false, true},
	}
	for _, tt := range tests {
		if tt.mode.ServesHTTP() != tt.http || tt.mode.RunsWarmer() != tt.warm {
			t.Errorf("%s: unexpected roles", tt.mode)
		}
	}
}
