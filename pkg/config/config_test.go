package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Catalog.URL != DefaultCatalogURL {
		t.Errorf("catalog url = %q", cfg.Catalog.URL)
	}
	if cfg.Viewport.Breakpoint != 768 {
		t.Errorf("breakpoint = %d; want 768", cfg.Viewport.Breakpoint)
	}
	if cfg.Fetch.Timeout != 10*time.Second {
		t.Errorf("fetch timeout = %s; want 10s", cfg.Fetch.Timeout)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("cache ttl = %s; want 5m", cfg.Cache.TTL)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
catalog:
  url: https://example.com/index.json
viewport:
  breakpoint: 600
fetch:
  timeout: 3s
  retries: 0
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Catalog.URL != "https://example.com/index.json" {
		t.Errorf("catalog url = %q", cfg.Catalog.URL)
	}
	if cfg.Viewport.Breakpoint != 600 {
		t.Errorf("breakpoint = %d", cfg.Viewport.Breakpoint)
	}
	if cfg.Fetch.Timeout != 3*time.Second || cfg.Fetch.Retries != 0 {
		t.Errorf("fetch = %+v", cfg.Fetch)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("QUIZ_VIEWPORT_BREAKPOINT", "1024")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("TELEGRAM_BOT_TOKEN", "abc")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Viewport.Breakpoint != 1024 {
		t.Errorf("breakpoint = %d; want 1024", cfg.Viewport.Breakpoint)
	}
	if cfg.Cache.RedisAddr != "cache:6379" {
		t.Errorf("redis addr = %q", cfg.Cache.RedisAddr)
	}
	if cfg.Telegram.Token != "abc" {
		t.Errorf("telegram token = %q", cfg.Telegram.Token)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Catalog:  CatalogConfig{URL: "https://example.com/i.json"},
			Fetch:    FetchConfig{Timeout: time.Second},
			Viewport: ViewportConfig{Breakpoint: 768},
			Session:  SessionConfig{TTL: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"relative url", func(c *Config) { c.Catalog.URL = "/index.json" }, true},
		{"ftp url", func(c *Config) { c.Catalog.URL = "ftp://example.com/x" }, true},
		{"zero timeout", func(c *Config) { c.Fetch.Timeout = 0 }, true},
		{"negative retries", func(c *Config) { c.Fetch.Retries = -1 }, true},
		{"max retries", func(c *Config) { c.Fetch.Retries = MaxRetries }, false},
		{"too many retries", func(c *Config) { c.Fetch.Retries = 40 }, true},
		{"zero breakpoint", func(c *Config) { c.Viewport.Breakpoint = 0 }, true},
		{"zero session ttl", func(c *Config) { c.Session.TTL = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}
