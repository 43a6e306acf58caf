package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
	if cfg.Cart.TTL != 24*time.Hour {
		t.Fatalf("expected default cart TTL 24h, got %v", cfg.Cart.TTL)
	}
	if cfg.Upstream.MaxRetries != 2 {
		t.Fatalf("expected default max retries 2, got %d", cfg.Upstream.MaxRetries)
	}
	if cfg.Upstream.RetryDelay != 2*time.Second {
		t.Fatalf("expected default retry delay 2s, got %v", cfg.Upstream.RetryDelay)
	}
	if cfg.Store.Normalized() != StoreBackendRedis {
		t.Fatalf("expected default store backend redis, got %q", cfg.Store.Backend)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv("MARKETBOX_APP_ENV"); err != nil {
		t.Fatalf("failed to unset MARKETBOX_APP_ENV: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_InvalidStoreBackend(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("MARKETBOX_STORE_BACKEND", "mongo")

	if _, err := Load(); err == nil {
		t.Fatal("expected invalid store backend to return an error")
	}
}

func TestAppEnvHelpers(t *testing.T) {
	app := AppConfig{Env: "DEV"}
	if !app.IsDev() || app.IsProd() {
		t.Fatalf("env matching should be case insensitive")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv("MARKETBOX_APP_ENV", "prod")
	t.Setenv("MARKETBOX_APP_PORT", "8081")
	t.Setenv("MARKETBOX_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("MARKETBOX_UPSTREAM_BASE_URL", "http://marketplace.internal")
}
