package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.FeedLimit != 20 {
		t.Fatalf("expected default feed limit 20, got %d", cfg.FeedLimit)
	}
	if cfg.MutationAttempts != 3 {
		t.Fatalf("expected default mutation attempts 3, got %d", cfg.MutationAttempts)
	}
	if cfg.OptimisticTTL != 30*time.Second {
		t.Fatalf("expected default optimistic ttl, got %v", cfg.OptimisticTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("FEED_LIMIT", "50")
	t.Setenv("OPTIMISTIC_TTL", "5s")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected override secret")
	}
	if cfg.FeedLimit != 50 {
		t.Fatalf("expected override feed limit")
	}
	if cfg.OptimisticTTL != 5*time.Second {
		t.Fatalf("expected override ttl")
	}
	if !cfg.AutoMigrate {
		t.Fatalf("expected auto migrate")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moments.yaml")
	if err := os.WriteFile(path, []byte("PUBLIC_ORIGIN: https://family.example\nFEED_LIMIT: 7\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg := Load()
	if cfg.PublicOrigin != "https://family.example" {
		t.Fatalf("expected origin from file, got %q", cfg.PublicOrigin)
	}
	if cfg.FeedLimit != 7 {
		t.Fatalf("expected feed limit from file, got %d", cfg.FeedLimit)
	}
}

func TestLoadEnvBeatsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moments.yaml")
	if err := os.WriteFile(path, []byte("FEED_LIMIT: 7\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("FEED_LIMIT", "9")

	if cfg := Load(); cfg.FeedLimit != 9 {
		t.Fatalf("expected env to win, got %d", cfg.FeedLimit)
	}
}
