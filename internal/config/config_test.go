package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTP.Port != "8080" {
		t.Fatalf("unexpected port: %s", cfg.HTTP.Port)
	}
	if cfg.Storage.Driver != "local" {
		t.Fatalf("unexpected driver: %s", cfg.Storage.Driver)
	}
	if cfg.Auth.TTL() != 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", cfg.Auth.TTL())
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "http:\n  port: \"9000\"\nmongo:\n  database: surveys\nstorage:\n  max_file_mb: 3\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigPath, path)
	t.Setenv("PORT", "")
	t.Setenv("MONGO_DB", "override")
	t.Setenv("REDIS_URI", "redis://cache:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTP.Port != "9000" {
		t.Fatalf("yaml port not applied: %s", cfg.HTTP.Port)
	}
	if cfg.Mongo.Database != "override" {
		t.Fatalf("env should win over yaml: %s", cfg.Mongo.Database)
	}
	if cfg.Redis.Addr != "cache:6379" {
		t.Fatalf("redis prefix not stripped: %s", cfg.Redis.Addr)
	}
	if cfg.Storage.MaxFileBytes() != 3<<20 {
		t.Fatalf("unexpected max file bytes: %d", cfg.Storage.MaxFileBytes())
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("http: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigPath, path)
	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.Driver = "s3"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown driver error")
	}

	cfg = Default()
	cfg.Storage.Driver = "minio"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing endpoint error")
	}
	cfg.Storage.Minio.Endpoint = "minio:9000"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
