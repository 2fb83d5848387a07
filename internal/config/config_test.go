package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskdash/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != config.DefaultAddr {
		t.Errorf("expected addr %q, got %q", config.DefaultAddr, cfg.Server.Addr)
	}
	if cfg.Store.Driver != config.DriverMemory {
		t.Errorf("expected memory driver, got %q", cfg.Store.Driver)
	}
	if cfg.Auth.Provider != config.ProviderStatic {
		t.Errorf("expected static provider, got %q", cfg.Auth.Provider)
	}
	if !cfg.Server.StrictValidation {
		t.Error("strict validation should default to true")
	}
	if cfg.Store.Timeout != 5*time.Second {
		t.Errorf("expected 5s store timeout, got %v", cfg.Store.Timeout)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, config.ConfigFile, `
[server]
addr = "127.0.0.1:9000"
strict_validation = false
cors_origins = ["https://app.example.com"]

[store]
driver = "firestore"
project_id = "demo-project"
timeout = "2s"

[auth]
provider = "firebase"
project_id = "demo-project"

[log]
level = "debug"
format = "json"
`)

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("expected addr from file, got %q", cfg.Server.Addr)
	}
	if cfg.Server.StrictValidation {
		t.Error("expected strict validation disabled")
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://app.example.com" {
		t.Errorf("unexpected cors origins: %v", cfg.Server.CORSOrigins)
	}
	if cfg.Store.Timeout != 2*time.Second {
		t.Errorf("expected 2s timeout, got %v", cfg.Store.Timeout)
	}
	if cfg.Store.Collection != config.DefaultCollection {
		t.Errorf("unset keys should keep defaults, got collection %q", cfg.Store.Collection)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected json format, got %q", cfg.Log.Format)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TASKDASH_ADDR", ":7070")
	t.Setenv("TASKDASH_STORE", "firestore")
	t.Setenv("TASKDASH_AUTH", "firebase")
	t.Setenv("TASKDASH_PROJECT_ID", "env-project")

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":7070" {
		t.Errorf("expected env addr, got %q", cfg.Server.Addr)
	}
	if cfg.Store.ProjectID != "env-project" || cfg.Auth.ProjectID != "env-project" {
		t.Errorf("expected project id from env, got store=%q auth=%q", cfg.Store.ProjectID, cfg.Auth.ProjectID)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, config.EnvFile, "TASKDASH_MONGO_URI=mongodb://localhost:27017\nTASKDASH_STORE=mongo\n")
	t.Cleanup(func() {
		os.Unsetenv("TASKDASH_MONGO_URI")
		os.Unsetenv("TASKDASH_STORE")
	})

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Driver != config.DriverMongo {
		t.Errorf("expected mongo driver from .env, got %q", cfg.Store.Driver)
	}
	if cfg.Store.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("expected mongo uri from .env, got %q", cfg.Store.MongoURI)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, config.ConfigFile, "[server\naddr=")

	_, err := config.Load(dir)
	if err == nil || !strings.Contains(err.Error(), "invalid config.toml") {
		t.Errorf("expected invalid config error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*config.Config)
		want string
	}{
		{"unknown driver", func(c *config.Config) { c.Store.Driver = "redis" }, "unknown store driver: redis"},
		{"firestore without project", func(c *config.Config) { c.Store.Driver = config.DriverFirestore }, "store.project_id is required"},
		{"mongo without uri", func(c *config.Config) { c.Store.Driver = config.DriverMongo }, "store.mongo_uri is required"},
		{"unknown provider", func(c *config.Config) { c.Auth.Provider = "saml" }, "unknown auth provider: saml"},
		{"firebase without project", func(c *config.Config) { c.Auth.Provider = config.ProviderFirebase }, "auth.project_id is required"},
		{"google without audience", func(c *config.Config) { c.Auth.Provider = config.ProviderGoogle }, "auth.audience is required"},
		{"static token without uid", func(c *config.Config) {
			c.Auth.StaticTokens = []config.StaticToken{{Token: "abc"}}
		}, "need both token and uid"},
		{"zero timeout", func(c *config.Config) { c.Store.Timeout = 0 }, "store.timeout must be positive"},
		{"bare cors origin", func(c *config.Config) { c.Server.CORSOrigins = []string{"localhost:3000"} }, "server.cors_origins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.edit(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDefaultConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := config.DefaultConfigDir(); got != filepath.Join("/tmp/xdg", "taskdash") {
		t.Errorf("unexpected config dir: %q", got)
	}
}
