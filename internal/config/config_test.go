package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_RequiresAPIBaseURL(t *testing.T) {
	os.Unsetenv("API_BASE_URL")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error when API_BASE_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("API_BASE_URL", "http://localhost:8080/api")
	defer os.Unsetenv("API_BASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:8080/api" {
		t.Errorf("expected API_BASE_URL to be set, got %s", cfg.APIBaseURL)
	}
	if cfg.Port != "3000" {
		t.Errorf("expected default port 3000, got %s", cfg.Port)
	}
	if cfg.BindAddr != "127.0.0.1" {
		t.Errorf("expected default bind address 127.0.0.1, got %s", cfg.BindAddr)
	}
	if cfg.SessionStore != SessionStoreFile {
		t.Errorf("expected default session store file, got %s", cfg.SessionStore)
	}
	if cfg.DBMaxConns != 4 {
		t.Errorf("expected default max conns 4, got %d", cfg.DBMaxConns)
	}
	if cfg.APITimeout != 0 {
		t.Errorf("expected no API timeout by default, got %s", cfg.APITimeout)
	}
	if cfg.RequestTimeout != 0 {
		t.Errorf("expected no request timeout by default, got %s", cfg.RequestTimeout)
	}
	if cfg.BodyLimit != "64K" {
		t.Errorf("expected 64K body limit, got %s", cfg.BodyLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Setenv("API_BASE_URL", "https://clinic.example.com")
	os.Setenv("API_TIMEOUT", "15s")
	os.Setenv("SESSION_STORE", "memory")
	os.Setenv("COOKIE_SECURE", "true")
	defer func() {
		os.Unsetenv("API_BASE_URL")
		os.Unsetenv("API_TIMEOUT")
		os.Unsetenv("SESSION_STORE")
		os.Unsetenv("COOKIE_SECURE")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APITimeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %s", cfg.APITimeout)
	}
	if cfg.SessionStore != SessionStoreMemory {
		t.Errorf("expected memory store, got %s", cfg.SessionStore)
	}
	if !cfg.CookieSecure {
		t.Error("expected COOKIE_SECURE=true")
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
	if !c.IsProduction() {
		t.Error("expected IsProduction() to return true for production")
	}
}

func TestConfig_Addr(t *testing.T) {
	c := &Config{BindAddr: "127.0.0.1", Port: "3000"}
	if c.Addr() != "127.0.0.1:3000" {
		t.Errorf("unexpected addr %s", c.Addr())
	}
	if !c.IsLoopback() {
		t.Error("expected loopback")
	}
	c.BindAddr = "0.0.0.0"
	if c.IsLoopback() {
		t.Error("0.0.0.0 is not loopback")
	}
}

func validConfig() *Config {
	return &Config{
		APIBaseURL:   "http://localhost:8080",
		SessionStore: SessionStoreFile,
		DBMaxConns:   4,
		DBMinConns:   1,
		Timezone:     "Local",
		LogLevel:     "info",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"relative base url", func(c *Config) { c.APIBaseURL = "/api" }, true},
		{"ftp base url", func(c *Config) { c.APIBaseURL = "ftp://host" }, true},
		{"negative timeout", func(c *Config) { c.APITimeout = -time.Second }, true},
		{"negative request timeout", func(c *Config) { c.RequestTimeout = -time.Second }, true},
		{"unknown store", func(c *Config) { c.SessionStore = "redis" }, true},
		{"postgres without url", func(c *Config) { c.SessionStore = SessionStorePostgres }, true},
		{"postgres with url", func(c *Config) {
			c.SessionStore = SessionStorePostgres
			c.DatabaseURL = "postgres://localhost/clinic"
		}, false},
		{"min above max", func(c *Config) {
			c.SessionStore = SessionStorePostgres
			c.DatabaseURL = "postgres://localhost/clinic"
			c.DBMinConns = 10
		}, true},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, true},
		{"utc timezone", func(c *Config) { c.Timezone = "UTC" }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
