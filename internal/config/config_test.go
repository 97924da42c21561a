package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CONFIG_FILE", "LISTEN_ADDR", "JWT_SECRET", "JWT_ISS", "JWT_AUD", "JWT_EXPIRY", "WARRANTY_API_URL", "WARRANTY_TIMEOUT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	// Point at a file that does not exist so workspace config cannot leak in.
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()

	if cfg.ListenAddr != ":8080" {
		t.Errorf("Expected default LISTEN_ADDR, got %s", cfg.ListenAddr)
	}
	if cfg.JWTIssuer != "asset-tracker-api" {
		t.Errorf("Expected default JWT_ISS, got %s", cfg.JWTIssuer)
	}
	if cfg.JWTExpiry != 24*time.Hour {
		t.Errorf("Expected default JWT_EXPIRY, got %v", cfg.JWTExpiry)
	}
	if cfg.WarrantyBaseURL != "https://server1.eport.ws" {
		t.Errorf("Expected default warranty base URL, got %s", cfg.WarrantyBaseURL)
	}
	if cfg.WarrantyTimeout != 15*time.Second {
		t.Errorf("Expected default warranty timeout, got %v", cfg.WarrantyTimeout)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "listen_addr: \":9090\"\nwarranty_base_url: \"https://warranty.example.com\"\njwt_expiry: 2h\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg := Load()

	if cfg.ListenAddr != ":9090" {
		t.Errorf("Expected listen addr from file, got %s", cfg.ListenAddr)
	}
	if cfg.WarrantyBaseURL != "https://warranty.example.com" {
		t.Errorf("Expected warranty base URL from file, got %s", cfg.WarrantyBaseURL)
	}
	if cfg.JWTExpiry != 2*time.Hour {
		t.Errorf("Expected jwt expiry from file, got %v", cfg.JWTExpiry)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("warranty_base_url: \"https://from-file.example.com\"\n"), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("WARRANTY_API_URL", "https://from-env.example.com")
	t.Setenv("JWT_EXPIRY", "45m")
	t.Setenv("WARRANTY_TIMEOUT", "5s")

	cfg := Load()

	if cfg.WarrantyBaseURL != "https://from-env.example.com" {
		t.Errorf("Expected env to override file, got %s", cfg.WarrantyBaseURL)
	}
	if cfg.JWTExpiry != 45*time.Minute {
		t.Errorf("Expected JWT_EXPIRY from env, got %v", cfg.JWTExpiry)
	}
	if cfg.WarrantyTimeout != 5*time.Second {
		t.Errorf("Expected WARRANTY_TIMEOUT from env, got %v", cfg.WarrantyTimeout)
	}
}

func TestValidate(t *testing.T) {
	valid := &Config{
		ListenAddr:      ":8080",
		JWTSecret:       "valid-secret-that-is-long-enough",
		JWTIssuer:       "test-issuer",
		JWTAudience:     "test-audience",
		JWTExpiry:       time.Hour,
		WarrantyTimeout: 15 * time.Second,
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid config", func(*Config) {}, false},
		{"empty secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"empty issuer", func(c *Config) { c.JWTIssuer = "" }, true},
		{"empty audience", func(c *Config) { c.JWTAudience = "" }, true},
		{"zero expiry", func(c *Config) { c.JWTExpiry = 0 }, true},
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }, true},
		{"zero warranty timeout", func(c *Config) { c.WarrantyTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}
