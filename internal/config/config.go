package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr  string
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTExpiry   time.Duration

	// Warranty service settings. An empty base URL falls back to the default
	// host baked into the warranty client.
	WarrantyBaseURL string
	WarrantyTimeout time.Duration
}

// fileConfig is the YAML file shape. Durations are strings so the file can
// say "2h" instead of nanosecond counts.
type fileConfig struct {
	ListenAddr      string `yaml:"listen_addr"`
	JWTSecret       string `yaml:"jwt_secret"`
	JWTIssuer       string `yaml:"jwt_issuer"`
	JWTAudience     string `yaml:"jwt_audience"`
	JWTExpiry       string `yaml:"jwt_expiry"`
	WarrantyBaseURL string `yaml:"warranty_base_url"`
	WarrantyTimeout string `yaml:"warranty_timeout"`
}

// defaultConfigFile is consulted when CONFIG_FILE is not set.
const defaultConfigFile = "configs/config.yaml"

// Load builds the configuration in three layers: built-in defaults, then the
// optional YAML file, then environment variables.
func Load() *Config {
	config := &Config{
		ListenAddr:      ":8080",
		JWTSecret:       "your-secret-key-change-in-production",
		JWTIssuer:       "asset-tracker-api",
		JWTAudience:     "asset-tracker-api",
		JWTExpiry:       24 * time.Hour,
		WarrantyBaseURL: "https://server1.eport.ws",
		WarrantyTimeout: 15 * time.Second,
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = defaultConfigFile
	}
	if data, err := os.ReadFile(path); err == nil {
		// A broken file is ignored rather than fatal; env and defaults still
		// produce a runnable config, and Validate catches real problems.
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err == nil {
			applyFile(config, fc)
		}
	}

	config.ListenAddr = getEnv("LISTEN_ADDR", config.ListenAddr)
	config.JWTSecret = getEnv("JWT_SECRET", config.JWTSecret)
	config.JWTIssuer = getEnv("JWT_ISS", config.JWTIssuer)
	config.JWTAudience = getEnv("JWT_AUD", config.JWTAudience)
	config.WarrantyBaseURL = getEnv("WARRANTY_API_URL", config.WarrantyBaseURL)

	if expiryStr := os.Getenv("JWT_EXPIRY"); expiryStr != "" {
		if expiry, err := time.ParseDuration(expiryStr); err == nil {
			config.JWTExpiry = expiry
		}
	}
	if timeoutStr := os.Getenv("WARRANTY_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			config.WarrantyTimeout = timeout
		}
	}

	return config
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT secret must not be empty")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT secret must be at least 16 characters, got %d", len(c.JWTSecret))
	}
	if c.JWTIssuer == "" {
		return errors.New("JWT issuer must not be empty")
	}
	if c.JWTAudience == "" {
		return errors.New("JWT audience must not be empty")
	}
	if c.JWTExpiry <= 0 {
		return errors.New("JWT expiry must be positive")
	}
	if c.ListenAddr == "" {
		return errors.New("listen address must not be empty")
	}
	if c.WarrantyTimeout <= 0 {
		return errors.New("warranty timeout must be positive")
	}
	return nil
}

// LoadAndValidate loads the configuration and fails on invalid settings.
func LoadAndValidate() (*Config, error) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFile overlays non-empty file values onto the config.
func applyFile(config *Config, fc fileConfig) {
	if fc.ListenAddr != "" {
		config.ListenAddr = fc.ListenAddr
	}
	if fc.JWTSecret != "" {
		config.JWTSecret = fc.JWTSecret
	}
	if fc.JWTIssuer != "" {
		config.JWTIssuer = fc.JWTIssuer
	}
	if fc.JWTAudience != "" {
		config.JWTAudience = fc.JWTAudience
	}
	if fc.JWTExpiry != "" {
		if d, err := time.ParseDuration(fc.JWTExpiry); err == nil {
			config.JWTExpiry = d
		}
	}
	if fc.WarrantyBaseURL != "" {
		config.WarrantyBaseURL = fc.WarrantyBaseURL
	}
	if fc.WarrantyTimeout != "" {
		if d, err := time.ParseDuration(fc.WarrantyTimeout); err == nil {
			config.WarrantyTimeout = d
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
