// Package config loads gateway configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full gateway configuration.
type Config struct {
	// Listen is the HTTP listen address, e.g. ":8080".
	Listen string `yaml:"listen"`
	// DataDir holds per-session credential stores and snapshots.
	DataDir string `yaml:"data_dir"`
	// AllowedOrigins is the CORS allow-list. Requests from other origins are
	// rejected at the boundary. Empty means browser origins are not allowed.
	AllowedOrigins []string `yaml:"allowed_origins"`
	// AuthToken, when set, requires a matching bearer token on every request.
	AuthToken string `yaml:"auth_token"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Log       LogConfig       `yaml:"log"`
}

// RateLimitConfig bounds per-client request rates on mutating endpoints.
type RateLimitConfig struct {
	RPM   int `yaml:"rpm"`   // requests per minute, 0 disables
	Burst int `yaml:"burst"` // max burst size
}

// ReconnectConfig bounds the automatic reconnect loop.
type ReconnectConfig struct {
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	MaxAttempts int           `yaml:"max_attempts"` // 0 = unbounded
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:  ":8080",
		DataDir: "./data",
		RateLimit: RateLimitConfig{
			RPM:   120,
			Burst: 10,
		},
		Reconnect: ReconnectConfig{
			BaseDelay:   2 * time.Second,
			MaxDelay:    time.Minute,
			MaxAttempts: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (if non-empty and existing), applies env overrides and
// validates the result. A missing file is not an error; defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ZAPGATE_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("ZAPGATE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("ZAPGATE_AUTH_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("ZAPGATE_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.AllowedOrigins = origins
	}
}

func (c Config) validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Reconnect.BaseDelay < 0 || c.Reconnect.MaxDelay < 0 || c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect values must not be negative")
	}
	for _, o := range c.AllowedOrigins {
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("allowed origin %q must include a scheme", o)
		}
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
