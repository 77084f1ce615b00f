// Package config loads procrastinemon configuration from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Feedback FeedbackConfig `yaml:"feedback"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	Mode        string   `yaml:"mode"` // debug, release, test (gin modes)
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig points at the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig selects how identity tokens are verified.
type AuthConfig struct {
	Mode     string `yaml:"mode"` // hmac or jwks
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
	JWKSURL  string `yaml:"jwks_url"`
}

// FeedbackConfig selects the message generator.
type FeedbackConfig struct {
	Provider string `yaml:"provider"` // genai, openai, or empty for fixed templates
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// RedisConfig enables the cross-instance resolution lock when Addr is set.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	LockTTL string `yaml:"lock_ttl"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Mode string `yaml:"mode"` // dev or prod
}

// DefaultPath is where the CLI looks for a config file when none is given.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".procrastinemon", "config.yaml")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			Mode:        "release",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Path: filepath.Join(home, ".procrastinemon", "procrastinemon.db"),
		},
		Auth: AuthConfig{
			Mode: "hmac",
		},
		Feedback: FeedbackConfig{
			Timeout: "5s",
		},
		Redis: RedisConfig{
			LockTTL: "10s",
		},
		Logging: LoggingConfig{
			Mode: "dev",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PROCRASTINEMON_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("PROCRASTINEMON_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("PROCRASTINEMON_JWT_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("PROCRASTINEMON_AUTH_AUDIENCE"); v != "" {
		c.Auth.Audience = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("PROCRASTINEMON_LOG_MODE"); v != "" {
		c.Logging.Mode = v
	}

	// An API key picks the provider only when none is configured.
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		if c.Feedback.Provider == "" {
			c.Feedback.Provider = "genai"
		}
		if c.Feedback.Provider == "genai" {
			c.Feedback.APIKey = v
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if c.Feedback.Provider == "" {
			c.Feedback.Provider = "openai"
		}
		if c.Feedback.Provider == "openai" {
			c.Feedback.APIKey = v
		}
	}
}

// Validate checks enumerations and durations.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Auth.Mode) {
	case "hmac", "jwks":
	default:
		return fmt.Errorf("invalid auth mode %q (valid: hmac, jwks)", c.Auth.Mode)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server mode %q (valid: debug, release, test)", c.Server.Mode)
	}
	switch c.Feedback.Provider {
	case "", "genai", "openai":
	default:
		return fmt.Errorf("invalid feedback provider %q (valid: genai, openai)", c.Feedback.Provider)
	}
	if _, err := c.FeedbackTimeout(); err != nil {
		return err
	}
	if _, err := c.LockTTL(); err != nil {
		return err
	}
	return nil
}

// FeedbackTimeout parses feedback.timeout.
func (c *Config) FeedbackTimeout() (time.Duration, error) {
	return parseDuration("feedback.timeout", c.Feedback.Timeout, 5*time.Second)
}

// LockTTL parses redis.lock_ttl.
func (c *Config) LockTTL() (time.Duration, error) {
	return parseDuration("redis.lock_ttl", c.Redis.LockTTL, 10*time.Second)
}

func parseDuration(name, v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", name, v)
	}
	return d, nil
}
