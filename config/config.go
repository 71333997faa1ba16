// Package config loads service configuration from YAML with environment
// overrides for secrets.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the service settings.
type Config struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "json" or "text"

	// Provider selects the Responder backing: "mock", "anthropic", "openai".
	Provider        string `yaml:"provider"`
	AnthropicModel  string `yaml:"anthropic_model"`
	OpenAIModel     string `yaml:"openai_model"`
	AnthropicAPIKey string `yaml:"-"` // env only, never from file

	MaxSessionDurationSeconds int `yaml:"max_session_duration"`
	MaxAgentsPerSession       int `yaml:"max_agents_per_session"`
	TurnTimeoutSeconds        int `yaml:"turn_timeout"`
	CleanupIntervalSeconds    int `yaml:"cleanup_interval"`

	// RedisURL enables the Redis session state store when set.
	RedisURL string `yaml:"redis_url"`

	MetricsEnabled bool `yaml:"metrics_enabled"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Host:                      "0.0.0.0",
		Port:                      8000,
		LogLevel:                  "info",
		LogFormat:                 "json",
		Provider:                  "mock",
		MaxSessionDurationSeconds: 3600,
		MaxAgentsPerSession:       10,
		TurnTimeoutSeconds:        60,
		CleanupIntervalSeconds:    300,
		MetricsEnabled:            true,
	}
}

// Load reads configuration from a YAML file, starting from defaults so
// omitted fields keep their baseline values. An empty path or missing file
// yields the defaults. Env overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// applyEnv overlays secret and deployment overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := os.Getenv("ROUNDTABLE_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("ROUNDTABLE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate rejects configurations that cannot serve.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Provider {
	case "mock", "anthropic", "openai":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.MaxAgentsPerSession < 0 {
		return fmt.Errorf("max_agents_per_session must not be negative")
	}
	return nil
}
