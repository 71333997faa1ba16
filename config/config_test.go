package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "mock", cfg.Provider)
	assert.Equal(t, 10, cfg.MaxAgentsPerSession)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	assert.NoError(t, err)
	assert.Equal(t, Default().Port, cfg.Port)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, Default().Port, cfg.Port)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("port: 9100\nprovider: anthropic\nturn_timeout: 30\n")
	assert.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	assert.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, 30, cfg.TurnTimeoutSeconds)
	// Omitted fields keep defaults.
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 300, cfg.CleanupIntervalSeconds)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("port: [not a number"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("ROUNDTABLE_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ROUNDTABLE_LOG_LEVEL", "debug")

	cfg, err := Load("")
	assert.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.AnthropicAPIKey)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_APIKeyNeverFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("anthropicapikey: leaked\n"), 0o600))

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Empty(t, cfg.AnthropicAPIKey)
}

func TestValidate(t *testing.T) {
	cfg := Default()

	cfg.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Provider = "carrier-pigeon"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.MaxAgentsPerSession = -1
	assert.Error(t, cfg.Validate())
}
