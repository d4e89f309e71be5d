package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig drops yamlContent into a temp config.yaml and returns its path.
func writeConfig(t *testing.T, yamlContent string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))
	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
environment: production

server:
  port: 9090
  read_timeout: 10s
  write_timeout: 60s
  allowed_origins:
    - https://chat.example.com

provider:
  client: genai
  api_key: ${TEST_API_KEY}
  base_url: https://example.com/v1
  attempt_timeout: 5s
  allow_fake: "on"
  models:
    - model-a
    - model-b
`)

	// t.Setenv auto-restores the original value when the test finishes.
	t.Setenv("TEST_API_KEY", "my-secret-key")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, Production, cfg.Environment)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"https://chat.example.com"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "genai", cfg.Provider.Client)
	assert.Equal(t, "my-secret-key", cfg.Provider.APIKey)
	assert.Equal(t, "https://example.com/v1", cfg.Provider.BaseURL)
	assert.Equal(t, []string{"model-a", "model-b"}, cfg.Provider.Models)
	assert.Equal(t, 5*time.Second, cfg.Provider.AttemptTimeout)
	assert.True(t, cfg.Provider.FakeModeEnabled())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ALLOW_FAKE_GEMINI", "Yes")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "rest", cfg.Provider.Client)
	assert.Empty(t, cfg.Provider.APIKey)
	assert.Equal(t, []string{"gemini-1.5-flash", "gemini-pro"}, cfg.Provider.Models)
	assert.Equal(t, 15*time.Second, cfg.Provider.AttemptTimeout)
	assert.True(t, cfg.Provider.FakeModeEnabled())
}

func TestLoadLegacyAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("ALLOW_FAKE_GEMINI", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Provider.APIKey)
	assert.False(t, cfg.Provider.FakeModeEnabled())
}

func TestLoadEnvOverride(t *testing.T) {
	configPath := writeConfig(t, `
server:
  port: 8080
  read_timeout: 30s
`)

	// These should override the file and the defaults.
	t.Setenv("CHATRELAY_SERVER_PORT", "3000")
	t.Setenv("CHATRELAY_PROVIDER_ATTEMPT_TIMEOUT", "2s")
	t.Setenv("CHATRELAY_PROVIDER_API_KEY", "override-key")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Provider.AttemptTimeout)
	assert.Equal(t, "override-key", cfg.Provider.APIKey)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown client", "provider:\n  client: carrier-pigeon\n"},
		{"no models", "provider:\n  models: []\n"},
		{"blank model", "provider:\n  models: [\"gemini-pro\", \" \"]\n"},
		{"bad port", "server:\n  port: 70000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.port", envKey("CHATRELAY_SERVER_PORT"))
	assert.Equal(t, "provider.attempt_timeout", envKey("CHATRELAY_PROVIDER_ATTEMPT_TIMEOUT"))
	assert.Equal(t, "environment", envKey("CHATRELAY_ENVIRONMENT"))
}

func TestParseFlag(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", " on "} {
		assert.True(t, ParseFlag(v), v)
	}
	for _, v := range []string{"", "0", "false", "no", "off", "maybe"} {
		assert.False(t, ParseFlag(v), v)
	}
}

func TestParseEnvironment(t *testing.T) {
	assert.Equal(t, Production, ParseEnvironment("Production"))
	assert.Equal(t, Staging, ParseEnvironment("staging"))
	assert.Equal(t, Testing, ParseEnvironment("testing"))
	assert.Equal(t, Development, ParseEnvironment("qa"))
	assert.True(t, Production.IsProduction())
}
