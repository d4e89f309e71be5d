// Package config handles loading and validating service configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix marks environment variables that override config keys.
const envPrefix = "CHATRELAY_"

// Config is the top-level configuration. It is loaded once at startup and
// treated as read-only afterwards.
type Config struct {
	Environment Environment    `koanf:"environment"`
	Server      ServerConfig   `koanf:"server"`
	Provider    ProviderConfig `koanf:"provider"`
	Log         LogConfig      `koanf:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int           `koanf:"port"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
}

// ProviderConfig holds the generative model provider settings.
type ProviderConfig struct {
	Client         string        `koanf:"client"` // "rest" or "genai"
	APIKey         string        `koanf:"api_key"`
	BaseURL        string        `koanf:"base_url"`
	Models         []string      `koanf:"models"` // candidates, tried in order
	AttemptTimeout time.Duration `koanf:"attempt_timeout"`

	// AllowFake is kept as the raw flag text so that "yes" and "on" work
	// the same as "true".
	AllowFake string `koanf:"allow_fake"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `koanf:"level"`
}

// FakeModeEnabled reports whether the echo stub is allowed when the
// provider is unavailable.
func (p ProviderConfig) FakeModeEnabled() bool {
	return ParseFlag(p.AllowFake)
}

// ParseFlag treats 1, true, yes and on (any case) as true.
func ParseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// defaults is the lowest config layer.
func defaults() map[string]any {
	return map[string]any{
		"environment":              string(Development),
		"server.port":              8080,
		"server.read_timeout":      "30s",
		"server.write_timeout":     "60s",
		"server.allowed_origins":   []string{"http://localhost:3000"},
		"provider.client":          "rest",
		"provider.api_key":         "${GEMINI_API_KEY}",
		"provider.base_url":        "https://generativelanguage.googleapis.com/v1beta",
		"provider.models":          []string{"gemini-1.5-flash", "gemini-pro"},
		"provider.attempt_timeout": "15s",
		"provider.allow_fake":      "${ALLOW_FAKE_GEMINI}",
		"log.level":                "debug",
	}
}

// Load layers built-in defaults, an optional YAML file and CHATRELAY_
// environment overrides, in that order, and returns the validated result.
// A missing file is not an error; the defaults plus env are enough to run.
func Load(path string) (*Config, error) {
	// Load .env into the process environment (ignored if not present).
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("checking config file: %w", err)
		}
	}

	// CHATRELAY_SERVER_PORT -> server.port. Only the first underscore after
	// the section name becomes a dot, so multi-word keys like
	// CHATRELAY_PROVIDER_ATTEMPT_TIMEOUT map to provider.attempt_timeout.
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR_NAME} placeholders; koanf doesn't do this itself.
	cfg.Provider.APIKey = expand(cfg.Provider.APIKey)
	cfg.Provider.AllowFake = expand(cfg.Provider.AllowFake)
	cfg.Environment = ParseEnvironment(string(cfg.Environment))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps an environment variable name to a koanf key path.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	section, rest, found := strings.Cut(key, "_")
	if !found {
		return key
	}
	return section + "." + rest
}

// expand resolves a value of the form ${NAME} from the environment.
// Anything else is returned unchanged.
func expand(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		return os.Getenv(v[2 : len(v)-1])
	}
	return v
}

// Validate checks the settings the service can't run without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if len(c.Provider.Models) == 0 {
		return errors.New("provider.models must list at least one model")
	}
	for i, m := range c.Provider.Models {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("provider.models[%d] is blank", i)
		}
	}
	switch strings.ToLower(c.Provider.Client) {
	case "rest", "genai":
	default:
		return fmt.Errorf("provider.client must be rest or genai, got %q", c.Provider.Client)
	}
	if c.Provider.AttemptTimeout <= 0 {
		return errors.New("provider.attempt_timeout must be positive")
	}
	return nil
}
