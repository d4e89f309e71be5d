package logx

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/howard-nolan/chatrelay/internal/config"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Environment: config.Production, Output: &buf})

	logger.Debug().Msg("hidden")
	logger.Info().Str("model", "gemini-pro").Msg("visible")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "visible", line["message"])
	assert.Equal(t, "gemini-pro", line["model"])
	assert.Equal(t, "info", line["level"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, parseLevel("WARN", config.Development))
	assert.Equal(t, zerolog.DebugLevel, parseLevel("", config.Development))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("", config.Production))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud", config.Production))
}
