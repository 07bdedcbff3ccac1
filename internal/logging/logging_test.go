package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestNewProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "production", "info")
	logger.Debug("hidden")
	logger.Info("media deleted", "media_id", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "media deleted", entry["msg"])
	assert.Equal(t, "abc", entry["media_id"])
}

func TestNewDevelopmentIsText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "development", "debug")
	logger.Debug("scratch saved", "bytes", 42)

	assert.Contains(t, buf.String(), "scratch saved")
	assert.False(t, json.Valid(buf.Bytes()))
}
