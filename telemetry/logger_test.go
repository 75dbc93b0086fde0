package telemetry

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_JSONToOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := NewLogger(LogConfig{Level: "debug", Output: &buf})
	require.NoError(t, err)

	logger.Info("gateway ready", zap.String("base_url", "https://screeps.com/api"))
	cleanup()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "gateway ready", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "https://screeps.com/api", entry["base_url"])
}

func TestNewLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := NewLogger(LogConfig{Level: "warn", Output: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	cleanup()

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	_, _, err := NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)

	_, _, err = NewLogger(LogConfig{Encoding: "xml"})
	assert.Error(t, err)
}

func TestNewLogger_FileSink(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "gateway.log")

	logger, cleanup, err := NewLogger(LogConfig{Encoding: "console", File: path, Output: &buf})
	require.NoError(t, err)
	logger.Info("to both sinks")
	cleanup()

	assert.FileExists(t, path)
	assert.Contains(t, buf.String(), "to both sinks")
}
