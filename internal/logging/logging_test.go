package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/llm-interpreter/internal/logging"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buffer bytes.Buffer
	logger, err := logging.NewWithWriter("WARN", logging.FormatJSON, &buffer)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buffer.Bytes()), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewWithWriterDefaultsToConsoleInfo(t *testing.T) {
	var buffer bytes.Buffer
	logger, err := logging.NewWithWriter("", "", &buffer)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("step planned")
	require.NoError(t, logger.Sync())

	assert.Contains(t, buffer.String(), "step planned")
	assert.NotContains(t, buffer.String(), "hidden")
}

func TestNewWithWriterRejectsInvalidSettings(t *testing.T) {
	_, err := logging.NewWithWriter("loud", logging.FormatJSON, &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid logging level")

	_, err = logging.NewWithWriter("info", "xml", &bytes.Buffer{})
	assert.ErrorContains(t, err, "invalid logging format")
}
