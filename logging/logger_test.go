package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("ERROR"))
	assert.Equal(t, LogLevelInfo, ParseLevel("info"))
	assert.Equal(t, LogLevelInfo, ParseLevel("garbage"))
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.Info("session created", "client_id", "client-1")

	var line map[string]any
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "session created", line["msg"])
	assert.Equal(t, "client-1", line["client_id"])
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LogLevelWarn, Format: "text", Output: &buf})

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestWith_ScopesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LogLevelInfo, Format: "json", Output: &buf})

	scoped := logger.With("session_id", "s-1")
	scoped.Info("turn complete")

	var line map[string]any
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "s-1", line["session_id"])
}

func TestOrNoOp(t *testing.T) {
	assert.Equal(t, NoOpLogger{}, OrNoOp(nil))

	logger := New(nil)
	assert.Equal(t, logger, OrNoOp(logger))
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
}
