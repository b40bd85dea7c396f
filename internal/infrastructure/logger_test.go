package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balag/internal/config"
)

func readLastEntry(t *testing.T, content []byte) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func TestInitializeLogger(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logFile := filepath.Join(t.TempDir(), "logs", "test.log")

	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger.Info("rows loaded", "rows", 42)
	require.NoError(t, CloseLogFile())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	entry := readLastEntry(t, content)
	assert.Equal(t, "rows loaded", entry["msg"])
	assert.Equal(t, float64(42), entry["rows"])
	assert.Equal(t, "INFO", entry["level"])
}

func TestTraceAndRunIDInjection(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, nil)

	ctx := WithTraceID(context.Background(), "trace-123")
	ctx = WithRunID(ctx, "run-456")
	logger.InfoContext(ctx, "cleaning dates")

	entry := readLastEntry(t, buf.Bytes())
	assert.Equal(t, "trace-123", entry["trace_id"])
	assert.Equal(t, "run-456", entry["run_id"])
}

func TestLogLevels(t *testing.T) {
	tests := []struct {
		level    string
		logDebug bool
	}{
		{"debug", true},
		{"info", false},
		{"warning", false},
		{"unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			ResetLoggerForTesting()
			defer ResetLoggerForTesting()

			logFile := filepath.Join(t.TempDir(), "test.log")
			logger, err := InitializeLogger(config.LoggingConfig{Level: tt.level, Output: "file", FilePath: logFile})
			require.NoError(t, err)

			logger.Debug("debug line")
			logger.Error("error line")
			require.NoError(t, CloseLogFile())

			content, err := os.ReadFile(logFile)
			require.NoError(t, err)
			assert.Equal(t, tt.logDebug, strings.Contains(string(content), "debug line"))
			assert.Contains(t, string(content), "error line")
		})
	}
}

func TestRunContext(t *testing.T) {
	ctx, runID := NewRunContext(context.Background())

	assert.NotEmpty(t, runID)
	assert.Equal(t, runID, GetRunID(ctx))
	assert.NotEmpty(t, GetTraceID(ctx))

	traceID := GetTraceID(ctx)
	assert.Equal(t, traceID, GetTraceID(EnsureTraceID(ctx)))
	assert.Empty(t, GetRunID(context.Background()))
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := WithComponent(NewJSONLogger(&buf, nil), "cleaner")
	logger.Info("ready")

	entry := readLastEntry(t, buf.Bytes())
	assert.Equal(t, "cleaner", entry["component"])
}
