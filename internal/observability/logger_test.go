// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/uiprov/internal/config"
)

func TestInitialize(t *testing.T) {
	t.Run("console format is colorized", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "uiprov",
		}, zapcore.AddSync(&buf))

		GetLogger().Info("readiness confirmed")

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "readiness confirmed")
		assert.Contains(t, output, colorGreen, "info level should be colorized green")
		assert.Contains(t, output, colorReset)
		assert.Contains(t, output, "uiprov")
	})

	t.Run("json format emits structured entries", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "uiprov",
		}, zapcore.AddSync(&buf))

		GetLogger().Warn("probe attempt failed")

		var entry map[string]any
		require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "probe attempt failed", entry["msg"])
	})

	t.Run("level below threshold is suppressed", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{Level: "error", Format: "console"}, zapcore.AddSync(&buf))
		GetLogger().Info("should not appear")
		assert.Empty(t, buf.String())
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{Level: "verbose-nonsense", Format: "console"}, zapcore.AddSync(&buf))
		GetLogger().Debug("too quiet")
		GetLogger().Info("loud enough")

		output := buf.String()
		assert.NotContains(t, output, "too quiet")
		assert.Contains(t, output, "loud enough")
	})

	t.Run("file core writes rotated json log", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer
		logFile := filepath.Join(t.TempDir(), "uiprov.log")

		Initialize(config.LoggerConfig{
			Level:   "info",
			Format:  "console",
			LogFile: logFile,
			MaxSize: 1,
		}, zapcore.AddSync(&buf))

		GetLogger().Info("persisted entry")
		Sync()

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), "persisted entry")
		assert.Contains(t, string(data), `"level":"INFO"`)
	})
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	assert.NotNil(t, GetLogger(), "a fallback logger must exist before initialization")
}

func TestLevelColor(t *testing.T) {
	assert.Equal(t, colorRed, levelColor(zapcore.ErrorLevel))
	assert.Equal(t, colorRed, levelColor(zapcore.FatalLevel))
	assert.Equal(t, colorYellow, levelColor(zapcore.WarnLevel))
	assert.Equal(t, colorGreen, levelColor(zapcore.InfoLevel))
	assert.Equal(t, colorCyan, levelColor(zapcore.DebugLevel))
}
