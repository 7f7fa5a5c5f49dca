// File: internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeBundle creates a throwaway configuration bundle for validation tests.
func writeBundle(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"exportedApplication":{}}`), 0o644))
	return path
}

func loadFromEnv(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	require.NoError(t, BindEnv(v))
	cfg, err := Load(v)
	require.NoError(t, err)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadFromEnv(t)

	assert.Equal(t, DefaultTargetURL, cfg.TargetURL)
	assert.Equal(t, DefaultAdminEmail, cfg.AdminEmail)
	assert.Equal(t, DefaultDatasourceURL, cfg.DatasourceURL)
	assert.True(t, cfg.Headless)
	assert.True(t, cfg.RecordTrace)
	assert.Equal(t, DefaultTimeoutMs, cfg.TimeoutMs)
	assert.Equal(t, 90*time.Second, cfg.Timeout())
	assert.Equal(t, DefaultProbeAttempts, cfg.ProbeAttempts)
	assert.Equal(t, DefaultProbeInterval, cfg.ProbeInterval)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APPSMITH_URL", "http://appsmith.internal:8080")
	t.Setenv("ADMIN_EMAIL", "ops@example.org")
	t.Setenv("ADMIN_PASSWORD", "hunter2hunter2")
	t.Setenv("TIMEOUT", "120000")
	t.Setenv("HEADLESS", "false")
	t.Setenv("RECORD_TRACE", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := loadFromEnv(t)

	assert.Equal(t, "http://appsmith.internal:8080", cfg.TargetURL)
	assert.Equal(t, "ops@example.org", cfg.AdminEmail)
	assert.Equal(t, "hunter2hunter2", cfg.AdminPassword)
	assert.Equal(t, 120000, cfg.TimeoutMs)
	assert.False(t, cfg.Headless)
	assert.False(t, cfg.RecordTrace)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		return &Config{
			TargetURL:     "http://localhost",
			AdminEmail:    DefaultAdminEmail,
			AdminPassword: "secret",
			AppJSONPath:   writeBundle(t),
			TimeoutMs:     DefaultTimeoutMs,
			ProbeAttempts: DefaultProbeAttempts,
			ProbeInterval: DefaultProbeInterval,
		}
	}

	t.Run("accepts a complete configuration", func(t *testing.T) {
		assert.NoError(t, valid(t).Validate())
	})

	t.Run("rejects missing admin password", func(t *testing.T) {
		cfg := valid(t)
		cfg.AdminPassword = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ADMIN_PASSWORD")
	})

	t.Run("rejects missing bundle path", func(t *testing.T) {
		cfg := valid(t)
		cfg.AppJSONPath = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "APP_JSON_PATH")
	})

	t.Run("rejects nonexistent bundle file", func(t *testing.T) {
		cfg := valid(t)
		cfg.AppJSONPath = filepath.Join(t.TempDir(), "missing.json")
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects a directory as bundle path", func(t *testing.T) {
		cfg := valid(t)
		cfg.AppJSONPath = t.TempDir()
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "directory")
	})

	t.Run("rejects a relative target URL", func(t *testing.T) {
		cfg := valid(t)
		cfg.TargetURL = "localhost/foo"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive tuning values", func(t *testing.T) {
		cfg := valid(t)
		cfg.TimeoutMs = 0
		assert.Error(t, cfg.Validate())

		cfg = valid(t)
		cfg.ProbeAttempts = -1
		assert.Error(t, cfg.Validate())

		cfg = valid(t)
		cfg.ProbeInterval = 0
		assert.Error(t, cfg.Validate())
	})
}
