// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Defaults for the provisioning run. Anything not listed here is required
// and validated before a browser is ever launched.
const (
	DefaultTargetURL     = "http://localhost"
	DefaultAdminEmail    = "admin@example.com"
	DefaultDatasourceURL = "http://host.docker.internal:8085"
	DefaultTimeoutMs     = 90000
	DefaultHealthPath    = "/"
	DefaultProbeAttempts = 30
	DefaultProbeInterval = 2 * time.Second
	DefaultArtifactsDir  = "artifacts"
)

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// Config is the full configuration for one provisioning run. It is resolved
// once at startup from environment variables (and flags layered on top via
// viper) and treated as immutable afterwards.
type Config struct {
	TargetURL     string        `mapstructure:"target_url" yaml:"target_url"`
	AdminEmail    string        `mapstructure:"admin_email" yaml:"admin_email"`
	AdminPassword string        `mapstructure:"admin_password" yaml:"-"`
	AppJSONPath   string        `mapstructure:"app_json_path" yaml:"app_json_path"`
	DatasourceURL string        `mapstructure:"datasource_url" yaml:"datasource_url"`
	Headless      bool          `mapstructure:"headless" yaml:"headless"`
	TimeoutMs     int           `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	RecordTrace   bool          `mapstructure:"record_trace" yaml:"record_trace"`
	HealthPath    string        `mapstructure:"health_path" yaml:"health_path"`
	ProbeAttempts int           `mapstructure:"probe_attempts" yaml:"probe_attempts"`
	ProbeInterval time.Duration `mapstructure:"probe_interval" yaml:"probe_interval"`
	ArtifactsDir  string        `mapstructure:"artifacts_dir" yaml:"artifacts_dir"`
	Logger        LoggerConfig  `mapstructure:"logger" yaml:"logger"`
}

// envBindings maps viper keys to the environment variable names recognized at
// the process boundary. These names are the operator-facing contract; the
// host provisioning script sets them before launching this engine.
var envBindings = map[string]string{
	"target_url":         "APPSMITH_URL",
	"admin_email":        "ADMIN_EMAIL",
	"admin_password":     "ADMIN_PASSWORD",
	"app_json_path":      "APP_JSON_PATH",
	"datasource_url":     "DATASOURCE_URL",
	"headless":           "HEADLESS",
	"timeout_ms":         "TIMEOUT",
	"record_trace":       "RECORD_TRACE",
	"health_path":        "HEALTH_PATH",
	"probe_attempts":     "PROBE_ATTEMPTS",
	"probe_interval":     "PROBE_INTERVAL",
	"artifacts_dir":      "ARTIFACTS_DIR",
	"logger.level":       "LOG_LEVEL",
	"logger.format":      "LOG_FORMAT",
	"logger.log_file":    "LOG_FILE",
	"logger.max_size":    "LOG_MAX_SIZE",
	"logger.max_backups": "LOG_MAX_BACKUPS",
	"logger.max_age":     "LOG_MAX_AGE",
}

// BindEnv registers the environment bindings and defaults on the given viper
// instance. Split out from Load so the cobra layer can bind flags on top.
func BindEnv(v *viper.Viper) error {
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetDefault("target_url", DefaultTargetURL)
	v.SetDefault("admin_email", DefaultAdminEmail)
	v.SetDefault("datasource_url", DefaultDatasourceURL)
	v.SetDefault("headless", true)
	v.SetDefault("timeout_ms", DefaultTimeoutMs)
	v.SetDefault("record_trace", true)
	v.SetDefault("health_path", DefaultHealthPath)
	v.SetDefault("probe_attempts", DefaultProbeAttempts)
	v.SetDefault("probe_interval", DefaultProbeInterval)
	v.SetDefault("artifacts_dir", DefaultArtifactsDir)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "uiprov")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	return nil
}

// Load resolves the configuration from the given viper instance.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Timeout returns the per-step/per-element timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// Validate performs the pre-flight checks. It must be called before any
// browser session is launched: a run that is doomed by missing credentials
// or a missing bundle should never acquire browser resources.
func (c *Config) Validate() error {
	if c.AdminPassword == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required but not set")
	}
	if c.AppJSONPath == "" {
		return fmt.Errorf("APP_JSON_PATH is required but not set")
	}
	info, err := os.Stat(c.AppJSONPath)
	if err != nil {
		return fmt.Errorf("configuration bundle not readable at %q: %w", c.AppJSONPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("configuration bundle path %q is a directory, expected a file", c.AppJSONPath)
	}

	u, err := url.Parse(c.TargetURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("target URL %q is not an absolute URL", c.TargetURL)
	}

	if c.TimeoutMs <= 0 {
		return fmt.Errorf("timeout must be positive, got %d ms", c.TimeoutMs)
	}
	if c.ProbeAttempts <= 0 {
		return fmt.Errorf("probe attempts must be positive, got %d", c.ProbeAttempts)
	}
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("probe interval must be positive, got %s", c.ProbeInterval)
	}
	return nil
}
