package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all standardizer configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Upload  UploadConfig  `yaml:"upload"`
	Session SessionConfig `yaml:"session"`
	Preview PreviewConfig `yaml:"preview"`
	Mapping MappingConfig `yaml:"mapping"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// UploadConfig limits uploads.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// SessionConfig configures session expiry.
type SessionConfig struct {
	TTL           string `yaml:"ttl"`
	SweepInterval string `yaml:"sweep_interval"`
}

// PreviewConfig configures the preview tables.
type PreviewConfig struct {
	RowLimit    int  `yaml:"row_limit"`   // 0 = all rows
	Materialize bool `yaml:"materialize"` // fill the standardized preview
}

// MappingConfig configures the mapping form.
type MappingConfig struct {
	AutoSuggest bool `yaml:"auto_suggest"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     "30s",
			WriteTimeout:    "30s",
			ShutdownTimeout: "10s",
		},
		Upload: UploadConfig{
			MaxBytes: 32 << 20,
		},
		Session: SessionConfig{
			TTL:           "2h",
			SweepInterval: "5m",
		},
		Preview: PreviewConfig{
			RowLimit: 200,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("STANDARDIZER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("STANDARDIZER_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if v := os.Getenv("STANDARDIZER_MATERIALIZE"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Preview.Materialize = on
		}
	}
}

// GetReadTimeout returns the server read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 30*time.Second)
}

// GetWriteTimeout returns the server write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 30*time.Second)
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// GetSessionTTL returns the session TTL as a duration.
func (c *Config) GetSessionTTL() time.Duration {
	return parseDuration(c.Session.TTL, 2*time.Hour)
}

// GetSweepInterval returns the session sweep interval as a duration.
func (c *Config) GetSweepInterval() time.Duration {
	return parseDuration(c.Session.SweepInterval, 5*time.Minute)
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidLogFormats lists the accepted logging encodings.
var ValidLogFormats = []string{"json", "console"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is empty", ErrInvalidConfig)
	}
	for name, v := range map[string]string{
		"server.read_timeout":     c.Server.ReadTimeout,
		"server.write_timeout":    c.Server.WriteTimeout,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
		"session.ttl":             c.Session.TTL,
		"session.sweep_interval":  c.Session.SweepInterval,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("%w: upload.max_bytes must be positive, got %d", ErrInvalidConfig, c.Upload.MaxBytes)
	}
	if c.Preview.RowLimit < 0 {
		return fmt.Errorf("%w: preview.row_limit must not be negative, got %d", ErrInvalidConfig, c.Preview.RowLimit)
	}
	if !oneOf(c.Logging.Level, ValidLogLevels) {
		return fmt.Errorf("%w: invalid logging level: %s (valid: %v)", ErrInvalidConfig, c.Logging.Level, ValidLogLevels)
	}
	if !oneOf(c.Logging.Format, ValidLogFormats) {
		return fmt.Errorf("%w: invalid logging format: %s (valid: %v)", ErrInvalidConfig, c.Logging.Format, ValidLogFormats)
	}
	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func oneOf(v string, valid []string) bool {
	for _, s := range valid {
		if v == s {
			return true
		}
	}
	return false
}
