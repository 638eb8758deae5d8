// Package config provides configuration management for the tx-grouper service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/tx-grouper/pkg/errors"
)

// EnvPrefix prefixes environment overrides, e.g. TXGROUP_GROUPER_CORE_COUNT.
const EnvPrefix = "TXGROUP"

// Config holds all configuration for the application.
type Config struct {
	Grouper  GrouperConfig  `mapstructure:"grouper"`
	Detector DetectorConfig `mapstructure:"detector"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
}

// GrouperConfig holds grouping and rebalancing parameters.
type GrouperConfig struct {
	Strategy      string        `mapstructure:"strategy"` // naive, max-add-mins or mins-add-up
	CoreCount     int           `mapstructure:"core_count"`
	DetectWorkers int           `mapstructure:"detect_workers"`
	DetectTimeout time.Duration `mapstructure:"detect_timeout"` // 0 disables
}

// DetectorConfig selects the resource detector chain.
type DetectorConfig struct {
	Type          string `mapstructure:"type"`       // address or metadata
	CacheSize     int    `mapstructure:"cache_size"` // 0 disables the cache
	SystemAddress string `mapstructure:"system_address"`
}

// DatabaseConfig holds database connection configuration.
// It is only used by the metadata detector.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // postgres, mysql or sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
	Path     string `mapstructure:"path"` // sqlite only
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	Endpoint  string `mapstructure:"endpoint"`   // overrides the bucket URL
	LocalPath string `mapstructure:"local_path"` // for local storage
}

// ServerConfig holds HTTP API settings for the serve command.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"` // 0 means no limit
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"` // stderr, stdout or a file path
}

// Load reads configuration from the specified file path.
// A missing file is not an error; defaults and environment apply.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/tx-grouper")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to read config file", err)
		}
	}

	return decode(v)
}

// LoadFromReader loads configuration from raw bytes (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := newViper()

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to read config", err)
	}

	return decode(v)
}

// Default returns the configuration built from defaults and environment only.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to unmarshal config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Grouper defaults
	v.SetDefault("grouper.strategy", "naive")
	v.SetDefault("grouper.core_count", 4)
	v.SetDefault("grouper.detect_workers", 1)
	v.SetDefault("grouper.detect_timeout", 0)

	// Detector defaults
	v.SetDefault("detector.type", "address")
	v.SetDefault("detector.cache_size", 4096)
	v.SetDefault("detector.system_address", "system")

	// Database defaults
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.path", "./contracts.db")

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", ".")

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "txgroup")

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_body_bytes", 32<<20)
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "stderr")
}

// Validate validates the configuration.
// Strategy names are checked by the grouper package when they are parsed.
func (c *Config) Validate() error {
	if c.Grouper.Strategy == "" {
		return configError("grouper strategy is required")
	}
	if c.Grouper.CoreCount < 1 {
		return configError("core count must be at least 1, got %d", c.Grouper.CoreCount)
	}
	if c.Grouper.DetectWorkers < 1 {
		return configError("detect workers must be at least 1, got %d", c.Grouper.DetectWorkers)
	}
	if c.Grouper.DetectTimeout < 0 {
		return configError("detect timeout must not be negative")
	}

	switch c.Detector.Type {
	case "address":
	case "metadata":
		if err := c.Database.validate(); err != nil {
			return err
		}
	default:
		return configError("unsupported detector type: %s", c.Detector.Type)
	}
	if c.Detector.CacheSize < 0 {
		return configError("detector cache size must not be negative")
	}

	if c.Server.MaxBodyBytes < 1 {
		return configError("server max body bytes must be positive")
	}
	if c.Server.RequestTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		return configError("server timeouts must not be negative")
	}

	// Storage config validation is delegated to storage package
	return nil
}

func (d *DatabaseConfig) validate() error {
	switch d.Type {
	case "postgres", "postgresql", "mysql":
		if d.Host == "" {
			return configError("database host is required")
		}
	case "sqlite":
		if d.Path == "" {
			return configError("sqlite database path is required")
		}
	default:
		return configError("unsupported database type: %s", d.Type)
	}
	return nil
}

func configError(format string, args ...interface{}) error {
	return apperrors.New(apperrors.CodeConfigError, fmt.Sprintf(format, args...))
}
