// Package config provides configuration management for the item API server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// StorageType selects the storage backend. The selection is read once at
// backend construction time; switching at runtime is not supported.
type StorageType string

// Supported storage backends.
const (
	StorageMemory StorageType = "memory"
	StorageSQLite StorageType = "sqlite"
	StorageRedis  StorageType = "redis"
)

// Default configuration values.
const (
	DefaultServerPort      = 8080
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultStorageType     = StorageMemory
	DefaultSQLitePath      = "./items.db"
	DefaultRedisAddr       = "localhost:6379"
	DefaultAuthMode        = "none"
)

// Environment variable names.
const (
	EnvConfigFile      = "APP_CONFIG_FILE"
	EnvServerPort      = "APP_SERVER_PORT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvStorageType     = "APP_STORAGE_TYPE"
	EnvSQLitePath      = "APP_SQLITE_PATH"
	EnvRedisAddr       = "APP_REDIS_ADDR"
	EnvRedisPassword   = "APP_REDIS_PASSWORD" //nolint:gosec // env var name, not a credential
	EnvRedisDB         = "APP_REDIS_DB"
	EnvAuthMode        = "APP_AUTH_MODE"
	EnvBasicAuthUsers  = "APP_BASIC_AUTH_USERS"
	EnvAPIKeys         = "APP_API_KEYS" //nolint:gosec // env var name, not a credential
)

// Config holds the application configuration.
type Config struct {
	// Server settings.
	ServerPort      int           `yaml:"server_port"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"-"` // env-only, Go duration syntax
	MetricsEnabled  bool          `yaml:"metrics_enabled"`

	// Storage backend selection and backend-specific parameters.
	StorageType   StorageType `yaml:"storage_type"`
	SQLitePath    string      `yaml:"sqlite_path"`
	RedisAddr     string      `yaml:"redis_addr"`
	RedisPassword string      `yaml:"redis_password"`
	RedisDB       int         `yaml:"redis_db"`

	// Authentication mode: none, basic, apikey.
	AuthMode string `yaml:"auth_mode"`

	// Basic auth settings (format: "user1:bcrypt_hash,user2:bcrypt_hash").
	BasicAuthUsers string `yaml:"basic_auth_users"`

	// API key settings (format: "key1:name1,key2:name2").
	APIKeys string `yaml:"api_keys"`
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidStorageType     = errors.New(
		"storage type must be one of: memory, sqlite, redis",
	)
	ErrMissingSQLitePath = errors.New(
		"sqlite path must be set when storage type is sqlite",
	)
	ErrMissingRedisAddr = errors.New(
		"redis address must be set when storage type is redis",
	)
	ErrInvalidAuthMode = errors.New(
		"auth mode must be one of: none, basic, apikey",
	)
	ErrInvalidBasicAuthConfig = errors.New(
		"basic auth users must be set when auth mode is basic",
	)
	ErrInvalidAPIKeyConfig = errors.New(
		"API keys must be set when auth mode is apikey",
	)
)

// Load reads configuration from an optional YAML file and environment
// variables, with defaults. Environment variables have priority over file
// values, which have priority over defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      DefaultServerPort,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		StorageType:     DefaultStorageType,
		SQLitePath:      DefaultSQLitePath,
		RedisAddr:       DefaultRedisAddr,
		AuthMode:        DefaultAuthMode,
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration values from a YAML file. Keys absent
// from the file keep their current values.
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	return nil
}

// loadFromEnv loads configuration values from environment variables.
func (c *Config) loadFromEnv() error {
	if err := c.loadServerEnv(); err != nil {
		return err
	}

	if err := c.loadStorageEnv(); err != nil {
		return err
	}

	c.loadAuthEnv()

	return nil
}

// loadServerEnv loads server-related environment variables.
func (c *Config) loadServerEnv() error {
	if val := os.Getenv(EnvServerPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvServerPort, err)
		}
		c.ServerPort = port
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
		}
		c.MetricsEnabled = enabled
	}

	return nil
}

// loadStorageEnv loads storage-related environment variables.
func (c *Config) loadStorageEnv() error {
	if val := os.Getenv(EnvStorageType); val != "" {
		c.StorageType = StorageType(val)
	}

	if val := os.Getenv(EnvSQLitePath); val != "" {
		c.SQLitePath = val
	}

	if val := os.Getenv(EnvRedisAddr); val != "" {
		c.RedisAddr = val
	}

	if val := os.Getenv(EnvRedisPassword); val != "" {
		c.RedisPassword = val
	}

	if val := os.Getenv(EnvRedisDB); val != "" {
		db, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvRedisDB, err)
		}
		c.RedisDB = db
	}

	return nil
}

// loadAuthEnv loads authentication environment variables.
func (c *Config) loadAuthEnv() {
	if val := os.Getenv(EnvAuthMode); val != "" {
		c.AuthMode = val
	}

	if val := os.Getenv(EnvBasicAuthUsers); val != "" {
		c.BasicAuthUsers = val
	}

	if val := os.Getenv(EnvAPIKeys); val != "" {
		c.APIKeys = val
	}
}

// Validate checks if the configuration values are valid. An unrecognized
// storage type is rejected here so backend selection can never silently
// fall back to a different backend.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	return c.validateAuth()
}

// validateServer validates server-related configuration.
func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	return nil
}

// validateStorage validates the backend selection and its parameters.
func (c *Config) validateStorage() error {
	switch c.StorageType {
	case StorageMemory:
	case StorageSQLite:
		if c.SQLitePath == "" {
			return ErrMissingSQLitePath
		}
	case StorageRedis:
		if c.RedisAddr == "" {
			return ErrMissingRedisAddr
		}
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidStorageType, c.StorageType)
	}

	return nil
}

// validateAuth validates authentication configuration.
func (c *Config) validateAuth() error {
	switch c.AuthMode {
	case "none", "":
	case "basic":
		if c.BasicAuthUsers == "" {
			return ErrInvalidBasicAuthConfig
		}
	case "apikey":
		if c.APIKeys == "" {
			return ErrInvalidAPIKeyConfig
		}
	default:
		return ErrInvalidAuthMode
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
