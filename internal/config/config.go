// Package config holds the application configuration, loaded from an optional
// YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Auth     AuthConfig     `yaml:"auth" json:"auth"`
	Stream   StreamConfig   `yaml:"stream" json:"stream"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host            string `yaml:"host" json:"host"`
	Port            int    `yaml:"port" json:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_seconds" json:"read_timeout_seconds"`
	WriteTimeoutSec int    `yaml:"write_timeout_seconds" json:"write_timeout_seconds"`
	EnableCORS      bool   `yaml:"enable_cors" json:"enable_cors"`
}

// GetReadTimeout returns the server read timeout as a duration
func (s ServerConfig) GetReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSec) * time.Second
}

// GetWriteTimeout returns the server write timeout as a duration
func (s ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSec) * time.Second
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Type         string `yaml:"type" json:"type"`
	DatabasePath string `yaml:"database_path" json:"database_path"`
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password" json:"-"`
	Database     string `yaml:"database" json:"database"`
	LogQueries   bool   `yaml:"log_queries" json:"log_queries"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret          string `yaml:"jwt_secret" json:"-"`
	TokenLifetimeHours int    `yaml:"token_lifetime_hours" json:"token_lifetime_hours"`
	CookieName         string `yaml:"cookie_name" json:"cookie_name"`
	SecureCookie       bool   `yaml:"secure_cookie" json:"secure_cookie"`
}

// GetTokenLifetime returns the auth token lifetime as a duration
func (a AuthConfig) GetTokenLifetime() time.Duration {
	return time.Duration(a.TokenLifetimeHours) * time.Hour
}

// StreamConfig holds live stream tuning knobs
type StreamConfig struct {
	PingIntervalMs  int `yaml:"ping_interval_ms" json:"ping_interval_ms"`
	FrameRate       int `yaml:"frame_rate" json:"frame_rate"` // frames per second
	WriteTimeoutSec int `yaml:"write_timeout_seconds" json:"write_timeout_seconds"`
	SendBufferSize  int `yaml:"send_buffer_size" json:"send_buffer_size"`
}

// GetPingInterval returns the heartbeat interval as a duration
func (s StreamConfig) GetPingInterval() time.Duration {
	return time.Duration(s.PingIntervalMs) * time.Millisecond
}

// GetFrameInterval returns the period between synthetic frames
func (s StreamConfig) GetFrameInterval() time.Duration {
	if s.FrameRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(s.FrameRate)
}

// GetWriteTimeout returns the per-write deadline for stream connections
func (s StreamConfig) GetWriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSec) * time.Second
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

var (
	globalConfig *Config
	globalPath   string
	configMu     sync.RWMutex
)

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeoutSec:  30,
			WriteTimeoutSec: 30,
			EnableCORS:      true,
		},
		Database: DatabaseConfig{
			Type:         "sqlite",
			DatabasePath: "./data/camwatch.db",
			Host:         "localhost",
			Port:         5432,
			Username:     "camwatch",
			Database:     "camwatch",
		},
		Auth: AuthConfig{
			JWTSecret:          "",
			TokenLifetimeHours: 24,
			CookieName:         "camwatch_token",
			SecureCookie:       false,
		},
		Stream: StreamConfig{
			PingIntervalMs:  1000,
			FrameRate:       30,
			WriteTimeoutSec: 10,
			SendBufferSize:  64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the given path (optional) and applies
// environment overrides. The result becomes the global configuration.
func Load(path string) error {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	globalPath = path
	configMu.Unlock()
	return nil
}

// Get returns the global configuration, loading defaults if Load was never called
func Get() *Config {
	configMu.RLock()
	cfg := globalConfig
	configMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	configMu.Lock()
	defer configMu.Unlock()
	if globalConfig == nil {
		globalConfig = DefaultConfig()
		applyEnvOverrides(globalConfig)
	}
	return globalConfig
}

// applyEnvOverrides applies environment variable overrides on top of cfg
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CAMWATCH_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CAMWATCH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		cfg.Database.Type = v
	}
	if v := os.Getenv("CAMWATCH_DATABASE_PATH"); v != "" {
		cfg.Database.DatabasePath = v
	}
	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		cfg.Database.Username = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("POSTGRES_DB"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("CAMWATCH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("CAMWATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CAMWATCH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ValidationError{Field: "server.port", Message: "must be between 1 and 65535"}
	}
	if c.Database.Type != "sqlite" && c.Database.Type != "postgres" {
		return &ValidationError{Field: "database.type", Message: "must be sqlite or postgres"}
	}
	if c.Stream.PingIntervalMs < 1 {
		return &ValidationError{Field: "stream.ping_interval_ms", Message: "must be positive"}
	}
	if c.Stream.FrameRate < 1 || c.Stream.FrameRate > 240 {
		return &ValidationError{Field: "stream.frame_rate", Message: "must be between 1 and 240"}
	}
	if c.Stream.SendBufferSize < 1 {
		return &ValidationError{Field: "stream.send_buffer_size", Message: "must be at least 1"}
	}
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error in field '" + e.Field + "': " + e.Message
}
