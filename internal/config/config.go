// Package config loads settings from defaults, an optional YAML file and the
// environment (in increasing precedence).
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/acheong08/depguardian/internal/store"
)

// DefaultFile is picked up from the working directory when no path is given
const DefaultFile = "depguardian.yaml"

// Store backends
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Config holds all configuration
type Config struct {
	// Backend
	BackendURL    string
	StreamTimeout time.Duration

	// Storage
	Store    string
	StoreDir string
	RedisURL string

	// Server
	Port string

	LogLevel string
}

// fileConfig mirrors Config as written in YAML
type fileConfig struct {
	BackendURL    string `yaml:"backend_url"`
	StreamTimeout string `yaml:"stream_timeout"`
	Store         string `yaml:"store"`
	StoreDir      string `yaml:"store_dir"`
	RedisURL      string `yaml:"redis_url"`
	Port          string `yaml:"port"`
	LogLevel      string `yaml:"log_level"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	dir := ".depguardian"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".depguardian")
	}
	return &Config{
		BackendURL:    "http://localhost:8000",
		StreamTimeout: 10 * time.Minute,
		Store:         StoreFile,
		StoreDir:      dir,
		RedisURL:      "redis://localhost:6379",
		Port:          "8080",
		LogLevel:      "info",
	}
}

// Load builds the configuration. An empty path falls back to DefaultFile when
// it exists. A .env file in the working directory is loaded when present.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := Defaults()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := config.merge(path); err != nil {
			return nil, err
		}
	}

	timeout := getEnv("STREAM_TIMEOUT", "")
	if timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid STREAM_TIMEOUT %q: %w", timeout, err)
		}
		config.StreamTimeout = d
	}
	config.BackendURL = getEnv("BACKEND_URL", config.BackendURL)
	config.Store = getEnv("STORE", config.Store)
	config.StoreDir = getEnv("STORE_DIR", config.StoreDir)
	config.RedisURL = getEnv("REDIS_URL", config.RedisURL)
	config.Port = getEnv("PORT", config.Port)
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) merge(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.StreamTimeout != "" {
		d, err := time.ParseDuration(fc.StreamTimeout)
		if err != nil {
			return fmt.Errorf("invalid stream_timeout %q: %w", fc.StreamTimeout, err)
		}
		c.StreamTimeout = d
	}
	c.BackendURL = orDefault(fc.BackendURL, c.BackendURL)
	c.Store = orDefault(fc.Store, c.Store)
	c.StoreDir = orDefault(fc.StoreDir, c.StoreDir)
	c.RedisURL = orDefault(fc.RedisURL, c.RedisURL)
	c.Port = orDefault(fc.Port, c.Port)
	c.LogLevel = orDefault(fc.LogLevel, c.LogLevel)
	return nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if c.StreamTimeout <= 0 {
		return fmt.Errorf("stream timeout must be positive, got %s", c.StreamTimeout)
	}
	switch c.Store {
	case StoreFile:
		if c.StoreDir == "" {
			return fmt.Errorf("STORE_DIR is required for the file store")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreFile, StoreRedis)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// OpenStore builds the configured report store. Redis stores should be
// closed by the caller.
func (c *Config) OpenStore(ctx context.Context, logger *slog.Logger) (store.Store, error) {
	switch c.Store {
	case StoreRedis:
		return store.NewRedisStore(ctx, store.RedisOptions{URL: c.RedisURL}, logger)
	default:
		return store.NewFileStore(c.StoreDir, logger)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}
