package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Log      LogConfig      `mapstructure:"log"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Events   EventsConfig   `mapstructure:"events"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Crypto   CryptoConfig   `mapstructure:"crypto"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`     // "development" or "production"
	RunMode string `mapstructure:"run_mode"` // "server", "worker" or "both"
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`            // "sqlite" or "postgres"
	DSN             string `mapstructure:"dsn"`               // Connection string
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`    // Maximum idle connections (Postgres)
	MaxOpenConns    int    `mapstructure:"max_open_conns"`    // Maximum open connections (Postgres)
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // Connection max lifetime in minutes (Postgres)
	LogLevel        string `mapstructure:"log_level"`         // GORM log level; defaults to log.level
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"` // Secret for JWT signing and token encryption
}

// QueueConfig holds job queue configuration
type QueueConfig struct {
	Type       string `mapstructure:"type"`        // "memory" or "valkey"
	ValkeyAddr string `mapstructure:"valkey_addr"` // Valkey address (if type=valkey), e.g., "localhost:6379"
}

// LogConfig holds logging configuration
type LogConfig struct {
	Format string `mapstructure:"format"` // "json" or "text"
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
}

// GraphConfig holds Meta Graph API client configuration
type GraphConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIVersion string        `mapstructure:"api_version"` // e.g. "v21.0"
	AppSecret  string        `mapstructure:"app_secret"`  // enables appsecret_proof when set
	Timeout    time.Duration `mapstructure:"timeout"`
}

// EventsConfig holds template event publishing configuration
type EventsConfig struct {
	AMQPURL  string `mapstructure:"amqp_url"` // empty disables publishing
	Exchange string `mapstructure:"exchange"`
	Producer string `mapstructure:"producer"`
}

// WorkerConfig holds submission worker configuration
type WorkerConfig struct {
	MaxConcurrentJobs int `mapstructure:"max_concurrent_jobs"`
}

// CryptoConfig holds the secret that seals connection access tokens
type CryptoConfig struct {
	Secret string `mapstructure:"secret"` // falls back to auth.jwt_secret when empty
}

// SealSecret returns the secret used for connection tokens.
func (c *Config) SealSecret() string {
	if c.Crypto.Secret != "" {
		return c.Crypto.Secret
	}
	return c.Auth.JWTSecret
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Read from config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/wabastudio/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, using defaults
	}

	// Environment variables override
	v.SetEnvPrefix("WABASTUDIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8470)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.run_mode", "both")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./wabastudio.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60) // 60 minutes
	v.SetDefault("database.log_level", "")
	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("queue.type", "memory")
	v.SetDefault("queue.valkey_addr", "localhost:6379")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("graph.base_url", "https://graph.facebook.com")
	v.SetDefault("graph.api_version", "v21.0")
	v.SetDefault("graph.app_secret", "")
	v.SetDefault("graph.timeout", 30*time.Second)
	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.exchange", "wabastudio.events")
	v.SetDefault("events.producer", "wabastudio")
	v.SetDefault("worker.max_concurrent_jobs", 10)
	v.SetDefault("crypto.secret", "")
}
