// Package config loads the service configuration from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	defaultJWTSecret = "change-this-to-a-secure-secret"
)

// Config is the root configuration of the service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	AppVersion  string `env:"APP_VERSION" envDefault:"1.0.0"`

	// StoreDriver selects the persistence engine for users, tokens, projects and documents.
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`

	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Document  DocumentConfig
	Notifx    NotifxConfig
	Jobx      JobxConfig
	Bootstrap BootstrapConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port           int           `env:"PORT" envDefault:"8080"`
	CORSOrigins    string        `env:"CORS_ORIGINS" envDefault:"*"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"10s"`
	BodyLimit      int           `env:"HTTP_BODY_LIMIT" envDefault:"4194304"`
	IdleTimeout    time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownGrace  time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DatabaseConfig configures the Postgres connection pool.
type DatabaseConfig struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD" envDefault:"postgres"`
	Name            string        `env:"DB_NAME" envDefault:"monarch"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// RedisConfig configures the Redis client.
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Address returns host:port.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// BootstrapConfig optionally seeds one project at startup (development).
type BootstrapConfig struct {
	ProjectID   string `env:"BOOTSTRAP_PROJECT_ID"`
	ProjectName string `env:"BOOTSTRAP_PROJECT_NAME" envDefault:"default"`
	APIKey      string `env:"BOOTSTRAP_API_KEY"`
}

// Enabled reports whether a bootstrap project was requested.
func (b BootstrapConfig) Enabled() bool {
	return b.ProjectID != "" && b.APIKey != ""
}

// DocumentConfig bounds the document API.
type DocumentConfig struct {
	BulkMaxOps      int `env:"DOCUMENT_BULK_MAX_OPS" envDefault:"100"`
	DefaultPageSize int `env:"DOCUMENT_DEFAULT_PAGE_SIZE" envDefault:"50"`
	MaxPageSize     int `env:"DOCUMENT_MAX_PAGE_SIZE" envDefault:"500"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Server.Port)
	}

	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (use %q or %q)", c.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	if !c.IsDevelopment() {
		if c.Auth.JWT.SecretKey == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set in %q mode", c.Environment)
		}
		if len(c.Auth.JWT.SecretKey) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.Auth.JWT.SecretKey))
		}
	}

	if c.Auth.OTP.Delivery == OTPDeliveryQueue && !c.Redis.Enabled {
		return fmt.Errorf("OTP_DELIVERY=%s requires REDIS_ENABLED", OTPDeliveryQueue)
	}

	if c.Document.BulkMaxOps < 1 {
		return fmt.Errorf("DOCUMENT_BULK_MAX_OPS must be positive")
	}
	if c.Document.DefaultPageSize < 1 || c.Document.DefaultPageSize > c.Document.MaxPageSize {
		return fmt.Errorf("DOCUMENT_DEFAULT_PAGE_SIZE must be between 1 and DOCUMENT_MAX_PAGE_SIZE")
	}
	return nil
}
