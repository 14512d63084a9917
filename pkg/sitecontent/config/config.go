package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
// WithEnv resets unset variables to their defaults, so pass it before
// programmatic overrides.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseURL:        "memory",
		DBSchema:           "public",
		CacheEnabled:       true,
		CacheDefaultTTL:    time.Hour,
		StorageURL:         "memory://",
		MediaURLPrefix:     "/api/content/media",
		CORSOrigins:        []string{"*"},
		LogLevel:           "info",
		EnableEventLogging: false,
		S3:                 S3Config{Region: "us-east-1", PresignDuration: 3600},
	}
}

// ServerConfig represents server configuration for the content service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// DatabaseURL is "memory", "postgres://..." or "sqlite://path".
	DatabaseURL string `env:"DATABASE_URL" env-default:"memory"`
	DBSchema    string `env:"CONTENT_DB_SCHEMA" env-default:"public"`

	// RedisURL is a redis:// URL; empty or "memory" selects the in-process cache.
	RedisURL        string        `env:"REDIS_URL"`
	CacheEnabled    bool          `env:"CACHE_ENABLED" env-default:"true"`
	CacheDefaultTTL time.Duration `env:"CACHE_DEFAULT_TTL" env-default:"1h"`

	// StorageURL is "memory://", "file:///path" or "s3://bucket?region=...".
	StorageURL     string `env:"STORAGE_URL" env-default:"memory://"`
	MediaURLPrefix string `env:"MEDIA_URL_PREFIX" env-default:"/api/content/media"`
	S3             S3Config

	CORSOrigins        []string `env:"CORS_ORIGINS" env-separator:"," env-default:"*"`
	LogLevel           string   `env:"LOG_LEVEL" env-default:"info"`
	EnableEventLogging bool     `env:"ENABLE_EVENT_LOGGING" env-default:"false"`
}

// S3Config carries the credentials and endpoint of the s3:// media store.
// Query parameters of STORAGE_URL take precedence.
type S3Config struct {
	Region          string `env:"AWS_REGION" env-default:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	Endpoint        string `env:"S3_ENDPOINT"`
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`
	PublicBaseURL   string `env:"S3_PUBLIC_BASE_URL"`
	PresignDuration int    `env:"S3_PRESIGN_DURATION" env-default:"3600"`
	CreateBucket    bool   `env:"S3_CREATE_BUCKET_IF_NOT_EXIST" env-default:"false"`
}

// DatabaseType derives the store kind from DatabaseURL.
func (c *ServerConfig) DatabaseType() string {
	switch {
	case c.DatabaseURL == "" || c.DatabaseURL == "memory":
		return "memory"
	case strings.HasPrefix(c.DatabaseURL, "postgres://"), strings.HasPrefix(c.DatabaseURL, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(c.DatabaseURL, "sqlite://"):
		return "sqlite"
	}
	return ""
}

// StorageType derives the media store kind from StorageURL.
func (c *ServerConfig) StorageType() string {
	switch {
	case c.StorageURL == "" || c.StorageURL == "memory" || c.StorageURL == "memory://":
		return "memory"
	case strings.HasPrefix(c.StorageURL, "file://"):
		return "fs"
	case strings.HasPrefix(c.StorageURL, "s3://"):
		return "s3"
	}
	return ""
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.DatabaseType() == "" {
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory', 'postgres://...' or 'sqlite://...')", c.DatabaseURL)
	}
	if c.DatabaseType() == "sqlite" && strings.TrimPrefix(c.DatabaseURL, "sqlite://") == "" {
		return errors.New("sqlite database path cannot be empty")
	}
	switch c.StorageType() {
	case "":
		return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", c.StorageURL)
	case "fs":
		if strings.TrimPrefix(c.StorageURL, "file://") == "" {
			return errors.New("filesystem path cannot be empty in STORAGE_URL")
		}
	case "s3":
		if _, err := c.s3Config(); err != nil {
			return err
		}
	}
	if c.CacheDefaultTTL < 0 {
		return errors.New("cache default TTL cannot be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
