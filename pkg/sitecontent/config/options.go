package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv reads the server variables from the process environment.
//
//	PORT, ENVIRONMENT
//	DATABASE_URL        memory | postgres://... | sqlite://path
//	CONTENT_DB_SCHEMA   postgres search_path
//	REDIS_URL           redis://host:6379/0; empty uses the in-process cache
//	CACHE_ENABLED       false disables caching
//	CACHE_DEFAULT_TTL   TTL of collections without their own, e.g. 1h
//	STORAGE_URL         memory:// | file:///path | s3://bucket?region=...
//	MEDIA_URL_PREFIX, CORS_ORIGINS, LOG_LEVEL, ENABLE_EVENT_LOGGING
//	AWS_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, S3_ENDPOINT, ...
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}
		return nil
	}
}

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabaseURL selects the content store
func WithDatabaseURL(url string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithRedis sets the cache URL
func WithRedis(url string) Option {
	return func(c *ServerConfig) error {
		c.RedisURL = url
		return nil
	}
}

// WithCacheEnabled turns read-through caching on or off
func WithCacheEnabled(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.CacheEnabled = enabled
		return nil
	}
}

// WithCacheDefaultTTL sets the TTL of collections without their own
func WithCacheDefaultTTL(ttl time.Duration) Option {
	return func(c *ServerConfig) error {
		if ttl <= 0 {
			return fmt.Errorf("cache TTL must be positive, got %s", ttl)
		}
		c.CacheDefaultTTL = ttl
		return nil
	}
}

// WithStorageURL selects the media store
func WithStorageURL(url string) Option {
	return func(c *ServerConfig) error {
		c.StorageURL = url
		return nil
	}
}

// WithCORSOrigins sets the allowed browser origins
func WithCORSOrigins(origins ...string) Option {
	return func(c *ServerConfig) error {
		c.CORSOrigins = origins
		return nil
	}
}

// WithLogLevel sets the minimum log level
func WithLogLevel(level string) Option {
	return func(c *ServerConfig) error {
		if _, err := ParseLevel(level); err != nil {
			return err
		}
		c.LogLevel = level
		return nil
	}
}
