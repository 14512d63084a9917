// Package cache provides sitecontent.Cache backends: in-memory, Redis, a
// circuit-breaker fallback pairing the two, and a no-op cache.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/tendant/simple-site/pkg/sitecontent"
)

// Noop disables caching: every Get misses.
type Noop struct{}

// NewNoop creates a cache that stores nothing
func NewNoop() Noop { return Noop{} }

func (Noop) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return nil
}
func (Noop) DeletePrefix(ctx context.Context, prefix string) (int, error) { return 0, nil }
func (Noop) Stats(ctx context.Context) (sitecontent.CacheStats, error) {
	return sitecontent.CacheStats{Backend: "disabled"}, nil
}
func (Noop) Close() error { return nil }

// ConnectOptions configures Connect.
type ConnectOptions struct {
	// PingAttempts bounds the connection attempts before falling back
	PingAttempts uint64
	// PingTimeout bounds each attempt
	PingTimeout time.Duration
	Breaker     BreakerSettings
	Logger      *slog.Logger
}

// Connect returns a Redis-backed cache with in-memory fallback for
// redisURL. When redisURL is empty, "memory" or unreachable, it returns a
// plain in-memory cache instead.
func Connect(ctx context.Context, redisURL string, opts ConnectOptions) (sitecontent.Cache, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if redisURL == "" || redisURL == "memory" || strings.HasPrefix(redisURL, "memory://") {
		logger.Info("using in-memory cache")
		return NewMemory(), nil
	}

	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(redisOpts)

	attempts := opts.PingAttempts
	if attempts == 0 {
		attempts = 3
	}
	timeout := opts.PingTimeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	err = backoff.Retry(func() error {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return client.Ping(pctx).Err()
	}, backoff.WithContext(backoff.WithMaxRetries(bo, attempts-1), ctx))
	if err != nil {
		client.Close()
		logger.Warn("redis unavailable, using in-memory cache", "addr", redisOpts.Addr, "err", err)
		return NewMemory(), nil
	}

	logger.Info("connected to redis cache", "addr", redisOpts.Addr)
	return NewFallback(NewRedis(client), NewMemory(), opts.Breaker, logger), nil
}
