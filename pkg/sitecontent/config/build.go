package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendant/simple-site/pkg/sitecontent"
	"github.com/tendant/simple-site/pkg/sitecontent/cache"
	"github.com/tendant/simple-site/pkg/sitecontent/repo/memory"
	repopg "github.com/tendant/simple-site/pkg/sitecontent/repo/postgres"
	"github.com/tendant/simple-site/pkg/sitecontent/repo/sqlite"
	fsstorage "github.com/tendant/simple-site/pkg/sitecontent/storage/fs"
	memorystorage "github.com/tendant/simple-site/pkg/sitecontent/storage/memory"
	s3storage "github.com/tendant/simple-site/pkg/sitecontent/storage/s3"
)

// Runtime holds the service and the backends it owns.
type Runtime struct {
	Service    sitecontent.Service
	Repository sitecontent.Repository
	Cache      sitecontent.Cache // nil when caching is disabled
	Media      sitecontent.MediaStore
}

// Health probes the content store.
func (r *Runtime) Health(ctx context.Context) error {
	_, err := r.Repository.Find(ctx, sitecontent.Query{Collection: sitecontent.CollectionSiteSettings, Limit: 1})
	return err
}

// Close releases the cache and the content store.
func (r *Runtime) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.Repository != nil {
		errs = append(errs, r.Repository.Close())
	}
	return errors.Join(errs...)
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (sitecontent.Service, error) {
	rt, err := c.Build(ctx, slog.Default(), nil)
	if err != nil {
		return nil, err
	}
	return rt.Service, nil
}

// Build wires the content store, cache, media store and service. Cache
// metrics are registered on reg when it is non-nil.
func (c *ServerConfig) Build(ctx context.Context, logger *slog.Logger, reg prometheus.Registerer) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{}

	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	rt.Repository = repo

	if c.CacheEnabled {
		rt.Cache, err = c.buildCache(ctx, logger, reg)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to build cache: %w", err)
		}
	}

	rt.Media, err = c.buildMediaStore(ctx)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build media store: %w", err)
	}

	options := []sitecontent.Option{
		sitecontent.WithRepository(rt.Repository),
		sitecontent.WithMediaStore(rt.Media),
		sitecontent.WithLogger(logger),
		sitecontent.WithDefaultCacheTTL(c.CacheDefaultTTL),
	}
	if rt.Cache != nil {
		options = append(options, sitecontent.WithCache(rt.Cache))
	}
	if c.EnableEventLogging {
		options = append(options, sitecontent.WithEventSink(sitecontent.NewLoggingEventSink(logger)))
	}

	rt.Service, err = sitecontent.New(options...)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (c *ServerConfig) buildRepository(ctx context.Context) (sitecontent.Repository, error) {
	switch c.DatabaseType() {
	case "memory":
		return memory.New(), nil

	case "postgres":
		pool, err := repopg.Connect(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, err
		}
		if err := repopg.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return repopg.NewWithPool(pool), nil

	case "sqlite":
		return sqlite.Open(strings.TrimPrefix(c.DatabaseURL, "sqlite://"))

	default:
		return nil, fmt.Errorf("unsupported database URL: %s", c.DatabaseURL)
	}
}

func (c *ServerConfig) buildCache(ctx context.Context, logger *slog.Logger, reg prometheus.Registerer) (sitecontent.Cache, error) {
	store, err := cache.Connect(ctx, c.RedisURL, cache.ConnectOptions{
		Breaker: cache.DefaultBreakerSettings,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return store, nil
	}
	return cache.NewInstrumented(store, reg)
}

func (c *ServerConfig) buildMediaStore(ctx context.Context) (sitecontent.MediaStore, error) {
	switch c.StorageType() {
	case "memory":
		return memorystorage.New(c.MediaURLPrefix), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   strings.TrimPrefix(c.StorageURL, "file://"),
			URLPrefix: c.MediaURLPrefix,
		})

	case "s3":
		cfg, err := c.s3Config()
		if err != nil {
			return nil, err
		}
		return s3storage.New(ctx, cfg)

	default:
		return nil, fmt.Errorf("unsupported storage URL: %s", c.StorageURL)
	}
}

// s3Config merges S3Config with the bucket and query parameters of an
// s3://bucket/prefix?region=&endpoint=&path_style= URL.
func (c *ServerConfig) s3Config() (s3storage.Config, error) {
	u, err := url.Parse(c.StorageURL)
	if err != nil {
		return s3storage.Config{}, fmt.Errorf("invalid STORAGE_URL: %w", err)
	}
	if u.Host == "" {
		return s3storage.Config{}, errors.New("S3 bucket name cannot be empty in STORAGE_URL")
	}

	cfg := s3storage.Config{
		Region:                 c.S3.Region,
		Bucket:                 u.Host,
		Prefix:                 strings.Trim(u.Path, "/"),
		AccessKeyID:            c.S3.AccessKeyID,
		SecretAccessKey:        c.S3.SecretAccessKey,
		Endpoint:               c.S3.Endpoint,
		UsePathStyle:           c.S3.UsePathStyle,
		PresignDuration:        c.S3.PresignDuration,
		PublicBaseURL:          c.S3.PublicBaseURL,
		CreateBucketIfNotExist: c.S3.CreateBucket,
	}

	q := u.Query()
	if v := q.Get("region"); v != "" {
		cfg.Region = v
	}
	if v := q.Get("endpoint"); v != "" {
		cfg.Endpoint = v
	}
	if v := q.Get("path_style"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return s3storage.Config{}, fmt.Errorf("invalid path_style in STORAGE_URL: %w", err)
		}
		cfg.UsePathStyle = b
	}
	if v := q.Get("public_url"); v != "" {
		cfg.PublicBaseURL = v
	}
	return cfg, nil
}

// Migrate opens the configured content store, which applies its schema,
// and closes it again.
func (c *ServerConfig) Migrate(ctx context.Context) error {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return err
	}
	return repo.Close()
}
