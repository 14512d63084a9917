package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/tendant/simple-site/pkg/query"
	"github.com/tendant/simple-site/pkg/site"
	"github.com/tendant/simple-site/pkg/siteclient"
	"github.com/tendant/simple-site/pkg/sitecontent"
	"github.com/tendant/simple-site/pkg/sitecontent/api"
	"github.com/tendant/simple-site/pkg/sitecontent/config"
	"github.com/tendant/simple-site/pkg/sitecontent/seed"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	var port string
	var seedEmpty bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the content API",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []config.Option{config.WithEnv()}
			if port != "" {
				opts = append(opts, config.WithPort(port))
			}
			cfg, err := config.Load(opts...)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := config.NewLogger(os.Stderr, cfg.Environment, cfg.LogLevel)

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			ctx := cmd.Context()
			rt, err := cfg.Build(ctx, logger, reg)
			if err != nil {
				return fmt.Errorf("failed to build service: %w", err)
			}
			defer func() {
				if err := rt.Close(); err != nil {
					logger.Error("failed to close backends", "err", err)
				}
			}()

			if seedEmpty {
				if _, err := seed.Apply(ctx, rt.Service, seed.Default(), seed.Options{OnlyIfEmpty: true, Logger: logger}); err != nil {
					return fmt.Errorf("failed to seed content: %w", err)
				}
			}

			logger.Info("content API starting",
				"environment", cfg.Environment,
				"database", cfg.DatabaseType(),
				"storage", cfg.StorageType(),
				"cache", cacheBackend(ctx, rt.Service),
			)
			handler := api.NewRouter(rt.Service, api.RouterOptions{
				Logger:      logger,
				CORSOrigins: cfg.CORSOrigins,
				Environment: cfg.Environment,
				Registry:    reg,
				Health:      rt.Health,
			})
			return runServer(logger, ":"+cfg.Port, handler)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default: $PORT or 8080)")
	cmd.Flags().BoolVar(&seedEmpty, "seed", false, "load the default content when the store is empty")
	return cmd
}

func cacheBackend(ctx context.Context, svc sitecontent.Service) string {
	stats, err := svc.CacheStats(ctx)
	if err != nil {
		return "unknown"
	}
	return stats.Backend
}

// NewWebCommand creates the web command
func NewWebCommand() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "web",
		Short: "Run the server-rendered site",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWeb()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if port != "" {
				cfg.Port = port
			}
			logger := config.NewLogger(os.Stderr, cfg.Environment, cfg.LogLevel)

			qc := query.New(query.WithLogger(logger))
			defer qc.Close()
			queries := site.NewQueries(siteclient.New(cfg.BackendURL, siteclient.WithLogger(logger)), qc)

			page, err := site.NewPage(queries, site.WithPageLogger(logger))
			if err != nil {
				return fmt.Errorf("failed to parse templates: %w", err)
			}
			web := site.NewWeb(page, queries, logger)
			defer web.Wait()

			logger.Info("site starting", "backend", cfg.BackendURL)
			return runServer(logger, ":"+cfg.Port, web.Routes())
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default: $WEB_PORT or 3000)")
	return cmd
}

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	var remote string
	var onlyIfEmpty bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the default site content",
		Long: `Load the default Atlas content into the configured content store, or
into a running content API with --remote.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data := seed.Default()
			if err := data.Validate(); err != nil {
				return err
			}

			cfg, err := config.Load(config.WithEnv())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := config.NewLogger(os.Stderr, cfg.Environment, cfg.LogLevel)
			opts := seed.Options{OnlyIfEmpty: onlyIfEmpty, Logger: logger}

			var sum seed.Summary
			if remote != "" {
				qc := query.New(query.WithLogger(logger))
				defer qc.Close()
				sum, err = seed.Apply(ctx, newRemoteWriter(siteclient.New(remote, siteclient.WithLogger(logger)), qc), data, opts)
			} else {
				var rt *config.Runtime
				rt, err = cfg.Build(ctx, logger, nil)
				if err != nil {
					return fmt.Errorf("failed to build service: %w", err)
				}
				defer rt.Close()
				sum, err = seed.Apply(ctx, rt.Service, data, opts)
			}
			if err != nil {
				return err
			}

			if sum.Skipped {
				fmt.Println("Content already present, nothing seeded")
				return nil
			}
			fmt.Printf("Seeded %d features, %d testimonials, %d process steps, %d specifications, %d navigation items, %d footer sections\n",
				sum.Features, sum.Testimonials, sum.ProcessSteps, sum.Specifications, sum.Navigation, sum.Footer)
			return nil
		},
	}

	cmd.Flags().StringVar(&remote, "remote", "", "content API base URL to seed through, e.g. http://localhost:8080")
	cmd.Flags().BoolVar(&onlyIfEmpty, "if-empty", false, "skip seeding when a hero already exists")
	return cmd
}

// remoteWriter seeds through the content API.
type remoteWriter struct {
	*site.Editor
	client *siteclient.Client
}

func newRemoteWriter(client *siteclient.Client, qc *query.Client) remoteWriter {
	return remoteWriter{Editor: site.NewEditor(client, qc), client: client}
}

func (r remoteWriter) GetHero(ctx context.Context) (*sitecontent.HeroContent, error) {
	hero, err := r.client.Hero(ctx)
	if err != nil && siteclient.KindOf(err) == sitecontent.KindNotFound {
		return nil, &sitecontent.Error{Kind: sitecontent.KindNotFound, Op: "get", Collection: sitecontent.CollectionHero, Err: err}
	}
	return hero, err
}

// NewMigrateCommand creates the migrate command
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the content store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.WithEnv())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := cfg.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Schema applied to %s store\n", cfg.DatabaseType())
			return nil
		},
	}
}
