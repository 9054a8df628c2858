package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/pkg/di"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/pipeline"
	"github.com/Ramsey-B/fern/pkg/registry"
	"github.com/Ramsey-B/fern/pkg/routes/enrichment"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	registryroutes "github.com/Ramsey-B/fern/pkg/routes/registry"
	"github.com/Ramsey-B/fern/pkg/server"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the enrichment HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations before serving (postgres registry only)")
	return cmd
}

func (a *app) serve(parent context.Context, migrate bool) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	shutdownTracing, err := tracing.Setup(ctx, tracing.ExporterConfig{
		ServiceName: cfg.AppName,
		Endpoint:    cfg.OtelExporterEndpoint,
		Protocol:    cfg.OtelExporterProtocol,
		Insecure:    cfg.OtelExporterInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})
	if err != nil {
		return err
	}

	var (
		db        *database.DatabaseInstance
		rdb       *redis.Client
		store     *registry.Store
		producer  *events.Producer
		verifier  middleware.TokenVerifier
		healthDep = map[string]health.Pinger{}
		deps      = startup.NewStartup(a.logger, cfg.StartupMaxAttempts)
	)

	registryNeeds := []string{}
	if cfg.RegistrySource == "postgres" {
		registryNeeds = append(registryNeeds, "database")
		deps.AddDependency(startup.Func{
			Name: "database",
			StartFunc: func(ctx context.Context) error {
				instance, err := a.connectDatabase(ctx)
				if err != nil {
					return err
				}
				if migrate {
					if err := a.migrations().Migrate(cfg.DatabaseName, instance); err != nil {
						_ = instance.Close()
						return err
					}
				}
				db = instance
				healthDep["database"] = health.PingFunc(instance.PingContext)
				return nil
			},
			StopFunc: func(context.Context) error { return db.Close() },
		})
	}

	deps.AddDependency(startup.Func{
		Name:  "registry",
		Needs: registryNeeds,
		StartFunc: func(ctx context.Context) error {
			var conn database.DB
			if db != nil {
				conn = db
			}
			provider, err := a.registryProvider(conn)
			if err != nil {
				return err
			}
			store = registry.NewStore(a.logger, provider, cfg.RegistryRefreshInterval)
			_, err = store.Refresh(ctx)
			return err
		},
	})

	if cfg.EnrichmentEnabled && cfg.EnrichmentCache == "redis" {
		deps.AddDependency(startup.Func{
			Name: "redis",
			StartFunc: func(ctx context.Context) error {
				client := a.newRedis()
				if err := client.Ping(ctx).Err(); err != nil {
					_ = client.Close()
					return err
				}
				rdb = client
				healthDep["redis"] = health.PingFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() })
				return nil
			},
			StopFunc: func(context.Context) error { return rdb.Close() },
		})
	}

	if cfg.KafkaEventsEnabled {
		deps.AddDependency(startup.Func{
			Name: "events",
			StartFunc: func(context.Context) error {
				producer = a.producer()
				return nil
			},
			StopFunc: func(context.Context) error { return producer.Close() },
		})
	}

	if cfg.AuthEnabled {
		deps.AddDependency(startup.Func{
			Name: "auth",
			StartFunc: func(ctx context.Context) error {
				v, err := middleware.NewOIDCVerifier(ctx, cfg.AuthIssuerURL, cfg.AuthClientID)
				if err != nil {
					return err
				}
				verifier = v
				return nil
			},
		})
	}

	if err := deps.Start(ctx); err != nil {
		_ = deps.Stop(context.Background())
		return err
	}

	var enricher pipeline.Enricher
	if cfg.EnrichmentEnabled {
		enricher = a.fetcher(a.enrichmentCache(rdb))
	}
	var publisher pipeline.Publisher
	if producer != nil {
		publisher = producer
	}
	runner := a.pipeline(enricher, publisher)

	if err := a.registerServices(runner, store); err != nil {
		_ = deps.Stop(context.Background())
		return err
	}

	srv := server.New(a.logger, server.Config{
		AppName:           cfg.AppName,
		Port:              cfg.Port,
		ReadTimeout:       seconds(cfg.HttpServerReadTimeoutSeconds),
		WriteTimeout:      seconds(cfg.HttpServerWriteTimeoutSeconds),
		IdleTimeout:       seconds(cfg.HttpServerIdleTimeoutSeconds),
		ReadHeaderTimeout: seconds(cfg.ReadHeaderTimeoutSeconds),
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
		AllowOrigins:      cfg.AllowOrigins,
		AllowMethods:      cfg.AllowMethods,
		ContainerID:       di.ContainerID,
	},
		health.NewChecker(store, version, healthDep),
		verifier,
		enrichment.Register,
		registryroutes.Register,
	)

	go store.Run(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err = <-errCh:
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		a.logger.WithError(shutdownErr).Error("HTTP server shutdown failed")
	}
	if stopErr := deps.Stop(shutdownCtx); stopErr != nil {
		a.logger.WithError(stopErr).Error("dependency shutdown failed")
	}
	if traceErr := shutdownTracing(shutdownCtx); traceErr != nil {
		a.logger.WithError(traceErr).Warn("tracer shutdown failed")
	}
	return err
}

// registerServices exposes the services route handlers resolve per request
func (a *app) registerServices(runner *pipeline.Pipeline, store *registry.Store) error {
	container, err := di.NewContainer(di.ContainerID, a.logger)
	if err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[ectologger.Logger](container, a.logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*pipeline.Pipeline](container, runner); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*registry.Store](container, store); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[enrichment.Options](container, enrichment.Options{
		MaxUploadBytes: int64(a.cfg.MaxUploadBytes),
	})
}
