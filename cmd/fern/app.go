package main

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/repositories/registryrecord"
	"github.com/Ramsey-B/fern/pkg/enrichment"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/httpclient"
	"github.com/Ramsey-B/fern/pkg/logging"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/pipeline"
	"github.com/Ramsey-B/fern/pkg/registry"
)

// app carries the config and logger every command starts from
type app struct {
	cfg    *config.Config
	logger ectologger.Logger
	zap    *zap.Logger
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, zapLogger, err := logging.New(logging.Options{
		AppName: cfg.AppName,
		Level:   cfg.LogLevel,
		Pretty:  cfg.PrettyLogs,
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, zap: zapLogger}, nil
}

func (a *app) close() {
	_ = a.zap.Sync()
}

func (a *app) connectDatabase(ctx context.Context) (*database.DatabaseInstance, error) {
	return database.Connect(ctx, a.logger, database.PoolConfig{
		Driver:          a.cfg.DatabaseDriver,
		DSN:             a.cfg.DatabaseDSN(),
		MaxOpenConns:    a.cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    a.cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: a.cfg.DatabaseConnMaxLifetime,
	})
}

func (a *app) migrations() *database.MigrationService {
	return database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: a.cfg.DatabaseMigrationFolderPath,
		Version:             uint(a.cfg.DatabaseMigrationVersion),
		Force:               a.cfg.DatabaseMigrationForce,
		AutoRollback:        a.cfg.DatabaseMigrationAutoRollback,
	})
}

func (a *app) registryColumns() registry.Columns {
	return registry.Columns{
		Identifier: a.cfg.RegistryIdentifierColumn,
		Category:   a.cfg.RegistryCategoryColumn,
		Revenue:    a.cfg.RegistryRevenueColumn,
		Income:     a.cfg.RegistryIncomeColumn,
		Assets:     a.cfg.RegistryAssetsColumn,
	}
}

func (a *app) directoryProvider(dir string) *registry.DirectoryProvider {
	detector := matching.ReferenceFieldDetector(matching.NewScorer(), a.cfg.MatchColumnThreshold)
	return registry.NewDirectoryProvider(a.logger, dir, a.registryColumns(), detector)
}

// registryProvider picks the configured registry source. db is only used for postgres.
func (a *app) registryProvider(db database.DB) (registry.Provider, error) {
	switch a.cfg.RegistrySource {
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("registry source postgres needs a database connection")
		}
		return registry.NewPostgresProvider(a.logger, registryrecord.NewRepository(db, a.logger)), nil
	default:
		return a.directoryProvider(a.cfg.RegistryDir), nil
	}
}

func (a *app) newRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
}

// enrichmentCache builds the configured cache. rdb is only used for redis.
func (a *app) enrichmentCache(rdb redis.Cmdable) enrichment.Cache {
	switch a.cfg.EnrichmentCache {
	case "redis":
		return enrichment.NewRedisCache(rdb, a.cfg.EnrichmentCacheTTL)
	case "memory":
		return enrichment.NewMemoryCache(enrichment.MemoryCacheConfig{
			MaxSize: a.cfg.EnrichmentCacheMaxSize,
			TTL:     a.cfg.EnrichmentCacheTTL,
		})
	}
	return nil
}

func (a *app) fetcher(cache enrichment.Cache) *enrichment.Fetcher {
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = a.cfg.EnrichmentRequestTimeout
	clientCfg.MaxResponseSize = int64(a.cfg.EnrichmentMaxResponseSize)
	clientCfg.MaxConnsPerHost = a.cfg.EnrichmentMaxConcurrency

	return enrichment.NewFetcher(enrichment.Config{
		BaseURL:        a.cfg.EnrichmentBaseURL,
		FilingBaseURL:  a.cfg.EnrichmentFilingBaseURL,
		MaxConcurrency: a.cfg.EnrichmentMaxConcurrency,
		RequestTimeout: a.cfg.EnrichmentRequestTimeout,
		RateLimit:      a.cfg.EnrichmentRateLimitRPS,
		RateBurst:      a.cfg.EnrichmentRateLimitBurst,
	}, httpclient.NewClient(clientCfg, a.logger), cache, a.logger)
}

func (a *app) producer() *events.Producer {
	return events.NewProducer(events.ProducerConfig{
		Brokers:      a.cfg.KafkaBrokers,
		Topic:        a.cfg.KafkaOutputTopic,
		BatchSize:    a.cfg.KafkaBatchSize,
		BatchTimeout: msDuration(a.cfg.KafkaBatchTimeout),
		RequiredAcks: a.cfg.KafkaRequiredAcks,
		Compression:  a.cfg.KafkaCompression,
	}, a.logger)
}

// pipeline builds a pipeline; a nil enricher or publisher leaves that stage out
func (a *app) pipeline(enricher pipeline.Enricher, publisher pipeline.Publisher) *pipeline.Pipeline {
	var opts []pipeline.Option
	if enricher != nil {
		opts = append(opts, pipeline.WithEnricher(enricher))
	}
	if publisher != nil {
		opts = append(opts, pipeline.WithPublisher(publisher))
	}

	return pipeline.NewPipeline(a.logger, pipeline.Config{
		ColumnThreshold:  a.cfg.MatchColumnThreshold,
		FuzzyEnabled:     a.cfg.MatchFuzzyEnabled,
		FuzzyThreshold:   a.cfg.MatchFuzzyThreshold,
		IdentifierColumn: a.cfg.OutputIdentifierColumn,
	}, opts...)
}
