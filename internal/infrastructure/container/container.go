// Package container wires the pipeline's dependency graph with Uber FX.
package container

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appfeed "github.com/alchemorsel/pipeline/internal/application/feed"
	"github.com/alchemorsel/pipeline/internal/application/ingest"
	"github.com/alchemorsel/pipeline/internal/application/loader"
	appsearch "github.com/alchemorsel/pipeline/internal/application/search"
	"github.com/alchemorsel/pipeline/internal/infrastructure/ai"
	"github.com/alchemorsel/pipeline/internal/infrastructure/cache"
	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	"github.com/alchemorsel/pipeline/internal/infrastructure/embedding"
	feedinfra "github.com/alchemorsel/pipeline/internal/infrastructure/feed"
	"github.com/alchemorsel/pipeline/internal/infrastructure/messaging/kafka"
	"github.com/alchemorsel/pipeline/internal/infrastructure/monitoring"
	gormstore "github.com/alchemorsel/pipeline/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/pipeline/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/pipeline/internal/infrastructure/persistence/postgres"
	"github.com/alchemorsel/pipeline/internal/infrastructure/search/elastic"
	"github.com/alchemorsel/pipeline/internal/infrastructure/staging"
	"github.com/alchemorsel/pipeline/internal/orchestration"
	"github.com/alchemorsel/pipeline/internal/parser"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	"github.com/alchemorsel/pipeline/pkg/logger"
)

// Module provides the full pipeline dependency graph.
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	DatabaseModule,
	AdapterModule,
	ParserModule,
	ServiceModule,
	OrchestrationModule,
)

// ConfigModule provides configuration.
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging.
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.Log.Level,
			Format:      cfg.Log.Format,
			Development: cfg.IsDevelopment(),
		})
	},
)

// DatabaseModule provides the relational store connection with migrations
// applied.
var DatabaseModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		db, err := postgres.Connect(cfg, log)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := migrations.Run(db, log); err != nil {
				return nil, err
			}
		}
		return db, nil
	},
)

// AdapterModule provides every outbound adapter.
var AdapterModule = fx.Provide(
	gormstore.NewRecipeStore,
	elastic.New,
	func(cfg *config.Config, log *zap.Logger) outbound.Embedder {
		return embedding.NewOllama(cfg, log)
	},
	func(cfg *config.Config, log *zap.Logger) (outbound.StagingStore, error) {
		return staging.New(cfg.Staging.Dir, log)
	},
	func(cfg *config.Config, log *zap.Logger) outbound.ModelClient {
		client, err := ai.NewModelClient(cfg, log)
		if err != nil {
			log.Warn("Model provider unavailable, parsing stays local", zap.Error(err))
			return nil
		}
		return client
	},
	func(cfg *config.Config, log *zap.Logger) outbound.FeedSource {
		return feedinfra.NewRedditSource(cfg, log)
	},
	func(cfg *config.Config, log *zap.Logger) outbound.SeenSet {
		return cache.NewSeenSet(cfg, log)
	},
	func(cfg *config.Config, log *zap.Logger) outbound.BusProducer {
		return kafka.NewProducer(cfg, log)
	},
	kafka.NewConsumer,
	monitoring.New,
)

// ParserModule provides the two parsing tracks.
var ParserModule = fx.Provide(
	parser.NewLocal,
	func(cfg *config.Config, client outbound.ModelClient, local *parser.Local, log *zap.Logger) *parser.Model {
		if client == nil {
			return nil
		}
		return parser.NewModel(client, local, cfg.Model.RequestsPerSecond, log)
	},
)

// ServiceModule provides the application services.
var ServiceModule = fx.Provide(
	ingest.NewService,
	loader.NewService,
	func(cfg *config.Config, store outbound.RecipeStore, index outbound.SearchIndex, embedder outbound.Embedder, log *zap.Logger) *appsearch.Service {
		return appsearch.NewService(store, index, embedder, cfg.Search.BatchSize, log)
	},
	func(cfg *config.Config, source outbound.FeedSource, seen outbound.SeenSet, producer outbound.BusProducer, log *zap.Logger) *appfeed.Service {
		return appfeed.NewService(source, seen, producer, cfg.Feed.Source, cfg.Feed.Limit, cfg.Feed.CSVSinkPath, log)
	},
)

// OrchestrationModule provides the workflow client and activity bundle.
var OrchestrationModule = fx.Provide(
	orchestration.NewClient,
	func(ingestSvc *ingest.Service, loaderSvc *loader.Service, searchSvc *appsearch.Service, feedSvc *appfeed.Service, consumer *kafka.Consumer, metrics *monitoring.Metrics, log *zap.Logger) *orchestration.Activities {
		return &orchestration.Activities{
			Ingest:   ingestSvc,
			Loader:   loaderSvc,
			Search:   searchSvc,
			Feed:     feedSvc,
			Consumer: consumer,
			Metrics:  metrics,
			Logger:   log,
		}
	},
)

// FlushLogs registers a shutdown hook that syncs the logger.
func FlushLogs(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = log.Sync()
			return nil
		},
	})
}
