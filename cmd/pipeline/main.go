// Package main is the pipeline operator CLI. Batch processing, folder
// loads, and index syncs run as durable workflows; lookups and stats talk
// to the store directly.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	temporalclient "go.temporal.io/sdk/client"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appsearch "github.com/alchemorsel/pipeline/internal/application/search"
	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	"github.com/alchemorsel/pipeline/internal/infrastructure/embedding"
	gormstore "github.com/alchemorsel/pipeline/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/pipeline/internal/infrastructure/persistence/migrations"
	"github.com/alchemorsel/pipeline/internal/infrastructure/persistence/postgres"
	"github.com/alchemorsel/pipeline/internal/infrastructure/search/elastic"
	"github.com/alchemorsel/pipeline/internal/orchestration"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
	"github.com/alchemorsel/pipeline/pkg/logger"
)

// app lazily wires the dependencies each command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	db       *gorm.DB
	store    outbound.RecipeStore
	index    outbound.SearchIndex
	temporal temporalclient.Client
}

var configPath string

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: log}, nil
}

func (a *app) recipeStore() (outbound.RecipeStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	db, err := postgres.Connect(a.cfg, a.logger)
	if err != nil {
		return nil, apperrors.NewServiceUnavailableError("database", err)
	}
	if a.cfg.Database.AutoMigrate {
		if err := migrations.Run(db, a.logger); err != nil {
			return nil, err
		}
	}
	a.db = db
	a.store = gormstore.NewRecipeStore(db, a.logger)
	return a.store, nil
}

func (a *app) searchIndex() (outbound.SearchIndex, error) {
	if a.index != nil {
		return a.index, nil
	}
	index, err := elastic.New(a.cfg, a.logger)
	if err != nil {
		return nil, apperrors.NewServiceUnavailableError("search", err)
	}
	a.index = index
	return a.index, nil
}

func (a *app) searchService() (*appsearch.Service, error) {
	store, err := a.recipeStore()
	if err != nil {
		return nil, err
	}
	index, err := a.searchIndex()
	if err != nil {
		return nil, err
	}
	embedder := embedding.NewOllama(a.cfg, a.logger)
	return appsearch.NewService(store, index, embedder, a.cfg.Search.BatchSize, a.logger), nil
}

func (a *app) workflowClient() (temporalclient.Client, error) {
	if a.temporal != nil {
		return a.temporal, nil
	}
	c, err := orchestration.NewClient(a.cfg)
	if err != nil {
		return nil, apperrors.NewServiceUnavailableError("workflow engine", err)
	}
	a.temporal = c
	return a.temporal, nil
}

func (a *app) close() {
	if a.temporal != nil {
		a.temporal.Close()
	}
	_ = a.logger.Sync()
}

// printJSON writes a result to stdout for operators and scripts alike.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// exitCodeFor maps an error onto the CLI contract: 0 success, 1 failure,
// 2 validation rejection, 3 dependency unavailable.
func exitCodeFor(err error) int {
	if err == nil {
		return apperrors.ExitOK
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode()
	}
	return apperrors.ExitFailure
}

func main() {
	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "Recipe ingestion and enrichment pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(
		newProcessBatchCmd(),
		newLoadFolderCmd(),
		newSyncSearchCmd(),
		newReloadRecipeCmd(),
		newGetCmd(),
		newSearchCmd(),
		newStatsCmd(),
		newScrapeFeedCmd(),
		newScheduleCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCodeFor(err))
	}
}
