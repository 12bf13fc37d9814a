// Package main runs the pipeline worker: it hosts every workflow and
// activity on the task queue and serves the metrics endpoint.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	"github.com/alchemorsel/pipeline/internal/infrastructure/container"
	"github.com/alchemorsel/pipeline/internal/infrastructure/monitoring"
	"github.com/alchemorsel/pipeline/internal/orchestration"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
	"github.com/alchemorsel/pipeline/pkg/healthcheck"
)

func main() {
	app := fx.New(
		fx.NopLogger,
		container.Module,
		fx.Invoke(container.FlushLogs),
		fx.Invoke(runWorker),
		fx.Invoke(serveMetrics),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Printf("failed to start worker: %v", err)
		os.Exit(apperrors.ExitUnavailable)
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := app.Stop(shutdownCtx); err != nil {
		log.Printf("failed to stop worker: %v", err)
		os.Exit(apperrors.ExitFailure)
	}
}

// runWorker gates startup on dependency health, then runs the worker for
// the lifetime of the process.
func runWorker(
	lc fx.Lifecycle,
	cfg *config.Config,
	logger *zap.Logger,
	c client.Client,
	activities *orchestration.Activities,
	db *gorm.DB,
	index outbound.SearchIndex,
	store outbound.RecipeStore,
) {
	checker := healthcheck.New(5*time.Second, logger,
		healthcheck.Check{Name: "database", Probe: store.HealthCheck},
		healthcheck.Check{Name: "search", Probe: index.HealthCheck},
	)

	w := orchestration.NewWorker(c, cfg, activities)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			report := checker.Run(ctx)
			if report.Status != healthcheck.StatusHealthy {
				return apperrors.NewServiceUnavailableError("pipeline dependencies", nil)
			}
			logger.Info("Worker starting",
				zap.String("task_queue", cfg.Temporal.TaskQueue),
				zap.Int("max_concurrent_activities", cfg.Worker.MaxConcurrentActivities))
			return w.Start()
		},
		OnStop: func(ctx context.Context) error {
			w.Stop()
			c.Close()
			return nil
		},
	})
}

func serveMetrics(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger, metrics *monitoring.Metrics) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := metrics.Serve(cfg.App.MetricsPort, logger); err != nil {
					logger.Warn("Metrics endpoint stopped", zap.Error(err))
				}
			}()
			return nil
		},
	})
}
