// Package main runs the read-side query API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/alchemorsel/pipeline/internal/infrastructure/container"
	pipelinehttp "github.com/alchemorsel/pipeline/internal/infrastructure/http"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
	"github.com/alchemorsel/pipeline/pkg/healthcheck"
)

func main() {
	app := fx.New(
		fx.NopLogger,
		container.Module,
		fx.Provide(newChecker, pipelinehttp.NewServer),
		fx.Invoke(container.FlushLogs),
		fx.Invoke(serveAPI),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Printf("failed to start api: %v", err)
		os.Exit(apperrors.ExitUnavailable)
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := app.Stop(shutdownCtx); err != nil {
		log.Printf("failed to stop api: %v", err)
		os.Exit(apperrors.ExitFailure)
	}
}

func newChecker(store outbound.RecipeStore, index outbound.SearchIndex, logger *zap.Logger) *healthcheck.Checker {
	return healthcheck.New(5*time.Second, logger,
		healthcheck.Check{Name: "database", Probe: store.HealthCheck},
		healthcheck.Check{Name: "search", Probe: index.HealthCheck},
	)
}

func serveAPI(lc fx.Lifecycle, server *pipelinehttp.Server, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := server.ListenAndServe(); err != nil {
					logger.Warn("Query API stopped", zap.Error(err))
				}
			}()
			return nil
		},
	})
}
