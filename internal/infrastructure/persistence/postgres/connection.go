// Package postgres provides the PostgreSQL connection for the recipe store
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	"github.com/jackc/pgx/v5/stdlib"

	pgxpkg "github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the primary database connection through the pgx stdlib
// driver and hands it to GORM, with the pool sized from configuration.
func Connect(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	pgxCfg, err := pgxpkg.ParseConfig(cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}
	sqlDB := stdlib.OpenDB(*pgxCfg)

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormLogLevel := logger.Error
	if cfg.IsDevelopment() {
		gormLogLevel = logger.Warn
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(gormLogLevel),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	log.Info("Database connection established",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns))

	return db, nil
}
