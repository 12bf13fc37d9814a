// Package loader moves staged recipe JSON into the relational store.
package loader

import (
	"context"
	"time"

	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
	"go.uber.org/zap"
)

// Outcome classifies one load attempt.
type Outcome string

const (
	OutcomeInserted       Outcome = "inserted"
	OutcomeAlreadyExisted Outcome = "already_existed"
	OutcomeSkipped        Outcome = "skipped"
	OutcomeFailed         Outcome = "failed"
)

// LoadResult reports one staged file's load.
type LoadResult struct {
	Identifier string  `json:"identifier"`
	PrimaryKey int64   `json:"primary_key"`
	Outcome    Outcome `json:"outcome"`
	Reason     string  `json:"reason,omitempty"`
}

// Summary aggregates a load run.
type Summary struct {
	Attempted      int           `json:"attempted"`
	Inserted       int           `json:"inserted"`
	AlreadyExisted int           `json:"already_existed"`
	Failed         int           `json:"failed"`
	Skipped        int           `json:"skipped"`
	Elapsed        time.Duration `json:"elapsed"`
}

// Add folds one result into the summary.
func (s *Summary) Add(result LoadResult) {
	s.Attempted++
	switch result.Outcome {
	case OutcomeInserted:
		s.Inserted++
	case OutcomeAlreadyExisted:
		s.AlreadyExisted++
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}

// Service runs the load phase.
type Service struct {
	store   outbound.RecipeStore
	staging outbound.StagingStore
	logger  *zap.Logger
}

// NewService creates the loader service.
func NewService(store outbound.RecipeStore, staging outbound.StagingStore, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		staging: staging,
		logger:  logger.Named("loader"),
	}
}

// LoadOne reads one staged file and inserts it. Validation rejections are
// reported as skipped, transient store failures as an error for the caller's
// retry policy; the file itself is never modified.
func (s *Service) LoadOne(ctx context.Context, path string) (LoadResult, error) {
	r, err := s.staging.Read(ctx, path)
	if err != nil {
		return LoadResult{Outcome: OutcomeFailed, Reason: err.Error()}, err
	}

	result, err := s.store.Create(ctx, r)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeValidationFailed) {
			s.logger.Warn("Staged recipe rejected",
				zap.String("identifier", r.Identifier),
				zap.Error(err))
			return LoadResult{Identifier: r.Identifier, Outcome: OutcomeSkipped, Reason: err.Error()}, nil
		}
		return LoadResult{Identifier: r.Identifier, Outcome: OutcomeFailed, Reason: err.Error()}, err
	}

	outcome := OutcomeInserted
	if result.AlreadyExisted {
		outcome = OutcomeAlreadyExisted
	}
	s.logger.Debug("Staged recipe loaded",
		zap.String("identifier", result.Identifier),
		zap.Int64("primary_key", result.PrimaryKey),
		zap.String("outcome", string(outcome)))
	return LoadResult{
		Identifier: result.Identifier,
		PrimaryKey: result.PrimaryKey,
		Outcome:    outcome,
	}, nil
}

// ListStaged returns staged file paths for workflow fan-out.
func (s *Service) ListStaged(ctx context.Context) ([]string, error) {
	return s.staging.List(ctx)
}

// LoadFolder loads every staged file under the staging directory in order.
// Per-file failures are counted, not fatal.
func (s *Service) LoadFolder(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{}

	paths, err := s.staging.List(ctx)
	if err != nil {
		return summary, err
	}
	for _, path := range paths {
		result, err := s.LoadOne(ctx, path)
		if err != nil && result.Outcome == OutcomeFailed {
			s.logger.Warn("Load failed", zap.String("path", path), zap.Error(err))
		}
		summary.Add(result)
	}

	summary.Elapsed = time.Since(start)
	s.logger.Info("Load run finished",
		zap.Int("attempted", summary.Attempted),
		zap.Int("inserted", summary.Inserted),
		zap.Int("already_existed", summary.AlreadyExisted),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("elapsed", summary.Elapsed))
	return summary, nil
}
