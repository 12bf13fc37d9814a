// Package search keeps the search index in step with the relational store
// and fronts query assembly for the CLI and the HTTP shim.
package search

import (
	"context"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
	"go.uber.org/zap"
)

// Service implements index sync and querying.
type Service struct {
	store     outbound.RecipeStore
	index     outbound.SearchIndex
	embedder  outbound.Embedder
	batchSize int
	logger    *zap.Logger
}

// NewService creates the search service. embedder may be nil; sync then
// indexes documents without vectors and semantic queries fail fast.
func NewService(store outbound.RecipeStore, index outbound.SearchIndex, embedder outbound.Embedder, batchSize int, logger *zap.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Service{
		store:     store,
		index:     index,
		embedder:  embedder,
		batchSize: batchSize,
		logger:    logger.Named("search"),
	}
}

// BatchSize exposes the configured sync batch size for workflow planning.
func (s *Service) BatchSize() int {
	return s.batchSize
}

// PrepareIndex creates or recreates the index before a sync run.
func (s *Service) PrepareIndex(ctx context.Context, recreate bool) error {
	if recreate {
		return s.index.RecreateIndex(ctx)
	}
	return s.index.EnsureIndex(ctx)
}

// SyncBatch embeds and indexes one page of recipes from the store. Returns
// the number of recipes fetched so callers know when pagination is done.
func (s *Service) SyncBatch(ctx context.Context, offset, limit int) (outbound.BulkReport, int, error) {
	if limit <= 0 {
		limit = s.batchSize
	}
	recipes, err := s.store.ListBatch(ctx, offset, limit)
	if err != nil {
		return outbound.BulkReport{}, 0, err
	}
	if len(recipes) == 0 {
		return outbound.BulkReport{}, 0, nil
	}

	for _, r := range recipes {
		s.attachEmbedding(ctx, r)
	}

	report, err := s.index.BulkUpsert(ctx, recipes)
	if err != nil {
		return report, len(recipes), err
	}
	s.logger.Debug("Sync batch indexed",
		zap.Int("offset", offset),
		zap.Int("fetched", len(recipes)),
		zap.Int("success", report.Success),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))
	return report, len(recipes), nil
}

// SyncAll walks the whole store and indexes every recipe.
func (s *Service) SyncAll(ctx context.Context, recreate bool) (outbound.BulkReport, error) {
	total := outbound.BulkReport{}
	if err := s.PrepareIndex(ctx, recreate); err != nil {
		return total, err
	}
	for offset := 0; ; offset += s.batchSize {
		report, fetched, err := s.SyncBatch(ctx, offset, s.batchSize)
		total.Success += report.Success
		total.Skipped += report.Skipped
		total.Failed += report.Failed
		if err != nil {
			return total, err
		}
		if fetched < s.batchSize {
			break
		}
	}
	s.logger.Info("Index sync finished",
		zap.Int("success", total.Success),
		zap.Int("skipped", total.Skipped),
		zap.Int("failed", total.Failed))
	return total, nil
}

// SyncOne re-indexes a single recipe by identifier.
func (s *Service) SyncOne(ctx context.Context, identifier string) (outbound.BulkReport, error) {
	r, _, err := s.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return outbound.BulkReport{}, err
	}
	s.attachEmbedding(ctx, r)
	return s.index.BulkUpsert(ctx, []*recipe.Recipe{r})
}

// EmbedOne computes and caches the embedding for one recipe.
func (s *Service) EmbedOne(ctx context.Context, identifier string) error {
	if s.embedder == nil {
		return apperrors.NewConfigurationError("no embedder configured")
	}
	r, _, err := s.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return err
	}
	vector, err := s.embedder.Embed(ctx, r.EmbeddingText())
	if err != nil {
		return apperrors.NewExternalServiceError("embedder", err)
	}
	return s.store.SaveEmbedding(ctx, identifier, vector)
}

// attachEmbedding ensures the recipe carries a vector before indexing.
// Best effort: failures leave the recipe vectorless and log at debug.
func (s *Service) attachEmbedding(ctx context.Context, r *recipe.Recipe) {
	if len(r.Embedding) == recipe.EmbeddingDim || s.embedder == nil {
		return
	}
	vector, err := s.embedder.Embed(ctx, r.EmbeddingText())
	if err != nil {
		s.logger.Debug("Embedding unavailable",
			zap.String("identifier", r.Identifier),
			zap.Error(err))
		return
	}
	r.Embedding = vector
	if err := s.store.SaveEmbedding(ctx, r.Identifier, vector); err != nil {
		s.logger.Debug("Embedding cache write failed",
			zap.String("identifier", r.Identifier),
			zap.Error(err))
	}
}

// Query runs one search. Semantic and hybrid modes embed the query text;
// when the embedder is down, hybrid degrades to text and semantic fails.
func (s *Service) Query(ctx context.Context, q outbound.SearchQuery) ([]outbound.SearchHit, error) {
	if (q.Mode == outbound.SearchModeSemantic || q.Mode == outbound.SearchModeHybrid) && len(q.Vector) == 0 {
		if s.embedder == nil {
			if q.Mode == outbound.SearchModeSemantic {
				return nil, apperrors.NewConfigurationError("semantic search requires an embedder")
			}
			q.Mode = outbound.SearchModeText
		} else {
			vector, err := s.embedder.Embed(ctx, q.Text)
			if err != nil {
				if q.Mode == outbound.SearchModeSemantic {
					return nil, apperrors.NewExternalServiceError("embedder", err)
				}
				s.logger.Warn("Hybrid query degraded to text mode", zap.Error(err))
				q.Mode = outbound.SearchModeText
			} else {
				q.Vector = vector
			}
		}
	}
	return s.index.Query(ctx, q)
}
