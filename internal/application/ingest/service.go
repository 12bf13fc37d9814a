// Package ingest turns raw feed text into staged recipe JSON.
// One staged file per identifier; re-running an extract over the same input
// is a no-op for identifiers that are already staged.
package ingest

import (
	"context"

	"github.com/alchemorsel/pipeline/internal/domain/recipe"
	"github.com/alchemorsel/pipeline/internal/parser"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
	"go.uber.org/zap"
)

// ExtractResult reports where one recipe was staged.
type ExtractResult struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Path       string `json:"path"`
	Created    bool   `json:"created"`
	UsedModel  bool   `json:"used_model"`
}

// Service runs the parse-and-stage phase.
type Service struct {
	local   *parser.Local
	model   *parser.Model
	staging outbound.StagingStore
	logger  *zap.Logger
}

// NewService creates the ingest service. model may be nil; extraction then
// always uses the local parser regardless of the useModel flag.
func NewService(local *parser.Local, model *parser.Model, staging outbound.StagingStore, logger *zap.Logger) *Service {
	return &Service{
		local:   local,
		model:   model,
		staging: staging,
		logger:  logger.Named("ingest"),
	}
}

// ExtractOne parses one feed event and stages the result. Unparseable or
// invalid recipes return a validation error; callers treat that as a
// permanent skip, not a retryable failure.
func (s *Service) ExtractOne(ctx context.Context, event outbound.FeedEvent, useModel bool) (ExtractResult, error) {
	var (
		r   *recipe.Recipe
		err error
	)
	usedModel := useModel && s.model != nil
	if usedModel {
		r, err = s.model.Parse(ctx, event.Text)
		if err != nil {
			return ExtractResult{}, err
		}
	} else {
		r = s.local.Parse(event.Text)
		parser.Repair(r)
	}

	// The post title is authoritative; parsed titles only fill its absence.
	if event.Title != "" {
		r.Title = event.Title
	}
	r.SourcePostID = event.PostID
	r.SourceAuthor = event.Author
	r.SourceURL = event.URL
	if event.NumComments > 0 {
		n := event.NumComments
		r.SourceCommentsCount = &n
	}
	r.Normalize()
	r.Identifier = recipe.Identifier(r.Title, r.SourceHint()).String()

	if err := r.Validate(); err != nil {
		return ExtractResult{}, apperrors.NewValidationError(err.Error()).
			WithMetadata("title", r.Title)
	}

	path, created, err := s.staging.Write(ctx, r)
	if err != nil {
		return ExtractResult{}, err
	}

	s.logger.Info("Recipe extracted",
		zap.String("identifier", r.Identifier),
		zap.String("title", r.Title),
		zap.Bool("created", created),
		zap.Bool("used_model", usedModel))
	return ExtractResult{
		Identifier: r.Identifier,
		Title:      r.Title,
		Path:       path,
		Created:    created,
		UsedModel:  usedModel,
	}, nil
}
