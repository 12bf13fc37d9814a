// Package ai wires the configured language-model provider.
package ai

import (
	"github.com/alchemorsel/pipeline/internal/infrastructure/ai/anthropic"
	"github.com/alchemorsel/pipeline/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
	"go.uber.org/zap"
)

// NewModelClient returns the model client for the configured provider.
// Provider "none" returns nil; callers then run the local parser only.
func NewModelClient(cfg *config.Config, logger *zap.Logger) (outbound.ModelClient, error) {
	switch cfg.Model.Provider {
	case "anthropic":
		return anthropic.New(cfg, logger)
	case "openai":
		return openai.New(cfg, logger)
	case "none":
		return nil, nil
	default:
		return nil, apperrors.NewConfigurationError("unknown model provider " + cfg.Model.Provider)
	}
}
