// Package anthropic implements the model client port on Claude.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	"go.uber.org/zap"
)

// Client implements outbound.ModelClient against the Anthropic API.
type Client struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	logger    *zap.Logger
}

// New creates a Claude-backed model client.
func New(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if cfg.Model.AnthropicAPIKey == "" {
		return nil, apperrors.NewConfigurationError("anthropic api key is required")
	}
	maxTokens := cfg.Model.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &Client{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.Model.AnthropicAPIKey)),
		model:     anthropic.Model(cfg.Model.AnthropicModel),
		maxTokens: int64(maxTokens),
		logger:    logger.Named("anthropic"),
	}, nil
}

// Complete sends one system+user exchange and returns the text content.
func (c *Client) Complete(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(float64(temperature)),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(prompt),
				},
			},
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", classifyError(err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", apperrors.NewSchemaFailureError("model returned no text content", nil)
	}
	return text, nil
}

// classifyError maps API failures onto retryable and terminal error codes so
// the workflow retry policy can act on them.
func classifyError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return apperrors.NewRateLimitedError("anthropic")
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return apperrors.NewExternalServiceError("anthropic", err)
		default:
			return apperrors.NewConfigurationError(fmt.Sprintf("anthropic API rejected the request: %v", err))
		}
	}
	return apperrors.NewExternalServiceError("anthropic", err)
}

var _ outbound.ModelClient = (*Client)(nil)
