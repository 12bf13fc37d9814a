// Package openai implements the model client port on the OpenAI chat API.
package openai

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	apperrors "github.com/alchemorsel/pipeline/pkg/errors"
	"go.uber.org/zap"
)

// Client implements outbound.ModelClient against the OpenAI API.
type Client struct {
	client    *openai.Client
	model     string
	maxTokens int
	logger    *zap.Logger
}

// New creates an OpenAI-backed model client.
func New(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if cfg.Model.OpenAIAPIKey == "" {
		return nil, apperrors.NewConfigurationError("openai api key is required")
	}
	maxTokens := cfg.Model.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &Client{
		client:    openai.NewClient(cfg.Model.OpenAIAPIKey),
		model:     cfg.Model.OpenAIModel,
		maxTokens: maxTokens,
		logger:    logger.Named("openai"),
	}, nil
}

// Complete sends one system+user exchange and returns the text content.
func (c *Client) Complete(ctx context.Context, system, prompt string, temperature float32) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", apperrors.NewSchemaFailureError("model returned no text content", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return apperrors.NewRateLimitedError("openai")
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return apperrors.NewExternalServiceError("openai", err)
		default:
			return apperrors.NewConfigurationError("openai API rejected the request: " + apiErr.Message)
		}
	}
	return apperrors.NewExternalServiceError("openai", err)
}

var _ outbound.ModelClient = (*Client)(nil)
