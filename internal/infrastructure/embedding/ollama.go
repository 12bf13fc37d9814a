// Package embedding produces sentence vectors through a local Ollama server.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alchemorsel/pipeline/internal/infrastructure/config"
	"github.com/alchemorsel/pipeline/internal/ports/outbound"
	"go.uber.org/zap"
)

// OllamaEmbedder implements outbound.Embedder against the Ollama HTTP API.
type OllamaEmbedder struct {
	host      string
	model     string
	dimension int
	client    *http.Client
	logger    *zap.Logger
}

// NewOllama creates the embedder adapter.
func NewOllama(cfg *config.Config, logger *zap.Logger) outbound.Embedder {
	timeout := cfg.Embedding.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaEmbedder{
		host:      cfg.Embedding.Host,
		model:     cfg.Embedding.Model,
		dimension: cfg.Embedding.Dimension,
		client:    &http.Client{Timeout: timeout},
		logger:    logger.Named("embedder"),
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed encodes one text into a fixed-dimension vector. Callers treat an
// error as "no embedding available", not as a pipeline failure.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	payload, err := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.host+"/api/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding server returned status %d", resp.StatusCode)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}

	if len(out.Embedding) != e.dimension {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(out.Embedding), e.dimension)
	}

	vector := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vector[i] = float32(v)
	}
	return vector, nil
}

// HealthCheck verifies the server is reachable and answering.
func (e *OllamaEmbedder) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.host+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("embedding server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding server returned status %d", resp.StatusCode)
	}
	return nil
}
