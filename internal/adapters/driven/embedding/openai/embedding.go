// Package openai provides an embedding service adapter using the OpenAI API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions overrides the default dimension for the model.
	// Only applicable to text-embedding-3-* models.
	Dimensions int
}

// EmbeddingService generates embeddings using the OpenAI API.
type EmbeddingService struct {
	client     *goopenai.Client
	model      string
	dimensions int
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		dimensions, ok = modelDimensions[cfg.Model]
		if !ok {
			dimensions = 1536 // Default fallback
		}
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &EmbeddingService{
		client:     goopenai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("openai: no embedding returned")
	}
	return embeddings[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
// Results are ordered to match texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(s.model),
		Input: texts,
	}
	// Only text-embedding-3-* models accept a dimensions override.
	if s.model == "text-embedding-3-small" || s.model == "text-embedding-3-large" {
		req.Dimensions = s.dimensions
	}

	resp, err := s.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, classify(err)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", data.Index)
		}
		embedding := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			embedding[i] = float32(v)
		}
		embeddings[data.Index] = embedding
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models, without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", classify(err))
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// classify marks client errors other than rate limiting and timeouts as invalid input.
func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 &&
		apiErr.HTTPStatusCode != http.StatusTooManyRequests && apiErr.HTTPStatusCode != http.StatusRequestTimeout {
		return fmt.Errorf("%w: openai: %w", domain.ErrInvalidInput, err)
	}
	return fmt.Errorf("openai: %w", err)
}
