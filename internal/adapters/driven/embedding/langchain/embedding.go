// Package langchain provides embedding service adapters backed by langchaingo
// embedders: Ollama and Google AI.
package langchain

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultOllamaURL = "http://localhost:11434"
	DefaultBatchSize = 64
)

// Config holds provider configuration.
type Config struct {
	// APIKey is required for Google AI.
	APIKey string

	// BaseURL overrides the Ollama server URL.
	BaseURL string

	// Model is the embedding model name.
	Model string

	// BatchSize caps the texts sent per provider request (default: 64).
	BatchSize int
}

// EmbeddingService adapts a langchaingo embedder to driven.EmbeddingService.
// The vector size is learned from the first response.
type EmbeddingService struct {
	embedder embeddings.Embedder
	client   any
	model    string

	mu         sync.RWMutex
	dimensions int
}

// New wraps an embedding client such as an Ollama or Google AI model.
func New(client embeddings.EmbedderClient, model string, batchSize int) (*EmbeddingService, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(batchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return &EmbeddingService{embedder: embedder, client: client, model: model}, nil
}

// NewOllama creates an embedding service for a local Ollama server.
func NewOllama(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	client, err := ollama.New(ollama.WithModel(cfg.Model), ollama.WithServerURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	return New(client, cfg.Model, cfg.BatchSize)
}

// NewGoogleAI creates an embedding service for the Google Generative AI API.
func NewGoogleAI(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("googleai: API key is required")
	}
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("googleai: %w", err)
	}
	return New(client, cfg.Model, cfg.BatchSize)
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := s.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.model, err)
	}
	s.learn(vector)
	return vector, nil
}

// EmbedBatch generates embeddings for multiple texts in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.model, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%s: received %d embeddings for %d texts", s.model, len(vectors), len(texts))
	}
	if len(vectors) > 0 {
		s.learn(vectors[0])
	}
	return vectors, nil
}

func (s *EmbeddingService) learn(vector []float32) {
	if len(vector) == 0 {
		return
	}
	s.mu.Lock()
	if s.dimensions == 0 {
		s.dimensions = len(vector)
	}
	s.mu.Unlock()
}

// Dimensions returns the embedding vector size, or 0 before the first call.
func (s *EmbeddingService) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service by embedding a short probe text.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying client if it holds resources.
func (s *EmbeddingService) Close() error {
	if c, ok := s.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
