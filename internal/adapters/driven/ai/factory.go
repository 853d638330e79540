// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/auditrag/internal/adapters/driven/embedding/cache"
	lcembed "github.com/custodia-labs/auditrag/internal/adapters/driven/embedding/langchain"
	openaiembed "github.com/custodia-labs/auditrag/internal/adapters/driven/embedding/openai"
	lcllm "github.com/custodia-labs/auditrag/internal/adapters/driven/llm/langchain"
	openaillm "github.com/custodia-labs/auditrag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the AI services a run needs.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases all resources held by Services.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// NewServices creates both AI services from settings without pinging them.
// A missing configuration is reported as ErrEmbeddingUnavailable or ErrLLMUnavailable.
func NewServices(settings *domain.AppSettings) (*Services, error) {
	embedding, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'auditrag settings' to fix", domain.ErrEmbeddingUnavailable, err)
	}
	if embedding == nil {
		return nil, fmt.Errorf("%w: provider %q is not configured", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}

	llm, err := CreateLLMService(&settings.LLM)
	if err != nil {
		embedding.Close()
		return nil, fmt.Errorf("%w: %w. Run 'auditrag settings' to fix", domain.ErrLLMUnavailable, err)
	}
	if llm == nil {
		embedding.Close()
		return nil, fmt.Errorf("%w: provider %q is not configured", domain.ErrLLMUnavailable, settings.LLM.Provider)
	}

	return &Services{Embedding: embedding, LLM: llm}, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service for settings, wrapped
// with rate limiting and caching when configured.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider.IsValid() && !settings.Provider.SupportsEmbeddings() {
		return nil, fmt.Errorf("%s does not support embeddings, use %s", settings.Provider, embeddingProviderNames())
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOpenAI:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderOllama:
		svc, err = lcembed.NewOllama(lcembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderGoogleAI:
		svc, err = lcembed.NewGoogleAI(context.Background(), lcembed.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}

	svc = WithEmbeddingRateLimit(svc, settings.RequestsPerSecond)
	if settings.CacheSize > 0 {
		cached, err := cache.New(svc, settings.CacheSize)
		if err != nil {
			svc.Close()
			return nil, err
		}
		svc = cached
	}
	return svc, nil
}

// CreateLLMService creates the LLM service for settings, wrapped with rate
// limiting when configured.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOpenAI, domain.AIProviderGroq:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = domain.DefaultBaseURLs()[settings.Provider]
		}
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: baseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderOllama:
		svc, err = lcllm.NewOllama(lcllm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderAnthropic:
		svc, err = lcllm.NewAnthropic(lcllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderGoogleAI:
		svc, err = lcllm.NewGoogleAI(context.Background(), lcllm.Config{
			APIKey: settings.APIKey,
			Model:  settings.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithLLMRateLimit(svc, settings.RequestsPerSecond), nil
}

func embeddingProviderNames() string {
	var names string
	for i, p := range domain.AllEmbeddingProviders() {
		if i > 0 {
			names += ", "
		}
		names += p.String()
	}
	return names
}
