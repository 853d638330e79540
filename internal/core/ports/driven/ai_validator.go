package driven

import "github.com/custodia-labs/auditrag/internal/core/domain"

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM validates an LLM configuration by pinging the provider.
	ValidateLLM(config *domain.LLMSettings) error
}
