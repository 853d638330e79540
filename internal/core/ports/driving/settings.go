package driving

import "github.com/custodia-labs/auditrag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, with API keys resolved
	// from the environment when not configured.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single setting by dot-notation key and persists it.
	Set(key, value string) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// Validate checks the current settings can run the pipeline.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
