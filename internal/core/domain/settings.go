package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGroq is the Groq cloud API (OpenAI-compatible).
	AIProviderGroq AIProvider = "groq"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGoogleAI is the Google Generative AI API.
	AIProviderGoogleAI AIProvider = "googleai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderGroq, AIProviderAnthropic, AIProviderGoogleAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p.IsValid() && !p.IsLocal()
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsEmbeddings returns true if the provider offers an embedding API.
func (p AIProvider) SupportsEmbeddings() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderGoogleAI:
		return true
	default:
		return false
	}
}

// APIKeyEnv returns the environment variable consulted when no key is configured.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderGroq:
		return "GROQ_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case AIProviderGoogleAI:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGroq:
		return "Groq (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGoogleAI:
		return "Google AI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// RequestsPerSecond throttles calls. Zero disables throttling.
	RequestsPerSecond float64

	// CacheSize is the number of embeddings kept in memory. Zero disables caching.
	CacheSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.SupportsEmbeddings() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or OpenAI-compatible servers).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// RequestsPerSecond throttles calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// PipelineSettings holds chunking, retrieval and retry configuration.
type PipelineSettings struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters shared by consecutive chunks.
	ChunkOverlap int

	// TopK is the number of chunks retrieved per question.
	TopK int

	// RetryAttempts is the total number of attempts per external call.
	RetryAttempts int

	// RetryBaseMillis is the initial backoff between attempts.
	RetryBaseMillis int

	// CallTimeoutSeconds bounds each external call.
	CallTimeoutSeconds int
}

// RetryBase returns the initial backoff as a duration.
func (p PipelineSettings) RetryBase() time.Duration {
	return time.Duration(p.RetryBaseMillis) * time.Millisecond
}

// CallTimeout returns the per-call deadline as a duration.
func (p PipelineSettings) CallTimeout() time.Duration {
	return time.Duration(p.CallTimeoutSeconds) * time.Second
}

// Validate checks the pipeline settings are usable.
func (p PipelineSettings) Validate() error {
	switch {
	case p.ChunkSize <= 0:
		return wrapInvalid("chunk size must be positive")
	case p.ChunkOverlap < 0:
		return wrapInvalid("chunk overlap must be non-negative")
	case p.ChunkOverlap >= p.ChunkSize:
		return wrapInvalid("chunk overlap must be smaller than chunk size")
	case p.TopK <= 0:
		return wrapInvalid("top k must be positive")
	case p.RetryAttempts <= 0:
		return wrapInvalid("retry attempts must be positive")
	case p.RetryBaseMillis < 0:
		return wrapInvalid("retry base must be non-negative")
	case p.CallTimeoutSeconds <= 0:
		return wrapInvalid("call timeout must be positive")
	}
	return nil
}

// TemplateSettings names the prompt templates used by the pipeline.
type TemplateSettings struct {
	// Answer is the template id for the single-question answerer.
	Answer string

	// Decision is the template id for the decision aggregator.
	Decision string
}

// HistorySettings controls run persistence.
type HistorySettings struct {
	// Enabled stores every successful run.
	Enabled bool
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds LLM provider settings.
	LLM LLMSettings

	// Pipeline holds chunking and retrieval settings.
	Pipeline PipelineSettings

	// Templates holds prompt template ids.
	Templates TemplateSettings

	// History holds run persistence settings.
	History HistorySettings
}

// Default template ids.
const (
	DefaultAnswerTemplate   = "rag-prompt"
	DefaultDecisionTemplate = "final-decision-maker"
)

// DefaultPipelineSettings returns the pipeline defaults.
func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		ChunkSize:          1000,
		ChunkOverlap:       200,
		TopK:               4,
		RetryAttempts:      3,
		RetryBaseMillis:    500,
		CallTimeoutSeconds: 60,
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// Providers default to Groq for completions and Google AI for embeddings;
// API keys are left empty and resolved from the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:  AIProviderGoogleAI,
			Model:     DefaultEmbeddingModels()[AIProviderGoogleAI],
			CacheSize: 1024,
		},
		LLM: LLMSettings{
			Provider: AIProviderGroq,
			Model:    DefaultLLMModels()[AIProviderGroq],
		},
		Pipeline: DefaultPipelineSettings(),
		Templates: TemplateSettings{
			Answer:   DefaultAnswerTemplate,
			Decision: DefaultDecisionTemplate,
		},
		History: HistorySettings{Enabled: true},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderGoogleAI,
		AIProviderOpenAI,
		AIProviderOllama,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGroq,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGoogleAI,
		AIProviderOllama,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:   "nomic-embed-text",
		AIProviderOpenAI:   "text-embedding-3-small",
		AIProviderGoogleAI: "embedding-001",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderGroq:      "gemma2-9b-it",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGoogleAI:  "gemini-1.5-flash",
	}
}

// DefaultBaseURLs returns the API endpoint used when none is configured.
// Providers absent from the map use their client library's default.
func DefaultBaseURLs() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "http://localhost:11434",
		AIProviderGroq:   "https://api.groq.com/openai/v1",
	}
}

func wrapInvalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
