package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAIProvider_IsValid tests all valid and invalid providers
func TestAIProvider_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		provider AIProvider
		expected bool
	}{
		{"ollama", AIProviderOllama, true},
		{"openai", AIProviderOpenAI, true},
		{"groq", AIProviderGroq, true},
		{"anthropic", AIProviderAnthropic, true},
		{"googleai", AIProviderGoogleAI, true},
		{"empty", AIProvider(""), false},
		{"unknown", AIProvider("cohere"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.provider.IsValid())
		})
	}
}

// TestAIProvider_Capabilities tests key, locality and embedding support
func TestAIProvider_Capabilities(t *testing.T) {
	tests := []struct {
		provider   AIProvider
		apiKey     bool
		local      bool
		embeddings bool
		env        string
	}{
		{AIProviderOllama, false, true, true, ""},
		{AIProviderOpenAI, true, false, true, "OPENAI_API_KEY"},
		{AIProviderGroq, true, false, false, "GROQ_API_KEY"},
		{AIProviderAnthropic, true, false, false, "ANTHROPIC_API_KEY"},
		{AIProviderGoogleAI, true, false, true, "GOOGLE_API_KEY"},
		{AIProvider("bogus"), false, false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			assert.Equal(t, tt.apiKey, tt.provider.RequiresAPIKey())
			assert.Equal(t, tt.local, tt.provider.IsLocal())
			assert.Equal(t, tt.embeddings, tt.provider.SupportsEmbeddings())
			assert.Equal(t, tt.env, tt.provider.APIKeyEnv())
		})
	}
}

// TestAIProvider_Description tests human-readable names
func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Groq (cloud)", AIProviderGroq.Description())
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

// TestEmbeddingSettings_IsConfigured tests embedding configuration checks
func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"openai with key", EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}, true},
		{"openai without key", EmbeddingSettings{Provider: AIProviderOpenAI}, false},
		{"googleai with key", EmbeddingSettings{Provider: AIProviderGoogleAI, APIKey: "g"}, true},
		{"groq has no embeddings", EmbeddingSettings{Provider: AIProviderGroq, APIKey: "k"}, false},
		{"empty", EmbeddingSettings{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

// TestLLMSettings_IsConfigured tests LLM configuration checks
func TestLLMSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings LLMSettings
		expected bool
	}{
		{"ollama without key", LLMSettings{Provider: AIProviderOllama}, true},
		{"groq with key", LLMSettings{Provider: AIProviderGroq, APIKey: "gsk"}, true},
		{"groq without key", LLMSettings{Provider: AIProviderGroq}, false},
		{"anthropic with key", LLMSettings{Provider: AIProviderAnthropic, APIKey: "a"}, true},
		{"invalid provider", LLMSettings{Provider: "nope", APIKey: "k"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

// TestPipelineSettings_Validate tests pipeline setting bounds
func TestPipelineSettings_Validate(t *testing.T) {
	require.NoError(t, DefaultPipelineSettings().Validate())

	tests := []struct {
		name   string
		mutate func(*PipelineSettings)
	}{
		{"zero chunk size", func(p *PipelineSettings) { p.ChunkSize = 0 }},
		{"negative overlap", func(p *PipelineSettings) { p.ChunkOverlap = -1 }},
		{"overlap equals size", func(p *PipelineSettings) { p.ChunkOverlap = p.ChunkSize }},
		{"zero top k", func(p *PipelineSettings) { p.TopK = 0 }},
		{"zero attempts", func(p *PipelineSettings) { p.RetryAttempts = 0 }},
		{"negative base", func(p *PipelineSettings) { p.RetryBaseMillis = -5 }},
		{"zero timeout", func(p *PipelineSettings) { p.CallTimeoutSeconds = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPipelineSettings()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}
}

// TestPipelineSettings_Durations tests duration helpers
func TestPipelineSettings_Durations(t *testing.T) {
	p := DefaultPipelineSettings()
	assert.Equal(t, 500*time.Millisecond, p.RetryBase())
	assert.Equal(t, 60*time.Second, p.CallTimeout())
}

// TestDefaultAppSettings tests default settings values
func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderGroq, s.LLM.Provider)
	assert.Equal(t, "gemma2-9b-it", s.LLM.Model)
	assert.Equal(t, AIProviderGoogleAI, s.Embedding.Provider)
	assert.Equal(t, "embedding-001", s.Embedding.Model)
	assert.Equal(t, 1000, s.Pipeline.ChunkSize)
	assert.Equal(t, 200, s.Pipeline.ChunkOverlap)
	assert.Equal(t, 4, s.Pipeline.TopK)
	assert.Equal(t, DefaultAnswerTemplate, s.Templates.Answer)
	assert.Equal(t, DefaultDecisionTemplate, s.Templates.Decision)
	assert.True(t, s.History.Enabled)
}

// TestProviderLists tests that every listed provider has a default model
func TestProviderLists(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, DefaultLLMModels()[p], p)
	}
	for _, p := range AllEmbeddingProviders() {
		assert.True(t, p.SupportsEmbeddings(), p)
		assert.NotEmpty(t, DefaultEmbeddingModels()[p], p)
	}
}

// TestDefaultQuestions tests the standard battery is copied
func TestDefaultQuestions(t *testing.T) {
	qs := DefaultQuestions()
	require.Len(t, qs, 11)
	qs[0] = "changed"
	assert.NotEqual(t, "changed", StandardQuestions[0])
	assert.Empty(t, DuplicateQuestions(StandardQuestions))
}
