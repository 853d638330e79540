package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/auditrag/internal/core/domain"
)

func noEnv(string) string { return "" }

func envOf(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func newSettings(t *testing.T, env func(string) string) (*SettingsService, *memory.ConfigStore) {
	t.Helper()
	store := memory.NewConfigStore()
	return NewSettingsService(store, nil, WithEnv(env)), store
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service, _ := newSettings(t, noEnv)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.Embedding.Model, settings.Embedding.Model)
	assert.Equal(t, defaults.LLM.Provider, settings.LLM.Provider)
	assert.Equal(t, defaults.LLM.Model, settings.LLM.Model)
	assert.Equal(t, defaults.Pipeline, settings.Pipeline)
	assert.Equal(t, defaults.Templates, settings.Templates)
	assert.True(t, settings.History.Enabled)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	service, store := newSettings(t, noEnv)
	require.NoError(t, store.Set("llm.provider", "ollama"))
	require.NoError(t, store.Set("pipeline.top_k", 6))
	require.NoError(t, store.Set("embedding.requests_per_second", 2.5))
	require.NoError(t, store.Set("history.enabled", false))
	require.NoError(t, store.Set("templates.answer", "custom"))

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, "llama3.2", settings.LLM.Model, "model default follows provider")
	assert.Equal(t, 6, settings.Pipeline.TopK)
	assert.InDelta(t, 2.5, settings.Embedding.RequestsPerSecond, 1e-9)
	assert.False(t, settings.History.Enabled)
	assert.Equal(t, "custom", settings.Templates.Answer)
}

func TestSettingsService_Get_InvalidProviderReturnsDefault(t *testing.T) {
	service, store := newSettings(t, noEnv)
	require.NoError(t, store.Set("embedding.provider", "invalid_provider"))

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings().Embedding.Provider, settings.Embedding.Provider)
}

func TestSettingsService_Get_Environment(t *testing.T) {
	service, store := newSettings(t, envOf(map[string]string{
		"GROQ_API_KEY":             "gsk-env",
		"GOOGLE_API_KEY":           "g-env",
		"AUDITRAG_LLM_MODEL":       "llama-3.1-8b-instant",
		"AUDITRAG_PIPELINE_TOP_K":  "8",
		"AUDITRAG_HISTORY_ENABLED": "false",
	}))
	require.NoError(t, store.Set("llm.model", "stored-model"))

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "gsk-env", settings.LLM.APIKey)
	assert.Equal(t, "g-env", settings.Embedding.APIKey)
	assert.Equal(t, "llama-3.1-8b-instant", settings.LLM.Model)
	assert.Equal(t, 8, settings.Pipeline.TopK)
	assert.False(t, settings.History.Enabled)
}

func TestSettingsService_Get_StoredKeyBeatsProviderEnv(t *testing.T) {
	service, store := newSettings(t, envOf(map[string]string{"GROQ_API_KEY": "gsk-env"}))
	require.NoError(t, store.Set("llm.api_key", "gsk-file"))

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "gsk-file", settings.LLM.APIKey)
}

func TestSettingsService_Save_RoundTrip(t *testing.T) {
	service, _ := newSettings(t, noEnv)

	in := domain.DefaultAppSettings()
	in.LLM.Provider = domain.AIProviderOpenAI
	in.LLM.Model = "gpt-4o"
	in.LLM.APIKey = "sk-test"
	in.Embedding.CacheSize = 0
	in.Pipeline.ChunkSize = 800
	in.History.Enabled = false
	require.NoError(t, service.Save(&in))

	out, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, out.LLM.Provider)
	assert.Equal(t, "gpt-4o", out.LLM.Model)
	assert.Equal(t, "sk-test", out.LLM.APIKey)
	assert.Equal(t, 800, out.Pipeline.ChunkSize)
	assert.False(t, out.History.Enabled)
}

func TestSettingsService_Save_DoesNotPersistEnvKeys(t *testing.T) {
	service, store := newSettings(t, envOf(map[string]string{"GROQ_API_KEY": "gsk-env"}))

	settings, err := service.Get()
	require.NoError(t, err)
	require.NoError(t, service.Save(settings))

	_, stored := store.Get("llm.api_key")
	assert.False(t, stored)
}

func TestSettingsService_Set(t *testing.T) {
	service, store := newSettings(t, noEnv)

	tests := []struct {
		key      string
		value    string
		expected any
	}{
		{"pipeline.chunk_size", "500", 500},
		{"llm.requests_per_second", "1.5", 1.5},
		{"history.enabled", "false", false},
		{"llm.provider", "Ollama", "ollama"},
		{"templates.decision", "strict-verdict", "strict-verdict"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			require.NoError(t, service.Set(tt.key, tt.value))
			got, ok := store.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSettingsService_Set_Invalid(t *testing.T) {
	service, _ := newSettings(t, noEnv)

	tests := []struct{ name, key, value string }{
		{"unknown key", "search.mode", "hybrid"},
		{"not an integer", "pipeline.top_k", "four"},
		{"not a number", "llm.requests_per_second", "fast"},
		{"not a bool", "history.enabled", "maybe"},
		{"unknown provider", "llm.provider", "cohere"},
		{"provider without embeddings", "embedding.provider", "groq"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.Set(tt.key, tt.value)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	t.Run("local provider gets base url", func(t *testing.T) {
		service, _ := newSettings(t, noEnv)
		require.NoError(t, service.SetLLMProvider(domain.AIProviderOllama, "", ""))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
		assert.Equal(t, "llama3.2", settings.LLM.Model)
		assert.Equal(t, "http://localhost:11434", settings.LLM.BaseURL)
	})

	t.Run("groq uses openai compatible endpoint", func(t *testing.T) {
		service, _ := newSettings(t, noEnv)
		require.NoError(t, service.SetLLMProvider(domain.AIProviderGroq, "mixtral", "gsk"))

		settings, err := service.Get()
		require.NoError(t, err)
		assert.Equal(t, "mixtral", settings.LLM.Model)
		assert.Equal(t, "https://api.groq.com/openai/v1", settings.LLM.BaseURL)
	})

	t.Run("missing key", func(t *testing.T) {
		service, _ := newSettings(t, noEnv)
		err := service.SetLLMProvider(domain.AIProviderAnthropic, "", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("key from environment", func(t *testing.T) {
		service, _ := newSettings(t, envOf(map[string]string{"ANTHROPIC_API_KEY": "a"}))
		assert.NoError(t, service.SetLLMProvider(domain.AIProviderAnthropic, "", ""))
	})
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	service, _ := newSettings(t, noEnv)

	assert.ErrorIs(t, service.SetEmbeddingProvider(domain.AIProviderGroq, "", "k"), domain.ErrInvalidInput)
	assert.ErrorIs(t, service.SetEmbeddingProvider("bogus", "", ""), domain.ErrInvalidInput)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk"))
	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Empty(t, settings.Embedding.BaseURL)
}

func TestSettingsService_Validate(t *testing.T) {
	t.Run("missing keys", func(t *testing.T) {
		service, _ := newSettings(t, noEnv)
		err := service.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
	})

	t.Run("missing llm key", func(t *testing.T) {
		service, _ := newSettings(t, envOf(map[string]string{"GOOGLE_API_KEY": "g"}))
		err := service.Validate()
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})

	t.Run("bad pipeline", func(t *testing.T) {
		service, store := newSettings(t, envOf(map[string]string{"GOOGLE_API_KEY": "g", "GROQ_API_KEY": "k"}))
		require.NoError(t, store.Set("pipeline.chunk_overlap", 5000))
		assert.ErrorIs(t, service.Validate(), domain.ErrInvalidInput)
	})

	t.Run("valid", func(t *testing.T) {
		service, _ := newSettings(t, envOf(map[string]string{"GOOGLE_API_KEY": "g", "GROQ_API_KEY": "k"}))
		assert.NoError(t, service.Validate())
	})
}

func TestSettingKeys(t *testing.T) {
	keys := SettingKeys()
	assert.Contains(t, keys, "llm.provider")
	assert.Contains(t, keys, "pipeline.call_timeout_seconds")
	assert.IsIncreasing(t, keys)
}
