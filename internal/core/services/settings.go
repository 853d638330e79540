package services

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
	"github.com/custodia-labs/auditrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedRPS         = "embedding.requests_per_second"
	keyEmbedCacheSize   = "embedding.cache_size"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMRPS           = "llm.requests_per_second"
	keyChunkSize        = "pipeline.chunk_size"
	keyChunkOverlap     = "pipeline.chunk_overlap"
	keyTopK             = "pipeline.top_k"
	keyRetryAttempts    = "pipeline.retry_attempts"
	keyRetryBaseMillis  = "pipeline.retry_base_ms"
	keyCallTimeout      = "pipeline.call_timeout_seconds"
	keyAnswerTemplate   = "templates.answer"
	keyDecisionTemplate = "templates.decision"
	keyHistoryEnabled   = "history.enabled"
)

// EnvPrefix prefixes environment overrides of provider settings,
// e.g. AUDITRAG_LLM_PROVIDER overrides llm.provider.
const EnvPrefix = "AUDITRAG_"

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindBool
	kindProvider
)

var settingKeys = map[string]keyKind{
	keyEmbedProvider:    kindProvider,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyEmbedRPS:         kindFloat,
	keyEmbedCacheSize:   kindInt,
	keyLLMProvider:      kindProvider,
	keyLLMModel:         kindString,
	keyLLMBaseURL:       kindString,
	keyLLMAPIKey:        kindString,
	keyLLMRPS:           kindFloat,
	keyChunkSize:        kindInt,
	keyChunkOverlap:     kindInt,
	keyTopK:             kindInt,
	keyRetryAttempts:    kindInt,
	keyRetryBaseMillis:  kindInt,
	keyCallTimeout:      kindInt,
	keyAnswerTemplate:   kindString,
	keyDecisionTemplate: kindString,
	keyHistoryEnabled:   kindBool,
}

// SettingKeys returns every key accepted by Set, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// SettingsOption configures a SettingsService.
type SettingsOption func(*SettingsService)

// WithEnv sets the environment lookup. Tests use it to avoid the process environment.
func WithEnv(getenv func(string) string) SettingsOption {
	return func(s *SettingsService) {
		if getenv != nil {
			s.getenv = getenv
		}
	}
}

// NewSettingsService creates a new settings service.
func NewSettingsService(
	configStore driven.ConfigStore, aiValidator driven.AIConfigValidator, opts ...SettingsOption,
) *SettingsService {
	s := &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves current application settings.
// Environment overrides win over stored values, and API keys fall back to the
// provider's conventional variable when neither is set.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, ""),
			BaseURL:           s.getString(keyEmbedBaseURL, ""),
			APIKey:            s.getString(keyEmbedAPIKey, ""),
			RequestsPerSecond: s.getFloat(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
			CacheSize:         s.getInt(keyEmbedCacheSize, defaults.Embedding.CacheSize),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:             s.getString(keyLLMModel, ""),
			BaseURL:           s.getString(keyLLMBaseURL, ""),
			APIKey:            s.getString(keyLLMAPIKey, ""),
			RequestsPerSecond: s.getFloat(keyLLMRPS, defaults.LLM.RequestsPerSecond),
		},
		Pipeline: domain.PipelineSettings{
			ChunkSize:          s.getInt(keyChunkSize, defaults.Pipeline.ChunkSize),
			ChunkOverlap:       s.getInt(keyChunkOverlap, defaults.Pipeline.ChunkOverlap),
			TopK:               s.getInt(keyTopK, defaults.Pipeline.TopK),
			RetryAttempts:      s.getInt(keyRetryAttempts, defaults.Pipeline.RetryAttempts),
			RetryBaseMillis:    s.getInt(keyRetryBaseMillis, defaults.Pipeline.RetryBaseMillis),
			CallTimeoutSeconds: s.getInt(keyCallTimeout, defaults.Pipeline.CallTimeoutSeconds),
		},
		Templates: domain.TemplateSettings{
			Answer:   s.getString(keyAnswerTemplate, defaults.Templates.Answer),
			Decision: s.getString(keyDecisionTemplate, defaults.Templates.Decision),
		},
		History: domain.HistorySettings{
			Enabled: s.getBool(keyHistoryEnabled, defaults.History.Enabled),
		},
	}

	// Model defaults follow the resolved provider.
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.providerKey(settings.Embedding.Provider)
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.providerKey(settings.LLM.Provider)
	}

	return settings, nil
}

// Save persists application settings.
// API keys are only written when set, so keys resolved from the environment
// are never copied into the config file unless they were already there.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyEmbedCacheSize, settings.Embedding.CacheSize},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMRPS, settings.LLM.RequestsPerSecond},
		{keyChunkSize, settings.Pipeline.ChunkSize},
		{keyChunkOverlap, settings.Pipeline.ChunkOverlap},
		{keyTopK, settings.Pipeline.TopK},
		{keyRetryAttempts, settings.Pipeline.RetryAttempts},
		{keyRetryBaseMillis, settings.Pipeline.RetryBaseMillis},
		{keyCallTimeout, settings.Pipeline.CallTimeoutSeconds},
		{keyAnswerTemplate, settings.Templates.Answer},
		{keyDecisionTemplate, settings.Templates.Decision},
		{keyHistoryEnabled, settings.History.Enabled},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if err := s.saveAPIKey(keyEmbedAPIKey, settings.Embedding.Provider, settings.Embedding.APIKey); err != nil {
		return err
	}
	return s.saveAPIKey(keyLLMAPIKey, settings.LLM.Provider, settings.LLM.APIKey)
}

func (s *SettingsService) saveAPIKey(key string, provider domain.AIProvider, apiKey string) error {
	if apiKey == "" {
		return nil
	}
	if _, stored := s.configStore.Get(key); !stored && apiKey == s.providerKey(provider) {
		return nil
	}
	if err := s.configStore.Set(key, apiKey); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Set updates a single setting. The value is parsed according to the key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	case kindProvider:
		p := domain.AIProvider(strings.ToLower(strings.TrimSpace(value)))
		if !p.IsValid() {
			return fmt.Errorf("%w: unknown provider %q", domain.ErrInvalidInput, value)
		}
		if key == keyEmbedProvider && !p.SupportsEmbeddings() {
			return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, p)
		}
		parsed = p.String()
	default:
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if !provider.SupportsEmbeddings() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}
	if apiKey == "" {
		apiKey = s.providerKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = domain.DefaultBaseURLs()[provider]
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}
	if apiKey == "" {
		apiKey = s.providerKey(provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = domain.DefaultBaseURLs()[provider]
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks the current settings can run the pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		if env := settings.Embedding.Provider.APIKeyEnv(); env != "" && settings.Embedding.Provider.SupportsEmbeddings() {
			return fmt.Errorf("%w: set %s or embedding.api_key", domain.ErrEmbeddingUnavailable, env)
		}
		return fmt.Errorf("%w: provider %q cannot embed", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		if env := settings.LLM.Provider.APIKeyEnv(); env != "" {
			return fmt.Errorf("%w: set %s or llm.api_key", domain.ErrLLMUnavailable, env)
		}
		return fmt.Errorf("%w: provider %q is not configured", domain.ErrLLMUnavailable, settings.LLM.Provider)
	}
	if settings.Templates.Answer == "" || settings.Templates.Decision == "" {
		return fmt.Errorf("%w: template ids must not be empty", domain.ErrInvalidInput)
	}
	return settings.Pipeline.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

// envKey maps "llm.base_url" to "AUDITRAG_LLM_BASE_URL".
func envKey(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (s *SettingsService) lookup(key string) (string, bool) {
	if v := s.getenv(envKey(key)); v != "" {
		return v, true
	}
	return "", false
}

func (s *SettingsService) providerKey(p domain.AIProvider) string {
	if env := p.APIKeyEnv(); env != "" {
		return s.getenv(env)
	}
	return ""
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if v, ok := s.lookup(key); ok {
		return v
	}
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if v, ok := s.lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if v, ok := s.lookup(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if v, ok := s.lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.getString(key, ""))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func modelOrDefault(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}
