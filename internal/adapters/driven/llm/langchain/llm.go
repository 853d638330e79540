// Package langchain provides LLM service adapters backed by langchaingo
// models: Ollama, Anthropic and Google AI.
package langchain

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultOllamaURL = "http://localhost:11434"
	pingTimeout      = 10 * time.Second
)

// Config holds provider configuration.
type Config struct {
	// APIKey is required for cloud providers.
	APIKey string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// Model is the model name.
	Model string
}

// LLMService adapts a langchaingo model to driven.LLMService.
type LLMService struct {
	model llms.Model
	name  string
	ping  func(ctx context.Context) error
}

// New wraps an existing langchaingo model.
// Ping issues a one-token completion.
func New(model llms.Model, name string) *LLMService {
	s := &LLMService{model: model, name: name}
	s.ping = s.pingByCompletion
	return s
}

// NewOllama creates an LLM service for a local Ollama server.
func NewOllama(cfg Config) (*LLMService, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	model, err := ollama.New(ollama.WithModel(cfg.Model), ollama.WithServerURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	s := New(model, cfg.Model)
	s.ping = func(ctx context.Context) error { return pingOllama(ctx, baseURL) }
	return s, nil
}

// NewAnthropic creates an LLM service for the Anthropic API.
func NewAnthropic(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	opts := []anthropic.Option{
		anthropic.WithModel(cfg.Model),
		anthropic.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	model, err := anthropic.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	return New(model, cfg.Model), nil
}

// NewGoogleAI creates an LLM service for the Google Generative AI API.
func NewGoogleAI(ctx context.Context, cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("googleai: API key is required")
	}
	model, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("googleai: %w", err)
	}
	return New(model, cfg.Model), nil
}

// Generate produces a completion for a single prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, s.model, prompt, callOptions(opts)...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", s.name, err)
	}
	return text, nil
}

func callOptions(opts driven.GenerateOptions) []llms.CallOption {
	var out []llms.CallOption
	if opts.MaxTokens > 0 {
		out = append(out, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		out = append(out, llms.WithTemperature(opts.Temperature))
	}
	if len(opts.StopWords) > 0 {
		out = append(out, llms.WithStopWords(opts.StopWords))
	}
	return out
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.name
}

// Ping validates the provider is reachable.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *LLMService) pingByCompletion(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := s.Generate(ctx, "ping", driven.GenerateOptions{MaxTokens: 1}); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// pingOllama checks the /api/tags endpoint without running inference.
func pingOllama(ctx context.Context, baseURL string) error {
	url := strings.TrimRight(baseURL, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases the underlying client if it holds resources.
func (s *LLMService) Close() error {
	if c, ok := s.model.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
