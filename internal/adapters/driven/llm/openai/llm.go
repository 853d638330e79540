// Package openai provides an LLM service adapter for OpenAI-compatible chat APIs.
// Groq and other compatible servers are reached by overriding BaseURL.
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

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Set to https://api.groq.com/openai/v1 for Groq.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides completions using an OpenAI-compatible API.
type LLMService struct {
	client *goopenai.Client
	model  string
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &LLMService{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Generate sends prompt as a single user message and returns the reply.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: s.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		req.Temperature = float32(opts.Temperature)
	}
	if len(opts.StopWords) > 0 {
		req.Stop = opts.StopWords
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: no response choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by listing models, without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", classify(err))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// classify marks client errors other than rate limiting as invalid input,
// so callers do not retry a request the server will always reject.
func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && permanent(apiErr.HTTPStatusCode) {
		return fmt.Errorf("%w: openai: %w", domain.ErrInvalidInput, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && permanent(reqErr.HTTPStatusCode) {
		return fmt.Errorf("%w: openai: %w", domain.ErrInvalidInput, err)
	}
	return fmt.Errorf("openai: %w", err)
}

func permanent(status int) bool {
	return status >= 400 && status < 500 &&
		status != http.StatusTooManyRequests && status != http.StatusRequestTimeout
}
