// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService provides stateless single-turn text completion.
// Calls may be nondeterministic; callers must not assume identical output
// for identical prompts.
//
// Implementations may include:
//   - OpenAI (GPT-4o) and Groq (OpenAI-compatible)
//   - Anthropic (Claude)
//   - Google AI (Gemini)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
// Zero values leave the provider default in place.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
