package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
)

// Ensure the fakes implement their ports.
var (
	_ driven.EmbeddingService = (*mockEmbedder)(nil)
	_ driven.LLMService       = (*mockLLM)(nil)
	_ driven.Template         = (*mockTemplate)(nil)
	_ driven.TemplateStore    = (*mockTemplateStore)(nil)
	_ driven.DocumentSource   = (*mockSource)(nil)
	_ Retriever               = retrieverFunc(nil)
)

var errBoom = errors.New("boom")

// mockEmbedder counts vocabulary words, giving deterministic vectors whose
// cosine similarity tracks shared keywords. The last dimension is a constant
// so no vector is zero.
type mockEmbedder struct {
	mu    sync.Mutex
	vocab []string

	// batchErr fails every EmbedBatch call.
	batchErr error
	// queryFailures fails this many Embed calls before succeeding.
	queryFailures int
	// short returns vectors one dimension short after the first batch.
	short bool

	batchCalls int
	queryCalls int
	lastQuery  string
}

func newMockEmbedder(vocab ...string) *mockEmbedder {
	return &mockEmbedder{vocab: vocab}
}

func (m *mockEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, len(m.vocab)+1)
	for i, w := range m.vocab {
		v[i] = float32(strings.Count(lower, w))
	}
	v[len(m.vocab)] = 0.01
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++
	m.lastQuery = text
	if m.queryFailures > 0 {
		m.queryFailures--
		return nil, errBoom
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
		if m.short && m.batchCalls > 1 {
			out[i] = out[i][1:]
		}
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int            { return len(m.vocab) + 1 }
func (m *mockEmbedder) ModelName() string          { return "mock-embed" }
func (m *mockEmbedder) Ping(context.Context) error { return nil }
func (m *mockEmbedder) Close() error               { return nil }

func (m *mockEmbedder) calls() (batch, query int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchCalls, m.queryCalls
}

// mockLLM answers prompts with a caller-supplied function and records them.
type mockLLM struct {
	mu      sync.Mutex
	respond func(call int, prompt string) (string, error)
	prompts []string
}

func newMockLLM(respond func(call int, prompt string) (string, error)) *mockLLM {
	return &mockLLM{respond: respond}
}

// echoLLM returns "ANSWER:" plus the question line of an answer prompt,
// and "VERDICT:ok" for anything else.
func echoLLM() *mockLLM {
	return newMockLLM(func(_ int, prompt string) (string, error) {
		if q, ok := strings.CutPrefix(firstLine(prompt), "Q: "); ok {
			return "ANSWER:" + q, nil
		}
		return "VERDICT:ok", nil
	})
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	call := len(m.prompts)
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.respond(call, prompt)
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

func (m *mockLLM) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

var fieldPattern = regexp.MustCompile(`\{(\w+)\}`)

// mockTemplate substitutes {field} placeholders.
type mockTemplate struct {
	id, text string
}

// Answer and decision templates shaped so echoLLM can tell them apart.
func answerTemplate() *mockTemplate {
	return &mockTemplate{id: domain.DefaultAnswerTemplate, text: "Q: {question}\nC: {context}"}
}

func decisionTemplate() *mockTemplate {
	return &mockTemplate{id: domain.DefaultDecisionTemplate, text: "Decide on:\n{analysis_results}"}
}

func (t *mockTemplate) ID() string   { return t.id }
func (t *mockTemplate) Text() string { return t.text }

func (t *mockTemplate) Variables() []string {
	var vars []string
	for _, m := range fieldPattern.FindAllStringSubmatch(t.text, -1) {
		vars = append(vars, m[1])
	}
	return vars
}

func (t *mockTemplate) Render(fields map[string]any) (string, error) {
	var missing error
	out := fieldPattern.ReplaceAllStringFunc(t.text, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := fields[name]
		if !ok {
			missing = fmt.Errorf("missing field %q", name)
			return m
		}
		return fmt.Sprint(v)
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}

type mockTemplateStore struct {
	templates map[string]driven.Template
	reloads   int

	// loadErr fails every Load call.
	loadErr error
}

func newMockTemplateStore(templates ...*mockTemplate) *mockTemplateStore {
	s := &mockTemplateStore{templates: make(map[string]driven.Template)}
	for _, t := range templates {
		s.templates[t.id] = t
	}
	return s
}

func (s *mockTemplateStore) Load(id string) (driven.Template, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	t, ok := s.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
	}
	return t, nil
}

func (s *mockTemplateStore) List() ([]string, error) {
	ids := make([]string, 0, len(s.templates))
	for id := range s.templates {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *mockTemplateStore) Reload() { s.reloads++ }

// mockSource serves reports from memory.
type mockSource struct {
	reports map[string]string
	err     error
	loads   int
}

func (s *mockSource) Load(_ context.Context, uri string) (*domain.Report, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	content, ok := s.reports[uri]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", uri, domain.ErrNotFound)
	}
	return &domain.Report{URI: uri, Title: uri, Content: content}, nil
}

type retrieverFunc func(ctx context.Context, question string, k int) ([]domain.RetrievedChunk, error)

func (f retrieverFunc) Query(ctx context.Context, question string, k int) ([]domain.RetrievedChunk, error) {
	return f(ctx, question, k)
}

// staticRetriever returns one chunk echoing the question.
func staticRetriever() retrieverFunc {
	return func(_ context.Context, question string, _ int) ([]domain.RetrievedChunk, error) {
		return []domain.RetrievedChunk{{Chunk: domain.Chunk{ID: "c", Content: "about " + question}, Score: 1}}, nil
	}
}

// fastRetry retries without waiting.
func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, Base: 0}
}
