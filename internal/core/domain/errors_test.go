package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrEmptyDocument", ErrEmptyDocument},
		{"ErrEmbeddingService", ErrEmbeddingService},
		{"ErrRetrievalEmpty", ErrRetrievalEmpty},
		{"ErrTemplateNotFound", ErrTemplateNotFound},
		{"ErrCompletionService", ErrCompletionService},
		{"ErrDecisionGeneration", ErrDecisionGeneration},
		{"ErrCancelled", ErrCancelled},
		{"ErrInvalidTransition", ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Distinct tests that pipeline errors do not match each other
func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrCancelled, ErrCompletionService))
	assert.False(t, errors.Is(ErrCompletionService, ErrDecisionGeneration))
	assert.False(t, errors.Is(ErrEmbeddingService, ErrRetrievalEmpty))
}

// TestStageError_Document tests document-level stage errors
func TestStageError_Document(t *testing.T) {
	err := NewStageError(StageIndex, fmt.Errorf("%w: connection refused", ErrEmbeddingService))

	assert.Equal(t, -1, err.QuestionIndex)
	assert.Equal(t, "index failed: embedding service error: connection refused", err.Error())
	assert.True(t, errors.Is(err, ErrEmbeddingService))
}

// TestStageError_Question tests question-level stage errors
func TestStageError_Question(t *testing.T) {
	err := NewQuestionError(StageGenerate, 1, "What is the budget?", ErrCompletionService)

	assert.Equal(t, `generate failed at question 2 ("What is the budget?"): completion service error`, err.Error())
	assert.True(t, errors.Is(err, ErrCompletionService))
	assert.False(t, errors.Is(err, ErrDecisionGeneration))
}

// TestStageOf tests stage extraction through wrapping
func TestStageOf(t *testing.T) {
	wrapped := fmt.Errorf("analyze: %w", NewStageError(StageDecide, ErrDecisionGeneration))

	stage, ok := StageOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, StageDecide, stage)
	assert.Equal(t, "decide", stage.String())

	_, ok = StageOf(errors.New("plain"))
	assert.False(t, ok)
}
