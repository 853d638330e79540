package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/auditrag/internal/core/domain"
)

func TestTemplateService(t *testing.T) {
	svc := NewTemplateService(newMockTemplateStore(answerTemplate(), decisionTemplate()))

	ids, err := svc.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.DefaultAnswerTemplate, domain.DefaultDecisionTemplate}, ids)

	text, err := svc.Show(domain.DefaultDecisionTemplate)
	require.NoError(t, err)
	assert.Equal(t, "Decide on:\n{analysis_results}", text)

	_, err = svc.Show("missing")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}
