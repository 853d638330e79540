package driven

import (
	"context"

	"github.com/custodia-labs/auditrag/internal/core/domain"
)

// DocumentSource supplies the raw text of a report.
type DocumentSource interface {
	// Load reads and decodes the report at uri.
	Load(ctx context.Context, uri string) (*domain.Report, error)
}
