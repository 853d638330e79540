package mcp

import (
	"github.com/custodia-labs/auditrag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Analysis runs the audit pipeline.
	Analysis driving.AnalysisService

	// History exposes stored runs.
	History driving.HistoryService

	// Templates exposes prompt templates.
	Templates driving.TemplateService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Analysis == nil {
		return ErrMissingAnalysisService
	}
	// History and Templates only back resources
	return nil
}
