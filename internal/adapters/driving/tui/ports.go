// Package tui provides an interactive terminal progress view for auditrag.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/auditrag/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Analysis runs the audit pipeline.
	Analysis driving.AnalysisService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Analysis == nil {
		return ErrMissingAnalysisService
	}
	return nil
}
