// Package domain defines the core business entities for auditrag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Report: A loaded document awaiting analysis
//   - Chunk: A retrieval unit within a report
//   - AnswerSet: Ordered question to answer mapping
//   - Session: The question-answering state machine
//   - DecisionRecord and Run: The verdict and its persisted record
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
