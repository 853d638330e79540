// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for a run to start:
//
//   - EmbeddingService: Embeds chunks and questions
//   - LLMService: Single-turn text completion for answers and the verdict
//   - TemplateStore: Resolves prompt templates by id
//   - VectorIndex: In-memory similarity search over chunk embeddings
//   - Chunker: Splits a report into overlapping chunks
//   - DocumentSource: Loads report text
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunStore: Run history. Without it, runs are not persisted.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
