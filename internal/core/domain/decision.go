package domain

import "time"

// DecisionRecord is the output of the decision aggregator.
// It is created once from the flattened answers and never modified.
type DecisionRecord struct {
	// AnalysisText is the decision input: every answer in question order.
	AnalysisText string `json:"analysis_text"`

	// Verdict is the completion output, verbatim.
	Verdict string `json:"verdict"`
}

// Run is a completed analysis of one report.
// Only successful runs are persisted; a failed run produces no Run.
type Run struct {
	// ID is the unique identifier for the run.
	ID string `json:"id"`

	// ReportTitle is the title of the analysed report.
	ReportTitle string `json:"report_title"`

	// ReportURI is where the report was loaded from.
	ReportURI string `json:"report_uri"`

	// Questions is the question list the run was driven with.
	Questions []string `json:"questions"`

	// Answers holds one entry per distinct question, in question order.
	Answers []Answer `json:"answers"`

	// Decision is the aggregated verdict.
	Decision DecisionRecord `json:"decision"`

	// LLMModel is the completion model used.
	LLMModel string `json:"llm_model"`

	// EmbeddingModel is the embedding model used.
	EmbeddingModel string `json:"embedding_model"`

	// ChunkCount is the number of chunks indexed.
	ChunkCount int `json:"chunk_count"`

	// CreatedAt is when the run started.
	CreatedAt time.Time `json:"created_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`
}

// Verdict returns the run's verdict text.
func (r *Run) Verdict() string {
	return r.Decision.Verdict
}

// RunSummary is a lightweight view of a stored run for listings.
type RunSummary struct {
	ID          string
	ReportTitle string
	ReportURI   string
	Questions   int
	CreatedAt   time.Time
}
