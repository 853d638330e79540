package domain

// StandardQuestions is the default audit battery asked of every report.
// Order matters: answers are flattened into the decision input in this order.
var StandardQuestions = []string{
	"What is the amount of budget installment approved from government?",
	"What are the main objectives of the project?",
	"What is the timeline for project implementation?",
	"What specific outcomes or deliverables are expected?",
	"How is the fund being utilized for different work, and does this match with the expenditure?",
	"Is there a detailed breakdown of how funds will be utilized?",
	"Does the project align with government priorities and policies?",
	"Is there evidence of proper planning and risk management?",
	"Does the fund released by government match the expenditure?",
	"Are there any red flags or concerns in the document?",
	"Are there any discrepancies in fund utilization?",
}

// DefaultQuestions returns a copy of StandardQuestions.
func DefaultQuestions() []string {
	out := make([]string, len(StandardQuestions))
	copy(out, StandardQuestions)
	return out
}
