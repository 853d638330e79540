package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driving"
)

// AnalyzeInput is the input schema for the analyze_report tool.
type AnalyzeInput struct {
	Path      string   `json:"path" jsonschema:"path to the report file (markdown, text, html or docx)"`
	Questions []string `json:"questions,omitempty" jsonschema:"questions to ask instead of the standard audit battery"`
}

// AnalyzeOutput is the output schema for the analyze_report tool.
type AnalyzeOutput struct {
	RunID       string         `json:"run_id"`
	ReportTitle string         `json:"report_title"`
	Answers     []AnswerOutput `json:"answers"`
	Verdict     string         `json:"verdict"`
}

// AnswerOutput is a single question and its answer.
type AnswerOutput struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AskInput is the input schema for the ask_report tool.
type AskInput struct {
	Path     string `json:"path" jsonschema:"path to the report file"`
	Question string `json:"question" jsonschema:"the question to answer from the report"`
}

// ListQuestionsInput is the input schema for the list_questions tool.
type ListQuestionsInput struct{}

// ListQuestionsOutput is the output schema for the list_questions tool.
type ListQuestionsOutput struct {
	Questions []string `json:"questions"`
	Count     int      `json:"count"`
}

var errMissingPath = errors.New("path is required")

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_report",
		Description: "Answer every audit question about a report and return an aggregated verdict",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_report",
		Description: "Answer a single question from the content of a report",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_questions",
		Description: "List the standard audit questions used by analyze_report",
	}, s.handleListQuestions)
}

// handleAnalyze handles the analyze_report tool invocation.
func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, AnalyzeOutput{}, errMissingPath
	}

	opts := driving.AnalyzeOptions{}
	if len(input.Questions) > 0 {
		opts.Questions = input.Questions
	}

	run, err := s.ports.Analysis.Analyze(ctx, input.Path, opts)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}

	output := AnalyzeOutput{
		RunID:       run.ID,
		ReportTitle: run.ReportTitle,
		Answers:     answersOutput(run.Answers),
		Verdict:     run.Verdict(),
	}
	return nil, output, nil
}

// handleAsk handles the ask_report tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	if strings.TrimSpace(input.Path) == "" {
		return nil, AnswerOutput{}, errMissingPath
	}
	if strings.TrimSpace(input.Question) == "" {
		return nil, AnswerOutput{}, errors.New("question is required")
	}

	answer, err := s.ports.Analysis.Ask(ctx, input.Path, input.Question)
	if err != nil {
		return nil, AnswerOutput{}, err
	}
	return nil, AnswerOutput{Question: answer.Question, Answer: answer.Text}, nil
}

// handleListQuestions handles the list_questions tool invocation.
func (s *Server) handleListQuestions(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListQuestionsInput,
) (*mcp.CallToolResult, ListQuestionsOutput, error) {
	questions := s.ports.Analysis.Questions()
	return nil, ListQuestionsOutput{Questions: questions, Count: len(questions)}, nil
}

func answersOutput(answers []domain.Answer) []AnswerOutput {
	out := make([]AnswerOutput, len(answers))
	for i, a := range answers {
		out[i] = AnswerOutput{Question: a.Question, Answer: a.Text}
	}
	return out
}
