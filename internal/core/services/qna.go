package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
	"github.com/custodia-labs/auditrag/internal/logger"
)

// QnAService drives the question-answering session over a question list.
// Each Run owns its session exclusively; runs share nothing but the answerer.
type QnAService struct {
	answerer *Answerer
}

// QnAOption configures a QnAService.
type QnAOption func(*QnAService)

// NewQnAService creates a session driver.
func NewQnAService(answerer *Answerer, opts ...QnAOption) (*QnAService, error) {
	if answerer == nil {
		return nil, fmt.Errorf("%w: answerer is required", domain.ErrInvalidInput)
	}
	s := &QnAService{answerer: answerer}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run answers questions in order and returns the accumulated answers.
func (s *QnAService) Run(
	ctx context.Context, questions []string, retriever Retriever, tmpl driven.Template,
) (domain.AnswerSet, error) {
	return s.RunWithProgress(ctx, questions, retriever, tmpl, nil)
}

// RunWithProgress is Run with a progress callback.
//
// Questions are answered strictly in order, one retrieve and one generate
// per position. Cancellation is checked between steps, never mid-call.
// On failure the partial answers are discarded and a *domain.StageError
// naming the failing question is returned.
func (s *QnAService) RunWithProgress(
	ctx context.Context,
	questions []string,
	retriever Retriever,
	tmpl driven.Template,
	progress domain.ProgressFunc,
) (domain.AnswerSet, error) {
	if retriever == nil {
		return domain.AnswerSet{}, domain.NewStageError(domain.StageRetrieve,
			fmt.Errorf("%w: retriever is required", domain.ErrInvalidInput))
	}
	if progress == nil {
		progress = func(domain.ProgressEvent) {}
	}

	logger.Section("Answer Questions")
	for _, q := range domain.DuplicateQuestions(questions) {
		logger.Warn("question %q appears more than once; only its last answer is kept", q)
	}

	session, err := domain.Transition(domain.NewSession(), domain.Initialize(questions))
	if err != nil {
		return domain.AnswerSet{}, domain.NewStageError(domain.StageRetrieve, err)
	}

	limit := domain.MaxSteps(len(questions))
	for !session.Finished() {
		if session.Steps() > limit {
			return domain.AnswerSet{}, domain.NewStageError(stageFor(session.Phase()),
				fmt.Errorf("%w: exceeded %d steps", domain.ErrInvalidTransition, limit))
		}
		if err := ctx.Err(); err != nil {
			return domain.AnswerSet{}, s.questionError(session, stageFor(session.Phase()),
				fmt.Errorf("%w: %w", domain.ErrCancelled, err))
		}

		var ev domain.Event
		switch session.Phase() {
		case domain.PhaseRetrieving:
			progress(domain.ProgressEvent{
				Kind:     domain.ProgressQuestionStart,
				Index:    session.Index(),
				Total:    session.Total(),
				Question: session.Question(),
			})
			logger.Debug("Question %d/%d: %q", session.Index()+1, session.Total(), session.Question())

			chunks, err := s.answerer.Retrieve(ctx, retriever, session.Question())
			if err != nil {
				return domain.AnswerSet{}, s.questionError(session, domain.StageRetrieve, err)
			}
			ev = domain.Retrieved(chunks)

		case domain.PhaseGenerating:
			text, err := s.answerer.Generate(ctx, session.Question(), session.Context(), tmpl)
			if err != nil {
				return domain.AnswerSet{}, s.questionError(session, domain.StageGenerate, err)
			}
			ev = domain.Generated(text)

		case domain.PhaseDeciding:
			progress(domain.ProgressEvent{
				Kind:     domain.ProgressQuestionDone,
				Index:    session.Index(),
				Total:    session.Total(),
				Question: session.Question(),
			})
			if session.ShouldContinue() == domain.Continue {
				ev = domain.Next()
			} else {
				ev = domain.Finish()
			}

		default:
			return domain.AnswerSet{}, domain.NewStageError(stageFor(session.Phase()),
				fmt.Errorf("%w: unexpected phase %s", domain.ErrInvalidTransition, session.Phase()))
		}

		session, err = domain.Transition(session, ev)
		if err != nil {
			return domain.AnswerSet{}, s.questionError(session, stageFor(session.Phase()), err)
		}
	}

	answers := session.Answers()
	logger.Debug("Answered %d questions (%d distinct)", len(questions), answers.Len())
	return answers, nil
}

func (s *QnAService) questionError(session domain.Session, stage domain.Stage, err error) error {
	var se *domain.StageError
	if errors.As(err, &se) {
		return se
	}
	return domain.NewQuestionError(stage, session.Index(), session.Question(), err)
}

func stageFor(p domain.Phase) domain.Stage {
	if p == domain.PhaseGenerating {
		return domain.StageGenerate
	}
	return domain.StageRetrieve
}
