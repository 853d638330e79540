package domain

import "fmt"

// Phase is the state of a question-answering session.
type Phase int

// Session phases. A session moves Uninitialized -> Retrieving -> Generating ->
// Deciding, loops back to Retrieving for each further question, and ends in Finished.
const (
	PhaseUninitialized Phase = iota
	PhaseRetrieving
	PhaseGenerating
	PhaseDeciding
	PhaseFinished
)

// String returns the string representation.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseRetrieving:
		return "retrieving"
	case PhaseGenerating:
		return "generating"
	case PhaseDeciding:
		return "deciding"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Continuation is the outcome of the continuation predicate.
type Continuation string

// Continuation outcomes.
const (
	Continue Continuation = "continue"
	End      Continuation = "end"
)

// EventKind identifies a session event.
type EventKind int

// Session events.
const (
	EventInitialize EventKind = iota
	EventRetrieved
	EventGenerated
	EventNext
	EventFinish
)

// String returns the string representation.
func (k EventKind) String() string {
	switch k {
	case EventInitialize:
		return "initialize"
	case EventRetrieved:
		return "retrieved"
	case EventGenerated:
		return "generated"
	case EventNext:
		return "next"
	case EventFinish:
		return "finish"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is an input to Transition.
type Event struct {
	Kind      EventKind
	Questions []string
	Context   []RetrievedChunk
	Answer    string
}

// Initialize starts a session over questions.
func Initialize(questions []string) Event {
	return Event{Kind: EventInitialize, Questions: questions}
}

// Retrieved carries the context found for the current question.
func Retrieved(context []RetrievedChunk) Event {
	return Event{Kind: EventRetrieved, Context: context}
}

// Generated carries the answer text for the current question.
func Generated(answer string) Event {
	return Event{Kind: EventGenerated, Answer: answer}
}

// Next advances to the following question.
func Next() Event {
	return Event{Kind: EventNext}
}

// Finish ends the session.
func Finish() Event {
	return Event{Kind: EventFinish}
}

// Session is the state threaded through one question-answering run.
//
// Session is a value: Transition never modifies its input and returns
// the next state. The question list is copied on initialisation so callers
// cannot alias it.
type Session struct {
	phase     Phase
	questions []string
	index     int
	context   []RetrievedChunk
	answers   AnswerSet
	steps     int
}

// NewSession returns an uninitialised session.
func NewSession() Session {
	return Session{phase: PhaseUninitialized}
}

// Phase returns the current phase.
func (s Session) Phase() Phase { return s.phase }

// Finished returns true once the session is terminal.
func (s Session) Finished() bool { return s.phase == PhaseFinished }

// Index returns the position of the current question.
func (s Session) Index() int { return s.index }

// Total returns the number of questions in the session.
func (s Session) Total() int { return len(s.questions) }

// Question returns the current question, or "" when there is none.
func (s Session) Question() string {
	if s.index < 0 || s.index >= len(s.questions) {
		return ""
	}
	return s.questions[s.index]
}

// Questions returns a copy of the question list.
func (s Session) Questions() []string {
	out := make([]string, len(s.questions))
	copy(out, s.questions)
	return out
}

// Context returns the context retrieved for the current question.
func (s Session) Context() []RetrievedChunk {
	out := make([]RetrievedChunk, len(s.context))
	copy(out, s.context)
	return out
}

// Answers returns the accumulated answers.
func (s Session) Answers() AnswerSet { return s.answers }

// Steps returns the number of transitions applied so far.
func (s Session) Steps() int { return s.steps }

// ShouldContinue is the continuation predicate.
func (s Session) ShouldContinue() Continuation {
	if s.Finished() {
		return End
	}
	if s.index < len(s.questions)-1 {
		return Continue
	}
	return End
}

// MaxSteps bounds the transitions a session over n questions can take:
// initialise and finish, plus retrieve, generate and next per question.
func MaxSteps(n int) int {
	return 3*n + 2
}

// Transition applies ev to s and returns the resulting session.
// Retrieved and Generated on a finished session are no-ops; any other event in
// the wrong phase returns ErrInvalidTransition and the unchanged session.
func Transition(s Session, ev Event) (Session, error) {
	switch ev.Kind {
	case EventInitialize:
		if s.phase != PhaseUninitialized {
			return s, invalid(s, ev)
		}
		next := s
		next.steps++
		next.answers = AnswerSet{}
		if len(ev.Questions) == 0 {
			next.phase = PhaseFinished
			return next, nil
		}
		next.questions = make([]string, len(ev.Questions))
		copy(next.questions, ev.Questions)
		next.index = 0
		next.phase = PhaseRetrieving
		return next, nil

	case EventRetrieved:
		if s.Finished() {
			return s, nil
		}
		if s.phase != PhaseRetrieving {
			return s, invalid(s, ev)
		}
		next := s
		next.steps++
		next.context = make([]RetrievedChunk, len(ev.Context))
		copy(next.context, ev.Context)
		next.phase = PhaseGenerating
		return next, nil

	case EventGenerated:
		if s.Finished() {
			return s, nil
		}
		if s.phase != PhaseGenerating {
			return s, invalid(s, ev)
		}
		next := s
		next.steps++
		next.answers = s.answers.With(s.Question(), ev.Answer)
		next.phase = PhaseDeciding
		return next, nil

	case EventNext:
		if s.phase != PhaseDeciding || s.ShouldContinue() != Continue {
			return s, invalid(s, ev)
		}
		next := s
		next.steps++
		next.index = s.index + 1
		next.context = nil
		next.phase = PhaseRetrieving
		return next, nil

	case EventFinish:
		if s.Finished() {
			return s, nil
		}
		if s.phase != PhaseDeciding {
			return s, invalid(s, ev)
		}
		next := s
		next.steps++
		next.context = nil
		next.phase = PhaseFinished
		return next, nil

	default:
		return s, invalid(s, ev)
	}
}

func invalid(s Session, ev Event) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, ev.Kind, s.phase)
}
