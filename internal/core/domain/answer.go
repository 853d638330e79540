package domain

import "strings"

// Answer is the generated response to one question.
type Answer struct {
	// Question is the question text the answer belongs to.
	Question string `json:"question"`

	// Text is the completion output, verbatim.
	Text string `json:"text"`
}

// AnswerSet maps question text to answer text, preserving the order in
// which each distinct question was first answered.
//
// Questions are keyed by text: answering the same question twice keeps
// its original position and replaces the text (last write wins).
// The zero value is an empty set. AnswerSet values are never mutated;
// With returns a new set.
type AnswerSet struct {
	answers []Answer
	index   map[string]int
}

// NewAnswerSet builds a set from answers in order, collapsing duplicate questions.
func NewAnswerSet(answers ...Answer) AnswerSet {
	var set AnswerSet
	for _, a := range answers {
		set = set.With(a.Question, a.Text)
	}
	return set
}

// With returns a copy of the set with question answered by text.
func (s AnswerSet) With(question, text string) AnswerSet {
	next := AnswerSet{
		answers: make([]Answer, len(s.answers), len(s.answers)+1),
		index:   make(map[string]int, len(s.index)+1),
	}
	copy(next.answers, s.answers)
	for k, v := range s.index {
		next.index[k] = v
	}

	if i, ok := next.index[question]; ok {
		next.answers[i].Text = text
		return next
	}
	next.index[question] = len(next.answers)
	next.answers = append(next.answers, Answer{Question: question, Text: text})
	return next
}

// Len returns the number of distinct questions answered.
func (s AnswerSet) Len() int {
	return len(s.answers)
}

// Get returns the answer text for a question.
func (s AnswerSet) Get(question string) (string, bool) {
	i, ok := s.index[question]
	if !ok {
		return "", false
	}
	return s.answers[i].Text, true
}

// Has returns true if the question has been answered.
func (s AnswerSet) Has(question string) bool {
	_, ok := s.index[question]
	return ok
}

// Answers returns the answers in question order.
func (s AnswerSet) Answers() []Answer {
	out := make([]Answer, len(s.answers))
	copy(out, s.answers)
	return out
}

// Map returns the answers as a plain question to text mapping.
// Map iteration order is unspecified; use Answers or AnalysisText when order matters.
func (s AnswerSet) Map() map[string]string {
	out := make(map[string]string, len(s.answers))
	for _, a := range s.answers {
		out[a.Question] = a.Text
	}
	return out
}

// AnalysisText flattens the answers into the decision input, in question order,
// separated by a blank line.
func (s AnswerSet) AnalysisText() string {
	parts := make([]string, len(s.answers))
	for i, a := range s.answers {
		parts[i] = a.Text
	}
	return strings.Join(parts, "\n\n")
}

// DuplicateQuestions returns question texts that appear more than once, in
// order of their first repeat.
func DuplicateQuestions(questions []string) []string {
	seen := make(map[string]int, len(questions))
	var dups []string
	for _, q := range questions {
		seen[q]++
		if seen[q] == 2 {
			dups = append(dups, q)
		}
	}
	return dups
}
