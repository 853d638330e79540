package driven

// Template is a parametrised prompt skeleton.
type Template interface {
	// ID returns the identifier the template was loaded by.
	ID() string

	// Text returns the raw template text.
	Text() string

	// Variables returns the field names the template expects.
	Variables() []string

	// Render substitutes fields into the template.
	// A missing field is an error; extra fields are ignored.
	Render(fields map[string]any) (string, error)
}

// TemplateStore resolves prompt templates by id.
// Implementations may load templates from files, embed them in the binary,
// or fetch them from a remote catalog.
type TemplateStore interface {
	// Load returns the template for id.
	// Returns an error wrapping domain.ErrTemplateNotFound if id is unknown.
	Load(id string) (Template, error)

	// List returns the ids of all known templates, sorted.
	List() ([]string, error)

	// Reload clears any cached templates, forcing fresh loads on next access.
	Reload()
}

// Template fields rendered by the pipeline.
const (
	// FieldQuestion is the question text in the answer template.
	FieldQuestion = "question"

	// FieldContext is the retrieved context in the answer template.
	FieldContext = "context"

	// FieldAnalysisResults is the flattened answers in the decision template.
	FieldAnalysisResults = "analysis_results"
)
