package driving

// TemplateService exposes the prompt templates used by the pipeline.
type TemplateService interface {
	// List returns the ids of all known templates.
	List() ([]string, error)

	// Show returns the raw text of a template.
	Show(id string) (string, error)
}
