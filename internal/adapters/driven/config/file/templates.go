package file

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/tmc/langchaingo/prompts"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driven"
	"github.com/custodia-labs/auditrag/internal/logger"
)

// Ensure TemplateStore implements the interface.
var _ driven.TemplateStore = (*TemplateStore)(nil)

// templateExt is the file extension of template files.
const templateExt = ".txt"

//go:embed defaults/*.txt
var defaultFS embed.FS

// validID matches template ids that are safe to use as file names.
var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// placeholder matches a single-brace f-string field.
var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template is an f-string prompt template. Fields are written {name};
// a literal brace is written {{ or }}.
type Template struct {
	id        string
	text      string
	variables []string
	prompt    prompts.PromptTemplate
}

// NewTemplate parses text as an f-string template.
func NewTemplate(id, text string) *Template {
	vars := parseVariables(text)
	return &Template{
		id:        id,
		text:      text,
		variables: vars,
		prompt: prompts.PromptTemplate{
			Template:       text,
			InputVariables: vars,
			TemplateFormat: prompts.TemplateFormatFString,
		},
	}
}

// ID returns the identifier the template was loaded by.
func (t *Template) ID() string { return t.id }

// Text returns the raw template text.
func (t *Template) Text() string { return t.text }

// Variables returns the field names the template expects, in first-use order.
func (t *Template) Variables() []string {
	out := make([]string, len(t.variables))
	copy(out, t.variables)
	return out
}

// Render substitutes fields into the template.
// A missing field is an error; extra fields are ignored.
func (t *Template) Render(fields map[string]any) (string, error) {
	for _, v := range t.variables {
		if _, ok := fields[v]; !ok {
			return "", fmt.Errorf("template %q: missing field %q", t.id, v)
		}
	}
	values := make(map[string]any, len(t.variables))
	for _, v := range t.variables {
		values[v] = fields[v]
	}
	out, err := t.prompt.Format(values)
	if err != nil {
		return "", fmt.Errorf("template %q: %w", t.id, err)
	}
	return out, nil
}

func parseVariables(text string) []string {
	stripped := strings.NewReplacer("{{", "", "}}", "").Replace(text)
	seen := make(map[string]bool)
	var vars []string
	for _, m := range placeholder.FindAllStringSubmatch(stripped, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			vars = append(vars, m[1])
		}
	}
	return vars
}

// TemplateStore loads prompt templates from user-editable files on disk.
// Templates live at <dir>/<id>.txt with fallback to embedded defaults.
//
// The store uses lazy initialisation - the directory and default files are
// only created on first Load, not in the constructor.
type TemplateStore struct {
	mu       sync.RWMutex
	dir      string
	cache    map[string]*Template
	defaults map[string]string
	initOnce sync.Once
	initErr  error
}

// NewTemplateStore creates a new file-based template store.
// If dir is empty, defaults to ~/.auditrag/templates/.
func NewTemplateStore(dir string) (*TemplateStore, error) {
	if dir == "" {
		base, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(base, "templates")
	}

	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	return &TemplateStore{
		dir:      dir,
		cache:    make(map[string]*Template),
		defaults: defaults,
	}, nil
}

func loadDefaults() (map[string]string, error) {
	entries, err := defaultFS.ReadDir("defaults")
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := defaultFS.ReadFile("defaults/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded template %q: %w", e.Name(), err)
		}
		out[strings.TrimSuffix(e.Name(), templateExt)] = strings.TrimSpace(string(data))
	}
	return out, nil
}

// Load returns the template for id.
// A user file takes precedence over the embedded default of the same id.
func (s *TemplateStore) Load(id string) (driven.Template, error) {
	if !validID.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", domain.ErrTemplateNotFound, id)
	}

	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	if tmpl, ok := s.cache[id]; ok {
		s.mu.RUnlock()
		return tmpl, nil
	}
	s.mu.RUnlock()

	text, err := s.loadFromFile(id)
	if err != nil {
		def, ok := s.defaults[id]
		if !ok {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %q", domain.ErrTemplateNotFound, id)
			}
			return nil, fmt.Errorf("load template %q: %w", id, err)
		}
		text = def
	}

	tmpl := NewTemplate(id, text)

	s.mu.Lock()
	if cached, ok := s.cache[id]; ok {
		tmpl = cached
	} else {
		s.cache[id] = tmpl
	}
	s.mu.Unlock()

	return tmpl, nil
}

// List returns the ids of the embedded defaults and every template file, sorted.
func (s *TemplateStore) List() ([]string, error) {
	s.initOnce.Do(s.initialise)

	ids := make(map[string]bool, len(s.defaults))
	for id := range s.defaults {
		ids[id] = true
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != templateExt {
			continue
		}
		if id := strings.TrimSuffix(e.Name(), templateExt); validID.MatchString(id) {
			ids[id] = true
		}
	}

	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Reload clears the template cache, forcing fresh loads from disk.
func (s *TemplateStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]*Template)
	s.mu.Unlock()
}

// Dir returns the template directory path.
func (s *TemplateStore) Dir() string {
	return s.dir
}

// Watch reloads the cache whenever a template file is written, created,
// removed or renamed, calling onChange with the template id.
// It blocks until ctx is done.
func (s *TemplateStore) Watch(ctx context.Context, onChange func(id string)) error {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(event.Name) != templateExt {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			s.Reload()
			id := strings.TrimSuffix(filepath.Base(event.Name), templateExt)
			logger.Debug("template %s changed (%s), cache cleared", id, event.Op)
			if onChange != nil {
				onChange(id)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("template watcher: %v", err)
		}
	}
}

// initialise creates the template directory and default files.
// Called once via sync.Once.
func (s *TemplateStore) initialise() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.initErr = fmt.Errorf("create template directory: %w", err)
		logger.Warn("%v; using embedded templates", s.initErr)
		return
	}

	for id, content := range s.defaults {
		path := filepath.Join(s.dir, id+templateExt)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default template %q: %w", id, err)
				logger.Warn("%v; using embedded templates", s.initErr)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a template from disk.
func (s *TemplateStore) loadFromFile(id string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id+templateExt))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the templates directory.
func (s *TemplateStore) createReadme() error {
	path := filepath.Join(s.dir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# auditrag templates

Prompt templates used by the analysis pipeline. Each file is <id>.txt.

- ` + "`rag-prompt.txt`" + ` - answers one audit question from retrieved report context
- ` + "`final-decision-maker.txt`" + ` - turns the collected answers into a funding verdict

## Placeholders

Templates use {name} fields:
- ` + "`{question}`" + ` and ` + "`{context}`" + ` in the answer template
- ` + "`{analysis_results}`" + ` in the decision template

Write {{ or }} for a literal brace. Add new files to define new templates and
select them with ` + "`auditrag settings set templates.answer <id>`" + `.
`
	return os.WriteFile(path, []byte(content), 0600)
}
