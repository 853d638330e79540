package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/auditrag/internal/core/domain"
)

// questionFile is the mapping form of a questions file.
type questionFile struct {
	Questions []string `yaml:"questions"`
}

// loadQuestions reads a question list from a YAML file. The file holds
// either a plain sequence or a mapping with a questions key.
func loadQuestions(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading questions file: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: parsing questions file: %v", domain.ErrInvalidInput, err)
	}

	var raw []string
	if len(node.Content) > 0 {
		root := node.Content[0]
		switch root.Kind {
		case yaml.SequenceNode:
			err = root.Decode(&raw)
		case yaml.MappingNode:
			var f questionFile
			err = root.Decode(&f)
			raw = f.Questions
		default:
			err = errors.New("expected a list of questions")
		}
		if err != nil {
			return nil, fmt.Errorf("%w: questions file: %v", domain.ErrInvalidInput, err)
		}
	}

	questions := make([]string, 0, len(raw))
	for i, q := range raw {
		q = strings.TrimSpace(q)
		if q == "" {
			return nil, fmt.Errorf("%w: question %d is blank", domain.ErrInvalidInput, i+1)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List the audit questions",
	Long: `Print the questions an analysis answers.

Without --questions the built-in battery is shown.`,
	Annotations: map[string]string{skipBootstrap: "true"},
	RunE:        runQuestions,
}

func init() {
	questionsCmd.Flags().String("questions", "", "YAML file with the question list")
	rootCmd.AddCommand(questionsCmd)
}

func runQuestions(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("questions") //nolint:errcheck // flag is registered above

	questions := domain.DefaultQuestions()
	if path != "" {
		var err error
		if questions, err = loadQuestions(path); err != nil {
			return err
		}
	}

	if len(questions) == 0 {
		cmd.Println("No questions.")
		return nil
	}
	for i, q := range questions {
		cmd.Printf("%2d. %s\n", i+1, q)
	}
	for _, dup := range domain.DuplicateQuestions(questions) {
		cmd.PrintErrf("Warning: duplicate question %q is answered once\n", dup)
	}
	return nil
}
