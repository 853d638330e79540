package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect prompt templates",
	Long: `List and show the prompt templates used to answer questions and
aggregate the verdict. Templates live in the templates directory under the
configuration directory.`,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List template ids",
	RunE:  runTemplatesList,
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesShow,
}

func init() {
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	rootCmd.AddCommand(templatesCmd)
}

func runTemplatesList(cmd *cobra.Command, _ []string) error {
	if templateService == nil {
		return errors.New("template service not configured")
	}

	ids, err := templateService.List()
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}
	if len(ids) == 0 {
		cmd.Println("No templates found.")
		return nil
	}
	for _, id := range ids {
		cmd.Println(id)
	}
	return nil
}

func runTemplatesShow(cmd *cobra.Command, args []string) error {
	if templateService == nil {
		return errors.New("template service not configured")
	}

	text, err := templateService.Show(args[0])
	if err != nil {
		return fmt.Errorf("failed to show template: %w", err)
	}
	cmd.Println(text)
	return nil
}
