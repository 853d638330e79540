package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <report> <question>",
	Short: "Ask one question about a report",
	Long: `Answer a single question from the report passages most relevant to it.
No verdict is produced and nothing is stored in history.

Example:
  auditrag ask report.md "Was the budget approved?"`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "print the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag is registered above

	svc, err := analysisService()
	if err != nil {
		return err
	}

	answer, err := svc.Ask(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if asJSON {
		return printJSON(cmd.OutOrStdout(), answer)
	}
	cmd.Println(answer.Text)
	return nil
}
