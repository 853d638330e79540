package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

const defaultHistoryLimit = 20

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse stored runs",
	Long:  `List, show and delete completed analysis runs.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored run",
	Long:  `Show a stored run. A unique prefix of the run ID is accepted.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	historyListCmd.Flags().IntP("limit", "n", defaultHistoryLimit, "maximum number of runs")
	historyListCmd.Flags().Bool("json", false, "print runs as JSON")
	historyShowCmd.Flags().Bool("json", false, "print the run as JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}
	limit, _ := cmd.Flags().GetInt("limit") //nolint:errcheck // flag is registered above
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag is registered above

	runs, err := historyService.List(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if asJSON {
		return printJSON(cmd.OutOrStdout(), runs)
	}
	if len(runs) == 0 {
		cmd.Println("No runs stored.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tQUESTIONS\tREPORT")
	for _, r := range runs {
		report := r.ReportTitle
		if report == "" {
			report = r.ReportURI
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", shortID(r.ID), r.CreatedAt.Local().Format(time.DateTime), r.Questions, report)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}
	asJSON, _ := cmd.Flags().GetBool("json") //nolint:errcheck // flag is registered above

	run, err := historyService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	if asJSON {
		return printJSON(cmd.OutOrStdout(), run)
	}
	cmd.Printf("Created: %s\n", run.CreatedAt.Local().Format(time.DateTime))
	if run.LLMModel != "" {
		cmd.Printf("Models: %s / %s\n", run.LLMModel, run.EmbeddingModel)
	}
	printRun(cmd, run)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	if err := historyService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	cmd.Printf("Deleted run %s\n", args[0])
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
