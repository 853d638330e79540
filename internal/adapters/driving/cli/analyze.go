package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/auditrag/internal/adapters/driving/tui"
	"github.com/custodia-labs/auditrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/ports/driving"
	"github.com/custodia-labs/auditrag/internal/logger"
)

// isTerminal reports whether stdout is an interactive terminal.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// runInteractive runs an analysis behind the progress view.
var runInteractive = func(cmd *cobra.Command, svc driving.AnalysisService, uri string, opts driving.AnalyzeOptions) (*domain.Run, error) {
	prev := logger.Output()
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(prev)

	return tui.Run(cmd.Context(), &tui.Ports{Analysis: svc}, uri, opts)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <report>",
	Short: "Audit a report",
	Long: `Answer every audit question about a report and aggregate a verdict.

The report is chunked and indexed, each question is answered from the
passages most relevant to it, and the answers are combined into one verdict.
Reports may be plain text, markdown, html or docx.

Examples:
  auditrag analyze report.md
  auditrag analyze report.docx --questions questions.yaml
  auditrag analyze report.txt --json > run.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("questions", "", "YAML file with the question list")
	analyzeCmd.Flags().Bool("json", false, "print the run as JSON")
	analyzeCmd.Flags().Bool("interactive", false, "show live progress (default when stdout is a terminal)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")             //nolint:errcheck // flag is registered above
	questionsPath, _ := cmd.Flags().GetString("questions") //nolint:errcheck // flag is registered above

	interactive := isTerminal()
	if cmd.Flags().Changed("interactive") {
		interactive, _ = cmd.Flags().GetBool("interactive") //nolint:errcheck // flag is registered above
	}
	if asJSON {
		interactive = false
	}

	var opts driving.AnalyzeOptions
	if questionsPath != "" {
		questions, err := loadQuestions(questionsPath)
		if err != nil {
			return err
		}
		opts.Questions = questions
	}

	svc, err := analysisService()
	if err != nil {
		return err
	}

	var run *domain.Run
	if interactive {
		run, err = runInteractive(cmd, svc, args[0], opts)
	} else {
		opts.OnProgress = progressPrinter(cmd.ErrOrStderr())
		run, err = svc.Analyze(cmd.Context(), args[0], opts)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if asJSON {
		return printJSON(cmd.OutOrStdout(), run)
	}
	printRun(cmd, run)
	return nil
}

// progressPrinter writes one line per question and one for the verdict.
func progressPrinter(w io.Writer) domain.ProgressFunc {
	return func(ev domain.ProgressEvent) {
		switch ev.Kind {
		case domain.ProgressChunked, domain.ProgressQuestionStart, domain.ProgressDeciding:
			fmt.Fprintf(w, "%s...\n", messages.StageLabel(ev))
		default:
		}
	}
}

func printRun(cmd *cobra.Command, run *domain.Run) {
	title := run.ReportTitle
	if title == "" {
		title = run.ReportURI
	}
	cmd.Println(title)
	cmd.Printf("Run: %s\n\n", run.ID)

	for i, a := range run.Answers {
		cmd.Printf("Q%d. %s\n", i+1, a.Question)
		cmd.Println(indent(a.Text, "    "))
		cmd.Println()
	}

	cmd.Println("Verdict")
	cmd.Println("=======")
	cmd.Println(run.Verdict())
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
