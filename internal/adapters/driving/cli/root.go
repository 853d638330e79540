// Package cli implements the auditrag command-line interface with cobra.
// Commands run against driving ports set through SetServices or built on
// first use by the Bootstrap passed to Execute.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/auditrag/internal/core/ports/driving"
	"github.com/custodia-labs/auditrag/internal/logger"
)

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

// version is set at build time.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// AnalysisFactory builds the analysis pipeline from the current settings.
// Provider errors surface only for commands that need the pipeline.
type AnalysisFactory func() (driving.AnalysisService, error)

// Services holds the core services commands run against.
type Services struct {
	Settings  driving.SettingsService
	Templates driving.TemplateService
	History   driving.HistoryService
	Analysis  AnalysisFactory

	// WatchTemplates reloads templates on change until ctx ends. May be nil.
	WatchTemplates func(ctx context.Context, onChange func(id string)) error

	// Close releases resources held by the services. May be nil.
	Close func() error
}

// Bootstrap builds Services for a config directory.
// An empty directory selects the default location.
type Bootstrap func(configDir string) (*Services, error)

var (
	settingsService driving.SettingsService
	templateService driving.TemplateService
	historyService  driving.HistoryService
	analysisFactory AnalysisFactory
	watchTemplates  func(ctx context.Context, onChange func(id string)) error
	closeServices   func() error

	bootstrap  Bootstrap
	configured bool
)

var rootCmd = &cobra.Command{
	Use:   "auditrag",
	Short: "Audit project reports with retrieval-augmented generation",
	Long: `auditrag answers a fixed battery of audit questions about a report
by retrieving the most relevant passages for each question, then aggregates
the answers into a single verdict.

Configure providers with 'auditrag settings', then run:
  auditrag analyze report.md`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.auditrag)")
}

// SetServices sets the services used by all commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	settingsService = s.Settings
	templateService = s.Templates
	historyService = s.History
	analysisFactory = s.Analysis
	watchTemplates = s.WatchTemplates
	closeServices = s.Close
	configured = true
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Services are built with boot before the
// first command that needs them and released on return.
func Execute(ctx context.Context, boot Bootstrap) error {
	bootstrap = boot
	if rootCmd.OutOrStderr() == os.Stderr {
		rootCmd.SetOut(os.Stdout)
	}
	defer func() {
		if closeServices != nil {
			if err := closeServices(); err != nil {
				logger.Warn("Closing services: %v", err)
			}
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if configured || bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}
	s, err := bootstrap(configDir)
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

// analysisService builds the pipeline for commands that run it.
func analysisService() (driving.AnalysisService, error) {
	if analysisFactory == nil {
		return nil, errors.New("analysis service not configured")
	}
	return analysisFactory()
}
