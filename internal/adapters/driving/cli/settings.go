package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/auditrag/internal/core/domain"
	"github.com/custodia-labs/auditrag/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, chunking, retrieval and retry options.

Use subcommands to change a single setting or configure a provider interactively.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key.

Examples:
  auditrag settings set pipeline.chunk_size 800
  auditrag settings set llm.model llama-3.1-8b-instant
  auditrag settings set history.enabled false

Run 'auditrag settings keys' for the full list.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List setting keys",
	Annotations: map[string]string{skipBootstrap: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		for _, k := range services.SettingKeys() {
			cmd.Println(k)
		}
	},
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Ping the configured providers",
	RunE:  runSettingsCheck,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used to index report chunks.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used to answer questions and decide the verdict.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	cmd.Printf("  Cache size: %d\n", settings.Embedding.CacheSize)
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Println()

	p := settings.Pipeline
	cmd.Println("[Pipeline]")
	cmd.Printf("  Chunk size: %d\n", p.ChunkSize)
	cmd.Printf("  Chunk overlap: %d\n", p.ChunkOverlap)
	cmd.Printf("  Top K: %d\n", p.TopK)
	cmd.Printf("  Retry: %d attempts, %s base\n", p.RetryAttempts, p.RetryBase())
	cmd.Printf("  Call timeout: %s\n", p.CallTimeout())
	cmd.Println()

	cmd.Println("[Templates]")
	cmd.Printf("  Answer: %s\n", settings.Templates.Answer)
	cmd.Printf("  Decision: %s\n", settings.Templates.Decision)
	cmd.Println()

	cmd.Println("[History]")
	if settings.History.Enabled {
		cmd.Println("  Enabled: yes")
	} else {
		cmd.Println("  Enabled: no")
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'auditrag settings embedding' or 'auditrag settings llm' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	cmd.Printf("  Provider: %s\n", provider.Description())
	cmd.Printf("  Model: %s\n", model)
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		if apiKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(apiKey))
		} else {
			cmd.Printf("  API Key: (not set, %s)\n", provider.APIKeyEnv())
		}
	}
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	value := args[1]
	if strings.HasSuffix(args[0], "api_key") {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", args[0], value)
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var failed bool
	cmd.Print("Embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = true
	} else {
		cmd.Println("OK")
	}

	cmd.Print("LLM provider... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		failed = true
	} else {
		cmd.Println("OK")
	}

	if failed {
		return errors.New("provider check failed")
	}
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal, otherwise a line from reader.
//
//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
