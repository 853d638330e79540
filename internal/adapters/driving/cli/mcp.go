package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/auditrag/internal/adapters/driving/mcp"
	"github.com/custodia-labs/auditrag/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can audit reports.

By default, the server communicates over stdio using JSON-RPC.
Use --port to serve streamable HTTP instead.

Tools: analyze_report, ask_report, list_questions
Resources: auditrag://runs, auditrag://runs/{runId}, auditrag://templates/{templateId}

Examples:
  # Stdio mode (default)
  auditrag mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  auditrag mcp serve --port 8080

Desktop client configuration:
  {
    "mcpServers": {
      "auditrag": {
        "command": "/path/to/auditrag",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	analysis, err := analysisService()
	if err != nil {
		return err
	}

	ports := &mcp.Ports{
		Analysis:  analysis,
		History:   historyService,
		Templates: templateService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if watchTemplates != nil {
		go func() {
			err := watchTemplates(ctx, func(id string) {
				logger.Info("Template %s changed", id)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Template watcher stopped: %v", err)
			}
		}()
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
