package cmd

import (
	"fmt"
	"time"

	"github.com/hargabyte/lens/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

This exposes the context pipeline to AI agents as tools instead of CLI
commands, which avoids process startup cost during heavy iterative work.

Available Tools:
  lens_context   Assemble token-bounded context around a code position
  lens_explain   Explain the code at a position using the local model

The server exits on its own after the inactivity timeout.

Examples:
  lens mcp                 # Serve with the default 30m timeout
  lens mcp --timeout 0     # Serve until killed`,
	RunE: runMCP,
}

var mcpTimeout time.Duration

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().DurationVar(&mcpTimeout, "timeout", 30*time.Minute, "Inactivity timeout (0 for no timeout)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	srv, err := mcp.New(mcp.Config{Timeout: mcpTimeout})
	if err != nil {
		return err
	}
	defer srv.Close()

	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
