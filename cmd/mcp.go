package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/cliplin/cliplin/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long: `Starts a Model Context Protocol (MCP) server on stdio, exposing the
project context store to AI agents like Claude Code and Cursor. Stdout
carries the protocol channel, so nothing else is ever written to it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, root, err := openStore()
		if err != nil {
			return err
		}

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "cliplin MCP server started on stdio (root=%s)\n", root)

		srv := mcpserver.NewServer(store, root)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
