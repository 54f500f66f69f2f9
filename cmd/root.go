package cmd

import (
	"github.com/spf13/cobra"
)

var (
	projectRoot string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "cliplin",
	Short: "Project context store with semantic search over the documentation tree",
	Long: `Cliplin maintains a per-project context database fed from the
documentation tree (ADRs, features, tech specs, UI intents). Documents
are routed into named collections and indexed for semantic search, and
the whole store is exposed to AI agents via MCP and to tooling via a
local HTTP API.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "project root directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
