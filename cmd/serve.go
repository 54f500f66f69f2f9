package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cliplin/cliplin/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local HTTP API server",
	Long: `Starts an HTTP server exposing the context store as a JSON API,
including an HTML preview of stored markdown documents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(root)
		if err != nil {
			return err
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}

		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.Server.Port
		}
		allowAll, _ := cmd.Flags().GetBool("allow-all-origins")

		srv := server.New(server.Config{
			Port:     port,
			AllowAll: allowAll || cfg.Server.AllowAll,
		}, store, root)

		fmt.Fprintf(os.Stderr, "cliplin API server listening on :%d (root=%s)\n", port, root)
		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port to listen on (default from config)")
	serveCmd.Flags().Bool("allow-all-origins", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}
