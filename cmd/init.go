package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cliplin/cliplin/internal/config"
	"github.com/cliplin/cliplin/internal/contextstore"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Configure the project and provision its context collections",
	Long: `Runs an interactive wizard to configure the embedding provider,
writes .cliplin/config.yml, and creates any missing context collections.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			return err
		}

		skipWizard, _ := cmd.Flags().GetBool("defaults")
		if skipWizard {
			cfg := config.DefaultConfig()
			if err := cfg.Save(config.Path(root)); err != nil {
				return err
			}
			fmt.Printf("Configuration saved to %s\n", config.Path(root))
		} else if _, err := config.RunWizard(root); err != nil {
			return err
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}

		missing, err := store.EnsureCollections(cmd.Context())
		if err != nil {
			return fmt.Errorf("provisioning collections: %w", err)
		}

		if len(missing) == 0 {
			fmt.Fprintln(os.Stderr, "All collections already present.")
		} else {
			for _, name := range missing {
				fmt.Fprintf(os.Stderr, "  created collection %s\n", name)
			}
		}
		fmt.Printf("Context store ready at %s\n", contextstore.DatabasePath(root))
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("defaults", false, "skip the wizard and write default configuration")
	rootCmd.AddCommand(initCmd)
}
