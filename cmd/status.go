package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cliplin/cliplin/internal/contextstore"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the project context store",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, root, err := openStore()
		if err != nil {
			return err
		}

		fmt.Printf("Project root: %s\n", root)
		fmt.Printf("Database:     %s\n", contextstore.DatabasePath(root))

		if !store.IsInitialized() {
			fmt.Println("Status:       not initialized (run `cliplin init`)")
			return nil
		}
		fmt.Println("Status:       initialized")

		names, err := store.ListCollections(cmd.Context(), 0, 0)
		if err != nil {
			return err
		}

		fmt.Printf("\nCollections (%d):\n", len(names))
		for _, name := range names {
			count, err := store.GetCollectionCount(cmd.Context(), name)
			if err != nil {
				fmt.Printf("  %-30s ?\n", name)
				continue
			}
			fmt.Printf("  %-30s %d documents\n", name, count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
