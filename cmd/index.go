package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cliplin/cliplin/internal/indexer"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the documentation tree into the context store",
	Long: `Walks the project's mapped documentation directories (docs/adrs,
docs/business, docs/features, docs/ts4, docs/ui-intent), routes every
file to its collection, and adds or refreshes its document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, root, err := openStore()
		if err != nil {
			return err
		}

		if _, err := store.EnsureCollections(cmd.Context()); err != nil {
			return fmt.Errorf("provisioning collections: %w", err)
		}

		ix := indexer.New(root, store)
		noProgress, _ := cmd.Flags().GetBool("no-progress")
		ix.ShowProgress(!noProgress)

		result, err := ix.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Indexed %d document(s) (%d new, %d updated, %d skipped)\n",
			result.Added+result.Updated, result.Added, result.Updated, result.Skipped)
		for collection, count := range result.ByCollection {
			fmt.Printf("  %-30s %d\n", collection, count)
		}
		return nil
	},
}

func init() {
	indexCmd.Flags().Bool("no-progress", false, "disable the progress bar")
	rootCmd.AddCommand(indexCmd)
}
