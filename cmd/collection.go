package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var collectionCmd = &cobra.Command{
	Use:     "collection",
	Aliases: []string{"col"},
	Short:   "Inspect and manage context collections",
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		names, err := store.ListCollections(cmd.Context(), limit, offset)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var collectionInfoCmd = &cobra.Command{
	Use:   "info [name]",
	Short: "Show a collection's metadata and document count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}

		info, err := store.GetCollectionInfo(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		count, err := store.GetCollectionCount(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Name:      %s\n", info.Name)
		fmt.Printf("Documents: %d\n", count)
		if len(info.Metadata) > 0 {
			fmt.Println("Metadata:")
			for k, v := range info.Metadata {
				fmt.Printf("  %s: %s\n", k, v)
			}
		}
		return nil
	},
}

var collectionPeekCmd = &cobra.Command{
	Use:   "peek [name]",
	Short: "Show a sample of documents from a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		bundle, err := store.Peek(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}

		for i, id := range bundle.IDs {
			fmt.Printf("--- %s ---\n%s\n\n", id, truncate(bundle.Documents[i], 300))
		}
		return nil
	},
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a collection (no-op if it already exists)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		if err := store.CreateCollection(cmd.Context(), args[0], nil); err != nil {
			return err
		}
		fmt.Printf("Collection %s ready.\n", args[0])
		return nil
	},
}

var collectionRenameCmd = &cobra.Command{
	Use:   "rename [name] [new-name]",
	Short: "Rename a collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		if err := store.ModifyCollection(cmd.Context(), args[0], args[1], nil); err != nil {
			return err
		}
		fmt.Printf("Renamed %s to %s.\n", args[0], args[1])
		return nil
	},
}

var collectionForkCmd = &cobra.Command{
	Use:   "fork [name] [new-name]",
	Short: "Copy a collection under a new name",
	Long: `Copies all documents of a collection into a freshly created
collection. An existing collection at the destination name is replaced.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}

		names, err := store.ListCollections(cmd.Context(), 0, 0)
		if err != nil {
			return err
		}
		for _, name := range names {
			if name == args[1] {
				fmt.Fprintf(os.Stderr, "Warning: collection %s already exists and will be replaced.\n", args[1])
			}
		}

		if err := store.ForkCollection(cmd.Context(), args[0], args[1], nil); err != nil {
			return err
		}
		fmt.Printf("Forked %s into %s.\n", args[0], args[1])
		return nil
	},
}

var collectionRmCmd = &cobra.Command{
	Use:   "rm [name]",
	Short: "Delete a collection and all of its documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		if err := store.DeleteCollection(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted collection %s.\n", args[0])
		return nil
	},
}

func init() {
	collectionListCmd.Flags().Int("limit", 0, "maximum number of names (0 = all)")
	collectionListCmd.Flags().Int("offset", 0, "number of names to skip")
	collectionPeekCmd.Flags().Int("limit", 5, "maximum sample size")

	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionInfoCmd)
	collectionCmd.AddCommand(collectionPeekCmd)
	collectionCmd.AddCommand(collectionCreateCmd)
	collectionCmd.AddCommand(collectionRenameCmd)
	collectionCmd.AddCommand(collectionForkCmd)
	collectionCmd.AddCommand(collectionRmCmd)
	rootCmd.AddCommand(collectionCmd)
}
