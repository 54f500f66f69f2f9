package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cliplin/cliplin/internal/contextstore"
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Work with individual documents",
}

var docAddCmd = &cobra.Command{
	Use:   "add [collection] [file]",
	Short: "Add a file's content as a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection, file := args[0], args[1]

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}

		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			id = uuid.NewString()
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}

		if _, err := store.AddDocuments(cmd.Context(), collection,
			[]string{id}, []string{string(content)}, nil); err != nil {
			return err
		}
		fmt.Printf("Added %s as %s.\n", file, id)
		return nil
	},
}

var docGetCmd = &cobra.Command{
	Use:   "get [collection] [id]",
	Short: "Print a document's content",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}

		bundle, err := store.GetDocuments(cmd.Context(), args[0], contextstore.GetOptions{IDs: []string{args[1]}})
		if err != nil {
			return err
		}
		if len(bundle.IDs) == 0 {
			return fmt.Errorf("document %q not found in %s", args[1], args[0])
		}
		fmt.Println(bundle.Documents[0])
		return nil
	},
}

var docRmCmd = &cobra.Command{
	Use:   "rm [collection] [id...]",
	Short: "Delete documents by id",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}

		deleted, err := store.DeleteDocuments(cmd.Context(), args[0], args[1:])
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d document(s).\n", deleted)
		return nil
	},
}

var docClassifyCmd = &cobra.Command{
	Use:   "classify [path]",
	Short: "Show which collection and type a file maps to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			return err
		}

		path := args[0]
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}

		collection, err := contextstore.CollectionForFile(path, root)
		if err != nil {
			return err
		}
		if collection == "" {
			fmt.Println("no match")
			return nil
		}
		typeTag, err := contextstore.TypeForFile(path, root)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", collection, typeTag)
		return nil
	},
}

func init() {
	docAddCmd.Flags().String("id", "", "document id; generated when omitted")

	docCmd.AddCommand(docAddCmd)
	docCmd.AddCommand(docGetCmd)
	docCmd.AddCommand(docRmCmd)
	docCmd.AddCommand(docClassifyCmd)
	rootCmd.AddCommand(docCmd)
}
