package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cliplin/cliplin/internal/contextstore"
)

var queryCmd = &cobra.Command{
	Use:   "query [collection] [question]",
	Short: "Semantically search a context collection",
	Args:  cobra.ExactArgs(2),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().Int("limit", 5, "maximum number of results")
	queryCmd.Flags().String("type", "", "filter by document type tag")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	collection, queryText := args[0], args[1]

	limit, _ := cmd.Flags().GetInt("limit")
	typeFilter, _ := cmd.Flags().GetString("type")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, _, err := openStore()
	if err != nil {
		return err
	}

	opts := contextstore.QueryOptions{NResults: limit}
	if typeFilter != "" {
		opts.Where = map[string]string{"type": typeFilter}
	}

	result, err := store.QueryDocuments(cmd.Context(), collection, []string{queryText}, opts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(result.IDs) == 0 || len(result.IDs[0]) == 0 {
		fmt.Println("No results found. Run `cliplin index` first to build the index.")
		return nil
	}

	if jsonOutput {
		return printQueryResultsJSON(result)
	}

	printQueryResultsTable(result)
	return nil
}

type queryResultJSON struct {
	Rank     int               `json:"rank"`
	ID       string            `json:"id"`
	Distance float64           `json:"distance"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Summary  string            `json:"summary"`
}

func printQueryResultsJSON(result *contextstore.QueryResult) error {
	var out []queryResultJSON
	for i, id := range result.IDs[0] {
		entry := queryResultJSON{
			Rank:    i + 1,
			ID:      id,
			Summary: truncate(result.Documents[0][i], 200),
		}
		if result.Distances != nil {
			entry.Distance = float64(result.Distances[0][i])
		}
		if result.Metadatas != nil {
			entry.Metadata = result.Metadatas[0][i]
		}
		out = append(out, entry)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func printQueryResultsTable(result *contextstore.QueryResult) {
	fmt.Printf("Found %d results:\n\n", len(result.IDs[0]))
	for i, id := range result.IDs[0] {
		fmt.Printf("  %d. [%.4f] %s\n", i+1, result.Distances[0][i], id)
		if result.Metadatas != nil {
			if t := result.Metadatas[0][i]["type"]; t != "" {
				fmt.Printf("     Type: %s\n", t)
			}
		}
		fmt.Printf("     %s\n\n", truncate(result.Documents[0][i], 120))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
