package cli

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"docrag/internal/adapter/chunker"
	"docrag/internal/domain"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search indexed documents",
	Long: `Show the indexed chunks most similar to a query, without generating an answer.

Examples:
  docrag query -q "sampling strategy"
  docrag query -q "related work" --top-k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	idx, err := openExistingIndex(cfg, GetRootDir())
	if err != nil {
		return err
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer emb.Close()

	results, err := newRetrieveUseCase(cfg, idx, emb).Retrieve(cmd.Context(), queryText, topKOrDefault(queryTopK))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
	printSources(results, 500)
	return nil
}

// printSources lists results with their relevance band, truncating text to
// maxChars characters.
func printSources(results []domain.SearchResult, maxChars int) {
	for i, r := range results {
		fmt.Printf("--- [%d] %s | chunk %d (score: %.2f, %s) ---\n",
			i+1, r.Source, r.ChunkID, r.Score, domain.RelevanceOf(r.Score))
		fmt.Println(preview(chunker.StripContext(r.Text), maxChars))
		fmt.Println()
	}
}

func preview(text string, maxChars int) string {
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	return string([]rune(text)[:maxChars]) + "..."
}
