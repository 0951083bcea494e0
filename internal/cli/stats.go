package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show what the index contains",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

type documentStats struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

type indexStats struct {
	Chunks    int             `json:"chunks"`
	Documents []documentStats `json:"documents"`
	Dimension int             `json:"dimension"`
	Model     string          `json:"model"`
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	idx, err := openExistingIndex(cfg, GetRootDir())
	if err != nil {
		return err
	}

	stats := indexStats{
		Chunks:    idx.Len(),
		Documents: []documentStats{},
		Dimension: idx.Dimension(),
		Model:     cfg.Embedding.Model,
	}
	for source, n := range idx.Sources() {
		stats.Documents = append(stats.Documents, documentStats{Source: source, Chunks: n})
	}
	sort.Slice(stats.Documents, func(i, j int) bool {
		return stats.Documents[i].Source < stats.Documents[j].Source
	})

	if statsJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Chunks:    %d\n", stats.Chunks)
	fmt.Printf("Documents: %d\n", len(stats.Documents))
	fmt.Printf("Embedding: %s (%d dimensions)\n", stats.Model, stats.Dimension)
	if len(stats.Documents) > 0 {
		fmt.Println()
		for _, d := range stats.Documents {
			fmt.Printf("  %5d  %s\n", d.Chunks, d.Source)
		}
	}
	return nil
}
