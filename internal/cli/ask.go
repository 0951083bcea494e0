package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"docrag/internal/domain"
)

var (
	askQuestion string
	askTopK     int
	askDoc      string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieve the chunks most relevant to a question and ask the configured
generation model to answer from them. The answer is printed with the chunks
that were searched.

Use --doc to answer only from chunks of one document (matched by file name).

Examples:
  docrag ask -q "What sample size was used?"
  docrag ask -q "Summarize the results" --doc report.pdf --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "query", "q", "", "question (required)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().StringVar(&askDoc, "doc", "", "only answer from this document (file name)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
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

	answerUC, err := newAnswerUseCase(cfg, newRetrieveUseCase(cfg, idx, emb))
	if err != nil {
		return err
	}

	topK := topKOrDefault(askTopK)
	var ans domain.Answer
	if askDoc != "" {
		ans, err = answerUC.AnswerFrom(cmd.Context(), askQuestion, topK, askDoc)
	} else {
		ans, err = answerUC.Answer(cmd.Context(), askQuestion, topK)
	}
	if err != nil {
		return err
	}

	if askJSON {
		output, _ := json.MarshalIndent(ans, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(ans.Text)
	if len(ans.Sources) > 0 {
		fmt.Printf("\nSources:\n\n")
		printSources(ans.Sources, 300)
	}
	return nil
}
