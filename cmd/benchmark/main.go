package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"docrag/config"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/retriever"
	"docrag/internal/adapter/store"
	"docrag/internal/domain"
)

func main() {
	indexDir := flag.String("index", ".", "Directory holding the .rag index")
	query := flag.String("q", "", "Query to test")
	queryFile := flag.String("f", "", "File with one query per line")
	topK := flag.Int("k", 10, "Number of results")
	repeat := flag.Int("repeat", 2, "Times to run each query (runs after the first hit the embedding cache)")
	flag.Parse()

	queries, err := loadQueries(*query, *queryFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading queries: %v\n", err)
		os.Exit(1)
	}
	if len(queries) == 0 {
		fmt.Println("Usage: go run ./cmd/benchmark -index ./papers -q \"query\" [-f queries.txt] [-repeat 2]")
		fmt.Println("\nReports:")
		fmt.Println("  1. Embedding setup (model, dimension, indexed chunks)")
		fmt.Println("  2. Similarity of the top matches with relevance bands")
		fmt.Println("  3. How many matches clear the answer threshold")
		fmt.Println("  4. Cold and cached query latency")
		os.Exit(1)
	}
	if *repeat < 1 {
		*repeat = 1
	}

	cfg, err := config.LoadFromDir(*indexDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	idx, err := store.OpenFlatIndex(cfg.Embedding.Dimension, cfg.IndexPath(*indexDir), cfg.MetaPath(*indexDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	if idx.Len() == 0 {
		fmt.Fprintln(os.Stderr, "Index is empty. Run 'docrag index' first.")
		os.Exit(1)
	}

	base, err := embedding.NewEmbedder(cfg.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Semantic search not available: %v\n", err)
		os.Exit(1)
	}
	embedder := embedding.NewCachedEmbedder(base, cfg.Embedding.CacheSize, time.Hour)
	defer embedder.Close()
	search := retriever.NewSemanticRetriever(idx, embedder)

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Chunks indexed: %d\n", idx.Len())
	fmt.Printf("Model: %s (%s)\n", embedder.ModelName(), cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Printf("Queries: %d x %d runs\n", len(queries), *repeat)
	fmt.Println()

	var cold, warm time.Duration
	for _, q := range queries {
		var results []domain.SearchResult
		for run := 0; run < *repeat; run++ {
			start := time.Now()
			results, err = search.Search(context.Background(), q, *topK)
			elapsed := time.Since(start)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
				os.Exit(1)
			}
			if run == 0 {
				cold += elapsed
			} else {
				warm += elapsed
			}
		}
		report(q, results, cfg.Retrieve.MinScore)
	}

	hits, misses := embedder.CacheStats()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("LATENCY:\n")
	fmt.Printf("  Cold query (avg):   %s\n", cold/time.Duration(len(queries)))
	if *repeat > 1 {
		fmt.Printf("  Cached query (avg): %s\n", warm/time.Duration(len(queries)*(*repeat-1)))
	}
	fmt.Printf("  Embedding cache:    %d hits, %d misses\n", hits, misses)
}

// loadQueries combines the -q query with the non-empty lines of path.
func loadQueries(query, path string) ([]string, error) {
	var queries []string
	if q := strings.TrimSpace(query); q != "" {
		queries = append(queries, q)
	}
	if path == "" {
		return queries, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if q := strings.TrimSpace(sc.Text()); q != "" {
			queries = append(queries, q)
		}
	}
	return queries, sc.Err()
}

type metrics struct {
	Average  float64
	Top      float64
	Relevant int
}

func summarize(results []domain.SearchResult, minScore float64) metrics {
	var m metrics
	if len(results) == 0 {
		return m
	}
	total := 0.0
	for _, r := range results {
		total += r.Score
		if r.Score > minScore {
			m.Relevant++
		}
	}
	m.Average = total / float64(len(results))
	m.Top = results[0].Score
	return m
}

func report(query string, results []domain.SearchResult, minScore float64) {
	fmt.Printf("Query: \"%s\"\n", query)
	fmt.Println(strings.Repeat("-", 70))

	if len(results) == 0 {
		fmt.Println("No matches.")
		fmt.Println()
		return
	}

	fmt.Printf("Top %d matches:\n\n", len(results))
	for i, r := range results {
		text := strings.ReplaceAll(preview(chunker.StripContext(r.Text), 150), "\n", " ")
		fmt.Printf("%d. [%s %.3f] %s | chunk %d\n", i+1, strings.ToUpper(string(domain.RelevanceOf(r.Score))), r.Score, filepath.Base(r.Source), r.ChunkID)
		fmt.Printf("   %s\n\n", text)
	}

	m := summarize(results, minScore)
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", m.Average)
	fmt.Printf("  Top-1 similarity:   %.3f\n", m.Top)
	fmt.Printf("  Above threshold:    %d/%d (min score %.2f)\n", m.Relevant, len(results), minScore)

	switch {
	case m.Average > 0.5:
		fmt.Println("  Status: GOOD - retrieval working well")
	case m.Average > minScore:
		fmt.Println("  Status: OK - results are somewhat related")
	default:
		fmt.Println("  Status: POOR - answers will fall back to the no-information reply")
	}
	fmt.Println()
}

func preview(text string, maxChars int) string {
	if utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	return string([]rune(text)[:maxChars]) + "..."
}
