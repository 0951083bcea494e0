package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docrag/config"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/extract"
	"docrag/internal/adapter/fs"
	"docrag/internal/adapter/store"
	"docrag/internal/domain"
	"docrag/internal/port"
	"docrag/internal/usecase"
)

var indexRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index [paths...]",
	Short: "Index documents for question answering",
	Long: `Index PDF, Markdown and text documents. Directories are walked using the
include/exclude patterns from the config; files named explicitly are always
indexed. The index is stored in .rag/ under the root directory.

Documents that have not changed since they were last indexed are skipped.

Examples:
  docrag index                     # Index the root directory
  docrag index ./papers notes.md   # Index a directory and a file
  docrag index --rebuild           # Start over from an empty index`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexRebuild, "rebuild", false, "discard the existing index before indexing")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	root := GetRootDir()

	paths := args
	if len(paths) == 0 {
		paths = []string{root}
	}

	if err := config.EnsureRAGDir(root); err != nil {
		return fmt.Errorf("failed to create .rag directory: %w", err)
	}

	registry, err := store.NewBoltRegistry(cfg.RegistryPath(root))
	if err != nil {
		return err
	}
	defer registry.Close()

	rebuild := indexRebuild
	check, err := registry.CheckRebuild(cfg)
	if err != nil {
		return err
	}
	if check.NeedsRebuild && !rebuild {
		fmt.Printf("Index rebuild required: %s\n", check.Reason)
		rebuild = true
	}

	var idx *store.FlatIndex
	if rebuild {
		idx, err = store.NewFlatIndex(cfg.Embedding.Dimension)
	} else {
		idx, err = store.OpenFlatIndex(cfg.Embedding.Dimension, cfg.IndexPath(root), cfg.MetaPath(root))
	}
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}

	emb, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer emb.Close()

	var walker port.FileWalker = fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	files, err := walker.Collect(paths)
	if err != nil {
		return fmt.Errorf("failed to collect documents: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	docPaths := make([]string, len(files))
	for i, f := range files {
		docPaths[i] = f.Path
	}

	// The registry must always describe the index files on disk: both are
	// dropped together, and only after the steps above succeeded.
	if rebuild {
		fmt.Println("Clearing existing index...")
		if err := clearIndexFiles(cfg, root); err != nil {
			return err
		}
		if err := registry.Clear(); err != nil {
			return fmt.Errorf("failed to clear registry: %w", err)
		}
	}

	ingestUC := usecase.NewIngestUseCase(
		extract.NewDispatcher(logger),
		chunker.NewTokenChunker(cfg.Chunking.MaxTokens, cfg.Chunking.OverlapTokens),
		emb,
		idx,
		registry,
		usecase.IngestOptionsFrom(cfg),
		logger,
	)

	fmt.Printf("Indexing %d documents...\n", len(docPaths))
	report, runErr := ingestUC.IngestAll(cmd.Context(), docPaths, newIndexProgress())

	if report.Chunks() > 0 || rebuild {
		if err := idx.Save(cfg.IndexPath(root), cfg.MetaPath(root)); err != nil {
			return fmt.Errorf("failed to save index: %w", err)
		}
		if err := registry.Stamp(cfg); err != nil {
			return fmt.Errorf("failed to update schema info: %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("indexing aborted: %w", runErr)
	}

	printReport(report, idx.Len())
	fmt.Printf("\nIndex stored at: %s\n", config.RAGDir(root))
	return nil
}

func clearIndexFiles(cfg *config.Config, root string) error {
	for _, path := range []string{cfg.IndexPath(root), cfg.MetaPath(root)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

// newIndexProgress renders a progress bar with an ETA.
func newIndexProgress() usecase.IngestProgress {
	var (
		bar       *progressbar.ProgressBar
		barMu     sync.Mutex
		startTime time.Time
	)

	return func(done, total int, res domain.IngestResult) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		elapsed := time.Since(startTime)
		rate := float64(done) / elapsed.Seconds()
		if rate > 0 && done < total {
			eta := time.Duration(float64(total-done)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]Indexing[reset] %s ETA: %s", filepath.Base(res.Source), formatDuration(eta)))
		}
	}
}

func printReport(report domain.IngestReport, rows int) {
	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Documents indexed: %d\n", report.Indexed())
	fmt.Printf("  Documents skipped: %d\n", report.Skipped())
	fmt.Printf("  Documents failed:  %d\n", report.Failed())
	fmt.Printf("  Chunks added:      %d\n", report.Chunks())
	fmt.Printf("  Chunks in index:   %d\n", rows)

	var skipped []string
	for _, res := range report.Results {
		if res.Status == domain.IngestSkipped && res.Reason != domain.ReasonUnchanged {
			skipped = append(skipped, fmt.Sprintf("%s (%s)", res.Source, res.Reason))
		}
	}
	if len(skipped) > 0 {
		fmt.Printf("\nSkipped:\n")
		for _, s := range skipped {
			fmt.Printf("  - %s\n", s)
		}
	}

	if errs := report.Errors(); len(errs) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, e := range errs {
			fmt.Printf("  - %s\n", e)
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
