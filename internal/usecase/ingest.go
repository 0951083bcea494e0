package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"docrag/config"
	"docrag/internal/adapter/chunker"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/store"
	"docrag/internal/domain"
	"docrag/internal/port"
)

// IngestOptions are the fixed policies of the ingestion pipeline.
type IngestOptions struct {
	MinChars      int
	BatchSize     int
	StoredChars   int
	SkipUnchanged bool
}

func IngestOptionsFrom(cfg *config.Config) IngestOptions {
	return IngestOptions{
		MinChars:      cfg.Ingest.MinChars,
		BatchSize:     cfg.Ingest.BatchSize,
		StoredChars:   cfg.Ingest.StoredChars,
		SkipUnchanged: cfg.Ingest.SkipUnchanged,
	}
}

// IngestUseCase extracts, chunks, embeds and indexes documents.
type IngestUseCase struct {
	extractor port.Extractor
	chunker   port.Chunker
	embedder  port.Embedder
	index     port.VectorIndex
	registry  port.Registry
	opts      IngestOptions
	logger    *zap.Logger
}

// NewIngestUseCase creates a new ingestion use case. registry may be nil.
func NewIngestUseCase(
	extractor port.Extractor,
	chunker port.Chunker,
	embedder port.Embedder,
	index port.VectorIndex,
	registry port.Registry,
	opts IngestOptions,
	logger *zap.Logger,
) *IngestUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUseCase{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		index:     index,
		registry:  registry,
		opts:      opts,
		logger:    logger,
	}
}

// IngestProgress is called after each document of IngestAll.
type IngestProgress func(done, total int, res domain.IngestResult)

// IngestAll ingests paths in order. Per-document failures are recorded in
// the report and do not stop the run; a fatal error (see Ingest) does.
func (u *IngestUseCase) IngestAll(ctx context.Context, paths []string, progress IngestProgress) (domain.IngestReport, error) {
	var report domain.IngestReport
	for i, path := range paths {
		res, err := u.Ingest(ctx, path)
		report.Add(res)
		if progress != nil {
			progress(i+1, len(paths), res)
		}
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

// Ingest adds one document to the index and reports what happened to it.
// The returned error is non-nil only for conditions that make continuing
// pointless: an embedder/index dimension disagreement or a canceled
// context. Everything else is a failed result.
func (u *IngestUseCase) Ingest(ctx context.Context, path string) (domain.IngestResult, error) {
	res := domain.IngestResult{Source: path}
	log := u.logger.With(zap.String("source", path))

	if err := ctx.Err(); err != nil {
		return u.fail(log, res, err), err
	}

	doc, unchanged, err := u.checkRegistry(path)
	if err != nil {
		return u.fail(log, res, err), nil
	}
	if unchanged {
		res.Status = domain.IngestSkipped
		res.Reason = domain.ReasonUnchanged
		log.Debug("document unchanged, skipping")
		return res, nil
	}

	text, err := u.extractor.Extract(path)
	if err != nil {
		return u.fail(log, res, fmt.Errorf("extraction failed: %w", err)), nil
	}

	if utf8.RuneCountInString(strings.TrimSpace(text)) < u.opts.MinChars {
		res.Status = domain.IngestSkipped
		res.Reason = domain.ReasonTooSmall
		log.Info("document too small, skipping", zap.Int("min_chars", u.opts.MinChars))
		return res, nil
	}

	chunks := u.chunker.Chunk(chunker.Normalize(text))
	if len(chunks) == 0 {
		res.Status = domain.IngestSkipped
		res.Reason = domain.ReasonNoChunks
		log.Info("document produced no chunks, skipping")
		return res, nil
	}

	for start := 0; start < len(chunks); start += u.opts.BatchSize {
		end := min(start+u.opts.BatchSize, len(chunks))
		if err := u.addBatch(ctx, path, start, chunks[start:end]); err != nil {
			res = u.fail(log, res, err)
			if isFatal(err) {
				return res, err
			}
			return res, nil
		}
		res.Chunks = end
	}

	res.Status = domain.IngestIndexed
	log.Info("document indexed", zap.Int("chunks", res.Chunks))

	if u.registry != nil && doc != nil {
		doc.Chunks = res.Chunks
		if err := u.registry.Put(*doc); err != nil {
			log.Warn("failed to record document in registry", zap.Error(err))
		}
	}
	return res, nil
}

// checkRegistry returns the registry entry to write after a successful
// ingestion, and whether the document is unchanged since it was recorded.
func (u *IngestUseCase) checkRegistry(path string) (*domain.Document, bool, error) {
	if u.registry == nil {
		return nil, false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, false, fmt.Errorf("extraction failed: %w", err)
	}
	doc := &domain.Document{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime().Unix(),
	}

	prev, ok, err := u.registry.Get(path)
	if err != nil {
		u.logger.Warn("registry lookup failed", zap.String("source", path), zap.Error(err))
		return doc, false, nil
	}
	if !ok {
		return doc, false, nil
	}
	if u.opts.SkipUnchanged && prev.Size == doc.Size && prev.ModTime == doc.ModTime {
		return doc, true, nil
	}
	u.logger.Warn("document changed since it was indexed; earlier chunks stay until the index is rebuilt",
		zap.String("source", path))
	return doc, false, nil
}

// addBatch embeds one batch and adds it to the index. firstID is the
// document-wide chunk_id of the batch's first chunk.
func (u *IngestUseCase) addBatch(ctx context.Context, source string, firstID int, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	vectors, err := u.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	records := make([]domain.Record, len(batch))
	for i, c := range batch {
		records[i] = domain.Record{
			Source:  source,
			ChunkID: firstID + i,
			Text:    truncateRunes(c.Text, u.opts.StoredChars),
		}
	}

	if err := u.index.Add(vectors, records); err != nil {
		return fmt.Errorf("failed to add chunks to index: %w", err)
	}
	return nil
}

func (u *IngestUseCase) fail(log *zap.Logger, res domain.IngestResult, err error) domain.IngestResult {
	res.Status = domain.IngestFailed
	res.Reason = err.Error()
	res.Err = err
	log.Error("document ingestion failed", zap.Error(err))
	return res
}

func isFatal(err error) bool {
	return errors.Is(err, store.ErrDimensionMismatch) ||
		errors.Is(err, embedding.ErrDimensionMismatch) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
