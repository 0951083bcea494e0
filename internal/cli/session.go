package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"docrag/config"
	"docrag/internal/adapter/embedding"
	"docrag/internal/adapter/llm"
	"docrag/internal/adapter/retriever"
	"docrag/internal/adapter/store"
	"docrag/internal/usecase"
)

var errNoIndex = errors.New("no index found, run 'docrag index' first")

const queryCacheTTL = 30 * time.Minute

// newEmbedder builds the configured embedder and checks it against the
// configured index dimension.
func newEmbedder(cfg *config.Config) (*embedding.CachedEmbedder, error) {
	e, err := embedding.NewEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	cached := embedding.NewCachedEmbedder(e, cfg.Embedding.CacheSize, queryCacheTTL)

	if e.Dimension() != cfg.Embedding.Dimension {
		cached.Close()
		return nil, fmt.Errorf("%w: model %s produces %d values, embedding.dimension is %d",
			embedding.ErrDimensionMismatch, e.ModelName(), e.Dimension(), cfg.Embedding.Dimension)
	}
	return cached, nil
}

// openExistingIndex loads the persisted index under root; a missing index
// is errNoIndex.
func openExistingIndex(cfg *config.Config, root string) (*store.FlatIndex, error) {
	_, errIndex := os.Stat(cfg.IndexPath(root))
	_, errMeta := os.Stat(cfg.MetaPath(root))
	if os.IsNotExist(errIndex) && os.IsNotExist(errMeta) {
		return nil, errNoIndex
	}

	idx, err := store.OpenFlatIndex(cfg.Embedding.Dimension, cfg.IndexPath(root), cfg.MetaPath(root))
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return idx, nil
}

// newRetrieveUseCase wires the semantic retriever over idx.
func newRetrieveUseCase(cfg *config.Config, idx *store.FlatIndex, emb *embedding.CachedEmbedder) *usecase.RetrieveUseCase {
	return usecase.NewRetrieveUseCase(retriever.NewSemanticRetriever(idx, emb), cfg.Retrieve.MinScore)
}

func newAnswerUseCase(cfg *config.Config, retrieve *usecase.RetrieveUseCase) (*usecase.AnswerUseCase, error) {
	gen, err := llm.NewGenerator(cfg.Generation)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}
	return usecase.NewAnswerUseCase(retrieve, gen, logger), nil
}

func topKOrDefault(flag int) int {
	if flag > 0 {
		return flag
	}
	return cfg.Retrieve.TopK
}
