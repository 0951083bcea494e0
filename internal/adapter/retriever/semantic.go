package retriever

import (
	"context"
	"errors"
	"fmt"

	"docrag/internal/domain"
	"docrag/internal/port"
)

var ErrNotConfigured = errors.New("semantic search not available: index or embedder not configured")

// SemanticRetriever embeds a question and looks it up in the vector index.
type SemanticRetriever struct {
	index    port.VectorIndex
	embedder port.Embedder
}

func NewSemanticRetriever(index port.VectorIndex, embedder port.Embedder) *SemanticRetriever {
	return &SemanticRetriever{
		index:    index,
		embedder: embedder,
	}
}

// Search returns the k chunks most similar to query. An empty index yields
// no results without calling the embedder.
func (r *SemanticRetriever) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if r.index == nil || r.embedder == nil {
		return nil, ErrNotConfigured
	}
	if r.index.Len() == 0 || k <= 0 {
		return []domain.SearchResult{}, nil
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}

	results, err := r.index.Query(embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return results, nil
}
