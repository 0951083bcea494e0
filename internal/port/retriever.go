package port

import (
	"context"

	"docrag/internal/domain"
)

// Retriever finds the chunks most similar to a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
}
