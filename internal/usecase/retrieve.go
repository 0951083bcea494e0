package usecase

import (
	"context"

	"docrag/internal/domain"
	"docrag/internal/port"
)

// RetrieveUseCase handles search and the relevance threshold.
type RetrieveUseCase struct {
	retriever port.Retriever
	minScore  float64 // results must score strictly above this to count as relevant
}

func NewRetrieveUseCase(retriever port.Retriever, minScore float64) *RetrieveUseCase {
	return &RetrieveUseCase{
		retriever: retriever,
		minScore:  minScore,
	}
}

// Retrieve returns the topK closest chunks, unfiltered.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	results, err := u.retriever.Search(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	return results, nil
}

// Relevant keeps the results scoring above the threshold, in order.
func (u *RetrieveUseCase) Relevant(results []domain.SearchResult) []domain.SearchResult {
	filtered := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Score > u.minScore {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
