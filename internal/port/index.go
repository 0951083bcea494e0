package port

import "docrag/internal/domain"

// VectorIndex stores chunk vectors alongside their records.
type VectorIndex interface {
	// Add appends vectors and their records as one unit; on error nothing
	// is added.
	Add(vectors [][]float32, records []domain.Record) error

	// Query returns up to topK records ranked by descending similarity.
	Query(vector []float32, topK int) ([]domain.SearchResult, error)

	Len() int
}
