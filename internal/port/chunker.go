package port

import "docrag/internal/domain"

type Chunker interface {
	Chunk(text string) []domain.Chunk
}
