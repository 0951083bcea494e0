package port

import "docrag/internal/domain"

// Registry remembers which documents have been ingested.
type Registry interface {
	// Get returns the stored entry for path; ok is false when absent.
	Get(path string) (doc domain.Document, ok bool, err error)

	Put(doc domain.Document) error

	List() ([]domain.Document, error)

	Clear() error

	Close() error
}
