package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"docrag/internal/domain"
)

var (
	bucketDocs = []byte("docs")
	bucketMeta = []byte("meta")
)

// BoltRegistry records ingested documents in a bbolt database so unchanged
// files can be skipped on the next run.
type BoltRegistry struct {
	db *bbolt.DB
}

func NewBoltRegistry(path string) (*BoltRegistry, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltRegistry{db: db}, nil
}

func (r *BoltRegistry) Get(path string) (domain.Document, bool, error) {
	var (
		doc   domain.Document
		found bool
	)
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(path))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &doc)
	})
	return doc, found, err
}

func (r *BoltRegistry) Put(doc domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).Put([]byte(doc.Path), data)
	})
}

// List returns every registered document ordered by path.
func (r *BoltRegistry) List() ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(_, v []byte) error {
			var doc domain.Document
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			docs = append(docs, doc)
			return nil
		})
	})
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, err
}

// Clear forgets every document. Schema information survives.
func (r *BoltRegistry) Clear() error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketDocs); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketDocs)
		return err
	})
}

func (r *BoltRegistry) Close() error {
	return r.db.Close()
}
