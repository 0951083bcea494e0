package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"docrag/internal/domain"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrLengthMismatch    = errors.New("vectors and records length mismatch")
	ErrIndexCorrupt      = errors.New("index corrupt")
	ErrPartialIndex      = errors.New("index incomplete: vector and metadata files must exist together")
)

// FlatIndex is an exact inner-product index over unit-normalized vectors.
// Row i of the vector store and records[i] always describe the same chunk.
// Add, Load and Reset take the write lock; everything else only reads.
type FlatIndex struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	records []domain.Record
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid index dimension %d", dim)
	}
	return &FlatIndex{dim: dim}, nil
}

// OpenFlatIndex loads the index persisted at indexPath/metaPath, or returns a
// fresh empty index when neither file exists.
func OpenFlatIndex(dim int, indexPath, metaPath string) (*FlatIndex, error) {
	idx, err := NewFlatIndex(dim)
	if err != nil {
		return nil, err
	}

	hasIndex, err := fileExists(indexPath)
	if err != nil {
		return nil, err
	}
	hasMeta, err := fileExists(metaPath)
	if err != nil {
		return nil, err
	}

	switch {
	case hasIndex && hasMeta:
		if err := idx.Load(indexPath, metaPath); err != nil {
			return nil, err
		}
	case hasIndex || hasMeta:
		return nil, ErrPartialIndex
	}
	return idx, nil
}

// Normalize returns v scaled to unit L2 norm. v is not modified; a zero
// vector comes back as a zero vector.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// Add appends normalized copies of vectors together with their records.
// Nothing is added when the input is invalid.
func (x *FlatIndex) Add(vectors [][]float32, records []domain.Record) error {
	if len(vectors) == 0 {
		return nil
	}
	if len(records) != len(vectors) {
		return fmt.Errorf("%w: %d vectors, %d records", ErrLengthMismatch, len(vectors), len(records))
	}
	for i, v := range vectors {
		if len(v) != x.dim {
			return fmt.Errorf("%w: row %d has %d values, index expects %d", ErrDimensionMismatch, i, len(v), x.dim)
		}
	}

	normalized := make([][]float32, len(vectors))
	for i, v := range vectors {
		normalized[i] = Normalize(v)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = append(x.vectors, normalized...)
	x.records = append(x.records, records...)
	return nil
}

// Query returns the min(topK, Len()) rows most similar to vector, ordered by
// descending cosine similarity. Equal scores keep ascending row order.
func (x *FlatIndex) Query(vector []float32, topK int) ([]domain.SearchResult, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.vectors) == 0 || topK <= 0 {
		return []domain.SearchResult{}, nil
	}
	if len(vector) != x.dim {
		return nil, fmt.Errorf("%w: query has %d values, index expects %d", ErrDimensionMismatch, len(vector), x.dim)
	}

	rows, scores := x.search(Normalize(vector), topK)

	results := make([]domain.SearchResult, 0, len(rows))
	for i, row := range rows {
		if row < 0 || row >= len(x.records) {
			continue
		}
		results = append(results, domain.SearchResult{
			Record: x.records[row],
			Score:  scores[i],
		})
	}
	return results, nil
}

// search scores every row against a normalized query and returns the best k
// row numbers with their scores.
func (x *FlatIndex) search(query []float32, k int) ([]int, []float64) {
	type scored struct {
		row   int
		score float64
	}

	all := make([]scored, len(x.vectors))
	for i, v := range x.vectors {
		all[i] = scored{row: i, score: dot(query, v)}
	}

	sort.SliceStable(all, func(a, b int) bool {
		return all[a].score > all[b].score
	})

	if k > len(all) {
		k = len(all)
	}
	rows := make([]int, k)
	scores := make([]float64, k)
	for i := 0; i < k; i++ {
		rows[i] = all[i].row
		scores[i] = all[i].score
	}
	return rows, scores
}

// Save writes the vectors to indexPath and the records to metaPath as a JSON
// array.
func (x *FlatIndex) Save(indexPath, metaPath string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if err := writeFileAtomic(indexPath, func(f *os.File) error {
		return encodeVectors(f, x.dim, x.vectors)
	}); err != nil {
		return fmt.Errorf("failed to write vector file: %w", err)
	}

	records := x.records
	if records == nil {
		records = []domain.Record{}
	}
	if err := writeFileAtomic(metaPath, func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

// Load replaces the in-memory state with the files at indexPath and
// metaPath.
func (x *FlatIndex) Load(indexPath, metaPath string) error {
	f, err := os.Open(indexPath)
	if err != nil {
		return fmt.Errorf("failed to open vector file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat vector file: %w", err)
	}
	vectors, err := decodeVectors(f, info.Size(), x.dim)
	if err != nil {
		return fmt.Errorf("%s: %w", indexPath, err)
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("failed to read metadata file: %w", err)
	}
	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIndexCorrupt, metaPath, err)
	}
	if len(records) != len(vectors) {
		return fmt.Errorf("%w: %d vectors but %d records", ErrIndexCorrupt, len(vectors), len(records))
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = vectors
	x.records = records
	return nil
}

// Reset drops every row.
func (x *FlatIndex) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.vectors = nil
	x.records = nil
}

// Len returns the number of indexed rows.
func (x *FlatIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

func (x *FlatIndex) Dimension() int {
	return x.dim
}

// Sources returns the number of indexed chunks per source document.
func (x *FlatIndex) Sources() map[string]int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range x.records {
		counts[r.Source]++
	}
	return counts
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// writeFileAtomic writes through a temporary file in the target directory
// and renames it into place.
func writeFileAtomic(path string, write func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
