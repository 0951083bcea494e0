//go:build cgo

package embedding

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
)

// FastEmbedConfig holds configuration for the local ONNX embedder.
type FastEmbedConfig struct {
	// Model defaults to sentence-transformers/all-MiniLM-L6-v2.
	Model string

	// CacheDir is where model files are downloaded. Defaults to ./local_cache.
	CacheDir string

	// MaxLength is the maximum input sequence length. Defaults to 512.
	MaxLength int

	BatchSize int
}

var modelMapping = map[string]fastembed.EmbeddingModel{
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-small-en":                      fastembed.BGESmallEN,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"BAAI/bge-base-en":                       fastembed.BGEBaseEN,
}

var modelDimensions = map[fastembed.EmbeddingModel]int{
	fastembed.AllMiniLML6V2: 384,
	fastembed.BGESmallENV15: 384,
	fastembed.BGESmallEN:    384,
	fastembed.BGEBaseENV15:  768,
	fastembed.BGEBaseEN:     768,
}

// FastEmbedEmbedder runs a sentence-transformer model locally.
type FastEmbedEmbedder struct {
	mu        sync.Mutex
	model     *fastembed.FlagEmbedding
	modelName string
	dimension int
	batchSize int
}

func NewFastEmbedEmbedder(cfg FastEmbedConfig) (*FastEmbedEmbedder, error) {
	name := cfg.Model
	if name == "" {
		name = "sentence-transformers/all-MiniLM-L6-v2"
	}

	model, ok := modelMapping[name]
	if !ok {
		model = fastembed.EmbeddingModel(name)
		if _, known := modelDimensions[model]; !known {
			return nil, fmt.Errorf("%w: fastembed does not support model %q", ErrUnknownProvider, name)
		}
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(".", "local_cache")
	}
	maxLength := cfg.MaxLength
	if maxLength == 0 {
		maxLength = 512
	}

	showProgress := false
	flagEmbed, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cacheDir,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing fastembed: %w", err)
	}

	return &FastEmbedEmbedder{
		model:     flagEmbed,
		modelName: name,
		dimension: modelDimensions[model],
		batchSize: cfg.BatchSize,
	}, nil
}

func (e *FastEmbedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return embedBatches(ctx, texts, e.batchSize, e.dimension, func(_ context.Context, batch []string) ([][]float32, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		vectors, err := e.model.Embed(batch, len(batch))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
		}
		return vectors, nil
	})
}

func (e *FastEmbedEmbedder) Dimension() int {
	return e.dimension
}

func (e *FastEmbedEmbedder) ModelName() string {
	return e.modelName
}

// Close releases the ONNX session.
func (e *FastEmbedEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model != nil {
		err := e.model.Destroy()
		e.model = nil
		return err
	}
	return nil
}
