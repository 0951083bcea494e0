// Package embedding provides text embedding providers.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"docrag/config"
	"docrag/internal/adapter/cache"
	"docrag/internal/port"
)

var (
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrUnknownProvider   = errors.New("unknown embedding provider")
	ErrEmbeddingFailed   = errors.New("embedding generation failed")
)

const defaultBatchSize = 16

// NewEmbedder builds the provider named by cfg.Provider.
func NewEmbedder(cfg config.EmbeddingConfig) (port.Embedder, error) {
	switch cfg.Provider {
	case "fastembed", "":
		e, err := NewFastEmbedEmbedder(FastEmbedConfig{
			Model:     cfg.Model,
			CacheDir:  cfg.CacheDir,
			BatchSize: cfg.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	case "openai":
		e, err := NewOpenAIEmbedder(OpenAIConfig{
			APIKeyEnv: cfg.APIKeyEnv,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			Dimension: cfg.Dimension,
			BatchSize: cfg.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	case "hash":
		return NewHashEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// embedBatches calls fn on consecutive slices of at most size texts and
// checks every returned row against dim.
func embedBatches(ctx context.Context, texts []string, size, dim int, fn func(ctx context.Context, batch []string) ([][]float32, error)) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if size <= 0 {
		size = defaultBatchSize
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+size, len(texts))
		vectors, err := fn(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("%w: %d vectors for %d texts", ErrEmbeddingFailed, len(vectors), end-start)
		}
		for i, v := range vectors {
			if len(v) != dim {
				return nil, fmt.Errorf("%w: text %d embedded to %d values, expected %d", ErrDimensionMismatch, start+i, len(v), dim)
			}
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// CachedEmbedder serves repeated single-text embeddings from an LRU cache.
// Multi-text calls go straight to the wrapped embedder.
type CachedEmbedder struct {
	port.Embedder
	cache  *cache.EmbeddingCache
	hits   atomic.Int64
	misses atomic.Int64
}

func NewCachedEmbedder(e port.Embedder, size int, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		Embedder: e,
		cache:    cache.NewEmbeddingCache(size, ttl),
	}
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) != 1 {
		return c.Embedder.Embed(ctx, texts)
	}

	model := c.ModelName()
	if v, ok := c.cache.Get(model, texts[0]); ok {
		c.hits.Add(1)
		return [][]float32{v}, nil
	}
	c.misses.Add(1)

	vectors, err := c.Embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 1 {
		c.cache.Put(model, texts[0], vectors[0])
	}
	return vectors, nil
}

// CacheStats reports how many single-text calls were served from the cache
// and how many went to the wrapped embedder.
func (c *CachedEmbedder) CacheStats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close releases the wrapped embedder when it holds resources.
func (c *CachedEmbedder) Close() error {
	if closer, ok := c.Embedder.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
