package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/config"
)

type countingEmbedder struct {
	dim    int
	calls  [][]string
	width  int
	closed bool
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return embedBatches(ctx, texts, 2, c.dim, func(_ context.Context, batch []string) ([][]float32, error) {
		c.calls = append(c.calls, append([]string(nil), batch...))
		width := c.dim
		if c.width > 0 {
			width = c.width
		}
		out := make([][]float32, len(batch))
		for i := range batch {
			out[i] = make([]float32, width)
			out[i][0] = float32(len(c.calls))
		}
		return out, nil
	})
}

func (c *countingEmbedder) Dimension() int    { return c.dim }
func (c *countingEmbedder) ModelName() string { return "counting" }

func (c *countingEmbedder) Close() error {
	c.closed = true
	return nil
}

func TestEmbedBatchesSplitsSequentially(t *testing.T) {
	e := &countingEmbedder{dim: 3}

	vectors, err := e.Embed(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	require.Len(t, vectors, 5)

	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, e.calls)
	assert.Equal(t, float32(3), vectors[4][0])
}

func TestEmbedBatchesEmptyInput(t *testing.T) {
	e := &countingEmbedder{dim: 3}

	vectors, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Empty(t, e.calls)
}

func TestEmbedBatchesDimensionMismatch(t *testing.T) {
	e := &countingEmbedder{dim: 3, width: 4}

	_, err := e.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEmbedBatchesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&countingEmbedder{dim: 3}).Embed(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, []string{"The cat sat on the mat"})
	require.NoError(t, err)
	b, err := e.Embed(ctx, []string{"the CAT sat, on the mat!"})
	require.NoError(t, err)

	require.Len(t, a[0], 64)
	assert.Equal(t, a, b)
	assert.Equal(t, "hash", e.ModelName())
}

func TestHashEmbedderEmptyText(t *testing.T) {
	vectors, err := NewHashEmbedder(8).Embed(context.Background(), []string{""})
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vectors[0])
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{dim: 3}
	cached := NewCachedEmbedder(inner, 10, time.Minute)
	ctx := context.Background()

	first, err := cached.Embed(ctx, []string{"question"})
	require.NoError(t, err)
	second, err := cached.Embed(ctx, []string{"question"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, inner.calls, 1)
	hits, misses := cached.CacheStats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	_, err = cached.Embed(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, inner.calls, 2, "multi-text calls bypass the cache")

	require.NoError(t, cached.Close())
	assert.True(t, inner.closed)
}

func TestNewEmbedder(t *testing.T) {
	cfg := config.DefaultConfig().Embedding

	cfg.Provider = "hash"
	e, err := NewEmbedder(cfg)
	require.NoError(t, err)
	assert.Equal(t, 384, e.Dimension())

	cfg.Provider = "word2vec"
	_, err = NewEmbedder(cfg)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestOpenAIEmbedder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Object string `json:"object"`
			Data   []item `json:"data"`
			Model  string `json:"model"`
		}{Object: "list", Model: req.Model}
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, item{Object: "embedding", Embedding: []float32{float32(len(req.Input[i])), 0}, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	e, err := NewOpenAIEmbedder(OpenAIConfig{
		APIKeyEnv: "DOCRAG_TEST_UNSET_KEY",
		Model:     "all-minilm",
		BaseURL:   server.URL + "/v1",
		Dimension: 2,
		BatchSize: 2,
	})
	require.NoError(t, err)

	vectors, err := e.Embed(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {2, 0}, {3, 0}}, vectors)
}

func TestOpenAIEmbedderServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"model not found"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	e, err := NewOpenAIEmbedder(OpenAIConfig{Model: "missing", BaseURL: server.URL, Dimension: 2})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}

func TestOpenAIEmbedderRequiresKeyWithoutBaseURL(t *testing.T) {
	_, err := NewOpenAIEmbedder(OpenAIConfig{APIKeyEnv: "DOCRAG_TEST_UNSET_KEY", Model: "text-embedding-3-small"})
	assert.Error(t, err)
}
