package llm

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

func TestOllamaGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gemma:2b", req.Model)
		assert.Equal(t, "Question: why?", req.Prompt)
		assert.False(t, req.Stream)

		w.Write([]byte(`{"model":"gemma:2b","response":"Because.","done":true}`))
	}))
	defer server.Close()

	g := NewOllamaGenerator(server.URL+"/", "gemma:2b", time.Second)
	out, err := g.Generate(context.Background(), "Question: why?")
	require.NoError(t, err)
	assert.Equal(t, "Because.", out)
	assert.Equal(t, "gemma:2b", g.ModelName())
}

func TestOllamaGenerateFallsBackToRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("plain text answer"))
	}))
	defer server.Close()

	out, err := NewOllamaGenerator(server.URL, "m", time.Second).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "plain text answer", out)
}

func TestOllamaGenerateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model 'gemma:2b' not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewOllamaGenerator(server.URL, "gemma:2b", time.Second).Generate(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "not found")
}

func TestOllamaGenerateTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	_, err := NewOllamaGenerator(server.URL, "m", 50*time.Millisecond).Generate(context.Background(), "p")
	assert.Error(t, err)
}

func TestOpenAIGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if assert.Len(t, req.Messages, 1) {
			assert.Equal(t, "user", req.Messages[0].Role)
			assert.Equal(t, "the prompt", req.Messages[0].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"x","object":"chat.completion","model":"llama3","choices":[{"index":0,"message":{"role":"assistant","content":"generated"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	g, err := NewOpenAIGenerator("DOCRAG_TEST_UNSET_KEY", server.URL+"/v1", "llama3", time.Second)
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "generated", out)
}

func TestNewGenerator(t *testing.T) {
	cfg := config.DefaultConfig().Generation

	g, err := NewGenerator(cfg)
	require.NoError(t, err)
	assert.IsType(t, &OllamaGenerator{}, g)

	cfg.Provider = "carrier-pigeon"
	_, err = NewGenerator(cfg)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
