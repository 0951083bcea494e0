// Package llm provides text generation clients.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docrag/config"
	"docrag/internal/port"
)

var ErrUnknownProvider = errors.New("unknown generation provider")

// NewGenerator builds the client named by cfg.Provider.
func NewGenerator(cfg config.GenerationConfig) (port.Generator, error) {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second

	switch cfg.Provider {
	case "ollama", "":
		return NewOllamaGenerator(cfg.BaseURL, cfg.Model, timeout), nil
	case "openai":
		g, err := NewOpenAIGenerator(cfg.APIKeyEnv, cfg.BaseURL, cfg.Model, timeout)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// OllamaGenerator calls the non-streaming /api/generate endpoint.
type OllamaGenerator struct {
	baseURL string
	model   string
	client  *http.Client
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func NewOllamaGenerator(baseURL, model string, timeout time.Duration) *OllamaGenerator {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	jsonData, err := json.Marshal(generateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil || genResp.Response == "" {
		return string(body), nil
	}
	return genResp.Response, nil
}

func (g *OllamaGenerator) ModelName() string {
	return g.model
}
