package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator sends the prompt as a single user message to a chat
// completion endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator requires an API key unless baseURL points at a
// self-hosted compatible server.
func NewOpenAIGenerator(apiKeyEnv, baseURL, model string, timeout time.Duration) (*OpenAIGenerator, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" && baseURL == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *OpenAIGenerator) ModelName() string {
	return g.model
}
