package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIGenerator uses any OpenAI-compatible chat completions API.
type OpenAIGenerator struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

type openaiChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiChatRequest struct {
	Model     string              `json:"model"`
	Messages  []openaiChatMessage `json:"messages"`
	MaxTokens int                 `json:"max_tokens,omitempty"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message openaiChatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAIGenerator creates a generator using an OpenAI-compatible API.
func NewOpenAIGenerator(baseURL, apiKey, model string) *OpenAIGenerator {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIGenerator{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, s Summary) (string, error) {
	body, _ := json.Marshal(openaiChatRequest{
		Model:     g.model,
		Messages:  []openaiChatMessage{{Role: "user", Content: Prompt(s)}},
		MaxTokens: 128,
	})
	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai error %d: %s", resp.StatusCode, string(b))
	}

	var result openaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}
	return result.Choices[0].Message.Content, nil
}

func (g *OpenAIGenerator) Name() string { return "openai:" + g.model }

// --- Factory ---

// NewGenerator builds the configured generator.
// provider: "genai" | "openai" | "" (fixed templates only, returns nil)
func NewGenerator(ctx context.Context, provider, model, apiKey, baseURL string) (Generator, error) {
	switch provider {
	case "":
		return nil, nil
	case "genai":
		g, err := NewGenAIGenerator(ctx, apiKey, model)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "openai":
		return NewOpenAIGenerator(baseURL, apiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown feedback provider %q", provider)
	}
}
