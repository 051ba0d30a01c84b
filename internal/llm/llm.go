package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider is the interface to the external reasoning service.
type Provider interface {
	// Generate sends a single user prompt and returns the raw response
	// text. maxTokens <= 0 leaves the token limit to the service.
	Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
	IsConfigured() bool
}

// ChatClient talks to an OpenAI-compatible chat-completions endpoint
// with bearer-token auth (Zhipu GLM by default).
type ChatClient struct {
	Endpoint string
	Model    string
	APIKey   string
	client   *http.Client
}

// NewChatClient creates a client for the given endpoint and model.
func NewChatClient(endpoint, model, apiKey string) *ChatClient {
	return &ChatClient{
		Endpoint: endpoint,
		Model:    model,
		APIKey:   apiKey,
		// Per-call budgets come from the caller's context; this is a
		// hard backstop only.
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// IsConfigured reports whether an API key is set.
func (c *ChatClient) IsConfigured() bool {
	return c.APIKey != ""
}

// Generate sends a prompt and returns choices[0].message.content.
func (c *ChatClient) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	body := map[string]any{
		"model": c.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": temperature,
	}
	if maxTokens > 0 {
		body["max_tokens"] = maxTokens
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.Endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return result.Choices[0].Message.Content, nil
}
