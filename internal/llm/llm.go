// Package llm provides text completion clients for stance classification,
// rationale generation, and claim decomposition.
//
// Defines a Client interface with OpenAI and Ollama implementations. All
// consumers treat completion failure as a soft error and fall back to a
// deterministic default, so clients here just report errors faithfully.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// ErrNotConfigured is returned by the disabled client.
var ErrNotConfigured = errors.New("llm: no provider configured")

// Client produces a text completion for a prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config selects and configures a client.
type Config struct {
	Provider      string // "auto", "openai", "ollama", or "none"
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OllamaURL     string
	OllamaModel   string
	Timeout       time.Duration
}

// Detect picks a client from configuration. With Provider "auto" it
// prefers OpenAI when its key is set, then Ollama.
func Detect(cfg Config, logger *slog.Logger) Client {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.Timeout)
	case "ollama":
		return NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel, cfg.Timeout)
	case "none":
		return &NoopClient{}
	default:
		if cfg.OpenAIAPIKey != "" {
			logger.Info("llm provider selected", "provider", "openai", "model", cfg.OpenAIModel)
			return NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.Timeout)
		}
		logger.Info("llm provider selected", "provider", "ollama", "model", cfg.OllamaModel)
		return NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel, cfg.Timeout)
	}
}

// NoopClient always fails, which drives every consumer to its fallback.
type NoopClient struct{}

// Complete reports that no provider is configured.
func (c *NoopClient) Complete(_ context.Context, _ string) (string, error) {
	return "", ErrNotConfigured
}

// OpenAIClient completes prompts via the chat completions API.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient creates an OpenAI chat completion client.
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAIClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends the prompt as a single user message at temperature 0.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("llm: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("llm: unmarshal response: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("llm: openai error: %s: %s", result.Error.Type, result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("llm: empty choices in response")
	}
	return result.Choices[0].Message.Content, nil
}
