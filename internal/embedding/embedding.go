// Package embedding provides vector embedding generation for retrieval
// and knowledge-base ingestion.
//
// Defines a Provider interface with OpenAI and Ollama implementations.
// The interface allows swapping embedding providers without changing
// consumers. Embedding is the one external dependency the pipeline cannot
// soft-fail around, so providers here return errors rather than empty
// values.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Provider generates vector embeddings from text.
type Provider interface {
	// Embed generates embeddings for the given texts, preserving input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector dimensionality.
	Dimensions() int
}

// Config selects and configures a provider.
type Config struct {
	Provider      string // "auto", "openai", "ollama", or "noop"
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	OllamaURL     string
	OllamaModel   string
}

// Detect picks a provider from configuration. With Provider "auto" it
// prefers OpenAI when its key is set, then Ollama, then a deterministic
// noop provider suitable for development without any backend.
func Detect(cfg Config, logger *slog.Logger) Provider {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case "ollama":
		return NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, 768)
	case "noop":
		return NewNoopProvider(384)
	default:
		if cfg.OpenAIAPIKey != "" {
			logger.Info("embedding provider selected", "provider", "openai", "model", cfg.OpenAIModel)
			return NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
		}
		logger.Info("embedding provider selected", "provider", "ollama", "model", cfg.OllamaModel)
		return NewOllamaProvider(cfg.OllamaURL, cfg.OllamaModel, 768)
	}
}

// OpenAIProvider generates embeddings using the OpenAI embeddings API.
type OpenAIProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	dimensions int
}

// NewOpenAIProvider creates a new OpenAI embedding provider.
func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	return &OpenAIProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		dimensions: 1536,
	}
}

// Dimensions returns the embedding vector size.
func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}

type openAIRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type openAIResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Embed generates embeddings for multiple texts in a single API call.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	reqBody, err := json.Marshal(openAIRequest{Input: texts, Model: p.model})
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/embeddings", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("embedding: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding: read response: %w", err)
	}

	var result openAIResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("embedding: unmarshal response: %w", err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("embedding: openai error: %s: %s", result.Error.Type, result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	// Ensure results are in input order.
	vecs := make([][]float32, len(texts))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding: invalid index %d in response", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("embedding: missing vector for input %d", i)
		}
	}
	return vecs, nil
}

// NoopProvider returns deterministic pseudo-vectors derived from the text.
// Used in development when no embedding backend is configured: equal texts
// still map to equal vectors so dedupe and retrieval stay exercisable.
type NoopProvider struct {
	dims int
}

// NewNoopProvider creates a provider that returns hash-derived vectors.
func NewNoopProvider(dims int) *NoopProvider {
	return &NoopProvider{dims: dims}
}

// Dimensions returns the embedding vector size.
func (p *NoopProvider) Dimensions() int {
	return p.dims
}

// Embed returns one deterministic vector per text.
func (p *NoopProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, p.dims)
		var h uint32 = 2166136261
		for _, b := range []byte(t) {
			h = (h ^ uint32(b)) * 16777619
		}
		for j := range v {
			h = h*1664525 + 1013904223
			v[j] = float32(h%2000)/1000.0 - 1.0
		}
		vecs[i] = v
	}
	return vecs, nil
}
