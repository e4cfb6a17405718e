package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ErrNoEncoder is returned when no rerank endpoint is configured.
var ErrNoEncoder = errors.New("rerank: no cross-encoder configured")

// HTTPCrossEncoder scores pairs against a text-embeddings-inference style
// /rerank endpoint. The first call probes the endpoint once; if the model
// server is unreachable the encoder stays unavailable and every Score call
// fails fast, which keeps the input order downstream.
type HTTPCrossEncoder struct {
	baseURL    string
	model      string
	httpClient *http.Client

	warmOnce sync.Once
	warmErr  error
}

// NewHTTPCrossEncoder creates a client for a rerank model server. The model
// name is forwarded in each request; servers hosting a single model ignore it.
func NewHTTPCrossEncoder(baseURL, model string, timeout time.Duration) *HTTPCrossEncoder {
	return &HTTPCrossEncoder{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NoopCrossEncoder always fails, so reranking preserves input order.
type NoopCrossEncoder struct{}

// Score reports that no encoder is configured.
func (e *NoopCrossEncoder) Score(_ context.Context, _ string, _ []string) ([]float64, error) {
	return nil, ErrNoEncoder
}

type rerankRequest struct {
	Model string   `json:"model,omitempty"`
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Score sends one rerank call and returns scores in document order.
func (e *HTTPCrossEncoder) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	e.warmOnce.Do(func() {
		e.warmErr = e.warmup(ctx)
	})
	if e.warmErr != nil {
		return nil, fmt.Errorf("rerank: model unavailable: %w", e.warmErr)
	}

	results, err := e.call(ctx, query, documents)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(documents))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(documents) {
			return nil, fmt.Errorf("rerank: invalid index %d in response", r.Index)
		}
		scores[r.Index] = r.Score
	}
	return scores, nil
}

// warmup sends a minimal request so the server loads the model before the
// first real batch.
func (e *HTTPCrossEncoder) warmup(ctx context.Context) error {
	if e.baseURL == "" {
		return ErrNoEncoder
	}
	_, err := e.call(ctx, "warmup", []string{"warmup"})
	return err
}

func (e *HTTPCrossEncoder) call(ctx context.Context, query string, documents []string) ([]rerankResult, error) {
	payload, err := json.Marshal(rerankRequest{Model: e.model, Query: query, Texts: documents})
	if err != nil {
		return nil, fmt.Errorf("rerank: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("rerank: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("rerank: status %d: %s", resp.StatusCode, string(body))
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("rerank: decode response: %w", err)
	}
	return results, nil
}
