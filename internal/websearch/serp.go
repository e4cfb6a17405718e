package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// SerpClient searches via SerpAPI's Google engine.
type SerpClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewSerpClient creates a SerpAPI search client.
func NewSerpClient(baseURL, apiKey string, httpClient *http.Client) *SerpClient {
	if baseURL == "" {
		baseURL = "https://serpapi.com/search"
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &SerpClient{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

// Name identifies the provider.
func (c *SerpClient) Name() string { return "serp" }

type serpResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
	Error string `json:"error,omitempty"`
}

// Search runs one SerpAPI search call. The domain hint is expressed as a
// site: operator on the query string.
func (c *SerpClient) Search(ctx context.Context, q Query) ([]Result, error) {
	text := q.Text
	if q.DomainHint != "" {
		text += " site:" + q.DomainHint
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", text)
	params.Set("num", strconv.Itoa(q.MaxResults))
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("websearch: create serp request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("websearch: serp request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("websearch: serp status %d: %s", resp.StatusCode, string(body))
	}

	var result serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("websearch: decode serp response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("websearch: serp error: %s", result.Error)
	}

	out := make([]Result, 0, len(result.OrganicResults))
	for _, r := range result.OrganicResults {
		if r.Link == "" {
			continue
		}
		out = append(out, Result{Title: r.Title, URL: r.Link, Snippet: r.Snippet})
	}
	return out, nil
}
