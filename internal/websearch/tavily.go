package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// TavilyClient searches via the Tavily API.
type TavilyClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewTavilyClient creates a Tavily search client.
func NewTavilyClient(baseURL, apiKey string, httpClient *http.Client) *TavilyClient {
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &TavilyClient{baseURL: baseURL, apiKey: apiKey, httpClient: httpClient}
}

// Name identifies the provider.
func (c *TavilyClient) Name() string { return "tavily" }

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
	Error string `json:"error,omitempty"`
}

// Search runs one Tavily search call.
func (c *TavilyClient) Search(ctx context.Context, q Query) ([]Result, error) {
	reqBody := tavilyRequest{
		APIKey:      c.apiKey,
		Query:       q.Text,
		MaxResults:  q.MaxResults,
		SearchDepth: "basic",
	}
	if q.DomainHint != "" {
		reqBody.IncludeDomains = []string{q.DomainHint}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("websearch: marshal tavily request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("websearch: create tavily request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("websearch: tavily request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("websearch: tavily status %d: %s", resp.StatusCode, string(body))
	}

	var result tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("websearch: decode tavily response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("websearch: tavily error: %s", result.Error)
	}

	out := make([]Result, 0, len(result.Results))
	for _, r := range result.Results {
		if r.URL == "" {
			continue
		}
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return out, nil
}
