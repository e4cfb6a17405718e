// Package websearch provides clients for external web search APIs.
//
// Defines a Searcher interface with Tavily and SerpAPI implementations.
// Callers treat any error as an empty result set; the pipeline never fails
// because a search provider is down.
package websearch

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Query describes one search request.
type Query struct {
	Text       string
	MaxResults int

	// DomainHint restricts results to a single domain when the provider
	// supports it. Empty means no restriction.
	DomainHint string
}

// Searcher executes web searches against an external provider.
type Searcher interface {
	// Search returns up to q.MaxResults hits for the query. Article-level
	// URLs are expected; homepage filtering happens downstream.
	Search(ctx context.Context, q Query) ([]Result, error)

	// Name identifies the provider for logging and the status endpoint.
	Name() string
}

// Config selects and configures a provider.
type Config struct {
	Provider      string // "auto", "tavily", "serp", or "none"
	TavilyAPIKey  string
	TavilyBaseURL string
	SerpAPIKey    string
	SerpBaseURL   string
	Timeout       time.Duration
}

// Detect picks a provider from configuration. With Provider "auto" it
// prefers Tavily when its key is set, then SerpAPI, then a disabled
// searcher that always returns nothing.
func Detect(cfg Config, logger *slog.Logger) Searcher {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Provider {
	case "tavily":
		return NewTavilyClient(cfg.TavilyBaseURL, cfg.TavilyAPIKey, httpClient)
	case "serp":
		return NewSerpClient(cfg.SerpBaseURL, cfg.SerpAPIKey, httpClient)
	case "none":
		return &NoopSearcher{}
	default:
		if cfg.TavilyAPIKey != "" {
			logger.Info("web search provider selected", "provider", "tavily")
			return NewTavilyClient(cfg.TavilyBaseURL, cfg.TavilyAPIKey, httpClient)
		}
		if cfg.SerpAPIKey != "" {
			logger.Info("web search provider selected", "provider", "serp")
			return NewSerpClient(cfg.SerpBaseURL, cfg.SerpAPIKey, httpClient)
		}
		logger.Warn("no web search API key configured, web evidence disabled")
		return &NoopSearcher{}
	}
}

// NoopSearcher returns no results. Used when no provider is configured.
type NoopSearcher struct{}

// Search returns an empty result set.
func (s *NoopSearcher) Search(_ context.Context, _ Query) ([]Result, error) {
	return nil, nil
}

// Name identifies the disabled provider.
func (s *NoopSearcher) Name() string { return "none" }
