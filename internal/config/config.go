// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultCredibleDomains is the built-in source allowlist used when
// CREDIBLE_DOMAINS is not set.
var DefaultCredibleDomains = []string{
	"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk", "nytimes.com",
	"theguardian.com", "washingtonpost.com", "npr.org", "factcheck.org",
	"snopes.com", "politifact.com", "afp.com", "usatoday.com", "cbsnews.com",
	"nbcnews.com", "abcnews.go.com", "poynter.org",
}

// DefaultRefreshQueries seeds the current-affairs refresh job when
// REFRESH_QUERIES is not set.
var DefaultRefreshQueries = []string{
	"today's top news",
	"breaking news today",
	"current affairs today",
}

// Config holds all application configuration.
type Config struct {
	// Server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LogLevel     string

	// Claim intake.
	ClaimMaxLength int

	// Retrieval settings.
	RAGTopK        int
	EmbeddingModel string
	VectorDBPath   string

	// Agentic loop.
	MaxIterations        int
	MinSourcesForVerdict int
	VerifyTimeout        time.Duration

	// Reranker.
	RerankModel   string
	RerankTopK    int
	RerankURL     string
	RerankTimeout time.Duration

	// Source credibility.
	CredibleDomains []string

	// Knowledge-base refresh job.
	RefreshQueries       []string
	RefreshNumPerQuery   int
	RefreshChunkMaxChars int
	RefreshChunkOverlap  int
	RefreshEmbedBatch    int
	RefreshInterval      time.Duration // 0 disables the background job.

	// Web search provider settings.
	WebNumPerQuery    int
	WebSearchProvider string // "auto", "tavily", or "serp"
	TavilyAPIKey      string
	TavilyBaseURL     string
	SerpAPIKey        string
	SerpBaseURL       string
	WebSearchTimeout  time.Duration

	// Embedding provider settings.
	EmbeddingProvider string // "auto", "openai", "ollama", or "noop"
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OllamaURL         string
	OllamaEmbedModel  string

	// LLM settings (stance, reasoning, decomposition).
	LLMProvider     string // "auto", "openai", or "ollama"
	OpenAILLMModel  string
	OllamaChatModel string
	LLMTimeout      time.Duration

	// Claim decomposition.
	DecomposeEnabled        bool
	DecomposeUseLLM         bool
	DecomposeMaxSubClaims   int
	DecomposeMinClaimLength int

	// OTEL settings.
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:         envInt("VERACIFY_PORT", 8080),
		ReadTimeout:  envDuration("VERACIFY_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: envDuration("VERACIFY_WRITE_TIMEOUT", 120*time.Second),
		LogLevel:     envStr("VERACIFY_LOG_LEVEL", "info"),

		ClaimMaxLength: envInt("CLAIM_MAX_LENGTH", 2000),

		RAGTopK:        envInt("RAG_TOP_K", 10),
		EmbeddingModel: envStr("RAG_EMBEDDING_MODEL", "text-embedding-3-small"),
		VectorDBPath:   envStr("VECTOR_DB_PATH", "data/vectors.db"),

		MaxIterations:        envInt("AGENTIC_LOOP_MAX_ITER", 3),
		MinSourcesForVerdict: envInt("MIN_SOURCES_FOR_VERDICT", 1),
		VerifyTimeout:        envDuration("VERIFY_TIMEOUT", 60*time.Second),

		RerankModel:   envStr("RERANK_MODEL", "cross-encoder/ms-marco-MiniLM-L-6-v2"),
		RerankTopK:    envInt("RERANK_TOP_K", 25),
		RerankURL:     envStr("RERANK_URL", ""),
		RerankTimeout: envDuration("RERANK_TIMEOUT", 20*time.Second),

		CredibleDomains: envList("CREDIBLE_DOMAINS", DefaultCredibleDomains),

		RefreshQueries:       envList("REFRESH_QUERIES", DefaultRefreshQueries),
		RefreshNumPerQuery:   envInt("REFRESH_NUM_RESULTS_PER_QUERY", 10),
		RefreshChunkMaxChars: envInt("REFRESH_CHUNK_MAX_CHARS", 512),
		RefreshChunkOverlap:  envInt("REFRESH_CHUNK_OVERLAP", 100),
		RefreshEmbedBatch:    envInt("REFRESH_EMBED_BATCH_SIZE", 100),
		RefreshInterval:      envDuration("REFRESH_INTERVAL", 24*time.Hour),

		WebNumPerQuery:    envInt("WEB_SEARCH_NUM_RESULTS", 5),
		WebSearchProvider: envStr("WEB_SEARCH_PROVIDER", "auto"),
		TavilyAPIKey:      envStr("TAVILY_API_KEY", ""),
		TavilyBaseURL:     envStr("TAVILY_BASE_URL", "https://api.tavily.com"),
		SerpAPIKey:        envStr("SERP_API_KEY", ""),
		SerpBaseURL:       envStr("SERP_API_BASE_URL", "https://serpapi.com/search"),
		WebSearchTimeout:  envDuration("WEB_SEARCH_TIMEOUT", 15*time.Second),

		EmbeddingProvider: envStr("EMBEDDING_PROVIDER", "auto"),
		OpenAIAPIKey:      envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     envStr("OPENAI_BASE_URL", "https://api.openai.com"),
		OllamaURL:         envStr("OLLAMA_URL", "http://localhost:11434"),
		OllamaEmbedModel:  envStr("OLLAMA_MODEL", "nomic-embed-text"),

		LLMProvider:     envStr("LLM_PROVIDER", "auto"),
		OpenAILLMModel:  envStr("OPENAI_LLM_MODEL", "gpt-4o-mini"),
		OllamaChatModel: envStr("OLLAMA_CHAT_MODEL", "llama3.2:3b"),
		LLMTimeout:      envDuration("LLM_TIMEOUT", 30*time.Second),

		DecomposeEnabled:        envBool("DECOMPOSE_ENABLED", false),
		DecomposeUseLLM:         envBool("DECOMPOSE_USE_LLM", true),
		DecomposeMaxSubClaims:   envInt("DECOMPOSE_MAX_SUBCLAIMS", 4),
		DecomposeMinClaimLength: envInt("DECOMPOSE_MIN_CLAIM_LENGTH", 120),

		OTELEndpoint: envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure: envBool("OTEL_INSECURE", false),
		ServiceName:  envStr("OTEL_SERVICE_NAME", "veracify"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and coherent.
func (c Config) Validate() error {
	if c.ClaimMaxLength <= 0 {
		return fmt.Errorf("config: CLAIM_MAX_LENGTH must be positive")
	}
	if c.RAGTopK <= 0 {
		return fmt.Errorf("config: RAG_TOP_K must be positive")
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("config: AGENTIC_LOOP_MAX_ITER must be positive")
	}
	if c.MinSourcesForVerdict < 1 {
		return fmt.Errorf("config: MIN_SOURCES_FOR_VERDICT must be at least 1")
	}
	if c.RefreshChunkOverlap >= c.RefreshChunkMaxChars {
		return fmt.Errorf("config: REFRESH_CHUNK_OVERLAP must be smaller than REFRESH_CHUNK_MAX_CHARS")
	}
	if c.VectorDBPath == "" {
		return fmt.Errorf("config: VECTOR_DB_PATH is required")
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

// envList parses a comma-separated env value, trimming whitespace and
// dropping empty entries. Returns defaultVal when the variable is unset
// or contains no usable entries.
func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
