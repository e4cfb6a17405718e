// Command veracify runs the claim verification HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/veracify/veracify/internal/config"
	"github.com/veracify/veracify/internal/credibility"
	"github.com/veracify/veracify/internal/decompose"
	"github.com/veracify/veracify/internal/embedding"
	"github.com/veracify/veracify/internal/evidence"
	"github.com/veracify/veracify/internal/llm"
	"github.com/veracify/veracify/internal/orchestrator"
	"github.com/veracify/veracify/internal/refresh"
	"github.com/veracify/veracify/internal/rerank"
	"github.com/veracify/veracify/internal/retriever"
	"github.com/veracify/veracify/internal/review"
	"github.com/veracify/veracify/internal/server"
	"github.com/veracify/veracify/internal/telemetry"
	"github.com/veracify/veracify/internal/vectorstore"
	"github.com/veracify/veracify/internal/verdict"
	"github.com/veracify/veracify/internal/webagent"
	"github.com/veracify/veracify/internal/websearch"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	// Bootstrap logger for errors before the config (and .env) is loaded;
	// run swaps in one at the configured level.
	logger := newLogger("info")
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("veracify starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(ctx, cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	// Providers.
	embedder := embedding.Detect(embedding.Config{
		Provider:      cfg.EmbeddingProvider,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.EmbeddingModel,
		OllamaURL:     cfg.OllamaURL,
		OllamaModel:   cfg.OllamaEmbedModel,
	}, logger)

	searcher := websearch.Detect(websearch.Config{
		Provider:      cfg.WebSearchProvider,
		TavilyAPIKey:  cfg.TavilyAPIKey,
		TavilyBaseURL: cfg.TavilyBaseURL,
		SerpAPIKey:    cfg.SerpAPIKey,
		SerpBaseURL:   cfg.SerpBaseURL,
		Timeout:       cfg.WebSearchTimeout,
	}, logger)

	llmClient := llm.Detect(llm.Config{
		Provider:      cfg.LLMProvider,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		OpenAIModel:   cfg.OpenAILLMModel,
		OllamaURL:     cfg.OllamaURL,
		OllamaModel:   cfg.OllamaChatModel,
		Timeout:       cfg.LLMTimeout,
	}, logger)

	// Vector store.
	if err := os.MkdirAll(filepath.Dir(cfg.VectorDBPath), 0o755); err != nil {
		return fmt.Errorf("vector db dir: %w", err)
	}
	store, err := vectorstore.Open(ctx, cfg.VectorDBPath, embedder.Dimensions(), logger)
	if err != nil {
		return fmt.Errorf("vector store: %w", err)
	}
	defer func() { _ = store.Close() }()

	// Pipeline components.
	cred := credibility.NewChecker(cfg.CredibleDomains)
	agent := webagent.New(searcher, logger)
	ret := retriever.New(embedder, store, logger)

	var encoder rerank.CrossEncoder = &rerank.NoopCrossEncoder{}
	if cfg.RerankURL != "" {
		encoder = rerank.NewHTTPCrossEncoder(cfg.RerankURL, cfg.RerankModel, cfg.RerankTimeout)
		logger.Info("cross-encoder rerank enabled", "url", cfg.RerankURL, "model", cfg.RerankModel)
	}
	reranker := rerank.New(encoder, logger)

	classifier := evidence.NewClassifier(llmClient, logger)
	former := verdict.NewFormer(llmClient, cred, cfg.MinSourcesForVerdict, logger)
	decomposer := decompose.New(decompose.Config{
		Enabled:        cfg.DecomposeEnabled,
		UseLLM:         cfg.DecomposeUseLLM,
		MaxSubClaims:   cfg.DecomposeMaxSubClaims,
		MinClaimLength: cfg.DecomposeMinClaimLength,
	}, llmClient, logger)

	orch := orchestrator.New(orchestrator.Config{
		MaxIterations: cfg.MaxIterations,
		InitialTopK:   cfg.RAGTopK,
		NumPerQuery:   cfg.WebNumPerQuery,
		RerankTopK:    cfg.RerankTopK,
		MinSources:    cfg.MinSourcesForVerdict,
		VerifyTimeout: cfg.VerifyTimeout,
	}, agent, ret, reranker, classifier, former, decomposer, llmClient, logger)

	queue := review.NewQueue()

	// Knowledge-base refresh job.
	job := refresh.NewJob(refresh.Config{
		Queries:       cfg.RefreshQueries,
		NumPerQuery:   cfg.RefreshNumPerQuery,
		ChunkMaxChars: cfg.RefreshChunkMaxChars,
		ChunkOverlap:  cfg.RefreshChunkOverlap,
		EmbedBatch:    cfg.RefreshEmbedBatch,
	}, searcher, embedder, store, cred, logger)
	if cfg.RefreshInterval > 0 {
		go refreshLoop(ctx, job, logger, cfg.RefreshInterval)
	} else {
		logger.Info("knowledge-base refresh disabled")
	}

	// HTTP server.
	handlers := server.NewHandlers(server.HandlersDeps{
		Verifier:       orch,
		Queue:          queue,
		MaxClaimLength: cfg.ClaimMaxLength,
		SearchProvider: searcher.Name(),
		SearchKeySet:   cfg.TavilyAPIKey != "" || cfg.SerpAPIKey != "",
		Logger:         logger,
	})
	srv := server.New(handlers, cfg.Port, cfg.ReadTimeout, cfg.WriteTimeout, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	slog.Info("veracify shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("veracify stopped")
	return nil
}

// newLogger builds a JSON logger at the named level. Unknown names fall
// back to info.
func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// refreshLoop rebuilds the current-affairs collection once at startup and
// then on every tick.
func refreshLoop(ctx context.Context, job *refresh.Job, logger *slog.Logger, interval time.Duration) {
	if err := job.Run(ctx); err != nil {
		logger.Warn("initial knowledge-base refresh failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := job.Run(ctx); err != nil {
				logger.Warn("knowledge-base refresh failed", "error", err)
			}
		}
	}
}
