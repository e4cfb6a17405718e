// Package refresh rebuilds the current-affairs vector collection from seed
// search queries.
//
// A run crawls the configured queries, orders results credible-first,
// chunks each (title, snippet) document, embeds the chunks in batches into
// a temporary collection, and promotes it over the live collection in one
// atomic step. A run that finds nothing leaves the live collection
// untouched, and any batch failure aborts without promotion.
package refresh

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/veracify/veracify/internal/credibility"
	"github.com/veracify/veracify/internal/embedding"
	"github.com/veracify/veracify/internal/urlutil"
	"github.com/veracify/veracify/internal/vectorstore"
	"github.com/veracify/veracify/internal/websearch"
)

// Config holds the refresh parameters.
type Config struct {
	Queries       []string
	NumPerQuery   int
	ChunkMaxChars int
	ChunkOverlap  int
	EmbedBatch    int
}

// Job rebuilds the current-affairs collection. At most one run executes at
// a time; overlapping calls wait on the mutex.
type Job struct {
	cfg      Config
	searcher websearch.Searcher
	embedder embedding.Provider
	store    *vectorstore.Store
	cred     *credibility.Checker
	logger   *slog.Logger

	mu sync.Mutex
}

// NewJob creates a refresh job.
func NewJob(cfg Config, searcher websearch.Searcher, embedder embedding.Provider,
	store *vectorstore.Store, cred *credibility.Checker, logger *slog.Logger) *Job {
	return &Job{
		cfg:      cfg,
		searcher: searcher,
		embedder: embedder,
		store:    store,
		cred:     cred,
		logger:   logger,
	}
}

// article is one retained search result.
type article struct {
	URL     string
	Title   string
	Snippet string
}

// Run executes one refresh cycle.
func (j *Job) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	start := time.Now()
	articles := j.crawl(ctx)
	if len(articles) == 0 {
		j.logger.Warn("refresh found no results, keeping live collection")
		return nil
	}

	ids, documents, metadatas := j.chunkAll(articles)
	j.logger.Info("refresh crawl complete", "articles", len(articles), "chunks", len(ids))

	if err := j.store.Delete(ctx, vectorstore.CurrentAffairsTemp); err != nil {
		return fmt.Errorf("refresh: clear temp collection: %w", err)
	}

	for lo := 0; lo < len(ids); lo += j.cfg.EmbedBatch {
		hi := lo + j.cfg.EmbedBatch
		if hi > len(ids) {
			hi = len(ids)
		}
		vecs, err := j.embedder.Embed(ctx, documents[lo:hi])
		if err != nil {
			return fmt.Errorf("refresh: embed batch %d-%d: %w", lo, hi, err)
		}
		if err := j.store.Add(ctx, vectorstore.CurrentAffairsTemp, ids[lo:hi], documents[lo:hi], metadatas[lo:hi], vecs); err != nil {
			return fmt.Errorf("refresh: insert batch %d-%d: %w", lo, hi, err)
		}
	}

	if err := j.store.Clone(ctx, vectorstore.CurrentAffairsTemp, vectorstore.CurrentAffairs); err != nil {
		return fmt.Errorf("refresh: promote collection: %w", err)
	}

	j.logger.Info("refresh complete", "chunks", len(ids), "duration", time.Since(start))
	return nil
}

// crawl runs every seed query and returns the deduplicated results with
// credible domains first.
func (j *Job) crawl(ctx context.Context) []article {
	var credible, other []article
	for _, query := range j.cfg.Queries {
		results, err := j.searcher.Search(ctx, websearch.Query{Text: query, MaxResults: j.cfg.NumPerQuery})
		if err != nil {
			j.logger.Warn("refresh query failed", "query", query, "error", err)
			continue
		}
		for _, res := range results {
			if res.URL == "" {
				continue
			}
			a := article{URL: res.URL, Title: res.Title, Snippet: res.Snippet}
			if j.cred.IsCredible(res.URL) {
				credible = append(credible, a)
			} else {
				other = append(other, a)
			}
		}
	}

	seen := make(map[string]struct{}, len(credible)+len(other))
	var out []article
	for _, a := range append(credible, other...) {
		if _, dup := seen[a.URL]; dup {
			continue
		}
		seen[a.URL] = struct{}{}
		out = append(out, a)
	}
	return out
}

// chunkAll turns articles into chunk rows ready for embedding. Chunk ids
// are derived from the source URL so re-ingesting an article overwrites
// its previous chunks.
func (j *Job) chunkAll(articles []article) (ids, documents []string, metadatas []map[string]string) {
	date := time.Now().UTC().Format("2006-01-02")
	for _, a := range articles {
		content := a.Title + "\n\n" + a.Snippet
		urlHash := sha256Hex(a.URL)[:16]
		for idx, chunk := range Chunk(content, j.cfg.ChunkMaxChars, j.cfg.ChunkOverlap) {
			ids = append(ids, fmt.Sprintf("ca_%s_%d", urlHash, idx))
			documents = append(documents, chunk)
			metadatas = append(metadatas, map[string]string{
				"url":     a.URL,
				"title":   a.Title,
				"snippet": a.Snippet,
				"date":    date,
				"source":  urlutil.Domain(a.URL),
			})
		}
	}
	return ids, documents, metadatas
}

// Chunk splits text into windows of at most maxChars characters. Windows
// that would cut mid-sentence are pulled back to the nearest ". " when one
// exists, and consecutive windows overlap by up to overlap characters.
func Chunk(text string, maxChars, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return []string{strings.TrimSpace(text)}
	}

	step := maxChars - overlap
	var chunks []string
	for start := 0; start < len(runes); {
		end := start + maxChars
		if end >= len(runes) {
			end = len(runes)
		} else if cut := strings.LastIndex(string(runes[start:end]), ". "); cut > 0 {
			end = start + len([]rune(string(runes[start:end])[:cut])) + 1
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = start + step
		}
		start = next
	}
	return chunks
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
