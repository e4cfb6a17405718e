package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veracify/veracify/internal/credibility"
	"github.com/veracify/veracify/internal/embedding"
	"github.com/veracify/veracify/internal/vectorstore"
	"github.com/veracify/veracify/internal/websearch"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSearcher struct {
	results []websearch.Result
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, _ websearch.Query) ([]websearch.Result, error) {
	return f.results, f.err
}

func (f *fakeSearcher) Name() string { return "fake" }

type failingEmbedder struct{}

func (failingEmbedder) Embed(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errors.New("embedding backend down")
}

func (failingEmbedder) Dimensions() int { return 8 }

func TestChunkShortText(t *testing.T) {
	got := Chunk("a short document", 512, 100)
	assert.Equal(t, []string{"a short document"}, got)
}

func TestChunkNoSentenceBoundary(t *testing.T) {
	text := strings.Repeat("x", 250)
	got := Chunk(text, 100, 20)
	require.Len(t, got, 3)
	assert.Equal(t, strings.Repeat("x", 100), got[0])
	assert.Equal(t, strings.Repeat("x", 100), got[1])
	assert.Equal(t, strings.Repeat("x", 90), got[2])
}

func TestChunkCutsAtSentenceBoundary(t *testing.T) {
	text := strings.Repeat("One short sentence here. ", 20)
	got := Chunk(text, 100, 20)
	require.Greater(t, len(got), 1)
	for i, chunk := range got {
		assert.LessOrEqual(t, len([]rune(chunk)), 100, "chunk %d", i)
		assert.True(t, strings.HasSuffix(chunk, "."), "chunk %d should end on a sentence: %q", i, chunk)
	}
}

func TestChunkAlwaysProgresses(t *testing.T) {
	// A boundary right at the window start must not stall the loop.
	text := ". " + strings.Repeat("y", 300)
	got := Chunk(text, 50, 40)
	assert.NotEmpty(t, got)
	total := 0
	for _, c := range got {
		total += len(c)
	}
	assert.Greater(t, total, 250)
}

func TestChunkAllIDsDerivedFromURL(t *testing.T) {
	j := &Job{cfg: Config{ChunkMaxChars: 40, ChunkOverlap: 10}, logger: discard}
	long := strings.Repeat("word ", 40)
	articles := []article{{URL: "https://bbc.com/news/story-1", Title: "Title", Snippet: long}}

	ids, documents, metadatas := j.chunkAll(articles)
	require.Greater(t, len(ids), 1)
	require.Len(t, documents, len(ids))
	require.Len(t, metadatas, len(ids))

	prefix := "ca_" + sha256Hex("https://bbc.com/news/story-1")[:16] + "_"
	for i, id := range ids {
		assert.True(t, strings.HasPrefix(id, prefix), "id %q", id)
		assert.Equal(t, "https://bbc.com/news/story-1", metadatas[i]["url"])
		assert.Equal(t, "bbc.com", metadatas[i]["source"])
		assert.NotEmpty(t, metadatas[i]["date"])
	}
	assert.Equal(t, prefix+"0", ids[0])
}

func TestCrawlCredibleFirstAndDeduped(t *testing.T) {
	searcher := &fakeSearcher{results: []websearch.Result{
		{URL: "https://blog.example.org/post-1", Title: "blog"},
		{URL: "https://reuters.com/world/story-1", Title: "reuters"},
		{URL: "https://reuters.com/world/story-1", Title: "reuters dup"},
		{URL: "", Title: "no url"},
	}}
	j := NewJob(Config{Queries: []string{"q"}, NumPerQuery: 10}, searcher, embedding.NewNoopProvider(8), nil,
		credibility.NewChecker([]string{"reuters.com"}), discard)

	articles := j.crawl(context.Background())
	require.Len(t, articles, 2)
	assert.Equal(t, "https://reuters.com/world/story-1", articles[0].URL)
	assert.Equal(t, "https://blog.example.org/post-1", articles[1].URL)
}

func TestRunSkipsOnEmptyCrawl(t *testing.T) {
	j := NewJob(Config{Queries: []string{"q"}, NumPerQuery: 5, ChunkMaxChars: 100, ChunkOverlap: 10, EmbedBatch: 10},
		&fakeSearcher{}, embedding.NewNoopProvider(8), nil,
		credibility.NewChecker(nil), discard)

	require.NoError(t, j.Run(context.Background()))
}

func openTestStore(t *testing.T, dims int) *vectorstore.Store {
	t.Helper()
	store, err := vectorstore.Open(context.Background(), filepath.Join(t.TempDir(), "vec.db"), dims, discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunPromotesCollection(t *testing.T) {
	store := openTestStore(t, 8)
	searcher := &fakeSearcher{results: []websearch.Result{
		{URL: "https://reuters.com/world/story-1", Title: "Title one", Snippet: "Something happened today."},
		{URL: "https://bbc.com/news/story-2", Title: "Title two", Snippet: "Something else happened."},
	}}
	j := NewJob(Config{Queries: []string{"q"}, NumPerQuery: 5, ChunkMaxChars: 200, ChunkOverlap: 20, EmbedBatch: 10},
		searcher, embedding.NewNoopProvider(8), store,
		credibility.NewChecker([]string{"reuters.com"}), discard)

	require.NoError(t, j.Run(context.Background()))

	count, err := store.Count(context.Background(), vectorstore.CurrentAffairs)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	tempCount, err := store.Count(context.Background(), vectorstore.CurrentAffairsTemp)
	require.NoError(t, err)
	assert.EqualValues(t, 0, tempCount)
}

func TestRunAbortsOnEmbedFailure(t *testing.T) {
	store := openTestStore(t, 8)

	// Seed a live collection that must survive the failed run.
	seed := embedding.NewNoopProvider(8)
	vecs, err := seed.Embed(context.Background(), []string{"existing"})
	require.NoError(t, err)
	require.NoError(t, store.Add(context.Background(), vectorstore.CurrentAffairs,
		[]string{"ca_seed_0"}, []string{"existing"}, []map[string]string{{}}, vecs))

	searcher := &fakeSearcher{results: []websearch.Result{
		{URL: "https://reuters.com/world/story-1", Title: "Title", Snippet: "Snippet."},
	}}
	j := NewJob(Config{Queries: []string{"q"}, NumPerQuery: 5, ChunkMaxChars: 200, ChunkOverlap: 20, EmbedBatch: 10},
		searcher, failingEmbedder{}, store, credibility.NewChecker(nil), discard)

	require.Error(t, j.Run(context.Background()))

	count, err := store.Count(context.Background(), vectorstore.CurrentAffairs)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
