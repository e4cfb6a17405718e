// Package vectorstore wraps the sqvect SQLite vector database with the
// named-collection operations the retrieval pipeline and refresh job need.
//
// Collection names used by the service: "current_affairs_24h" (rebuilt by
// the refresh job), "static_gk" (managed out of band), and the transient
// "current_affairs_24h_new" that exists only while a refresh is running.
package vectorstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/liliang-cn/sqvect/v2/pkg/core"
)

// Collection names.
const (
	CurrentAffairs     = "current_affairs_24h"
	CurrentAffairsTemp = "current_affairs_24h_new"
	StaticGK           = "static_gk"
)

// Result is one scored hit from a collection query.
type Result struct {
	Content  string
	Metadata map[string]string
	Score    float64
}

// Store is a persistent vector index with named collections.
type Store struct {
	db     *core.SQLiteStore
	dims   int
	logger *slog.Logger
}

// Open creates or opens the on-disk index at path. dims is the embedding
// dimensionality; every vector written to the store must match it.
func Open(ctx context.Context, path string, dims int, logger *slog.Logger) (*Store, error) {
	db, err := core.New(path, dims)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open %s: %w", path, err)
	}
	if err := db.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("vectorstore: init: %w", err)
	}
	return &Store{db: db, dims: dims, logger: logger}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNotFound matches sqvect's collection-not-found errors, which carry no
// sentinel type.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}

// Count returns the number of embeddings in the collection, 0 when the
// collection does not exist.
func (s *Store) Count(ctx context.Context, name string) (int64, error) {
	stats, err := s.db.GetCollectionStats(ctx, name)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("vectorstore: stats for %s: %w", name, err)
	}
	return stats.Count, nil
}

// Query searches the named collection and returns up to k hits ordered by
// similarity. The cosine similarity in [-1,1] is mapped to a score in
// [0,1]. k is clamped to the collection size; an empty or missing
// collection yields no results and no error.
func (s *Store) Query(ctx context.Context, name string, vec []float32, k int, filter map[string]string) ([]Result, error) {
	count, err := s.Count(ctx, name)
	if err != nil {
		return nil, err
	}
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if int64(k) > count {
		k = int(count)
	}

	scored, err := s.db.Search(ctx, vec, core.SearchOptions{
		Collection: name,
		TopK:       k,
		Filter:     filter,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: search %s: %w", name, err)
	}

	out := make([]Result, 0, len(scored))
	for _, e := range scored {
		score := (1 + e.Score) / 2
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}
		out = append(out, Result{
			Content:  e.Content,
			Metadata: e.Metadata,
			Score:    score,
		})
	}
	return out, nil
}

// Add inserts documents with precomputed embeddings into the named
// collection, creating the collection if needed. All argument slices must
// have equal length.
func (s *Store) Add(ctx context.Context, name string, ids, documents []string, metadatas []map[string]string, embeddings [][]float32) error {
	if len(ids) != len(documents) || len(ids) != len(metadatas) || len(ids) != len(embeddings) {
		return fmt.Errorf("vectorstore: length mismatch: ids=%d documents=%d metadatas=%d embeddings=%d",
			len(ids), len(documents), len(metadatas), len(embeddings))
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.ensureCollection(ctx, name); err != nil {
		return err
	}

	embs := make([]*core.Embedding, len(ids))
	for i := range ids {
		embs[i] = &core.Embedding{
			ID:         ids[i],
			Collection: name,
			Vector:     embeddings[i],
			Content:    documents[i],
			Metadata:   metadatas[i],
		}
	}
	if err := s.db.UpsertBatch(ctx, embs); err != nil {
		return fmt.Errorf("vectorstore: upsert batch into %s: %w", name, err)
	}
	return nil
}

// Delete drops the named collection and its embeddings. Missing
// collections are not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.db.DeleteCollection(ctx, name); err != nil && !isNotFound(err) {
		return fmt.Errorf("vectorstore: delete %s: %w", name, err)
	}
	return nil
}

// ensureCollection creates the collection when absent.
func (s *Store) ensureCollection(ctx context.Context, name string) error {
	_, err := s.db.GetCollection(ctx, name)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("vectorstore: get collection %s: %w", name, err)
	}
	if _, err := s.db.CreateCollection(ctx, name, s.dims); err != nil {
		return fmt.Errorf("vectorstore: create collection %s: %w", name, err)
	}
	return nil
}

// Clone promotes src into dst: dst's previous contents are dropped and src
// takes over its name in one transaction, so readers observe either the
// old dst or the complete new one. When src does not exist, dst is left as
// a fresh empty collection.
func (s *Store) Clone(ctx context.Context, src, dst string) error {
	db := s.db.GetDB()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("vectorstore: begin clone tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var srcID int64
	srcErr := tx.QueryRowContext(ctx, "SELECT id FROM collections WHERE name = ?", src).Scan(&srcID)
	if srcErr != nil && !errors.Is(srcErr, sql.ErrNoRows) {
		return fmt.Errorf("vectorstore: look up %s: %w", src, srcErr)
	}

	var dstID int64
	dstErr := tx.QueryRowContext(ctx, "SELECT id FROM collections WHERE name = ?", dst).Scan(&dstID)
	if dstErr != nil && !errors.Is(dstErr, sql.ErrNoRows) {
		return fmt.Errorf("vectorstore: look up %s: %w", dst, dstErr)
	}
	if dstErr == nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM embeddings WHERE collection_id = ?", dstID); err != nil {
			return fmt.Errorf("vectorstore: clear %s embeddings: %w", dst, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE id = ?", dstID); err != nil {
			return fmt.Errorf("vectorstore: drop %s: %w", dst, err)
		}
	}

	if errors.Is(srcErr, sql.ErrNoRows) {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO collections (name, dimensions, created_at, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)",
			dst, s.dims); err != nil {
			return fmt.Errorf("vectorstore: create empty %s: %w", dst, err)
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			"UPDATE collections SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
			dst, srcID); err != nil {
			return fmt.Errorf("vectorstore: rename %s to %s: %w", src, dst, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vectorstore: commit clone: %w", err)
	}
	s.logger.Info("collection promoted", "src", src, "dst", dst)
	return nil
}
