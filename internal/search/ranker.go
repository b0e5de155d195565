// Package search answers document queries, preferring semantic ranking and
// falling back to a title/filename substring match.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"braindump/internal/contextutil"
	"braindump/internal/embedding"
	"braindump/internal/indexer"
	"braindump/internal/storage"
)

const (
	// DefaultLimit is used when a caller passes limit <= 0.
	DefaultLimit = 20
	// snippetRunes is the snippet length before the ellipsis.
	snippetRunes = 200
)

// Method names how a result set was produced.
type Method string

const (
	MethodSemantic Method = "semantic"
	MethodText     Method = "text"
)

// Result is one search hit.
type Result struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Title      string    `json:"title"`
	ModifiedAt time.Time `json:"modified_at"`
	Archived   bool      `json:"archived"`
	Score      float64   `json:"score,omitempty"`
	Snippet    string    `json:"snippet,omitempty"`
}

// Index is the part of the index store the ranker reads.
// *indexer.Store implements it.
type Index interface {
	GetStats(ctx context.Context) (*indexer.Stats, error)
	BackfillEmbeddings(ctx context.Context, includeArchived bool) (int, error)
	EmbeddingCandidates(ctx context.Context, includeArchived bool) ([]embedding.Candidate, error)
	GetDocument(ctx context.Context, id string) (*storage.DocumentRecord, error)
	Content(ctx context.Context, id string) (string, error)
	SearchTitle(ctx context.Context, query string, limit int, includeArchived bool) ([]storage.DocumentRecord, error)
}

// Semantic ranks candidates against a query. *embedding.Cache implements it.
type Semantic interface {
	Search(ctx context.Context, query string, candidates []embedding.Candidate, topK int, minSimilarity float64) ([]embedding.Scored, error)
}

// Ranker composes semantic search with the substring fallback.
type Ranker struct {
	index         Index
	semantic      Semantic // nil disables the semantic path
	minSimilarity float64
	backfills     singleflight.Group
	logger        *slog.Logger
}

// NewRanker creates a ranker. semantic may be nil.
func NewRanker(index Index, semantic Semantic, minSimilarity float64) *Ranker {
	return &Ranker{
		index:         index,
		semantic:      semantic,
		minSimilarity: minSimilarity,
		logger:        slog.Default(),
	}
}

// SearchDocuments returns up to limit documents matching query.
// Semantic hits win when there are any; otherwise the substring fallback runs.
// No match is an empty result, not an error.
func (r *Ranker) SearchDocuments(ctx context.Context, query string, limit int, includeArchived bool) ([]Result, Method, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	logger := contextutil.LoggerFromContext(ctx)

	if r.semantic != nil {
		results, err := r.semanticSearch(ctx, query, limit, includeArchived)
		if err != nil {
			logger.WarnContext(ctx, "semantic search failed, falling back to text search", "error", err)
		} else if len(results) > 0 {
			return results, MethodSemantic, nil
		}
	}

	docs, err := r.index.SearchTitle(ctx, query, limit, includeArchived)
	if err != nil {
		return nil, MethodText, fmt.Errorf("failed to search titles: %w", err)
	}
	results := make([]Result, 0, len(docs))
	for _, doc := range docs {
		results = append(results, fromDocument(&doc))
	}
	return results, MethodText, nil
}

func (r *Ranker) semanticSearch(ctx context.Context, query string, limit int, includeArchived bool) ([]Result, error) {
	if err := r.ensureEmbeddings(ctx, includeArchived); err != nil {
		return nil, err
	}

	candidates, err := r.index.EmbeddingCandidates(ctx, includeArchived)
	if err != nil {
		return nil, err
	}
	hits, err := r.semantic.Search(ctx, query, candidates, limit, r.minSimilarity)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		doc, err := r.index.GetDocument(ctx, hit.ID)
		if err != nil {
			// Removed between ranking and enrichment
			continue
		}
		res := fromDocument(doc)
		res.Score = hit.Score
		if content, err := r.index.Content(ctx, hit.ID); err == nil {
			res.Snippet = Snippet(content)
		}
		results = append(results, res)
	}
	return results, nil
}

// ensureEmbeddings runs a backfill when some documents the search covers
// lack a valid embedding. Concurrent searches of the same scope share one
// backfill.
func (r *Ranker) ensureEmbeddings(ctx context.Context, includeArchived bool) error {
	stats, err := r.index.GetStats(ctx)
	if err != nil {
		return err
	}
	if stats.EmbeddingsComplete(includeArchived) {
		return nil
	}

	key := "backfill"
	if includeArchived {
		key = "backfill-archived"
	}
	_, err, shared := r.backfills.Do(key, func() (any, error) {
		return r.index.BackfillEmbeddings(ctx, includeArchived)
	})
	if err != nil {
		return fmt.Errorf("failed to backfill embeddings: %w", err)
	}
	if shared {
		r.logger.DebugContext(ctx, "joined in-flight embedding backfill")
	}
	return nil
}

func fromDocument(doc *storage.DocumentRecord) Result {
	return Result{
		ID:         doc.ID,
		Filename:   doc.Filename,
		Title:      doc.Title,
		ModifiedAt: doc.ModifiedAt,
		Archived:   doc.Archived,
	}
}

// Snippet returns the first 200 characters of content flattened onto one
// line, with "..." appended when content is longer.
func Snippet(content string) string {
	runes := []rune(content)
	truncated := len(runes) > snippetRunes
	if truncated {
		runes = runes[:snippetRunes]
	}
	flat := strings.Join(strings.Fields(string(runes)), " ")
	if truncated {
		flat += "..."
	}
	return flat
}
