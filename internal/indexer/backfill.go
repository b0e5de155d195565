package indexer

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"braindump/internal/storage"
)

// backfillConcurrency bounds parallel embedding requests during a backfill.
const backfillConcurrency = 4

// BackfillEmbeddings generates embeddings for every live document whose
// vector is missing or stale, and returns how many were generated.
// Archived documents are covered too when includeArchived is set.
// Blank documents get an empty marker instead of a vector. A document whose
// file no longer matches the indexed hash is skipped until it is re-indexed.
func (s *Store) BackfillEmbeddings(ctx context.Context, includeArchived bool) (int, error) {
	if s.cache == nil {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.getLogger(ctx)

	stale, err := s.embeddings.Stale(ctx, includeArchived)
	if err != nil {
		return 0, fmt.Errorf("failed to list documents without embeddings: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	logger.DebugContext(ctx, "backfilling embeddings", "documents", len(stale))

	var generated atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(backfillConcurrency)

	for _, doc := range stale {
		g.Go(func() error {
			content, err := s.corpus.Read(doc.Filename)
			if err != nil {
				logger.WarnContext(gctx, "failed to read document for embedding", "doc_id", doc.ID, "error", err)
				return nil
			}
			if ContentHash(content) != doc.ContentHash {
				logger.DebugContext(gctx, "document changed since indexing, skipping embedding", "doc_id", doc.ID)
				return nil
			}
			if strings.TrimSpace(content) == "" {
				return s.markBlank(gctx, doc.ID, doc.ContentHash)
			}
			if s.cache.UpdateEmbedding(gctx, doc.ID, content, doc.ContentHash) {
				generated.Add(1)
			}
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return int(generated.Load()), err
	}

	logger.InfoContext(ctx, "embedding backfill completed", "generated", generated.Load(), "candidates", len(stale))
	return int(generated.Load()), nil
}

// markBlank records that a blank document has nothing to embed, so it stops
// counting as pending.
func (s *Store) markBlank(ctx context.Context, id, hash string) error {
	rec := &storage.EmbeddingRecord{DocumentID: id, ContentHash: hash, CreatedAt: s.now()}
	if err := s.embeddings.Upsert(ctx, rec); err != nil {
		s.getLogger(ctx).WarnContext(ctx, "failed to mark blank document", "doc_id", id, "error", err)
	}
	return ctx.Err()
}
