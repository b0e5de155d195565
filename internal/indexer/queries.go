package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"braindump/internal/embedding"
	"braindump/internal/storage"
)

// ErrDocumentNotFound is returned when a document is not in the index.
var ErrDocumentNotFound = errors.New("document not found")

// GetDocument returns the indexed record for id.
func (s *Store) GetDocument(ctx context.Context, id string) (*storage.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.docs.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrDocumentNotFound
	}
	return doc, err
}

// ListDocuments returns indexed documents, newest first.
func (s *Store) ListDocuments(ctx context.Context, filter storage.DocumentFilter) ([]storage.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs.List(ctx, filter)
}

// ListActionItems returns action items across the index.
func (s *Store) ListActionItems(ctx context.Context, filter storage.ActionItemFilter) ([]storage.ActionItemView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.List(ctx, filter)
}

// DocumentActionItems returns one document's action items in line order.
func (s *Store) DocumentActionItems(ctx context.Context, id string) ([]storage.ActionItemRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.ListForDocument(ctx, id)
}

// ListQuestions returns questions across the index.
func (s *Store) ListQuestions(ctx context.Context, filter storage.QuestionFilter) ([]storage.QuestionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.questions.List(ctx, filter)
}

// RecentlyModified returns live documents modified within the last hours.
func (s *Store) RecentlyModified(ctx context.Context, hours int) ([]storage.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs.ModifiedSince(ctx, s.cutoff(hours), storage.DocumentFilter{})
}

// RecentlyCompleted returns done action items on live documents modified
// within the last hours. Completion time is not tracked per item, so the
// document's modification time stands in for it.
func (s *Store) RecentlyCompleted(ctx context.Context, hours int) ([]storage.ActionItemView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.CompletedSince(ctx, s.cutoff(hours), false)
}

func (s *Store) cutoff(hours int) time.Time {
	return s.now().Add(-time.Duration(hours) * time.Hour)
}

// SearchTitle is the substring fallback: title or filename contains query.
func (s *Store) SearchTitle(ctx context.Context, query string, limit int, includeArchived bool) ([]storage.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs.SearchTitle(ctx, query, limit, storage.DocumentFilter{IncludeArchived: includeArchived})
}

// EmbeddingCandidates returns every valid embedding as a search candidate.
func (s *Store) EmbeddingCandidates(ctx context.Context, includeArchived bool) ([]embedding.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs, err := s.embeddings.Valid(ctx, includeArchived)
	if err != nil {
		return nil, err
	}
	out := make([]embedding.Candidate, len(recs))
	for i, rec := range recs {
		out[i] = embedding.Candidate{ID: rec.DocumentID, Vector: rec.Vector}
	}
	return out, nil
}

// Content reads the current text of an indexed document from the corpus.
func (s *Store) Content(ctx context.Context, id string) (string, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	content, err := s.corpus.Read(doc.Filename)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", doc.Filename, err)
	}
	return content, nil
}
