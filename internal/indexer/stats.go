package indexer

import (
	"context"
	"fmt"
)

// Stats contains aggregate counts over the index.
// Counts exclude archived documents except Archived itself.
type Stats struct {
	// Documents is the number of live documents.
	Documents int `json:"documents"`
	// OpenTodos is the number of action items not marked done.
	OpenTodos int `json:"open_todos"`
	// CompletedTodos is the number of action items marked done.
	CompletedTodos int `json:"completed_todos"`
	// OpenQuestions is the number of unresolved questions.
	OpenQuestions int `json:"open_questions"`
	// Embeddings is the number of live documents with a valid embedding.
	Embeddings int `json:"embeddings"`
	// Archived is the number of archived documents.
	Archived int `json:"archived"`
	// PendingEmbeddings is the number of live documents still awaiting an embedding.
	PendingEmbeddings int `json:"pending_embeddings"`
	// PendingArchivedEmbeddings is the same count over archived documents.
	PendingArchivedEmbeddings int `json:"pending_archived_embeddings"`
}

// EmbeddingsComplete reports whether no document in scope awaits an
// embedding. Blank documents never count as pending once indexed.
func (st *Stats) EmbeddingsComplete(includeArchived bool) bool {
	if includeArchived && st.PendingArchivedEmbeddings > 0 {
		return false
	}
	return st.PendingEmbeddings == 0
}

// GetStats computes the aggregate counts from the database.
func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{}
	var err error

	if stats.Documents, stats.Archived, err = s.docs.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if stats.OpenTodos, stats.CompletedTodos, err = s.items.CountByState(ctx); err != nil {
		return nil, fmt.Errorf("failed to count action items: %w", err)
	}
	if stats.OpenQuestions, err = s.questions.CountOpen(ctx); err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	if stats.Embeddings, err = s.embeddings.CountValid(ctx); err != nil {
		return nil, fmt.Errorf("failed to count embeddings: %w", err)
	}
	// Nothing is pending while embeddings are disabled
	if s.cache != nil {
		if stats.PendingEmbeddings, stats.PendingArchivedEmbeddings, err = s.embeddings.CountStale(ctx); err != nil {
			return nil, fmt.Errorf("failed to count pending embeddings: %w", err)
		}
	}

	return stats, nil
}
