package indexer

import (
	"context"
	"fmt"

	"braindump/internal/storage"
)

// SyncResult summarizes a Sync pass.
type SyncResult struct {
	Indexed   int `json:"indexed"`
	Unchanged int `json:"unchanged"`
	Moved     int `json:"moved"`
	Removed   int `json:"removed"`
}

// Sync brings the index in line with the corpus without clearing it first.
// Unchanged documents keep their rows and embeddings; documents whose file
// moved between root and archive are relocated; documents with no file are
// removed. Per-file errors are logged and skipped, as in RebuildIndex.
func (s *Store) Sync(ctx context.Context, wantEmbeddings bool) (*SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.getLogger(ctx)

	if !s.corpus.Exists() {
		return nil, fmt.Errorf("repository path does not exist: %s", s.corpus.Root())
	}
	files, err := s.corpus.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan corpus: %w", err)
	}

	indexed, err := s.docs.List(ctx, storage.DocumentFilter{IncludeArchived: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list indexed documents: %w", err)
	}
	known := make(map[string]storage.DocumentRecord, len(indexed))
	for _, d := range indexed {
		known[d.ID] = d
	}

	result := &SyncResult{}
	seen := make(map[string]bool, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// A live copy shadows an archived one with the same name
		if seen[file.ID] {
			continue
		}
		seen[file.ID] = true

		content, err := s.corpus.Read(file.Filename)
		if err != nil {
			logger.ErrorContext(ctx, "failed to read document", "filename", file.Filename, "error", err)
			continue
		}
		res, err := s.indexLocked(ctx, DocumentInput{
			ID:         file.ID,
			Filename:   file.Filename,
			Content:    content,
			CreatedAt:  file.CreatedAt,
			ModifiedAt: file.ModifiedAt,
			Archived:   file.Archived,
		}, wantEmbeddings)
		if err != nil {
			logger.ErrorContext(ctx, "failed to index document", "filename", file.Filename, "error", err)
			continue
		}
		if res.Status == StatusIndexed {
			result.Indexed++
			continue
		}
		result.Unchanged++

		if prev, ok := known[file.ID]; ok && (prev.Filename != file.Filename || prev.Archived != file.Archived) {
			if _, err := s.docs.SetArchived(ctx, file.ID, file.Archived, file.Filename); err != nil {
				logger.ErrorContext(ctx, "failed to relocate document", "filename", file.Filename, "error", err)
				continue
			}
			result.Moved++
		}
	}

	for id := range known {
		if seen[id] {
			continue
		}
		if _, err := s.docs.Delete(ctx, id); err != nil {
			logger.ErrorContext(ctx, "failed to remove stale document", "doc_id", id, "error", err)
			continue
		}
		result.Removed++
	}

	logger.InfoContext(ctx, "sync completed",
		"indexed", result.Indexed,
		"unchanged", result.Unchanged,
		"moved", result.Moved,
		"removed", result.Removed,
	)
	return result, nil
}
