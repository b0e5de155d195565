package indexer

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"braindump/internal/contextutil"
	"braindump/internal/corpus"
	"braindump/internal/extract"
	"braindump/internal/storage"
)

// EmbeddingUpdater keeps a document's stored vector in step with its content.
// *embedding.Cache implements it.
type EmbeddingUpdater interface {
	UpdateEmbedding(ctx context.Context, docID, text, hash string) bool
}

// Store owns the structured index: documents, action items, questions and
// the embeddings derived from them.
//
// Mutations take the write lock and queries the read lock, so a rebuild never
// interleaves with an edit or a listing.
type Store struct {
	mu sync.RWMutex

	db         *sql.DB
	corpus     *corpus.Corpus
	docs       *storage.DocumentRepo
	items      *storage.ActionItemRepo
	questions  *storage.QuestionRepo
	embeddings *storage.EmbeddingRepo
	cache      EmbeddingUpdater // nil disables embeddings
	now        func() time.Time
	logger     *slog.Logger
}

// NewStore creates an index store over db for the documents in c.
// cache may be nil when no embedding provider is configured.
func NewStore(db *sql.DB, c *corpus.Corpus, cache EmbeddingUpdater) *Store {
	return &Store{
		db:         db,
		corpus:     c,
		docs:       storage.NewDocumentRepo(db),
		items:      storage.NewActionItemRepo(db),
		questions:  storage.NewQuestionRepo(db),
		embeddings: storage.NewEmbeddingRepo(db),
		cache:      cache,
		now:        time.Now,
		logger:     slog.Default(),
	}
}

// getLogger extracts logger from context or returns the store logger.
func (s *Store) getLogger(ctx context.Context) *slog.Logger {
	if l := contextutil.LoggerFromContext(ctx); l != slog.Default() {
		return l
	}
	return s.logger
}

// EmbeddingsEnabled reports whether an embedding cache is configured.
func (s *Store) EmbeddingsEnabled() bool {
	return s.cache != nil
}

// ContentHash returns the SHA256 hex digest used for change detection.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// IndexDocument brings the index up to date with one document.
// An unchanged hash returns StatusUnchanged without writing anything.
func (s *Store) IndexDocument(ctx context.Context, in DocumentInput, wantEmbedding bool) (*IndexResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(ctx, in, wantEmbedding)
}

func (s *Store) indexLocked(ctx context.Context, in DocumentInput, wantEmbedding bool) (*IndexResult, error) {
	logger := s.getLogger(ctx)
	hash := ContentHash(in.Content)

	stored, err := s.docs.ContentHash(ctx, in.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing document: %w", err)
	}
	if err == nil && stored == hash {
		logger.DebugContext(ctx, "skipping unchanged document", "doc_id", in.ID, "hash", hash)
		return &IndexResult{Status: StatusUnchanged, DocID: in.ID}, nil
	}

	extracted := extract.Extract(in.Content, in.Filename)
	now := s.now()

	doc := &storage.DocumentRecord{
		ID:          in.ID,
		Filename:    in.Filename,
		Title:       extracted.Title,
		ContentHash: hash,
		CreatedAt:   in.CreatedAt,
		ModifiedAt:  in.ModifiedAt,
		IndexedAt:   now,
		Archived:    in.Archived,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.ModifiedAt.IsZero() {
		doc.ModifiedAt = now
	}

	items := make([]storage.ActionItemRecord, len(extracted.ActionItems))
	for i, item := range extracted.ActionItems {
		items[i] = storage.ActionItemRecord{
			LineNumber: item.Line,
			Kind:       string(item.Kind),
			Text:       item.Text,
			Done:       item.Done,
			CreatedAt:  now,
		}
	}
	questions := make([]storage.QuestionRecord, len(extracted.Questions))
	for i, q := range extracted.Questions {
		questions[i] = storage.QuestionRecord{
			LineNumber: q.Line,
			Text:       q.Text,
			CreatedAt:  now,
		}
	}

	// Document, action items and questions change together or not at all
	err = storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := storage.NewDocumentRepo(tx).Upsert(ctx, doc); err != nil {
			return err
		}
		if err := storage.NewActionItemRepo(tx).ReplaceForDocument(ctx, in.ID, items); err != nil {
			return err
		}
		return storage.NewQuestionRepo(tx).ReplaceForDocument(ctx, in.ID, questions)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index document %s: %w", in.ID, err)
	}

	result := &IndexResult{
		Status:         StatusIndexed,
		DocID:          in.ID,
		TodosFound:     len(items),
		QuestionsFound: len(questions),
	}
	switch {
	case s.cache == nil:
	case strings.TrimSpace(in.Content) == "":
		_ = s.markBlank(ctx, in.ID, hash)
	case wantEmbedding:
		result.EmbeddingGenerated = s.cache.UpdateEmbedding(ctx, in.ID, in.Content, hash)
	}

	logger.InfoContext(ctx, "indexed document",
		"doc_id", in.ID,
		"title", doc.Title,
		"todos", result.TodosFound,
		"questions", result.QuestionsFound,
		"embedding_generated", result.EmbeddingGenerated,
	)
	return result, nil
}

// RemoveDocument drops a document and everything derived from it.
// It reports whether the document was indexed.
func (s *Store) RemoveDocument(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed bool
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := storage.NewEmbeddingRepo(tx).Delete(ctx, id); err != nil {
			return err
		}
		var err error
		removed, err = storage.NewDocumentRepo(tx).Delete(ctx, id)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove document %s: %w", id, err)
	}
	if removed {
		s.getLogger(ctx).InfoContext(ctx, "removed document", "doc_id", id)
	}
	return removed, nil
}

// ArchiveDocument marks a document archived at newPath. Content hash, action
// items, questions and embedding are left as they are.
func (s *Store) ArchiveDocument(ctx context.Context, id, newPath string) (bool, error) {
	return s.setArchived(ctx, id, true, newPath)
}

// UnarchiveDocument moves a document back to the live set at newPath.
func (s *Store) UnarchiveDocument(ctx context.Context, id, newPath string) (bool, error) {
	return s.setArchived(ctx, id, false, newPath)
}

func (s *Store) setArchived(ctx context.Context, id string, archived bool, newPath string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.docs.SetArchived(ctx, id, archived, newPath)
	if err != nil {
		return false, fmt.Errorf("failed to move document %s: %w", id, err)
	}
	if ok {
		s.getLogger(ctx).InfoContext(ctx, "moved document", "doc_id", id, "archived", archived, "path", newPath)
	}
	return ok, nil
}

// RebuildIndex clears the index and re-ingests every document in the corpus,
// root and archive alike. A missing corpus is reported in the result status.
// Errors for individual files are logged but don't stop the rebuild.
func (s *Store) RebuildIndex(ctx context.Context, wantEmbeddings bool) (*RebuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := s.getLogger(ctx)

	if !s.corpus.Exists() {
		return &RebuildResult{
			Status:  RebuildError,
			Message: fmt.Sprintf("repository path does not exist: %s", s.corpus.Root()),
		}, nil
	}

	files, err := s.corpus.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan corpus: %w", err)
	}

	if err := s.docs.DeleteAll(ctx); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "starting rebuild", "total_files", len(files))

	result := &RebuildResult{Status: RebuildSuccess}
	var errorCount int
	seen := make(map[string]bool, len(files))
	for _, file := range files {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// A live copy shadows an archived one with the same name
		if seen[file.ID] {
			logger.WarnContext(ctx, "skipping shadowed archived copy", "filename", file.Filename)
			continue
		}
		seen[file.ID] = true

		content, err := s.corpus.Read(file.Filename)
		if err != nil {
			errorCount++
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
			errorCount++
			logger.ErrorContext(ctx, "failed to index document", "filename", file.Filename, "error", err)
			continue
		}

		result.DocumentsIndexed++
		result.TodosFound += res.TodosFound
		if res.EmbeddingGenerated {
			result.EmbeddingsGenerated++
		}
		if file.Archived {
			result.ArchivedCount++
		}
	}

	result.Message = fmt.Sprintf("indexed %d documents", result.DocumentsIndexed)
	logger.InfoContext(ctx, "rebuild completed",
		"documents", result.DocumentsIndexed,
		"archived", result.ArchivedCount,
		"todos", result.TodosFound,
		"embeddings", result.EmbeddingsGenerated,
		"errors", errorCount,
	)
	return result, nil
}
