package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_versioned_store.go -package=mocks braindump/internal/service VersionedStore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sync"
	"time"

	"braindump/internal/commit"
	"braindump/internal/contextutil"
	"braindump/internal/corpus"
	"braindump/internal/extract"
	"braindump/internal/gitstore"
	"braindump/internal/indexer"
	"braindump/internal/storage"
)

// Commit messages for changes committed outside the debounce path.
const (
	msgCreate = "Create new fragment"
	msgDelete = "Delete fragment"
)

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// VersionedStore is the commit store plus per-file history.
// *gitstore.Store implements it.
type VersionedStore interface {
	commit.VersionedStore
	History(ctx context.Context, path string, limit int) ([]gitstore.Commit, error)
}

// Document is a document as stored on disk.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	ModifiedAt time.Time `json:"modified_at"`
	Archived   bool      `json:"archived"`
}

// DocumentService owns the document lifecycle: it writes the corpus, keeps
// the index in step and decides which changes are committed immediately and
// which go through the debounced batcher.
type DocumentService struct {
	mu sync.Mutex // serializes mutations, the watcher included

	corpus         *corpus.Corpus
	index          *indexer.Store
	batcher        *commit.Batcher
	store          VersionedStore
	wantEmbeddings bool
	now            func() time.Time
}

// NewDocumentService creates a document service.
func NewDocumentService(c *corpus.Corpus, index *indexer.Store, batcher *commit.Batcher, store VersionedStore) *DocumentService {
	return &DocumentService{
		corpus:         c,
		index:          index,
		batcher:        batcher,
		store:          store,
		wantEmbeddings: index.EmbeddingsEnabled(),
		now:            time.Now,
	}
}

// getLogger extracts logger from context or returns default logger.
func getLogger(ctx context.Context) *slog.Logger {
	return contextutil.LoggerFromContext(ctx)
}

// Create writes a new document, commits it at once and indexes it.
func (s *DocumentService) Create(ctx context.Context, content string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel := corpus.NewFilename(s.now())
	if err := s.corpus.Write(rel, content); err != nil {
		return nil, WrapError(err, "failed to create document")
	}
	s.commitNow(ctx, []string{rel}, msgCreate)

	doc, err := s.indexFile(ctx, rel, false)
	if err != nil {
		return nil, err
	}
	getLogger(ctx).InfoContext(ctx, "created document", "doc_id", doc.ID)
	return doc, nil
}

// Get returns a live or archived document.
func (s *DocumentService) Get(ctx context.Context, id string) (*Document, error) {
	rel, archived, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	return s.read(rel, archived)
}

// Update replaces a document's content, re-indexes it and queues a debounced commit.
func (s *DocumentService) Update(ctx context.Context, id, content string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel, archived, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	if err := s.corpus.Write(rel, content); err != nil {
		return nil, WrapError(err, "failed to update document")
	}

	doc, err := s.indexFile(ctx, rel, archived)
	if err != nil {
		return nil, err
	}
	s.batcher.MarkPending(rel)
	return doc, nil
}

// Delete removes a document from disk, the versioned store and the index.
// Its pending entry is dropped so the debounce path never sees the deletion.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rel, _, err := s.locate(id)
	if err != nil {
		return err
	}

	s.batcher.ClearFile(rel)
	if err := s.corpus.Remove(rel); err != nil {
		return WrapError(err, "failed to delete document")
	}
	s.commitNow(ctx, []string{rel}, msgDelete)

	if _, err := s.index.RemoveDocument(ctx, id); err != nil {
		return WrapError(err, "failed to remove document from index")
	}
	getLogger(ctx).InfoContext(ctx, "deleted document", "doc_id", id)
	return nil
}

// Archive moves a live document into the archive directory.
func (s *DocumentService) Archive(ctx context.Context, id string) (*Document, error) {
	return s.move(ctx, id, true)
}

// Unarchive moves an archived document back to the corpus root.
func (s *DocumentService) Unarchive(ctx context.Context, id string) (*Document, error) {
	return s.move(ctx, id, false)
}

func (s *DocumentService) move(ctx context.Context, id string, toArchive bool) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, archived, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	if archived == toArchive {
		msg := "document is already archived"
		if !toArchive {
			msg = "document is not archived"
		}
		return nil, &ValidationError{Field: "archived", Message: msg}
	}

	to := s.corpus.RelPath(id, toArchive)
	// The move commit carries any pending edit with it
	s.batcher.ClearFile(from)
	if err := s.corpus.Move(from, to); err != nil {
		return nil, WrapError(err, "failed to move document")
	}

	verb := "Archive"
	if !toArchive {
		verb = "Unarchive"
	}
	s.commitNow(ctx, []string{from, to}, fmt.Sprintf("%s: %s", verb, id+".md"))

	if ok, err := s.setArchived(ctx, id, toArchive, to); err != nil {
		return nil, WrapError(err, "failed to update index")
	} else if !ok {
		// Not indexed yet; index it at its new location
		return s.indexFile(ctx, to, toArchive)
	}
	return s.read(to, toArchive)
}

// List returns indexed documents, newest first.
func (s *DocumentService) List(ctx context.Context, includeArchived bool) ([]storage.DocumentRecord, error) {
	return s.index.ListDocuments(ctx, storage.DocumentFilter{IncludeArchived: includeArchived})
}

// ListArchived returns archived documents, newest first.
func (s *DocumentService) ListArchived(ctx context.Context) ([]storage.DocumentRecord, error) {
	return s.index.ListDocuments(ctx, storage.DocumentFilter{ArchivedOnly: true})
}

// History returns up to limit commits touching the document's current path.
func (s *DocumentService) History(ctx context.Context, id string, limit int) ([]gitstore.Commit, error) {
	rel, _, err := s.locate(id)
	if err != nil {
		return nil, err
	}
	commits, err := s.store.History(ctx, rel, limit)
	if err != nil {
		return nil, ExternalError(err)
	}
	return commits, nil
}

// Reconcile brings the index in line with whatever is on disk for filename,
// after an edit made outside the service. A changed live file is queued for
// commit; a file gone from both locations is dropped from the index.
func (s *DocumentService) Reconcile(ctx context.Context, filename string) error {
	id := extract.Stem(filename)
	if !validID.MatchString(id) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logger := getLogger(ctx).With("doc_id", id)

	for _, archived := range []bool{false, true} {
		rel := s.corpus.RelPath(id, archived)
		info, err := s.corpus.Stat(rel)
		if err != nil {
			continue
		}
		content, err := s.corpus.Read(rel)
		if err != nil {
			return WrapError(err, "failed to read document")
		}
		res, err := s.index.IndexDocument(ctx, indexer.DocumentInput{
			ID:         id,
			Filename:   rel,
			Content:    content,
			CreatedAt:  info.ModTime(),
			ModifiedAt: info.ModTime(),
			Archived:   archived,
		}, s.wantEmbeddings)
		if err != nil {
			return err
		}
		// Unchanged content still needs the location fixed after an outside move
		if _, err := s.setArchived(ctx, id, archived, rel); err != nil {
			return err
		}
		if res.Status == indexer.StatusIndexed {
			s.batcher.MarkPending(rel)
			logger.InfoContext(ctx, "reconciled external edit", "path", rel)
		}
		return nil
	}

	s.batcher.ClearFile(s.corpus.RelPath(id, false))
	removed, err := s.index.RemoveDocument(ctx, id)
	if err != nil {
		return err
	}
	if removed {
		logger.InfoContext(ctx, "reconciled external delete")
	}
	return nil
}

// locate finds a document on disk, preferring the live copy.
func (s *DocumentService) locate(id string) (rel string, archived bool, err error) {
	if !validID.MatchString(id) {
		return "", false, &ValidationError{Field: "id", Message: fmt.Sprintf("invalid document id %q", id)}
	}
	for _, archived := range []bool{false, true} {
		rel := s.corpus.RelPath(id, archived)
		if _, err := s.corpus.Stat(rel); err == nil {
			return rel, archived, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, WrapError(err, "failed to stat document")
		}
	}
	return "", false, fmt.Errorf("document %s: %w", id, ErrNotFound)
}

func (s *DocumentService) read(rel string, archived bool) (*Document, error) {
	content, err := s.corpus.Read(rel)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("document %s: %w", rel, ErrNotFound)
	}
	if err != nil {
		return nil, WrapError(err, "failed to read document")
	}
	info, err := s.corpus.Stat(rel)
	if err != nil {
		return nil, WrapError(err, "failed to stat document")
	}
	return &Document{
		ID:         extract.Stem(rel),
		Filename:   rel,
		Title:      extract.Title(content, rel),
		Content:    content,
		ModifiedAt: info.ModTime(),
		Archived:   archived,
	}, nil
}

func (s *DocumentService) setArchived(ctx context.Context, id string, archived bool, rel string) (bool, error) {
	if archived {
		return s.index.ArchiveDocument(ctx, id, rel)
	}
	return s.index.UnarchiveDocument(ctx, id, rel)
}

// indexFile indexes the file at rel and returns it as read from disk.
func (s *DocumentService) indexFile(ctx context.Context, rel string, archived bool) (*Document, error) {
	doc, err := s.read(rel, archived)
	if err != nil {
		return nil, err
	}
	_, err = s.index.IndexDocument(ctx, indexer.DocumentInput{
		ID:         doc.ID,
		Filename:   rel,
		Content:    doc.Content,
		CreatedAt:  doc.ModifiedAt,
		ModifiedAt: doc.ModifiedAt,
		Archived:   archived,
	}, s.wantEmbeddings)
	if err != nil {
		return nil, WrapError(err, "failed to index document")
	}
	return doc, nil
}

// commitNow commits paths immediately. A failure is logged and the paths
// are handed to the batcher so the next flush retries them.
func (s *DocumentService) commitNow(ctx context.Context, paths []string, message string) {
	if err := s.store.CommitFiles(ctx, paths, message); err != nil {
		getLogger(ctx).ErrorContext(ctx, "immediate commit failed, deferring to batch", "paths", paths, "error", err)
		for _, p := range paths {
			s.batcher.MarkPending(p)
		}
	}
}
