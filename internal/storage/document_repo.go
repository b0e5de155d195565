package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DocumentFilter selects documents by archive state.
type DocumentFilter struct {
	IncludeArchived bool // include archived documents alongside live ones
	ArchivedOnly    bool // only archived documents; wins over IncludeArchived
}

func (f DocumentFilter) clause(alias string) string {
	switch {
	case f.ArchivedOnly:
		return alias + "archived = 1"
	case f.IncludeArchived:
		return "1 = 1"
	default:
		return alias + "archived = 0"
	}
}

// DocumentRepo provides methods for document operations.
type DocumentRepo struct {
	db DBTX
}

// NewDocumentRepo creates a new DocumentRepo over a database or transaction.
func NewDocumentRepo(db DBTX) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = "id, filename, title, content_hash, created_at, modified_at, indexed_at, archived"

func scanDocument(row interface{ Scan(...any) error }) (*DocumentRecord, error) {
	var (
		doc                             DocumentRecord
		title                           sql.NullString
		createdAt, modifiedAt, indexedAt int64
		archived                        int
	)
	if err := row.Scan(&doc.ID, &doc.Filename, &title, &doc.ContentHash, &createdAt, &modifiedAt, &indexedAt, &archived); err != nil {
		return nil, err
	}
	doc.Title = title.String
	doc.CreatedAt = fromMillis(createdAt)
	doc.ModifiedAt = fromMillis(modifiedAt)
	doc.IndexedAt = fromMillis(indexedAt)
	doc.Archived = archived == 1
	return &doc, nil
}

// Get gets a document by ID. Returns ErrNotFound if not found.
func (r *DocumentRepo) Get(ctx context.Context, id string) (*DocumentRecord, error) {
	doc, err := scanDocument(r.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// ContentHash returns the stored hash for a document, or ErrNotFound.
func (r *DocumentRepo) ContentHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, "SELECT content_hash FROM documents WHERE id = ?", id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query content hash: %w", err)
	}
	return hash, nil
}

// Upsert inserts a new document or updates an existing one.
// created_at is preserved for existing rows.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *DocumentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 filename = excluded.filename,
		 title = excluded.title,
		 content_hash = excluded.content_hash,
		 modified_at = excluded.modified_at,
		 indexed_at = excluded.indexed_at,
		 archived = excluded.archived`,
		doc.ID, doc.Filename, doc.Title, doc.ContentHash,
		toMillis(doc.CreatedAt), toMillis(doc.ModifiedAt), toMillis(doc.IndexedAt), boolToInt(doc.Archived),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// Delete removes a document. Action items, questions and the embedding
// cascade with it. Returns false if no row matched.
func (r *DocumentRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	return affected(res)
}

// SetArchived flips the archived flag and stored path, leaving everything else alone.
func (r *DocumentRepo) SetArchived(ctx context.Context, id string, archived bool, filename string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE documents SET archived = ?, filename = ? WHERE id = ?",
		boolToInt(archived), filename, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update archived flag: %w", err)
	}
	return affected(res)
}

// List returns documents ordered by most recently modified.
func (r *DocumentRepo) List(ctx context.Context, filter DocumentFilter) ([]DocumentRecord, error) {
	return r.query(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE "+filter.clause("")+" ORDER BY modified_at DESC, id")
}

// ModifiedSince returns documents modified at or after cutoff, newest first.
func (r *DocumentRepo) ModifiedSince(ctx context.Context, cutoff time.Time, filter DocumentFilter) ([]DocumentRecord, error) {
	return r.query(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE modified_at >= ? AND "+filter.clause("")+" ORDER BY modified_at DESC, id",
		toMillis(cutoff))
}

// SearchTitle matches query as a substring of title or filename, newest first.
func (r *DocumentRepo) SearchTitle(ctx context.Context, query string, limit int, filter DocumentFilter) ([]DocumentRecord, error) {
	pattern := "%" + escapeLike(query) + "%"
	return r.query(ctx,
		"SELECT "+documentColumns+` FROM documents
		 WHERE (title LIKE ? ESCAPE '\' OR filename LIKE ? ESCAPE '\') AND `+filter.clause("")+`
		 ORDER BY modified_at DESC, id LIMIT ?`,
		pattern, pattern, limit)
}

// Count returns the number of live and archived documents.
func (r *DocumentRepo) Count(ctx context.Context) (live, archived int, err error) {
	err = r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(archived = 0), 0), COALESCE(SUM(archived = 1), 0) FROM documents",
	).Scan(&live, &archived)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return live, archived, nil
}

// DeleteAll removes every document and, through the cascade, every derived row.
func (r *DocumentRepo) DeleteAll(ctx context.Context) error {
	for _, stmt := range []string{
		"DELETE FROM todos",
		"DELETE FROM questions",
		"DELETE FROM embeddings",
		"DELETE FROM documents",
	} {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
	}
	return nil
}

func (r *DocumentRepo) query(ctx context.Context, query string, args ...any) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []DocumentRecord
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
