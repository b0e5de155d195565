package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ActionItemFilter narrows action item listings.
type ActionItemFilter struct {
	IncludeDone     bool
	IncludeArchived bool
}

// ActionItemRepo provides methods for action item (todo) operations.
type ActionItemRepo struct {
	db DBTX
}

// NewActionItemRepo creates a new ActionItemRepo over a database or transaction.
func NewActionItemRepo(db DBTX) *ActionItemRepo {
	return &ActionItemRepo{db: db}
}

// ReplaceForDocument deletes every action item of the document and inserts items.
// Line numbers are not stable across edits, so rows are never updated in place.
func (r *ActionItemRepo) ReplaceForDocument(ctx context.Context, documentID string, items []ActionItemRecord) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM todos WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to delete action items: %w", err)
	}
	for _, item := range items {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO todos (document_id, line_number, todo_type, text, is_done, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			documentID, item.LineNumber, item.Kind, item.Text, boolToInt(item.Done), toMillis(item.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert action item at line %d: %w", item.LineNumber, err)
		}
	}
	return nil
}

// ListForDocument returns the document's action items ordered by line.
func (r *ActionItemRepo) ListForDocument(ctx context.Context, documentID string) ([]ActionItemRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, document_id, line_number, todo_type, text, is_done, created_at
		 FROM todos WHERE document_id = ? ORDER BY line_number`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query action items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var items []ActionItemRecord
	for rows.Next() {
		var (
			item      ActionItemRecord
			done      int
			createdAt int64
		)
		if err := rows.Scan(&item.ID, &item.DocumentID, &item.LineNumber, &item.Kind, &item.Text, &done, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan action item: %w", err)
		}
		item.Done = done == 1
		item.CreatedAt = fromMillis(createdAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// List returns action items across documents, newest first.
func (r *ActionItemRepo) List(ctx context.Context, filter ActionItemFilter) ([]ActionItemView, error) {
	var where []string
	if !filter.IncludeDone {
		where = append(where, "t.is_done = 0")
	}
	if !filter.IncludeArchived {
		where = append(where, "d.archived = 0")
	}
	return r.listViews(ctx, where, nil)
}

// CompletedSince returns done action items whose document was modified at or after cutoff.
func (r *ActionItemRepo) CompletedSince(ctx context.Context, cutoff time.Time, includeArchived bool) ([]ActionItemView, error) {
	where := []string{"t.is_done = 1", "d.modified_at >= ?"}
	if !includeArchived {
		where = append(where, "d.archived = 0")
	}
	return r.listViews(ctx, where, []any{toMillis(cutoff)})
}

// CountByState returns the number of open and done action items on live documents.
func (r *ActionItemRepo) CountByState(ctx context.Context) (open, done int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(t.is_done = 0), 0), COALESCE(SUM(t.is_done = 1), 0)
		 FROM todos t JOIN documents d ON t.document_id = d.id
		 WHERE d.archived = 0`,
	).Scan(&open, &done)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count action items: %w", err)
	}
	return open, done, nil
}

func (r *ActionItemRepo) listViews(ctx context.Context, where []string, args []any) ([]ActionItemView, error) {
	query := `SELECT t.id, t.document_id, t.line_number, t.todo_type, t.text, t.is_done, t.created_at,
		d.title, d.filename
		FROM todos t JOIN documents d ON t.document_id = d.id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.created_at DESC, t.document_id, t.line_number"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query action items: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var views []ActionItemView
	for rows.Next() {
		var (
			v         ActionItemView
			done      int
			createdAt int64
			title     *string
		)
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.LineNumber, &v.Kind, &v.Text, &done, &createdAt, &title, &v.Filename); err != nil {
			return nil, fmt.Errorf("failed to scan action item: %w", err)
		}
		v.Done = done == 1
		v.CreatedAt = fromMillis(createdAt)
		if title != nil {
			v.DocumentTitle = *title
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return views, nil
}
