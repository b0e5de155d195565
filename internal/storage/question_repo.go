package storage

import (
	"context"
	"fmt"
	"strings"
)

// QuestionFilter narrows question listings.
type QuestionFilter struct {
	IncludeResolved bool
	IncludeArchived bool
}

// QuestionRepo provides methods for question operations.
type QuestionRepo struct {
	db DBTX
}

// NewQuestionRepo creates a new QuestionRepo over a database or transaction.
func NewQuestionRepo(db DBTX) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// ReplaceForDocument deletes every question of the document and inserts questions.
func (r *QuestionRepo) ReplaceForDocument(ctx context.Context, documentID string, questions []QuestionRecord) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM questions WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to delete questions: %w", err)
	}
	for _, q := range questions {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO questions (document_id, line_number, text, is_resolved, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			documentID, q.LineNumber, q.Text, boolToInt(q.Resolved), toMillis(q.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert question at line %d: %w", q.LineNumber, err)
		}
	}
	return nil
}

// List returns questions across documents, newest first.
func (r *QuestionRepo) List(ctx context.Context, filter QuestionFilter) ([]QuestionView, error) {
	query := `SELECT q.id, q.document_id, q.line_number, q.text, q.is_resolved, q.created_at,
		d.title, d.filename
		FROM questions q JOIN documents d ON q.document_id = d.id`
	var where []string
	if !filter.IncludeResolved {
		where = append(where, "q.is_resolved = 0")
	}
	if !filter.IncludeArchived {
		where = append(where, "d.archived = 0")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY q.created_at DESC, q.document_id, q.line_number, q.id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var views []QuestionView
	for rows.Next() {
		var (
			v         QuestionView
			resolved  int
			createdAt int64
			title     *string
		)
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.LineNumber, &v.Text, &resolved, &createdAt, &title, &v.Filename); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		v.Resolved = resolved == 1
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

// CountForDocument returns the number of questions stored for a document.
func (r *QuestionRepo) CountForDocument(ctx context.Context, documentID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions WHERE document_id = ?", documentID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return n, nil
}

// CountOpen returns the number of unresolved questions on live documents.
func (r *QuestionRepo) CountOpen(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions q JOIN documents d ON q.document_id = d.id
		 WHERE q.is_resolved = 0 AND d.archived = 0`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return n, nil
}
