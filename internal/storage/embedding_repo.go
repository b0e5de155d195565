package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedding_store.go -package=mocks braindump/internal/storage EmbeddingStore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// EmbeddingStore defines the embedding operations the embedding cache needs.
type EmbeddingStore interface {
	// Get returns the embedding for a document, or ErrNotFound.
	Get(ctx context.Context, documentID string) (*EmbeddingRecord, error)
	// Upsert inserts or replaces the embedding for rec.DocumentID.
	Upsert(ctx context.Context, rec *EmbeddingRecord) error
}

// EmbeddingRepo provides methods for embedding operations.
// It implements the EmbeddingStore interface.
type EmbeddingRepo struct {
	db DBTX
}

// NewEmbeddingRepo creates a new EmbeddingRepo over a database or transaction.
func NewEmbeddingRepo(db DBTX) *EmbeddingRepo {
	return &EmbeddingRepo{db: db}
}

// Get returns the embedding for a document, or ErrNotFound.
func (r *EmbeddingRepo) Get(ctx context.Context, documentID string) (*EmbeddingRecord, error) {
	var (
		rec       EmbeddingRecord
		blob      []byte
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT document_id, content_hash, embedding, created_at FROM embeddings WHERE document_id = ?",
		documentID,
	).Scan(&rec.DocumentID, &rec.ContentHash, &blob, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query embedding: %w", err)
	}
	vec, err := decodeFloat32s(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding embedding for %s: %w", documentID, err)
	}
	rec.Vector = vec
	rec.CreatedAt = fromMillis(createdAt)
	return &rec, nil
}

// Upsert inserts or replaces the embedding for rec.DocumentID.
func (r *EmbeddingRepo) Upsert(ctx context.Context, rec *EmbeddingRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO embeddings (document_id, content_hash, embedding, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (document_id) DO UPDATE SET
		 content_hash = excluded.content_hash,
		 embedding = excluded.embedding,
		 created_at = excluded.created_at`,
		rec.DocumentID, rec.ContentHash, encodeFloat32s(rec.Vector), toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

// Delete removes the embedding for a document, if any.
func (r *EmbeddingRepo) Delete(ctx context.Context, documentID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM embeddings WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}
	return nil
}

// Valid returns every non-empty embedding whose hash matches its
// document's current hash. Empty vectors mark documents with nothing to embed.
func (r *EmbeddingRepo) Valid(ctx context.Context, includeArchived bool) ([]EmbeddingRecord, error) {
	query := `SELECT e.document_id, e.content_hash, e.embedding, e.created_at
		FROM embeddings e JOIN documents d ON e.document_id = d.id
		WHERE e.content_hash = d.content_hash AND length(e.embedding) > 0`
	if !includeArchived {
		query += " AND d.archived = 0"
	}
	query += " ORDER BY d.modified_at DESC, d.id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var recs []EmbeddingRecord
	for rows.Next() {
		var (
			rec       EmbeddingRecord
			blob      []byte
			createdAt int64
		)
		if err := rows.Scan(&rec.DocumentID, &rec.ContentHash, &blob, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		if rec.Vector, err = decodeFloat32s(blob); err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", rec.DocumentID, err)
		}
		rec.CreatedAt = fromMillis(createdAt)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return recs, nil
}

// CountValid returns the number of valid embeddings on live documents.
func (r *EmbeddingRepo) CountValid(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM embeddings e JOIN documents d ON e.document_id = d.id
		 WHERE e.content_hash = d.content_hash AND length(e.embedding) > 0 AND d.archived = 0`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return n, nil
}

// staleCondition matches documents with no embedding or one computed from older content.
const staleCondition = "(e.document_id IS NULL OR e.content_hash != d.content_hash)"

// Stale returns documents with no embedding or one computed from older
// content. Archived documents are included only when includeArchived is set.
func (r *EmbeddingRepo) Stale(ctx context.Context, includeArchived bool) ([]DocumentRecord, error) {
	query := `SELECT d.id, d.filename, d.title, d.content_hash, d.created_at, d.modified_at, d.indexed_at, d.archived
		FROM documents d LEFT JOIN embeddings e ON e.document_id = d.id
		WHERE ` + staleCondition
	if !includeArchived {
		query += " AND d.archived = 0"
	}
	query += " ORDER BY d.modified_at DESC, d.id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale embeddings: %w", err)
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

// CountStale returns how many live and archived documents Stale would list.
func (r *EmbeddingRepo) CountStale(ctx context.Context) (live, archived int, err error) {
	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN d.archived = 0 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(d.archived), 0)
		 FROM documents d LEFT JOIN embeddings e ON e.document_id = d.id
		 WHERE `+staleCondition,
	).Scan(&live, &archived)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count stale embeddings: %w", err)
	}
	return live, archived, nil
}

// encodeFloat32s serializes a float32 slice to little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s deserializes little-endian bytes into a new float32 slice.
func decodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
