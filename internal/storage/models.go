package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentRecord represents an indexed document row.
type DocumentRecord struct {
	ID          string // Filename stem
	Filename    string // Path relative to the corpus root
	Title       string // Derived from content, never authoritative
	ContentHash string // SHA256 hex of the indexed content
	CreatedAt   time.Time
	ModifiedAt  time.Time
	IndexedAt   time.Time
	Archived    bool
}

// ActionItemRecord represents a TODO or TASK row.
type ActionItemRecord struct {
	ID         int64
	DocumentID string
	LineNumber int
	Kind       string // "TODO" or "TASK"
	Text       string
	Done       bool
	CreatedAt  time.Time
}

// ActionItemView is an action item joined with its document.
type ActionItemView struct {
	ActionItemRecord
	DocumentTitle string
	Filename      string
}

// QuestionRecord represents an open question row.
type QuestionRecord struct {
	ID         int64
	DocumentID string
	LineNumber int
	Text       string
	Resolved   bool
	CreatedAt  time.Time
}

// QuestionView is a question joined with its document.
type QuestionView struct {
	QuestionRecord
	DocumentTitle string
	Filename      string
}

// EmbeddingRecord holds the vector computed for a document's content.
// It is valid only while ContentHash matches the document's hash.
type EmbeddingRecord struct {
	DocumentID  string
	ContentHash string
	Vector      []float32
	CreatedAt   time.Time
}
