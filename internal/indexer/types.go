package indexer

import "time"

// Status reports what IndexDocument did.
type Status string

const (
	StatusUnchanged Status = "unchanged"
	StatusIndexed   Status = "indexed"
)

// RebuildStatus reports how a rebuild ended.
type RebuildStatus string

const (
	RebuildSuccess RebuildStatus = "success"
	RebuildError   RebuildStatus = "error"
)

// DocumentInput is a document as read from the corpus.
type DocumentInput struct {
	ID         string // Filename stem
	Filename   string // Stored path relative to the corpus root
	Content    string
	CreatedAt  time.Time
	ModifiedAt time.Time
	Archived   bool
}

// IndexResult is the outcome of indexing one document.
type IndexResult struct {
	Status             Status `json:"status"`
	DocID              string `json:"doc_id"`
	TodosFound         int    `json:"todos_found"`
	QuestionsFound     int    `json:"questions_found"`
	EmbeddingGenerated bool   `json:"embedding_generated"`
}

// RebuildResult summarizes a full rebuild.
type RebuildResult struct {
	Status              RebuildStatus `json:"status"`
	Message             string        `json:"message,omitempty"`
	DocumentsIndexed    int           `json:"documents_indexed"`
	TodosFound          int           `json:"todos_found"`
	EmbeddingsGenerated int           `json:"embeddings_generated"`
	ArchivedCount       int           `json:"archived_count"`
}
