package handlers

import (
	"context"
	"net/http"
	"time"

	"braindump/internal/contextutil"
	"braindump/internal/indexer"
	"braindump/internal/storage"
)

const defaultRecentHours = 24

// Index is the read side of the document index plus rebuild.
// *indexer.Store implements it.
type Index interface {
	GetDocument(ctx context.Context, id string) (*storage.DocumentRecord, error)
	DocumentActionItems(ctx context.Context, id string) ([]storage.ActionItemRecord, error)
	ListActionItems(ctx context.Context, filter storage.ActionItemFilter) ([]storage.ActionItemView, error)
	ListQuestions(ctx context.Context, filter storage.QuestionFilter) ([]storage.QuestionView, error)
	RecentlyModified(ctx context.Context, hours int) ([]storage.DocumentRecord, error)
	RecentlyCompleted(ctx context.Context, hours int) ([]storage.ActionItemView, error)
	GetStats(ctx context.Context) (*indexer.Stats, error)
	EmbeddingsEnabled() bool
	RebuildIndex(ctx context.Context, wantEmbeddings bool) (*indexer.RebuildResult, error)
}

// IndexHandler handles the aggregate views over the index and rebuilds.
type IndexHandler struct {
	index Index
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(index Index) *IndexHandler {
	return &IndexHandler{index: index}
}

// ActionItemResponse is one TODO or TASK.
type ActionItemResponse struct {
	ID            int64     `json:"id"`
	DocumentID    string    `json:"document_id"`
	Line          int       `json:"line"`
	Kind          string    `json:"kind"`
	Text          string    `json:"text"`
	Done          bool      `json:"done"`
	CreatedAt     time.Time `json:"created_at"`
	DocumentTitle string    `json:"document_title,omitempty"`
	Filename      string    `json:"filename,omitempty"`
}

// ActionItemListResponse wraps a list of action items.
type ActionItemListResponse struct {
	Items []ActionItemResponse `json:"items"`
	Count int                  `json:"count"`
}

// QuestionResponse is one open or resolved question.
type QuestionResponse struct {
	ID            int64     `json:"id"`
	DocumentID    string    `json:"document_id"`
	Line          int       `json:"line"`
	Text          string    `json:"text"`
	Resolved      bool      `json:"resolved"`
	CreatedAt     time.Time `json:"created_at"`
	DocumentTitle string    `json:"document_title"`
	Filename      string    `json:"filename"`
}

// QuestionListResponse wraps a list of questions.
type QuestionListResponse struct {
	Questions []QuestionResponse `json:"questions"`
	Count     int                `json:"count"`
}

// RecentResponse is the activity over the last Hours.
type RecentResponse struct {
	Hours          int                  `json:"hours"`
	Documents      []DocumentSummary    `json:"documents"`
	CompletedTodos []ActionItemResponse `json:"completed_todos"`
}

func toActionItem(item storage.ActionItemRecord) ActionItemResponse {
	return ActionItemResponse{
		ID:         item.ID,
		DocumentID: item.DocumentID,
		Line:       item.LineNumber,
		Kind:       item.Kind,
		Text:       item.Text,
		Done:       item.Done,
		CreatedAt:  item.CreatedAt,
	}
}

func fromViews(views []storage.ActionItemView) []ActionItemResponse {
	out := make([]ActionItemResponse, len(views))
	for i, v := range views {
		out[i] = toActionItem(v.ActionItemRecord)
		out[i].DocumentTitle = v.DocumentTitle
		out[i].Filename = v.Filename
	}
	return out
}

// Todos handles GET /api/todos.
func (h *IndexHandler) Todos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var filter storage.ActionItemFilter
	var err error
	if filter.IncludeDone, err = queryBool(r, "include_done", false); err != nil {
		handleServiceError(ctx, w, err, "")
		return
	}
	if filter.IncludeArchived, err = queryBool(r, "include_archived", false); err != nil {
		handleServiceError(ctx, w, err, "")
		return
	}

	views, err := h.index.ListActionItems(ctx, filter)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list action items")
		return
	}
	items := fromViews(views)
	writeJSON(ctx, w, http.StatusOK, ActionItemListResponse{Items: items, Count: len(items)})
}

// Questions handles GET /api/questions.
func (h *IndexHandler) Questions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var filter storage.QuestionFilter
	var err error
	if filter.IncludeResolved, err = queryBool(r, "include_resolved", false); err != nil {
		handleServiceError(ctx, w, err, "")
		return
	}
	if filter.IncludeArchived, err = queryBool(r, "include_archived", false); err != nil {
		handleServiceError(ctx, w, err, "")
		return
	}

	views, err := h.index.ListQuestions(ctx, filter)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list questions")
		return
	}
	out := make([]QuestionResponse, len(views))
	for i, q := range views {
		out[i] = QuestionResponse{
			ID:            q.ID,
			DocumentID:    q.DocumentID,
			Line:          q.LineNumber,
			Text:          q.Text,
			Resolved:      q.Resolved,
			CreatedAt:     q.CreatedAt,
			DocumentTitle: q.DocumentTitle,
			Filename:      q.Filename,
		}
	}
	writeJSON(ctx, w, http.StatusOK, QuestionListResponse{Questions: out, Count: len(out)})
}

// Stats handles GET /api/stats.
func (h *IndexHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.index.GetStats(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to read stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}

// Recent handles GET /api/recent.
func (h *IndexHandler) Recent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hours, err := queryInt(r, "hours", defaultRecentHours)
	if err != nil {
		handleServiceError(ctx, w, err, "")
		return
	}

	docs, err := h.index.RecentlyModified(ctx, hours)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list recent documents")
		return
	}
	completed, err := h.index.RecentlyCompleted(ctx, hours)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list completed items")
		return
	}
	writeJSON(ctx, w, http.StatusOK, RecentResponse{
		Hours:          hours,
		Documents:      toSummaries(docs).Documents,
		CompletedTodos: fromViews(completed),
	})
}

// Rebuild handles POST /api/index/rebuild. It runs synchronously; a corpus
// that does not exist is reported as a 500 with the rebuild status.
func (h *IndexHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	wantEmbeddings, err := queryBool(r, "embeddings", h.index.EmbeddingsEnabled())
	if err != nil {
		handleServiceError(ctx, w, err, "")
		return
	}

	logger.InfoContext(ctx, "re-indexing triggered via API", "embeddings", wantEmbeddings)
	start := time.Now()
	result, err := h.index.RebuildIndex(ctx, wantEmbeddings)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to rebuild index")
		return
	}

	status := http.StatusOK
	if result.Status == indexer.RebuildError {
		status = http.StatusInternalServerError
	}
	logger.InfoContext(ctx, "re-indexing finished", "status", result.Status, "documents", result.DocumentsIndexed, "duration", time.Since(start))
	writeJSON(ctx, w, status, result)
}
