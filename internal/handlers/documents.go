package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"braindump/internal/contextutil"
	"braindump/internal/gitstore"
	"braindump/internal/service"
	"braindump/internal/storage"
)

const defaultHistoryLimit = 20

// DocumentService is the document lifecycle the handlers drive.
// *service.DocumentService implements it.
type DocumentService interface {
	Create(ctx context.Context, content string) (*service.Document, error)
	Get(ctx context.Context, id string) (*service.Document, error)
	Update(ctx context.Context, id, content string) (*service.Document, error)
	Delete(ctx context.Context, id string) error
	Archive(ctx context.Context, id string) (*service.Document, error)
	Unarchive(ctx context.Context, id string) (*service.Document, error)
	List(ctx context.Context, includeArchived bool) ([]storage.DocumentRecord, error)
	ListArchived(ctx context.Context) ([]storage.DocumentRecord, error)
	History(ctx context.Context, id string, limit int) ([]gitstore.Commit, error)
}

// DocumentsHandler handles the /api/documents routes and /api/archive.
type DocumentsHandler struct {
	docs  DocumentService
	index Index
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(docs DocumentService, index Index) *DocumentsHandler {
	return &DocumentsHandler{docs: docs, index: index}
}

// DocumentRequest is the body of create and update requests.
type DocumentRequest struct {
	Content *string `json:"content"`
}

// DocumentSummary is a document as listed, without its content.
type DocumentSummary struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	Archived   bool      `json:"archived"`
}

// DocumentListResponse wraps a list of documents.
type DocumentListResponse struct {
	Documents []DocumentSummary `json:"documents"`
	Count     int               `json:"count"`
}

// HistoryResponse lists the commits touching one document.
type HistoryResponse struct {
	ID      string            `json:"id"`
	Commits []gitstore.Commit `json:"commits"`
}

func toSummaries(records []storage.DocumentRecord) DocumentListResponse {
	out := make([]DocumentSummary, len(records))
	for i, d := range records {
		out[i] = DocumentSummary{
			ID:         d.ID,
			Filename:   d.Filename,
			Title:      d.Title,
			CreatedAt:  d.CreatedAt,
			ModifiedAt: d.ModifiedAt,
			Archived:   d.Archived,
		}
	}
	return DocumentListResponse{Documents: out, Count: len(out)}
}

// List handles GET /api/documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	includeArchived, err := queryBool(r, "include_archived", false)
	if err != nil {
		handleServiceError(ctx, w, err, "")
		return
	}
	docs, err := h.docs.List(ctx, includeArchived)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list documents")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toSummaries(docs))
}

// ListArchived handles GET /api/archive.
func (h *DocumentsHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docs, err := h.docs.ListArchived(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list archive")
		return
	}
	writeJSON(ctx, w, http.StatusOK, toSummaries(docs))
}

// Create handles POST /api/documents.
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	content, err := readContent(r)
	if err != nil {
		handleServiceError(ctx, w, err, "")
		return
	}
	doc, err := h.docs.Create(ctx, content)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to create document")
		return
	}
	writeJSON(ctx, w, http.StatusCreated, doc)
}

// Get handles GET /api/documents/{id}.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.docs.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to read document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, doc)
}

// Update handles PUT /api/documents/{id}.
func (h *DocumentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	content, err := readContent(r)
	if err != nil {
		handleServiceError(ctx, w, err, "")
		return
	}
	doc, err := h.docs.Update(ctx, chi.URLParam(r, "id"), content)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to update document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, doc)
}

// Delete handles DELETE /api/documents/{id}.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if err := h.docs.Delete(ctx, id); err != nil {
		handleServiceError(ctx, w, err, "Failed to delete document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// Archive handles POST /api/documents/{id}/archive.
func (h *DocumentsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.docs.Archive(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to archive document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, doc)
}

// Unarchive handles POST /api/documents/{id}/unarchive.
func (h *DocumentsHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.docs.Unarchive(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to unarchive document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, doc)
}

// History handles GET /api/documents/{id}/history.
func (h *DocumentsHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	limit, err := queryInt(r, "limit", defaultHistoryLimit)
	if err != nil {
		handleServiceError(ctx, w, err, "")
		return
	}
	commits, err := h.docs.History(ctx, id, limit)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to read history")
		return
	}
	if commits == nil {
		commits = []gitstore.Commit{}
	}
	writeJSON(ctx, w, http.StatusOK, HistoryResponse{ID: id, Commits: commits})
}

// Todos handles GET /api/documents/{id}/todos.
func (h *DocumentsHandler) Todos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if _, err := h.index.GetDocument(ctx, id); err != nil {
		handleServiceError(ctx, w, err, "Failed to read document")
		return
	}
	items, err := h.index.DocumentActionItems(ctx, id)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list action items")
		return
	}
	out := make([]ActionItemResponse, len(items))
	for i, item := range items {
		out[i] = toActionItem(item)
	}
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "listed document action items", "doc_id", id, "count", len(out))
	writeJSON(ctx, w, http.StatusOK, ActionItemListResponse{Items: out, Count: len(out)})
}

func readContent(r *http.Request) (string, error) {
	var req DocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		return "", err
	}
	if req.Content == nil {
		return "", &service.ValidationError{Field: "content", Message: "content is required"}
	}
	return *req.Content, nil
}
