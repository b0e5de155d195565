package handlers

import (
	"context"
	"net/http"
	"strings"

	"braindump/internal/search"
	"braindump/internal/service"
)

// Searcher answers document queries. *search.Ranker implements it.
type Searcher interface {
	SearchDocuments(ctx context.Context, query string, limit int, includeArchived bool) ([]search.Result, search.Method, error)
}

// SearchHandler handles GET /api/search.
type SearchHandler struct {
	searcher Searcher
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// SearchResponse is the result of a search.
type SearchResponse struct {
	Query   string          `json:"query"`
	Method  search.Method   `json:"method"`
	Results []search.Result `json:"results"`
	Count   int             `json:"count"`
}

// ServeHTTP handles HTTP requests for document search.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		handleServiceError(ctx, w, &service.ValidationError{Field: "q", Message: "query is required"}, "")
		return
	}
	limit, err := queryInt(r, "limit", search.DefaultLimit)
	if err != nil {
		handleServiceError(ctx, w, err, "")
		return
	}
	includeArchived, err := queryBool(r, "include_archived", false)
	if err != nil {
		handleServiceError(ctx, w, err, "")
		return
	}

	results, method, err := h.searcher.SearchDocuments(ctx, query, limit, includeArchived)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to search documents")
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(ctx, w, http.StatusOK, SearchResponse{
		Query:   query,
		Method:  method,
		Results: results,
		Count:   len(results),
	})
}
