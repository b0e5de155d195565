package handlers

import (
	"net/http"

	"braindump/internal/commit"
	"braindump/internal/service"
)

// CommitsHandler exposes the debounced commit queue.
type CommitsHandler struct {
	batcher *commit.Batcher
	store   commit.VersionedStore
}

// NewCommitsHandler creates a new CommitsHandler.
func NewCommitsHandler(batcher *commit.Batcher, store commit.VersionedStore) *CommitsHandler {
	return &CommitsHandler{batcher: batcher, store: store}
}

// Pending handles GET /api/commits/pending.
func (h *CommitsHandler) Pending(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.batcher.Stats())
}

// Flush handles POST /api/commits/flush. It commits everything pending now,
// regardless of age.
func (h *CommitsHandler) Flush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.batcher.FlushAll(ctx, h.store)
	if err != nil {
		handleServiceError(ctx, w, service.ExternalError(err), "")
		return
	}
	if result == nil {
		result = &commit.FlushResult{Files: []string{}}
	}
	writeJSON(ctx, w, http.StatusOK, result)
}
