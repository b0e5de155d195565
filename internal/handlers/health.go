package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"braindump/internal/contextutil"
)

const healthCheckTimeout = 5 * time.Second

// Pinger reports whether the index database is reachable. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Corpus reports whether the notes directory is present. *corpus.Corpus implements it.
type Corpus interface {
	Exists() bool
}

// probe is one named dependency check. A non-nil error fails the health check.
type probe struct {
	name  string
	issue string
	check func(ctx context.Context) error
}

var errCorpusMissing = errors.New("corpus directory does not exist")

// HealthHandler reports whether the database and corpus are usable.
type HealthHandler struct {
	probes            []probe
	embeddingsEnabled bool
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger, c Corpus, embeddingsEnabled bool) *HealthHandler {
	return &HealthHandler{
		probes: []probe{
			{name: "database", issue: "database_unavailable", check: db.PingContext},
			{name: "corpus", issue: "corpus_missing", check: func(context.Context) error {
				if !c.Exists() {
					return errCorpusMissing
				}
				return nil
			}},
		},
		embeddingsEnabled: embeddingsEnabled,
	}
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string            `json:"status"` // "healthy" or "unhealthy"
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Issues    []string          `json:"issues,omitempty"`
}

// ServeHTTP runs every probe. Returns 200 when all pass, 503 otherwise.
// Semantic search is optional, so its state is reported but never fails the check.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string, len(h.probes)+1),
	}
	for _, p := range h.probes {
		if err := p.check(checkCtx); err != nil {
			logger.WarnContext(ctx, "health check failed", "check", p.name, "error", err)
			resp.Checks[p.name] = "error"
			resp.Issues = append(resp.Issues, p.issue)
			continue
		}
		resp.Checks[p.name] = "ok"
	}

	if h.embeddingsEnabled {
		resp.Checks["embeddings"] = "enabled"
	} else {
		resp.Checks["embeddings"] = "disabled"
	}

	status := http.StatusOK
	if len(resp.Issues) > 0 {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	writeJSON(ctx, w, status, resp)
}
