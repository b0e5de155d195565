package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"braindump/internal/commit"
	"braindump/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Documents         handlers.DocumentService
	Index             handlers.Index
	Searcher          handlers.Searcher
	Batcher           *commit.Batcher
	Store             commit.VersionedStore
	DB                handlers.Pinger
	Corpus            handlers.Corpus
	EmbeddingsEnabled bool
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// RequestID runs first so the context logger can carry it
	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	// Add CORS middleware
	r.Use(CORS)

	docs := handlers.NewDocumentsHandler(deps.Documents, deps.Index)
	render := handlers.NewRenderHandler(deps.Documents)
	index := handlers.NewIndexHandler(deps.Index)
	commits := handlers.NewCommitsHandler(deps.Batcher, deps.Store)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.DB, deps.Corpus, deps.EmbeddingsEnabled))

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", docs.List)
			r.Post("/", docs.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", docs.Get)
				r.Put("/", docs.Update)
				r.Delete("/", docs.Delete)
				r.Method(http.MethodGet, "/html", render)
				r.Get("/todos", docs.Todos)
				r.Get("/history", docs.History)
				r.Post("/archive", docs.Archive)
				r.Post("/unarchive", docs.Unarchive)
			})
		})
		r.Get("/archive", docs.ListArchived)

		r.Method(http.MethodGet, "/search", handlers.NewSearchHandler(deps.Searcher))
		r.Get("/todos", index.Todos)
		r.Get("/questions", index.Questions)
		r.Get("/stats", index.Stats)
		r.Get("/recent", index.Recent)
		r.Post("/index/rebuild", index.Rebuild)

		r.Get("/commits/pending", commits.Pending)
		r.Post("/commits/flush", commits.Flush)
	})

	return r
}
