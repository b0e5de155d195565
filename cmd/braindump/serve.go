package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"braindump/internal/commit"
	"braindump/internal/http"
	"braindump/internal/service"
	"braindump/internal/watch"
)

const shutdownTimeout = 10 * time.Second

func (c *cli) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server (default)",
		Long: `Start the API server.

On startup, documents left uncommitted by a previous run are committed and the
index is synced with the corpus. Edits made through the API are committed in
batches once COMMIT_DEBOUNCE_MINUTES has passed; pending edits are committed
on shutdown. With WATCH_CORPUS=true, files edited outside the API are
re-indexed as they change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runServe(cmd.Context())
		},
	}
}

func (c *cli) runServe(ctx context.Context) error {
	cfg := c.cfg

	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.openStore()
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Notes repository ready", "path", store.Root())

	if res, err := commit.CommitUncommittedOnStartup(ctx, store); err != nil {
		slog.ErrorContext(ctx, "Failed to commit changes from previous run", "error", err)
	} else if res != nil {
		slog.InfoContext(ctx, "Committed changes from previous run", "files", res.Count)
	}

	synced, err := a.index.Sync(ctx, a.index.EmbeddingsEnabled())
	if err != nil {
		return fmt.Errorf("failed to sync index: %w", err)
	}
	slog.InfoContext(ctx, "Index synced",
		"indexed", synced.Indexed,
		"unchanged", synced.Unchanged,
		"moved", synced.Moved,
		"removed", synced.Removed,
	)

	docs := service.NewDocumentService(a.corpus, a.index, a.batcher, store)

	deps := &http.Deps{
		Documents:         docs,
		Index:             a.index,
		Searcher:          a.ranker,
		Batcher:           a.batcher,
		Store:             store,
		DB:                a.db,
		Corpus:            a.corpus,
		EmbeddingsEnabled: a.index.EmbeddingsEnabled(),
	}
	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           http.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	flusher := commit.NewFlusher(a.batcher, store, cfg.CommitFlushInterval)
	g.Go(func() error {
		flusher.Run(gctx)
		return nil
	})

	if cfg.WatchCorpus {
		watcher := watch.New(cfg.RepoPath, cfg.ArchiveDir, docs, watch.DefaultDebounce)
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	g.Go(func() error {
		slog.InfoContext(gctx, "Starting API server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down API server: %w", err)
		}
		return nil
	})

	runErr := g.Wait()

	// Pending edits are committed regardless of the debounce window.
	flushCtx := context.WithoutCancel(ctx)
	if res, err := a.batcher.FlushAll(flushCtx, store); err != nil {
		slog.ErrorContext(flushCtx, "Failed to commit pending changes on shutdown", "error", err)
	} else if res != nil {
		slog.InfoContext(flushCtx, "Committed pending changes on shutdown", "files", res.Count)
	}

	return runErr
}
