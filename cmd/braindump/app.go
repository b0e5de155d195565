package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"braindump/internal/commit"
	"braindump/internal/config"
	"braindump/internal/corpus"
	"braindump/internal/embedding"
	"braindump/internal/gitstore"
	"braindump/internal/indexer"
	"braindump/internal/search"
	"braindump/internal/storage"
)

// app is the wired core shared by every subcommand.
type app struct {
	cfg     *config.Config
	lock    *storage.FileLock
	db      *sql.DB
	corpus  *corpus.Corpus
	index   *indexer.Store
	ranker  *search.Ranker
	batcher *commit.Batcher
}

// openApp opens the index and builds the components over it. Commands that
// write to the index or the repository pass exclusive, which takes the
// database file lock so a second writer fails fast.
func openApp(ctx context.Context, cfg *config.Config, exclusive bool) (*app, error) {
	a := &app{cfg: cfg}

	if exclusive {
		a.lock = storage.NewFileLock(cfg.DBPath)
		if err := a.lock.TryLock(); err != nil {
			return nil, err
		}
	}

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	if err := storage.Migrate(db); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.InfoContext(ctx, "Database initialized", "path", cfg.DBPath)

	a.corpus = corpus.New(cfg.RepoPath, cfg.ArchiveDir)
	a.batcher = commit.NewBatcher(cfg.CommitDebounce)

	if cfg.EmbeddingsEnabled() {
		client := embedding.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingDimension)
		cache := embedding.NewCache(client, storage.NewEmbeddingRepo(db), cfg.EmbeddingCacheSize)
		a.index = indexer.NewStore(db, a.corpus, cache)
		a.ranker = search.NewRanker(a.index, cache, cfg.SearchMinSimilarity)
		slog.InfoContext(ctx, "Semantic search enabled", "base_url", cfg.EmbeddingBaseURL, "model", cfg.EmbeddingModel)
	} else {
		a.index = indexer.NewStore(db, a.corpus, nil)
		a.ranker = search.NewRanker(a.index, nil, cfg.SearchMinSimilarity)
		slog.InfoContext(ctx, "Semantic search disabled, using title search only")
	}

	return a, nil
}

// openStore opens the git repository at the corpus root.
func (a *app) openStore() (*gitstore.Store, error) {
	store, err := gitstore.Open(a.cfg.RepoPath, a.cfg.GitAuthorName, a.cfg.GitAuthorEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to open notes repository: %w", err)
	}
	return store, nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil {
			slog.Warn("Failed to release index lock", "error", err)
		}
	}
}
