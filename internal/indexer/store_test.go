package indexer

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"braindump/internal/corpus"
	"braindump/internal/embedding"
	"braindump/internal/embedding/mocks"
	"braindump/internal/storage"
)

const exampleContent = "# Title\nTODO: buy milk\n[QUESTION: is this urgent?]\nDONE already\n"

type testEnv struct {
	store  *Store
	corpus *corpus.Corpus
	db     *sql.DB
}

// newTestEnv opens a migrated database and an empty corpus. provider may be nil.
func newTestEnv(t *testing.T, provider embedding.Provider) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := storage.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	root := filepath.Join(dir, "notes")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatalf("Failed to create corpus: %v", err)
	}
	c := corpus.New(root, "archive")

	var cache EmbeddingUpdater
	if provider != nil {
		cache = embedding.NewCache(provider, storage.NewEmbeddingRepo(db), 10)
	}
	return &testEnv{store: NewStore(db, c, cache), corpus: c, db: db}
}

func (e *testEnv) write(t *testing.T, rel, content string) {
	t.Helper()
	if err := e.corpus.Write(rel, content); err != nil {
		t.Fatalf("Write(%s) error = %v", rel, err)
	}
}

func input(id, content string) DocumentInput {
	now := time.Now()
	return DocumentInput{ID: id, Filename: id + ".md", Content: content, CreatedAt: now, ModifiedAt: now}
}

func staticProvider(ctrl *gomock.Controller) *mocks.MockProvider {
	p := mocks.NewMockProvider(ctrl)
	p.EXPECT().ModelName().Return("test-model").AnyTimes()
	p.EXPECT().Dimension().Return(2).AnyTimes()
	p.EXPECT().Embed(gomock.Any(), gomock.Any()).Return([]float32{1, 0}, nil).AnyTimes()
	return p
}

func TestStore_IndexDocument_Example(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	res, err := env.store.IndexDocument(ctx, input("20240101-ab12cd34", exampleContent), false)
	if err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	if res.Status != StatusIndexed || res.TodosFound != 1 || res.QuestionsFound != 1 {
		t.Errorf("IndexDocument() = %+v", res)
	}

	doc, err := env.store.GetDocument(ctx, "20240101-ab12cd34")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc.Title != "Title" {
		t.Errorf("Title = %q, want Title", doc.Title)
	}
	if doc.ContentHash != ContentHash(exampleContent) {
		t.Errorf("ContentHash = %q", doc.ContentHash)
	}

	items, err := env.store.DocumentActionItems(ctx, "20240101-ab12cd34")
	if err != nil {
		t.Fatalf("DocumentActionItems() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("DocumentActionItems() len = %d, want 1", len(items))
	}
	if items[0].Kind != "TODO" || items[0].Text != "buy milk" || items[0].Done || items[0].LineNumber != 2 {
		t.Errorf("action item = %+v", items[0])
	}

	questions, err := env.store.ListQuestions(ctx, storage.QuestionFilter{})
	if err != nil {
		t.Fatalf("ListQuestions() error = %v", err)
	}
	if len(questions) != 1 || questions[0].Text != "is this urgent?" || questions[0].DocumentTitle != "Title" {
		t.Errorf("questions = %+v", questions)
	}
}

func TestStore_IndexDocument_UnchangedIsNoop(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	in := input("a", exampleContent)
	if _, err := env.store.IndexDocument(ctx, in, false); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	before, err := env.store.GetDocument(ctx, "a")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}

	res, err := env.store.IndexDocument(ctx, in, false)
	if err != nil {
		t.Fatalf("IndexDocument() second call error = %v", err)
	}
	if res.Status != StatusUnchanged {
		t.Errorf("Status = %v, want unchanged", res.Status)
	}
	if res.TodosFound != 0 || res.EmbeddingGenerated {
		t.Errorf("unchanged result reported work: %+v", res)
	}

	after, err := env.store.GetDocument(ctx, "a")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if !after.IndexedAt.Equal(before.IndexedAt) {
		t.Errorf("IndexedAt changed on unchanged document: %v -> %v", before.IndexedAt, after.IndexedAt)
	}
	items, _ := env.store.DocumentActionItems(ctx, "a")
	if len(items) != 1 {
		t.Errorf("action items = %d, want 1", len(items))
	}
}

func TestStore_IndexDocument_ReplacesItems(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.store.IndexDocument(ctx, input("a", "# A\nTODO one\nTODO two\n[QUESTION: q1] [QUESTION: q2]"), false); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	res, err := env.store.IndexDocument(ctx, input("a", "# Renamed\nsomething\nTASK three DONE"), false)
	if err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	if res.Status != StatusIndexed || res.TodosFound != 1 || res.QuestionsFound != 0 {
		t.Errorf("IndexDocument() = %+v", res)
	}

	items, err := env.store.DocumentActionItems(ctx, "a")
	if err != nil {
		t.Fatalf("DocumentActionItems() error = %v", err)
	}
	if len(items) != 1 || items[0].Kind != "TASK" || !items[0].Done || items[0].LineNumber != 3 {
		t.Errorf("items after re-index = %+v", items)
	}

	questions, _ := env.store.ListQuestions(ctx, storage.QuestionFilter{IncludeResolved: true})
	if len(questions) != 0 {
		t.Errorf("questions after re-index = %d, want 0", len(questions))
	}

	doc, _ := env.store.GetDocument(ctx, "a")
	if doc.Title != "Renamed" {
		t.Errorf("Title = %q, want Renamed", doc.Title)
	}
}

func TestStore_IndexDocument_TitleFallback(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.store.IndexDocument(ctx, input("20240101-x", "#\nbody"), false); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	doc, _ := env.store.GetDocument(ctx, "20240101-x")
	if doc.Title != "20240101-x" {
		t.Errorf("Title = %q, want filename stem", doc.Title)
	}
}

func TestStore_IndexDocument_Embeddings(t *testing.T) {
	ctx := context.Background()

	t.Run("generated when wanted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		env := newTestEnv(t, staticProvider(ctrl))

		res, err := env.store.IndexDocument(ctx, input("a", "hello"), true)
		if err != nil {
			t.Fatalf("IndexDocument() error = %v", err)
		}
		if !res.EmbeddingGenerated {
			t.Error("EmbeddingGenerated = false, want true")
		}
		stats, _ := env.store.GetStats(ctx)
		if stats.Embeddings != 1 {
			t.Errorf("Embeddings = %d, want 1", stats.Embeddings)
		}
	})

	t.Run("skipped when not wanted or blank", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		provider := mocks.NewMockProvider(ctrl) // no calls expected
		env := newTestEnv(t, provider)

		res, err := env.store.IndexDocument(ctx, input("a", "hello"), false)
		if err != nil || res.EmbeddingGenerated {
			t.Errorf("IndexDocument(want=false) = %+v, %v", res, err)
		}
		res, err = env.store.IndexDocument(ctx, input("b", "  \n\t"), true)
		if err != nil || res.EmbeddingGenerated {
			t.Errorf("IndexDocument(blank) = %+v, %v", res, err)
		}
	})

	t.Run("provider failure keeps text index", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		provider := mocks.NewMockProvider(ctrl)
		provider.EXPECT().Embed(gomock.Any(), gomock.Any()).Return(nil, errors.New("model offline"))
		env := newTestEnv(t, provider)

		res, err := env.store.IndexDocument(ctx, input("a", "TODO survive"), true)
		if err != nil {
			t.Fatalf("IndexDocument() error = %v", err)
		}
		if res.Status != StatusIndexed || res.EmbeddingGenerated || res.TodosFound != 1 {
			t.Errorf("IndexDocument() = %+v", res)
		}
	})
}

func TestStore_ArchivePreservesDerivedRows(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := newTestEnv(t, staticProvider(ctrl))
	ctx := context.Background()

	if _, err := env.store.IndexDocument(ctx, input("a", exampleContent), true); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	before, _ := env.store.GetDocument(ctx, "a")

	ok, err := env.store.ArchiveDocument(ctx, "a", "archive/a.md")
	if err != nil || !ok {
		t.Fatalf("ArchiveDocument() = %v, %v", ok, err)
	}

	after, _ := env.store.GetDocument(ctx, "a")
	if !after.Archived || after.Filename != "archive/a.md" {
		t.Errorf("after archive = %+v", after)
	}
	if after.ContentHash != before.ContentHash || after.Title != before.Title {
		t.Errorf("archive changed content fields: %+v -> %+v", before, after)
	}

	items, _ := env.store.DocumentActionItems(ctx, "a")
	if len(items) != 1 {
		t.Errorf("action items after archive = %d, want 1", len(items))
	}
	questions, _ := env.store.ListQuestions(ctx, storage.QuestionFilter{IncludeArchived: true})
	if len(questions) != 1 {
		t.Errorf("questions after archive = %d, want 1", len(questions))
	}
	candidates, _ := env.store.EmbeddingCandidates(ctx, true)
	if len(candidates) != 1 {
		t.Errorf("embedding candidates with archived = %d, want 1", len(candidates))
	}
	candidates, _ = env.store.EmbeddingCandidates(ctx, false)
	if len(candidates) != 0 {
		t.Errorf("embedding candidates without archived = %d, want 0", len(candidates))
	}

	// Archived documents drop out of default listings
	open, _ := env.store.ListActionItems(ctx, storage.ActionItemFilter{})
	if len(open) != 0 {
		t.Errorf("open action items after archive = %d, want 0", len(open))
	}

	ok, err = env.store.UnarchiveDocument(ctx, "a", "a.md")
	if err != nil || !ok {
		t.Fatalf("UnarchiveDocument() = %v, %v", ok, err)
	}
	restored, _ := env.store.GetDocument(ctx, "a")
	if restored.Archived || restored.Filename != "a.md" {
		t.Errorf("after unarchive = %+v", restored)
	}

	ok, err = env.store.ArchiveDocument(ctx, "missing", "archive/missing.md")
	if err != nil || ok {
		t.Errorf("ArchiveDocument(missing) = %v, %v, want false, nil", ok, err)
	}
}

func TestStore_RemoveDocument(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := newTestEnv(t, staticProvider(ctrl))
	ctx := context.Background()

	if _, err := env.store.IndexDocument(ctx, input("a", exampleContent), true); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}

	removed, err := env.store.RemoveDocument(ctx, "a")
	if err != nil || !removed {
		t.Fatalf("RemoveDocument() = %v, %v", removed, err)
	}
	if _, err := env.store.GetDocument(ctx, "a"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("GetDocument() after remove error = %v, want ErrDocumentNotFound", err)
	}

	stats, err := env.store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if *stats != (Stats{}) {
		t.Errorf("stats after remove = %+v, want zero", stats)
	}

	removed, err = env.store.RemoveDocument(ctx, "a")
	if err != nil || removed {
		t.Errorf("RemoveDocument() again = %v, %v, want false, nil", removed, err)
	}
}

func TestStore_RebuildIndex(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.write(t, "one.md", "# One\nTODO a")
	env.write(t, "two.md", "# Two\nTODO b\nTODO c DONE")
	env.write(t, "three.md", "# Three")
	env.write(t, "archive/four.md", "# Four\nTASK d")
	env.write(t, "archive/five.md", "# Five")

	// A stale row that no longer exists on disk
	if _, err := env.store.IndexDocument(ctx, input("ghost", "boo"), false); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}

	res, err := env.store.RebuildIndex(ctx, false)
	if err != nil {
		t.Fatalf("RebuildIndex() error = %v", err)
	}
	if res.Status != RebuildSuccess {
		t.Errorf("Status = %v, want success", res.Status)
	}
	if res.DocumentsIndexed != 5 || res.ArchivedCount != 2 || res.TodosFound != 4 {
		t.Errorf("RebuildIndex() = %+v, want 5 documents, 2 archived, 4 todos", res)
	}

	if _, err := env.store.GetDocument(ctx, "ghost"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("ghost survived rebuild: %v", err)
	}
	four, err := env.store.GetDocument(ctx, "four")
	if err != nil {
		t.Fatalf("GetDocument(four) error = %v", err)
	}
	if !four.Archived || four.Filename != "archive/four.md" {
		t.Errorf("archived document = %+v", four)
	}

	stats, err := env.store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	want := Stats{Documents: 3, OpenTodos: 2, CompletedTodos: 1, Archived: 2}
	if *stats != want {
		t.Errorf("GetStats() = %+v, want %+v", *stats, want)
	}
}

func TestStore_RebuildIndex_MissingCorpus(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.corpus = corpus.New(filepath.Join(t.TempDir(), "missing"), "archive")

	res, err := env.store.RebuildIndex(context.Background(), false)
	if err != nil {
		t.Fatalf("RebuildIndex() error = %v, want status only", err)
	}
	if res.Status != RebuildError || res.Message == "" {
		t.Errorf("RebuildIndex() = %+v, want error status", res)
	}
}

func TestStore_BackfillEmbeddings(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := newTestEnv(t, staticProvider(ctrl))
	ctx := context.Background()

	env.write(t, "a.md", "alpha")
	env.write(t, "b.md", "beta")
	env.write(t, "c.md", "   ")
	env.write(t, "archive/d.md", "delta")
	if _, err := env.store.RebuildIndex(ctx, false); err != nil {
		t.Fatalf("RebuildIndex() error = %v", err)
	}

	// Edited on disk after indexing: skipped until re-indexed
	env.write(t, "b.md", "beta edited")

	n, err := env.store.BackfillEmbeddings(ctx, false)
	if err != nil {
		t.Fatalf("BackfillEmbeddings() error = %v", err)
	}
	if n != 1 {
		t.Errorf("BackfillEmbeddings() = %d, want 1", n)
	}

	stats, _ := env.store.GetStats(ctx)
	if stats.Embeddings != 1 {
		t.Errorf("Embeddings = %d, want 1", stats.Embeddings)
	}

	// Nothing left that can be embedded
	n, err = env.store.BackfillEmbeddings(ctx, false)
	if err != nil || n != 0 {
		t.Errorf("second BackfillEmbeddings() = %d, %v, want 0, nil", n, err)
	}

	// Only the edited document is still pending; the blank one is settled
	if stats.PendingEmbeddings != 1 || stats.PendingArchivedEmbeddings != 1 {
		t.Errorf("pending = %d live, %d archived, want 1, 1", stats.PendingEmbeddings, stats.PendingArchivedEmbeddings)
	}

	n, err = env.store.BackfillEmbeddings(ctx, true)
	if err != nil || n != 1 {
		t.Errorf("BackfillEmbeddings(archived) = %d, %v, want 1, nil", n, err)
	}
	cands, err := env.store.EmbeddingCandidates(ctx, true)
	if err != nil {
		t.Fatalf("EmbeddingCandidates() error = %v", err)
	}
	if len(cands) != 2 {
		t.Errorf("EmbeddingCandidates(true) len = %d, want 2", len(cands))
	}
}

func TestStore_BlankDocumentsSettleEmbeddings(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	provider.EXPECT().ModelName().Return("test-model").AnyTimes()
	provider.EXPECT().Dimension().Return(2).AnyTimes()
	provider.EXPECT().Embed(gomock.Any(), "alpha").Return([]float32{1, 0}, nil).Times(1)
	env := newTestEnv(t, provider)
	ctx := context.Background()

	if _, err := env.store.IndexDocument(ctx, input("a", "alpha"), true); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	res, err := env.store.IndexDocument(ctx, input("blank", "  \n  "), true)
	if err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	if res.EmbeddingGenerated {
		t.Error("blank document reported an embedding")
	}

	stats, err := env.store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.Documents != 2 || stats.Embeddings != 1 {
		t.Errorf("GetStats() = %+v, want 2 documents, 1 embedding", stats)
	}
	if !stats.EmbeddingsComplete(false) {
		t.Errorf("EmbeddingsComplete() = false with %d pending", stats.PendingEmbeddings)
	}

	cands, err := env.store.EmbeddingCandidates(ctx, false)
	if err != nil {
		t.Fatalf("EmbeddingCandidates() error = %v", err)
	}
	if len(cands) != 1 || cands[0].ID != "a" {
		t.Errorf("EmbeddingCandidates() = %+v, want only a", cands)
	}

	// Indexed while embeddings were off: the backfill settles it instead
	cache := env.store.cache
	env.store.cache = nil
	env.write(t, "quiet.md", "\n\n")
	if _, err := env.store.IndexDocument(ctx, input("quiet", "\n\n"), true); err != nil {
		t.Fatalf("IndexDocument() error = %v", err)
	}
	env.store.cache = cache

	stats, _ = env.store.GetStats(ctx)
	if stats.PendingEmbeddings != 1 {
		t.Fatalf("PendingEmbeddings = %d, want 1", stats.PendingEmbeddings)
	}
	n, err := env.store.BackfillEmbeddings(ctx, false)
	if err != nil || n != 0 {
		t.Errorf("BackfillEmbeddings() = %d, %v, want 0, nil", n, err)
	}
	stats, _ = env.store.GetStats(ctx)
	if !stats.EmbeddingsComplete(false) {
		t.Errorf("EmbeddingsComplete() = false after backfill, %d pending", stats.PendingEmbeddings)
	}
}

func TestStore_RebuildIndex_LiveShadowsArchived(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.write(t, "a.md", "# Live\nTODO keep")
	env.write(t, "archive/a.md", "# Archived\nTODO old\nTODO older")

	res, err := env.store.RebuildIndex(ctx, false)
	if err != nil {
		t.Fatalf("RebuildIndex() error = %v", err)
	}
	if res.DocumentsIndexed != 1 || res.ArchivedCount != 0 || res.TodosFound != 1 {
		t.Errorf("RebuildIndex() = %+v, want 1 document, 0 archived, 1 todo", res)
	}

	doc, err := env.store.GetDocument(ctx, "a")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if doc.Archived || doc.Filename != "a.md" || doc.Title != "Live" {
		t.Errorf("GetDocument() = %+v, want live copy", doc)
	}

	stats, _ := env.store.GetStats(ctx)
	if stats.Documents != 1 || stats.Archived != 0 {
		t.Errorf("GetStats() = %+v, want 1 live, 0 archived", stats)
	}
}

func TestStore_BackfillWithoutCache(t *testing.T) {
	env := newTestEnv(t, nil)
	n, err := env.store.BackfillEmbeddings(context.Background(), false)
	if err != nil || n != 0 {
		t.Errorf("BackfillEmbeddings() = %d, %v, want 0, nil", n, err)
	}
	if env.store.EmbeddingsEnabled() {
		t.Error("EmbeddingsEnabled() = true without cache")
	}
}

func TestStore_RecentWindows(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	now := time.Now()

	recent := input("recent", "TODO x DONE\nTODO y")
	old := input("old", "TODO z DONE")
	old.ModifiedAt = now.Add(-48 * time.Hour)
	for _, in := range []DocumentInput{recent, old} {
		if _, err := env.store.IndexDocument(ctx, in, false); err != nil {
			t.Fatalf("IndexDocument() error = %v", err)
		}
	}

	docs, err := env.store.RecentlyModified(ctx, 24)
	if err != nil {
		t.Fatalf("RecentlyModified() error = %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "recent" {
		t.Errorf("RecentlyModified() = %+v", docs)
	}

	done, err := env.store.RecentlyCompleted(ctx, 24)
	if err != nil {
		t.Fatalf("RecentlyCompleted() error = %v", err)
	}
	if len(done) != 1 || done[0].Text != "x DONE" {
		t.Errorf("RecentlyCompleted() = %+v", done)
	}

	done, _ = env.store.RecentlyCompleted(ctx, 72)
	if len(done) != 2 {
		t.Errorf("RecentlyCompleted(72) len = %d, want 2", len(done))
	}
}

func TestStore_SearchTitleAndContent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.write(t, "a.md", "# Grocery run\nmilk")
	if _, err := env.store.RebuildIndex(ctx, false); err != nil {
		t.Fatalf("RebuildIndex() error = %v", err)
	}

	docs, err := env.store.SearchTitle(ctx, "grocery", 10, false)
	if err != nil {
		t.Fatalf("SearchTitle() error = %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "a" {
		t.Errorf("SearchTitle() = %+v", docs)
	}

	content, err := env.store.Content(ctx, "a")
	if err != nil {
		t.Fatalf("Content() error = %v", err)
	}
	if content != "# Grocery run\nmilk" {
		t.Errorf("Content() = %q", content)
	}
	if _, err := env.store.Content(ctx, "missing"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Content(missing) error = %v", err)
	}
}

func TestStore_ConcurrentIndexAndRebuild(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		env.write(t, id+".md", "# "+id+"\nTODO "+id)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := env.store.RebuildIndex(ctx, false); err != nil {
				t.Errorf("RebuildIndex() error = %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := env.store.GetStats(ctx); err != nil {
				t.Errorf("GetStats() error = %v", err)
			}
		}()
	}
	wg.Wait()

	stats, err := env.store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}
	if stats.Documents != 3 || stats.OpenTodos != 3 {
		t.Errorf("GetStats() after concurrent rebuilds = %+v", stats)
	}
}
