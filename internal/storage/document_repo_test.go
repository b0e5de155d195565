package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDocumentRepo_Get(t *testing.T) {
	db := openTestDB(t)
	repo := NewDocumentRepo(db)
	ctx := context.Background()

	doc := testDocument("20240101-120000-abcd1234")
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "existing document", id: doc.ID},
		{name: "missing document", id: "nope", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Get(ctx, tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Get() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Title != doc.Title || got.Filename != doc.Filename || got.ContentHash != doc.ContentHash {
				t.Errorf("Get() = %+v, want %+v", got, doc)
			}
			if got.ModifiedAt.UnixMilli() != doc.ModifiedAt.UnixMilli() {
				t.Errorf("Get() ModifiedAt = %v, want %v", got.ModifiedAt, doc.ModifiedAt)
			}
		})
	}
}

func TestDocumentRepo_UpsertPreservesCreatedAt(t *testing.T) {
	db := openTestDB(t)
	repo := NewDocumentRepo(db)
	ctx := context.Background()

	doc := testDocument("a")
	created := doc.CreatedAt
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	doc.CreatedAt = created.Add(time.Hour)
	doc.ContentHash = "new-hash"
	doc.Title = "Renamed"
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.CreatedAt.UnixMilli() != created.UnixMilli() {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if got.ContentHash != "new-hash" || got.Title != "Renamed" {
		t.Errorf("Upsert() did not update fields: %+v", got)
	}

	hash, err := repo.ContentHash(ctx, "a")
	if err != nil {
		t.Fatalf("ContentHash() error = %v", err)
	}
	if hash != "new-hash" {
		t.Errorf("ContentHash() = %q, want new-hash", hash)
	}
	if _, err := repo.ContentHash(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ContentHash() missing error = %v, want ErrNotFound", err)
	}
}

func TestDocumentRepo_DeleteCascades(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	docs := NewDocumentRepo(db)
	items := NewActionItemRepo(db)
	questions := NewQuestionRepo(db)
	embeddings := NewEmbeddingRepo(db)

	doc := testDocument("a")
	if err := docs.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := items.ReplaceForDocument(ctx, "a", []ActionItemRecord{{LineNumber: 1, Kind: "TODO", Text: "x"}}); err != nil {
		t.Fatalf("ReplaceForDocument() error = %v", err)
	}
	if err := questions.ReplaceForDocument(ctx, "a", []QuestionRecord{{LineNumber: 2, Text: "why"}}); err != nil {
		t.Fatalf("ReplaceForDocument() error = %v", err)
	}
	if err := embeddings.Upsert(ctx, &EmbeddingRecord{DocumentID: "a", ContentHash: doc.ContentHash, Vector: []float32{1, 0}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	deleted, err := docs.Delete(ctx, "a")
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Error("Delete() = false, want true")
	}

	got, err := items.ListForDocument(ctx, "a")
	if err != nil {
		t.Fatalf("ListForDocument() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("action items after delete = %d, want 0", len(got))
	}
	n, err := questions.CountForDocument(ctx, "a")
	if err != nil {
		t.Fatalf("CountForDocument() error = %v", err)
	}
	if n != 0 {
		t.Errorf("questions after delete = %d, want 0", n)
	}
	if _, err := embeddings.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("embedding after delete error = %v, want ErrNotFound", err)
	}

	deleted, err = docs.Delete(ctx, "a")
	if err != nil {
		t.Fatalf("Delete() second call error = %v", err)
	}
	if deleted {
		t.Error("Delete() of missing document = true, want false")
	}
}

func TestDocumentRepo_SetArchived(t *testing.T) {
	db := openTestDB(t)
	repo := NewDocumentRepo(db)
	ctx := context.Background()

	doc := testDocument("a")
	if err := repo.Upsert(ctx, doc); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	ok, err := repo.SetArchived(ctx, "a", true, "archive/a.md")
	if err != nil || !ok {
		t.Fatalf("SetArchived() = %v, %v", ok, err)
	}

	got, err := repo.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Archived || got.Filename != "archive/a.md" {
		t.Errorf("SetArchived() left %+v", got)
	}
	if got.ContentHash != doc.ContentHash || got.Title != doc.Title {
		t.Errorf("SetArchived() changed other fields: %+v", got)
	}

	live, archived, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if live != 0 || archived != 1 {
		t.Errorf("Count() = %d, %d, want 0, 1", live, archived)
	}

	ok, err = repo.SetArchived(ctx, "missing", true, "archive/missing.md")
	if err != nil {
		t.Fatalf("SetArchived() missing error = %v", err)
	}
	if ok {
		t.Error("SetArchived() missing = true, want false")
	}
}

func TestDocumentRepo_ListFilters(t *testing.T) {
	db := openTestDB(t)
	repo := NewDocumentRepo(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		doc := testDocument(id)
		doc.ModifiedAt = base.Add(time.Duration(i) * time.Minute)
		doc.Archived = id == "mid"
		if err := repo.Upsert(ctx, doc); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter DocumentFilter
		want   []string
	}{
		{name: "live only", filter: DocumentFilter{}, want: []string{"new", "old"}},
		{name: "include archived", filter: DocumentFilter{IncludeArchived: true}, want: []string{"new", "mid", "old"}},
		{name: "archived only", filter: DocumentFilter{ArchivedOnly: true, IncludeArchived: true}, want: []string{"mid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if got := documentIDs(docs); !equalStrings(got, tt.want) {
				t.Errorf("List() = %v, want %v", got, tt.want)
			}
		})
	}

	recent, err := repo.ModifiedSince(ctx, base.Add(90*time.Second), DocumentFilter{})
	if err != nil {
		t.Fatalf("ModifiedSince() error = %v", err)
	}
	if got := documentIDs(recent); !equalStrings(got, []string{"new"}) {
		t.Errorf("ModifiedSince() = %v, want [new]", got)
	}
}

func TestDocumentRepo_SearchTitle(t *testing.T) {
	db := openTestDB(t)
	repo := NewDocumentRepo(db)
	ctx := context.Background()

	fixtures := []struct {
		id, title string
		archived  bool
	}{
		{"a", "Grocery list", false},
		{"b", "Project 100% done", false},
		{"c", "grocery archive", true},
		{"d", "under_score", false},
	}
	for i, f := range fixtures {
		doc := testDocument(f.id)
		doc.Title = f.title
		doc.Archived = f.archived
		doc.ModifiedAt = time.Now().Add(time.Duration(i) * time.Second)
		if err := repo.Upsert(ctx, doc); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		query  string
		limit  int
		filter DocumentFilter
		want   []string
	}{
		{name: "case insensitive title", query: "GROCERY", limit: 10, want: []string{"a"}},
		{name: "with archived", query: "grocery", limit: 10, filter: DocumentFilter{IncludeArchived: true}, want: []string{"c", "a"}},
		{name: "percent is literal", query: "100%", limit: 10, want: []string{"b"}},
		{name: "underscore is literal", query: "r_s", limit: 10, want: []string{"d"}},
		{name: "matches filename", query: "d.md", limit: 10, want: []string{"d"}},
		{name: "limit applies", query: "", limit: 2, want: []string{"d", "b"}},
		{name: "no match", query: "zzz", limit: 10, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := repo.SearchTitle(ctx, tt.query, tt.limit, tt.filter)
			if err != nil {
				t.Fatalf("SearchTitle() error = %v", err)
			}
			if got := documentIDs(docs); !equalStrings(got, tt.want) {
				t.Errorf("SearchTitle(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestDocumentRepo_DeleteAll(t *testing.T) {
	db := openTestDB(t)
	repo := NewDocumentRepo(db)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := repo.Upsert(ctx, testDocument(id)); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}
	if err := NewActionItemRepo(db).ReplaceForDocument(ctx, "a", []ActionItemRecord{{LineNumber: 1, Kind: "TODO", Text: "x"}}); err != nil {
		t.Fatalf("ReplaceForDocument() error = %v", err)
	}

	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}

	live, archived, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if live+archived != 0 {
		t.Errorf("Count() after DeleteAll = %d, %d", live, archived)
	}
	var todos int
	if err := db.QueryRow("SELECT COUNT(*) FROM todos").Scan(&todos); err != nil {
		t.Fatalf("count todos: %v", err)
	}
	if todos != 0 {
		t.Errorf("todos after DeleteAll = %d, want 0", todos)
	}
}

func documentIDs(docs []DocumentRecord) []string {
	var ids []string
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
