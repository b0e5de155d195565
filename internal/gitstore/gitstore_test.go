package gitstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeNote(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestOpen_InitializesRepository(t *testing.T) {
	root := filepath.Join(t.TempDir(), "notes")

	s, err := Open(root, "Tester", "tester@example.com")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, gitignoreContent, string(data))

	history, err := s.History(context.Background(), ".gitignore", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, initMessage, history[0].Message)
	assert.Equal(t, "Tester", history[0].Author)
	assert.Len(t, history[0].SHA, 8)

	// Reopening does not commit again
	s2, err := Open(root, "", "")
	require.NoError(t, err)
	history, err = s2.History(context.Background(), ".gitignore", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	modified, untracked, err := s2.ListUncommittedFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, modified)
	assert.Empty(t, untracked)
}

func TestStore_CommitLifecycle(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := Open(root, "Tester", "tester@example.com")
	require.NoError(t, err)

	// New file is untracked
	writeNote(t, root, "a.md", "first")
	modified, untracked, err := s.ListUncommittedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, modified)
	assert.Equal(t, []string{"a.md"}, untracked)

	require.NoError(t, s.CommitFiles(ctx, []string{"a.md"}, "Create new fragment"))
	modified, untracked, err = s.ListUncommittedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, modified)
	assert.Empty(t, untracked)

	// Edited file is modified
	writeNote(t, root, "a.md", "second")
	modified, _, err = s.ListUncommittedFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, modified)

	require.NoError(t, s.CommitFiles(ctx, []string{"a.md"}, "Update: a.md"))

	// Committing with nothing changed records nothing
	require.NoError(t, s.CommitFiles(ctx, []string{"a.md"}, "Update: a.md"))

	history, err := s.History(ctx, "a.md", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Update: a.md", history[0].Message)
	assert.Equal(t, "Create new fragment", history[1].Message)

	limited, err := s.History(ctx, "a.md", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_CommitMoveAndDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := Open(root, "", "")
	require.NoError(t, err)

	writeNote(t, root, "a.md", "content")
	require.NoError(t, s.CommitFiles(ctx, []string{"a.md"}, "Create new fragment"))

	// Archive move: old path gone, new path present
	require.NoError(t, os.MkdirAll(filepath.Join(root, "archive"), 0755))
	require.NoError(t, os.Rename(filepath.Join(root, "a.md"), filepath.Join(root, "archive", "a.md")))
	require.NoError(t, s.CommitFiles(ctx, []string{"a.md", "archive/a.md"}, "Archive: a.md"))

	modified, untracked, err := s.ListUncommittedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, modified)
	assert.Empty(t, untracked)

	history, err := s.History(ctx, "archive/a.md", 0)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, "Archive: a.md", history[0].Message)

	// Delete never-committed and committed files alike
	require.NoError(t, os.Remove(filepath.Join(root, "archive", "a.md")))
	require.NoError(t, s.CommitFiles(ctx, []string{"archive/a.md", "never-existed.md"}, "Delete fragment"))

	modified, untracked, err = s.ListUncommittedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, modified)
	assert.Empty(t, untracked)
}

func headFile(t *testing.T, s *Store, name string) (string, error) {
	t.Helper()
	tree, err := s.headTree()
	require.NoError(t, err)
	f, err := tree.File(name)
	if err != nil {
		return "", err
	}
	return f.Contents()
}

func TestStore_CommitLeavesOtherStagedChanges(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := Open(root, "", "")
	require.NoError(t, err)

	writeNote(t, root, "a.md", "first")
	require.NoError(t, s.CommitFiles(ctx, []string{"a.md"}, "Create new fragment"))

	// Staged by hand, outside any commit request
	wt, err := s.repo.Worktree()
	require.NoError(t, err)
	writeNote(t, root, "a.md", "edited by hand")
	writeNote(t, root, "stray.md", "stray")
	_, err = wt.Add("a.md")
	require.NoError(t, err)
	_, err = wt.Add("stray.md")
	require.NoError(t, err)

	writeNote(t, root, "b.md", "mine")
	require.NoError(t, s.CommitFiles(ctx, []string{"b.md"}, "Create new fragment"))

	content, err := headFile(t, s, "b.md")
	require.NoError(t, err)
	assert.Equal(t, "mine", content)
	content, err = headFile(t, s, "a.md")
	require.NoError(t, err)
	assert.Equal(t, "first", content)
	_, err = headFile(t, s, "stray.md")
	assert.ErrorIs(t, err, object.ErrFileNotFound)

	status, err := wt.Status()
	require.NoError(t, err)
	assert.Equal(t, git.Modified, status.File("a.md").Staging)
	assert.Equal(t, git.Added, status.File("stray.md").Staging)
	assert.NotContains(t, status, "b.md")

	// Only foreign changes staged: no commit at all
	head, err := s.repo.Head()
	require.NoError(t, err)
	require.NoError(t, s.CommitFiles(ctx, []string{"b.md"}, "Update: b.md"))
	after, err := s.repo.Head()
	require.NoError(t, err)
	assert.Equal(t, head.Hash(), after.Hash())
	status, err = wt.Status()
	require.NoError(t, err)
	assert.Equal(t, git.Added, status.File("stray.md").Staging)
}

func TestStore_CommitCancelledContext(t *testing.T) {
	s, err := Open(t.TempDir(), "", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.CommitFiles(ctx, []string{"a.md"}, "x"))
	_, _, err = s.ListUncommittedFiles(ctx)
	assert.Error(t, err)
}
