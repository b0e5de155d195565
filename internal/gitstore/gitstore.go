// Package gitstore commits corpus documents to a git repository rooted at
// the corpus directory.
package gitstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

const (
	gitignoreContent = "# Braindump notes repository\n.DS_Store\n"
	initMessage      = "Initialize notes repository"

	DefaultAuthorName  = "Braindump"
	DefaultAuthorEmail = "braindump@localhost"
)

// Commit is one entry of a document's history.
type Commit struct {
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
	Author  string    `json:"author"`
}

// Store is a git working tree. It implements commit.VersionedStore.
// go-git worktrees are not safe for concurrent use, so every operation holds mu.
type Store struct {
	mu     sync.Mutex
	root   string
	repo   *git.Repository
	author object.Signature
	now    func() time.Time
}

// Open opens the repository at root, initializing it with a .gitignore and
// an initial commit when none exists.
func Open(root, authorName, authorEmail string) (*Store, error) {
	if authorName == "" {
		authorName = DefaultAuthorName
	}
	if authorEmail == "" {
		authorEmail = DefaultAuthorEmail
	}
	s := &Store{
		root:   root,
		author: object.Signature{Name: authorName, Email: authorEmail},
		now:    time.Now,
	}

	repo, err := git.PlainOpen(root)
	switch {
	case err == nil:
		s.repo = repo
		return s, nil
	case !errors.Is(err, git.ErrRepositoryNotExists):
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create repository directory: %w", err)
	}
	if s.repo, err = git.PlainInit(root, false); err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte(gitignoreContent), 0644); err != nil {
		return nil, fmt.Errorf("failed to write .gitignore: %w", err)
	}
	if err := s.CommitFiles(context.Background(), []string{".gitignore"}, initMessage); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the working tree directory.
func (s *Store) Root() string {
	return s.root
}

// CommitFiles stages each path, removing it from the index when it no longer
// exists on disk, and records a single commit of those paths only. Changes
// staged for other paths stay staged but are left out of the commit, like
// git commit --only. Nothing staged among paths is not an error.
func (s *Store) CommitFiles(ctx context.Context, paths []string, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	wt, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	own := make(map[string]bool, len(paths))
	for _, p := range paths {
		p = filepath.ToSlash(p)
		own[p] = true
		if _, err := os.Lstat(filepath.Join(s.root, filepath.FromSlash(p))); errors.Is(err, os.ErrNotExist) {
			if _, err := wt.Remove(p); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
				return fmt.Errorf("failed to stage removal of %s: %w", p, err)
			}
			continue
		}
		if _, err := wt.Add(p); err != nil {
			return fmt.Errorf("failed to stage %s: %w", p, err)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}
	var foreign []string
	var ownStaged bool
	for name, fs := range status {
		if !isStaged(fs) {
			continue
		}
		if own[name] {
			ownStaged = true
		} else {
			foreign = append(foreign, name)
		}
	}
	if !ownStaged {
		return nil
	}

	saved, err := s.setAsideStaged(foreign)
	if err != nil {
		return err
	}

	author := s.author
	author.When = s.now()
	_, commitErr := wt.Commit(message, &git.CommitOptions{Author: &author})

	if err := s.setIndexEntries(saved); err != nil {
		return fmt.Errorf("failed to restore staged entries: %w", err)
	}
	if commitErr != nil {
		return fmt.Errorf("failed to commit: %w", commitErr)
	}
	return nil
}

func isStaged(fs *git.FileStatus) bool {
	return fs.Staging != git.Unmodified && fs.Staging != git.Untracked
}

// setAsideStaged resets the index entries for names to their HEAD versions
// and returns the staged entries so they can be put back. A nil entry means
// the path was absent from the index.
func (s *Store) setAsideStaged(names []string) (map[string]*index.Entry, error) {
	if len(names) == 0 {
		return nil, nil
	}

	idx, err := s.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	tree, err := s.headTree()
	if err != nil {
		return nil, err
	}

	saved := make(map[string]*index.Entry, len(names))
	atHead := make(map[string]*index.Entry, len(names))
	for _, name := range names {
		saved[name] = nil
		if e, err := idx.Entry(name); err == nil {
			cp := *e
			saved[name] = &cp
		}

		atHead[name] = nil
		if tree == nil {
			continue
		}
		f, err := tree.File(name)
		if errors.Is(err, object.ErrFileNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up %s at HEAD: %w", name, err)
		}
		atHead[name] = &index.Entry{Name: name, Hash: f.Hash, Mode: f.Mode, Size: uint32(f.Size)}
	}

	if err := s.setIndexEntries(atHead); err != nil {
		return nil, fmt.Errorf("failed to set aside staged entries: %w", err)
	}
	return saved, nil
}

// setIndexEntries writes entries into the index, removing paths whose entry is nil.
func (s *Store) setIndexEntries(entries map[string]*index.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	idx, err := s.repo.Storer.Index()
	if err != nil {
		return err
	}
	for name, e := range entries {
		if e == nil {
			if _, err := idx.Remove(name); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
				return err
			}
			continue
		}
		cur, err := idx.Entry(name)
		if errors.Is(err, index.ErrEntryNotFound) {
			cur = idx.Add(name)
		} else if err != nil {
			return err
		}
		*cur = *e
	}
	return s.repo.Storer.SetIndex(idx)
}

// headTree returns the tree HEAD points at, or nil before the first commit.
func (s *Store) headTree() (*object.Tree, error) {
	ref, err := s.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	commit, err := s.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load HEAD tree: %w", err)
	}
	return tree, nil
}

// ListUncommittedFiles returns tracked paths with staged or unstaged changes
// and untracked paths, each sorted.
func (s *Store) ListUncommittedFiles(ctx context.Context) (modified, untracked []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	wt, err := s.repo.Worktree()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read status: %w", err)
	}

	for p, fs := range status {
		switch {
		case fs.Worktree == git.Untracked:
			untracked = append(untracked, p)
		case fs.Worktree != git.Unmodified || fs.Staging != git.Unmodified:
			modified = append(modified, p)
		}
	}
	sort.Strings(modified)
	sort.Strings(untracked)
	return modified, untracked, nil
}

// History returns up to limit commits touching path, newest first.
// limit <= 0 returns every commit.
func (s *Store) History(ctx context.Context, path string, limit int) ([]Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := filepath.ToSlash(path)
	iter, err := s.repo.Log(&git.LogOptions{FileName: &p})
	if err != nil {
		return nil, fmt.Errorf("failed to read log for %s: %w", path, err)
	}
	defer iter.Close()

	var commits []Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, Commit{
			SHA:     c.Hash.String()[:8],
			Message: strings.TrimSpace(c.Message),
			Date:    c.Author.When,
			Author:  c.Author.Name,
		})
		if limit > 0 && len(commits) >= limit {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("failed to walk log for %s: %w", path, err)
	}
	return commits, nil
}
