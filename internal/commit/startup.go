package commit

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"braindump/internal/contextutil"
)

// CommitUncommittedOnStartup commits top-level documents left modified or
// untracked by a previous run, bypassing the debounce window. Archived
// documents and non-markdown files are ignored. Returns (nil, nil) when the
// working tree is clean.
func CommitUncommittedOnStartup(ctx context.Context, store VersionedStore) (*FlushResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	modified, untracked, err := store.ListUncommittedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list uncommitted files: %w", err)
	}

	files := topLevelDocuments(modified, untracked)
	if len(files) == 0 {
		return nil, nil
	}

	var message string
	if len(files) == 1 {
		message = fmt.Sprintf("Commit on startup: %s", files[0])
	} else {
		message = fmt.Sprintf("Commit on startup: %d documents", len(files))
	}

	if err := store.CommitFiles(ctx, files, message); err != nil {
		return nil, fmt.Errorf("failed to commit uncommitted files: %w", err)
	}

	logger.InfoContext(ctx, "committed changes left from previous run", "files", len(files))
	return &FlushResult{
		Committed: true,
		Files:     files,
		Count:     len(files),
		Message:   message,
	}, nil
}

// MarkUncommitted adds every top-level document with uncommitted changes to
// the batcher's pending set and returns how many were marked. It lets a
// process that did not make the edits commit them through the batcher.
func MarkUncommitted(ctx context.Context, batcher *Batcher, store VersionedStore) (int, error) {
	modified, untracked, err := store.ListUncommittedFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list uncommitted files: %w", err)
	}
	files := topLevelDocuments(modified, untracked)
	for _, f := range files {
		batcher.MarkPending(f)
	}
	return len(files), nil
}

// topLevelDocuments keeps "*.md" paths with no directory part, deduplicated and sorted.
func topLevelDocuments(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, paths := range lists {
		for _, p := range paths {
			if !strings.HasSuffix(p, ".md") || strings.Contains(p, "/") {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
