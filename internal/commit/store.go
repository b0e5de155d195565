package commit

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_versioned_store.go -package=mocks braindump/internal/commit VersionedStore

import "context"

// VersionedStore is the external store documents are committed to.
type VersionedStore interface {
	// CommitFiles stages paths (additions, edits and removals) and records one commit.
	CommitFiles(ctx context.Context, paths []string, message string) error
	// ListUncommittedFiles returns tracked files with changes and untracked files.
	ListUncommittedFiles(ctx context.Context) (modified, untracked []string, err error)
}
