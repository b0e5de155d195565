package commit

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"braindump/internal/contextutil"
)

// DefaultDebounce is how long the oldest pending change waits before a flush.
const DefaultDebounce = 5 * time.Minute

// FlushResult describes a successful batched commit.
type FlushResult struct {
	Committed bool     `json:"committed"`
	Files     []string `json:"files"`
	Count     int      `json:"count"`
	Message   string   `json:"message"`
}

// PendingStats is a snapshot of the pending set.
type PendingStats struct {
	PendingCount     int      `json:"pending_count"`
	OldestAgeMinutes float64  `json:"oldest_age_minutes"`
	Files            []string `json:"files"`
}

// Batcher collects edited filenames and commits them together once the
// oldest one has waited out the debounce window.
//
// A filename's timestamp is set by its first change and never refreshed, so
// a file under continuous edits is still committed within one window.
type Batcher struct {
	mu      sync.Mutex
	pending map[string]time.Time // filename -> first unflushed change
	window  time.Duration
	now     func() time.Time
}

// NewBatcher creates a batcher with the given debounce window.
// window <= 0 uses DefaultDebounce.
func NewBatcher(window time.Duration) *Batcher {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Batcher{
		pending: make(map[string]time.Time),
		window:  window,
		now:     time.Now,
	}
}

// Window returns the debounce window.
func (b *Batcher) Window() time.Duration {
	return b.window
}

// MarkPending records a change to filename. An already pending filename
// keeps its original timestamp.
func (b *Batcher) MarkPending(filename string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pending[filename]; !ok {
		b.pending[filename] = b.now()
	}
}

// HasPending reports whether anything is waiting to be committed.
func (b *Batcher) HasPending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending) > 0
}

// PendingFiles returns the pending filenames, sorted.
func (b *Batcher) PendingFiles() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filesLocked()
}

// ShouldFlush reports whether the oldest pending change has waited at least
// the debounce window.
func (b *Batcher) ShouldFlush() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shouldFlushLocked()
}

func (b *Batcher) shouldFlushLocked() bool {
	oldest, ok := b.oldestLocked()
	return ok && b.now().Sub(oldest) >= b.window
}

// FlushIfReady flushes only when ShouldFlush is true. A nil result means
// nothing was committed.
func (b *Batcher) FlushIfReady(ctx context.Context, store VersionedStore) (*FlushResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.shouldFlushLocked() {
		return nil, nil
	}
	return b.flushLocked(ctx, store)
}

// FlushAll commits every pending filename in one commit regardless of age.
// With nothing pending it returns (nil, nil). On failure the pending set is
// kept intact for the next attempt.
func (b *Batcher) FlushAll(ctx context.Context, store VersionedStore) (*FlushResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked(ctx, store)
}

// flushLocked holds the lock across the commit so a change marked meanwhile
// is never cleared by a batch that did not include it.
func (b *Batcher) flushLocked(ctx context.Context, store VersionedStore) (*FlushResult, error) {
	if len(b.pending) == 0 {
		return nil, nil
	}
	logger := contextutil.LoggerFromContext(ctx)

	files := b.filesLocked()
	message := batchMessage("Update", files)

	if err := store.CommitFiles(ctx, files, message); err != nil {
		logger.ErrorContext(ctx, "batched commit failed, keeping pending changes", "files", len(files), "error", err)
		return nil, fmt.Errorf("failed to commit %d pending files: %w", len(files), err)
	}

	clear(b.pending)
	logger.InfoContext(ctx, "committed pending changes", "files", len(files), "message", message)
	return &FlushResult{
		Committed: true,
		Files:     files,
		Count:     len(files),
		Message:   message,
	}, nil
}

// ClearFile forgets a pending change without committing it.
func (b *Batcher) ClearFile(filename string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, filename)
}

// Stats returns a snapshot of the pending set. The age is rounded to a
// tenth of a minute.
func (b *Batcher) Stats() PendingStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := PendingStats{
		PendingCount: len(b.pending),
		Files:        b.filesLocked(),
	}
	if oldest, ok := b.oldestLocked(); ok {
		age := b.now().Sub(oldest).Minutes()
		stats.OldestAgeMinutes = math.Round(age*10) / 10
	}
	return stats
}

func (b *Batcher) filesLocked() []string {
	files := make([]string, 0, len(b.pending))
	for f := range b.pending {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

func (b *Batcher) oldestLocked() (time.Time, bool) {
	var (
		oldest time.Time
		found  bool
	)
	for _, t := range b.pending {
		if !found || t.Before(oldest) {
			oldest, found = t, true
		}
	}
	return oldest, found
}

// batchMessage names the file for a single change and counts otherwise.
func batchMessage(verb string, files []string) string {
	if len(files) == 1 {
		return fmt.Sprintf("%s: %s", verb, files[0])
	}
	return fmt.Sprintf("%s %d documents", verb, len(files))
}
