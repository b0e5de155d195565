// Package watch picks up edits made to the corpus outside the service,
// such as from an editor or a sync tool, and reconciles them into the index.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"braindump/internal/contextutil"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// Reconciler brings the index in line with one corpus file.
type Reconciler interface {
	Reconcile(ctx context.Context, filename string) error
}

// Watcher watches the corpus root and its archive directory.
type Watcher struct {
	root       string
	archiveDir string
	target     Reconciler
	window     time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// New creates a watcher over root. Events for a file are coalesced for window
// before target is called; a non-positive window uses DefaultDebounce.
func New(root, archiveDir string, target Reconciler, window time.Duration) *Watcher {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Watcher{
		root:       root,
		archiveDir: archiveDir,
		target:     target,
		window:     window,
		pending:    make(map[string]*time.Timer),
	}
}

// Run watches until ctx is done. Pending reconciliations are waited for
// before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	archive := filepath.Join(w.root, w.archiveDir)
	if info, err := os.Stat(archive); err == nil && info.IsDir() {
		if err := fsw.Add(archive); err != nil {
			return fmt.Errorf("failed to watch %s: %w", archive, err)
		}
	}

	logger.InfoContext(ctx, "watching corpus", "root", w.root)
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	// The archive directory may be created after startup
	if rel == w.archiveDir && event.Op&fsnotify.Create != 0 {
		if err := fsw.Add(event.Name); err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to watch archive", "error", err)
		}
		return
	}

	if rel, ok := w.documentPath(rel); ok {
		w.schedule(ctx, rel)
	}
}

// documentPath reports whether rel names a document the corpus tracks.
func (w *Watcher) documentPath(rel string) (string, bool) {
	dir, name := filepath.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	if dir != "" && dir != w.archiveDir {
		return "", false
	}
	if strings.HasPrefix(name, ".") || filepath.Ext(name) != ".md" {
		return "", false
	}
	return rel, true
}

// schedule reconciles rel once the window passes without another event for it.
func (w *Watcher) schedule(ctx context.Context, rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[rel]; ok && t.Stop() {
		w.wg.Done()
	}

	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.window, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[rel] == t {
			delete(w.pending, rel)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if err := w.target.Reconcile(ctx, rel); err != nil {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to reconcile file", "path", rel, "error", err)
		}
	})
	w.pending[rel] = t
}

// stop cancels timers that have not fired and waits for running ones.
func (w *Watcher) stop() {
	w.mu.Lock()
	for rel, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, rel)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
