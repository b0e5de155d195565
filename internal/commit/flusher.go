package commit

import (
	"context"
	"time"

	"braindump/internal/contextutil"
)

// DefaultFlushInterval is how often the flusher checks the debounce window.
const DefaultFlushInterval = 30 * time.Second

// Flusher periodically commits pending changes whose window has elapsed.
type Flusher struct {
	batcher  *Batcher
	store    VersionedStore
	interval time.Duration
}

// NewFlusher creates a flusher. interval <= 0 uses DefaultFlushInterval.
func NewFlusher(batcher *Batcher, store VersionedStore, interval time.Duration) *Flusher {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &Flusher{batcher: batcher, store: store, interval: interval}
}

// Run checks on every tick until ctx is cancelled. Failed flushes are
// logged by the batcher and retried on the next tick.
func (f *Flusher) Run(ctx context.Context) {
	logger := contextutil.LoggerFromContext(ctx)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	logger.DebugContext(ctx, "commit flusher started", "interval", f.interval, "window", f.batcher.Window())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = f.batcher.FlushIfReady(ctx, f.store)
		}
	}
}
