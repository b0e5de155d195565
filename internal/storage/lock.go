package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process already holds the index lock.
var ErrLocked = errors.New("index is locked by another process")

// FileLock is a cross-process lock placed next to the database file.
// The index is single-writer, so only one process may open it at a time.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock creates a lock for the database at dbPath.
// The lock file is <dbPath>.lock.
func NewFileLock(dbPath string) *FileLock {
	lockPath := dbPath + ".lock"
	return &FileLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// TryLock acquires the lock without blocking. Returns ErrLocked if another
// process holds it.
func (l *FileLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return fmt.Errorf("%w: %s", ErrLocked, l.path)
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. Safe to call when not locked.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *FileLock) Path() string {
	return l.path
}
