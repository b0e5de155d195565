package corpus

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidName is returned for filenames that would escape the corpus or
// are not markdown documents.
var ErrInvalidName = errors.New("invalid document name")

// Corpus manages the document directory and its archive subdirectory.
type Corpus struct {
	root       string
	archiveDir string // Relative to root, e.g. "archive"
}

// New creates a corpus rooted at root. archiveDir defaults to "archive".
func New(root, archiveDir string) *Corpus {
	if archiveDir == "" {
		archiveDir = "archive"
	}
	return &Corpus{
		root:       filepath.Clean(root),
		archiveDir: filepath.ToSlash(filepath.Clean(archiveDir)),
	}
}

// Root returns the corpus root directory.
func (c *Corpus) Root() string {
	return c.root
}

// ArchiveDir returns the archive directory relative to the root.
func (c *Corpus) ArchiveDir() string {
	return c.archiveDir
}

// Exists reports whether the corpus root is an existing directory.
func (c *Corpus) Exists() bool {
	info, err := os.Stat(c.root)
	return err == nil && info.IsDir()
}

// RelPath returns the stored path of a document: "<id>.md" or "<archive>/<id>.md".
func (c *Corpus) RelPath(id string, archived bool) string {
	name := id + ".md"
	if archived {
		return path.Join(c.archiveDir, name)
	}
	return name
}

// AbsPath resolves a stored path against the corpus root.
func (c *Corpus) AbsPath(rel string) string {
	return filepath.Join(c.root, filepath.FromSlash(rel))
}

// IsArchivePath reports whether rel points into the archive directory.
func (c *Corpus) IsArchivePath(rel string) bool {
	return strings.HasPrefix(filepath.ToSlash(rel), c.archiveDir+"/")
}

// Read returns the content of the document at rel.
func (c *Corpus) Read(rel string) (string, error) {
	if err := c.validate(rel); err != nil {
		return "", err
	}
	data, err := os.ReadFile(c.AbsPath(rel))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Stat returns file info for the document at rel.
func (c *Corpus) Stat(rel string) (os.FileInfo, error) {
	if err := c.validate(rel); err != nil {
		return nil, err
	}
	return os.Stat(c.AbsPath(rel))
}

// Write replaces the content of the document at rel, creating parent directories.
func (c *Corpus) Write(rel, content string) error {
	if err := c.validate(rel); err != nil {
		return err
	}
	abs := c.AbsPath(rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// Remove deletes the document at rel. A missing file is not an error.
func (c *Corpus) Remove(rel string) error {
	if err := c.validate(rel); err != nil {
		return err
	}
	if err := os.Remove(c.AbsPath(rel)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", rel, err)
	}
	return nil
}

// Move renames a document from one stored path to another.
func (c *Corpus) Move(from, to string) error {
	if err := c.validate(from); err != nil {
		return err
	}
	if err := c.validate(to); err != nil {
		return err
	}
	dst := c.AbsPath(to)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", to, err)
	}
	if err := os.Rename(c.AbsPath(from), dst); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", from, to, err)
	}
	return nil
}

// NewFilename returns a fresh document filename "YYYYmmdd-HHMMSS-<8 hex>.md".
func NewFilename(now time.Time) string {
	return fmt.Sprintf("%s-%s.md", now.Format("20060102-150405"), uuid.NewString()[:8])
}

// validate rejects paths outside the root and anything that is not a
// top-level or archived markdown file.
func (c *Corpus) validate(rel string) error {
	rel = filepath.ToSlash(rel)
	if rel == "" || path.IsAbs(rel) || strings.Contains(rel, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, rel)
	}
	if path.Ext(rel) != ".md" {
		return fmt.Errorf("%w: %q is not a markdown file", ErrInvalidName, rel)
	}
	dir := path.Dir(rel)
	if dir != "." && dir != c.archiveDir {
		return fmt.Errorf("%w: %q is outside the corpus layout", ErrInvalidName, rel)
	}
	return nil
}
