package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// File represents a markdown document found during corpus scanning.
type File struct {
	ID         string    // Filename stem, the document identity
	Filename   string    // Stored path relative to root (e.g., "archive/x.md")
	AbsPath    string    // Absolute file path
	Archived   bool      // True when the file lives in the archive directory
	CreatedAt  time.Time // Filesystem modification time; creation time is not portable
	ModifiedAt time.Time
}

// Scan lists every document in the root and archive directories, root first,
// each group sorted by filename. A missing archive directory is not an error.
func (c *Corpus) Scan(ctx context.Context) ([]File, error) {
	files, err := c.scanDir(ctx, c.root, "", false)
	if err != nil {
		return nil, err
	}

	archived, err := c.scanDir(ctx, c.AbsPath(c.archiveDir), c.archiveDir, true)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return files, err
	}
	return append(files, archived...), nil
}

func (c *Corpus) scanDir(ctx context.Context, dir, relDir string, archived bool) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	var files []File
	for _, entry := range entries {
		// Check for context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		name := entry.Name()
		// Skip directories, hidden files and non-markdown files
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".md" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// File vanished between ReadDir and Info
			continue
		}

		rel := name
		if relDir != "" {
			rel = path.Join(relDir, name)
		}
		files = append(files, File{
			ID:         strings.TrimSuffix(name, ".md"),
			Filename:   rel,
			AbsPath:    filepath.Join(dir, name),
			Archived:   archived,
			CreatedAt:  info.ModTime(),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return files, nil
}
