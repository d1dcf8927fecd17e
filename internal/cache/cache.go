// Package cache keeps local copies of scraped documents so reruns never re-download.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

// Cache maps scrape-store paths onto files under a local directory.
type Cache struct {
	dir   string
	store gazette.ScrapeStore
}

// New creates a Cache rooted at dir that fills misses from store.
func New(dir string, store gazette.ScrapeStore) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir, store: store}, nil
}

// Path returns the local file that mirrors storePath.
func (c *Cache) Path(storePath string) (string, error) {
	clean := path.Clean("/" + strings.ReplaceAll(storePath, "\\", "/"))
	if clean == "/" {
		return "", fmt.Errorf("invalid store path %q", storePath)
	}
	return filepath.Join(c.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Ensure returns the local path for storePath, downloading it on a miss.
// hit is true when the file was already present.
func (c *Cache) Ensure(ctx context.Context, storePath string) (local string, hit bool, err error) {
	local, err = c.Path(storePath)
	if err != nil {
		return "", false, err
	}

	info, err := os.Stat(local)
	switch {
	case err == nil && info.Mode().IsRegular():
		return local, true, nil
	case err == nil:
		return "", false, fmt.Errorf("cache entry %s is not a regular file", local)
	case !errors.Is(err, fs.ErrNotExist):
		return "", false, fmt.Errorf("stat cache entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(local), 0o750); err != nil {
		return "", false, fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(local), filepath.Base(local)+".part-*")
	if err != nil {
		return "", false, fmt.Errorf("create cache temp file: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", false, fmt.Errorf("close cache temp file: %w", err)
	}

	if err := c.store.Download(ctx, storePath, tmpName); err != nil {
		_ = os.Remove(tmpName)
		return "", false, fmt.Errorf("fetch %s: %w", storePath, err)
	}
	if err := os.Rename(tmpName, local); err != nil {
		_ = os.Remove(tmpName)
		return "", false, fmt.Errorf("commit cache entry: %w", err)
	}
	return local, false, nil
}
