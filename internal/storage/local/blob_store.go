// Package local implements a local filesystem blob store.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
	"github.com/JakeFAU/gazette-archiver/internal/hash/sha256"
)

// Config captures the parameters for the local filesystem blob store.
type Config struct {
	// BaseDir is the root directory where blobs are read and written.
	BaseDir string `mapstructure:"base_dir"`
}

// BlobStore reads scraped documents from and writes archived gazettes to the local filesystem.
type BlobStore struct {
	baseDir string
	hasher  *sha256.Hasher
}

// New creates a new local filesystem-backed blob store.
func New(cfg Config) (*BlobStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	// Check for write permissions.
	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	abs, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}
	return &BlobStore{baseDir: abs, hasher: sha256.New()}, nil
}

// Download copies relPath from the store into localPath.
func (s *BlobStore) Download(_ context.Context, relPath, localPath string) error {
	src, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	in, err := os.Open(src) // #nosec G304 -- resolve keeps src under baseDir.
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("open %s: %w", relPath, gazette.ErrNotFound)
		}
		return fmt.Errorf("open %s: %w", relPath, err)
	}
	defer func() {
		_ = in.Close()
	}()
	return copyToFile(in, localPath)
}

// Put copies localPath to relPath and returns a file:// URI. A path that already
// holds identical content is accepted; different content returns gazette.ErrObjectExists.
func (s *BlobStore) Put(_ context.Context, localPath, relPath string) (string, error) {
	dst, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}
	uri := "file://" + filepath.ToSlash(dst)

	if _, err := os.Stat(dst); err == nil {
		same, err := s.sameContent(localPath, dst)
		if err != nil {
			return "", err
		}
		if !same {
			return "", fmt.Errorf("put %s: %w", relPath, gazette.ErrObjectExists)
		}
		return uri, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat %s: %w", relPath, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return "", fmt.Errorf("failed to create parent directories: %w", err)
	}
	in, err := os.Open(localPath) // #nosec G304 -- localPath is a cache-managed file.
	if err != nil {
		return "", fmt.Errorf("open %s: %w", localPath, err)
	}
	defer func() {
		_ = in.Close()
	}()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	_ = tmp.Close()
	if err := copyToFile(in, tmpName); err != nil {
		_ = os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return uri, nil
}

// Close is a no-op.
func (s *BlobStore) Close() error {
	return nil
}

func (s *BlobStore) resolve(relPath string) (string, error) {
	if strings.TrimSpace(relPath) == "" {
		return "", fmt.Errorf("path is required")
	}
	full := filepath.Clean(filepath.Join(s.baseDir, filepath.FromSlash(relPath)))
	if !strings.HasPrefix(full, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}
	return full, nil
}

func (s *BlobStore) sameContent(a, b string) (bool, error) {
	ha, err := s.hasher.HashFile(a)
	if err != nil {
		return false, err
	}
	hb, err := s.hasher.HashFile(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}

func copyToFile(r io.Reader, path string) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) // #nosec G304 -- caller-controlled path.
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy into %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
