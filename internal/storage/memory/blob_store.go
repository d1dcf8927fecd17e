// Package memory stores blob content in-memory for tests and dry runs.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

// BlobStore stores documents in-memory and returns memory:// URIs.
type BlobStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	puts int
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{data: make(map[string][]byte)}
}

// Seed stores data at relPath without write-once checks.
func (s *BlobStore) Seed(relPath string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[relPath] = append([]byte(nil), data...)
}

// Object returns a copy of the content at relPath.
func (s *BlobStore) Object(relPath string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.data[relPath]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}

// Len returns the number of stored objects.
func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Puts returns how many objects Put has written.
func (s *BlobStore) Puts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}

// Download writes the object at relPath to localPath.
func (s *BlobStore) Download(_ context.Context, relPath, localPath string) error {
	data, ok := s.Object(relPath)
	if !ok {
		return fmt.Errorf("download %s: %w", relPath, gazette.ErrNotFound)
	}
	if err := os.WriteFile(localPath, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", localPath, err)
	}
	return nil
}

// Put stores the content of localPath at relPath. Paths are write-once.
func (s *BlobStore) Put(_ context.Context, localPath, relPath string) (string, error) {
	if strings.TrimSpace(relPath) == "" {
		return "", fmt.Errorf("path is required")
	}
	data, err := os.ReadFile(localPath) // #nosec G304 -- localPath is a cache-managed file.
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", localPath, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	uri := "memory://" + relPath
	if existing, ok := s.data[relPath]; ok {
		if !bytes.Equal(existing, data) {
			return "", fmt.Errorf("put %s: %w", relPath, gazette.ErrObjectExists)
		}
		return uri, nil
	}
	s.data[relPath] = data
	s.puts++
	return uri, nil
}

// Close is a no-op.
func (s *BlobStore) Close() error {
	return nil
}
