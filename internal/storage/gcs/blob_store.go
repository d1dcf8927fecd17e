// Package gcs provides a blob store backed by Google Cloud Storage.
package gcs

import (
	"bytes"
	"context"
	"crypto/md5" // #nosec G501 -- GCS reports object MD5s; used for content comparison only.
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket string
	// Prefix is prepended to every object name.
	Prefix string
}

// BlobStore reads and writes gazettes in a configured GCS bucket.
type BlobStore struct {
	client *storage.Client
	bucket string
	prefix string
	owned  bool
}

// New creates a GCS-backed blob store. The caller keeps ownership of client.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// NewOwned is New for a client the store closes on Close.
func NewOwned(client *storage.Client, cfg Config) (*BlobStore, error) {
	s, err := New(client, cfg)
	if err != nil {
		return nil, err
	}
	s.owned = true
	return s, nil
}

// Download copies the object at relPath into localPath.
func (s *BlobStore) Download(ctx context.Context, relPath, localPath string) error {
	name, err := s.objectName(relPath)
	if err != nil {
		return err
	}
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("read gs://%s/%s: %w", s.bucket, name, gazette.ErrNotFound)
		}
		return fmt.Errorf("read gs://%s/%s: %w", s.bucket, name, err)
	}
	defer func() {
		_ = r.Close()
	}()

	out, err := os.OpenFile(localPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) // #nosec G304 -- cache-managed path.
	if err != nil {
		return fmt.Errorf("create %s: %w", localPath, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy object: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", localPath, err)
	}
	return nil
}

// Put uploads localPath to relPath under a does-not-exist precondition and returns
// a gs:// URI. When the object already exists its MD5 decides between an idempotent
// success and gazette.ErrObjectExists.
func (s *BlobStore) Put(ctx context.Context, localPath, relPath string) (string, error) {
	name, err := s.objectName(relPath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(localPath) // #nosec G304 -- cache-managed path.
	if err != nil {
		return "", fmt.Errorf("read %s: %w", localPath, err)
	}
	sum := md5.Sum(data) // #nosec G401 -- content comparison only.
	uri := fmt.Sprintf("gs://%s/%s", s.bucket, name)

	obj := s.client.Bucket(s.bucket).Object(name)
	writer := obj.If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ChunkSize = 0
	writer.ContentType = "application/pdf"
	writer.MD5 = sum[:]
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", fmt.Errorf("copy object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("copy object: %w", err)
	}
	err = writer.Close()
	if err == nil {
		return uri, nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusPreconditionFailed {
		return "", fmt.Errorf("close writer: %w", err)
	}
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return "", fmt.Errorf("read attrs of %s: %w", uri, err)
	}
	if !bytes.Equal(attrs.MD5, sum[:]) {
		return "", fmt.Errorf("put %s: %w", uri, gazette.ErrObjectExists)
	}
	return uri, nil
}

// Close releases the client when the store owns it.
func (s *BlobStore) Close() error {
	if !s.owned {
		return nil
	}
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close storage client: %w", err)
	}
	return nil
}

func (s *BlobStore) objectName(relPath string) (string, error) {
	rel := strings.TrimLeft(relPath, "/")
	if strings.TrimSpace(rel) == "" {
		return "", fmt.Errorf("path is required")
	}
	clean := path.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("path traversal detected")
	}
	if s.prefix == "" {
		return clean, nil
	}
	return s.prefix + "/" + clean, nil
}
