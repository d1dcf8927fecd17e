// Package storage selects a blob store backend from a URI.
// This keeps the archive pipeline independent of where scraped and archived
// documents live (local filesystem, Google Cloud Storage, or memory).
package storage

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	gcsapi "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
	"github.com/JakeFAU/gazette-archiver/internal/storage/gcs"
	"github.com/JakeFAU/gazette-archiver/internal/storage/local"
	"github.com/JakeFAU/gazette-archiver/internal/storage/memory"
)

// Store is a blob store usable as both the scrape store and the archive store.
type Store interface {
	gazette.ScrapeStore
	gazette.ArchiveStore
	Close() error
}

// Open returns the backend for rawURI:
//
//	file:///abs/dir or file://rel/dir  local filesystem
//	gs://bucket[/prefix]               Google Cloud Storage
//	memory://name                      in-process map
//
// opts are passed to the GCS client.
func Open(ctx context.Context, rawURI string, opts ...option.ClientOption) (Store, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return nil, fmt.Errorf("parse store uri %q: %w", rawURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		dir := filepath.FromSlash(u.Host + u.Path)
		store, err := local.New(local.Config{BaseDir: dir})
		if err != nil {
			return nil, fmt.Errorf("open local store %s: %w", dir, err)
		}
		return store, nil
	case "gs":
		if u.Host == "" {
			return nil, fmt.Errorf("gs uri %q has no bucket", rawURI)
		}
		client, err := gcsapi.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		store, err := gcs.NewOwned(client, gcs.Config{Bucket: u.Host, Prefix: u.Path})
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return store, nil
	case "memory":
		return memory.NewBlobStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}
