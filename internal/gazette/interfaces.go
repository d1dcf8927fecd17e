package gazette

import (
	"context"
	"time"
)

// Feed lists scraped documents that are eligible for archival.
type Feed interface {
	// ListActive returns every document with manually_ignored = false, ordered by id.
	ListActive(ctx context.Context) ([]ScrapedDocument, error)
}

// RecordStore opens per-document transactions against the archive records.
type RecordStore interface {
	Begin(ctx context.Context) (RecordTx, error)
}

// RecordTx is a single document's unit of persistence work.
type RecordTx interface {
	// FindByUniqueID returns ErrNotFound when no record holds the id.
	FindByUniqueID(ctx context.Context, uniqueID string) (Gazette, error)
	Insert(ctx context.Context, record Gazette) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// FailureLedger persists documents that could not be archived.
type FailureLedger interface {
	Record(ctx context.Context, failure Failure) error
}

// ScrapeStore reads raw documents written by the crawler.
type ScrapeStore interface {
	// Download copies the object at relPath into the local file localPath.
	Download(ctx context.Context, relPath string, localPath string) error
}

// ArchiveStore writes archived documents. Paths are write-once.
type ArchiveStore interface {
	// Put uploads localPath to relPath and returns the object URI. It returns
	// ErrObjectExists if relPath already holds different content.
	Put(ctx context.Context, localPath string, relPath string) (string, error)
}

// ContentTools are the external PDF capabilities the extractor relies on.
type ContentTools interface {
	Encrypted(ctx context.Context, path string) (bool, error)
	// Decrypt writes a decrypted copy of path and returns its location.
	Decrypt(ctx context.Context, path string) (string, error)
	CoverText(ctx context.Context, path string) (string, error)
	PageCount(ctx context.Context, path string) (int, error)
}

// Publisher pushes archive notifications to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes content digests of local files.
type Hasher interface {
	HashFile(path string) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces record and run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
