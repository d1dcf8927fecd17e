// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-archiver/internal/archive"
	"github.com/JakeFAU/gazette-archiver/internal/cache"
	"github.com/JakeFAU/gazette-archiver/internal/clock/system"
	"github.com/JakeFAU/gazette-archiver/internal/config"
	"github.com/JakeFAU/gazette-archiver/internal/extract"
	"github.com/JakeFAU/gazette-archiver/internal/extract/poppler"
	"github.com/JakeFAU/gazette-archiver/internal/gazette"
	"github.com/JakeFAU/gazette-archiver/internal/hash/sha256"
	"github.com/JakeFAU/gazette-archiver/internal/id/uuid"
	"github.com/JakeFAU/gazette-archiver/internal/publisher/pubsub"
	"github.com/JakeFAU/gazette-archiver/internal/resolver"
	"github.com/JakeFAU/gazette-archiver/internal/storage"
	"github.com/JakeFAU/gazette-archiver/internal/storage/postgres"
	"github.com/JakeFAU/gazette-archiver/internal/storage/sqlite"
)

// Records is a relational backend serving the feed, archive records and failure ledger.
type Records interface {
	gazette.Feed
	gazette.RecordStore
	gazette.FailureLedger
	ListFailures(ctx context.Context, runID string) ([]gazette.Failure, error)
	Close() error
}

// App holds the shared, long-lived services for one archiver process.
// It is initialized once at startup and closed by the CLI when the command finishes.
type App struct {
	logger      *zap.Logger
	scrape      storage.Store
	archive     storage.Store
	records     Records
	publisher   *pubsub.Publisher
	coordinator *archive.Coordinator
}

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Records exposes the relational backend.
func (a *App) Records() Records {
	return a.records
}

// Coordinator returns the archive coordinator wired to the configured backends.
func (a *App) Coordinator() *archive.Coordinator {
	return a.coordinator
}

// Option customizes NewApp.
type Option func(*options)

type options struct {
	tools gazette.ContentTools
}

// WithContentTools replaces the poppler/qpdf tools.
func WithContentTools(tools gazette.ContentTools) Option {
	return func(o *options) {
		o.tools = tools
	}
}

// NewApp creates and initializes an App from cfg. It fails fast if any
// backend cannot be opened and releases whatever was already opened.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger.Info("initializing application services")

	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	a.scrape, err = storage.Open(ctx, cfg.Stores.ScrapeURI)
	if err != nil {
		return nil, fmt.Errorf("open scrape store: %w", err)
	}
	a.archive, err = storage.Open(ctx, cfg.Stores.ArchiveURI)
	if err != nil {
		return nil, fmt.Errorf("open archive store: %w", err)
	}
	a.records, err = OpenRecords(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	var publisher gazette.Publisher
	topic := ""
	if cfg.PubSub.ProjectID != "" {
		a.publisher, err = pubsub.Dial(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("initialize publisher: %w", err)
		}
		publisher = a.publisher
		topic = cfg.PubSub.Topic
		logger.Info("publishing archive notifications", zap.String("topic", topic))
	}

	tools := o.tools
	if tools == nil {
		tools = poppler.New(poppler.Options{
			PDFInfo:   cfg.Tools.PDFInfo,
			PDFToText: cfg.Tools.PDFToText,
			QPDF:      cfg.Tools.QPDF,
		}, poppler.ExecRunner{})
	}

	fetcher, err := cache.New(cfg.Stores.CacheDir, a.scrape)
	if err != nil {
		return nil, fmt.Errorf("initialize cache: %w", err)
	}

	a.coordinator, err = archive.New(archive.Deps{
		Feed:       a.records,
		Records:    a.records,
		Ledger:     a.records,
		Fetcher:    fetcher,
		Classifier: resolver.New(),
		Extractor:  extract.New(tools, logger.Named("extract")),
		Archive:    a.archive,
		Publisher:  publisher,
		Hasher:     sha256.New(),
		Clock:      system.New(),
		IDs:        uuid.New(),
	}, archive.Config{
		StopOnError: cfg.Run.StopOnError,
		Limit:       cfg.Run.Limit,
		Topic:       topic,
	}, logger.Named("archive"))
	if err != nil {
		return nil, fmt.Errorf("initialize coordinator: %w", err)
	}

	logger.Info("application services initialized",
		zap.String("scrape_store", cfg.Stores.ScrapeURI),
		zap.String("archive_store", cfg.Stores.ArchiveURI),
		zap.String("cache_dir", cfg.Stores.CacheDir),
	)
	return a, nil
}

// OpenRecords selects the relational backend from the database URI scheme:
// postgres:// or postgresql:// use pgx, sqlite://<path> uses gorm.
func OpenRecords(ctx context.Context, cfg config.DatabaseConfig) (Records, error) {
	u, err := url.Parse(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("parse database uri: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:      cfg.URI,
			MaxConns: int32(cfg.MaxConns), // #nosec G115 -- validated small positive value.
			MinConns: int32(cfg.MinConns), // #nosec G115 -- validated small positive value.
		})
		if err != nil {
			return nil, fmt.Errorf("initialize database: %w", err)
		}
		return store, nil
	case "sqlite":
		path := strings.TrimPrefix(cfg.URI, u.Scheme+"://")
		if path == "" {
			return nil, errors.New("sqlite database uri has no path")
		}
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("initialize database: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}
}

// Close shuts down all services in the App container. It is safe to call on a
// partially initialized App.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("error closing publisher", zap.Error(err))
		}
	}
	if a.records != nil {
		if err := a.records.Close(); err != nil {
			a.logger.Warn("error closing database", zap.Error(err))
		}
	}
	for name, s := range map[string]storage.Store{"scrape": a.scrape, "archive": a.archive} {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil {
			a.logger.Warn("error closing store", zap.String("store", name), zap.Error(err))
		}
	}
	// Sync errors on stderr are expected on some platforms.
	_ = a.logger.Sync()
}
