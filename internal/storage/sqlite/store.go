// Package sqlite is a single-file alternative to the Postgres store, for local runs
// and operators without a database server.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

// Store implements gazette.Feed, gazette.RecordStore and gazette.FailureLedger on gorm.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database file at path and migrates the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return New(db)
}

// New wraps an existing gorm handle and auto-migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db is required")
	}
	if err := db.AutoMigrate(&scrapedRow{}, &gazetteRow{}, &failureRow{}); err != nil {
		return nil, fmt.Errorf("auto-migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// AddScraped inserts a scraped document, standing in for the crawler in local setups.
func (s *Store) AddScraped(ctx context.Context, doc gazette.ScrapedDocument) (int64, error) {
	row := scrapedRow{
		ID:              doc.ID,
		OriginalURI:     doc.OriginalURI,
		StorePath:       doc.StorePath,
		Label:           doc.Label,
		PublishedDate:   doc.PublishedDate,
		Referrer:        doc.Referrer,
		ManuallyIgnored: doc.ManuallyIgnored,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("insert scraped gazette: %w", err)
	}
	return row.ID, nil
}

// ListActive returns every scraped document not manually ignored, in id order.
func (s *Store) ListActive(ctx context.Context) ([]gazette.ScrapedDocument, error) {
	var rows []scrapedRow
	if err := s.db.WithContext(ctx).Where("manually_ignored = ?", false).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query scraped gazettes: %w", err)
	}
	docs := make([]gazette.ScrapedDocument, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, gazette.ScrapedDocument{
			ID:            r.ID,
			OriginalURI:   r.OriginalURI,
			StorePath:     r.StorePath,
			Label:         r.Label,
			PublishedDate: r.PublishedDate.UTC(),
			Referrer:      r.Referrer,
		})
	}
	return docs, nil
}

// Begin opens the transaction that scopes one document's persistence work.
func (s *Store) Begin(ctx context.Context) (gazette.RecordTx, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	return &recordTx{tx: tx}, nil
}

// Record appends a failure to the ledger.
func (s *Store) Record(ctx context.Context, f gazette.Failure) error {
	row := failureRow{
		ID:          f.ID,
		RunID:       f.RunID,
		DocumentID:  f.DocumentID,
		OriginalURI: f.OriginalURI,
		Stage:       f.Stage,
		Kind:        string(f.Kind),
		UniqueID:    optional(f.UniqueID),
		Message:     f.Message,
		OccurredAt:  f.OccurredAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record failure for document %d: %w", f.DocumentID, err)
	}
	return nil
}

// ListFailures returns ledger entries for a run, oldest first. An empty runID lists every run.
func (s *Store) ListFailures(ctx context.Context, runID string) ([]gazette.Failure, error) {
	q := s.db.WithContext(ctx).Order("occurred_at").Order("id")
	if runID != "" {
		q = q.Where("run_id = ?", runID)
	}
	var rows []failureRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	out := make([]gazette.Failure, 0, len(rows))
	for _, r := range rows {
		out = append(out, gazette.Failure{
			ID:          r.ID,
			RunID:       r.RunID,
			DocumentID:  r.DocumentID,
			OriginalURI: r.OriginalURI,
			Stage:       r.Stage,
			Kind:        gazette.FailureKind(r.Kind),
			UniqueID:    value(r.UniqueID),
			Message:     r.Message,
			OccurredAt:  r.OccurredAt,
		})
	}
	return out, nil
}

type recordTx struct {
	tx *gorm.DB
}

func (r *recordTx) FindByUniqueID(ctx context.Context, uniqueID string) (gazette.Gazette, error) {
	var row gazetteRow
	err := r.tx.WithContext(ctx).Where("unique_id = ?", uniqueID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return gazette.Gazette{}, fmt.Errorf("gazette %s: %w", uniqueID, gazette.ErrNotFound)
	}
	if err != nil {
		return gazette.Gazette{}, fmt.Errorf("lookup gazette %s: %w", uniqueID, err)
	}
	return row.toGazette(), nil
}

func (r *recordTx) Insert(ctx context.Context, g gazette.Gazette) error {
	row := toGazetteRow(g)
	err := r.tx.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("insert gazette %s: %w", g.UniqueID, gazette.ErrObjectExists)
	}
	if err != nil {
		return fmt.Errorf("insert gazette %s: %w", g.UniqueID, err)
	}
	return nil
}

func (r *recordTx) Commit(_ context.Context) error {
	if err := r.tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *recordTx) Rollback(_ context.Context) error {
	if err := r.tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}
