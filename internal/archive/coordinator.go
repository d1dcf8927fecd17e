// Package archive drives scraped documents through classification, extraction,
// identity and persistence.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-archiver/internal/extract"
	"github.com/JakeFAU/gazette-archiver/internal/gazette"
	"github.com/JakeFAU/gazette-archiver/internal/identity"
	"github.com/JakeFAU/gazette-archiver/internal/logging"
	"github.com/JakeFAU/gazette-archiver/internal/metrics"
	"github.com/JakeFAU/gazette-archiver/internal/resolver"
)

// Config controls Coordinator behavior.
type Config struct {
	// StopOnError ends the run at the first failed document.
	StopOnError bool
	// Limit caps the number of documents processed. Zero means no cap.
	Limit int
	// Topic receives archive notifications. Empty disables publishing.
	Topic string
}

// Fetcher makes a scraped document available on local disk.
type Fetcher interface {
	Ensure(ctx context.Context, storePath string) (local string, hit bool, err error)
}

// Classifier resolves a document's provenance into partial metadata.
type Classifier interface {
	Classify(referrer, label string) (resolver.Classification, error)
}

// Deps are the collaborators a Coordinator needs. Ledger and Publisher are optional.
type Deps struct {
	Feed       gazette.Feed
	Records    gazette.RecordStore
	Ledger     gazette.FailureLedger
	Fetcher    Fetcher
	Classifier Classifier
	Extractor  *extract.Extractor
	Archive    gazette.ArchiveStore
	Publisher  gazette.Publisher
	Hasher     gazette.Hasher
	Clock      gazette.Clock
	IDs        gazette.IDGenerator
}

// Coordinator runs archive passes over the scrape feed.
type Coordinator struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

// New constructs a Coordinator.
func New(deps Deps, cfg Config, logger *zap.Logger) (*Coordinator, error) {
	switch {
	case deps.Feed == nil:
		return nil, errors.New("archive: feed is required")
	case deps.Records == nil:
		return nil, errors.New("archive: record store is required")
	case deps.Fetcher == nil:
		return nil, errors.New("archive: fetcher is required")
	case deps.Classifier == nil:
		return nil, errors.New("archive: classifier is required")
	case deps.Extractor == nil:
		return nil, errors.New("archive: extractor is required")
	case deps.Archive == nil:
		return nil, errors.New("archive: archive store is required")
	case deps.Hasher == nil || deps.Clock == nil || deps.IDs == nil:
		return nil, errors.New("archive: hasher, clock and id generator are required")
	}
	if cfg.Limit < 0 {
		return nil, fmt.Errorf("archive: limit must be >= 0, got %d", cfg.Limit)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Coordinator{deps: deps, cfg: cfg, logger: logger}, nil
}

// work carries a document's state between stages.
type work struct {
	runID       string
	doc         gazette.ScrapedDocument
	local       string
	class       resolver.Classification
	cover       string
	meta        gazette.Metadata
	uniqueID    string
	archivePath string
}

// Run reads the feed once and processes every document in feed order.
// Only feed, id and cancellation errors abort the run, unless StopOnError is set.
func (c *Coordinator) Run(ctx context.Context) (Report, error) {
	runID, err := c.deps.IDs.NewID()
	if err != nil {
		return Report{}, fmt.Errorf("generate run id: %w", err)
	}
	report := newReport(runID, c.deps.Clock.Now())

	docs, err := c.deps.Feed.ListActive(ctx)
	if err != nil {
		return report, fmt.Errorf("list active documents: %w", err)
	}
	c.logger.Info("archive run started",
		zap.String("run_id", runID),
		zap.Int("documents", len(docs)),
		zap.Int("limit", c.cfg.Limit),
		zap.Bool("stop_on_error", c.cfg.StopOnError),
	)

	for _, doc := range docs {
		if c.cfg.Limit > 0 && report.Processed >= c.cfg.Limit {
			c.logger.Info("document limit reached", zap.String("run_id", runID), zap.Int("limit", c.cfg.Limit))
			break
		}
		if err := ctx.Err(); err != nil {
			report.FinishedAt = c.deps.Clock.Now()
			return report, fmt.Errorf("archive run interrupted: %w", err)
		}

		out := c.process(ctx, runID, doc)
		report.add(out)
		if out.Status == StatusFailed && c.cfg.StopOnError {
			report.FinishedAt = c.deps.Clock.Now()
			c.logger.Warn("stopping run on first failure", report.Fields()...)
			return report, fmt.Errorf("document %d failed at %s: %w", doc.ID, out.Stage, out.Err)
		}
	}

	report.FinishedAt = c.deps.Clock.Now()
	metrics.MarkRunSucceeded(report.FinishedAt)
	c.logger.Info("archive run finished", report.Fields()...)
	return report, nil
}

// Process runs a single document through every stage under a fresh run id.
func (c *Coordinator) Process(ctx context.Context, doc gazette.ScrapedDocument) Outcome {
	runID, err := c.deps.IDs.NewID()
	if err != nil {
		err = fmt.Errorf("generate run id: %w", err)
		c.logger.Error("document not processed", append(logging.DocumentFields(doc), logging.ErrorFields(err)...)...)
		metrics.ObserveDocument(doc.Referrer, string(StatusFailed))
		return Outcome{Document: doc, Status: StatusFailed, Stage: StageFetch, Err: err}
	}
	return c.process(ctx, runID, doc)
}

func (c *Coordinator) process(ctx context.Context, runID string, doc gazette.ScrapedDocument) Outcome {
	w := &work{runID: runID, doc: doc}
	c.logger.Debug("processing document", logging.DocumentFields(doc)...)

	stages := []struct {
		stage Stage
		run   func(context.Context, *work) Step
	}{
		{StageFetch, c.fetch},
		{StageClassify, c.classify},
		{StageExtract, c.extract},
		{StageIdentify, c.identify},
	}
	for _, s := range stages {
		start := time.Now()
		step := s.run(ctx, w)
		metrics.ObserveStage(string(s.stage), time.Since(start))

		if step.Continues() {
			continue
		}
		if err := step.Err(); err != nil {
			return c.fail(ctx, w, s.stage, err)
		}
		return c.skip(w, s.stage, step.status)
	}

	start := time.Now()
	out := c.persist(ctx, w)
	metrics.ObserveStage(string(StagePersist), time.Since(start))
	return out
}

func (c *Coordinator) fetch(ctx context.Context, w *work) Step {
	local, hit, err := c.deps.Fetcher.Ensure(ctx, w.doc.StorePath)
	if err != nil {
		return Fail(err)
	}
	metrics.ObserveCache(hit)
	w.local = local
	return Continue()
}

func (c *Coordinator) classify(_ context.Context, w *work) Step {
	class, err := c.deps.Classifier.Classify(w.doc.Referrer, w.doc.Label)
	if err != nil {
		return Fail(err)
	}
	w.class = class
	return Continue()
}

func (c *Coordinator) extract(ctx context.Context, w *work) Step {
	ex := c.deps.Extractor
	if _, err := ex.EnsureExtractable(ctx, w.local); err != nil {
		return Fail(err)
	}
	cover, err := ex.CoverText(ctx, w.local)
	if err != nil {
		return Fail(err)
	}
	if extract.IsIndexDocument(cover) {
		return Skip(StatusSkippedIndex)
	}
	pages, err := ex.PageCount(ctx, w.local)
	if err != nil {
		return Fail(err)
	}
	volume, err := extract.VolumeNumber(w.class.Volume, cover)
	if err != nil {
		return Fail(err)
	}

	w.cover = cover
	w.meta = w.class.Metadata
	w.meta.PageCount = pages
	w.meta.VolumeNumber = volume
	return Continue()
}

func (c *Coordinator) identify(_ context.Context, w *work) Step {
	if err := w.meta.Validate(); err != nil {
		return Fail(err)
	}
	uniqueID, archivePath, err := identity.Compose(w.meta, w.doc.PublishedDate)
	if err != nil {
		return Fail(err)
	}
	w.uniqueID = uniqueID
	w.archivePath = archivePath
	return Continue()
}

// persist resolves duplicates and writes the blob and record. The transaction
// is finished before any ledger write.
func (c *Coordinator) persist(ctx context.Context, w *work) Outcome {
	out, err := c.persistTx(ctx, w)
	if err != nil {
		return c.fail(ctx, w, StagePersist, err)
	}

	fields := append(logging.DocumentFields(w.doc), zap.String("unique_id", w.uniqueID))
	switch out.Status {
	case StatusArchived:
		c.logger.Info("gazette archived", append(fields,
			zap.String("archive_path", out.ArchivePath),
			zap.String("archive_uri", out.ArchiveURI),
		)...)
		c.publish(ctx, w, out)
	case StatusDuplicateKnown:
		c.logger.Debug("gazette already archived", fields...)
	case StatusDuplicateConflict:
		c.logger.Error("unique id already archived from a different source", append(fields,
			zap.String("existing_original_uri", out.ExistingURI),
			zap.Bool("same_content", out.SameContent),
		)...)
		c.record(ctx, w, StagePersist, gazette.KindDuplicateConflict,
			fmt.Sprintf("unique id %s already archived from %s", w.uniqueID, out.ExistingURI))
	}
	metrics.ObserveDocument(w.doc.Referrer, string(out.Status))
	return out
}

func (c *Coordinator) persistTx(ctx context.Context, w *work) (out Outcome, err error) {
	out = Outcome{
		Document:    w.doc,
		UniqueID:    w.uniqueID,
		ArchivePath: w.archivePath,
	}

	tx, err := c.deps.Records.Begin(ctx)
	if err != nil {
		return out, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			c.logger.Warn("rollback failed", zap.String("unique_id", w.uniqueID), zap.Error(rbErr))
		}
	}()

	existing, err := tx.FindByUniqueID(ctx, w.uniqueID)
	switch {
	case err == nil:
		if existing.OriginalURI == w.doc.OriginalURI {
			out.Status = StatusDuplicateKnown
			return out, nil
		}
		out.Status = StatusDuplicateConflict
		out.ExistingURI = existing.OriginalURI
		if sum, hashErr := c.deps.Hasher.HashFile(w.local); hashErr == nil {
			out.SameContent = existing.SHA256 != "" && sum == existing.SHA256
		} else {
			c.logger.Warn("hash conflicting document", zap.String("unique_id", w.uniqueID), zap.Error(hashErr))
		}
		return out, nil
	case !errors.Is(err, gazette.ErrNotFound):
		return out, fmt.Errorf("find %s: %w", w.uniqueID, err)
	}

	sum, err := c.deps.Hasher.HashFile(w.local)
	if err != nil {
		return out, fmt.Errorf("hash %s: %w", w.local, err)
	}
	info, err := os.Stat(w.local)
	if err != nil {
		return out, fmt.Errorf("stat %s: %w", w.local, err)
	}
	uri, err := c.deps.Archive.Put(ctx, w.local, w.archivePath)
	if err != nil {
		return out, fmt.Errorf("put archive object: %w", err)
	}
	id, err := c.deps.IDs.NewID()
	if err != nil {
		return out, fmt.Errorf("generate record id: %w", err)
	}

	now := c.deps.Clock.Now()
	record := gazette.Gazette{
		ID:              id,
		OriginalURI:     w.doc.OriginalURI,
		ArchivePath:     w.archivePath,
		UniqueID:        w.uniqueID,
		PublicationDate: w.doc.PublishedDate,
		SHA256:          sum,
		Metadata:        w.meta,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := tx.Insert(ctx, record); err != nil {
		return out, fmt.Errorf("insert %s: %w", w.uniqueID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return out, fmt.Errorf("commit %s: %w", w.uniqueID, err)
	}
	committed = true

	metrics.ObserveArchivedBytes(info.Size())
	out.Status = StatusArchived
	out.ArchiveURI = uri
	return out, nil
}

func (c *Coordinator) publish(ctx context.Context, w *work, out Outcome) {
	if c.deps.Publisher == nil || c.cfg.Topic == "" {
		return
	}
	payload := gazette.Archived{
		UniqueID:         out.UniqueID,
		ArchivePath:      out.ArchivePath,
		ArchiveURI:       out.ArchiveURI,
		OriginalURI:      w.doc.OriginalURI,
		JurisdictionCode: w.meta.JurisdictionCode,
		PublicationDate:  w.doc.PublishedDate.Format(gazette.DateLayout),
	}
	if _, err := c.deps.Publisher.Publish(ctx, c.cfg.Topic, payload); err != nil {
		c.logger.Warn("publish archive notification failed",
			zap.String("unique_id", out.UniqueID),
			zap.String("topic", c.cfg.Topic),
			zap.Error(err),
		)
	}
}

func (c *Coordinator) skip(w *work, stage Stage, status Status) Outcome {
	c.logger.Info("document skipped", append(logging.DocumentFields(w.doc),
		zap.String("stage", string(stage)),
		zap.String("status", string(status)),
	)...)
	metrics.ObserveDocument(w.doc.Referrer, string(status))
	return Outcome{Document: w.doc, Status: status, Stage: stage}
}

func (c *Coordinator) fail(ctx context.Context, w *work, stage Stage, err error) Outcome {
	kind := gazette.KindOf(err)
	fields := append(logging.DocumentFields(w.doc), zap.String("stage", string(stage)))
	if w.uniqueID != "" {
		fields = append(fields, zap.String("unique_id", w.uniqueID))
	}
	c.logger.Error("document failed", append(fields, logging.ErrorFields(err)...)...)

	metrics.ObserveFailure(string(stage), string(kind))
	metrics.ObserveDocument(w.doc.Referrer, string(StatusFailed))
	c.record(ctx, w, stage, kind, err.Error())

	return Outcome{
		Document:    w.doc,
		Status:      StatusFailed,
		Stage:       stage,
		Err:         err,
		UniqueID:    w.uniqueID,
		ArchivePath: w.archivePath,
	}
}

// record appends to the failure ledger. Ledger errors never fail the document.
func (c *Coordinator) record(ctx context.Context, w *work, stage Stage, kind gazette.FailureKind, message string) {
	if c.deps.Ledger == nil {
		return
	}
	id, err := c.deps.IDs.NewID()
	if err != nil {
		c.logger.Warn("generate failure id", zap.Error(err))
		return
	}
	failure := gazette.Failure{
		ID:          id,
		RunID:       w.runID,
		DocumentID:  w.doc.ID,
		OriginalURI: w.doc.OriginalURI,
		Stage:       string(stage),
		Kind:        kind,
		UniqueID:    w.uniqueID,
		Message:     message,
		OccurredAt:  c.deps.Clock.Now(),
	}
	if err := c.deps.Ledger.Record(ctx, failure); err != nil {
		c.logger.Warn("record failure in ledger",
			zap.Int64("document_id", w.doc.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
}
