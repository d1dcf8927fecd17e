package archive

import (
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

// Outcome describes how one scraped document left the pipeline.
type Outcome struct {
	Document gazette.ScrapedDocument
	Status   Status
	// Stage is set for failed and skipped documents.
	Stage       Stage
	Err         error
	UniqueID    string
	ArchivePath string
	ArchiveURI  string
	// ExistingURI is the original URI already holding UniqueID on a conflict.
	ExistingURI string
	SameContent bool
}

// Report summarises a run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	ByStatus   map[Status]int
	ByKind     map[gazette.FailureKind]int
}

func newReport(runID string, started time.Time) Report {
	return Report{
		RunID:     runID,
		StartedAt: started,
		ByStatus:  make(map[Status]int),
		ByKind:    make(map[gazette.FailureKind]int),
	}
}

func (r *Report) add(out Outcome) {
	r.Processed++
	r.ByStatus[out.Status]++
	switch out.Status {
	case StatusFailed:
		r.ByKind[gazette.KindOf(out.Err)]++
	case StatusDuplicateConflict:
		r.ByKind[gazette.KindDuplicateConflict]++
	}
}

// Fields renders the report for a summary log line.
func (r Report) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("run_id", r.RunID),
		zap.Int("processed", r.Processed),
		zap.Duration("elapsed", r.FinishedAt.Sub(r.StartedAt)),
	}
	for _, s := range []Status{
		StatusArchived,
		StatusDuplicateKnown,
		StatusDuplicateConflict,
		StatusSkippedIndex,
		StatusFailed,
	} {
		fields = append(fields, zap.Int(string(s), r.ByStatus[s]))
	}
	return fields
}
