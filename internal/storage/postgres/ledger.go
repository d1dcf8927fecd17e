package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

var failureColumns = []string{
	"id", "run_id", "document_id", "original_uri", "stage", "kind", "unique_id", "message", "occurred_at",
}

// Record appends a failure to the ledger.
func (s *Store) Record(ctx context.Context, f gazette.Failure) error {
	query, args, err := s.sb.Insert(FailureTable).
		Columns(failureColumns...).
		Values(f.ID, f.RunID, f.DocumentID, f.OriginalURI, f.Stage, string(f.Kind), nullString(f.UniqueID), f.Message, f.OccurredAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build failure insert: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("record failure for document %d: %w", f.DocumentID, err)
	}
	return nil
}

// ListFailures returns ledger entries for a run, oldest first. An empty runID lists every run.
func (s *Store) ListFailures(ctx context.Context, runID string) ([]gazette.Failure, error) {
	q := s.sb.Select(failureColumns...).From(FailureTable).OrderBy("occurred_at", "id")
	if runID != "" {
		q = q.Where(sq.Eq{"run_id": runID})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build failure query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []gazette.Failure
	for rows.Next() {
		var (
			f        gazette.Failure
			kind     string
			uniqueID *string
		)
		if err := rows.Scan(&f.ID, &f.RunID, &f.DocumentID, &f.OriginalURI, &f.Stage, &kind, &uniqueID, &f.Message, &f.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		f.Kind = gazette.FailureKind(kind)
		f.UniqueID = deref(uniqueID)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}
	return out, nil
}
