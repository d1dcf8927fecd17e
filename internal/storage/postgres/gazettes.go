package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

const uniqueViolation = "23505"

var gazetteColumns = []string{
	"id", "original_uri", "archive_path", "unique_id",
	"publication_title", "publication_subtitle", "special_issue", "language_edition",
	"jurisdiction_code", "issue_number", "volume_number", "part_number", "pagecount",
	"publication_date", "sha256", "created_at", "updated_at",
}

// Begin opens the transaction that scopes one document's persistence work.
func (s *Store) Begin(ctx context.Context) (gazette.RecordTx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &recordTx{tx: tx, sb: s.sb}, nil
}

type recordTx struct {
	tx pgx.Tx
	sb sq.StatementBuilderType
}

// FindByUniqueID returns gazette.ErrNotFound when no record holds uniqueID.
func (r *recordTx) FindByUniqueID(ctx context.Context, uniqueID string) (gazette.Gazette, error) {
	query, args, err := r.sb.Select(gazetteColumns...).
		From(ArchivedTable).
		Where(sq.Eq{"unique_id": uniqueID}).
		Limit(1).
		ToSql()
	if err != nil {
		return gazette.Gazette{}, fmt.Errorf("build gazette lookup: %w", err)
	}

	var (
		g                                gazette.Gazette
		subtitle, specialIssue, language *string
	)
	err = r.tx.QueryRow(ctx, query, args...).Scan(
		&g.ID, &g.OriginalURI, &g.ArchivePath, &g.UniqueID,
		&g.PublicationTitle, &subtitle, &specialIssue, &language,
		&g.JurisdictionCode, &g.IssueNumber, &g.VolumeNumber, &g.PartNumber, &g.PageCount,
		&g.PublicationDate, &g.SHA256, &g.CreatedAt, &g.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return gazette.Gazette{}, fmt.Errorf("gazette %s: %w", uniqueID, gazette.ErrNotFound)
	}
	if err != nil {
		return gazette.Gazette{}, fmt.Errorf("lookup gazette %s: %w", uniqueID, err)
	}
	g.PublicationSubtitle = deref(subtitle)
	g.SpecialIssue = deref(specialIssue)
	g.LanguageEdition = deref(language)
	return g, nil
}

// Insert writes a new archived gazette row.
func (r *recordTx) Insert(ctx context.Context, g gazette.Gazette) error {
	query, args, err := r.sb.Insert(ArchivedTable).
		Columns(gazetteColumns...).
		Values(
			g.ID, g.OriginalURI, g.ArchivePath, g.UniqueID,
			g.PublicationTitle, nullString(g.PublicationSubtitle), nullString(g.SpecialIssue), nullString(g.LanguageEdition),
			g.JurisdictionCode, g.IssueNumber, nullInt(g.VolumeNumber), nullInt(g.PartNumber), g.PageCount,
			g.PublicationDate, g.SHA256, g.CreatedAt, g.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build gazette insert: %w", err)
	}
	if _, err := r.tx.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert gazette %s: %w: %s", g.UniqueID, gazette.ErrObjectExists, pgErr.ConstraintName)
		}
		return fmt.Errorf("insert gazette %s: %w", g.UniqueID, err)
	}
	return nil
}

func (r *recordTx) Commit(ctx context.Context) error {
	if err := r.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback is safe to call after Commit.
func (r *recordTx) Rollback(ctx context.Context) error {
	if err := r.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}
