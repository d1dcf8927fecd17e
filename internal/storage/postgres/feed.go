package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

var scrapedColumns = []string{
	"id", "original_uri", "store_path", "label", "published_date", "referrer",
}

// ListActive returns every scraped document not manually ignored, in id order.
func (s *Store) ListActive(ctx context.Context) ([]gazette.ScrapedDocument, error) {
	query, args, err := s.sb.Select(scrapedColumns...).
		From(ScrapedTable).
		Where(sq.Eq{"manually_ignored": false}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build feed query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scraped gazettes: %w", err)
	}
	defer rows.Close()

	var docs []gazette.ScrapedDocument
	for rows.Next() {
		var d gazette.ScrapedDocument
		if err := rows.Scan(&d.ID, &d.OriginalURI, &d.StorePath, &d.Label, &d.PublishedDate, &d.Referrer); err != nil {
			return nil, fmt.Errorf("scan scraped gazette: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scraped gazettes: %w", err)
	}
	return docs, nil
}
