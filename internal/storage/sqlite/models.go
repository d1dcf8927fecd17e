package sqlite

import (
	"time"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

// scrapedRow mirrors the crawler's web_scraped_gazette table.
type scrapedRow struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	OriginalURI     string    `gorm:"uniqueIndex;not null"`
	StorePath       string    `gorm:"not null"`
	Label           string    `gorm:"not null"`
	PublishedDate   time.Time `gorm:"not null"`
	Referrer        string    `gorm:"not null"`
	ManuallyIgnored bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (scrapedRow) TableName() string { return "web_scraped_gazette" }

type gazetteRow struct {
	ID                  string `gorm:"primaryKey"`
	OriginalURI         string `gorm:"uniqueIndex;not null"`
	ArchivePath         string `gorm:"uniqueIndex;not null"`
	UniqueID            string `gorm:"uniqueIndex;not null"`
	PublicationTitle    string `gorm:"not null"`
	PublicationSubtitle *string
	SpecialIssue        *string
	LanguageEdition     *string `gorm:"size:2"`
	JurisdictionCode    string  `gorm:"not null;index:idx_jurisdiction_date"`
	IssueNumber         int     `gorm:"not null"`
	VolumeNumber        *int
	PartNumber          *int
	PageCount           int       `gorm:"column:pagecount;not null"`
	PublicationDate     time.Time `gorm:"not null;index:idx_jurisdiction_date"`
	SHA256              string    `gorm:"column:sha256;not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (gazetteRow) TableName() string { return "archived_gazette" }

type failureRow struct {
	ID          string `gorm:"primaryKey"`
	RunID       string `gorm:"index;not null"`
	DocumentID  int64  `gorm:"not null"`
	OriginalURI string `gorm:"not null"`
	Stage       string `gorm:"not null"`
	Kind        string `gorm:"index;not null"`
	UniqueID    *string
	Message     string    `gorm:"not null"`
	OccurredAt  time.Time `gorm:"not null"`
}

func (failureRow) TableName() string { return "archive_failure" }

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toGazetteRow(g gazette.Gazette) gazetteRow {
	return gazetteRow{
		ID:                  g.ID,
		OriginalURI:         g.OriginalURI,
		ArchivePath:         g.ArchivePath,
		UniqueID:            g.UniqueID,
		PublicationTitle:    g.PublicationTitle,
		PublicationSubtitle: optional(g.PublicationSubtitle),
		SpecialIssue:        optional(g.SpecialIssue),
		LanguageEdition:     optional(g.LanguageEdition),
		JurisdictionCode:    g.JurisdictionCode,
		IssueNumber:         g.IssueNumber,
		VolumeNumber:        g.VolumeNumber,
		PartNumber:          g.PartNumber,
		PageCount:           g.PageCount,
		PublicationDate:     g.PublicationDate,
		SHA256:              g.SHA256,
		CreatedAt:           g.CreatedAt,
		UpdatedAt:           g.UpdatedAt,
	}
}

func (r gazetteRow) toGazette() gazette.Gazette {
	return gazette.Gazette{
		ID:              r.ID,
		OriginalURI:     r.OriginalURI,
		ArchivePath:     r.ArchivePath,
		UniqueID:        r.UniqueID,
		PublicationDate: r.PublicationDate,
		SHA256:          r.SHA256,
		Metadata: gazette.Metadata{
			PublicationTitle:    r.PublicationTitle,
			PublicationSubtitle: value(r.PublicationSubtitle),
			SpecialIssue:        value(r.SpecialIssue),
			LanguageEdition:     value(r.LanguageEdition),
			JurisdictionCode:    r.JurisdictionCode,
			IssueNumber:         r.IssueNumber,
			VolumeNumber:        r.VolumeNumber,
			PartNumber:          r.PartNumber,
			PageCount:           r.PageCount,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
