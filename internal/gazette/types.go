// Package gazette defines the core types shared across the archival pipeline.
package gazette

import (
	"fmt"
	"regexp"
	"time"
)

// Publication titles recognised by the resolver and identity tables.
const (
	TitleGovernmentGazette = "Government Gazette"
	TitleProvincialGazette = "Provincial Gazette"
	TitleTenderBulletin    = "Tender Bulletin"
)

// Field limits enforced before a record is persisted.
const (
	MaxIssueNumber  = 80000
	MaxVolumeNumber = 2000
	MaxPageCount    = 8000
)

// DateLayout is the ISO-8601 calendar date format used on the wire and in paths.
const DateLayout = "2006-01-02"

var languageCode = regexp.MustCompile(`^[a-z]{2}$`)

// ScrapedDocument is a row produced by the crawler. The pipeline only reads it.
type ScrapedDocument struct {
	ID              int64     `json:"id"`
	OriginalURI     string    `json:"original_uri"`
	StorePath       string    `json:"store_path"`
	Label           string    `json:"label"`
	PublishedDate   time.Time `json:"published_date"`
	Referrer        string    `json:"referrer"`
	ManuallyIgnored bool      `json:"manually_ignored"`
}

// Metadata is the bibliographic description resolved for one document.
type Metadata struct {
	PublicationTitle    string `json:"publication_title"`
	PublicationSubtitle string `json:"publication_subtitle,omitempty"`
	SpecialIssue        string `json:"special_issue,omitempty"`
	LanguageEdition     string `json:"language_edition,omitempty"`
	JurisdictionCode    string `json:"jurisdiction_code"`
	IssueNumber         int    `json:"issue_number"`
	VolumeNumber        *int   `json:"volume_number,omitempty"`
	PartNumber          *int   `json:"part_number,omitempty"`
	PageCount           int    `json:"pagecount"`
}

// Validate enforces the persisted field constraints.
func (m Metadata) Validate() error {
	if m.PublicationTitle == "" {
		return fmt.Errorf("%w: publication title is required", ErrExtraction)
	}
	if m.JurisdictionCode == "" {
		return fmt.Errorf("%w: jurisdiction code is required", ErrExtraction)
	}
	if m.IssueNumber < 1 || m.IssueNumber > MaxIssueNumber {
		return fmt.Errorf("%w: issue number %d outside [1, %d]", ErrExtraction, m.IssueNumber, MaxIssueNumber)
	}
	if m.VolumeNumber != nil && (*m.VolumeNumber < 1 || *m.VolumeNumber > MaxVolumeNumber) {
		return fmt.Errorf("%w: volume number %d outside [1, %d]", ErrExtraction, *m.VolumeNumber, MaxVolumeNumber)
	}
	if m.PartNumber != nil && *m.PartNumber < 1 {
		return fmt.Errorf("%w: part number %d must be positive", ErrExtraction, *m.PartNumber)
	}
	if m.PageCount < 1 || m.PageCount > MaxPageCount {
		return fmt.Errorf("%w: page count %d outside [1, %d]", ErrExtraction, m.PageCount, MaxPageCount)
	}
	if m.LanguageEdition != "" && !languageCode.MatchString(m.LanguageEdition) {
		return fmt.Errorf("%w: language edition %q is not a two-letter code", ErrExtraction, m.LanguageEdition)
	}
	return nil
}

// Gazette is an archived gazette record. Rows are created once and never mutated.
type Gazette struct {
	ID              string    `json:"id"`
	OriginalURI     string    `json:"original_uri"`
	ArchivePath     string    `json:"archive_path"`
	UniqueID        string    `json:"unique_id"`
	PublicationDate time.Time `json:"publication_date"`
	SHA256          string    `json:"sha256"`
	Metadata
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Archived is the notification payload published after a gazette is committed.
type Archived struct {
	UniqueID         string `json:"unique_id"`
	ArchivePath      string `json:"archive_path"`
	ArchiveURI       string `json:"archive_uri"`
	OriginalURI      string `json:"original_uri"`
	JurisdictionCode string `json:"jurisdiction_code"`
	PublicationDate  string `json:"publication_date"`
}

// Failure is one entry in the failure ledger.
type Failure struct {
	ID          string      `json:"id"`
	RunID       string      `json:"run_id"`
	DocumentID  int64       `json:"document_id"`
	OriginalURI string      `json:"original_uri"`
	Stage       string      `json:"stage"`
	Kind        FailureKind `json:"kind"`
	UniqueID    string      `json:"unique_id,omitempty"`
	Message     string      `json:"message"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
