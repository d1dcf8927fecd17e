// Package identity composes the deterministic unique id and archive path of a gazette.
// Both values are the pipeline's deduplication key, so every function here is pure.
package identity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
)

// ComposeUniqueID renders
// <base>-<jurisdiction>[-vol-<volume>]-no-<issue><subtitle-suffix>[-part-<part>][-<language>].
func ComposeUniqueID(m gazette.Metadata) (string, error) {
	base, ok := baseNames[titleKey{title: m.PublicationTitle, subtitle: m.PublicationSubtitle}]
	if !ok {
		return "", fmt.Errorf("%w: no base name for title %q subtitle %q",
			gazette.ErrUnknownCombination, m.PublicationTitle, m.PublicationSubtitle)
	}
	suffix, ok := subtitleSuffixes[m.PublicationSubtitle]
	if !ok {
		return "", fmt.Errorf("%w: no suffix for subtitle %q", gazette.ErrUnknownCombination, m.PublicationSubtitle)
	}
	if m.JurisdictionCode == "" {
		return "", fmt.Errorf("%w: jurisdiction code is required", gazette.ErrExtraction)
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("-")
	b.WriteString(m.JurisdictionCode)
	if m.VolumeNumber != nil {
		b.WriteString("-vol-")
		b.WriteString(strconv.Itoa(*m.VolumeNumber))
	}
	b.WriteString("-no-")
	b.WriteString(strconv.Itoa(m.IssueNumber))
	b.WriteString(suffix)
	if m.PartNumber != nil {
		b.WriteString("-part-")
		b.WriteString(strconv.Itoa(*m.PartNumber))
	}
	if m.LanguageEdition != "" {
		b.WriteString("-")
		b.WriteString(m.LanguageEdition)
	}
	return b.String(), nil
}

// ComposeArchivePath renders
// <jurisdiction>/<year>/<unique_id>-dated-<YYYY-MM-DD>[-<special-issue-slug>].pdf.
func ComposeArchivePath(uniqueID, jurisdiction, specialIssue string, published time.Time) (string, error) {
	slug, ok := specialIssueSlugs[specialIssue]
	if !ok {
		return "", fmt.Errorf("%w: no slug for special issue %q", gazette.ErrUnknownCombination, specialIssue)
	}
	if uniqueID == "" || jurisdiction == "" {
		return "", fmt.Errorf("%w: unique id and jurisdiction are required", gazette.ErrExtraction)
	}
	if published.IsZero() {
		return "", fmt.Errorf("%w: publication date is required", gazette.ErrExtraction)
	}
	if slug != "" {
		slug = "-" + slug
	}
	return fmt.Sprintf("%s/%d/%s-dated-%s%s.pdf",
		jurisdiction, published.Year(), uniqueID, published.Format(gazette.DateLayout), slug), nil
}

// Compose returns both the unique id and archive path for a document.
func Compose(m gazette.Metadata, published time.Time) (uniqueID, archivePath string, err error) {
	uniqueID, err = ComposeUniqueID(m)
	if err != nil {
		return "", "", err
	}
	archivePath, err = ComposeArchivePath(uniqueID, m.JurisdictionCode, m.SpecialIssue, published)
	if err != nil {
		return "", "", err
	}
	return uniqueID, archivePath, nil
}
