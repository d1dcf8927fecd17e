// Package extract derives page counts, cover text and volume numbers from cached PDFs.
package extract

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/gazette-archiver/internal/gazette"
	"github.com/JakeFAU/gazette-archiver/internal/resolver"
)

// IndexMarker appears on the cover of listing documents that are not gazettes.
const IndexMarker = "INDEX OF THE"

var volumePattern = regexp.MustCompile(`(?i)\bvol\.?\s*(\d+)`)

// Extractor runs the content tools against cached files.
type Extractor struct {
	tools  gazette.ContentTools
	logger *zap.Logger
}

// New creates an Extractor. A nil logger discards output.
func New(tools gazette.ContentTools, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{tools: tools, logger: logger}
}

// EnsureExtractable decrypts path in place when the PDF is not extractable.
// It reports whether the file was replaced.
func (e *Extractor) EnsureExtractable(ctx context.Context, path string) (bool, error) {
	encrypted, err := e.tools.Encrypted(ctx, path)
	if err != nil {
		return false, fmt.Errorf("%w: inspect encryption of %s: %v", gazette.ErrExtraction, path, err)
	}
	if !encrypted {
		return false, nil
	}

	decrypted, err := e.tools.Decrypt(ctx, path)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", gazette.ErrDecryption, path, err)
	}
	if err := os.Rename(decrypted, path); err != nil {
		_ = os.Remove(decrypted)
		return false, fmt.Errorf("%w: replace %s with decrypted copy: %v", gazette.ErrDecryption, path, err)
	}
	e.logger.Info("decrypted cached document", zap.String("path", path))
	return true, nil
}

// CoverText returns the text of the first page.
func (e *Extractor) CoverText(ctx context.Context, path string) (string, error) {
	text, err := e.tools.CoverText(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: cover text of %s: %v", gazette.ErrExtraction, path, err)
	}
	return text, nil
}

// PageCount returns the number of pages reported by the PDF metadata.
func (e *Extractor) PageCount(ctx context.Context, path string) (int, error) {
	n, err := e.tools.PageCount(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("%w: page count of %s: %v", gazette.ErrExtraction, path, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: page count of %s is %d", gazette.ErrExtraction, path, n)
	}
	return n, nil
}

// IsIndexDocument reports whether the cover text belongs to an index of gazettes.
func IsIndexDocument(coverText string) bool {
	return strings.Contains(coverText, IndexMarker)
}

// VolumeNumber parses "Vol. N" from the cover according to the publisher's policy.
func VolumeNumber(policy resolver.VolumePolicy, coverText string) (*int, error) {
	if policy == resolver.VolumeAbsent {
		return nil, nil
	}

	var volume *int
	if m := volumePattern.FindStringSubmatch(coverText); m != nil {
		v, err := strconv.Atoi(m[1])
		if err == nil {
			volume = &v
		}
	}
	if volume != nil {
		return volume, nil
	}

	switch policy {
	case resolver.VolumeOptional:
		return nil, nil
	case resolver.VolumeRequired:
		return nil, fmt.Errorf("%w: volume number not found on cover", gazette.ErrExtraction)
	case resolver.VolumeManualReview:
		return nil, fmt.Errorf("%w: volume number not found on cover", gazette.ErrNeedsManualReview)
	default:
		return nil, fmt.Errorf("%w: unknown volume policy %q", gazette.ErrExtraction, policy)
	}
}
