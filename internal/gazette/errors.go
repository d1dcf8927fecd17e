package gazette

import "errors"

// Per-document failure causes. All are fatal to the document only.
var (
	// ErrUnrecognizedSource means no classification rule covers the referrer or label.
	ErrUnrecognizedSource = errors.New("unrecognized source")
	// ErrExtraction means a required field could not be parsed.
	ErrExtraction = errors.New("extraction failed")
	// ErrNeedsManualReview marks a volume number that needs OCR or a human to read it.
	ErrNeedsManualReview = errors.New("needs manual review")
	// ErrDecryption means the external decrypt step failed.
	ErrDecryption = errors.New("decryption failed")
	// ErrUnknownCombination means an identity lookup table has no entry for the metadata.
	ErrUnknownCombination = errors.New("unknown combination")
)

// Infrastructure sentinels returned by stores.
var (
	// ErrNotFound is returned when a lookup has no matching record.
	ErrNotFound = errors.New("not found")
	// ErrObjectExists is returned when an archive path already holds different content.
	ErrObjectExists = errors.New("object already exists")
)

// FailureKind classifies why a document was not archived.
type FailureKind string

// Failure kinds recorded in logs, metrics and the failure ledger.
const (
	KindUnrecognizedSource FailureKind = "unrecognized_source"
	KindExtraction         FailureKind = "extraction"
	KindNeedsManualReview  FailureKind = "needs_manual_review"
	KindDecryption         FailureKind = "decryption"
	KindUnknownCombination FailureKind = "unknown_combination"
	KindDuplicateConflict  FailureKind = "duplicate_conflict"
	KindStorage            FailureKind = "storage"
)

// KindOf maps an error onto its failure kind. Errors outside the taxonomy are
// storage or I/O problems.
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, ErrNeedsManualReview):
		return KindNeedsManualReview
	case errors.Is(err, ErrUnrecognizedSource):
		return KindUnrecognizedSource
	case errors.Is(err, ErrDecryption):
		return KindDecryption
	case errors.Is(err, ErrUnknownCombination):
		return KindUnknownCombination
	case errors.Is(err, ErrExtraction):
		return KindExtraction
	default:
		return KindStorage
	}
}
