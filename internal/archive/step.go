package archive

import "errors"

// Status is the terminal state of one document in a run.
type Status string

// Document outcomes.
const (
	StatusArchived          Status = "archived"
	StatusDuplicateKnown    Status = "duplicate_known"
	StatusDuplicateConflict Status = "duplicate_conflict"
	StatusSkippedIndex      Status = "skipped_index"
	StatusFailed            Status = "failed"
)

// Stage names the pipeline step a document was in when it stopped.
type Stage string

// Pipeline stages in execution order.
const (
	StageFetch    Stage = "fetch"
	StageClassify Stage = "classify"
	StageExtract  Stage = "extract"
	StageIdentify Stage = "identify"
	StagePersist  Stage = "persist"
)

var errStageFailed = errors.New("stage failed")

type stepKind int

const (
	stepContinue stepKind = iota
	stepSkip
	stepFail
)

// Step is the tagged result of one stage.
type Step struct {
	kind   stepKind
	status Status
	err    error
}

// Continue moves the document to the next stage.
func Continue() Step {
	return Step{kind: stepContinue}
}

// Skip ends processing with a non-error status.
func Skip(status Status) Step {
	return Step{kind: stepSkip, status: status}
}

// Fail ends processing with err.
func Fail(err error) Step {
	return Step{kind: stepFail, err: err}
}

// Continues reports whether the document proceeds to the next stage.
func (s Step) Continues() bool {
	return s.kind == stepContinue
}

// Err returns the failure cause, or nil unless the step failed.
func (s Step) Err() error {
	if s.kind == stepFail && s.err == nil {
		return errStageFailed
	}
	return s.err
}
