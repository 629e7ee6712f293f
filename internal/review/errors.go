package review

import (
	"errors"
	"fmt"
)

// ErrEmptyDiff is returned when there is nothing to analyze.
var ErrEmptyDiff = errors.New("diff content is empty")

// AnalysisError reports a failed retrieval-augmented analysis. It aborts the
// pipeline run.
type AnalysisError struct {
	Mode Mode
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s analysis failed: %v", e.Mode, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// ParseError reports model output that did not meet the response contract.
// It is recoverable: the caller receives a fallback result alongside it.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
