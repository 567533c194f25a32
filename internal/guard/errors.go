// Package guard holds the run-wide error taxonomy and the termination
// guards (iteration quotas and repeated-state detection) used by the
// allocator and the research solver.
package guard

import (
	"errors"
	"fmt"
)

// RuntimeError is a fatal error raised while a randomiser run is in flight.
//
// Only load failures and exhausted iteration budgets are fatal. Everything
// else (unclassifiable objects, unsatisfiable requirements) is logged and
// degraded locally and never becomes a RuntimeError.
type RuntimeError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description shown to the user.
	Message string

	// Stage names the orchestrator stage that failed, when known.
	Stage string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes runtime errors.
type ErrorCode string

const (
	// ErrCodeLoadFailed indicates the host rejected an object load, or
	// reported a load that did not read back.
	ErrCodeLoadFailed ErrorCode = "LOAD_FAILED"

	// ErrCodeAllocationExhausted indicates slot allocation revisited an
	// index it had already tried.
	ErrCodeAllocationExhausted ErrorCode = "ALLOCATION_EXHAUSTED"

	// ErrCodeResearchOrdering indicates the research solver ran out of
	// iterations or kept returning to the same queue state.
	ErrCodeResearchOrdering ErrorCode = "RESEARCH_ORDERING"

	// ErrCodeAlreadyRunning indicates a second run was started while one
	// was still active.
	ErrCodeAlreadyRunning ErrorCode = "ALREADY_RUNNING"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s (stage=%s)", e.Code, e.Message, e.Stage)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithStage returns a copy of the error tagged with a stage name.
func (e *RuntimeError) WithStage(stage string) *RuntimeError {
	out := *e
	out.Stage = stage
	return &out
}

// ErrAlreadyRunning is returned when a run is started while another run is
// active.
var ErrAlreadyRunning = &RuntimeError{
	Code:    ErrCodeAlreadyRunning,
	Message: "a randomiser run is already in progress",
}

// NewLoadError creates a RuntimeError for a rejected object load.
func NewLoadError(identifier string, index int, reason string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeLoadFailed,
		Message: fmt.Sprintf("failed to load %s: %s", identifier, reason),
		Details: map[string]string{
			"identifier": identifier,
			"index":      fmt.Sprintf("%d", index),
		},
	}
}

// NewExhaustedError creates a RuntimeError for allocation exhaustion.
func NewExhaustedError(identifier string, index int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeAllocationExhausted,
		Message: fmt.Sprintf("slot allocation for %s returned to index %d", identifier, index),
		Details: map[string]string{
			"identifier": identifier,
			"index":      fmt.Sprintf("%d", index),
		},
	}
}

// NewOrderingError creates a RuntimeError for research solver failure.
func NewOrderingError(message string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeResearchOrdering,
		Message: message,
	}
}

// IsFatal reports whether err should halt the orchestrator.
// Quota overruns count as fatal.
func IsFatal(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return true
	}
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}

// IsLoadError returns true if the error is a load failure.
func IsLoadError(err error) bool {
	return hasCode(err, ErrCodeLoadFailed)
}

// IsExhausted returns true if the error is allocation exhaustion, research
// ordering failure, or an exceeded quota.
func IsExhausted(err error) bool {
	if hasCode(err, ErrCodeAllocationExhausted) || hasCode(err, ErrCodeResearchOrdering) {
		return true
	}
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}

// IsAlreadyRunning returns true if the error rejects a concurrent run.
func IsAlreadyRunning(err error) bool {
	return hasCode(err, ErrCodeAlreadyRunning)
}

// Code extracts the error code, or "" for non-runtime errors.
func Code(err error) ErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	var qe *QuotaExceededError
	if errors.As(err, &qe) {
		return ErrCodeResearchOrdering
	}
	return ""
}

func hasCode(err error, code ErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
