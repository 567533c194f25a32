package harness

import (
	"github.com/roach88/osr/internal/research"
	"github.com/roach88/osr/internal/store"
)

// Result is the outcome of a scenario.
type Result struct {
	// Pass indicates overall test success: the run ended as expected and
	// every assertion held.
	Pass bool `json:"pass"`

	RunID string `json:"run_id"`

	// Outcome is OutcomeCompleted or OutcomeFailed.
	Outcome string `json:"outcome"`

	// Code, Stage and Message describe a failed run.
	Code    string `json:"code,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message,omitempty"`

	// Loaded, Digest and Availability describe a completed run.
	Loaded       []string                `json:"loaded,omitempty"`
	Digest       string                  `json:"digest,omitempty"`
	Availability research.Availabilities `json:"-"`

	// Stages and Objects are the run's journal.
	Stages  []store.StageEvent  `json:"-"`
	Objects []store.ObjectEvent `json:"-"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
