package guard

import (
	"errors"
	"fmt"
)

// Iteration budgets for the bounded loops of a run.
const (
	// SolverIterations bounds outer research-solver passes.
	SolverIterations = 500
	// CollisionIterations bounds strict-requirement collision fixing.
	CollisionIterations = 250
	// EvictionIterations bounds moving invented stalls back to uninvented.
	EvictionIterations = 200
	// PickAttempts bounds source-preference filtered draws.
	PickAttempts = 2000
)

// Quota counts iterations of one bounded loop and fails once the limit is
// passed.
//
// A Quota is not safe for concurrent use. Each loop owns its own.
type Quota struct {
	name  string
	limit int
	used  int
}

// NewQuota creates a quota named for error messages.
func NewQuota(name string, limit int) *Quota {
	return &Quota{name: name, limit: limit}
}

// Check consumes one iteration.
//
// Returns QuotaExceededError once more than limit iterations were consumed.
func (q *Quota) Check() error {
	q.used++
	if q.used > q.limit {
		return &QuotaExceededError{Name: q.name, Used: q.used, Limit: q.limit}
	}
	return nil
}

// Reset sets the counter back to zero.
func (q *Quota) Reset() {
	q.used = 0
}

// Used returns how many iterations were consumed.
func (q *Quota) Used() int {
	return q.used
}

// Limit returns the configured limit.
func (q *Quota) Limit() int {
	return q.limit
}

// QuotaExceededError is returned when a bounded loop runs out of budget.
type QuotaExceededError struct {
	Name  string
	Used  int
	Limit int
}

// Error implements the error interface.
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s exceeded its iteration budget: %d > %d", e.Name, e.Used, e.Limit)
}

// IsQuotaExceeded returns true if the error is a QuotaExceededError.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}
