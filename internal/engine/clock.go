package engine

import "sync/atomic"

// Clock is a monotonic logical counter.
//
// A Run keeps two: one numbers the scheduler ticks it has consumed, the
// other numbers journal events. Journal entries never carry wall-clock
// time, so two runs of the same park with the same seed write identical
// journals apart from the run ID.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations),
// although a Run only advances it from the goroutine calling Step.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose first Next returns start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current value without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
