package testutil

import "sync"

// ScriptedRandom returns predetermined values from Intn.
//
// Each call consumes the next scripted value and clamps it into [lo, hi).
// Once the script is exhausted every call returns lo, which keeps shuffles
// and draws deterministic in tests that do not care about them.
//
// Thread-safety: ScriptedRandom is safe for concurrent use via internal mutex.
type ScriptedRandom struct {
	mu     sync.Mutex
	values []int
	calls  int
}

// NewScriptedRandom creates a random source that returns values in order.
func NewScriptedRandom(values ...int) *ScriptedRandom {
	return &ScriptedRandom{values: values}
}

// Intn implements host.Random.
func (r *ScriptedRandom) Intn(lo, hi int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls++
	if hi <= lo || len(r.values) == 0 {
		return lo
	}
	v := r.values[0]
	r.values = r.values[1:]
	if v < lo {
		return lo
	}
	if v >= hi {
		return hi - 1
	}
	return v
}

// Push appends values to the script.
func (r *ScriptedRandom) Push(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, values...)
}

// Calls returns how many times Intn was called.
func (r *ScriptedRandom) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Remaining returns how many scripted values are left.
func (r *ScriptedRandom) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}
