package research

import (
	"log/slog"

	"github.com/roach88/osr/internal/guard"
)

// Mode selects how a category's requirement is derived.
type Mode int

const (
	// MimicScenario keeps the scenario's own availability, strictly. A
	// category the scenario never offers stays unavailable.
	MimicScenario Mode = iota
	// MimicIfAvailable keeps the scenario's availability when it has one
	// and leaves the category unconstrained otherwise.
	MimicIfAvailable
	// AtStart makes the category available from the start.
	AtStart
	// Before makes the category available no later than Value.
	Before
	// Unconstrained leaves the category alone.
	Unconstrained
	// NeverAvailable removes the category entirely.
	NeverAvailable
)

// Requirement is the configured constraint of one category.
type Requirement struct {
	Mode  Mode
	Value int
}

// Resolve turns configured requirements into availabilities, reading the
// scenario baseline for the mimic modes.
func Resolve(reqs map[Category]Requirement, baseline Availabilities, logger *slog.Logger) Availabilities {
	if logger == nil {
		logger = slog.Default()
	}
	var out Availabilities
	for _, c := range Categories {
		req := reqs[c]
		switch req.Mode {
		case MimicScenario:
			out[c] = mimic(baseline[c])
		case MimicIfAvailable:
			if baseline[c].HasTime {
				out[c] = At(baseline[c].Time, true)
			}
		case AtStart:
			out[c] = At(-1, true)
		case Before:
			out[c] = At(req.Value, false)
		case Unconstrained:
		case NeverAvailable:
			out[c] = Never
		default:
			logger.Error("unhandled stall requirement mode, mimicking scenario",
				"channel", "stallresearch", "category", c.String(), "mode", int(req.Mode))
			out[c] = mimic(baseline[c])
		}
	}
	return out
}

func mimic(baseline Availability) Availability {
	if !baseline.HasTime {
		return Never
	}
	return At(baseline.Time, true)
}

// FixCollisions makes every strict non-negative requirement time unique by
// moving later categories one step later at a time. It returns the
// category claiming each strict time.
func FixCollisions(reqs *Availabilities) (map[int]Category, error) {
	quota := guard.NewQuota("strict requirement collision fix", guard.CollisionIterations)
	for {
		if err := quota.Check(); err != nil {
			return nil, guard.NewOrderingError(err.Error())
		}
		claimed, moved := collisionPass(reqs)
		if !moved {
			return claimed, nil
		}
	}
}

func collisionPass(reqs *Availabilities) (map[int]Category, bool) {
	claimed := make(map[int]Category)
	for _, c := range Categories {
		a := reqs[c]
		if !a.Strict || !a.HasTime || a.Time < 0 {
			continue
		}
		if _, taken := claimed[a.Time]; taken {
			reqs[c].Time++
			return nil, true
		}
		claimed[a.Time] = c
	}
	return claimed, false
}
