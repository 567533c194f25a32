package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
	"github.com/roach88/osr/internal/research"
	"github.com/roach88/osr/internal/store"
)

// Assertion types.
const (
	AssertLoaded            = "loaded"
	AssertNotLoaded         = "not_loaded"
	AssertLoadedCount       = "loaded_count"
	AssertStallAvailability = "stall_availability"
	AssertResearchCount     = "research_count"
	AssertJournalCount      = "journal_count"
)

// Assertion validates the park or the journal after a run.
type Assertion struct {
	// Type is one of the Assert constants:
	//   - loaded: every identifier is loaded
	//   - not_loaded: no identifier is loaded
	//   - loaded_count: object_type has exactly count occupied slots
	//   - stall_availability: category becomes available at time, or
	//     never when available is false
	//   - research_count: list (invented or uninvented) has count entries
	//   - journal_count: the journal holds count events of action
	Type string `yaml:"type"`

	Identifiers []string `yaml:"identifiers,omitempty"`
	ObjectType  string   `yaml:"object_type,omitempty"`
	Count       int      `yaml:"count,omitempty"`
	Category    string   `yaml:"category,omitempty"`
	Available   bool     `yaml:"available,omitempty"`
	Time        int      `yaml:"time,omitempty"`
	List        string   `yaml:"list,omitempty"`
	Action      string   `yaml:"action,omitempty"`
}

// AssertionContext is what assertions inspect.
type AssertionContext struct {
	Ctx   context.Context
	Host  *host.Memory
	Store *store.Store
	RunID string
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Loaded   []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "\nLoaded objects:\n")
	for _, id := range e.Loaded {
		fmt.Fprintf(&buf, "  %s\n", id)
	}
	return buf.String()
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertLoaded, AssertNotLoaded:
		if len(a.Identifiers) == 0 {
			return fmt.Errorf("assertions[%d]: identifiers are required for %s", index, a.Type)
		}
	case AssertLoadedCount:
		if _, err := objects.ParseObjectType(a.ObjectType); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertStallAvailability:
		if _, err := research.ParseCategory(a.Category); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertResearchCount:
		if a.List != "invented" && a.List != "uninvented" {
			return fmt.Errorf("assertions[%d]: list must be invented or uninvented", index)
		}
	case AssertJournalCount:
		if a.Action != store.ActionLoad && a.Action != store.ActionUnload {
			return fmt.Errorf("assertions[%d]: action must be %s or %s", index, store.ActionLoad, store.ActionUnload)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}
	return nil
}

// EvaluateAssertions checks every assertion and returns the messages of
// those that failed.
func EvaluateAssertions(res *Result, assertions []Assertion, actx *AssertionContext) []string {
	var failed []string
	for i, a := range assertions {
		if err := evaluate(res, a, actx); err != nil {
			failed = append(failed, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failed
}

func evaluate(res *Result, a Assertion, actx *AssertionContext) error {
	loaded := actx.Host.LoadedIdentifiers()
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Loaded: loaded}
	}

	switch a.Type {
	case AssertLoaded:
		for _, id := range a.Identifiers {
			if !slices.Contains(loaded, id) {
				return fail(fmt.Sprintf("%s loaded", id), "not loaded")
			}
		}
	case AssertNotLoaded:
		for _, id := range a.Identifiers {
			if slices.Contains(loaded, id) {
				return fail(fmt.Sprintf("%s not loaded", id), "loaded")
			}
		}
	case AssertLoadedCount:
		t, err := objects.ParseObjectType(a.ObjectType)
		if err != nil {
			return err
		}
		if n := len(actx.Host.Loaded(t)); n != a.Count {
			return fail(fmt.Sprintf("%d %s objects loaded", a.Count, t), fmt.Sprintf("%d", n))
		}
	case AssertStallAvailability:
		if res.Outcome != OutcomeCompleted {
			return fail("a completed run", res.Outcome)
		}
		c, err := research.ParseCategory(a.Category)
		if err != nil {
			return err
		}
		want := research.Availability{}
		if a.Available {
			want = research.At(a.Time, false)
		}
		if got := res.Availability[c]; got != want {
			return fail(fmt.Sprintf("%s available at %s", c, want), got.String())
		}
	case AssertResearchCount:
		items := actx.Host.Invented()
		if a.List == "uninvented" {
			items = actx.Host.Uninvented()
		}
		if len(items) != a.Count {
			return fail(fmt.Sprintf("%d %s entries", a.Count, a.List), fmt.Sprintf("%d", len(items)))
		}
	case AssertJournalCount:
		loads, unloads, err := actx.Store.ObjectCounts(actx.Ctx, actx.RunID)
		if err != nil {
			return fmt.Errorf("journal_count: %w", err)
		}
		n := loads
		if a.Action == store.ActionUnload {
			n = unloads
		}
		if n != a.Count {
			return fail(fmt.Sprintf("%d %s events", a.Count, a.Action), fmt.Sprintf("%d", n))
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
