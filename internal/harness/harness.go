package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/osr/internal/engine"
	"github.com/roach88/osr/internal/guard"
	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/rules"
	"github.com/roach88/osr/internal/store"
	"github.com/roach88/osr/internal/testutil"
)

// Harness runs scenarios.
type Harness struct {
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger routes run logs to logger. By default they are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: discardLogger()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Run executes a scenario with the default harness.
func Run(ctx context.Context, sc *Scenario) (*Result, error) {
	return New().Run(ctx, sc)
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a freshly built park and a fresh in-memory
// journal, with the scenario name as run ID, so the same scenario always
// produces the same result.
//
// The returned error covers scenarios that cannot be set up at all. A run
// that fails, or fails in an unexpected way, is reported in the Result.
func (h *Harness) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	m, err := sc.Host()
	if err != nil {
		return nil, fmt.Errorf("failed to build park: %w", err)
	}
	in, err := sc.input(m)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	eng := engine.New(
		engine.WithRecorder(st),
		engine.WithRunIDs(testutil.NewFixedRunIDGenerator(sc.Name)),
		engine.WithLogger(h.logger),
	)
	run, err := eng.Start(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	runErr := run.Finish(ctx)

	result := NewResult()
	result.RunID = run.ID()
	if res, ok := run.Result(); ok {
		result.Outcome = OutcomeCompleted
		result.Loaded = res.Loaded
		result.Digest = res.Digest
		result.Availability = res.Availability
	} else {
		result.Outcome = OutcomeFailed
		result.Code = string(guard.Code(runErr))
		result.Stage = run.Progress().Stage.String()
		if runErr != nil {
			result.Message = runErr.Error()
		}
	}

	if result.Stages, err = st.ReadStages(ctx, run.ID()); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	if result.Objects, err = st.ReadObjects(ctx, run.ID()); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	checkExpect(sc.Expect, result)
	actx := &AssertionContext{Ctx: ctx, Host: m, Store: st, RunID: run.ID()}
	for _, msg := range EvaluateAssertions(result, sc.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

func checkExpect(want Expect, res *Result) {
	outcome := want.Outcome
	if outcome == "" {
		outcome = OutcomeCompleted
	}
	if res.Outcome != outcome {
		msg := fmt.Sprintf("expected run to be %s, got %s", outcome, res.Outcome)
		if res.Message != "" {
			msg += ": " + res.Message
		}
		res.AddError(msg)
		return
	}
	if want.Code != "" && res.Code != want.Code {
		res.AddError(fmt.Sprintf("expected error code %s, got %s", want.Code, res.Code))
	}
	if want.Stage != "" && res.Stage != want.Stage {
		res.AddError(fmt.Sprintf("expected run to stop in %s, got %s", want.Stage, res.Stage))
	}
}

// input resolves the scenario's options and rules into engine input.
func (sc *Scenario) input(h host.Host) (engine.Input, error) {
	settings, opts, err := sc.File.Settings()
	if err != nil {
		return engine.Input{}, fmt.Errorf("invalid options: %w", err)
	}
	rs, err := sc.ruleSet()
	if err != nil {
		return engine.Input{}, err
	}
	return engine.Input{Host: h, Settings: settings, Options: opts, Rules: &rs}, nil
}

// ruleSet reads the scenario's rule data, or the standard rules.
func (sc *Scenario) ruleSet() (rules.RuleSet, error) {
	if sc.Rules == "" {
		return rules.Standard()
	}
	data, err := os.ReadFile(sc.resolve(sc.Rules))
	if err != nil {
		return rules.RuleSet{}, fmt.Errorf("failed to read rules: %w", err)
	}
	return rules.ParseRuleSet(data)
}
