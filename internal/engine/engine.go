package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/osr/internal/guard"
	"github.com/roach88/osr/internal/objects"
	"github.com/roach88/osr/internal/store"
)

// Engine starts randomiser runs, one at a time.
//
// Thread-safety model:
//   - Start and Active: safe from any goroutine
//   - Run.Step, Run.Drive, Run.Finish: one goroutine per run
type Engine struct {
	mu       sync.Mutex
	active   *Run
	ids      RunIDGenerator
	recorder Recorder
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder journals every run to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithRunIDs replaces the UUIDv7 run ID generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithLogger sets the logger runs derive theirs from.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins a run. Nothing happens to the host until the first Step.
//
// Returns guard.ErrAlreadyRunning while an earlier run has neither
// completed nor failed.
func (e *Engine) Start(ctx context.Context, in Input) (*Run, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		e.logger.Warn("randomiser already running", "run_id", e.active.id)
		return nil, guard.ErrAlreadyRunning
	}

	id := e.ids.Generate()
	logger := e.logger.With("run_id", id)
	sess, err := newSession(in, logger)
	if err != nil {
		return nil, err
	}
	r := &Run{
		id:       id,
		engine:   e,
		session:  sess,
		recorder: e.recorder,
		logger:   logger,
		ticks:    NewClock(),
		seq:      NewClock(),
	}
	if err := r.begin(ctx, in); err != nil {
		return nil, err
	}
	e.active = r
	logger.Info("beginning randomisation", "seed", in.Settings.Seed)
	return r, nil
}

// Active returns the run in progress, or nil.
func (e *Engine) Active() *Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func (e *Engine) release(r *Run) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == r {
		e.active = nil
	}
}

// Run is one randomisation in flight. Each Step does a bounded amount of
// work, so a host can call it once per simulation tick without stalling.
type Run struct {
	id       string
	engine   *Engine
	session  *Session
	recorder Recorder
	logger   *slog.Logger
	ticks    *Clock
	seq      *Clock

	stage    Stage
	err      error
	result   *Result
	finished bool
}

// Progress is a snapshot of where a run is.
type Progress struct {
	Stage  Stage
	Index  int
	Total  int
	Tick   int64
	Detail string
	Failed bool
}

// ID returns the run ID.
func (r *Run) ID() string {
	return r.id
}

// Err returns the error that stopped the run, or nil.
func (r *Run) Err() error {
	return r.err
}

// Result returns the outcome of a completed run.
func (r *Run) Result() (Result, bool) {
	if r.result == nil {
		return Result{}, false
	}
	return *r.result, true
}

// Progress reports the current stage and what it last said about itself.
func (r *Run) Progress() Progress {
	return Progress{
		Stage:  r.stage,
		Index:  int(r.stage),
		Total:  len(Stages),
		Tick:   r.ticks.Current(),
		Detail: r.session.detail,
		Failed: r.err != nil,
	}
}

// Step runs the current stage for one tick.
//
// A run that has failed keeps returning Fatal without touching the host;
// a completed run keeps returning Done.
func (r *Run) Step(ctx context.Context) StepResult {
	if r.err != nil {
		return Fatal
	}
	if r.finished {
		return Done
	}

	tick := r.ticks.Next()
	stage := r.stage
	done, err := stageFuncs[stage](r.session)
	r.journalObjects(ctx, tick)
	if err != nil {
		r.fail(ctx, stage, err)
		return Fatal
	}
	if !done {
		return Continue
	}

	r.journal(ctx, "stage", func(ctx context.Context) error {
		return r.recorder.AppendStage(ctx, store.StageEvent{
			RunID:  r.id,
			Seq:    r.seq.Next(),
			Tick:   tick,
			Stage:  stage.String(),
			Detail: r.session.detail,
		})
	})
	if stage == StageComplete {
		if err := r.complete(ctx); err != nil {
			r.fail(ctx, stage, err)
			return Fatal
		}
		return Done
	}

	r.stage++
	r.session.detail = ""
	r.logger.Info("advance randomiser stage", "stage", r.stage.String(), "index", int(r.stage))
	return Continue
}

// Drive steps the run once for every value received on ticks until the
// run ends or ctx is cancelled. Cancelling fails the run with ctx's error.
//
// A production host passes a time.Ticker's channel.
func (r *Run) Drive(ctx context.Context, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			r.abort(ctx, ctx.Err())
			return ctx.Err()
		case <-ticks:
			switch r.Step(ctx) {
			case Done:
				return nil
			case Fatal:
				return r.err
			}
		}
	}
}

// Finish steps the run back to back until it ends.
func (r *Run) Finish(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			r.abort(ctx, err)
			return err
		}
		switch r.Step(ctx) {
		case Done:
			return nil
		case Fatal:
			return r.err
		}
	}
}

func (r *Run) begin(ctx context.Context, in Input) error {
	if r.recorder == nil {
		return nil
	}
	value := map[string]any{}
	if in.Options != nil {
		value = in.Options.Value()
	}
	data, err := objects.MarshalCanonical(value)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	hash, err := objects.Digest(objects.DomainOptions, value)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	err = r.recorder.BeginRun(ctx, store.Run{
		ID:          r.id,
		Seed:        in.Settings.Seed,
		Options:     string(data),
		OptionsHash: hash,
		Status:      store.StatusRunning,
	})
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

func (r *Run) complete(ctx context.Context) error {
	res, err := r.session.result()
	if err != nil {
		return err
	}
	r.result = &res
	r.finished = true

	r.journal(ctx, "result", func(ctx context.Context) error {
		loaded, err := objects.MarshalCanonical(res.value()["loaded"])
		if err != nil {
			return err
		}
		invented, err := objects.MarshalCanonical(objects.ResearchItemsValue(res.Invented))
		if err != nil {
			return err
		}
		uninvented, err := objects.MarshalCanonical(objects.ResearchItemsValue(res.Uninvented))
		if err != nil {
			return err
		}
		return r.recorder.WriteResult(ctx, store.Result{
			RunID:      r.id,
			Loaded:     string(loaded),
			Invented:   string(invented),
			Uninvented: string(uninvented),
			Digest:     res.Digest,
		})
	})
	r.journal(ctx, "finish", func(ctx context.Context) error {
		return r.recorder.FinishRun(ctx, r.id, store.StatusCompleted, "", "", r.ticks.Current())
	})
	r.engine.release(r)
	r.logger.Info("randomisation complete", "ticks", r.ticks.Current(), "loaded", len(res.Loaded), "digest", res.Digest)
	return nil
}

// fail stops the run. Work already done to the host stays done.
func (r *Run) fail(ctx context.Context, stage Stage, err error) {
	var re *guard.RuntimeError
	if errors.As(err, &re) {
		err = re.WithStage(stage.String())
	} else {
		err = fmt.Errorf("stage %s: %w", stage, err)
	}
	r.err = err
	r.logger.Error("randomisation failed", "stage", stage.String(), "code", string(guard.Code(err)), "error", err)
	r.journal(ctx, "finish", func(ctx context.Context) error {
		return r.recorder.FinishRun(ctx, r.id, store.StatusFailed, string(guard.Code(err)), err.Error(), r.ticks.Current())
	})
	r.engine.release(r)
}

func (r *Run) abort(ctx context.Context, cause error) {
	if r.err != nil || r.finished {
		return
	}
	r.fail(context.WithoutCancel(ctx), r.stage, cause)
}

func (r *Run) journalObjects(ctx context.Context, tick int64) {
	changes := r.session.objects.drain()
	if len(changes) == 0 {
		return
	}
	r.journal(ctx, "objects", func(ctx context.Context) error {
		for _, c := range changes {
			err := r.recorder.AppendObject(ctx, store.ObjectEvent{
				RunID:      r.id,
				Seq:        r.seq.Next(),
				Tick:       tick,
				Action:     c.action,
				Identifier: c.identifier,
				ObjectType: c.objectType.String(),
				Slot:       c.slot,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// journal writes to the recorder, if any. A journal that cannot be written
// is logged and otherwise ignored; the park is the source of truth.
func (r *Run) journal(ctx context.Context, what string, write func(context.Context) error) {
	if r.recorder == nil {
		return
	}
	if err := write(ctx); err != nil {
		r.logger.Warn("failed to write run journal", "entry", what, "error", err)
	}
}
