package store

import (
	"context"
	"fmt"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Object event actions.
const (
	ActionLoad   = "load"
	ActionUnload = "unload"
)

// Run is one randomiser run.
type Run struct {
	ID          string
	Seed        uint64
	Options     string // canonical JSON of the option table
	OptionsHash string
	Status      string
	ErrorCode   string
	Message     string
	Ticks       int64
}

// StageEvent records a stage finishing, with a one-line summary.
type StageEvent struct {
	RunID  string
	Seq    int64
	Tick   int64
	Stage  string
	Detail string
}

// ObjectEvent records one host load or unload.
type ObjectEvent struct {
	RunID      string
	Seq        int64
	Tick       int64
	Action     string
	Identifier string
	ObjectType string
	Slot       int
}

// Result is the state a run left the park in.
type Result struct {
	RunID      string
	Loaded     string // canonical JSON array of identifiers
	Invented   string // canonical JSON array of research entries
	Uninvented string
	Digest     string
}

// BeginRun inserts a run in the running state.
// Uses ON CONFLICT(id) DO NOTHING, so beginning a run twice is harmless.
func (s *Store) BeginRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, seed, options, options_hash, status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, r.ID, int64(r.Seed), r.Options, r.OptionsHash, StatusRunning)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// AppendStage records a stage event. The run must exist.
func (s *Store) AppendStage(ctx context.Context, e StageEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stage_events (run_id, seq, tick, stage, detail)
		VALUES (?, ?, ?, ?, ?)
	`, e.RunID, e.Seq, e.Tick, e.Stage, e.Detail)
	if err != nil {
		return fmt.Errorf("append stage event: %w", err)
	}
	return nil
}

// AppendObject records an object event. The run must exist.
func (s *Store) AppendObject(ctx context.Context, e ObjectEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO object_events (run_id, seq, tick, action, identifier, object_type, slot)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, e.Seq, e.Tick, e.Action, e.Identifier, e.ObjectType, e.Slot)
	if err != nil {
		return fmt.Errorf("append object event: %w", err)
	}
	return nil
}

// FinishRun sets the outcome of a run.
func (s *Store) FinishRun(ctx context.Context, id, status, code, message string, ticks int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?, error_code = ?, error_message = ?, ticks = ?
		WHERE id = ?
	`, status, code, message, ticks, id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: unknown run %s", id)
	}
	return nil
}

// WriteResult stores the final state of a run, replacing any earlier one.
func (s *Store) WriteResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_results (run_id, loaded, invented, uninvented, digest)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			loaded = excluded.loaded,
			invented = excluded.invented,
			uninvented = excluded.uninvented,
			digest = excluded.digest
	`, r.RunID, r.Loaded, r.Invented, r.Uninvented, r.Digest)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
