package store

import (
	"context"
	"database/sql"
	"fmt"
)

const runColumns = `id, seed, options, options_hash, status, error_code, error_message, ticks`

// ReadRun retrieves a run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns the most recent runs first. Run IDs are time-ordered,
// so ordering by ID is ordering by start. A limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id COLLATE BINARY DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadStages returns the stage events of a run in seq order.
func (s *Store) ReadStages(ctx context.Context, runID string) ([]StageEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, tick, stage, detail
		FROM stage_events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query stage events: %w", err)
	}
	defer rows.Close()

	events := []StageEvent{}
	for rows.Next() {
		var e StageEvent
		if err := rows.Scan(&e.RunID, &e.Seq, &e.Tick, &e.Stage, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan stage event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage events: %w", err)
	}
	return events, nil
}

// ReadObjects returns the object events of a run in seq order.
func (s *Store) ReadObjects(ctx context.Context, runID string) ([]ObjectEvent, error) {
	return s.readObjects(ctx, `WHERE run_id = ? ORDER BY seq ASC`, runID)
}

// ObjectHistory returns every event for an identifier across runs, oldest
// run first.
func (s *Store) ObjectHistory(ctx context.Context, identifier string) ([]ObjectEvent, error) {
	return s.readObjects(ctx, `WHERE identifier = ? ORDER BY run_id COLLATE BINARY ASC, seq ASC`, identifier)
}

func (s *Store) readObjects(ctx context.Context, where string, args ...any) ([]ObjectEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, tick, action, identifier, object_type, slot
		FROM object_events `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query object events: %w", err)
	}
	defer rows.Close()

	events := []ObjectEvent{}
	for rows.Next() {
		var e ObjectEvent
		if err := rows.Scan(&e.RunID, &e.Seq, &e.Tick, &e.Action, &e.Identifier, &e.ObjectType, &e.Slot); err != nil {
			return nil, fmt.Errorf("scan object event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate object events: %w", err)
	}
	return events, nil
}

// ObjectCounts returns how many loads and unloads a run performed.
func (s *Store) ObjectCounts(ctx context.Context, runID string) (loads, unloads int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN action = 'load' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN action = 'unload' THEN 1 ELSE 0 END), 0)
		FROM object_events
		WHERE run_id = ?
	`, runID).Scan(&loads, &unloads)
	if err != nil {
		return 0, 0, fmt.Errorf("count object events: %w", err)
	}
	return loads, unloads, nil
}

// ReadResult retrieves the final state of a run.
// Returns sql.ErrNoRows if the run never completed.
func (s *Store) ReadResult(ctx context.Context, runID string) (Result, error) {
	var r Result
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, loaded, invented, uninvented, digest
		FROM run_results
		WHERE run_id = ?
	`, runID).Scan(&r.RunID, &r.Loaded, &r.Invented, &r.Uninvented, &r.Digest)
	return r, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var seed int64
	if err := row.Scan(&r.ID, &seed, &r.Options, &r.OptionsHash, &r.Status, &r.ErrorCode, &r.Message, &r.Ticks); err != nil {
		if err == sql.ErrNoRows {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.Seed = uint64(seed)
	return r, nil
}
