package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginRun_ReadBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := Run{ID: "0190-a", Seed: 1 << 63, Options: `{"RandomiseParkEntrance":true}`, OptionsHash: "abc"}
	require.NoError(t, s.BeginRun(ctx, run))
	require.NoError(t, s.BeginRun(ctx, run), "second begin is ignored")

	got, err := s.ReadRun(ctx, "0190-a")
	require.NoError(t, err)
	run.Status = StatusRunning
	assert.Equal(t, run, got, "seed survives the signed column")

	_, err = s.ReadRun(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFinishRun(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	beginTestRun(t, s, "run-1")

	require.NoError(t, s.FinishRun(ctx, "run-1", StatusFailed, "LOAD_FAILED", "failed to load x", 42))
	got, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "LOAD_FAILED", got.ErrorCode)
	assert.Equal(t, "failed to load x", got.Message)
	assert.Equal(t, int64(42), got.Ticks)

	assert.Error(t, s.FinishRun(ctx, "missing", StatusCompleted, "", "", 1))
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"0190-b", "0190-a", "0190-c"} {
		beginTestRun(t, s, id)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "0190-c", runs[0].ID)
	assert.Equal(t, "0190-b", runs[1].ID)

	all, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListRuns_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)
	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestStageEvents_Ordered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	beginTestRun(t, s, "run-1")

	require.NoError(t, s.AppendStage(ctx, StageEvent{RunID: "run-1", Seq: 2, Tick: 1, Stage: "build-associations"}))
	require.NoError(t, s.AppendStage(ctx, StageEvent{RunID: "run-1", Seq: 1, Tick: 0, Stage: "list-objects", Detail: "12 objects"}))
	assert.Error(t, s.AppendStage(ctx, StageEvent{RunID: "run-1", Seq: 1, Stage: "dup"}), "seq is unique per run")

	events, err := s.ReadStages(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "list-objects", events[0].Stage)
	assert.Equal(t, "12 objects", events[0].Detail)
	assert.Equal(t, "build-associations", events[1].Stage)
}

func TestObjectEvents_CountsAndHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	beginTestRun(t, s, "run-1")
	beginTestRun(t, s, "run-2")

	events := []ObjectEvent{
		{RunID: "run-1", Seq: 1, Tick: 3, Action: ActionLoad, Identifier: "rct2.ride.a", ObjectType: "ride", Slot: 4},
		{RunID: "run-1", Seq: 2, Tick: 3, Action: ActionUnload, Identifier: "rct2.ride.b", ObjectType: "ride", Slot: 5},
		{RunID: "run-1", Seq: 3, Tick: 4, Action: ActionLoad, Identifier: "rct2.ride.c", ObjectType: "ride", Slot: 5},
		{RunID: "run-2", Seq: 1, Tick: 2, Action: ActionUnload, Identifier: "rct2.ride.a", ObjectType: "ride", Slot: 4},
	}
	for _, e := range events {
		require.NoError(t, s.AppendObject(ctx, e))
	}

	got, err := s.ReadObjects(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, events[:3], got)

	loads, unloads, err := s.ObjectCounts(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
	assert.Equal(t, 1, unloads)

	loads, unloads, err = s.ObjectCounts(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, loads)
	assert.Zero(t, unloads)

	history, err := s.ObjectHistory(ctx, "rct2.ride.a")
	require.NoError(t, err)
	assert.Equal(t, []ObjectEvent{events[0], events[3]}, history)
}

func TestWriteResult_Replaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	beginTestRun(t, s, "run-1")

	_, err := s.ReadResult(ctx, "run-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, s.WriteResult(ctx, Result{RunID: "run-1", Loaded: `["a"]`, Invented: "[]", Uninvented: "[]", Digest: "d1"}))
	require.NoError(t, s.WriteResult(ctx, Result{RunID: "run-1", Loaded: `["a","b"]`, Invented: "[]", Uninvented: "[]", Digest: "d2"}))

	got, err := s.ReadResult(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, got.Loaded)
	assert.Equal(t, "d2", got.Digest)
}
