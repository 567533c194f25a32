package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
	"github.com/roach88/osr/internal/research"
	"github.com/roach88/osr/internal/store"
)

func assertionPark(t *testing.T) *AssertionContext {
	t.Helper()
	m := host.NewMemory(1, 1)
	m.Install(objects.InstalledObject{Identifier: "coaster.a", Type: objects.TypeRide}, host.RideTraits{Category: "rollercoaster"})
	m.Install(objects.InstalledObject{Identifier: "coaster.b", Type: objects.TypeRide}, host.RideTraits{Category: "rollercoaster"})
	m.Install(objects.InstalledObject{Identifier: "pkent1", Type: objects.TypeParkEntrance}, host.RideTraits{})
	require.NoError(t, m.Place("coaster.a", 0))
	require.NoError(t, m.Place("pkent1", 0))
	m.SetInvented([]objects.ResearchItem{{Object: 0, Category: "rollercoaster"}})
	return &AssertionContext{Ctx: context.Background(), Host: m}
}

func completedResult() *Result {
	res := NewResult()
	res.Outcome = OutcomeCompleted
	res.Availability[research.FoodStall] = research.At(2, false)
	return res
}

func TestEvaluate_Loaded(t *testing.T) {
	actx := assertionPark(t)

	err := evaluate(completedResult(), Assertion{Type: AssertLoaded, Identifiers: []string{"coaster.a", "pkent1"}}, actx)
	assert.NoError(t, err)

	err = evaluate(completedResult(), Assertion{Type: AssertLoaded, Identifiers: []string{"coaster.b"}}, actx)
	require.Error(t, err)
	var ae *AssertionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, AssertLoaded, ae.Type)
	assert.Equal(t, "coaster.b loaded", ae.Expected)
	assert.Equal(t, "not loaded", ae.Actual)
	assert.Equal(t, []string{"coaster.a", "pkent1"}, ae.Loaded)
	assert.Contains(t, err.Error(), "Loaded objects:\n  coaster.a\n  pkent1\n")
}

func TestEvaluate_NotLoaded(t *testing.T) {
	actx := assertionPark(t)

	assert.NoError(t, evaluate(completedResult(), Assertion{Type: AssertNotLoaded, Identifiers: []string{"coaster.b"}}, actx))
	assert.Error(t, evaluate(completedResult(), Assertion{Type: AssertNotLoaded, Identifiers: []string{"coaster.b", "coaster.a"}}, actx))
}

func TestEvaluate_LoadedCount(t *testing.T) {
	actx := assertionPark(t)

	assert.NoError(t, evaluate(completedResult(), Assertion{Type: AssertLoadedCount, ObjectType: "ride", Count: 1}, actx))
	assert.NoError(t, evaluate(completedResult(), Assertion{Type: AssertLoadedCount, ObjectType: "footpath_surface", Count: 0}, actx))

	err := evaluate(completedResult(), Assertion{Type: AssertLoadedCount, ObjectType: "park_entrance", Count: 2}, actx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Actual: 1")
}

func TestEvaluate_StallAvailability(t *testing.T) {
	actx := assertionPark(t)
	res := completedResult()

	assert.NoError(t, evaluate(res, Assertion{Type: AssertStallAvailability, Category: "foodstall", Available: true, Time: 2}, actx))
	assert.NoError(t, evaluate(res, Assertion{Type: AssertStallAvailability, Category: "drinkstall"}, actx))

	err := evaluate(res, Assertion{Type: AssertStallAvailability, Category: "foodstall", Available: true, Time: 0}, actx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "foodstall available at 0")
	assert.Contains(t, err.Error(), "Actual: 2")

	err = evaluate(res, Assertion{Type: AssertStallAvailability, Category: "foodstall"}, actx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available at none")
}

func TestEvaluate_StallAvailabilityNeedsCompletedRun(t *testing.T) {
	res := NewResult()
	res.Outcome = OutcomeFailed

	err := evaluate(res, Assertion{Type: AssertStallAvailability, Category: "drinkstall"}, assertionPark(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a completed run")
}

func TestEvaluate_ResearchCount(t *testing.T) {
	actx := assertionPark(t)

	assert.NoError(t, evaluate(completedResult(), Assertion{Type: AssertResearchCount, List: "invented", Count: 1}, actx))
	assert.NoError(t, evaluate(completedResult(), Assertion{Type: AssertResearchCount, List: "uninvented", Count: 0}, actx))
	assert.Error(t, evaluate(completedResult(), Assertion{Type: AssertResearchCount, List: "invented", Count: 0}, actx))
}

func TestEvaluate_JournalCount(t *testing.T) {
	st, err := store.Open(t.TempDir() + "/journal.db")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	require.NoError(t, st.BeginRun(ctx, store.Run{ID: "r1", Options: "{}", OptionsHash: "h", Status: store.StatusRunning}))
	require.NoError(t, st.AppendObject(ctx, store.ObjectEvent{RunID: "r1", Seq: 1, Tick: 1, Action: store.ActionLoad, Identifier: "coaster.b", ObjectType: "ride", Slot: 1}))
	require.NoError(t, st.AppendObject(ctx, store.ObjectEvent{RunID: "r1", Seq: 2, Tick: 2, Action: store.ActionUnload, Identifier: "coaster.b", ObjectType: "ride", Slot: 1}))
	require.NoError(t, st.AppendObject(ctx, store.ObjectEvent{RunID: "r1", Seq: 3, Tick: 2, Action: store.ActionLoad, Identifier: "coaster.a", ObjectType: "ride", Slot: 1}))

	actx := assertionPark(t)
	actx.Store = st
	actx.RunID = "r1"

	assert.NoError(t, evaluate(completedResult(), Assertion{Type: AssertJournalCount, Action: store.ActionLoad, Count: 2}, actx))
	assert.NoError(t, evaluate(completedResult(), Assertion{Type: AssertJournalCount, Action: store.ActionUnload, Count: 1}, actx))
	assert.Error(t, evaluate(completedResult(), Assertion{Type: AssertJournalCount, Action: store.ActionUnload, Count: 0}, actx))
}

func TestEvaluateAssertions_CollectsEveryFailure(t *testing.T) {
	actx := assertionPark(t)

	failed := EvaluateAssertions(completedResult(), []Assertion{
		{Type: AssertLoaded, Identifiers: []string{"coaster.a"}},
		{Type: AssertLoaded, Identifiers: []string{"coaster.b"}},
		{Type: AssertResearchCount, List: "invented", Count: 5},
	}, actx)

	require.Len(t, failed, 2)
	assert.Contains(t, failed[0], "assertions[1]:")
	assert.Contains(t, failed[1], "assertions[2]:")
}
