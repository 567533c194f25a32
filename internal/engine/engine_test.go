package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/osr/internal/config"
	"github.com/roach88/osr/internal/guard"
	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
	"github.com/roach88/osr/internal/quantity"
	"github.com/roach88/osr/internal/research"
	"github.com/roach88/osr/internal/rules"
	"github.com/roach88/osr/internal/store"
)

const (
	tarmac   = "rct2.footpath_surface.tarmac"
	queue    = "rct2.footpath_surface.queue_blue"
	railings = "rct2.footpath_railings.wood"
	bench    = "rct2.footpath_addition.bench1"
	lamp     = "rct2.footpath_addition.lamp1"
	entrance = "rct2.park_entrance.pkent1"
)

var rideTraits = map[string]host.RideTraits{
	"coaster.a": {Category: "rollercoaster", RideType: 51},
	"coaster.b": {Category: "rollercoaster", RideType: 51},
	"gentle.a":  {Category: "gentle", RideType: 2},
	"gentle.b":  {Category: "gentle", RideType: 2},
	"burger.a":  {Category: objects.CategoryShop, RideType: 28, ShopItem: 6},
	"burger.b":  {Category: objects.CategoryShop, RideType: 28, ShopItem: 6},
	"cola.a":    {Category: objects.CategoryShop, RideType: 29, ShopItem: 5},
	"loo.a":     {Category: objects.CategoryShop, RideType: objects.RideTypeToilet, ShopItem: objects.NoShopItem},
}

// rideOrder fixes install order; map iteration would not.
var rideOrder = []string{"coaster.a", "coaster.b", "gentle.a", "gentle.b", "burger.a", "burger.b", "cola.a", "loo.a"}

// stallCategories names the stall categories of the fixture.
type stallCategories struct{}

func (stallCategories) CategoryOf(id string) (research.Category, bool) {
	switch {
	case strings.HasPrefix(id, "burger."):
		return research.FoodStall, true
	case strings.HasPrefix(id, "cola."):
		return research.DrinkStall, true
	case strings.HasPrefix(id, "loo."):
		return research.Toilets, true
	}
	return 0, false
}

// newTestPark builds a small park:
//   - coaster.a in slot 0, built in the world, invented
//   - gentle.a in slot 1, not built, invented
//   - burger.a in slot 2, not built, the only uninvented entry
//   - tarmac and wooden railings on the one path tile
//   - a bench loaded but not placed, and the park entrance
func newTestPark(t *testing.T) *host.Memory {
	t.Helper()
	m := host.NewMemory(2, 2)
	for _, id := range rideOrder {
		m.Install(objects.InstalledObject{
			Identifier:  id,
			Type:        objects.TypeRide,
			SourceGames: []objects.SourceGame{objects.SourceRCT2},
			Name:        id,
		}, rideTraits[id])
	}
	nonRides := []struct {
		id string
		t  objects.ObjectType
	}{
		{tarmac, objects.TypePathSurface},
		{queue, objects.TypePathSurface},
		{railings, objects.TypePathRailings},
		{bench, objects.TypePathAddition},
		{lamp, objects.TypePathAddition},
		{entrance, objects.TypeParkEntrance},
	}
	for _, nr := range nonRides {
		m.Install(objects.InstalledObject{
			Identifier:  nr.id,
			Type:        nr.t,
			SourceGames: []objects.SourceGame{objects.SourceRCT2},
		}, host.RideTraits{})
	}

	for i, id := range []string{"coaster.a", "gentle.a", "burger.a"} {
		require.NoError(t, m.Place(id, i))
	}
	for _, id := range []string{tarmac, railings, bench, entrance} {
		require.NoError(t, m.Place(id, 0))
	}
	entry := func(index int, id string) objects.ResearchItem {
		tr := rideTraits[id]
		return objects.ResearchItem{Kind: objects.ResearchRide, Object: index, Category: tr.Category, RideType: tr.RideType}
	}
	m.SetInvented([]objects.ResearchItem{entry(0, "coaster.a"), entry(1, "gentle.a")})
	m.SetUninvented([]objects.ResearchItem{entry(2, "burger.a")})

	m.AddElement(0, 0, objects.TileElement{Kind: objects.ElementFootpath, Surface: 0, Railings: 0, Addition: objects.NoObject})
	m.AddRide(objects.WorldRide{ID: 0, Object: 0})
	return m
}

// testInput seeds the run through its settings, so the journaled seed is
// the one the run used.
func testInput(m *host.Memory, seed uint64) Input {
	settings := config.Resolve(config.NewOptions())
	settings.Seed = seed
	return Input{
		Host:     m,
		Settings: settings,
		Rules:    &rules.RuleSet{},
	}
}

func newTestEngine(ids ...string) *Engine {
	if len(ids) == 0 {
		ids = []string{"run-1", "run-2", "run-3"}
	}
	return New(WithRunIDs(NewFixedGenerator(ids...)))
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(t.TempDir() + "/journal.db")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// stepUntil steps until the run reaches stage, failing the test if it
// ends first.
func stepUntil(t *testing.T, r *Run, stage Stage) {
	t.Helper()
	for r.Progress().Stage < stage {
		require.Equal(t, Continue, r.Step(context.Background()), "run ended before %s", stage)
	}
}

func TestStage_NamesInOrder(t *testing.T) {
	require.Len(t, Stages, 15)
	assert.Equal(t, "list-objects", StageListObjects.String())
	assert.Equal(t, "reconcile-pools", StageReconcilePools.String())
	assert.Equal(t, "complete", StageComplete.String())
	assert.Equal(t, "unknown", Stage(99).String())
	for i, s := range Stages {
		assert.Equal(t, Stage(i), s)
		assert.NotNil(t, stageFuncs[s], s.String())
	}
}

func TestRun_CompletesAndKeepsWorldObjects(t *testing.T) {
	m := newTestPark(t)
	e := newTestEngine()

	r, err := e.Start(context.Background(), testInput(m, 7))
	require.NoError(t, err)
	require.NoError(t, r.Finish(context.Background()))
	assert.NoError(t, r.Err())
	assert.Equal(t, Done, r.Step(context.Background()), "a finished run stays done")

	res, ok := r.Result()
	require.True(t, ok)
	assert.NotEmpty(t, res.Digest)

	coaster, ok := m.Object(objects.TypeRide, 0)
	require.True(t, ok)
	assert.Equal(t, "coaster.a", coaster.Identifier, "rides built in the world are never replaced")
	assert.Contains(t, res.Loaded, tarmac)
	assert.Contains(t, res.Loaded, railings)
	assert.Contains(t, res.Loaded, entrance, "the entrance stays unless it is randomised")
	assert.Equal(t, m.LoadedIdentifiers(), res.Loaded)

	// Every loaded ride has exactly one research entry.
	items := append(m.Invented(), m.Uninvented()...)
	for _, obj := range m.Loaded(objects.TypeRide) {
		n := 0
		for _, item := range items {
			if item.IsRide() && item.Object == obj.Index {
				n++
			}
		}
		assert.Equal(t, 1, n, "research entries for %s", obj.Identifier)
	}
}

func TestRun_MimicsScenarioStallAvailability(t *testing.T) {
	m := newTestPark(t)
	e := newTestEngine()

	r, err := e.Start(context.Background(), testInput(m, 3))
	require.NoError(t, err)
	require.NoError(t, r.Finish(context.Background()))

	got := research.Scan(m, m, stallCategories{})
	assert.Equal(t, research.At(0, false), got[research.FoodStall], "food stays first in the research queue")
	assert.False(t, got[research.DrinkStall].HasTime, "the scenario had no drinks")
	assert.False(t, got[research.Toilets].HasTime, "the scenario had no toilets")
}

func TestRun_SameSeedSameResult(t *testing.T) {
	e := newTestEngine()
	digests := make([]string, 2)
	for i := range digests {
		r, err := e.Start(context.Background(), testInput(newTestPark(t), 42))
		require.NoError(t, err)
		require.NoError(t, r.Finish(context.Background()))
		res, _ := r.Result()
		digests[i] = res.Digest
	}
	assert.Equal(t, digests[0], digests[1])
}

func TestRun_ProbesAreCappedPerTick(t *testing.T) {
	m := newTestPark(t)
	in := testInput(m, 1)
	in.Settings.Engine.ProbesPerTick = 2
	r, err := newTestEngine().Start(context.Background(), in)
	require.NoError(t, err)

	stepUntil(t, r, StageClassifyRides)
	ticks := 0
	for r.Progress().Stage == StageClassifyRides {
		require.Equal(t, Continue, r.Step(context.Background()))
		ticks++
	}
	// Five rides are neither loaded nor pregenerated: 2 + 2 + 1 probes.
	assert.Equal(t, 3, ticks)
}

func TestRun_AtMostOneLoadPerTick(t *testing.T) {
	m := newTestPark(t)
	in := testInput(m, 9)
	in.Settings.Quantity.Selections[quantity.Starting] = quantity.Selection{Mode: quantity.SelectExact, Value: 4}
	r, err := newTestEngine().Start(context.Background(), in)
	require.NoError(t, err)

	stepUntil(t, r, StageLoadObjects)
	ticks := 0
	for r.Progress().Stage == StageLoadObjects {
		before := m.Loads
		require.Equal(t, Continue, r.Step(context.Background()))
		assert.LessOrEqual(t, m.Loads-before, 1)
		ticks++
	}
	assert.Greater(t, ticks, 1, "loading is spread over several ticks")
	require.NoError(t, r.Finish(context.Background()))
}

func TestRun_LoadFailureIsFatal(t *testing.T) {
	m := newTestPark(t)
	in := testInput(m, 5)
	in.Settings.Quantity.Selections[quantity.Starting] = quantity.Selection{Mode: quantity.SelectExact, Value: 5}
	e := newTestEngine()
	r, err := e.Start(context.Background(), in)
	require.NoError(t, err)

	stepUntil(t, r, StageLoadObjects)
	for _, id := range rideOrder {
		m.FailLoads(id)
	}

	var result StepResult
	for result = r.Step(context.Background()); result == Continue; result = r.Step(context.Background()) {
	}
	require.Equal(t, Fatal, result)
	assert.True(t, guard.IsLoadError(r.Err()))
	assert.Equal(t, guard.ErrCodeLoadFailed, guard.Code(r.Err()))

	var re *guard.RuntimeError
	require.True(t, errors.As(r.Err(), &re))
	assert.Equal(t, "load-objects", re.Stage)
	assert.True(t, r.Progress().Failed)

	loads := m.Loads
	assert.Equal(t, Fatal, r.Step(context.Background()), "a failed run stays failed")
	assert.Equal(t, loads, m.Loads, "a failed run does no more work")
	assert.Nil(t, e.Active())
}

func TestEngine_OneRunAtATime(t *testing.T) {
	e := newTestEngine()
	first, err := e.Start(context.Background(), testInput(newTestPark(t), 1))
	require.NoError(t, err)
	assert.Same(t, first, e.Active())

	_, err = e.Start(context.Background(), testInput(newTestPark(t), 1))
	require.Error(t, err)
	assert.True(t, guard.IsAlreadyRunning(err))

	require.NoError(t, first.Finish(context.Background()))
	assert.Nil(t, e.Active())

	second, err := e.Start(context.Background(), testInput(newTestPark(t), 1))
	require.NoError(t, err)
	assert.Equal(t, "run-2", second.ID())
}

func TestEngine_StartWithoutHost(t *testing.T) {
	e := newTestEngine()
	_, err := e.Start(context.Background(), Input{})
	assert.Error(t, err)
	assert.Nil(t, e.Active())
}

func TestRun_SeedFromSettingsMatchesExplicitRandom(t *testing.T) {
	ctx := context.Background()

	seeded, err := newTestEngine().Start(ctx, testInput(newTestPark(t), 7))
	require.NoError(t, err)
	require.NoError(t, seeded.Finish(ctx))

	in := testInput(newTestPark(t), 0)
	in.Random = host.NewRandom(7)
	explicit, err := newTestEngine().Start(ctx, in)
	require.NoError(t, err)
	require.NoError(t, explicit.Finish(ctx))

	a, ok := seeded.Result()
	require.True(t, ok)
	b, ok := explicit.Result()
	require.True(t, ok)
	assert.Equal(t, a.Digest, b.Digest)
}

func TestRun_Journal(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	e := New(WithRunIDs(NewFixedGenerator("run-1")), WithRecorder(s))

	in := testInput(newTestPark(t), 11)
	opts := config.NewOptions()
	require.NoError(t, opts.Set(config.KeyRandomiseParkEntrance, false))
	in.Options = opts

	r, err := e.Start(ctx, in)
	require.NoError(t, err)
	require.NoError(t, r.Finish(ctx))

	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, run.Status)
	assert.Equal(t, uint64(11), run.Seed)
	assert.Equal(t, `{"RandomiseParkEntrance":false}`, run.Options)
	assert.Equal(t, r.Progress().Tick, run.Ticks)

	stages, err := s.ReadStages(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, stages, len(Stages))
	for i, ev := range stages {
		assert.Equal(t, Stage(i).String(), ev.Stage)
	}

	loads, unloads, err := s.ObjectCounts(ctx, "run-1")
	require.NoError(t, err)
	assert.Positive(t, loads)
	assert.Positive(t, unloads, "gentle.a, burger.a and the bench are unused")

	res, _ := r.Result()
	stored, err := s.ReadResult(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, res.Digest, stored.Digest)
}

func TestRun_JournalRecordsFailure(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	e := New(WithRunIDs(NewFixedGenerator("run-1")), WithRecorder(s))

	m := newTestPark(t)
	in := testInput(m, 5)
	in.Settings.Quantity.Selections[quantity.Starting] = quantity.Selection{Mode: quantity.SelectExact, Value: 5}
	r, err := e.Start(ctx, in)
	require.NoError(t, err)
	stepUntil(t, r, StageLoadObjects)
	for _, id := range rideOrder {
		m.FailLoads(id)
	}
	require.Error(t, r.Finish(ctx))

	run, err := s.ReadRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, run.Status)
	assert.Equal(t, string(guard.ErrCodeLoadFailed), run.ErrorCode)
}

func TestRun_DriveUntilDone(t *testing.T) {
	ticks := make(chan time.Time)
	close(ticks)

	r, err := newTestEngine().Start(context.Background(), testInput(newTestPark(t), 2))
	require.NoError(t, err)
	require.NoError(t, r.Drive(context.Background(), ticks))
	_, ok := r.Result()
	assert.True(t, ok)
}

func TestRun_DriveCancelled(t *testing.T) {
	e := newTestEngine()
	r, err := e.Start(context.Background(), testInput(newTestPark(t), 2))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = r.Drive(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, r.Err(), context.Canceled)
	assert.Equal(t, Fatal, r.Step(context.Background()))
	assert.Nil(t, e.Active(), "a cancelled run frees the engine")
}
