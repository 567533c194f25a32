package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/osr/internal/objects"
	"github.com/roach88/osr/internal/rules"
	"github.com/roach88/osr/internal/testutil"
)

func newManager(t *testing.T, custom rules.Custom, objs ...objects.InstalledObject) *Manager {
	t.Helper()
	m := NewManager(rules.Build(rules.RuleSet{}, rules.Flags{}, custom), nil)
	for _, o := range objs {
		m.Install(o)
	}
	return m
}

func obj(id string, t objects.ObjectType, games ...objects.SourceGame) objects.InstalledObject {
	return objects.InstalledObject{Identifier: id, Type: t, SourceGames: games}
}

func TestManager_BlacklistedNeverPooled(t *testing.T) {
	m := newManager(t, rules.Custom{Blacklist: []string{"bad.ride"}})

	assert.False(t, m.AddEligible("bad.ride", objects.Thrill))
	assert.False(t, m.Contains("bad.ride"))
	for _, d := range objects.DistributionTypes {
		assert.NotContains(t, m.Pool(d), "bad.ride")
	}
}

func TestManager_IdentifierInAtMostOnePool(t *testing.T) {
	m := newManager(t, rules.Custom{})

	assert.True(t, m.AddEligible("a", objects.Thrill))
	assert.False(t, m.AddEligible("a", objects.Thrill), "duplicate add")
	assert.False(t, m.AddEligible("a", objects.Gentle), "second pool")

	count := 0
	for _, d := range objects.DistributionTypes {
		for _, id := range m.Pool(d) {
			if id == "a" {
				count++
			}
		}
	}
	assert.Equal(t, 1, count)
	d, ok := m.PoolOf("a")
	require.True(t, ok)
	assert.Equal(t, objects.Thrill, d)
}

func TestManager_LoadedNeverPooled(t *testing.T) {
	m := newManager(t, rules.Custom{})
	m.AddEligible("a", objects.Lamp)

	m.MarkLoaded("a")
	assert.False(t, m.Contains("a"))
	assert.False(t, m.AddEligible("a", objects.Lamp))
	assert.Equal(t, []string{"a"}, m.Loaded())

	m.MarkUnloaded("a")
	assert.False(t, m.IsLoaded("a"))
	assert.True(t, m.AddEligible("a", objects.Lamp))
}

func TestManager_UnknownIsNotPooled(t *testing.T) {
	m := newManager(t, rules.Custom{})
	assert.False(t, m.AddEligible("a", objects.Unknown))
}

func TestManager_RemoveKeepsCopiesIntact(t *testing.T) {
	m := newManager(t, rules.Custom{})
	m.AddEligible("a", objects.Bench)
	m.AddEligible("b", objects.Bench)
	m.AddEligible("c", objects.Bench)
	before := m.Pool(objects.Bench)

	assert.True(t, m.Remove("b"))
	assert.False(t, m.Remove("b"))

	assert.Equal(t, []string{"a", "b", "c"}, before)
	assert.Equal(t, []string{"a", "c"}, m.Pool(objects.Bench))
	assert.Equal(t, 2, m.Size(objects.Bench))
}

func TestManager_PickRandomWithoutPreferenceIsUniform(t *testing.T) {
	m := newManager(t, rules.Custom{},
		obj("lamp1", objects.TypePathAddition), obj("lamp2", objects.TypePathAddition))
	m.AddEligible("lamp1", objects.Lamp)
	m.AddEligible("lamp2", objects.Lamp)

	id, ok := m.PickRandom(objects.Lamp, nil, testutil.NewScriptedRandom(1))
	require.True(t, ok)
	assert.Equal(t, "lamp2", id)

	_, ok = m.PickRandom(objects.Bin, nil, testutil.NewScriptedRandom())
	assert.False(t, ok, "empty pool")
}

func TestManager_PickRandomHonoursPreferences(t *testing.T) {
	m := newManager(t, rules.Custom{},
		obj("old", objects.TypeRide, objects.SourceRCT1),
		obj("new", objects.TypeRide, objects.SourceRCT2))
	m.AddEligible("old", objects.Thrill)
	m.AddEligible("new", objects.Thrill)

	prefs := ResolvePreferences(map[string]PreferenceSetting{
		KeyGlobal: {Mode: ModeCopyScenario},
		"ride":    {Mode: ModeManual, Manual: Weights{objects.SourceRCT1: 0, objects.SourceRCT2: 100}},
	}, nil, nil)

	// Roll: one value per source game in order, then the sub-pool draw.
	rnd := testutil.NewScriptedRandom(0, 0, 0, 0, 0, 0, 0, 0, 0)
	id, ok := m.PickRandom(objects.Thrill, prefs, rnd)
	require.True(t, ok)
	assert.Equal(t, "new", id, "rct1 has zero weight")
}

func TestManager_PickRandomFallsBackWhenNothingAllowed(t *testing.T) {
	m := newManager(t, rules.Custom{}, obj("only", objects.TypeRide, objects.SourceCustom))
	m.AddEligible("only", objects.Gentle)

	prefs := ResolvePreferences(map[string]PreferenceSetting{
		KeyGlobal: {Mode: ModeManual, Manual: Weights{objects.SourceCustom: 0}},
	}, nil, nil)

	id, ok := m.PickRandom(objects.Gentle, prefs, testutil.NewScriptedRandom())
	require.True(t, ok)
	assert.Equal(t, "only", id)
}

func TestScenarioWeights(t *testing.T) {
	loaded := []objects.InstalledObject{
		obj("a", objects.TypeRide, objects.SourceRCT2, objects.SourceRCT1),
		obj("b", objects.TypeRide, objects.SourceRCT1),
		obj("c", objects.TypeRide, objects.SourceRCT2),
		obj("d", objects.TypeRide),
	}
	w := ScenarioWeights(loaded)

	assert.Equal(t, 100, w[objects.SourceRCT1], "a and b count as rct1")
	assert.Equal(t, 50, w[objects.SourceRCT2])
	assert.Equal(t, 0, w[objects.SourceCustom])
	assert.Len(t, w, len(objects.SourceGames))

	empty := ScenarioWeights(nil)
	assert.Equal(t, 0, empty[objects.SourceRCT2])
}

func TestResolvePreferences_Modes(t *testing.T) {
	loaded := map[objects.ObjectType][]objects.InstalledObject{
		objects.TypeRide:        {obj("r", objects.TypeRide, objects.SourceRCT2)},
		objects.TypePathSurface: {obj("s", objects.TypePathSurface, objects.SourceRCT1)},
	}
	prefs := ResolvePreferences(map[string]PreferenceSetting{
		KeyGlobal:           {Mode: ModeCopyScenario},
		"footpath_surface":  {Mode: ModeCopyScenario},
		"park_entrance":     {Mode: ModeManual, Manual: Weights{objects.SourceRCT1: 10}},
		"footpath_railings": {Mode: PreferenceMode(9)},
	}, loaded, nil)

	assert.Equal(t, 100, prefs.For("ride")[objects.SourceRCT2], "ride defers to global")
	assert.Equal(t, 100, prefs.For("ride")[objects.SourceRCT1], "global counts every table")
	assert.Equal(t, 0, prefs.For("footpath_surface")[objects.SourceRCT2])
	assert.Equal(t, 10, prefs.For("park_entrance")[objects.SourceRCT1])
	assert.Equal(t, 100, prefs.For("park_entrance")[objects.SourceRCT2], "unset manual weight defaults to 100")
	assert.Equal(t, prefs.For(KeyGlobal), prefs.For("footpath_railings"), "unknown mode uses global")
}

func TestPreferenceKeyFor(t *testing.T) {
	_, ok := PreferenceKeyFor(objects.TypePathAddition)
	assert.False(t, ok)
	key, ok := PreferenceKeyFor(objects.TypeParkEntrance)
	assert.True(t, ok)
	assert.Equal(t, "park_entrance", key)
}
