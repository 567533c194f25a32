package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/osr/internal/alloc"
	"github.com/roach88/osr/internal/guard"
	"github.com/roach88/osr/internal/objects"
	"github.com/roach88/osr/internal/pool"
	"github.com/roach88/osr/internal/quantity"
	"github.com/roach88/osr/internal/research"
)

func loadSettings(t *testing.T, name string) Settings {
	t.Helper()
	f, err := Load(filepath.Join("testdata", name))
	require.NoError(t, err)
	s, o, err := f.Settings()
	require.NoError(t, err)
	assert.Empty(t, o.Check())
	return s
}

func TestLoad_YAML(t *testing.T) {
	s := loadSettings(t, "options.yaml")

	assert.Equal(t, uint64(7), s.Seed)
	assert.True(t, s.Flags.BlacklistCompatibility)
	assert.False(t, s.Flags.PreventClassicDuplicates)
	assert.Equal(t, alloc.ReplaceOptions{Stalls: true}, s.Replace)

	assert.True(t, s.Quantity.RandomiseParkEntrance)
	assert.Equal(t, quantity.Selection{Mode: quantity.SelectExact, Value: 10}, s.Quantity.Selections[quantity.Starting])
	assert.Equal(t, quantity.Selection{}, s.Quantity.Selections[quantity.Researchable])
	assert.Equal(t, quantity.DistributeManual, s.Quantity.Distribution)
	assert.Equal(t, 7, s.Quantity.Weights[objects.Thrill])
	assert.Equal(t, 5, s.Quantity.Weights[objects.Gentle])

	assert.Equal(t, research.Requirement{Mode: research.AtStart}, s.Stalls[research.FoodStall])
	assert.Equal(t, research.Requirement{Mode: research.Before, Value: 4}, s.Stalls[research.Toilets])
	assert.Equal(t, research.Requirement{Mode: research.MimicScenario}, s.Stalls[research.InfoKiosk])

	ride := s.Preferences["ride"]
	assert.Equal(t, pool.ModeManual, ride.Mode)
	assert.Equal(t, 0, ride.Manual[objects.SourceRCT1])
	assert.Equal(t, 100, ride.Manual[objects.SourceRCT2])

	assert.Equal(t, []string{"rct2.ride.bad"}, s.Custom.Blacklist)
	assert.Equal(t, map[string][]string{"rct2.ride.a": {"rct2.ride.b"}}, s.Custom.NeverWith)

	assert.Equal(t, 4, s.Engine.ProbesPerTick)
	assert.Equal(t, alloc.DefaultTilesPerStep, s.Engine.TilesPerStep)
	assert.Equal(t, guard.SolverIterations, s.Engine.MaxSolverIterations)
}

func TestLoad_CUEMatchesYAML(t *testing.T) {
	assert.Equal(t, loadSettings(t, "options.yaml"), loadSettings(t, "options.cue"))
}

func TestParseCUE_RejectsUnknownField(t *testing.T) {
	_, err := ParseCUE("bad.cue", []byte("seed: 1\nsead: 2\n"))
	require.Error(t, err)
	var fe *FileError
	assert.ErrorAs(t, err, &fe)
}

func TestParseCUE_RejectsProbeCapBelowTwo(t *testing.T) {
	_, err := ParseCUE("bad.cue", []byte("engine: probes_per_tick: 1\n"))
	assert.Error(t, err)
}

func TestParseCUE_RejectsStringOption(t *testing.T) {
	_, err := ParseCUE("bad.cue", []byte("options: RandomiseParkEntrance: \"yes\"\n"))
	assert.Error(t, err)
}

func TestParseYAML_RejectsUnknownField(t *testing.T) {
	_, err := ParseYAML([]byte("seed: 1\noptionz: {}\n"))
	assert.Error(t, err)
}

func TestResolve_Defaults(t *testing.T) {
	s := Resolve(NewOptions())

	assert.Zero(t, s.Flags)
	assert.Zero(t, s.Replace)
	assert.Equal(t, quantity.DistributeCopyScenario, s.Quantity.Distribution)
	for _, d := range objects.RideDistributionTypes {
		assert.Equal(t, quantity.DefaultManualWeight, s.Quantity.Weights[d], d.String())
	}
	for _, c := range research.Categories {
		assert.Equal(t, research.Requirement{Mode: research.MimicScenario}, s.Stalls[c], c.String())
	}
	assert.Equal(t, pool.ModeCopyScenario, s.Preferences[pool.KeyGlobal].Mode, "global dropdown starts at copy scenario")
	assert.Equal(t, pool.ModeUseGlobal, s.Preferences["park_entrance"].Mode)
	assert.Equal(t, 2, s.Engine.ProbesPerTick)
}

func TestResolve_GlobalManualPreference(t *testing.T) {
	o := NewOptions()
	require.NoError(t, o.Set(PreferenceDropdownKey(pool.KeyGlobal), 1))
	require.NoError(t, o.Set(PreferenceWeightKey(pool.KeyGlobal, objects.SourceCustom), 25))

	global := Resolve(o).Preferences[pool.KeyGlobal]
	assert.Equal(t, pool.ModeManual, global.Mode)
	assert.Equal(t, 25, global.Manual[objects.SourceCustom])
	assert.Equal(t, DefaultSourceWeight, global.Manual[objects.SourceOpenRCT2])
	assert.Len(t, global.Manual, len(objects.SourceGames))
}

func TestEngineDefaults_ClampProbeCap(t *testing.T) {
	f := &File{Engine: Engine{ProbesPerTick: 1}}
	s, _, err := f.Settings()
	require.NoError(t, err)
	assert.Equal(t, 2, s.Engine.ProbesPerTick)
}

func TestOptions_Check(t *testing.T) {
	o, err := FromMap(map[string]any{
		"RandomiseParkEntrance":         1,
		"FoodStallAvailabilityCategory": true,
		"NotAnOption":                   true,
		"RideReplaceExistingObjects":    true,
	})
	require.NoError(t, err)

	assert.Equal(t, []Problem{
		{Key: "FoodStallAvailabilityCategory", Reason: "expected int"},
		{Key: "NotAnOption", Reason: "unknown option"},
		{Key: KeyRandomiseParkEntrance, Reason: "expected bool"},
	}, o.Check())
}

func TestOptions_TypedLookups(t *testing.T) {
	o := NewOptions()
	require.NoError(t, o.Set("a", int64(3)))
	require.NoError(t, o.Set("b", true))
	assert.Error(t, o.Set("c", "text"))

	assert.Equal(t, 3, o.Int("a", 0))
	assert.Equal(t, 9, o.Int("b", 9), "wrong kind falls back to default")
	assert.True(t, o.Bool("b", false))
	assert.True(t, o.Bool("missing", true))
	assert.Equal(t, []string{"a", "b"}, o.Keys())
	assert.True(t, o.Has("a"))
	assert.False(t, o.Has("c"))
}

func TestKnownKeys(t *testing.T) {
	for _, key := range []string{
		"InfoKioskAvailabilityEarliness",
		"LampsQuantitySelectionValue",
		"globalObjectDistributionWeightrollercoaster",
		"footpath_surfaceSourcePreferenceWeightwacky_worlds",
	} {
		kind, ok := KnownKey(key)
		assert.True(t, ok, key)
		assert.Equal(t, KindInt, kind, key)
	}
	kind, ok := KnownKey(KeyRuleInvisiblePath)
	assert.True(t, ok)
	assert.Equal(t, KindBool, kind)
}
