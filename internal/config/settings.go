package config

import (
	"github.com/roach88/osr/internal/alloc"
	"github.com/roach88/osr/internal/guard"
	"github.com/roach88/osr/internal/objects"
	"github.com/roach88/osr/internal/pool"
	"github.com/roach88/osr/internal/quantity"
	"github.com/roach88/osr/internal/research"
	"github.com/roach88/osr/internal/rules"
)

// DefaultProbesPerTick is the classification probe cap when none is set.
const DefaultProbesPerTick = 2

// Settings are the typed options of one run.
type Settings struct {
	Seed        uint64
	Flags       rules.Flags
	Custom      rules.Custom
	Replace     alloc.ReplaceOptions
	Quantity    quantity.Settings
	Preferences map[string]pool.PreferenceSetting
	Stalls      map[research.Category]research.Requirement
	Engine      Engine
}

// Resolve reads every option the run uses from o, applying defaults.
func Resolve(o *Options) Settings {
	return Settings{
		Flags: rules.Flags{
			BlacklistCompatibility:    o.Bool(KeyRuleCompatibility, false),
			BlacklistInvisiblePaths:   o.Bool(KeyRuleInvisiblePath, false),
			BlacklistEditorOnlyPaths:  o.Bool(KeyRuleEditorOnlyPath, false),
			PreventSlopeStairVariants: o.Bool(KeyRuleStairSlope, false),
			PreventSquareRounded:      o.Bool(KeyRuleSquareRounded, false),
			PreventClassicDuplicates:  o.Bool(KeyRuleClassicDuplicates, false),
		},
		Replace: alloc.ReplaceOptions{
			Rides:       o.Bool(KeyRideReplace, false),
			Stalls:      o.Bool(KeyStallReplace, false),
			Surfaces:    o.Bool(KeyPathSurfaceReplace, false),
			Railings:    o.Bool(KeyPathSupportsReplace, false),
			Attachments: o.Bool(KeyPathAttachmentsReplace, false),
		},
		Quantity:    quantitySettings(o),
		Preferences: preferenceSettings(o),
		Stalls:      stallRequirements(o),
		Engine:      Engine{}.Normalize(),
	}
}

// Settings builds the options table of the file and resolves it.
func (f *File) Settings() (Settings, *Options, error) {
	o, err := FromMap(f.Options)
	if err != nil {
		return Settings{}, nil, err
	}
	s := Resolve(o)
	s.Seed = f.Seed
	s.Custom = f.Associations
	s.Engine = f.Engine.Normalize()
	return s, o, nil
}

// Normalize fills unset fields with their defaults and raises the probe
// cap to its minimum of 2.
func (e Engine) Normalize() Engine {
	if e.ProbesPerTick <= 0 {
		e.ProbesPerTick = DefaultProbesPerTick
	}
	e.ProbesPerTick = max(e.ProbesPerTick, 2)
	if e.TilesPerStep <= 0 {
		e.TilesPerStep = alloc.DefaultTilesPerStep
	}
	if e.MaxSolverIterations <= 0 {
		e.MaxSolverIterations = guard.SolverIterations
	}
	return e
}

func quantitySettings(o *Options) quantity.Settings {
	s := quantity.Settings{
		Selections:            make(map[quantity.Prefix]quantity.Selection),
		Distribution:          quantity.DistributionMode(o.Int(KeyDistribution, 0)),
		Weights:               make(map[objects.DistributionType]int),
		RandomiseParkEntrance: o.Bool(KeyRandomiseParkEntrance, false),
	}
	for _, p := range quantity.Prefixes {
		mode, value := QuantityKeys(p)
		s.Selections[p] = quantity.Selection{
			Mode:  quantity.SelectionMode(o.Int(mode, 0)),
			Value: o.Int(value, 0),
		}
	}
	for _, d := range objects.RideDistributionTypes {
		s.Weights[d] = o.Int(DistributionWeightKey(d), DefaultDistributionWeight)
	}
	return s
}

// preferenceSettings maps the dropdowns onto modes. The global dropdown
// has no "use global" entry, so its indices start one later.
func preferenceSettings(o *Options) map[string]pool.PreferenceSetting {
	out := make(map[string]pool.PreferenceSetting, len(pool.PreferenceKeys))
	for _, key := range pool.PreferenceKeys {
		dropdown := o.Int(PreferenceDropdownKey(key), 0)
		if key == pool.KeyGlobal {
			dropdown++
		}
		s := pool.PreferenceSetting{Mode: pool.PreferenceMode(dropdown)}
		if s.Mode == pool.ModeManual {
			s.Manual = make(pool.Weights, len(objects.SourceGames))
			for _, g := range objects.SourceGames {
				s.Manual[g] = o.Int(PreferenceWeightKey(key, g), DefaultSourceWeight)
			}
		}
		out[key] = s
	}
	return out
}

func stallRequirements(o *Options) map[research.Category]research.Requirement {
	out := make(map[research.Category]research.Requirement, len(research.Categories))
	for _, c := range research.Categories {
		mode, earliness := StallKeys(c)
		out[c] = research.Requirement{
			Mode:  research.Mode(o.Int(mode, 0)),
			Value: o.Int(earliness, 0),
		}
	}
	return out
}
