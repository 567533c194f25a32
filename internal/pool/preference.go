package pool

import (
	"log/slog"

	"github.com/roach88/osr/internal/guard"
	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
)

const maxPickAttempts = guard.PickAttempts

// KeyGlobal is the preference key other keys fall back to.
const KeyGlobal = "global"

// PreferenceKeys lists every key a preference can be configured for.
var PreferenceKeys = []string{KeyGlobal, "ride", "footpath_surface", "footpath_railings", "park_entrance"}

// PreferenceKeyFor returns the preference key for an object table. Path
// additions have none and are always picked uniformly.
func PreferenceKeyFor(t objects.ObjectType) (string, bool) {
	switch t {
	case objects.TypeRide, objects.TypePathSurface, objects.TypePathRailings, objects.TypeParkEntrance:
		return t.String(), true
	}
	return "", false
}

// Weights is the acceptance probability, in percent, of each source game.
type Weights map[objects.SourceGame]int

// permissive allows every game with a non-zero weight.
func (w Weights) permissive() map[objects.SourceGame]bool {
	out := make(map[objects.SourceGame]bool, len(w))
	for g, p := range w {
		out[g] = p > 0
	}
	return out
}

// roll allows each game independently with probability weight/100.
func (w Weights) roll(rnd host.Random) map[objects.SourceGame]bool {
	out := make(map[objects.SourceGame]bool, len(w))
	for _, g := range objects.SourceGames {
		p := w[g]
		out[g] = p > 0 && rnd.Intn(0, 100) < p
	}
	return out
}

// PreferenceMode selects where a key's weights come from.
type PreferenceMode int

const (
	// ModeUseGlobal defers to the global key.
	ModeUseGlobal PreferenceMode = iota
	// ModeCopyScenario derives weights from the objects the park loads.
	ModeCopyScenario
	// ModeManual uses the configured weights.
	ModeManual
)

// PreferenceSetting is the configuration for one key.
type PreferenceSetting struct {
	Mode   PreferenceMode
	Manual Weights
}

// Preferences holds the resolved weights of every key for one run.
type Preferences struct {
	weights map[string]Weights
}

// ResolvePreferences computes the weights of every key. loaded lists the
// objects the park had loaded before the run, by table.
func ResolvePreferences(settings map[string]PreferenceSetting, loaded map[objects.ObjectType][]objects.InstalledObject, logger *slog.Logger) *Preferences {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Preferences{weights: make(map[string]Weights)}

	global := settings[KeyGlobal]
	switch global.Mode {
	case ModeManual:
		p.weights[KeyGlobal] = completeWeights(global.Manual, 100)
	case ModeCopyScenario:
		p.weights[KeyGlobal] = ScenarioWeights(allLoaded(loaded))
	default:
		logger.Error("global source preference cannot defer to itself, copying scenario", "mode", int(global.Mode))
		p.weights[KeyGlobal] = ScenarioWeights(allLoaded(loaded))
	}

	for _, key := range PreferenceKeys[1:] {
		s := settings[key]
		switch s.Mode {
		case ModeUseGlobal:
			p.weights[key] = p.weights[KeyGlobal]
		case ModeCopyScenario:
			t, _ := objects.ParseObjectType(key)
			p.weights[key] = ScenarioWeights(loaded[t])
		case ModeManual:
			p.weights[key] = completeWeights(s.Manual, 100)
		default:
			logger.Error("unknown source preference mode, using global", "key", key, "mode", int(s.Mode))
			p.weights[key] = p.weights[KeyGlobal]
		}
		logger.Debug("source preference resolved", "channel", "sourcepreference", "key", key, "weights", p.weights[key])
	}
	return p
}

// For returns the weights of key, falling back to global.
func (p *Preferences) For(key string) Weights {
	if w, ok := p.weights[key]; ok {
		return w
	}
	return p.weights[KeyGlobal]
}

// ScenarioWeights counts each object under its earliest source game and
// scales counts so the most common game gets 100.
func ScenarioWeights(objs []objects.InstalledObject) Weights {
	counts := make(map[objects.SourceGame]int)
	highest := 1
	for _, obj := range objs {
		g, ok := obj.EarliestSource()
		if !ok {
			continue
		}
		counts[g]++
		if counts[g] > highest {
			highest = counts[g]
		}
	}
	w := make(Weights, len(objects.SourceGames))
	for _, g := range objects.SourceGames {
		w[g] = (200*counts[g] + highest) / (2 * highest)
	}
	return w
}

func completeWeights(manual Weights, def int) Weights {
	w := make(Weights, len(objects.SourceGames))
	for _, g := range objects.SourceGames {
		if v, ok := manual[g]; ok {
			w[g] = v
		} else {
			w[g] = def
		}
	}
	return w
}

func allLoaded(loaded map[objects.ObjectType][]objects.InstalledObject) []objects.InstalledObject {
	var out []objects.InstalledObject
	for _, t := range objects.ObjectTypes {
		out = append(out, loaded[t]...)
	}
	return out
}
