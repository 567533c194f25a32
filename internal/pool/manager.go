// Package pool tracks which objects are eligible to be loaded.
//
// Each distribution type owns one pool. An identifier sits in at most one
// pool, never while it is loaded, and never when the association registry
// blacklists it.
package pool

import (
	"log/slog"
	"sort"

	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
	"github.com/roach88/osr/internal/rules"
)

// Manager owns the per-type pools and the set of loaded identifiers.
type Manager struct {
	registry  *rules.Registry
	logger    *slog.Logger
	installed map[string]objects.InstalledObject
	pools     map[objects.DistributionType][]string
	member    map[string]objects.DistributionType
	loaded    map[string]bool
}

// NewManager creates empty pools governed by registry.
func NewManager(registry *rules.Registry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry:  registry,
		logger:    logger,
		installed: make(map[string]objects.InstalledObject),
		pools:     make(map[objects.DistributionType][]string),
		member:    make(map[string]objects.DistributionType),
		loaded:    make(map[string]bool),
	}
}

// Install records the snapshot of an installed object so picks can read its
// source games.
func (m *Manager) Install(obj objects.InstalledObject) {
	m.installed[obj.Identifier] = obj.Clone()
}

// Installed returns the snapshot recorded for identifier.
func (m *Manager) Installed(identifier string) (objects.InstalledObject, bool) {
	obj, ok := m.installed[identifier]
	return obj, ok
}

// InstalledCount returns the number of recorded snapshots.
func (m *Manager) InstalledCount() int {
	return len(m.installed)
}

// Registry returns the association registry the manager enforces.
func (m *Manager) Registry() *rules.Registry {
	return m.registry
}

// AddEligible puts identifier in the pool for d. It is a no-op for
// blacklisted, loaded, unclassified or already pooled identifiers, and
// reports whether the identifier was added.
func (m *Manager) AddEligible(identifier string, d objects.DistributionType) bool {
	if d == objects.Unknown {
		return false
	}
	if m.registry != nil && m.registry.Blacklisted(identifier) {
		return false
	}
	if m.loaded[identifier] {
		return false
	}
	if _, ok := m.member[identifier]; ok {
		return false
	}
	m.pools[d] = append(m.pools[d], identifier)
	m.member[identifier] = d
	return true
}

// Remove takes identifier out of whichever pool holds it.
func (m *Manager) Remove(identifier string) bool {
	d, ok := m.member[identifier]
	if !ok {
		return false
	}
	delete(m.member, identifier)
	list := m.pools[d]
	for i, id := range list {
		if id == identifier {
			m.pools[d] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether identifier is in any pool.
func (m *Manager) Contains(identifier string) bool {
	_, ok := m.member[identifier]
	return ok
}

// PoolOf returns the type of the pool holding identifier.
func (m *Manager) PoolOf(identifier string) (objects.DistributionType, bool) {
	d, ok := m.member[identifier]
	return d, ok
}

// Pool returns a copy of the pool for d.
func (m *Manager) Pool(d objects.DistributionType) []string {
	return append([]string(nil), m.pools[d]...)
}

// Size returns the number of eligible identifiers for d.
func (m *Manager) Size(d objects.DistributionType) int {
	return len(m.pools[d])
}

// MarkLoaded records identifier as loaded and removes it from its pool.
func (m *Manager) MarkLoaded(identifier string) {
	m.loaded[identifier] = true
	m.Remove(identifier)
}

// MarkUnloaded forgets that identifier was loaded. It does not re-pool it.
func (m *Manager) MarkUnloaded(identifier string) {
	delete(m.loaded, identifier)
}

// IsLoaded reports whether identifier is recorded as loaded.
func (m *Manager) IsLoaded(identifier string) bool {
	return m.loaded[identifier]
}

// Loaded returns every loaded identifier, sorted.
func (m *Manager) Loaded() []string {
	out := make([]string, 0, len(m.loaded))
	for id := range m.loaded {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PickRandom draws an identifier from the pool for d, honouring source-game
// preferences when prefs has a key for d's object table. The identifier is
// not removed; loading it does that.
func (m *Manager) PickRandom(d objects.DistributionType, prefs *Preferences, rnd host.Random) (string, bool) {
	list := m.pools[d]
	if len(list) == 0 {
		return "", false
	}
	uniform := func() (string, bool) {
		return list[rnd.Intn(0, len(list))], true
	}

	key, ok := PreferenceKeyFor(d.ObjectType())
	if !ok || prefs == nil {
		return uniform()
	}
	weights := prefs.For(key)

	if len(m.filter(list, weights.permissive())) == 0 {
		m.logger.Debug("no pooled object allowed by preference, picking uniformly",
			"channel", "sourcepreference", "type", d.String())
		return uniform()
	}
	for i := 0; i < maxPickAttempts; i++ {
		sub := m.filter(list, weights.roll(rnd))
		if len(sub) > 0 {
			return sub[rnd.Intn(0, len(sub))], true
		}
	}
	return uniform()
}

func (m *Manager) filter(list []string, allowed map[objects.SourceGame]bool) []string {
	var out []string
	for _, id := range list {
		obj, ok := m.installed[id]
		if !ok {
			m.logger.Warn("pooled identifier has no installed snapshot", "identifier", id)
			continue
		}
		for _, g := range obj.SourceGames {
			if allowed[g] {
				out = append(out, id)
				break
			}
		}
	}
	return out
}
