// Package loader performs every object load and unload of a run.
//
// Each load keeps the pools, index sets and research lists consistent with
// the host: the evicted occupant goes back to its pool, excluded
// identifiers leave theirs, required companions are loaded alongside, and
// the slot actually used is forbidden for the rest of the run.
package loader

import (
	"log/slog"
	"strconv"

	"github.com/roach88/osr/internal/alloc"
	"github.com/roach88/osr/internal/guard"
	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
	"github.com/roach88/osr/internal/pool"
)

// AnySlot lets the host pick the slot.
const AnySlot = -1

// TypeOf returns the classified distribution type of an identifier.
type TypeOf func(identifier string) (objects.DistributionType, bool)

// Loader loads and unloads objects on behalf of one run.
type Loader struct {
	objects  host.ObjectManager
	research host.Research
	pools    *pool.Manager
	alloc    *alloc.Allocator
	typeOf   TypeOf
	logger   *slog.Logger
}

// New creates a loader.
func New(om host.ObjectManager, r host.Research, pools *pool.Manager, a *alloc.Allocator, typeOf TypeOf, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		objects:  om,
		research: r,
		pools:    pools,
		alloc:    a,
		typeOf:   typeOf,
		logger:   logger.With("channel", "allLoads"),
	}
}

// Load places identifier at index, or anywhere when index is AnySlot, and
// returns the slot used. Rides get their research entry moved to the
// invented or uninvented list according to invented.
//
// When the host reports a different slot than the one requested, the
// requested slot is released and the load is repeated against the slot the
// host used. Revisiting a slot is an allocation-exhaustion error.
func (l *Loader) Load(identifier string, index int, invented bool) (int, error) {
	obj, ok := l.pools.Installed(identifier)
	if !ok {
		return AnySlot, guard.NewLoadError(identifier, index, "object is not installed")
	}
	t := obj.Type
	l.logger.Debug("loading object", "identifier", identifier, "index", index)

	visited := guard.NewCycleDetector()
	if index >= 0 {
		visited.Record(identifier, strconv.Itoa(index))
	}

	var used int
	for {
		if index >= 0 {
			if occupant, ok := l.objects.Object(t, index); ok && occupant.Identifier != identifier {
				l.HandleUnloading(occupant.Identifier)
			}
		}

		loaded, ok := l.objects.Load(identifier, index)
		if !ok {
			return AnySlot, guard.NewLoadError(identifier, index, "host rejected the load")
		}
		current, ok := l.objects.Object(t, loaded.Index)
		if !ok || current.Identifier != identifier {
			return AnySlot, guard.NewLoadError(identifier, index, "load did not take")
		}
		used = loaded.Index
		if index < 0 || used == index {
			break
		}

		l.logger.Warn("host loaded object into a different slot",
			"identifier", identifier, "requested", index, "used", used)
		l.alloc.Release(t, index)
		if visited.Visit(identifier, strconv.Itoa(used)) {
			return AnySlot, guard.NewExhaustedError(identifier, used)
		}
		index = used
	}

	l.alloc.MarkForbidden(t, used)
	l.pools.MarkLoaded(identifier)
	if t == objects.TypeRide {
		if !host.SetRideResearched(l.research, used, invented) {
			l.logger.Warn("loaded ride has no research entry", "identifier", identifier, "index", used)
		}
	}
	if err := l.HandleLoaded(identifier, invented); err != nil {
		return used, err
	}
	return used, nil
}

// HandleLoaded applies the associations of a freshly loaded identifier:
// every identifier it excludes leaves its pool, and every identifier it
// requires that is still pooled is loaded into a slot found by the
// allocator.
func (l *Loader) HandleLoaded(identifier string, invented bool) error {
	l.pools.MarkLoaded(identifier)
	registry := l.pools.Registry()
	for _, excluded := range registry.NeverWith(identifier) {
		if l.pools.Remove(excluded) {
			l.logger.Debug("removed excluded object from pool", "identifier", excluded, "excluded_by", identifier)
		}
	}
	for _, required := range registry.AlwaysWith(identifier) {
		d, ok := l.typeOf(required)
		if !ok || !l.pools.Contains(required) {
			continue
		}
		l.logger.Debug("loading required companion", "identifier", required, "required_by", identifier, "type", d.String())
		if _, err := l.Load(required, l.alloc.FindSlot(d), invented); err != nil {
			return err
		}
	}
	return nil
}

// HandleUnloading returns identifier to its pool, unless a loaded object
// excludes it, and re-admits every identifier it excluded that no other
// loaded object still excludes. It does not touch the host.
func (l *Loader) HandleUnloading(identifier string) {
	l.pools.MarkUnloaded(identifier)
	if d, ok := l.typeOf(identifier); ok {
		if l.blocked(identifier) {
			l.logger.Debug("unloaded object stays out of its pool", "identifier", identifier)
		} else {
			l.pools.AddEligible(identifier, d)
		}
	}
	registry := l.pools.Registry()
	for _, excluded := range registry.NeverWith(identifier) {
		if l.blocked(excluded) {
			continue
		}
		d, ok := l.typeOf(excluded)
		if !ok {
			continue
		}
		if l.pools.AddEligible(excluded, d) {
			l.logger.Debug("re-admitted object to pool", "identifier", excluded, "last_blocker", identifier)
		}
	}
}

func (l *Loader) blocked(identifier string) bool {
	registry := l.pools.Registry()
	for _, loaded := range l.pools.Loaded() {
		if registry.Excludes(loaded, identifier) {
			return true
		}
	}
	return false
}

// Unload removes a loaded object from the host, returns it to its pool and,
// for rides, deletes the research entries left pointing at its slot.
func (l *Loader) Unload(obj objects.LoadedObject) {
	l.HandleUnloading(obj.Identifier)
	l.objects.Unload(obj.Identifier)
	if obj.Type == objects.TypeRide {
		if removed := host.PurgeRide(l.research, obj.Index); removed != 1 {
			l.logger.Warn("unexpected research entry count for unloaded ride",
				"identifier", obj.Identifier, "index", obj.Index, "removed", removed)
		}
	}
}
