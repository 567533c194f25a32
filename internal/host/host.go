// Package host defines the service boundary between the randomiser and the
// simulation that owns object tables, research lists and the map.
//
// The randomiser never holds host data across calls: every read returns a
// copy, and every mutation goes through these interfaces. Memory is a
// complete in-process implementation used by tests, scenarios and the CLI.
package host

import (
	"math/rand/v2"

	"github.com/roach88/osr/internal/objects"
)

// ObjectManager enumerates, loads and unloads objects.
type ObjectManager interface {
	// InstalledObjects lists every installed object of a supported type.
	InstalledObjects() []objects.InstalledObject

	// Load places identifier in its table. A negative index lets the host
	// pick any free slot. The returned object reports the slot actually
	// used, which may differ from the one requested. ok is false when the
	// host rejected the load.
	Load(identifier string, index int) (obj objects.LoadedObject, ok bool)

	// Unload removes identifier from its table. Research entries that
	// pointed at it are left in place.
	Unload(identifier string)

	// UnloadAt clears one slot.
	UnloadAt(t objects.ObjectType, index int)

	// Object returns the occupant of a slot.
	Object(t objects.ObjectType, index int) (objects.LoadedObject, bool)

	// Loaded lists every occupied slot of a table in index order.
	Loaded(t objects.ObjectType) []objects.LoadedObject
}

// Research exposes the two ordered research lists.
type Research interface {
	Invented() []objects.ResearchItem
	Uninvented() []objects.ResearchItem
	SetInvented(items []objects.ResearchItem)
	SetUninvented(items []objects.ResearchItem)
}

// World exposes what is built on the map.
type World interface {
	// MapSize returns the number of tiles along each axis.
	MapSize() (width, height int)
	// Elements returns the tile elements on one tile.
	Elements(x, y int) []objects.TileElement
	// Rides lists every ride built in the world.
	Rides() []objects.WorldRide
}

// Random is a uniform integer source.
type Random interface {
	// Intn returns a value in [lo, hi). It returns lo when hi <= lo.
	Intn(lo, hi int) int
}

// Host bundles every service the randomiser consumes.
type Host interface {
	ObjectManager
	Research
	World
}

// PCGRandom is a seeded Random backed by math/rand/v2.
type PCGRandom struct {
	r *rand.Rand
}

// NewRandom returns a deterministic Random for a seed.
func NewRandom(seed uint64) *PCGRandom {
	return &PCGRandom{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn implements Random.
func (p *PCGRandom) Intn(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + p.r.IntN(hi-lo)
}
