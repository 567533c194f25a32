package quantity

import (
	"fmt"
	"log/slog"

	"github.com/roach88/osr/internal/alloc"
	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
)

// Prefix names one quantity selection in the options.
type Prefix string

const (
	Starting          Prefix = "Starting"
	Researchable      Prefix = "Researchable"
	PathSurfaceNormal Prefix = "PathSurfaceNormal"
	PathSurfaceQueue  Prefix = "PathSurfaceQueue"
	PathSupport       Prefix = "PathSupport"
	Benches           Prefix = "Benches"
	Bins              Prefix = "Bins"
	Lamps             Prefix = "Lamps"
)

// Prefixes lists every quantity selection.
var Prefixes = []Prefix{Starting, Researchable, PathSurfaceNormal, PathSurfaceQueue, PathSupport, Benches, Bins, Lamps}

var nonRidePrefixes = map[objects.DistributionType]Prefix{
	objects.NonQueueSurface: PathSurfaceNormal,
	objects.QueueSurface:    PathSurfaceQueue,
	objects.Railings:        PathSupport,
	objects.Bench:           Benches,
	objects.Bin:             Bins,
	objects.Lamp:            Lamps,
}

// SelectionMode says how a Selection's Value is used.
type SelectionMode int

const (
	// SelectScenario keeps the scenario's own count.
	SelectScenario SelectionMode = iota
	// SelectScenarioMinimum keeps the scenario's count but at least Value.
	SelectScenarioMinimum
	// SelectExact uses Value.
	SelectExact
)

// Selection is one quantity selection.
type Selection struct {
	Mode  SelectionMode
	Value int
}

// DistributionMode says where ride weights come from.
type DistributionMode int

const (
	// DistributeCopyScenario weighs ride types by the loaded rides.
	DistributeCopyScenario DistributionMode = iota
	// DistributeManual uses Settings.Weights.
	DistributeManual
)

// DefaultManualWeight applies to ride types without a manual weight.
const DefaultManualWeight = 5

// Settings are the quantity options of a run.
type Settings struct {
	Selections            map[Prefix]Selection
	Distribution          DistributionMode
	Weights               map[objects.DistributionType]int
	RandomiseParkEntrance bool
}

// Census is what the park holds before anything is unloaded.
type Census struct {
	// InventedRides and UninventedRides count ride research entries.
	InventedRides   int
	UninventedRides int
	// Rides and NonRides count loaded objects per classified type.
	Rides    Counts
	NonRides Counts
	// ForbiddenRides and ForbiddenNonRides hold the type of every
	// classified object sitting in a forbidden slot.
	ForbiddenRides    []objects.DistributionType
	ForbiddenNonRides []objects.DistributionType
}

// Targets are the numbers of objects still to load.
type Targets struct {
	Invented   Counts
	Uninvented Counts
	NonRide    Counts
}

// Remaining is the number of loads left across every target.
func (t Targets) Remaining() int {
	return t.Invented.Total() + t.Uninvented.Total() + t.NonRide.Total()
}

// Counts holds a number per distribution type.
type Counts map[objects.DistributionType]int

// Total sums every count.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Positive returns the types of order whose count is above zero.
func (c Counts) Positive(order []objects.DistributionType) []objects.DistributionType {
	var out []objects.DistributionType
	for _, d := range order {
		if c[d] > 0 {
			out = append(out, d)
		}
	}
	return out
}

// Take decrements the count of d, never below zero.
func (c Counts) Take(d objects.DistributionType) {
	if c[d] > 0 {
		c[d]--
	}
}

// Plan computes the targets of a run.
func Plan(s Settings, census Census, rnd host.Random, logger *slog.Logger) Targets {
	if logger == nil {
		logger = slog.Default()
	}
	weights := rideWeights(s, census, logger)

	invented := split(weights, target(s, Starting, census.InventedRides, logger), rnd)
	uninvented := split(weights, target(s, Researchable, census.UninventedRides, logger), rnd)
	for _, d := range census.ForbiddenRides {
		if invented[d] > 0 {
			invented.Take(d)
		} else {
			uninvented.Take(d)
		}
	}

	nonRide := make(Counts)
	for d, prefix := range nonRidePrefixes {
		nonRide[d] = target(s, prefix, census.NonRides[d], logger)
	}
	if s.RandomiseParkEntrance {
		nonRide[objects.Entrance] = 1
	}
	for _, d := range census.ForbiddenNonRides {
		nonRide.Take(d)
	}

	t := Targets{Invented: invented, Uninvented: uninvented, NonRide: nonRide}
	logger.Info("planned object quantities", "remaining", t.Remaining(),
		"invented", t.Invented.Total(), "uninvented", t.Uninvented.Total(), "non_ride", t.NonRide.Total())
	return t
}

func target(s Settings, prefix Prefix, scenario int, logger *slog.Logger) int {
	sel := s.Selections[prefix]
	switch sel.Mode {
	case SelectScenario:
		return scenario
	case SelectExact:
		return max(sel.Value, 0)
	case SelectScenarioMinimum:
	default:
		logger.Error("unsupported quantity selection, using scenario minimum",
			"prefix", string(prefix), "mode", int(sel.Mode))
	}
	return max(sel.Value, scenario)
}

func rideWeights(s Settings, census Census, logger *slog.Logger) []int {
	w := make([]int, len(objects.RideDistributionTypes))
	if s.Distribution != DistributeCopyScenario {
		if s.Distribution != DistributeManual {
			logger.Error("unsupported distribution mode, using manual weights", "mode", int(s.Distribution))
		}
		for i, d := range objects.RideDistributionTypes {
			v, ok := s.Weights[d]
			if !ok {
				v = DefaultManualWeight
			}
			w[i] = v
		}
		return w
	}
	for i, d := range objects.RideDistributionTypes {
		w[i] = census.Rides[d]
	}
	return w
}

func split(weights []int, total int, rnd host.Random) Counts {
	parts := WeightedSplit(weights, total, rnd)
	out := make(Counts, len(parts))
	for i, d := range objects.RideDistributionTypes {
		out[d] = parts[i]
	}
	return out
}

// Gather takes the census of a park. typeOf returns the classified type of
// an identifier.
func Gather(om host.ObjectManager, r host.Research, a *alloc.Allocator, typeOf func(string) (objects.DistributionType, bool)) Census {
	c := Census{Rides: make(Counts), NonRides: make(Counts)}
	for _, item := range r.Invented() {
		if item.IsRide() {
			c.InventedRides++
		}
	}
	for _, item := range r.Uninvented() {
		if item.IsRide() {
			c.UninventedRides++
		}
	}
	for _, t := range objects.ObjectTypes {
		for _, obj := range om.Loaded(t) {
			d, ok := typeOf(obj.Identifier)
			if !ok {
				continue
			}
			if d.IsRide() {
				c.Rides[d]++
			} else {
				c.NonRides[d]++
			}
			if !a.IsForbidden(t, obj.Index) {
				continue
			}
			switch {
			case d.IsRide():
				c.ForbiddenRides = append(c.ForbiddenRides, d)
			case t != objects.TypeParkEntrance:
				c.ForbiddenNonRides = append(c.ForbiddenNonRides, d)
			}
		}
	}
	return c
}

// String renders targets for logs and journals.
func (c Counts) String() string {
	return fmt.Sprint(map[objects.DistributionType]int(c))
}
