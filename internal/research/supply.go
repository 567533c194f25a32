package research

import (
	"slices"

	"github.com/roach88/osr/internal/classify"
	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
	"github.com/roach88/osr/internal/pool"
)

// ClassifierCategories names stall categories from a classifier's cache:
// food and drink stalls by their distribution type, the facilities by the
// ride type they were seen with.
type ClassifierCategories struct {
	Classifier *classify.Classifier
}

// CategoryOf implements Categorizer.
func (cc ClassifierCategories) CategoryOf(identifier string) (Category, bool) {
	if d, ok := cc.Classifier.Cached(identifier); ok {
		switch d {
		case objects.FoodStall:
			return FoodStall, true
		case objects.DrinkStall:
			return DrinkStall, true
		}
	}
	for _, c := range []Category{Toilets, CashMachine, FirstAid, InfoKiosk} {
		rt, _ := c.RideType()
		if slices.Contains(cc.Classifier.StallsForRideType(rt), identifier) {
			return c, true
		}
	}
	return 0, false
}

// PoolSupplier picks food and drink stalls from the pools, honouring
// source preferences, and facilities uniformly from the stalls seen with
// the category's ride type.
type PoolSupplier struct {
	Pools      *pool.Manager
	Prefs      *pool.Preferences
	Classifier *classify.Classifier
	Random     host.Random
}

// Pick implements Supplier.
func (p PoolSupplier) Pick(c Category) (string, bool) {
	switch c {
	case FoodStall:
		return p.Pools.PickRandom(objects.FoodStall, p.Prefs, p.Random)
	case DrinkStall:
		return p.Pools.PickRandom(objects.DrinkStall, p.Prefs, p.Random)
	}
	rt, ok := c.RideType()
	if !ok {
		return "", false
	}
	var candidates []string
	for _, id := range p.Classifier.StallsForRideType(rt) {
		if !p.Pools.Registry().Blacklisted(id) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[p.Random.Intn(0, len(candidates))], true
}
