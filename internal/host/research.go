package host

import "github.com/roach88/osr/internal/objects"

// PurgeRide removes every ride research entry for a ride slot from both
// lists and returns how many were removed.
func PurgeRide(r Research, index int) int {
	invented, a := withoutRide(r.Invented(), index)
	uninvented, b := withoutRide(r.Uninvented(), index)
	if a > 0 {
		r.SetInvented(invented)
	}
	if b > 0 {
		r.SetUninvented(uninvented)
	}
	return a + b
}

// LastRideEntry returns the newest ride entry for a slot. The invented list
// is searched first because the host appends fresh entries there.
func LastRideEntry(r Research, index int) (objects.ResearchItem, bool) {
	if item, ok := lastRide(r.Invented(), index); ok {
		return item, true
	}
	return lastRide(r.Uninvented(), index)
}

// SetRideResearched collapses the entries of a ride slot into its newest
// one and appends it to the end of the invented or uninvented list. It
// reports false when the slot has no entry.
func SetRideResearched(r Research, index int, invented bool) bool {
	item, ok := LastRideEntry(r, index)
	if !ok {
		return false
	}
	PurgeRide(r, index)
	if invented {
		r.SetInvented(append(r.Invented(), item))
	} else {
		r.SetUninvented(append(r.Uninvented(), item))
	}
	return true
}

func lastRide(items []objects.ResearchItem, index int) (objects.ResearchItem, bool) {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].IsRide() && items[i].Object == index {
			return items[i], true
		}
	}
	return objects.ResearchItem{}, false
}

func withoutRide(items []objects.ResearchItem, index int) ([]objects.ResearchItem, int) {
	out := make([]objects.ResearchItem, 0, len(items))
	removed := 0
	for _, item := range items {
		if item.IsRide() && item.Object == index {
			removed++
			continue
		}
		out = append(out, item)
	}
	return out, removed
}
