package research

import (
	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
)

// Shuffle reorders the uninvented list with a Fisher-Yates shuffle.
func Shuffle(r host.Research, rnd host.Random) {
	items := r.Uninvented()
	for i := len(items); i > 0; {
		j := rnd.Intn(0, i)
		i--
		items[i], items[j] = items[j], items[i]
	}
	r.SetUninvented(items)
}

// shopIndex returns the list index of the nth uninvented shop entry.
func shopIndex(items []objects.ResearchItem, n int) (int, bool) {
	if n < 0 {
		return 0, false
	}
	seen := 0
	for i, item := range items {
		if !item.IsShop() {
			continue
		}
		if seen == n {
			return i, true
		}
		seen++
	}
	return 0, false
}

// Swap exchanges the uninvented shop entries at times a and b. It reports
// false, changing nothing, when either time has no entry or a equals b.
func Swap(r host.Research, a, b int) bool {
	if a == b {
		return false
	}
	items := r.Uninvented()
	i, ok := shopIndex(items, a)
	if !ok {
		return false
	}
	j, ok := shopIndex(items, b)
	if !ok {
		return false
	}
	items[i], items[j] = items[j], items[i]
	r.SetUninvented(items)
	return true
}

// Promote moves the uninvented shop entry at time n to the invented list.
func Promote(r host.Research, n int) bool {
	items := r.Uninvented()
	i, ok := shopIndex(items, n)
	if !ok {
		return false
	}
	return host.SetRideResearched(r, items[i].Object, true)
}
