// Package alloc decides which object-table slot a newly chosen object
// occupies, without overwriting slots the world still references.
//
// Per object table it keeps three index sets:
//   - forbidden: must not be overwritten for the rest of the run
//   - present: referenced by something built in the world
//   - preferential: present but declared replaceable, tried first
package alloc

import (
	"sort"

	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
)

// Occupancy reports the distribution type of a slot's occupant.
type Occupancy interface {
	// Occupant returns the occupant's type, or ok=false for an empty slot.
	// Occupied slots with an unclassified occupant report objects.Unknown.
	Occupant(t objects.ObjectType, index int) (d objects.DistributionType, ok bool)
}

// Allocator owns the index sets of one run.
type Allocator struct {
	occ          Occupancy
	forbidden    map[objects.ObjectType]map[int]bool
	present      map[objects.ObjectType]map[int]bool
	preferential map[objects.ObjectType][]int
}

// New creates an allocator with empty index sets.
func New(occ Occupancy) *Allocator {
	return &Allocator{
		occ:          occ,
		forbidden:    make(map[objects.ObjectType]map[int]bool),
		present:      make(map[objects.ObjectType]map[int]bool),
		preferential: make(map[objects.ObjectType][]int),
	}
}

// MarkForbidden prevents index from being handed out again this run.
func (a *Allocator) MarkForbidden(t objects.ObjectType, index int) {
	setAdd(a.forbidden, t, index)
}

// Release removes index from the forbidden set.
func (a *Allocator) Release(t objects.ObjectType, index int) {
	delete(a.forbidden[t], index)
}

// IsForbidden reports whether index is forbidden.
func (a *Allocator) IsForbidden(t objects.ObjectType, index int) bool {
	return a.forbidden[t][index]
}

// Forbidden returns the forbidden indices of a table, sorted.
func (a *Allocator) Forbidden(t objects.ObjectType) []int {
	return sortedSet(a.forbidden[t])
}

// MarkPresent records that the world references index.
func (a *Allocator) MarkPresent(t objects.ObjectType, index int) {
	setAdd(a.present, t, index)
}

// IsPresent reports whether the world references index.
func (a *Allocator) IsPresent(t objects.ObjectType, index int) bool {
	return a.present[t][index]
}

// Present returns the indices the world references, sorted.
func (a *Allocator) Present(t objects.ObjectType) []int {
	return sortedSet(a.present[t])
}

// AddPreferential queues index as replaceable. Duplicates are ignored.
func (a *Allocator) AddPreferential(t objects.ObjectType, index int) {
	for _, existing := range a.preferential[t] {
		if existing == index {
			return
		}
	}
	a.preferential[t] = append(a.preferential[t], index)
}

// Preferential returns the remaining preferential queue of a table.
func (a *Allocator) Preferential(t objects.ObjectType) []int {
	return append([]int(nil), a.preferential[t]...)
}

// FindSlot returns the slot an object of type d should be loaded into.
//
// The preferential queue is tried first and the chosen entry is removed
// from it. Otherwise indices are scanned upwards from zero, skipping
// forbidden ones, and the first slot that is empty or holds an object of
// the same distribution type wins. The scan is unbounded: the host grows
// its tables on demand, so an empty slot always exists past the end.
func (a *Allocator) FindSlot(d objects.DistributionType) int {
	t := d.ObjectType()
	queue := a.preferential[t]
	for i, index := range queue {
		if a.forbidden[t][index] || !a.usable(d, t, index) {
			continue
		}
		a.preferential[t] = append(queue[:i:i], queue[i+1:]...)
		return index
	}
	for index := 0; ; index++ {
		if a.forbidden[t][index] {
			continue
		}
		if a.usable(d, t, index) {
			return index
		}
	}
}

// Allocate finds a slot for d and forbids it immediately.
func (a *Allocator) Allocate(d objects.DistributionType) int {
	index := a.FindSlot(d)
	a.MarkForbidden(d.ObjectType(), index)
	return index
}

func (a *Allocator) usable(d objects.DistributionType, t objects.ObjectType, index int) bool {
	occupant, ok := a.occ.Occupant(t, index)
	if !ok {
		return true
	}
	return occupant == d
}

// HostOccupancy answers Occupant from a host and a type lookup.
type HostOccupancy struct {
	Objects host.ObjectManager
	// TypeOf returns the classified type of an identifier.
	TypeOf func(identifier string) (objects.DistributionType, bool)
}

// Occupant implements Occupancy.
func (h HostOccupancy) Occupant(t objects.ObjectType, index int) (objects.DistributionType, bool) {
	obj, ok := h.Objects.Object(t, index)
	if !ok {
		return objects.Unknown, false
	}
	d, known := h.TypeOf(obj.Identifier)
	if !known {
		return objects.Unknown, true
	}
	return d, true
}

func setAdd(m map[objects.ObjectType]map[int]bool, t objects.ObjectType, index int) {
	if m[t] == nil {
		m[t] = make(map[int]bool)
	}
	m[t][index] = true
}

func sortedSet(s map[int]bool) []int {
	out := make([]int, 0, len(s))
	for index := range s {
		out = append(out, index)
	}
	sort.Ints(out)
	return out
}
