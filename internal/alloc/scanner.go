package alloc

import (
	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
)

// DefaultTilesPerStep is how many map tiles one Step inspects.
const DefaultTilesPerStep = 400

// ReplaceOptions says which in-world objects the user allows to be swapped
// out. A replaceable slot goes to the preferential queue instead of the
// forbidden set.
type ReplaceOptions struct {
	Rides       bool
	Stalls      bool
	Surfaces    bool
	Railings    bool
	Attachments bool
}

// Scanner walks the map and the built rides, recording every slot the world
// references. It resumes where the previous Step stopped.
type Scanner struct {
	world        host.World
	alloc        *Allocator
	replace      ReplaceOptions
	tilesPerStep int

	x, y int
	done bool
}

// NewScanner creates a scanner that feeds alloc. A non-positive
// tilesPerStep uses DefaultTilesPerStep.
func NewScanner(world host.World, alloc *Allocator, replace ReplaceOptions, tilesPerStep int) *Scanner {
	if tilesPerStep <= 0 {
		tilesPerStep = DefaultTilesPerStep
	}
	return &Scanner{world: world, alloc: alloc, replace: replace, tilesPerStep: tilesPerStep}
}

// Step scans up to the tile budget and reports whether the scan finished.
// The rides pass runs in the same Step that finishes the map.
func (s *Scanner) Step() bool {
	if s.done {
		return true
	}
	width, height := s.world.MapSize()
	budget := s.tilesPerStep
	for s.x < width {
		for s.y < height {
			for _, el := range s.world.Elements(s.x, s.y) {
				if el.Kind == objects.ElementFootpath {
					s.record(objects.TypePathSurface, el.Surface, s.replace.Surfaces)
					s.record(objects.TypePathRailings, el.Railings, s.replace.Railings)
					s.record(objects.TypePathAddition, el.Addition, s.replace.Attachments)
				}
			}
			s.y++
			budget--
			if budget <= 0 {
				return false
			}
		}
		s.y = 0
		s.x++
	}

	for _, ride := range s.world.Rides() {
		replace := s.replace.Rides
		if ride.Stall {
			replace = s.replace.Stalls
		}
		s.record(objects.TypeRide, ride.Object, replace)
	}
	s.done = true
	return true
}

// Position returns the next tile to scan.
func (s *Scanner) Position() (x, y int) {
	return s.x, s.y
}

func (s *Scanner) record(t objects.ObjectType, index int, replaceable bool) {
	if index == objects.NoObject {
		return
	}
	s.alloc.MarkPresent(t, index)
	if replaceable {
		s.alloc.AddPreferential(t, index)
	} else {
		s.alloc.MarkForbidden(t, index)
	}
}
