package objects

import "fmt"

// SourceGame tags the product an object originally shipped with.
type SourceGame string

const (
	SourceRCT1             SourceGame = "rct1"
	SourceAddedAttractions SourceGame = "added_attractions"
	SourceLoopyLandscapes  SourceGame = "loopy_landscapes"
	SourceRCT2             SourceGame = "rct2"
	SourceWackyWorlds      SourceGame = "wacky_worlds"
	SourceTimeTwister      SourceGame = "time_twister"
	SourceCustom           SourceGame = "custom"
	SourceOpenRCT2         SourceGame = "openrct2_official"
)

// SourceGames lists every source game, oldest release first.
// The order decides which game counts as an object's origin.
var SourceGames = []SourceGame{
	SourceRCT1, SourceAddedAttractions, SourceLoopyLandscapes, SourceRCT2,
	SourceWackyWorlds, SourceTimeTwister, SourceCustom, SourceOpenRCT2,
}

// ParseSourceGame validates a source game name.
func ParseSourceGame(s string) (SourceGame, error) {
	for _, g := range SourceGames {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown source game %q", s)
}

// InstalledObject is an immutable snapshot of one object the host has
// installed. It is copied out of the host so later load and unload calls
// cannot invalidate it.
type InstalledObject struct {
	Identifier  string       `json:"identifier"`
	Type        ObjectType   `json:"type"`
	SourceGames []SourceGame `json:"source_games"`
	Name        string       `json:"name"`
}

// Clone returns a deep copy of the snapshot.
func (o InstalledObject) Clone() InstalledObject {
	out := o
	if o.SourceGames != nil {
		out.SourceGames = make([]SourceGame, len(o.SourceGames))
		copy(out.SourceGames, o.SourceGames)
	}
	return out
}

// EarliestSource returns the oldest source game the object claims.
func (o InstalledObject) EarliestSource() (SourceGame, bool) {
	for _, g := range SourceGames {
		for _, own := range o.SourceGames {
			if own == g {
				return g, true
			}
		}
	}
	return "", false
}

// NoShopItem marks a ride that sells nothing.
const NoShopItem = 255

// LoadedObject describes what occupies one slot of an object table.
type LoadedObject struct {
	Identifier string
	Type       ObjectType
	Index      int
	// ShopItem is the item a stall sells; NoShopItem otherwise.
	ShopItem int
}

// ResearchKind distinguishes ride research from scenery research.
type ResearchKind int

const (
	ResearchRide ResearchKind = iota
	ResearchScenery
)

func (k ResearchKind) String() string {
	if k == ResearchScenery {
		return "scenery"
	}
	return "ride"
}

// CategoryShop is the research category shared by every stall.
const CategoryShop = "shop"

// ResearchItem is one entry of the host's research lists.
type ResearchItem struct {
	Kind     ResearchKind `json:"kind"`
	Object   int          `json:"object"`
	Category string       `json:"category"`
	RideType int          `json:"ride_type"`
}

// IsRide reports whether the entry refers to the ride table.
func (r ResearchItem) IsRide() bool {
	return r.Kind == ResearchRide
}

// IsShop reports whether the entry is a ride research entry for a stall.
func (r ResearchItem) IsShop() bool {
	return r.Kind == ResearchRide && r.Category == CategoryShop
}

// NoObject marks an absent object reference on a tile element.
const NoObject = -1

// ElementKind is the kind of tile element.
type ElementKind int

const (
	ElementOther ElementKind = iota
	ElementFootpath
)

// TileElement is the part of a host tile element the scanner reads.
type TileElement struct {
	Kind     ElementKind
	Surface  int
	Railings int
	Addition int
}

// WorldRide is a ride built in the world.
type WorldRide struct {
	ID     int
	Object int
	// Stall is true for rides that are shops or facilities.
	Stall bool
}
