package objects

import "fmt"

// ObjectType is the host's coarse object-table category.
type ObjectType int

const (
	ObjectTypeUnknown ObjectType = iota
	TypeRide
	TypePathAddition
	TypePathSurface
	TypePathRailings
	TypeParkEntrance
)

// ObjectTypes lists every supported object-table category in host order.
var ObjectTypes = []ObjectType{TypeRide, TypePathAddition, TypePathSurface, TypePathRailings, TypeParkEntrance}

var objectTypeNames = map[ObjectType]string{
	TypeRide:         "ride",
	TypePathAddition: "footpath_addition",
	TypePathSurface:  "footpath_surface",
	TypePathRailings: "footpath_railings",
	TypeParkEntrance: "park_entrance",
}

func (t ObjectType) String() string {
	if name, ok := objectTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Object table sizes of the host.
const (
	MaxRideObjects = 2000
	MaxPathObjects = 255
)

// Slots returns how many slots the host's table for t has.
func (t ObjectType) Slots() int {
	switch t {
	case TypeRide:
		return MaxRideObjects
	case TypePathAddition, TypePathSurface, TypePathRailings, TypeParkEntrance:
		return MaxPathObjects
	}
	return 0
}

// ValidSlot reports whether index is a slot of t's table.
func (t ObjectType) ValidSlot(index int) bool {
	return index >= 0 && index < t.Slots()
}

// ParseObjectType maps the host API name of an object type back to the enum.
func ParseObjectType(s string) (ObjectType, error) {
	for t, name := range objectTypeNames {
		if name == s {
			return t, nil
		}
	}
	return ObjectTypeUnknown, fmt.Errorf("unknown object type %q", s)
}

// DistributionType is the semantic bucket an installed object is pooled and
// allocated under. Unknown is the transient unclassified state.
type DistributionType int

const (
	Unknown DistributionType = iota
	Transport
	Gentle
	Thrill
	Water
	Rollercoaster
	FoodStall
	DrinkStall
	OtherStall
	Bin
	Lamp
	Bench
	Entrance
	NonQueueSurface
	QueueSurface
	Railings
)

// RideDistributionTypes are the buckets backed by the ride object table.
var RideDistributionTypes = []DistributionType{Transport, Gentle, Thrill, Water, Rollercoaster, FoodStall, DrinkStall, OtherStall}

// NonRideDistributionTypes are the buckets backed by every other table.
var NonRideDistributionTypes = []DistributionType{Bin, Lamp, Bench, Entrance, NonQueueSurface, QueueSurface, Railings}

// DistributionTypes lists every classified bucket, rides first.
var DistributionTypes = append(append([]DistributionType{}, RideDistributionTypes...), NonRideDistributionTypes...)

var distributionNames = map[DistributionType]string{
	Transport:       "transport",
	Gentle:          "gentle",
	Thrill:          "thrill",
	Water:           "water",
	Rollercoaster:   "rollercoaster",
	FoodStall:       "foodstall",
	DrinkStall:      "drinkstall",
	OtherStall:      "otherstall",
	Bin:             "bin",
	Lamp:            "lamp",
	Bench:           "bench",
	Entrance:        "park_entrance",
	NonQueueSurface: "nonqueue_surface",
	QueueSurface:    "queue_surface",
	Railings:        "footpath_railings",
}

func (d DistributionType) String() string {
	if name, ok := distributionNames[d]; ok {
		return name
	}
	return "unknown"
}

// ParseDistributionType accepts the names used in option keys and snapshots.
func ParseDistributionType(s string) (DistributionType, error) {
	for d, name := range distributionNames {
		if name == s {
			return d, nil
		}
	}
	return Unknown, fmt.Errorf("unknown distribution type %q", s)
}

// ObjectType returns the object-table category that holds objects of this
// distribution type.
func (d DistributionType) ObjectType() ObjectType {
	switch d {
	case Transport, Gentle, Thrill, Water, Rollercoaster, FoodStall, DrinkStall, OtherStall:
		return TypeRide
	case Bin, Lamp, Bench:
		return TypePathAddition
	case Entrance:
		return TypeParkEntrance
	case NonQueueSurface, QueueSurface:
		return TypePathSurface
	case Railings:
		return TypePathRailings
	case Unknown:
		return ObjectTypeUnknown
	}
	return ObjectTypeUnknown
}

// IsRide reports whether the type lives in the ride table.
func (d DistributionType) IsRide() bool {
	return d.ObjectType() == TypeRide
}

// IsStall reports whether the type is one of the three stall buckets.
func (d DistributionType) IsStall() bool {
	return d == FoodStall || d == DrinkStall || d == OtherStall
}

// RideCategoryDistribution maps a non-shop research category to its ride
// bucket. Shop categories need the sold item and are not handled here.
func RideCategoryDistribution(category string) (DistributionType, bool) {
	switch category {
	case "transport":
		return Transport, true
	case "gentle":
		return Gentle, true
	case "thrill":
		return Thrill, true
	case "water":
		return Water, true
	case "rollercoaster":
		return Rollercoaster, true
	}
	return Unknown, false
}
