// Package research reorders the research queue so that each facility
// category becomes available when the run's requirements say it should.
//
// Time is measured in stall research entries: every shop entry in the
// uninvented list is one step, the first being time 0, and anything
// already invented is available at time -1.
package research

import (
	"fmt"
	"strings"

	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
)

// Category is a facility category with an availability requirement.
type Category int

const (
	FoodStall Category = iota
	DrinkStall
	Toilets
	FirstAid
	CashMachine
	InfoKiosk
)

// Categories lists every category in the order the solver visits them.
var Categories = []Category{FoodStall, DrinkStall, Toilets, FirstAid, CashMachine, InfoKiosk}

var categoryNames = [...]string{"foodstall", "drinkstall", "toilets", "first_aid", "cash_machine", "info_kiosk"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory accepts the names printed by String.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stall category %q", s)
}

// RideType returns the host ride type that identifies the category, or
// false for the food and drink categories, which are told apart by what
// they sell instead.
func (c Category) RideType() (int, bool) {
	switch c {
	case Toilets:
		return objects.RideTypeToilet, true
	case FirstAid:
		return objects.RideTypeFirstAid, true
	case CashMachine:
		return objects.RideTypeCashMachine, true
	case InfoKiosk:
		return objects.RideTypeInfoKiosk, true
	}
	return 0, false
}

// Availability is when a category becomes available, or a requirement on
// that time. Without HasTime a current availability means "not
// researchable at all" and a requirement means "unconstrained", or "never"
// when Strict is set.
type Availability struct {
	Strict  bool
	Time    int
	HasTime bool
}

// At returns an availability with a time.
func At(time int, strict bool) Availability {
	return Availability{Strict: strict, Time: time, HasTime: true}
}

// Never is the strict requirement that a category must not be available.
var Never = Availability{Strict: true}

func (a Availability) String() string {
	var b strings.Builder
	if a.Strict {
		b.WriteString("strict ")
	}
	if a.HasTime {
		fmt.Fprintf(&b, "%d", a.Time)
	} else {
		b.WriteString("none")
	}
	return b.String()
}

// Availabilities holds one entry per category.
type Availabilities [len(categoryNames)]Availability

func (as Availabilities) value() map[string]any {
	out := make(map[string]any, len(as))
	for _, c := range Categories {
		a := as[c]
		out[c.String()] = []any{a.Strict, a.HasTime, a.Time}
	}
	return out
}

// Categorizer names the category of a stall identifier.
type Categorizer interface {
	CategoryOf(identifier string) (Category, bool)
}

// Scan reports the current availability of every category: the time of
// the first shop entry of that category in the invented list, then the
// uninvented list.
func Scan(om host.ObjectManager, r host.Research, cat Categorizer) Availabilities {
	var out Availabilities
	visit := func(item objects.ResearchItem, time int) {
		obj, ok := om.Object(objects.TypeRide, item.Object)
		if !ok {
			return
		}
		c, ok := cat.CategoryOf(obj.Identifier)
		if !ok || out[c].HasTime {
			return
		}
		out[c] = At(time, false)
	}

	for _, item := range r.Invented() {
		if item.IsShop() {
			visit(item, -1)
		}
	}
	time := -1
	for _, item := range r.Uninvented() {
		if item.IsShop() {
			time++
			visit(item, time)
		}
	}
	return out
}
