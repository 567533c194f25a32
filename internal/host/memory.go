package host

import (
	"fmt"
	"sort"

	"github.com/roach88/osr/internal/objects"
)

// RideTraits are the properties the host reveals only once a ride object is
// loaded: the research entry it generates and what it sells.
type RideTraits struct {
	Category string
	RideType int
	ShopItem int
}

// Memory is an in-process Host.
//
// It reproduces the host behaviours the randomiser has to cope with:
//   - loading a ride appends a research entry for its slot to the invented list
//   - unloading leaves research entries pointing at the freed slot
//   - loading over an occupied slot evicts the occupant
//   - loads can be redirected to another slot or rejected outright
//
// Memory is not safe for concurrent use.
type Memory struct {
	installed map[string]objects.InstalledObject
	order     []string
	traits    map[string]RideTraits
	tables    map[objects.ObjectType][]string

	invented   []objects.ResearchItem
	uninvented []objects.ResearchItem

	width, height int
	tiles         map[[2]int][]objects.TileElement
	rides         []objects.WorldRide

	redirects map[string]int
	failing   map[string]bool

	// Loads and Unloads count calls for assertions.
	Loads   int
	Unloads int
}

// NewMemory creates an empty host with a width x height map.
func NewMemory(width, height int) *Memory {
	return &Memory{
		installed: make(map[string]objects.InstalledObject),
		traits:    make(map[string]RideTraits),
		tables:    make(map[objects.ObjectType][]string),
		width:     width,
		height:    height,
		tiles:     make(map[[2]int][]objects.TileElement),
		redirects: make(map[string]int),
		failing:   make(map[string]bool),
	}
}

// Install registers an installed object. Rides need traits.
func (m *Memory) Install(obj objects.InstalledObject, traits RideTraits) {
	if _, ok := m.installed[obj.Identifier]; !ok {
		m.order = append(m.order, obj.Identifier)
	}
	m.installed[obj.Identifier] = obj.Clone()
	if obj.Type == objects.TypeRide {
		m.traits[obj.Identifier] = traits
	}
}

// Place puts an installed object in a slot without generating research.
func (m *Memory) Place(identifier string, index int) error {
	obj, ok := m.installed[identifier]
	if !ok {
		return fmt.Errorf("place %s: not installed", identifier)
	}
	if !obj.Type.ValidSlot(index) {
		return fmt.Errorf("place %s: slot %d out of range for %s table", identifier, index, obj.Type)
	}
	m.clear(identifier)
	m.put(obj.Type, index, identifier)
	return nil
}

// AddElement appends a tile element at x, y.
func (m *Memory) AddElement(x, y int, el objects.TileElement) {
	key := [2]int{x, y}
	m.tiles[key] = append(m.tiles[key], el)
}

// AddRide records a ride built in the world.
func (m *Memory) AddRide(r objects.WorldRide) {
	m.rides = append(m.rides, r)
}

// RedirectNextLoad makes the next load of identifier land on index
// regardless of the slot requested.
func (m *Memory) RedirectNextLoad(identifier string, index int) {
	m.redirects[identifier] = index
}

// FailLoads makes every load of identifier fail.
func (m *Memory) FailLoads(identifier string) {
	m.failing[identifier] = true
}

// InstalledObjects implements ObjectManager.
func (m *Memory) InstalledObjects() []objects.InstalledObject {
	out := make([]objects.InstalledObject, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.installed[id].Clone())
	}
	return out
}

// Load implements ObjectManager.
func (m *Memory) Load(identifier string, index int) (objects.LoadedObject, bool) {
	m.Loads++
	obj, ok := m.installed[identifier]
	if !ok || m.failing[identifier] {
		return objects.LoadedObject{}, false
	}
	if slot, loaded := m.slotOf(obj.Type, identifier); loaded {
		return m.describe(obj.Type, slot), true
	}
	if to, ok := m.redirects[identifier]; ok {
		delete(m.redirects, identifier)
		index = to
	}
	if index < 0 {
		index = m.freeSlot(obj.Type)
	}
	if !obj.Type.ValidSlot(index) {
		return objects.LoadedObject{}, false
	}
	m.put(obj.Type, index, identifier)
	if obj.Type == objects.TypeRide {
		tr := m.traits[identifier]
		m.invented = append(m.invented, objects.ResearchItem{
			Kind:     objects.ResearchRide,
			Object:   index,
			Category: tr.Category,
			RideType: tr.RideType,
		})
	}
	return m.describe(obj.Type, index), true
}

// Unload implements ObjectManager.
func (m *Memory) Unload(identifier string) {
	m.Unloads++
	m.clear(identifier)
}

// UnloadAt implements ObjectManager.
func (m *Memory) UnloadAt(t objects.ObjectType, index int) {
	m.Unloads++
	table := m.tables[t]
	if index >= 0 && index < len(table) {
		table[index] = ""
	}
}

// Object implements ObjectManager.
func (m *Memory) Object(t objects.ObjectType, index int) (objects.LoadedObject, bool) {
	table := m.tables[t]
	if index < 0 || index >= len(table) || table[index] == "" {
		return objects.LoadedObject{}, false
	}
	return m.describe(t, index), true
}

// Loaded implements ObjectManager.
func (m *Memory) Loaded(t objects.ObjectType) []objects.LoadedObject {
	var out []objects.LoadedObject
	for i, id := range m.tables[t] {
		if id != "" {
			out = append(out, m.describe(t, i))
		}
	}
	return out
}

// LoadedIdentifiers lists every loaded identifier, sorted.
func (m *Memory) LoadedIdentifiers() []string {
	var out []string
	for _, table := range m.tables {
		for _, id := range table {
			if id != "" {
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Invented implements Research.
func (m *Memory) Invented() []objects.ResearchItem {
	return append([]objects.ResearchItem(nil), m.invented...)
}

// Uninvented implements Research.
func (m *Memory) Uninvented() []objects.ResearchItem {
	return append([]objects.ResearchItem(nil), m.uninvented...)
}

// SetInvented implements Research.
func (m *Memory) SetInvented(items []objects.ResearchItem) {
	m.invented = append([]objects.ResearchItem(nil), items...)
}

// SetUninvented implements Research.
func (m *Memory) SetUninvented(items []objects.ResearchItem) {
	m.uninvented = append([]objects.ResearchItem(nil), items...)
}

// MapSize implements World.
func (m *Memory) MapSize() (int, int) {
	return m.width, m.height
}

// Elements implements World.
func (m *Memory) Elements(x, y int) []objects.TileElement {
	return append([]objects.TileElement(nil), m.tiles[[2]int{x, y}]...)
}

// Rides implements World.
func (m *Memory) Rides() []objects.WorldRide {
	return append([]objects.WorldRide(nil), m.rides...)
}

func (m *Memory) describe(t objects.ObjectType, index int) objects.LoadedObject {
	id := m.tables[t][index]
	lo := objects.LoadedObject{Identifier: id, Type: t, Index: index, ShopItem: objects.NoShopItem}
	if t == objects.TypeRide {
		if tr, ok := m.traits[id]; ok && tr.Category == objects.CategoryShop {
			lo.ShopItem = tr.ShopItem
		}
	}
	return lo
}

func (m *Memory) slotOf(t objects.ObjectType, identifier string) (int, bool) {
	for i, id := range m.tables[t] {
		if id == identifier {
			return i, true
		}
	}
	return 0, false
}

func (m *Memory) freeSlot(t objects.ObjectType) int {
	for i, id := range m.tables[t] {
		if id == "" {
			return i
		}
	}
	return len(m.tables[t])
}

func (m *Memory) put(t objects.ObjectType, index int, identifier string) {
	table := m.tables[t]
	for len(table) <= index {
		table = append(table, "")
	}
	table[index] = identifier
	m.tables[t] = table
}

func (m *Memory) clear(identifier string) {
	obj, ok := m.installed[identifier]
	if !ok {
		return
	}
	if slot, loaded := m.slotOf(obj.Type, identifier); loaded {
		m.tables[obj.Type][slot] = ""
	}
}
