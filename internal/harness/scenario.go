package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/osr/internal/config"
	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
)

// Scenario defines one randomiser run against a known park and what the
// park must look like afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the run ID and
	// the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Park describes the park inline. Exactly one of Park and Snapshot is
	// set.
	Park *Park `yaml:"park,omitempty"`

	// Snapshot is a JSON park dump, relative to the scenario file.
	Snapshot string `yaml:"snapshot,omitempty"`

	// Rules is a rule data file relative to the scenario file. Empty means
	// the standard rules.
	Rules string `yaml:"rules,omitempty"`

	// The seed, option table, custom associations and engine tuning, in
	// the same shape as an options file.
	config.File `yaml:",inline"`

	// Expect is the outcome of the run.
	Expect Expect `yaml:"expect"`

	// Assertions validate the park after the run.
	Assertions []Assertion `yaml:"assertions"`

	dir string
}

// Park is an inline park description.
type Park struct {
	Width     int           `yaml:"width"`
	Height    int           `yaml:"height"`
	Objects   []ParkObject  `yaml:"objects"`
	Loaded    []Placement   `yaml:"loaded,omitempty"`
	Research  ResearchLists `yaml:"research,omitempty"`
	Tiles     []Tile        `yaml:"tiles,omitempty"`
	Rides     []BuiltRide   `yaml:"rides,omitempty"`
	FailLoads []string      `yaml:"fail_loads,omitempty"`
}

// ParkObject is one installed object. Category, ride type and shop item
// only apply to rides.
type ParkObject struct {
	Identifier  string   `yaml:"identifier"`
	Type        string   `yaml:"type"`
	Name        string   `yaml:"name,omitempty"`
	SourceGames []string `yaml:"source_games,omitempty"`
	Category    string   `yaml:"category,omitempty"`
	RideType    int      `yaml:"ride_type,omitempty"`
	ShopItem    *int     `yaml:"shop_item,omitempty"`
}

// Placement puts an object in a slot before the run.
type Placement struct {
	Identifier string `yaml:"identifier"`
	Index      int    `yaml:"index"`
}

// ResearchLists are the research lists before the run.
type ResearchLists struct {
	Invented   []ResearchEntry `yaml:"invented,omitempty"`
	Uninvented []ResearchEntry `yaml:"uninvented,omitempty"`
}

// ResearchEntry is one research list item. Kind defaults to ride.
type ResearchEntry struct {
	Kind     string `yaml:"kind,omitempty"`
	Object   int    `yaml:"object"`
	Category string `yaml:"category"`
	RideType int    `yaml:"ride_type,omitempty"`
}

// Tile is a footpath element. Absent references mean no object.
type Tile struct {
	X        int  `yaml:"x"`
	Y        int  `yaml:"y"`
	Surface  *int `yaml:"surface,omitempty"`
	Railings *int `yaml:"railings,omitempty"`
	Addition *int `yaml:"addition,omitempty"`
}

// BuiltRide is a ride built in the world.
type BuiltRide struct {
	ID     int  `yaml:"id"`
	Object int  `yaml:"object"`
	Stall  bool `yaml:"stall,omitempty"`
}

// Expect is the expected outcome of a run.
type Expect struct {
	// Outcome is "completed" (the default) or "failed".
	Outcome string `yaml:"outcome,omitempty"`
	// Code is the error code of a failed run.
	Code string `yaml:"code,omitempty"`
	// Stage is the stage a failed run stopped in.
	Stage string `yaml:"stage,omitempty"`
}

// Outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// LoadScenario reads and validates a scenario file. Snapshot and rule
// paths are resolved relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	sc.dir = filepath.Dir(path)
	return sc, nil
}

// ParseScenario decodes and validates a scenario. Unknown fields are
// rejected to catch typos.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if (s.Park == nil) == (s.Snapshot == "") {
		return fmt.Errorf("exactly one of park and snapshot is required")
	}
	switch s.Expect.Outcome {
	case "", OutcomeCompleted:
		if s.Expect.Code != "" {
			return fmt.Errorf("expect.code only applies to failed runs")
		}
	case OutcomeFailed:
	default:
		return fmt.Errorf("expect.outcome: unknown outcome %q", s.Expect.Outcome)
	}
	if s.Park != nil {
		if s.Park.Width <= 0 || s.Park.Height <= 0 {
			return fmt.Errorf("park: width and height must be positive")
		}
		for i, obj := range s.Park.Objects {
			if obj.Identifier == "" {
				return fmt.Errorf("park.objects[%d]: identifier is required", i)
			}
			if _, err := objects.ParseObjectType(obj.Type); err != nil {
				return fmt.Errorf("park.objects[%d]: %w", i, err)
			}
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

// resolve joins a scenario-relative path onto the scenario directory.
func (s *Scenario) resolve(path string) string {
	if filepath.IsAbs(path) || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}

// Host builds a fresh host for the scenario's park.
func (s *Scenario) Host() (*host.Memory, error) {
	if s.Snapshot != "" {
		data, err := os.ReadFile(s.resolve(s.Snapshot))
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}
		return host.ParseSnapshot(data)
	}
	return s.Park.build()
}

func (p *Park) build() (*host.Memory, error) {
	m := host.NewMemory(p.Width, p.Height)
	for _, po := range p.Objects {
		obj, traits, err := po.object()
		if err != nil {
			return nil, err
		}
		m.Install(obj, traits)
	}
	for _, pl := range p.Loaded {
		if err := m.Place(pl.Identifier, pl.Index); err != nil {
			return nil, fmt.Errorf("park.loaded: %w", err)
		}
	}
	m.SetInvented(researchItems(p.Research.Invented))
	m.SetUninvented(researchItems(p.Research.Uninvented))
	for _, t := range p.Tiles {
		m.AddElement(t.X, t.Y, objects.TileElement{
			Kind:     objects.ElementFootpath,
			Surface:  refOrNone(t.Surface),
			Railings: refOrNone(t.Railings),
			Addition: refOrNone(t.Addition),
		})
	}
	for _, r := range p.Rides {
		m.AddRide(objects.WorldRide{ID: r.ID, Object: r.Object, Stall: r.Stall})
	}
	for _, id := range p.FailLoads {
		m.FailLoads(id)
	}
	return m, nil
}

func (po ParkObject) object() (objects.InstalledObject, host.RideTraits, error) {
	t, err := objects.ParseObjectType(po.Type)
	if err != nil {
		return objects.InstalledObject{}, host.RideTraits{}, fmt.Errorf("object %s: %w", po.Identifier, err)
	}
	obj := objects.InstalledObject{Identifier: po.Identifier, Type: t, Name: po.Name}
	for _, g := range po.SourceGames {
		game, err := objects.ParseSourceGame(g)
		if err != nil {
			return objects.InstalledObject{}, host.RideTraits{}, fmt.Errorf("object %s: %w", po.Identifier, err)
		}
		obj.SourceGames = append(obj.SourceGames, game)
	}
	traits := host.RideTraits{Category: po.Category, RideType: po.RideType, ShopItem: objects.NoShopItem}
	if po.ShopItem != nil {
		traits.ShopItem = *po.ShopItem
	}
	return obj, traits, nil
}

func researchItems(entries []ResearchEntry) []objects.ResearchItem {
	var out []objects.ResearchItem
	for _, e := range entries {
		kind := objects.ResearchRide
		if e.Kind == "scenery" {
			kind = objects.ResearchScenery
		}
		out = append(out, objects.ResearchItem{Kind: kind, Object: e.Object, Category: e.Category, RideType: e.RideType})
	}
	return out
}

func refOrNone(ref *int) int {
	if ref == nil {
		return objects.NoObject
	}
	return *ref
}
