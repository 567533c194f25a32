package host

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/roach88/osr/internal/objects"
)

// ParseSnapshot builds a Memory host from a JSON park dump.
//
// The dump has this shape (every section optional except map):
//
//	{
//	  "map": {"width": 64, "height": 64},
//	  "objects": [{"identifier": "rct2.ride.twist1", "type": "ride",
//	               "source_games": ["rct2"], "name": "Twist",
//	               "category": "thrill", "ride_type": 7, "shop_item": 255}],
//	  "loaded": [{"identifier": "rct2.ride.twist1", "index": 0}],
//	  "research": {"invented": [{"object": 0, "category": "thrill", "ride_type": 7}],
//	               "uninvented": []},
//	  "tiles": [{"x": 1, "y": 2, "surface": 0, "railings": 0, "addition": -1}],
//	  "rides": [{"id": 0, "object": 0, "stall": false}]
//	}
func ParseSnapshot(data []byte) (*Memory, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("snapshot is not valid JSON")
	}
	doc := gjson.ParseBytes(data)

	size := doc.Get("map")
	if !size.Exists() {
		return nil, fmt.Errorf("snapshot has no map section")
	}
	m := NewMemory(int(size.Get("width").Int()), int(size.Get("height").Int()))

	var parseErr error
	doc.Get("objects").ForEach(func(_, v gjson.Result) bool {
		obj, traits, err := parseObject(v)
		if err != nil {
			parseErr = err
			return false
		}
		m.Install(obj, traits)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	doc.Get("loaded").ForEach(func(_, v gjson.Result) bool {
		if err := m.Place(v.Get("identifier").String(), int(v.Get("index").Int())); err != nil {
			parseErr = fmt.Errorf("snapshot loaded: %w", err)
			return false
		}
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	m.SetInvented(parseResearch(doc.Get("research.invented")))
	m.SetUninvented(parseResearch(doc.Get("research.uninvented")))

	doc.Get("tiles").ForEach(func(_, v gjson.Result) bool {
		m.AddElement(int(v.Get("x").Int()), int(v.Get("y").Int()), objects.TileElement{
			Kind:     objects.ElementFootpath,
			Surface:  intOr(v.Get("surface"), objects.NoObject),
			Railings: intOr(v.Get("railings"), objects.NoObject),
			Addition: intOr(v.Get("addition"), objects.NoObject),
		})
		return true
	})

	doc.Get("rides").ForEach(func(_, v gjson.Result) bool {
		m.AddRide(objects.WorldRide{
			ID:     int(v.Get("id").Int()),
			Object: int(v.Get("object").Int()),
			Stall:  v.Get("stall").Bool(),
		})
		return true
	})

	return m, nil
}

func parseObject(v gjson.Result) (objects.InstalledObject, RideTraits, error) {
	id := v.Get("identifier").String()
	if id == "" {
		return objects.InstalledObject{}, RideTraits{}, fmt.Errorf("snapshot object without identifier: %s", v.Raw)
	}
	t, err := objects.ParseObjectType(v.Get("type").String())
	if err != nil {
		return objects.InstalledObject{}, RideTraits{}, fmt.Errorf("snapshot object %s: %w", id, err)
	}
	obj := objects.InstalledObject{Identifier: id, Type: t, Name: v.Get("name").String()}
	for _, g := range v.Get("source_games").Array() {
		game, err := objects.ParseSourceGame(g.String())
		if err != nil {
			return objects.InstalledObject{}, RideTraits{}, fmt.Errorf("snapshot object %s: %w", id, err)
		}
		obj.SourceGames = append(obj.SourceGames, game)
	}
	traits := RideTraits{
		Category: v.Get("category").String(),
		RideType: int(v.Get("ride_type").Int()),
		ShopItem: intOr(v.Get("shop_item"), objects.NoShopItem),
	}
	return obj, traits, nil
}

func parseResearch(list gjson.Result) []objects.ResearchItem {
	var items []objects.ResearchItem
	list.ForEach(func(_, v gjson.Result) bool {
		kind := objects.ResearchRide
		if v.Get("kind").String() == "scenery" {
			kind = objects.ResearchScenery
		}
		items = append(items, objects.ResearchItem{
			Kind:     kind,
			Object:   int(v.Get("object").Int()),
			Category: v.Get("category").String(),
			RideType: int(v.Get("ride_type").Int()),
		})
		return true
	})
	return items
}

func intOr(v gjson.Result, def int) int {
	if !v.Exists() {
		return def
	}
	return int(v.Int())
}
