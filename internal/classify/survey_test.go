package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
)

func TestSurveyHost_LeavesParkUntouched(t *testing.T) {
	m := host.NewMemory(1, 1)
	m.Install(ride("coaster.a"), host.RideTraits{Category: "rollercoaster", RideType: 1, ShopItem: objects.NoShopItem})
	m.Install(ride("coaster.b"), host.RideTraits{Category: "rollercoaster", RideType: 1, ShopItem: objects.NoShopItem})
	m.Install(ride("burger.a"), host.RideTraits{Category: objects.CategoryShop, RideType: 28, ShopItem: 6})
	m.Install(ride("loo.a"), host.RideTraits{Category: objects.CategoryShop, RideType: 30, ShopItem: objects.NoShopItem})
	m.Install(objects.InstalledObject{Identifier: "bench1", Type: objects.TypePathAddition}, host.RideTraits{})
	m.Install(objects.InstalledObject{Identifier: "jumping.fountain", Type: objects.TypePathAddition}, host.RideTraits{})
	require.NoError(t, m.Place("coaster.a", 0))
	require.NoError(t, m.Place("loo.a", 1))
	m.SetInvented([]objects.ResearchItem{{Kind: objects.ResearchRide, Object: 0, Category: "rollercoaster", RideType: 1}})

	c := New(&HostProber{Objects: m, Research: m}, nil, nil)
	s := SurveyHost(c, m)

	assert.Equal(t, []string{"coaster.a", "coaster.b"}, s.Types[objects.Rollercoaster])
	assert.Equal(t, []string{"burger.a"}, s.Types[objects.FoodStall])
	assert.Equal(t, []string{"bench1"}, s.Types[objects.Bench])
	assert.Equal(t, []string{"loo.a", "jumping.fountain"}, s.Unclassified)
	assert.Equal(t, 2, s.Probes, "coaster.b and burger.a")

	assert.Equal(t, []string{"coaster.a", "loo.a"}, m.LoadedIdentifiers())
	assert.Equal(t, []objects.ResearchItem{{Kind: objects.ResearchRide, Object: 0, Category: "rollercoaster", RideType: 1}}, m.Invented())
}

func TestSurvey_ValueOmitsEmptyTypes(t *testing.T) {
	s := Survey{Types: map[objects.DistributionType][]string{
		objects.Bench: {"bench1"},
		objects.Lamp:  nil,
	}}

	v := s.Value()

	assert.Equal(t, map[string]any{"bench": []string{"bench1"}}, v["types"])
	assert.Equal(t, []string{}, v["unclassified"])
	assert.Equal(t, 0, v["probes"])
}
