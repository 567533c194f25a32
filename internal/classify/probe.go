package classify

import (
	"fmt"

	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
)

// ProbeError describes a probe that did not behave as expected.
type ProbeError struct {
	Identifier string
	Reason     string
}

// Error implements the error interface.
func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %s", e.Identifier, e.Reason)
}

// HostProber probes rides through a live host.
type HostProber struct {
	Objects  host.ObjectManager
	Research host.Research
}

// ProbeCategory loads obj into any free slot, reads the research entry the
// host generated for that slot, then unloads the object and removes the
// entry so the research lists end up as they started.
func (p *HostProber) ProbeCategory(obj objects.InstalledObject) (Probe, error) {
	loaded, ok := p.Objects.Load(obj.Identifier, -1)
	if !ok {
		return Probe{}, &ProbeError{Identifier: obj.Identifier, Reason: "load rejected"}
	}
	defer p.cleanup(obj.Identifier, loaded.Index)

	current, ok := p.Objects.Object(objects.TypeRide, loaded.Index)
	if !ok || current.Identifier != obj.Identifier {
		return Probe{}, &ProbeError{Identifier: obj.Identifier, Reason: "object vanished after load"}
	}

	item, ok := host.LastRideEntry(p.Research, loaded.Index)
	if !ok {
		return Probe{}, &ProbeError{Identifier: obj.Identifier, Reason: "no research entry in either list"}
	}
	return Probe{Category: item.Category, RideType: item.RideType, ShopItem: current.ShopItem}, nil
}

func (p *HostProber) cleanup(identifier string, index int) {
	p.Objects.Unload(identifier)
	host.PurgeRide(p.Research, index)
}

// SeedFromResearch classifies every ride that already has a research entry
// and returns the identifiers it seeded.
func SeedFromResearch(c *Classifier, om host.ObjectManager, r host.Research) []string {
	var seeded []string
	items := append(r.Uninvented(), r.Invented()...)
	for _, item := range items {
		if !item.IsRide() {
			continue
		}
		obj, ok := om.Object(objects.TypeRide, item.Object)
		if !ok {
			continue
		}
		if _, cached := c.Cached(obj.Identifier); cached {
			continue
		}
		if _, err := c.Seed(obj.Identifier, Probe{Category: item.Category, RideType: item.RideType, ShopItem: obj.ShopItem}); err != nil {
			c.logger.Error("cannot seed ride from research", "identifier", obj.Identifier, "error", err)
			continue
		}
		seeded = append(seeded, obj.Identifier)
	}
	return seeded
}
