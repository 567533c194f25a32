// Package classify sorts installed objects into distribution types.
//
// Non-ride objects are classified from their table and identifier. Rides
// only reveal their category through the research entry the host creates
// when they are loaded, so unclassified rides are probed: loaded, inspected
// and unloaded again. Probing is expensive, so the Classifier counts probes
// and callers cap them per tick.
package classify

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/osr/internal/objects"
)

// ErrUnclassifiable is returned for objects no rule can place in a bucket.
var ErrUnclassifiable = errors.New("object cannot be classified")

// Probe is what a transient load reveals about a ride.
type Probe struct {
	Category string
	RideType int
	ShopItem int
}

// Prober discovers a ride's research category by loading it.
type Prober interface {
	ProbeCategory(obj objects.InstalledObject) (Probe, error)
}

// Classifier caches the distribution type of every object it has seen.
type Classifier struct {
	prober       Prober
	pregenerated map[string]string
	logger       *slog.Logger

	cache            map[string]objects.DistributionType
	failed           map[string]error
	stallsByRideType map[int][]string
	probes           int
}

// New creates a classifier. pregenerated maps identifiers to their known
// research category so non-shop rides skip the probe.
func New(prober Prober, pregenerated map[string]string, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		prober:           prober,
		pregenerated:     pregenerated,
		logger:           logger,
		cache:            make(map[string]objects.DistributionType),
		failed:           make(map[string]error),
		stallsByRideType: make(map[int][]string),
	}
}

// Classify returns the distribution type of obj.
//
// Results are cached: a second call for the same identifier never probes
// again, and a failed probe keeps failing with the same error.
func (c *Classifier) Classify(obj objects.InstalledObject) (objects.DistributionType, error) {
	if d, ok := c.cache[obj.Identifier]; ok {
		return d, nil
	}
	if err, ok := c.failed[obj.Identifier]; ok {
		return objects.Unknown, err
	}

	if obj.Type != objects.TypeRide {
		d, ok := NonRide(obj)
		if !ok {
			err := fmt.Errorf("%w: %s %s", ErrUnclassifiable, obj.Type, obj.Identifier)
			c.logger.Info("cannot categorise object", "identifier", obj.Identifier, "type", obj.Type.String(), "name", obj.Name)
			c.failed[obj.Identifier] = err
			return objects.Unknown, err
		}
		c.cache[obj.Identifier] = d
		return d, nil
	}

	if category, ok := c.pregenerated[obj.Identifier]; ok && category != objects.CategoryShop {
		if d, ok := objects.RideCategoryDistribution(category); ok {
			c.cache[obj.Identifier] = d
			return d, nil
		}
	}

	c.probes++
	c.logger.Info("probing ride for research category", "identifier", obj.Identifier)
	p, err := c.prober.ProbeCategory(obj)
	if err != nil {
		err = fmt.Errorf("classify %s: %w", obj.Identifier, err)
		c.logger.Error("probe failed, object excluded", "identifier", obj.Identifier, "error", err)
		c.failed[obj.Identifier] = err
		return objects.Unknown, err
	}
	d, err := c.record(obj.Identifier, p)
	if err != nil {
		c.failed[obj.Identifier] = err
		return objects.Unknown, err
	}
	return d, nil
}

// Seed records a ride's type from a research entry that already exists, so
// loaded rides never need probing.
func (c *Classifier) Seed(identifier string, p Probe) (objects.DistributionType, error) {
	if d, ok := c.cache[identifier]; ok {
		return d, nil
	}
	return c.record(identifier, p)
}

func (c *Classifier) record(identifier string, p Probe) (objects.DistributionType, error) {
	var d objects.DistributionType
	if p.Category == objects.CategoryShop {
		var known bool
		d, known = objects.StallForShopItem(p.ShopItem)
		if !known {
			c.logger.Warn("unknown shop item, assuming other stall", "identifier", identifier, "shop_item", p.ShopItem)
		}
		c.stallsByRideType[p.RideType] = appendUnique(c.stallsByRideType[p.RideType], identifier)
	} else {
		var ok bool
		d, ok = objects.RideCategoryDistribution(p.Category)
		if !ok {
			return objects.Unknown, fmt.Errorf("%w: ride %s has research category %q", ErrUnclassifiable, identifier, p.Category)
		}
	}
	c.cache[identifier] = d
	return d, nil
}

// Cached returns a previously computed type without probing.
func (c *Classifier) Cached(identifier string) (objects.DistributionType, bool) {
	d, ok := c.cache[identifier]
	return d, ok
}

// StallsForRideType returns stall identifiers seen with the ride type code.
func (c *Classifier) StallsForRideType(rideType int) []string {
	return append([]string(nil), c.stallsByRideType[rideType]...)
}

// Probes returns how many probes ran since the last ResetProbes.
func (c *Classifier) Probes() int {
	return c.probes
}

// ResetProbes starts a new per-tick probe count.
func (c *Classifier) ResetProbes() {
	c.probes = 0
}

// NonRide classifies objects outside the ride table from their table and
// identifier. Path additions that are not benches, lamps or bins are not
// distributed.
func NonRide(obj objects.InstalledObject) (objects.DistributionType, bool) {
	switch obj.Type {
	case objects.TypeParkEntrance:
		return objects.Entrance, true
	case objects.TypePathRailings:
		return objects.Railings, true
	case objects.TypePathSurface:
		if strings.Contains(obj.Identifier, "queue") {
			return objects.QueueSurface, true
		}
		return objects.NonQueueSurface, true
	case objects.TypePathAddition:
		switch {
		case strings.Contains(obj.Identifier, "bench"):
			return objects.Bench, true
		case strings.Contains(obj.Identifier, "lamp"):
			return objects.Lamp, true
		case strings.Contains(obj.Identifier, "litter"):
			return objects.Bin, true
		}
	}
	return objects.Unknown, false
}

func appendUnique(list []string, id string) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}
