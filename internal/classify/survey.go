package classify

import (
	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/objects"
)

// Survey is the classification of every installed object.
type Survey struct {
	// Types lists identifiers per distribution type, in install order.
	Types map[objects.DistributionType][]string
	// Unclassified lists identifiers no rule or probe could place.
	Unclassified []string
	// Probes counts the transient loads the survey needed.
	Probes int
}

// SurveyHost classifies everything h has installed, leaving the park as it
// found it. Rides with a research entry are seeded from it; loaded rides
// without one are reported unclassified rather than probed, since the
// probe would unload them.
func SurveyHost(c *Classifier, h host.Host) Survey {
	out := Survey{Types: make(map[objects.DistributionType][]string)}
	SeedFromResearch(c, h, h)

	loaded := make(map[string]bool)
	for _, obj := range h.Loaded(objects.TypeRide) {
		loaded[obj.Identifier] = true
	}

	c.ResetProbes()
	for _, obj := range h.InstalledObjects() {
		if _, cached := c.Cached(obj.Identifier); !cached && obj.Type == objects.TypeRide && loaded[obj.Identifier] {
			out.Unclassified = append(out.Unclassified, obj.Identifier)
			continue
		}
		d, err := c.Classify(obj)
		if err != nil {
			out.Unclassified = append(out.Unclassified, obj.Identifier)
			continue
		}
		out.Types[d] = append(out.Types[d], obj.Identifier)
	}
	out.Probes = c.Probes()
	return out
}

// Value returns the survey as a canonical-JSON friendly map. Empty types
// are left out.
func (s Survey) Value() map[string]any {
	types := make(map[string]any, len(s.Types))
	for d, ids := range s.Types {
		if len(ids) > 0 {
			types[d.String()] = ids
		}
	}
	unclassified := s.Unclassified
	if unclassified == nil {
		unclassified = []string{}
	}
	return map[string]any{
		"types":        types,
		"unclassified": unclassified,
		"probes":       s.Probes,
	}
}
