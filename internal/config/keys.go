package config

import (
	"sort"

	"github.com/roach88/osr/internal/objects"
	"github.com/roach88/osr/internal/pool"
	"github.com/roach88/osr/internal/quantity"
	"github.com/roach88/osr/internal/research"
)

// Kind is the value type an option key holds.
type Kind int

const (
	KindBool Kind = iota
	KindInt
)

func (k Kind) String() string {
	if k == KindBool {
		return "bool"
	}
	return "int"
}

// Boolean option keys.
const (
	KeyRandomiseParkEntrance = "RandomiseParkEntrance"

	KeyRideReplace            = "RideReplaceExistingObjects"
	KeyStallReplace           = "StallReplaceExistingObjects"
	KeyPathSurfaceReplace     = "PathSurfaceReplaceExistingObjects"
	KeyPathSupportsReplace    = "PathSupportsReplaceExistingObjects"
	KeyPathAttachmentsReplace = "PathAttachmentsReplaceExistingObjects"

	KeyRuleCompatibility     = "AssociationRuleBlacklistCompatibilityObjects"
	KeyRuleStairSlope        = "AssociationRulePreventPathStairAndSlopeVariants"
	KeyRuleSquareRounded     = "AssociationRulePreventPathSquareAndRoundedVariants"
	KeyRuleInvisiblePath     = "AssociationRuleBlacklistInvisiblePath"
	KeyRuleEditorOnlyPath    = "AssociationRuleBlacklistEditorOnlyPath"
	KeyRuleClassicDuplicates = "AssociationRulePreventRideAndVehicleClassicDuplication"
)

// KeyDistribution selects copy-scenario (0) or manual (1) ride weights.
const KeyDistribution = "globalObjectDistributionDropdown"

// Defaults for keys whose zero value is not the default.
const (
	DefaultSourceWeight       = 100
	DefaultDistributionWeight = quantity.DefaultManualWeight
)

var boolKeys = []string{
	KeyRandomiseParkEntrance,
	KeyRideReplace, KeyStallReplace, KeyPathSurfaceReplace, KeyPathSupportsReplace, KeyPathAttachmentsReplace,
	KeyRuleCompatibility, KeyRuleStairSlope, KeyRuleSquareRounded,
	KeyRuleInvisiblePath, KeyRuleEditorOnlyPath, KeyRuleClassicDuplicates,
}

var stallPrefixes = map[research.Category]string{
	research.FoodStall:   "FoodStall",
	research.DrinkStall:  "DrinkStall",
	research.Toilets:     "Toilet",
	research.FirstAid:    "FirstAid",
	research.CashMachine: "CashMachine",
	research.InfoKiosk:   "InfoKiosk",
}

// StallKeys returns the requirement mode and earliness keys of a category.
func StallKeys(c research.Category) (mode, earliness string) {
	p := stallPrefixes[c]
	return p + "AvailabilityCategory", p + "AvailabilityEarliness"
}

// QuantityKeys returns the selection mode and value keys of a prefix.
func QuantityKeys(p quantity.Prefix) (mode, value string) {
	return string(p) + "QuantitySelection", string(p) + "QuantitySelectionValue"
}

// DistributionWeightKey returns the manual weight key of a ride type.
func DistributionWeightKey(d objects.DistributionType) string {
	return "globalObjectDistributionWeight" + d.String()
}

// PreferenceDropdownKey returns the dropdown key of a source preference.
func PreferenceDropdownKey(key string) string {
	return key + "SourcePreferenceDropdown"
}

// PreferenceWeightKey returns the manual weight key of one source game.
func PreferenceWeightKey(key string, g objects.SourceGame) string {
	return key + "SourcePreferenceWeight" + string(g)
}

var known = buildKnown()

func buildKnown() map[string]Kind {
	k := make(map[string]Kind)
	for _, key := range boolKeys {
		k[key] = KindBool
	}
	for _, c := range research.Categories {
		mode, earliness := StallKeys(c)
		k[mode] = KindInt
		k[earliness] = KindInt
	}
	for _, p := range quantity.Prefixes {
		mode, value := QuantityKeys(p)
		k[mode] = KindInt
		k[value] = KindInt
	}
	k[KeyDistribution] = KindInt
	for _, d := range objects.RideDistributionTypes {
		k[DistributionWeightKey(d)] = KindInt
	}
	for _, key := range pool.PreferenceKeys {
		k[PreferenceDropdownKey(key)] = KindInt
		for _, g := range objects.SourceGames {
			k[PreferenceWeightKey(key, g)] = KindInt
		}
	}
	return k
}

// KnownKey reports whether key is an option and what it holds.
func KnownKey(key string) (Kind, bool) {
	kind, ok := known[key]
	return kind, ok
}

// KnownKeys lists every option key, sorted.
func KnownKeys() []string {
	out := make([]string, 0, len(known))
	for key := range known {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
