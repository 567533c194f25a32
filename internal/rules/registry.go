// Package rules builds the association registry: which objects are
// blacklisted, which must always be loaded together and which may never be
// loaded together.
//
// A Registry is built once at the start of every run and is read-only
// afterwards. Exclusions are always stored in both directions.
package rules

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/osr/internal/objects"
)

//go:embed standard.yaml
var standardYAML []byte

// RuleSet is the static rule data, usually generated from the objects the
// game ships with.
type RuleSet struct {
	Compatibility             []string          `yaml:"compatibility"`
	InvisiblePaths            []string          `yaml:"invisible_paths"`
	EditorOnlyPaths           []string          `yaml:"editor_only_paths"`
	SlopeStairVariants        map[string]string `yaml:"slope_stair_variants"`
	SquareRoundedVariants     map[string]string `yaml:"square_rounded_variants"`
	CompatibilityReplacements map[string]string `yaml:"compatibility_replacements"`
	ResearchCategories        map[string]string `yaml:"research_categories"`
}

// Standard returns the embedded rule data.
func Standard() (RuleSet, error) {
	return ParseRuleSet(standardYAML)
}

// ParseRuleSet decodes rule data. Unknown fields are rejected.
func ParseRuleSet(data []byte) (RuleSet, error) {
	var rs RuleSet
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rule set: %w", err)
	}
	return rs, nil
}

// Flags toggles the optional rules.
type Flags struct {
	BlacklistCompatibility    bool
	BlacklistInvisiblePaths   bool
	BlacklistEditorOnlyPaths  bool
	PreventSlopeStairVariants bool
	PreventSquareRounded      bool
	PreventClassicDuplicates  bool
}

// Custom holds user-declared associations from the options file.
type Custom struct {
	Blacklist  []string            `yaml:"blacklist" json:"blacklist"`
	AlwaysWith map[string][]string `yaml:"always_with" json:"always_with"`
	NeverWith  map[string][]string `yaml:"never_with" json:"never_with"`
}

// Association is the per-identifier rule record.
type Association struct {
	Blacklisted bool
	AlwaysWith  []string
	NeverWith   []string
}

// Registry maps identifiers to their associations.
type Registry struct {
	entries map[string]*Association
}

// Build applies every enabled rule and the custom declarations.
func Build(rs RuleSet, flags Flags, custom Custom) *Registry {
	r := &Registry{entries: make(map[string]*Association)}

	if flags.BlacklistCompatibility {
		r.blacklist(rs.Compatibility...)
	}
	if flags.BlacklistInvisiblePaths {
		r.blacklist(rs.InvisiblePaths...)
	}
	if flags.BlacklistEditorOnlyPaths {
		r.blacklist(rs.EditorOnlyPaths...)
	}
	if flags.PreventSlopeStairVariants {
		r.excludePairs(rs.SlopeStairVariants)
	}
	if flags.PreventSquareRounded {
		r.excludePairs(rs.SquareRoundedVariants)
	}
	if flags.PreventClassicDuplicates {
		r.excludePairs(rs.CompatibilityReplacements)
	}

	r.blacklist(custom.Blacklist...)
	for _, id := range sortedKeys(custom.NeverWith) {
		for _, other := range custom.NeverWith[id] {
			r.exclude(id, other)
		}
	}
	for _, id := range sortedKeys(custom.AlwaysWith) {
		a := r.entry(id)
		for _, other := range custom.AlwaysWith[id] {
			if other != id {
				a.AlwaysWith = appendUnique(a.AlwaysWith, other)
			}
		}
	}
	return r
}

// Get returns a copy of the association for id.
func (r *Registry) Get(id string) (Association, bool) {
	a, ok := r.entries[id]
	if !ok {
		return Association{}, false
	}
	return Association{
		Blacklisted: a.Blacklisted,
		AlwaysWith:  append([]string(nil), a.AlwaysWith...),
		NeverWith:   append([]string(nil), a.NeverWith...),
	}, true
}

// Blacklisted reports whether id is excluded from every pool.
func (r *Registry) Blacklisted(id string) bool {
	a, ok := r.entries[id]
	return ok && a.Blacklisted
}

// NeverWith returns the identifiers that may not co-exist with id.
func (r *Registry) NeverWith(id string) []string {
	if a, ok := r.entries[id]; ok {
		return append([]string(nil), a.NeverWith...)
	}
	return nil
}

// AlwaysWith returns the identifiers that must be loaded alongside id.
func (r *Registry) AlwaysWith(id string) []string {
	if a, ok := r.entries[id]; ok {
		return append([]string(nil), a.AlwaysWith...)
	}
	return nil
}

// Excludes reports whether a and b may not co-exist.
func (r *Registry) Excludes(a, b string) bool {
	entry, ok := r.entries[a]
	if !ok {
		return false
	}
	for _, other := range entry.NeverWith {
		if other == b {
			return true
		}
	}
	return false
}

// Identifiers lists every identifier with an association, sorted.
func (r *Registry) Identifiers() []string {
	out := make([]string, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of identifiers with an association.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Snapshot renders the registry as canonical JSON.
func (r *Registry) Snapshot() ([]byte, error) {
	out := make(map[string]any, len(r.entries))
	for id, a := range r.entries {
		out[id] = map[string]any{
			"blacklisted": a.Blacklisted,
			"always_with": a.AlwaysWith,
			"never_with":  a.NeverWith,
		}
	}
	return objects.MarshalCanonical(out)
}

func (r *Registry) entry(id string) *Association {
	a, ok := r.entries[id]
	if !ok {
		a = &Association{AlwaysWith: []string{}, NeverWith: []string{}}
		r.entries[id] = a
	}
	return a
}

func (r *Registry) blacklist(ids ...string) {
	for _, id := range ids {
		r.entry(id).Blacklisted = true
	}
}

func (r *Registry) exclude(a, b string) {
	if a == b {
		return
	}
	ea, eb := r.entry(a), r.entry(b)
	ea.NeverWith = appendUnique(ea.NeverWith, b)
	eb.NeverWith = appendUnique(eb.NeverWith, a)
}

func (r *Registry) excludePairs(pairs map[string]string) {
	for _, a := range sortedKeys(pairs) {
		r.exclude(a, pairs[a])
	}
}

func appendUnique(list []string, id string) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
