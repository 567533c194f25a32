// Package config reads the options of a run.
//
// Options are a flat table keyed by the names the settings window stores
// them under (RandomiseParkEntrance, FoodStallAvailabilityCategory, ...).
// Missing keys take their default. Option files are YAML or CUE; CUE files
// are checked against an embedded schema before use.
package config

import (
	"fmt"
	"sort"
)

// Options is a table of option values. Values are bool or int.
type Options struct {
	values map[string]any
}

// NewOptions creates an empty table.
func NewOptions() *Options {
	return &Options{values: make(map[string]any)}
}

// FromMap copies values into a new table. Integer types are widened to int.
func FromMap(values map[string]any) (*Options, error) {
	o := NewOptions()
	for key, v := range values {
		if err := o.Set(key, v); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Set stores a value. Only booleans and integers are accepted.
func (o *Options) Set(key string, v any) error {
	switch val := v.(type) {
	case bool:
		o.values[key] = val
	case int:
		o.values[key] = val
	case int64:
		o.values[key] = int(val)
	case uint64:
		o.values[key] = int(val)
	default:
		return fmt.Errorf("option %s: unsupported value %v (%T)", key, v, v)
	}
	return nil
}

// Bool returns a boolean option, or def when it is unset or not a bool.
func (o *Options) Bool(key string, def bool) bool {
	if v, ok := o.values[key].(bool); ok {
		return v
	}
	return def
}

// Int returns an integer option, or def when it is unset or not an int.
func (o *Options) Int(key string, def int) int {
	if v, ok := o.values[key].(int); ok {
		return v
	}
	return def
}

// Has reports whether key is set.
func (o *Options) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Keys lists the set keys, sorted.
func (o *Options) Keys() []string {
	out := make([]string, 0, len(o.values))
	for key := range o.values {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Value returns the table as a canonical-JSON friendly map.
func (o *Options) Value() map[string]any {
	out := make(map[string]any, len(o.values))
	for key, v := range o.values {
		out[key] = v
	}
	return out
}

// Problem is an option that will be ignored.
type Problem struct {
	Key    string
	Reason string
}

func (p Problem) String() string {
	return p.Key + ": " + p.Reason
}

// Check lists keys that are unknown or hold the wrong kind of value.
func (o *Options) Check() []Problem {
	var out []Problem
	for _, key := range o.Keys() {
		kind, ok := KnownKey(key)
		if !ok {
			out = append(out, Problem{Key: key, Reason: "unknown option"})
			continue
		}
		_, isBool := o.values[key].(bool)
		if isBool != (kind == KindBool) {
			out = append(out, Problem{Key: key, Reason: "expected " + kind.String()})
		}
	}
	return out
}
