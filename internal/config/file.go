package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/osr/internal/rules"
)

//go:embed schema.cue
var schemaCUE string

// Engine tunes how a run is spread over ticks.
type Engine struct {
	// ProbesPerTick caps ride classification probes per tick. At least 2.
	ProbesPerTick int `yaml:"probes_per_tick" json:"probes_per_tick"`
	// TilesPerStep is how many map tiles the world scan inspects per tick.
	TilesPerStep int `yaml:"tiles_per_step" json:"tiles_per_step"`
	// MaxSolverIterations bounds the research solver's outer passes.
	MaxSolverIterations int `yaml:"max_solver_iterations" json:"max_solver_iterations"`
}

// File is an options file.
type File struct {
	Seed         uint64         `yaml:"seed" json:"seed"`
	Options      map[string]any `yaml:"options" json:"-"`
	Associations rules.Custom   `yaml:"associations" json:"associations"`
	Engine       Engine         `yaml:"engine" json:"engine"`
}

// FileError is a problem in an options file, with a position when the
// parser reported one.
type FileError struct {
	Message string
	Pos     token.Pos
}

func (e *FileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Load reads an options file. The extension picks the format: .cue for
// CUE, anything else is YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".cue") {
		return ParseCUE(path, data)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a YAML options file. Unknown top-level fields are
// rejected.
func ParseYAML(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &f, nil
}

// ParseCUE evaluates a CUE options file against the embedded schema.
func ParseCUE(filename string, data []byte) (*File, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile options schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v = schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var f File
	if err := v.Decode(&f); err != nil {
		return nil, formatCUEError(err)
	}
	opts, err := cueOptions(v.LookupPath(cue.ParsePath("options")))
	if err != nil {
		return nil, err
	}
	f.Options = opts
	return &f, nil
}

func cueOptions(v cue.Value) (map[string]any, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	out := make(map[string]any)
	for iter.Next() {
		val := iter.Value()
		switch val.Kind() {
		case cue.BoolKind:
			b, err := val.Bool()
			if err != nil {
				return nil, formatCUEError(err)
			}
			out[iter.Label()] = b
		case cue.IntKind:
			n, err := val.Int64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			out[iter.Label()] = n
		default:
			return nil, &FileError{Message: fmt.Sprintf("option %s must be bool or int", iter.Label()), Pos: val.Pos()}
		}
	}
	return out, nil
}

// formatCUEError keeps the first CUE error with its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &FileError{Message: first.Error(), Pos: positions[0]}
	}
	return &FileError{Message: first.Error()}
}
