package cli

import (
	"fmt"
	"os"

	"github.com/roach88/osr/internal/config"
	"github.com/roach88/osr/internal/host"
	"github.com/roach88/osr/internal/rules"
)

// readSnapshot builds an in-memory park from a JSON snapshot file.
func readSnapshot(path string) (*host.Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	m, err := host.ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// readRules reads rule data from path, or returns the standard rules when
// path is empty.
func readRules(path string) (rules.RuleSet, error) {
	if path == "" {
		return rules.Standard()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rules.RuleSet{}, fmt.Errorf("failed to read rules: %w", err)
	}
	return rules.ParseRuleSet(data)
}

// readOptions loads an options file. An empty path is an empty file: every
// option takes its default.
func readOptions(path string) (*config.File, error) {
	if path == "" {
		return &config.File{}, nil
	}
	return config.Load(path)
}
