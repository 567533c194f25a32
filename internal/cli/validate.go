package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/osr/internal/config"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool // ignored options fail validation
}

// ValidationIssue is an error that stops an options file from being used.
type ValidationIssue struct {
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// IgnoredOption is an option a run would ignore.
type IgnoredOption struct {
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Seed    uint64            `json:"seed"`
	Options int               `json:"options"`
	Errors  []ValidationIssue `json:"errors,omitempty"`
	Ignored []IgnoredOption   `json:"ignored,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <options-file>",
		Short: "Validate an options file without running",
		Long: `Validate a YAML or CUE options file without running the randomiser.

CUE files are checked against the options schema. Unknown option keys and
values of the wrong kind are reported; a run would ignore them. With
--strict they fail validation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on options a run would ignore")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	formatter.VerboseLog("Validating %s", path)

	result := validateOptionsFile(path)
	if opts.Strict && len(result.Ignored) > 0 {
		result.Valid = false
	}

	if err := formatter.Emit(result, func(w io.Writer) {
		writeValidation(w, path, result)
	}); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func validateOptionsFile(path string) ValidationResult {
	file, err := config.Load(path)
	if err != nil {
		return ValidationResult{Errors: []ValidationIssue{issueFromError(err)}}
	}
	_, table, err := file.Settings()
	if err != nil {
		return ValidationResult{Seed: file.Seed, Errors: []ValidationIssue{issueFromError(err)}}
	}

	result := ValidationResult{
		Valid:   true,
		Seed:    file.Seed,
		Options: len(table.Keys()),
	}
	for _, p := range table.Check() {
		result.Ignored = append(result.Ignored, IgnoredOption{Key: p.Key, Reason: p.Reason})
	}
	return result
}

func issueFromError(err error) ValidationIssue {
	var fe *config.FileError
	if errors.As(err, &fe) && fe.Pos.IsValid() {
		return ValidationIssue{Message: fe.Message, Line: fe.Pos.Line(), Column: fe.Pos.Column()}
	}
	return ValidationIssue{Message: err.Error()}
}

func writeValidation(w io.Writer, path string, result ValidationResult) {
	for _, e := range result.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "%s:%d:%d: %s\n", path, e.Line, e.Column, e.Message)
		} else {
			fmt.Fprintf(w, "%s: %s\n", path, e.Message)
		}
	}
	for _, ig := range result.Ignored {
		fmt.Fprintf(w, "%s: ignored %s: %s\n", path, ig.Key, ig.Reason)
	}
	if result.Valid {
		fmt.Fprintf(w, "✓ %s is valid (%d options, seed %d)\n", path, result.Options, result.Seed)
	} else {
		fmt.Fprintf(w, "✗ %s is invalid\n", path)
	}
}
