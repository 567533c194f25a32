package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/osr/internal/classify"
	"github.com/roach88/osr/internal/objects"
)

// ClassifyOptions holds flags for the classify command.
type ClassifyOptions struct {
	*RootOptions
	Rules string
}

// NewClassifyCommand creates the classify command.
func NewClassifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClassifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "classify <snapshot>",
		Short: "Show how every installed object would be pooled",
		Long: `Classify every object a park snapshot has installed, the way the first
stages of a run would, without randomising anything.

Rides known from the rule data or the research lists need no probe. Other
rides are probed by loading them into a free slot; a loaded ride with no
research entry is reported unclassified instead, since probing it would
unload it.

Examples:
  osr classify ./park.json
  osr classify ./park.json --rules ./rules.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "path to rule data (default: built-in rules)")

	return cmd
}

func runClassify(opts *ClassifyOptions, snapshotPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	park, err := readSnapshot(snapshotPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSnapshot, err.Error(), nil)
	}
	rs, err := readRules(opts.Rules)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeRules, err.Error(), nil)
	}

	c := classify.New(&classify.HostProber{Objects: park, Research: park}, rs.ResearchCategories, newLogger(opts.RootOptions, cmd))
	survey := classify.SurveyHost(c, park)
	formatter.VerboseLog("Classified %d objects with %d probes", len(park.InstalledObjects()), survey.Probes)

	return formatter.Emit(survey.Value(), func(w io.Writer) {
		writeSurvey(w, survey)
	})
}

func writeSurvey(w io.Writer, s classify.Survey) {
	for _, d := range objects.DistributionTypes {
		ids := s.Types[d]
		if len(ids) == 0 {
			continue
		}
		fmt.Fprintf(w, "%-18s %s\n", d.String(), strings.Join(ids, ", "))
	}
	if len(s.Unclassified) > 0 {
		fmt.Fprintf(w, "%-18s %s\n", "unclassified", strings.Join(s.Unclassified, ", "))
	}
	fmt.Fprintf(w, "\n%d probe(s)\n", s.Probes)
}
