package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/osr/internal/engine"
	"github.com/roach88/osr/internal/guard"
	"github.com/roach88/osr/internal/research"
	"github.com/roach88/osr/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Options  string
	Rules    string
	Database string
	Seed     uint64
	Tick     time.Duration

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// RunSummary is what the run command reports about a run.
type RunSummary struct {
	RunID        string            `json:"run_id"`
	Seed         uint64            `json:"seed"`
	Status       string            `json:"status"`
	Ticks        int64             `json:"ticks"`
	Loaded       []string          `json:"loaded"`
	Invented     int               `json:"invented"`
	Uninvented   int               `json:"uninvented"`
	Relaxed      []string          `json:"relaxed,omitempty"`
	Availability map[string]string `json:"availability"`
	Digest       string            `json:"digest"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <snapshot>",
		Short: "Randomise a park snapshot",
		Long: `Run the randomiser against a JSON park snapshot.

Options come from a YAML or CUE options file; without one every option
takes its default. With --db every stage and every object load or unload
is journaled to a SQLite database, which is created if it doesn't exist.

By default the run is stepped back to back. With --tick the run takes one
step per interval, the way it would inside the game.

Examples:
  osr run ./park.json
  osr run ./park.json --options ./options.yaml --seed 42
  osr run ./park.json --db ./osr.db --tick 40ms --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRandomise(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Options, "options", "", "path to options file (.yaml or .cue)")
	cmd.Flags().StringVar(&opts.Rules, "rules", "", "path to rule data (default: built-in rules)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (overrides the options file)")
	cmd.Flags().DurationVar(&opts.Tick, "tick", 0, "interval between steps (0 steps back to back)")

	return cmd
}

func runRandomise(opts *RunOptions, snapshotPath string, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd)
	formatter := newFormatter(opts.RootOptions, cmd)

	park, err := readSnapshot(snapshotPath)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSnapshot, err.Error(), nil)
	}

	file, err := readOptions(opts.Options)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeOptions, err.Error(), nil)
	}
	settings, table, err := file.Settings()
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeOptions, err.Error(), nil)
	}
	if cmd.Flags().Changed("seed") {
		settings.Seed = opts.Seed
	}
	for _, p := range table.Check() {
		logger.Warn("ignoring option", "key", p.Key, "reason", p.Reason)
	}

	rs, err := readRules(opts.Rules)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeRules, err.Error(), nil)
	}

	engineOpts := []engine.Option{engine.WithLogger(logger)}
	if opts.RunIDs != nil {
		engineOpts = append(engineOpts, engine.WithRunIDs(opts.RunIDs))
	}
	if opts.Database != "" {
		logger.Debug("opening journal", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		engineOpts = append(engineOpts, engine.WithRecorder(st))
	}

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	run, err := engine.New(engineOpts...).Start(ctx, engine.Input{
		Host:     park,
		Settings: settings,
		Options:  table,
		Rules:    &rs,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start run", err)
	}

	if opts.Tick > 0 {
		ticker := time.NewTicker(opts.Tick)
		defer ticker.Stop()
		err = run.Drive(ctx, ticker.C)
	} else {
		err = run.Finish(ctx)
	}

	progress := run.Progress()
	res, ok := run.Result()
	if !ok {
		code := string(guard.Code(err))
		if code == "" {
			code = ErrCodeRun
		}
		message := "run failed"
		if err != nil {
			message = err.Error()
		}
		details := map[string]string{"run_id": run.ID(), "stage": progress.Stage.String()}
		return formatter.Fail(ExitFailure, code, message, details)
	}

	summary := summarise(run.ID(), settings.Seed, progress.Tick, res)
	return formatter.Emit(summary, func(w io.Writer) {
		writeRunSummary(w, summary, opts.Verbose)
	})
}

// signalContext returns the command's context, cancelled on SIGINT or
// SIGTERM.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, cancelling run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func summarise(id string, seed uint64, ticks int64, res engine.Result) RunSummary {
	loaded := res.Loaded
	if loaded == nil {
		loaded = []string{}
	}
	s := RunSummary{
		RunID:        id,
		Seed:         seed,
		Status:       store.StatusCompleted,
		Ticks:        ticks,
		Loaded:       loaded,
		Invented:     len(res.Invented),
		Uninvented:   len(res.Uninvented),
		Availability: make(map[string]string, len(research.Categories)),
		Digest:       res.Digest,
	}
	for _, c := range res.Relaxed {
		s.Relaxed = append(s.Relaxed, c.String())
	}
	for _, c := range research.Categories {
		s.Availability[c.String()] = res.Availability[c].String()
	}
	return s
}

func writeRunSummary(w io.Writer, s RunSummary, verbose bool) {
	fmt.Fprintf(w, "Run %s completed in %d ticks (seed %d)\n", s.RunID, s.Ticks, s.Seed)
	fmt.Fprintf(w, "Digest: %s\n", s.Digest)
	fmt.Fprintf(w, "Research: %d invented, %d uninvented\n", s.Invented, s.Uninvented)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stall availability ===")
	for _, c := range research.Categories {
		fmt.Fprintf(w, "  %-12s %s\n", c.String(), s.Availability[c.String()])
	}
	if len(s.Relaxed) > 0 {
		fmt.Fprintf(w, "  relaxed: %v\n", s.Relaxed)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "=== Loaded (%d) ===\n", len(s.Loaded))
	if !verbose {
		fmt.Fprintln(w, "  (use --verbose to list)")
		return
	}
	for _, id := range s.Loaded {
		fmt.Fprintf(w, "  %s\n", id)
	}
}
