package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/osr/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	RunID    string
	Object   string
	Limit    int
}

// RunRecord is one journaled run as the history command reports it.
type RunRecord struct {
	ID        string `json:"id"`
	Seed      uint64 `json:"seed"`
	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
	Ticks     int64  `json:"ticks"`
}

// StageRecord is a finished stage of a run.
type StageRecord struct {
	Seq    int64  `json:"seq"`
	Tick   int64  `json:"tick"`
	Stage  string `json:"stage"`
	Detail string `json:"detail,omitempty"`
}

// ObjectRecord is one load or unload.
type ObjectRecord struct {
	RunID      string `json:"run_id,omitempty"`
	Seq        int64  `json:"seq"`
	Tick       int64  `json:"tick"`
	Action     string `json:"action"`
	Identifier string `json:"identifier"`
	ObjectType string `json:"object_type"`
	Slot       int    `json:"slot"`
}

// RunDetail is everything the journal holds about one run.
type RunDetail struct {
	Run     RunRecord      `json:"run"`
	Stages  []StageRecord  `json:"stages"`
	Objects []ObjectRecord `json:"objects"`
	Loads   int            `json:"loads"`
	Unloads int            `json:"unloads"`
	Digest  string         `json:"digest,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query the run journal",
		Long: `Query a run journal written by "osr run --db".

Without --run or --object, lists the most recent runs. With --run, shows
the stages the run finished and every object it loaded or unloaded. With
--object, shows every load and unload of one identifier across all runs.

Examples:
  osr history --db ./osr.db
  osr history --db ./osr.db --run 019a3c6e-...
  osr history --db ./osr.db --object rct2.ride.twist1 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run")
	cmd.Flags().StringVar(&opts.Object, "object", "", "show the history of one object identifier")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to list (0 for all)")
	cmd.MarkFlagsMutuallyExclusive("run", "object")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	switch {
	case opts.RunID != "":
		detail, err := readRunDetail(ctx, st, opts.RunID)
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", opts.RunID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		return formatter.Emit(detail, func(w io.Writer) {
			writeRunDetail(w, detail, opts.Verbose)
		})

	case opts.Object != "":
		events, err := st.ObjectHistory(ctx, opts.Object)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read object history", err)
		}
		records := objectRecords(events, true)
		return formatter.Emit(records, func(w io.Writer) {
			writeObjectHistory(w, opts.Object, records)
		})

	default:
		runs, err := st.ListRuns(ctx, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		records := make([]RunRecord, 0, len(runs))
		for _, r := range runs {
			records = append(records, runRecord(r))
		}
		return formatter.Emit(records, func(w io.Writer) {
			writeRunList(w, records)
		})
	}
}

func readRunDetail(ctx context.Context, st *store.Store, id string) (RunDetail, error) {
	run, err := st.ReadRun(ctx, id)
	if err != nil {
		return RunDetail{}, err
	}
	stages, err := st.ReadStages(ctx, id)
	if err != nil {
		return RunDetail{}, err
	}
	events, err := st.ReadObjects(ctx, id)
	if err != nil {
		return RunDetail{}, err
	}
	loads, unloads, err := st.ObjectCounts(ctx, id)
	if err != nil {
		return RunDetail{}, err
	}

	detail := RunDetail{
		Run:     runRecord(run),
		Stages:  make([]StageRecord, 0, len(stages)),
		Objects: objectRecords(events, false),
		Loads:   loads,
		Unloads: unloads,
	}
	for _, s := range stages {
		detail.Stages = append(detail.Stages, StageRecord{Seq: s.Seq, Tick: s.Tick, Stage: s.Stage, Detail: s.Detail})
	}

	res, err := st.ReadResult(ctx, id)
	switch {
	case err == nil:
		detail.Digest = res.Digest
	case !errors.Is(err, sql.ErrNoRows):
		return RunDetail{}, err
	}
	return detail, nil
}

func runRecord(r store.Run) RunRecord {
	return RunRecord{
		ID:        r.ID,
		Seed:      r.Seed,
		Status:    r.Status,
		ErrorCode: r.ErrorCode,
		Message:   r.Message,
		Ticks:     r.Ticks,
	}
}

func objectRecords(events []store.ObjectEvent, withRun bool) []ObjectRecord {
	out := make([]ObjectRecord, 0, len(events))
	for _, e := range events {
		rec := ObjectRecord{
			Seq:        e.Seq,
			Tick:       e.Tick,
			Action:     e.Action,
			Identifier: e.Identifier,
			ObjectType: e.ObjectType,
			Slot:       e.Slot,
		}
		if withRun {
			rec.RunID = e.RunID
		}
		out = append(out, rec)
	}
	return out
}

func writeRunList(w io.Writer, runs []RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-9s  seed=%d  ticks=%d", truncateID(r.ID), r.Status, r.Seed, r.Ticks)
		if r.ErrorCode != "" {
			fmt.Fprintf(w, "  %s", r.ErrorCode)
		}
		fmt.Fprintln(w)
	}
}

func writeRunDetail(w io.Writer, d RunDetail, verbose bool) {
	fmt.Fprintf(w, "Run: %s\n", d.Run.ID)
	fmt.Fprintf(w, "Status: %s", d.Run.Status)
	if d.Run.ErrorCode != "" {
		fmt.Fprintf(w, " [%s] %s", d.Run.ErrorCode, d.Run.Message)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Seed: %d, ticks: %d\n", d.Run.Seed, d.Run.Ticks)
	if d.Digest != "" {
		fmt.Fprintf(w, "Digest: %s\n", d.Digest)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stages ===")
	if len(d.Stages) == 0 {
		fmt.Fprintln(w, "  (no stages finished)")
	}
	for _, s := range d.Stages {
		fmt.Fprintf(w, "  [%d] tick %d %s", s.Seq, s.Tick, s.Stage)
		if verbose && s.Detail != "" {
			fmt.Fprintf(w, ": %s", s.Detail)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "=== Objects (%d loads, %d unloads) ===\n", d.Loads, d.Unloads)
	if !verbose {
		return
	}
	for _, o := range d.Objects {
		fmt.Fprintf(w, "  [%d] tick %d %-6s %s (%s #%d)\n", o.Seq, o.Tick, o.Action, o.Identifier, o.ObjectType, o.Slot)
	}
}

func writeObjectHistory(w io.Writer, identifier string, records []ObjectRecord) {
	if len(records) == 0 {
		fmt.Fprintf(w, "No events found for object: %s\n", identifier)
		return
	}
	for _, o := range records {
		fmt.Fprintf(w, "%s  tick %d %-6s %s #%d\n", truncateID(o.RunID), o.Tick, o.Action, o.ObjectType, o.Slot)
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
