package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/osr/internal/engine"
	"github.com/roach88/osr/internal/harness"
	"github.com/roach88/osr/internal/store"
)

type runResponse struct {
	Status string     `json:"status"`
	Data   RunSummary `json:"data"`
	Error  *CLIError  `json:"error"`
}

// execRun runs the run command with a fixed run ID and returns stdout.
func execRun(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: format},
		RunIDs:      engine.NewFixedGenerator("cli-run"),
	}
	cmd := newRunCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decodeRun(t *testing.T, out string) runResponse {
	t.Helper()
	var resp runResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

// snapshotDigest is the digest the harness gets for the same park and seed.
func snapshotDigest(t *testing.T) string {
	t.Helper()
	sc, err := harness.LoadScenario("../harness/testdata/scenarios/small_park_snapshot.yaml")
	require.NoError(t, err)
	res, err := harness.Run(context.Background(), sc)
	require.NoError(t, err)
	require.Equal(t, harness.OutcomeCompleted, res.Outcome)
	return res.Digest
}

func TestRunCommand_MatchesHarness(t *testing.T) {
	out, err := execRun(t, "json", "testdata/park.json", "--seed", "3")
	require.NoError(t, err)

	resp := decodeRun(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "cli-run", resp.Data.RunID)
	assert.Equal(t, uint64(3), resp.Data.Seed)
	assert.Equal(t, store.StatusCompleted, resp.Data.Status)
	assert.Contains(t, resp.Data.Loaded, "coaster.a")
	assert.Contains(t, resp.Data.Loaded, "rct2.park_entrance.pkent1")
	assert.Equal(t, "0", resp.Data.Availability["foodstall"])
	assert.Equal(t, "none", resp.Data.Availability["drinkstall"])
	assert.Equal(t, snapshotDigest(t), resp.Data.Digest)
}

func TestRunCommand_OptionsFiles(t *testing.T) {
	want := snapshotDigest(t)

	for _, name := range []string{"options.yaml", "options.cue"} {
		t.Run(name, func(t *testing.T) {
			out, err := execRun(t, "json", "testdata/park.json", "--options", filepath.Join("testdata", name))
			require.NoError(t, err)

			resp := decodeRun(t, out)
			assert.Equal(t, uint64(3), resp.Data.Seed)
			assert.Equal(t, want, resp.Data.Digest)
		})
	}
}

func TestRunCommand_SeedFlagOverridesFile(t *testing.T) {
	out, err := execRun(t, "json", "testdata/park.json", "--options", "testdata/options.yaml", "--seed", "11")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), decodeRun(t, out).Data.Seed)
}

func TestRunCommand_Tick(t *testing.T) {
	out, err := execRun(t, "json", "testdata/park.json", "--seed", "3", "--tick", "1ms")
	require.NoError(t, err)

	resp := decodeRun(t, out)
	assert.Equal(t, snapshotDigest(t), resp.Data.Digest, "pacing does not change the outcome")
	assert.Greater(t, resp.Data.Ticks, int64(len(engine.Stages)-1))
}

func TestRunCommand_TextOutput(t *testing.T) {
	out, err := execRun(t, "text", "testdata/park.json", "--seed", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "Run cli-run completed")
	assert.Contains(t, out, "Digest: ")
	assert.Contains(t, out, "=== Stall availability ===")
	assert.Contains(t, out, "(use --verbose to list)")
	assert.NotContains(t, out, "  coaster.a\n")
}

func TestRunCommand_Journal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "osr.db")
	_, err := execRun(t, "json", "testdata/park.json", "--seed", "3", "--db", dbPath)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	run, err := st.ReadRun(ctx, "cli-run")
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, run.Status)
	assert.Equal(t, uint64(3), run.Seed)

	stages, err := st.ReadStages(ctx, "cli-run")
	require.NoError(t, err)
	assert.Len(t, stages, len(engine.Stages))

	res, err := st.ReadResult(ctx, "cli-run")
	require.NoError(t, err)
	assert.Equal(t, snapshotDigest(t), res.Digest)
}

func TestRunCommand_MissingSnapshot(t *testing.T) {
	out, err := execRun(t, "json", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeRun(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSnapshot, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "failed to read snapshot")
}

func TestRunCommand_MalformedSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "park.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"objects": []}`), 0644))

	out, err := execRun(t, "text", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E001]")
	assert.Contains(t, out, "no map section")
}

func TestRunCommand_InvalidOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 1\noptions:\n  RandomiseParkEntrance: \"yes\"\n"), 0644))

	out, err := execRun(t, "json", "testdata/park.json", "--options", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeRun(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeOptions, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "RandomiseParkEntrance")
}

func TestRunCommand_MissingRules(t *testing.T) {
	out, err := execRun(t, "json", "testdata/park.json", "--rules", filepath.Join(t.TempDir(), "rules.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeRules, decodeRun(t, out).Error.Code)
}

func TestRunCommand_MissingArgs(t *testing.T) {
	_, err := execRun(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
