package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tape/internal/ir"
	"github.com/roach88/tape/internal/runner"
	"github.com/roach88/tape/internal/testutil"
)

type runOutput struct {
	stdout, stderr string
	err            error
}

func runCmd(t *testing.T, opts *RunOptions, stdin string, args ...string) runOutput {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := newRunCommand(opts)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return runOutput{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func textRun() *RunOptions {
	return &RunOptions{RootOptions: &RootOptions{Format: "text"}}
}

func TestRunHello(t *testing.T) {
	out := runCmd(t, textRun(), "", "testdata/hello.bf")
	require.NoError(t, out.err)
	assert.Equal(t, "A", out.stdout)
	assert.Empty(t, out.stderr)
}

func TestRunLiteralInput(t *testing.T) {
	out := runCmd(t, textRun(), "", "--input", "hi\x00", "testdata/cat.bf")
	require.NoError(t, out.err)
	assert.Equal(t, "hi", out.stdout)
}

func TestRunStdin(t *testing.T) {
	out := runCmd(t, textRun(), "hello\x00ignored", "--stdin", "testdata/cat.bf")
	require.NoError(t, out.err)
	assert.Equal(t, "hello", out.stdout)
}

func TestRunStdinThenEOF(t *testing.T) {
	// Literal input is consumed first, then stdin, then the program waits.
	out := runCmd(t, textRun(), "b", "--stdin", "--input", "a", "testdata/cat.bf")
	require.Error(t, out.err)
	assert.Equal(t, ExitFailure, GetExitCode(out.err))
	assert.Equal(t, "ab", out.stdout)
	assert.Contains(t, out.stderr, "Error [E303]")
}

func TestRunBlocked(t *testing.T) {
	out := runCmd(t, textRun(), "ignored", "testdata/cat.bf")
	require.Error(t, out.err)
	assert.Equal(t, ExitFailure, GetExitCode(out.err))
	assert.True(t, IsReported(out.err))
	assert.ErrorIs(t, out.err, runner.ErrInputExhausted)
	assert.Empty(t, out.stdout)
}

func TestRunOutOfBounds(t *testing.T) {
	out := runCmd(t, textRun(), "", "testdata/oob.bf")
	require.Error(t, out.err)
	assert.Equal(t, ExitFailure, GetExitCode(out.err))
	assert.Equal(t, "\x01", out.stdout, "output before the fault is kept")
	assert.Contains(t, out.stderr, "Error [E301]")
}

func TestRunOutOfBoundsJSON(t *testing.T) {
	opts := &RunOptions{RootOptions: &RootOptions{Format: "json"}}
	out := runCmd(t, opts, "", "testdata/oob.bf")
	require.Error(t, out.err)

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string     `json:"code"`
			Details RunSummary `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeOutOfBounds, resp.Error.Code)
	assert.Equal(t, ir.RunFailed, resp.Error.Details.Status)
	assert.Equal(t, "\x01", resp.Error.Details.Output)
	assert.Equal(t, int64(2), resp.Error.Details.Steps)
}

func TestRunJSON(t *testing.T) {
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "json"},
		IDGenerator: testutil.NewFixedIDGenerator("run-json"),
	}
	out := runCmd(t, opts, "", "testdata/hello.bf")
	require.NoError(t, out.err)

	var resp struct {
		Status string     `json:"status"`
		Data   RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, RunSummary{
		ID:     "run-json",
		Status: ir.RunHalted,
		Steps:  45,
		Output: "A",
	}, resp.Data)
}

func TestRunMaxSteps(t *testing.T) {
	out := runCmd(t, textRun(), "", "--max-steps", "100", "testdata/loop.bf")
	require.Error(t, out.err)
	assert.Equal(t, ExitFailure, GetExitCode(out.err))
	assert.True(t, runner.IsQuotaError(out.err))
	assert.Contains(t, out.stderr, "Error [E302]")
}

func TestRunBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"negative max steps", []string{"--max-steps", "-1"}, "--max-steps must not be negative"},
		{"zero tape", []string{"--tape-size", "0"}, "--tape-size must be positive"},
		{"encoding", []string{"--input-encoding", "ebcdic", "--input", "x"}, "unknown input encoding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "testdata/hello.bf")
			out := runCmd(t, textRun(), "", args...)
			require.Error(t, out.err)
			assert.Equal(t, ExitCommandError, GetExitCode(out.err))
			assert.Contains(t, out.stderr, "Error [E004]")
			assert.Contains(t, out.stderr, tt.want)
			assert.Empty(t, out.stdout)
		})
	}
}

func TestRunLatin1Input(t *testing.T) {
	out := runCmd(t, textRun(), "", "--input-encoding", "latin1", "--input", "é\x00", "testdata/cat.bf")
	require.NoError(t, out.err)
	assert.Equal(t, "\xe9", out.stdout)
}

func TestRunCompileError(t *testing.T) {
	out := runCmd(t, textRun(), "", "testdata/unmatched.bf")
	require.Error(t, out.err)
	assert.Equal(t, ExitCommandError, GetExitCode(out.err))
	assert.Contains(t, out.stderr, "Error [E201]: testdata/unmatched.bf:2:2:")
}

func TestRunRecordsToDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	gen := testutil.NewSequenceIDGenerator("run-1", "run-2")

	opts := &RunOptions{RootOptions: &RootOptions{Format: "text"}, IDGenerator: gen}
	out := runCmd(t, opts, "", "--db", db, "testdata/hello.bf")
	require.NoError(t, out.err)

	opts = &RunOptions{RootOptions: &RootOptions{Format: "json"}, IDGenerator: gen}
	out = runCmd(t, opts, "", "--db", db, "testdata/oob.bf")
	require.Error(t, out.err)
	assert.Contains(t, out.stdout, `"seq": 2`)

	hist := historyCmd(t, &RootOptions{Format: "json"}, "--db", db)
	require.NoError(t, hist.err)

	var resp struct {
		Data []ir.RunRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(hist.stdout), &resp))
	require.Len(t, resp.Data, 2)

	failed, halted := resp.Data[0], resp.Data[1]
	assert.Equal(t, "run-2", failed.ID)
	assert.Equal(t, ir.RunFailed, failed.Status)
	assert.Equal(t, ErrCodeOutOfBounds, failed.ErrorCode)
	assert.Equal(t, []byte{1}, failed.Output)

	assert.Equal(t, "run-1", halted.ID)
	assert.Equal(t, ir.RunHalted, halted.Status)
	assert.Equal(t, "testdata/hello.bf", halted.Source)
	assert.Equal(t, []byte("A"), halted.Output)
	assert.Empty(t, halted.ErrorCode)
}

func TestRunVerboseSummary(t *testing.T) {
	opts := &RunOptions{
		RootOptions: &RootOptions{Format: "text", Verbose: true},
		IDGenerator: testutil.NewFixedIDGenerator("run-v"),
	}
	out := runCmd(t, opts, "", "testdata/hello.bf")
	require.NoError(t, out.err)
	assert.Equal(t, "A", out.stdout)
	assert.Contains(t, out.stderr, "run run-v: halted after 45 step(s)")
}
