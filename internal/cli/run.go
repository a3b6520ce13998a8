package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/tape/internal/engine"
	"github.com/roach88/tape/internal/ir"
	"github.com/roach88/tape/internal/runner"
	"github.com/roach88/tape/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Input         string
	Stdin         bool
	InputEncoding string
	MaxSteps      int64
	TapeSize      int
	Database      string

	// IDGenerator allows overriding the run id generator (for testing).
	// If nil, defaults to runner.UUIDv7Generator.
	IDGenerator runner.IDGenerator
}

// RunSummary is the JSON payload of a run.
type RunSummary struct {
	ID         string       `json:"id"`
	Status     ir.RunStatus `json:"status"`
	Steps      int64        `json:"steps"`
	InputBytes int64        `json:"input_bytes"`
	Output     string       `json:"output"`
	Truncated  bool         `json:"truncated,omitempty"`
	Seq        int64        `json:"seq,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Compile and run a program",
		Long: `Compile a program and run it to completion.

Program output goes to stdout as it is produced. --input queues literal
bytes before the first step; --stdin then keeps reading from standard input
whenever the program waits for more. A program that waits with nothing left
to read stops with status blocked. Ctrl-C stops the run.

With --db the outcome is appended to the run history database.

Exit codes:
  0 - Program halted
  1 - Program failed, blocked, exceeded --max-steps or was interrupted
  2 - Command error (unreadable file, unmatched bracket, bad flags)

Examples:
  tape run hello.bf
  tape run --input "abc" cat.bf
  echo hi | tape run --stdin cat.bf
  tape run --max-steps 1000000 --db runs.db loop.bf`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProgram(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Input, "input", "", "literal input queued before the run")
	cmd.Flags().BoolVar(&opts.Stdin, "stdin", false, "read further input from stdin")
	cmd.Flags().StringVar(&opts.InputEncoding, "input-encoding", runner.EncodingUTF8, "encoding of --input (utf8|latin1)")
	cmd.Flags().Int64Var(&opts.MaxSteps, "max-steps", 0, "stop after this many instructions (0 = unlimited)")
	cmd.Flags().IntVar(&opts.TapeSize, "tape-size", engine.DefaultTapeSize, "initial tape length in cells")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

// runSettings are the effective run parameters.
type runSettings struct {
	encoding  string
	maxSteps  int64
	tapeSize  int
	blockSize int
	database  string
}

// settings resolves flags over the config file over defaults.
func (opts *RunOptions) settings(cmd *cobra.Command) runSettings {
	c := opts.config()
	cfg := runSettings{
		encoding:  c.InputEncoding,
		maxSteps:  c.MaxSteps,
		tapeSize:  c.TapeSize,
		blockSize: c.BlockSize,
		database:  c.Database,
	}

	flags := cmd.Flags()
	if flags.Changed("input-encoding") {
		cfg.encoding = opts.InputEncoding
	}
	if flags.Changed("max-steps") {
		cfg.maxSteps = opts.MaxSteps
	}
	if flags.Changed("tape-size") {
		cfg.tapeSize = opts.TapeSize
	}
	if flags.Changed("db") {
		cfg.database = opts.Database
	}
	return cfg
}

func runProgram(opts *RunOptions, file string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()
	cfg := opts.settings(cmd)

	if cfg.maxSteps < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "--max-steps must not be negative", nil)
	}
	if cfg.tapeSize <= 0 {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "--tape-size must be positive", nil)
	}

	p, err := LoadProgram(file)
	if err != nil {
		return loadFailure(formatter, err)
	}

	input, err := runner.EncodeInput(opts.Input, cfg.encoding)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), err)
	}

	e := engine.New(p, engine.WithTapeSize(cfg.tapeSize), engine.WithBlockSize(cfg.blockSize))
	e.PushInputBytes(input)

	runOpts := []runner.Option{
		runner.WithMaxSteps(cfg.maxSteps),
		runner.WithLogger(logger),
	}
	// JSON mode carries output in the response document instead.
	if !formatter.JSON() {
		runOpts = append(runOpts, runner.WithOutput(cmd.OutOrStdout()))
	}
	if opts.Stdin {
		runOpts = append(runOpts, runner.WithInput(cmd.InOrStdin()))
	}
	if opts.IDGenerator != nil {
		runOpts = append(runOpts, runner.WithIDGenerator(opts.IDGenerator))
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := runner.New(e, runOpts...).Run(ctx)

	summary := RunSummary{
		ID:         res.ID,
		Status:     res.Status,
		Steps:      res.Steps,
		InputBytes: res.InputBytes,
		Output:     string(res.Output),
		Truncated:  res.Truncated,
	}

	if cfg.database != "" {
		// Record even when the run was interrupted.
		seq, err := recordRun(context.WithoutCancel(ctx), cfg.database, file, p, res, runErr, opts)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("recording run: %v", err), err)
		}
		summary.Seq = seq
	}

	if runErr != nil {
		code := runner.ErrorCode(runErr)
		_ = formatter.Error(code, runErr.Error(), summary)
		exitErr := WrapExitError(ExitFailure, fmt.Sprintf("%s: run %s", code, res.Status), runErr)
		exitErr.Reported = true
		return exitErr
	}

	if formatter.JSON() {
		return formatter.Success(summary, "")
	}
	if opts.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "\n%s\n", runText(summary))
	}
	return nil
}

func recordRun(ctx context.Context, path, file string, p *ir.Program, res *runner.Result, runErr error, opts *RunOptions) (int64, error) {
	rec, err := runner.Record(file, p, res, runErr)
	if err != nil {
		return 0, err
	}

	st, err := store.Open(path, store.WithLogger(opts.logger()))
	if err != nil {
		return 0, err
	}
	defer st.Close()

	return st.WriteRun(ctx, rec)
}

func runText(s RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %s after %d step(s)", s.ID, s.Status, s.Steps)
	if s.Seq > 0 {
		fmt.Fprintf(&b, ", recorded as #%d", s.Seq)
	}
	return b.String()
}
