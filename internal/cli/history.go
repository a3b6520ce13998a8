package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/tape/internal/ir"
	"github.com/roach88/tape/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Program  string // program hash filter
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded with "tape run --db", newest first.

The database defaults to the config file's database setting.

Examples:
  tape history --db runs.db
  tape history --db runs.db --limit 5 --format json
  tape history --db runs.db --program 3f2a...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 = all)")
	cmd.Flags().StringVar(&opts.Program, "program", "", "only runs of the program with this hash")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	db := opts.Database
	if db == "" {
		db = opts.config().Database
	}
	if db == "" {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "no database: pass --db or set database in the config file", nil)
	}

	st, err := store.Open(db, store.WithLogger(opts.logger()))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("opening database: %v", err), err)
	}
	defer st.Close()

	ctx := cmd.Context()
	var runs []ir.RunRecord
	if opts.Program != "" {
		runs, err = st.ListRunsByProgram(ctx, opts.Program, opts.Limit)
	} else {
		runs, err = st.ListRuns(ctx, opts.Limit)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("listing runs: %v", err), err)
	}

	return formatter.Success(runs, historyText(runs))
}

func historyText(runs []ir.RunRecord) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tSOURCE\tSTATUS\tSTEPS\tOUTPUT\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.Seq, r.ID, r.Source, r.Status, r.Steps, previewOutput(r.Output), r.ErrorCode)
	}
	tw.Flush()
	return b.String()
}

// previewOutput quotes the start of a run's output for one table cell.
func previewOutput(out []byte) string {
	const maxPreview = 24
	if len(out) <= maxPreview {
		return strconv.Quote(string(out))
	}
	return strconv.Quote(string(out[:maxPreview])) + "…"
}
