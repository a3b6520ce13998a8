package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tape/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompileResult is the JSON payload of a successful compile.
type CompileResult struct {
	File         string      `json:"file"`
	Hash         string      `json:"hash"`
	Instructions int         `json:"instructions"`
	MaxDepth     int         `json:"max_depth"`
	Program      *ir.Program `json:"program"`
	OutputFile   string      `json:"output_file,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a program and print its instructions",
		Long: `Compile a program to its jump-resolved instruction list.

Text output is a disassembly listing, one instruction per line with loop
bodies indented. JSON output carries the canonical IR and its content hash.
With --output the canonical IR is also written to a file.

Exit codes:
  0 - Compiled
  2 - Unreadable file or unmatched bracket`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical IR to this file")

	return cmd
}

func runCompile(opts *CompileOptions, file string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	p, err := LoadProgram(file)
	if err != nil {
		return loadFailure(formatter, err)
	}

	counts := p.OpCounts()
	attrs := make([]any, 0, 2*len(counts)+4)
	attrs = append(attrs, "file", file, "instructions", p.Len())
	for op, n := range counts {
		attrs = append(attrs, op.String(), n)
	}
	logger.Debug("compiled program", attrs...)

	hash, err := ir.ProgramHash(p)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), err)
	}

	if opts.Output != "" {
		if err := writeIRToFile(p, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed,
				fmt.Sprintf("writing output file: %v", err), err)
		}
	}

	result := CompileResult{
		File:         file,
		Hash:         hash,
		Instructions: p.Len(),
		MaxDepth:     p.MaxDepth(),
		Program:      p,
		OutputFile:   opts.Output,
	}
	return formatter.Success(result, compileText(result))
}

func compileText(r CompileResult) string {
	var b strings.Builder
	b.WriteString(r.Program.String())
	fmt.Fprintf(&b, "\n✓ Compiled %s: %d instruction(s), max loop depth %d\n",
		r.File, r.Instructions, r.MaxDepth)
	fmt.Fprintf(&b, "  hash %s\n", r.Hash)
	if r.OutputFile != "" {
		fmt.Fprintf(&b, "Wrote canonical IR to %s\n", r.OutputFile)
	}
	return b.String()
}

// writeIRToFile writes the program in canonical JSON form.
func writeIRToFile(p *ir.Program, filename string) error {
	data, err := ir.MarshalCanonical(p)
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
