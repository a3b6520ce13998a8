// Command tape compiles and runs programs for an eight-command tape machine.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tape/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil && !cli.IsReported(err) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
