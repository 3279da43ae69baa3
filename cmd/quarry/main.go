package main

import (
	"fmt"
	"os"

	"github.com/quarrydb/quarry/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands silence cobra's own error printing, so the message goes
		// to stderr here alongside any structured output on stdout.
		code := cli.GetExitCode(err)
		if code == cli.ExitSuccess {
			code = cli.ExitFailure
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(code)
	}
}
