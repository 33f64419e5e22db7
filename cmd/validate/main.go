package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jwebster45206/lifeskills-engine/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Validation failures are already in the report.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != cli.ExitFailure {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
