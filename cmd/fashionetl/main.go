package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"fashionetl/internal/cli"
)

func main() {
	// Recover from panics so the process still exits with a code and a trace.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(cli.ExitError)
		}
	}()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
