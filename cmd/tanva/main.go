// ABOUTME: CLI entrypoint for the tanva canvas with serve, run, and validate subcommands.
// ABOUTME: Wires together the flow runtime, media providers, HTTP server, TUI, and signal handling.
package main

import (
	"fmt"
	"os"
)

var version = "dev"

func main() {
	loadDotEnv(".env")
	os.Exit(run(os.Args[1:]))
}

// run dispatches to the subcommand named by the first argument.
// Returns an exit code: 0 for success, 1 for failure, 2 for usage errors.
func run(args []string) int {
	if len(args) == 0 {
		printHelp(os.Stderr, version)
		return 0
	}

	switch args[0] {
	case "serve":
		return runServe(args[1:])
	case "run":
		return runFlow(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "version", "-version", "--version":
		fmt.Printf("tanva %s\n", version)
		return 0
	case "help", "-help", "--help", "-h":
		printHelp(os.Stdout, version)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n\n", args[0])
		printHelp(os.Stderr, version)
		return 2
	}
}
