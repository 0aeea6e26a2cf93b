// ABOUTME: Help display for the tanva CLI with usage, examples, and environment status.
// ABOUTME: Provides printHelp for formatted usage output and envStatus for API key detection.
package main

import (
	"fmt"
	"io"
	"os"
)

// printHelp writes a formatted help message to w, including usage patterns,
// examples, environment status, and a docs link.
func printHelp(w io.Writer, ver string) {
	fmt.Fprintf(w, "tanva %s - AI creative canvas\n", ver)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tanva serve [-config tanva.yaml]          Start the HTTP canvas server")
	fmt.Fprintln(w, "  tanva run [-node <id>] [-tui] <flow.json>  Run a node from a flow document")
	fmt.Fprintln(w, "  tanva validate <flow.json>                Validate a flow document")
	fmt.Fprintln(w, "  tanva version                             Print version and exit")
	fmt.Fprintln(w, "  tanva help                                Show this help")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Run Flags:")
	fmt.Fprintln(w, "  -node <id>    Node to run (default: first node with no outgoing edges)")
	fmt.Fprintln(w, "  -tui          Run with the interactive terminal viewer")
	fmt.Fprintln(w, "  -config <f>   YAML config file for provider keys")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  tanva serve")
	fmt.Fprintln(w, "  tanva serve -config ~/.tanva/tanva.yaml")
	fmt.Fprintln(w, "  tanva run -tui storyboard.json")
	fmt.Fprintln(w, "  tanva run -node image-4f2a storyboard.json")
	fmt.Fprintln(w, "  tanva validate storyboard.json")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  TANVA_OPENAI_API_KEY  %s\n", envStatus("TANVA_OPENAI_API_KEY"))
	fmt.Fprintf(w, "  TANVA_GEMINI_API_KEY  %s\n", envStatus("TANVA_GEMINI_API_KEY"))
	fmt.Fprintf(w, "  TANVA_KLING_API_KEY   %s\n", envStatus("TANVA_KLING_API_KEY"))
	fmt.Fprintf(w, "  TANVA_TRIPO_API_KEY   %s\n", envStatus("TANVA_TRIPO_API_KEY"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  At least one image provider key is required to run generation nodes.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Docs: https://github.com/litai12/Tanva-sub008")
}

// envStatus returns "[set]" if the named environment variable is non-empty,
// or "[not set]" otherwise.
func envStatus(key string) string {
	if os.Getenv(key) != "" {
		return "[set]"
	}
	return "[not set]"
}
