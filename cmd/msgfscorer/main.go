package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
//
// Exit codes:
//
//	0 = success
//	1 = resolution or runtime failure
//	2 = usage or configuration error
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stderr)
		return 2
	}

	switch args[1] {
	case "resolve":
		return runResolveCmd(args[2:], stdout, stderr)
	case "matrix":
		return runMatrixCmd(args[2:], stdout, stderr)
	case "sources":
		return runSourcesCmd(args[2:], stdout, stderr)
	case "import":
		return runImportCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "msgfscorer resolves experimental conditions to scoring parameters.")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "USAGE:")
	_, _ = fmt.Fprintln(w, "  msgfscorer <command> [flags]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "COMMANDS:")
	printCommand(w, "resolve", "Resolve one condition (-m, -inst, -e, -protocol, --json)")
	printCommand(w, "matrix", "Resolve every method x instrument x enzyme x protocol (-parallel, -metrics-file)")
	printCommand(w, "sources", "List parameter sources in priority order")
	printCommand(w, "import", "Copy parameter files into a SQL or Redis override source")
	printCommand(w, "help", "Show this help")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Every command accepts -config <file>; MSGF_* environment variables override it.")
}

func printCommand(w io.Writer, name, desc string) {
	_, _ = fmt.Fprintf(w, "  %-10s %s\n", name, desc)
}
