// Command oos is the command-line front end for the context budget
// optimizer and the clarification workflow. It is thin glue: all policy
// lives in the library packages.
package main

import (
	"fmt"
	"os"

	"oos/pkg/config"
)

// Version information - set via ldflags.
var (
	version = "dev"
	commit  = "none"
)

const usage = `oos - context budgeting and request clarification

Usage:
  oos clarify <request...>        start a clarification session
  oos resume <session-id>         resume a suspended session
  oos sessions                    list stored sessions
  oos optimize [-budget N] [file] optimize a context against a token budget
  oos history [prompts|optimizations|stats]
                                  display recorded history
  oos version                     show version information
`

func main() {
	os.Exit(run(os.Args[1:]))
}

// run contains the dispatch logic and returns an exit code so defers in
// subcommands execute before the process exits.
func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 1
	}

	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 2
	}

	switch args[0] {
	case "clarify":
		return runClarify(args[1:])
	case "resume":
		return runResume(args[1:])
	case "sessions":
		return runSessions(args[1:])
	case "optimize":
		return runOptimize(args[1:])
	case "history":
		return runHistory(args[1:])
	case "version":
		fmt.Printf("oos %s (%s)\n", version, commit)
		return 0
	case "help", "-h", "--help":
		fmt.Print(usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", args[0], usage)
		return 1
	}
}
