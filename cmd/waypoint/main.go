// Command waypoint runs step-by-step flows described in YAML.
//
// Usage:
//
//	waypoint [--journal DSN] [--json] <command> [flags]
//
// Commands:
//
//	run       Run a flow in the terminal
//	validate  Check a flow file and list its steps
//	history   Show journaled runs or the transitions of one run
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/petrijr/waypoint/internal/cli"
)

// version is set through ldflags at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
