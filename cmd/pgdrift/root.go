// Package pgdrift is the CLI entry point: plan/apply/dump/lint
// subcommands wired against internal/introspect, internal/parser,
// internal/differ, internal/planner, internal/emitter,
// internal/phases, internal/lint, and internal/validate. Grounded on
// the teacher's cmd/root.go (persistent --debug flag, setupLogger,
// subcommand registration).
package pgdrift

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pgdrift/pgdrift/internal/cliutil"
	"github.com/pgdrift/pgdrift/internal/version"
)

var debug bool

// Build-time variables set via ldflags.
var (
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var RootCmd = &cobra.Command{
	Use:   "pgdrift",
	Short: "Declarative PostgreSQL schema manager",
	Long: fmt.Sprintf(`pgdrift plans and applies PostgreSQL schema migrations from a
declarative SQL file, the way Terraform plans infrastructure changes.

Version: %s@%s %s %s

Commands:
  plan    Compute a migration plan from a desired-state SQL file
  apply   Compute and execute a migration plan
  dump    Print a database's current schema as SQL
  lint    Check a desired-state SQL file for lock hazards and destructive changes

Use "pgdrift [command] --help" for more information about a command.`,
		version.Version(), GitCommit, platform(), BuildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cliutil.SetupLogger(debug)
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	RootCmd.AddCommand(planCmd)
	RootCmd.AddCommand(applyCmd)
	RootCmd.AddCommand(dumpCmd)
	RootCmd.AddCommand(lintCmd)
}

func platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// Execute runs the root command, the same top-level entry point shape
// as the teacher's cmd.Execute().
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
