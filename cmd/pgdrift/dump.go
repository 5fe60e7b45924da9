package pgdrift

import (
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/cliutil"
	"github.com/pgdrift/pgdrift/internal/differ"
	"github.com/pgdrift/pgdrift/internal/emitter"
	"github.com/pgdrift/pgdrift/internal/introspect"
	"github.com/pgdrift/pgdrift/internal/pgderrors"
	"github.com/pgdrift/pgdrift/internal/planner"
)

var (
	dumpDSN     string
	dumpSchemas string
	dumpOutFile string
)

var dumpCmd = &cobra.Command{
	Use:          "dump",
	Short:        "Print a database's current schema as SQL",
	Long:         "Introspects --dsn and prints the CREATE statements that reproduce its current schema, by diffing the live catalog against an empty one and emitting the resulting plan.",
	RunE:         runDump,
	SilenceUsage: true,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpDSN, "dsn", "", "Database connection string (env: PGDRIFT_DSN)")
	dumpCmd.Flags().StringVar(&dumpSchemas, "schema", "public", "Comma-separated list of schemas to dump")
	dumpCmd.Flags().StringVar(&dumpOutFile, "file", "", "Write the dump to this path instead of stdout")
}

func runDump(cmd *cobra.Command, args []string) error {
	dsn, err := cliutil.DSN(dumpDSN)
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(cmd.Context(), dsn)
	if err != nil {
		return pgderrors.Wrap(pgderrors.Introspection, err, "connect to target database")
	}
	defer pool.Close()

	schemas := splitCSV(dumpSchemas)
	current, err := introspect.New(pool).Introspect(cmd.Context(), schemas)
	if err != nil {
		return err
	}

	empty := catalog.New()
	diffResult, err := differ.Diff(empty, current, differ.Options{ManageOwnership: true, ManageGrants: true})
	if err != nil {
		return err
	}
	plan, err := planner.Order(diffResult, empty, current)
	if err != nil {
		return err
	}
	stmts, err := emitter.Emit(plan.Ops)
	if err != nil {
		return err
	}

	out := os.Stdout
	if dumpOutFile != "" {
		f, err := os.Create(dumpOutFile)
		if err != nil {
			return pgderrors.Wrap(pgderrors.Execution, err, "create output file")
		}
		defer f.Close()
		out = f
	}

	for _, st := range stmts {
		fmt.Fprintln(out, st.SQL)
		fmt.Fprintln(out)
	}
	return nil
}
