package pgdrift

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pgdrift/pgdrift/internal/cliutil"
	"github.com/pgdrift/pgdrift/internal/emitter"
	"github.com/pgdrift/pgdrift/internal/fingerprint"
	"github.com/pgdrift/pgdrift/internal/introspect"
	"github.com/pgdrift/pgdrift/internal/lint"
	"github.com/pgdrift/pgdrift/internal/normalize"
	"github.com/pgdrift/pgdrift/internal/options"
	"github.com/pgdrift/pgdrift/internal/pgderrors"
	"github.com/pgdrift/pgdrift/internal/render"
)

var (
	applyAutoApprove      bool
	applyAllowDestructive bool
	applyDryRun           bool
)

var applyCmd = &cobra.Command{
	Use:          "apply",
	Short:        "Compute and execute a migration plan",
	Long:         "Computes the same plan as `pgdrift plan`, prints it, then — after confirmation — executes it against --dsn in plan order, sending each contiguous run of in-transaction statements as one batch and each outside-transaction statement on its own.",
	RunE:         runApply,
	SilenceUsage: true,
}

func init() {
	registerPlanFlags(applyCmd)
	applyCmd.Flags().BoolVar(&applyAutoApprove, "auto-approve", false, "Apply changes without prompting for approval")
	applyCmd.Flags().BoolVar(&applyAllowDestructive, "allow-destructive", false, "Permit drops and other destructive operations to run")
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Print the plan without executing it")
}

func runApply(cmd *cobra.Command, args []string) error {
	dsn, err := cliutil.DSN(planDSN)
	if err != nil {
		return err
	}

	planOpts, err := buildPlanOptions()
	if err != nil {
		return err
	}
	computed, err := computePlan(cmd.Context(), dsn, planFile, planOpts, applyAllowDestructive)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stdout, render.Plan(computed.Stmts, computed.Findings, !planNoColor))

	// Lint already honours --allow-destructive; what still errors here
	// (e.g. dropping a table while PGDRIFT_PROD is set) always blocks.
	if lint.HasErrors(computed.Findings) {
		return pgderrors.New(pgderrors.LintFailed, "plan contains blocking lint findings; drops need --allow-destructive, and tables cannot be dropped while PGDRIFT_PROD is set")
	}

	if len(computed.Stmts) == 0 {
		fmt.Fprintln(os.Stdout, "No changes. The live schema already matches the desired state.")
		return nil
	}

	if applyDryRun {
		return nil
	}

	if !applyAutoApprove {
		approved, err := confirm()
		if err != nil {
			return err
		}
		if !approved {
			fmt.Fprintln(os.Stdout, "Apply cancelled.")
			return nil
		}
	}

	planFingerprint, err := fingerprint.Compute(computed.Current, computed.PlanOptions.TargetSchemas)
	if err != nil {
		return err
	}

	pool, err := pgxpool.New(cmd.Context(), dsn)
	if err != nil {
		return pgderrors.Wrap(pgderrors.Execution, err, "connect to target database")
	}
	defer pool.Close()

	liveNow, err := introspect.New(pool).Introspect(cmd.Context(), computed.PlanOptions.TargetSchemas)
	if err != nil {
		return err
	}
	// Filter and normalize exactly as computePlan did for computed.Current,
	// so only real drift changes the fingerprint.
	liveNow = options.ApplyFilter(liveNow, computed.PlanOptions.TargetSchemas, computed.PlanOptions.Filter)
	if err := normalize.Catalog(liveNow); err != nil {
		return pgderrors.Wrap(pgderrors.Validation, err, "normalize live catalog")
	}
	liveFingerprint, err := fingerprint.Compute(liveNow, computed.PlanOptions.TargetSchemas)
	if err != nil {
		return err
	}
	if err := fingerprint.Compare(planFingerprint, liveFingerprint); err != nil {
		return pgderrors.Wrap(pgderrors.Validation, err, "schema changed since the plan was computed; re-run plan")
	}

	return executeStatements(cmd.Context(), pool, computed.Stmts)
}

func confirm() (bool, error) {
	fmt.Fprint(os.Stdout, "\nDo you want to perform these actions?\n  Only 'yes' will be accepted to approve.\n\n  Enter a value: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, pgderrors.Wrap(pgderrors.Execution, err, "read confirmation")
	}
	return strings.TrimSpace(line) == "yes", nil
}

// executeStatements runs stmts against pool, batching contiguous
// InTransaction statements into one implicit transaction and running
// each OutsideTransaction statement alone, the same split
// internal/validate.replay uses to exercise a plan before execution.
func executeStatements(ctx context.Context, pool *pgxpool.Pool, stmts []emitter.Statement) error {
	i := 0
	for i < len(stmts) {
		if stmts[i].Directive == emitter.OutsideTransaction {
			fmt.Fprintf(os.Stdout, "Applying: %s\n", stmts[i].SQL)
			if _, err := pool.Exec(ctx, stmts[i].SQL); err != nil {
				return pgderrors.NewExecution(i, stmts[i].SQL, err.Error(), err)
			}
			i++
			continue
		}

		start := i
		var batch []string
		for i < len(stmts) && stmts[i].Directive == emitter.InTransaction {
			fmt.Fprintf(os.Stdout, "Applying: %s\n", stmts[i].SQL)
			batch = append(batch, stmts[i].SQL)
			i++
		}
		sql := strings.Join(batch, ";\n") + ";"
		if _, err := pool.Exec(ctx, sql); err != nil {
			return pgderrors.NewExecution(start, sql, err.Error(), err)
		}
	}
	return nil
}
