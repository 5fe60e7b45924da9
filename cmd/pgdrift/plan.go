package pgdrift

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgdrift/pgdrift/internal/cliutil"
	"github.com/pgdrift/pgdrift/internal/ignore"
	"github.com/pgdrift/pgdrift/internal/options"
	"github.com/pgdrift/pgdrift/internal/render"
)

var (
	planDSN             string
	planSchemas         string
	planFile            string
	planManageOwnership bool
	planManageGrants    bool
	planExcludeGrants   string
	planIncludeExtObjs  bool
	planZeroDowntime    bool
	planReverse         bool
	planNoColor         bool
	planIgnoreFile      string
)

var planCmd = &cobra.Command{
	Use:          "plan",
	Short:        "Compute a migration plan from a desired-state SQL file",
	Long:         "Compares the desired state (--file) against the live schema of --dsn and prints the ordered, lint-checked migration plan, the way `terraform plan` prints a resource diff.",
	RunE:         runPlan,
	SilenceUsage: true,
}

func init() {
	registerPlanFlags(planCmd)
}

// registerPlanFlags is shared between plan and apply since apply
// computes the same plan before executing it.
func registerPlanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&planDSN, "dsn", "", "Database connection string (env: PGDRIFT_DSN, or discrete PGHOST/PGPORT/PGUSER/PGPASSWORD/PGDATABASE)")
	cmd.Flags().StringVar(&planSchemas, "schema", "public", "Comma-separated list of schemas to manage")
	cmd.Flags().StringVar(&planFile, "file", "", "Path to desired-state SQL schema file (required)")
	cmd.Flags().BoolVar(&planManageOwnership, "manage-ownership", false, "Include OWNER TO drift in the plan")
	cmd.Flags().BoolVar(&planManageGrants, "manage-grants", true, "Include GRANT/REVOKE drift in the plan")
	cmd.Flags().StringVar(&planExcludeGrants, "exclude-grants-for-role", "", "Comma-separated roles whose grants are never touched")
	cmd.Flags().BoolVar(&planIncludeExtObjs, "include-extension-objects", false, "Manage objects owned by extensions")
	cmd.Flags().BoolVar(&planZeroDowntime, "zero-downtime", false, "Split the plan into expand/backfill/contract phases")
	cmd.Flags().BoolVar(&planReverse, "reverse", false, "Diff in reverse: plan a migration from the SQL file back to the live schema")
	cmd.Flags().BoolVar(&planNoColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&planIgnoreFile, "ignore-file", ignore.FileName, "Path to a TOML file of glob excludes")
	cmd.MarkFlagRequired("file")
}

func buildPlanOptions() (options.PlanOptions, error) {
	f, err := ignore.Load(planIgnoreFile)
	if err != nil {
		return options.PlanOptions{}, err
	}
	return options.PlanOptions{
		TargetSchemas:           splitCSV(planSchemas),
		ManageOwnership:         planManageOwnership,
		ManageGrants:            planManageGrants,
		ExcludeGrantsForRole:    splitCSV(planExcludeGrants),
		IncludeExtensionObjects: planIncludeExtObjs,
		ZeroDowntime:            planZeroDowntime,
		Reverse:                 planReverse,
		Filter:                  f,
	}, nil
}

func splitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runPlan(cmd *cobra.Command, args []string) error {
	dsn, err := cliutil.DSN(planDSN)
	if err != nil {
		return err
	}

	if cliutil.IsProduction() && !planReverse {
		fmt.Fprintln(os.Stderr, "warning: PGDRIFT_PROD is set; dropping tables is blocked regardless of flags")
	}

	planOpts, err := buildPlanOptions()
	if err != nil {
		return err
	}
	computed, err := computePlan(cmd.Context(), dsn, planFile, planOpts, false)
	if err != nil {
		return err
	}

	fmt.Fprint(os.Stdout, render.Plan(computed.Stmts, computed.Findings, !planNoColor))
	return nil
}
