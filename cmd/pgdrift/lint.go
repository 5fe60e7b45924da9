package pgdrift

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/differ"
	"github.com/pgdrift/pgdrift/internal/include"
	"github.com/pgdrift/pgdrift/internal/lint"
	"github.com/pgdrift/pgdrift/internal/normalize"
	"github.com/pgdrift/pgdrift/internal/parser"
	"github.com/pgdrift/pgdrift/internal/pgderrors"
	"github.com/pgdrift/pgdrift/internal/planner"
)

var lintFile string

var lintCmd = &cobra.Command{
	Use:          "lint",
	Short:        "Check a desired-state SQL file for lock hazards and destructive changes",
	Long:         "Parses --file as if it were applied against an empty schema and runs component C7's rule set over the resulting ops, reporting any destructive-change or lock-hazard findings without touching a database.",
	RunE:         runLint,
	SilenceUsage: true,
}

func init() {
	lintCmd.Flags().StringVar(&lintFile, "file", "", "Path to the SQL schema file to lint (required)")
	lintCmd.MarkFlagRequired("file")
}

func runLint(cmd *cobra.Command, args []string) error {
	sql, err := include.NewProcessor(".").ProcessFile(lintFile)
	if err != nil {
		return pgderrors.Wrap(pgderrors.Parse, err, "resolve \\i includes in "+lintFile)
	}

	target, err := parser.Parse(sql)
	if err != nil {
		return err
	}
	if err := normalize.Catalog(target); err != nil {
		return pgderrors.Wrap(pgderrors.Validation, err, "normalize target catalog")
	}

	empty := catalog.New()
	diffResult, err := differ.Diff(empty, target, differ.Options{ManageOwnership: true, ManageGrants: true, AllowDestructive: true})
	if err != nil {
		return err
	}
	plan, err := planner.Order(diffResult, empty, target)
	if err != nil {
		return err
	}

	findings := lint.Lint(plan.Ops, lint.NewOptions(true))
	if len(findings) == 0 {
		fmt.Fprintln(os.Stdout, "No lint findings.")
		return nil
	}
	for _, f := range findings {
		fmt.Fprintf(os.Stdout, "[%s] %s: %s\n", f.Severity, f.Rule, f.Message)
	}
	if lint.HasErrors(findings) {
		return pgderrors.New(pgderrors.LintFailed, "lint found blocking findings")
	}
	return nil
}
