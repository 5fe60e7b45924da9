package pgdrift

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/differ"
	"github.com/pgdrift/pgdrift/internal/emitter"
	"github.com/pgdrift/pgdrift/internal/include"
	"github.com/pgdrift/pgdrift/internal/introspect"
	"github.com/pgdrift/pgdrift/internal/lint"
	"github.com/pgdrift/pgdrift/internal/normalize"
	"github.com/pgdrift/pgdrift/internal/options"
	"github.com/pgdrift/pgdrift/internal/parser"
	"github.com/pgdrift/pgdrift/internal/phases"
	"github.com/pgdrift/pgdrift/internal/planner"
	"github.com/pgdrift/pgdrift/internal/pgderrors"
)

// computedPlan bundles everything plan/apply render or execute.
type computedPlan struct {
	Current     *catalog.Catalog
	Target      *catalog.Catalog
	Stmts       []emitter.Statement
	Findings    []lint.Result
	PlanOptions options.PlanOptions
}

// computePlan runs C1(introspect)+C1(parse) -> C2 -> C3 -> C4 -> C5 ->
// (C6) -> C7, the pipeline runPlan and runApply both run before
// rendering or executing.
func computePlan(ctx context.Context, dsn, desiredFile string, opts options.PlanOptions, allowDestructive bool) (*computedPlan, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, pgderrors.Wrap(pgderrors.Introspection, err, "connect to target database")
	}
	defer pool.Close()

	current, err := introspect.New(pool).Introspect(ctx, opts.TargetSchemas)
	if err != nil {
		return nil, err
	}

	desiredSQL, err := include.NewProcessor(".").ProcessFile(desiredFile)
	if err != nil {
		return nil, pgderrors.Wrap(pgderrors.Parse, err, "resolve \\i includes in "+desiredFile)
	}
	target, err := parser.Parse(desiredSQL)
	if err != nil {
		return nil, err
	}

	current = options.ApplyFilter(current, opts.TargetSchemas, opts.Filter)
	target = options.ApplyFilter(target, opts.TargetSchemas, opts.Filter)

	if err := normalize.Catalog(current); err != nil {
		return nil, pgderrors.Wrap(pgderrors.Validation, err, "normalize current catalog")
	}
	if err := normalize.Catalog(target); err != nil {
		return nil, pgderrors.Wrap(pgderrors.Validation, err, "normalize target catalog")
	}

	from, to := current, target
	if opts.Reverse {
		from, to = target, current
	}

	diffOpts := opts.ToDifferOptions(allowDestructive)
	diffResult, err := differ.Diff(from, to, diffOpts)
	if err != nil {
		return nil, err
	}

	plan, err := planner.Order(diffResult, from, to)
	if err != nil {
		return nil, err
	}

	stmts, err := emitter.Emit(plan.Ops)
	if err != nil {
		return nil, err
	}
	if opts.ZeroDowntime {
		split := phases.SplitStatements(stmts)
		stmts = append(append(append([]emitter.Statement{}, split.Expand...), split.Backfill...), split.Contract...)
	}

	findings := lint.Lint(plan.Ops, lint.NewOptions(allowDestructive))

	return &computedPlan{Current: current, Target: target, Stmts: stmts, Findings: findings, PlanOptions: opts}, nil
}
