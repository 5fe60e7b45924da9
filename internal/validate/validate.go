// Package validate implements component C8: it replays a plan's
// emitted statements against a scratch PostgreSQL instance, then
// re-introspects and re-diffs against the target catalog to prove the
// plan is idempotent. Grounded on the teacher's cmd/apply/apply.go
// executeGroup/executeGroupConcatenated/executeGroupIndividually split
// (contiguous non-directive statements run batched, directive-marked
// statements run alone), rewired onto internal/introspect and
// internal/differ instead of internal/plan.ExecutionGroup.
package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	pgtestcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/differ"
	"github.com/pgdrift/pgdrift/internal/emitter"
	"github.com/pgdrift/pgdrift/internal/introspect"
	"github.com/pgdrift/pgdrift/internal/pgderrors"
)

const scratchImage = "postgres:17-alpine"

// ExecutionError records one statement that failed during replay.
type ExecutionError struct {
	StmtIndex int
	SQL       string
	ServerMsg string
}

// Report is C8's output (spec.md §4.8).
type Report struct {
	ExecutionErrors []ExecutionError
	Idempotent      bool
	ResidualOps     []differ.Op
}

// Validate applies stmts in order against a disposable scratch
// database, then re-introspects it and diffs the result against
// target. An empty Report.ExecutionErrors and Report.ResidualOps means
// the plan converges exactly to target.
func Validate(ctx context.Context, target *catalog.Catalog, stmts []emitter.Statement, targetSchemas []string, diffOpts differ.Options) (*Report, error) {
	ctr, err := pgtestcontainer.Run(ctx, scratchImage,
		pgtestcontainer.WithDatabase("pgdrift_validate"),
		pgtestcontainer.WithUsername("pgdrift"),
		pgtestcontainer.WithPassword("pgdrift"),
		pgtestcontainer.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, pgderrors.Wrap(pgderrors.Execution, err, "start scratch database")
	}
	defer ctr.Terminate(ctx)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, pgderrors.Wrap(pgderrors.Execution, err, "resolve scratch database connection string")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, pgderrors.Wrap(pgderrors.Execution, err, "connect to scratch database")
	}
	defer pool.Close()

	report := &Report{}
	if err := replay(ctx, pool, stmts, report); err != nil {
		return nil, err
	}
	if len(report.ExecutionErrors) > 0 {
		return report, nil
	}

	after, err := introspect.New(pool).Introspect(ctx, targetSchemas)
	if err != nil {
		return nil, pgderrors.Wrap(pgderrors.Execution, err, "re-introspect scratch database")
	}

	residual, err := differ.Diff(after, target, diffOpts)
	if err != nil {
		return nil, pgderrors.Wrap(pgderrors.Execution, err, "re-diff against target")
	}
	report.ResidualOps = residual.Ops
	report.Idempotent = len(residual.Ops) == 0
	return report, nil
}

// replay executes stmts in the order emitted, batching contiguous
// InTransaction runs into a single implicit-transaction exec and
// running each OutsideTransaction statement on its own, matching the
// teacher's directive/no-directive execution split.
func replay(ctx context.Context, pool *pgxpool.Pool, stmts []emitter.Statement, report *Report) error {
	i := 0
	for i < len(stmts) {
		if stmts[i].Directive == emitter.OutsideTransaction {
			if err := execOne(ctx, pool, i, stmts[i].SQL); err != nil {
				report.ExecutionErrors = append(report.ExecutionErrors, *err)
			}
			i++
			continue
		}

		start := i
		var batch []string
		for i < len(stmts) && stmts[i].Directive == emitter.InTransaction {
			batch = append(batch, stmts[i].SQL)
			i++
		}
		if err := execOne(ctx, pool, start, strings.Join(batch, ";\n")+";"); err != nil {
			report.ExecutionErrors = append(report.ExecutionErrors, *err)
		}
	}
	return nil
}

func execOne(ctx context.Context, pool *pgxpool.Pool, stmtIndex int, sql string) *ExecutionError {
	if _, err := pool.Exec(ctx, sql); err != nil {
		return &ExecutionError{StmtIndex: stmtIndex, SQL: sql, ServerMsg: fmt.Sprintf("%v", err)}
	}
	return nil
}
