// Package lint implements component C7: it evaluates an ordered plan
// against a small, fixed rule set for destructive changes and lock
// hazards, per spec.md §4.7. Grounded almost 1:1 on the original
// Rust implementation's lint::mod (rule names, severities, and the
// is_production-over-allow_destructive precedence for DropTable),
// carried into Go's idiom of one evaluator function per Op.
package lint

import (
	"fmt"
	"os"

	"github.com/pgdrift/pgdrift/internal/differ"
)

// Severity classifies a Result as blocking (Error) or advisory (Warning).
type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
)

// Result is one rule finding against a single op.
type Result struct {
	Rule     string
	Severity Severity
	Message  string
}

// Options configures rule evaluation. IsProduction defaults from the
// PGDRIFT_PROD env var (mirrors the original's PGMOLD_PROD), read once
// by NewOptions rather than on every lint call.
type Options struct {
	AllowDestructive bool
	IsProduction     bool
}

// NewOptions builds Options with IsProduction seeded from PGDRIFT_PROD.
func NewOptions(allowDestructive bool) Options {
	return Options{
		AllowDestructive: allowDestructive,
		IsProduction:     os.Getenv("PGDRIFT_PROD") == "1",
	}
}

// Lint evaluates every op in the plan and returns all findings in
// plan order.
func Lint(ops []differ.Op, opts Options) []Result {
	var results []Result
	for _, op := range ops {
		results = append(results, lintOp(op, opts)...)
	}
	return results
}

// HasErrors reports whether any result is Error severity — callers
// use this to decide whether to abort an apply.
func HasErrors(results []Result) bool {
	for _, r := range results {
		if r.Severity == Error {
			return true
		}
	}
	return false
}

func lintOp(op differ.Op, opts Options) []Result {
	var results []Result

	switch op.Kind {
	case differ.DropColumn:
		if !opts.AllowDestructive {
			results = append(results, Result{
				Rule: "deny_drop_column", Severity: Error,
				Message: fmt.Sprintf("dropping column %s.%s requires --allow-destructive", op.QualifiedName(), op.Secondary),
			})
		}

	case differ.DropTable:
		switch {
		case opts.IsProduction:
			results = append(results, Result{
				Rule: "deny_drop_table_in_prod", Severity: Error,
				Message: fmt.Sprintf("dropping table %s is not allowed in production (PGDRIFT_PROD=1)", op.QualifiedName()),
			})
		case !opts.AllowDestructive:
			results = append(results, Result{
				Rule: "deny_drop_table", Severity: Error,
				Message: fmt.Sprintf("dropping table %s requires --allow-destructive", op.QualifiedName()),
			})
		}

	case differ.DropEnum:
		if !opts.AllowDestructive {
			results = append(results, Result{
				Rule: "deny_drop_enum", Severity: Error,
				Message: fmt.Sprintf("dropping enum %s (also how enum values are removed or reordered) requires --allow-destructive", op.QualifiedName()),
			})
		}

	case differ.AlterColumn:
		if op.ColumnDiff == nil {
			break
		}
		if op.ColumnDiff.DataType != nil {
			results = append(results, Result{
				Rule: "lock_hazard_alter_column_type", Severity: Warning,
				Message: fmt.Sprintf("altering type of %s.%s takes an ACCESS EXCLUSIVE lock and rewrites the table", op.QualifiedName(), op.Secondary),
			})
		}
		if op.ColumnDiff.Nullable != nil && !*op.ColumnDiff.Nullable {
			results = append(results, Result{
				Rule: "warn_set_not_null", Severity: Warning,
				Message: fmt.Sprintf("setting %s.%s to NOT NULL may fail if existing rows have NULL values", op.QualifiedName(), op.Secondary),
			})
		}

	case differ.AddForeignKey:
		results = append(results, Result{
			Rule: "lock_hazard_add_foreign_key", Severity: Warning,
			Message: fmt.Sprintf("adding foreign key on %s without NOT VALID locks both tables while existing rows are validated", op.QualifiedName()),
		})

	case differ.AddIndex:
		results = append(results, Result{
			Rule: "lock_hazard_create_index", Severity: Warning,
			Message: fmt.Sprintf("CREATE INDEX on %s without CONCURRENTLY blocks writes to the table", op.QualifiedName()),
		})

	case differ.AddCheckConstraint, differ.AddPrimaryKey, differ.AddUniqueConstraint:
		results = append(results, Result{
			Rule: "lock_hazard_add_constraint", Severity: Warning,
			Message: fmt.Sprintf("adding a constraint on %s scans the table under an ACCESS EXCLUSIVE lock", op.QualifiedName()),
		})
	}

	if op.ColumnDiff != nil && op.ColumnDiff.DataType != nil && isNarrowing(op) {
		results = append(results, Result{
			Rule: "warn_type_narrowing", Severity: Warning,
			Message: fmt.Sprintf("altering %s.%s to a narrower type may cause data loss", op.QualifiedName(), op.Secondary),
		})
	}

	return results
}

// isNarrowing reports strict type narrowing between the column's prior
// and new type, both recorded on ColumnDiff by the differ.
func isNarrowing(op differ.Op) bool {
	if op.ColumnDiff == nil || op.ColumnDiff.DataType == nil || op.ColumnDiff.OldType == nil {
		return false
	}
	return op.ColumnDiff.DataType.IsNarrowerThan(*op.ColumnDiff.OldType)
}
