package validate_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/differ"
	"github.com/pgdrift/pgdrift/internal/emitter"
	"github.com/pgdrift/pgdrift/internal/normalize"
	"github.com/pgdrift/pgdrift/internal/planner"
	"github.com/pgdrift/pgdrift/internal/validate"
)

// requireIntegration skips the scratch-database replay unless the
// caller opted in, mirroring internal/introspect/introspect_test.go's
// integration gate.
func requireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("PGDRIFT_INTEGRATION") != "1" {
		t.Skip("set PGDRIFT_INTEGRATION=1 to run scratch-database replay tests")
	}
}

func buildTarget() *catalog.Catalog {
	cat := catalog.New()
	s := cat.GetOrCreateSchema("public")
	s.Tables["widgets"] = &catalog.Table{
		Schema: "public", Name: "widgets",
		Columns: []*catalog.Column{
			{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}, IsNullable: false},
			{Name: "name", Type: catalog.PgType{Kind: catalog.TypeText}, IsNullable: false},
		},
		PrimaryKey: &catalog.PrimaryKey{Name: "widgets_pkey", Columns: []string{"id"}},
		Indexes:    map[string]*catalog.Index{}, Triggers: map[string]*catalog.Trigger{}, Policies: map[string]*catalog.Policy{},
	}
	return cat
}

func TestValidateReportsIdempotentPlan(t *testing.T) {
	requireIntegration(t)

	target := buildTarget()
	require.NoError(t, normalize.Catalog(target))
	current := catalog.New()
	require.NoError(t, normalize.Catalog(current))

	diffResult, err := differ.Diff(current, target, differ.Options{ManageGrants: true})
	require.NoError(t, err)

	plan, err := planner.Order(diffResult, current, target)
	require.NoError(t, err)

	stmts, err := emitter.Emit(plan.Ops)
	require.NoError(t, err)

	report, err := validate.Validate(context.Background(), target, stmts, []string{"public"}, differ.Options{ManageGrants: true})
	require.NoError(t, err)
	require.Empty(t, report.ExecutionErrors)
	require.True(t, report.Idempotent, "residual ops: %+v", report.ResidualOps)
}
