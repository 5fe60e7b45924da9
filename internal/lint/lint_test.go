package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/differ"
)

func TestBlocksDropColumnWithoutFlag(t *testing.T) {
	ops := []differ.Op{{Kind: differ.DropColumn, Schema: "public", Name: "users", Secondary: "email"}}
	results := Lint(ops, Options{AllowDestructive: false})
	assert.True(t, HasErrors(results))
	assert.Equal(t, "deny_drop_column", results[0].Rule)
}

func TestAllowsDropColumnWithFlag(t *testing.T) {
	ops := []differ.Op{{Kind: differ.DropColumn, Schema: "public", Name: "users", Secondary: "email"}}
	results := Lint(ops, Options{AllowDestructive: true})
	assert.False(t, HasErrors(results))
}

func TestBlocksDropTableWithoutFlag(t *testing.T) {
	ops := []differ.Op{{Kind: differ.DropTable, Schema: "public", Name: "users"}}
	results := Lint(ops, Options{AllowDestructive: false, IsProduction: false})
	assert.True(t, HasErrors(results))
	assert.Equal(t, "deny_drop_table", results[0].Rule)
}

func TestBlocksDropTableInProductionEvenWithFlag(t *testing.T) {
	ops := []differ.Op{{Kind: differ.DropTable, Schema: "public", Name: "users"}}
	results := Lint(ops, Options{AllowDestructive: true, IsProduction: true})
	assert.True(t, HasErrors(results))
	assert.Equal(t, "deny_drop_table_in_prod", results[0].Rule)
}

func TestWarnsOnTypeNarrowing(t *testing.T) {
	oldType := catalog.PgType{Kind: catalog.TypeBigInt}
	newType := catalog.PgType{Kind: catalog.TypeSmallInt}
	ops := []differ.Op{{
		Kind: differ.AlterColumn, Schema: "public", Name: "users", Secondary: "score",
		ColumnDiff: &differ.ColumnChange{DataType: &newType, OldType: &oldType},
	}}
	results := Lint(ops, Options{})
	assert.False(t, HasErrors(results))
	assert.Contains(t, ruleNames(results), "warn_type_narrowing")
}

func TestWarnsOnSetNotNull(t *testing.T) {
	notNull := false
	ops := []differ.Op{{
		Kind: differ.AlterColumn, Schema: "public", Name: "users", Secondary: "bio",
		ColumnDiff: &differ.ColumnChange{Nullable: &notNull},
	}}
	results := Lint(ops, Options{})
	assert.False(t, HasErrors(results))
	assert.Contains(t, ruleNames(results), "warn_set_not_null")
}

func TestFlagsLockHazardsOnIndexAndForeignKeyAdditions(t *testing.T) {
	ops := []differ.Op{
		{Kind: differ.AddIndex, Schema: "public", Name: "users", Secondary: "users_email_idx"},
		{Kind: differ.AddForeignKey, Schema: "public", Name: "orders"},
	}
	results := Lint(ops, Options{})
	names := ruleNames(results)
	assert.Contains(t, names, "lock_hazard_create_index")
	assert.Contains(t, names, "lock_hazard_add_foreign_key")
	assert.False(t, HasErrors(results))
}

func TestHasErrorsReturnsFalseForWarningsOnly(t *testing.T) {
	results := []Result{{Rule: "warn_something", Severity: Warning, Message: "just a warning"}}
	assert.False(t, HasErrors(results))
}

func ruleNames(results []Result) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Rule
	}
	return names
}
