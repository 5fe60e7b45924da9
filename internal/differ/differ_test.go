package differ

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgdrift/pgdrift/internal/catalog"
)

func baseOptions() Options {
	return Options{ManageGrants: true}
}

func usersTable(withBio bool) *catalog.Table {
	t := &catalog.Table{
		Schema: "public",
		Name:   "users",
		Columns: []*catalog.Column{
			{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}},
			{Name: "email", Type: catalog.PgType{Kind: catalog.TypeText}},
		},
		PrimaryKey: &catalog.PrimaryKey{Name: "users_pkey", Columns: []string{"id"}},
		Indexes:    map[string]*catalog.Index{},
		Triggers:   map[string]*catalog.Trigger{},
		Policies:   map[string]*catalog.Policy{},
	}
	if withBio {
		t.Columns = append(t.Columns, &catalog.Column{Name: "bio", Type: catalog.PgType{Kind: catalog.TypeText}, IsNullable: true})
	}
	return t
}

// S1. Add column.
func TestS1AddColumn(t *testing.T) {
	cur := catalog.New()
	cur.GetOrCreateSchema("public").Tables["users"] = usersTable(false)
	tgt := catalog.New()
	tgt.GetOrCreateSchema("public").Tables["users"] = usersTable(true)

	result, err := Diff(cur, tgt, baseOptions())
	require.NoError(t, err)

	var adds []Op
	for _, op := range result.Ops {
		if op.Kind == AddColumn {
			adds = append(adds, op)
		}
	}
	require.Len(t, adds, 1)
	assert.Equal(t, "users", adds[0].Name)
	assert.Equal(t, "bio", adds[0].Secondary)
	assert.True(t, adds[0].Column.IsNullable)
}

// S3. Function signature change with dependent policy: C3 emits one
// DropFunction and one CreateFunction (the unchanged policy gets no op
// here; C4's recreation cascade adds its DropPolicy/CreatePolicy pair),
// and records the table->function edge from the policy's USING clause.
func TestS3FunctionSignatureChangeEmitsDropCreate(t *testing.T) {
	cur := catalog.New()
	curSchema := cur.GetOrCreateSchema("public")
	curSchema.Functions["check_access()"] = &catalog.Function{
		Schema: "public", Name: "check_access", Language: "sql", Body: "select true",
	}
	table := &catalog.Table{
		Schema: "public", Name: "t", RLSEnabled: true,
		Columns:  []*catalog.Column{{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}}},
		Indexes:  map[string]*catalog.Index{},
		Triggers: map[string]*catalog.Trigger{},
		Policies: map[string]*catalog.Policy{
			"p": {Name: "p", Table: "public.t", Command: catalog.PolicySelect, Using: "check_access()"},
		},
	}
	curSchema.Tables["t"] = table

	tgt := catalog.New()
	tgtSchema := tgt.GetOrCreateSchema("public")
	tgtSchema.Functions["check_access(text)"] = &catalog.Function{
		Schema: "public", Name: "check_access", Language: "sql", Body: "select true",
		Arguments: []catalog.Argument{{Name: "role", Type: catalog.PgType{Kind: catalog.TypeText}, Default: "'admin'"}},
	}
	tgtTable := &catalog.Table{
		Schema: "public", Name: "t", RLSEnabled: true,
		Columns:  []*catalog.Column{{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}}},
		Indexes:  map[string]*catalog.Index{},
		Triggers: map[string]*catalog.Trigger{},
		Policies: map[string]*catalog.Policy{
			"p": {Name: "p", Table: "public.t", Command: catalog.PolicySelect, Using: "check_access()"},
		},
	}
	tgtSchema.Tables["t"] = tgtTable

	result, err := Diff(cur, tgt, baseOptions())
	require.NoError(t, err)

	kinds := make(map[OpKind]int)
	for _, op := range result.Ops {
		kinds[op.Kind]++
	}
	assert.Equal(t, 1, kinds[DropFunction])
	assert.Equal(t, 1, kinds[CreateFunction])

	foundEdge := false
	for _, e := range result.Edges {
		if e.From.Kind == NodeTable && e.To.Kind == NodeFunction {
			foundEdge = true
		}
	}
	assert.True(t, foundEdge, "expected a table->function dependency edge from the policy USING clause")
}

// S5. Enum value append.
func TestS5EnumValueAppend(t *testing.T) {
	cur := catalog.New()
	cur.GetOrCreateSchema("public").Enums["status"] = &catalog.EnumType{
		Schema: "public", Name: "status", Labels: []string{"active", "inactive"},
	}
	tgt := catalog.New()
	tgt.GetOrCreateSchema("public").Enums["status"] = &catalog.EnumType{
		Schema: "public", Name: "status", Labels: []string{"active", "pending", "inactive"},
	}

	result, err := Diff(cur, tgt, baseOptions())
	require.NoError(t, err)

	var adds []Op
	for _, op := range result.Ops {
		if op.Kind == AddEnumValue {
			adds = append(adds, op)
		}
	}
	require.Len(t, adds, 1)
	assert.Equal(t, "pending", adds[0].EnumValue.Value)
	assert.Equal(t, "inactive", adds[0].EnumValue.Before)
}

func TestEnumReorderIsDestructive(t *testing.T) {
	cur := catalog.New()
	cur.GetOrCreateSchema("public").Enums["status"] = &catalog.EnumType{
		Schema: "public", Name: "status", Labels: []string{"active", "inactive"},
	}
	tgt := catalog.New()
	tgt.GetOrCreateSchema("public").Enums["status"] = &catalog.EnumType{
		Schema: "public", Name: "status", Labels: []string{"inactive", "active"},
	}

	result, err := Diff(cur, tgt, baseOptions())
	require.NoError(t, err)

	kinds := make(map[OpKind]int)
	for _, op := range result.Ops {
		kinds[op.Kind]++
	}
	assert.Equal(t, 1, kinds[DropEnum])
	assert.Equal(t, 1, kinds[CreateEnum])
}

func TestDropColumnEmitted(t *testing.T) {
	cur := catalog.New()
	cur.GetOrCreateSchema("public").Tables["users"] = usersTable(true)
	tgt := catalog.New()
	tgt.GetOrCreateSchema("public").Tables["users"] = usersTable(false)

	result, err := Diff(cur, tgt, baseOptions())
	require.NoError(t, err)

	var drops []Op
	for _, op := range result.Ops {
		if op.Kind == DropColumn {
			drops = append(drops, op)
		}
	}
	require.Len(t, drops, 1)
	assert.Equal(t, "bio", drops[0].Secondary)
}
