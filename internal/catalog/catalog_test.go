package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsersTable() *Table {
	return &Table{
		Schema: "public",
		Name:   "users",
		Columns: []*Column{
			{Name: "id", Type: PgType{Kind: TypeBigInt}, IsNullable: false},
			{Name: "email", Type: PgType{Kind: TypeText}, IsNullable: false},
		},
		Indexes:  map[string]*Index{},
		Triggers: map[string]*Trigger{},
		Policies: map[string]*Policy{},
	}
}

func TestGetOrCreateSchemaIsIdempotent(t *testing.T) {
	c := New()
	s1 := c.GetOrCreateSchema("public")
	s2 := c.GetOrCreateSchema("public")
	assert.Same(t, s1, s2)
}

func TestFinalizeAppliesOwnership(t *testing.T) {
	c := New()
	schema := c.GetOrCreateSchema("public")
	schema.Tables["users"] = newUsersTable()
	c.AddPendingOwnership("table", "public.users", "app_owner")

	require.NoError(t, c.Finalize())
	assert.Equal(t, "app_owner", schema.Tables["users"].Owner)
}

func TestFinalizeDanglingOwnershipFails(t *testing.T) {
	c := New()
	c.AddPendingOwnership("table", "public.missing", "app_owner")

	err := c.Finalize()
	require.Error(t, err)
}

func TestFinalizePolicyRequiresRLS(t *testing.T) {
	c := New()
	schema := c.GetOrCreateSchema("public")
	schema.Tables["users"] = newUsersTable() // RLSEnabled defaults false
	c.AddPendingPolicy("public.users", Policy{Name: "p", Table: "public.users", Command: PolicySelect})

	err := c.Finalize()
	require.Error(t, err)
}

func TestFinalizePolicyAttachesWhenRLSEnabled(t *testing.T) {
	c := New()
	schema := c.GetOrCreateSchema("public")
	table := newUsersTable()
	table.RLSEnabled = true
	schema.Tables["users"] = table
	c.AddPendingPolicy("public.users", Policy{Name: "p", Table: "public.users", Command: PolicySelect})

	require.NoError(t, c.Finalize())
	assert.Contains(t, table.Policies, "p")
}

func TestMergeFailsOnDuplicateEntity(t *testing.T) {
	a := New()
	a.GetOrCreateSchema("public").Tables["users"] = newUsersTable()

	b := New()
	b.GetOrCreateSchema("public").Tables["users"] = newUsersTable()

	err := a.Merge(b)
	require.Error(t, err)
}

func TestGrantUnionsPrivileges(t *testing.T) {
	c := New()
	schema := c.GetOrCreateSchema("public")
	schema.Tables["users"] = newUsersTable()
	c.AddPendingGrant("table", "public.users", "reader", []string{"SELECT"}, false)
	c.AddPendingGrant("table", "public.users", "reader", []string{"INSERT"}, false)

	require.NoError(t, c.Finalize())
	grants := schema.Tables["users"].Grants
	require.Len(t, grants, 1)
	assert.ElementsMatch(t, []string{"SELECT", "INSERT"}, grants[0].Privileges)
}

func TestForeignKeyInvariantDanglingTarget(t *testing.T) {
	c := New()
	schema := c.GetOrCreateSchema("public")
	orders := &Table{
		Schema: "public",
		Name:   "orders",
		Columns: []*Column{{Name: "user_id", Type: PgType{Kind: TypeBigInt}}},
		ForeignKeys: []*ForeignKey{{
			Name: "fk_user", Columns: []string{"user_id"},
			ReferencedSchema: "public", ReferencedTable: "users", ReferencedColumns: []string{"id"},
		}},
		Indexes: map[string]*Index{}, Triggers: map[string]*Trigger{}, Policies: map[string]*Policy{},
	}
	schema.Tables["orders"] = orders

	err := c.Finalize()
	require.Error(t, err)
}

func TestPgTypeNarrowing(t *testing.T) {
	bigint := PgType{Kind: TypeBigInt}
	smallint := PgType{Kind: TypeSmallInt}
	assert.True(t, smallint.IsNarrowerThan(bigint))
	assert.False(t, bigint.IsNarrowerThan(smallint))
}
