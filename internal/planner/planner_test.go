package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/differ"
)

func indexOf(ops []differ.Op, kind differ.OpKind, name string) int {
	for i, op := range ops {
		if op.Kind == kind && op.Name == name {
			return i
		}
	}
	return -1
}

// A new table referencing another new table via FK: the referenced
// table's CreateTable must precede the referencing table's
// AddForeignKey (and its own CreateTable).
func TestOrderCreatesBeforeUses(t *testing.T) {
	current := catalog.New()
	target := catalog.New()
	schema := target.GetOrCreateSchema("public")
	schema.Tables["orders"] = &catalog.Table{
		Schema: "public", Name: "orders",
		Columns: []*catalog.Column{
			{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}},
			{Name: "customer_id", Type: catalog.PgType{Kind: catalog.TypeBigInt}},
		},
		ForeignKeys: []*catalog.ForeignKey{
			{Name: "orders_customer_fk", Columns: []string{"customer_id"}, ReferencedSchema: "public", ReferencedTable: "customers", ReferencedColumns: []string{"id"}},
		},
		Indexes:  map[string]*catalog.Index{},
		Triggers: map[string]*catalog.Trigger{},
		Policies: map[string]*catalog.Policy{},
	}
	schema.Tables["customers"] = &catalog.Table{
		Schema: "public", Name: "customers",
		Columns:  []*catalog.Column{{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}}},
		Indexes:  map[string]*catalog.Index{},
		Triggers: map[string]*catalog.Trigger{},
		Policies: map[string]*catalog.Policy{},
	}

	diffResult, err := differ.Diff(current, target, differ.Options{})
	require.NoError(t, err)

	plan, err := Order(diffResult, current, target)
	require.NoError(t, err)

	createCustomers := indexOf(plan.Ops, differ.CreateTable, "customers")
	createOrders := indexOf(plan.Ops, differ.CreateTable, "orders")
	require.GreaterOrEqual(t, createCustomers, 0)
	require.GreaterOrEqual(t, createOrders, 0)
	assert.Less(t, createCustomers, createOrders, "referenced table must be created before the table that FKs to it")
}

// Dropping both tables: the referencing table must be dropped before
// the referenced one (drop-after-uses, reverse direction).
func TestOrderDropsAfterUses(t *testing.T) {
	current := catalog.New()
	curSchema := current.GetOrCreateSchema("public")
	curSchema.Tables["orders"] = &catalog.Table{
		Schema: "public", Name: "orders",
		Columns: []*catalog.Column{{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}}, {Name: "customer_id", Type: catalog.PgType{Kind: catalog.TypeBigInt}}},
		ForeignKeys: []*catalog.ForeignKey{
			{Name: "orders_customer_fk", Columns: []string{"customer_id"}, ReferencedSchema: "public", ReferencedTable: "customers", ReferencedColumns: []string{"id"}},
		},
		Indexes: map[string]*catalog.Index{}, Triggers: map[string]*catalog.Trigger{}, Policies: map[string]*catalog.Policy{},
	}
	curSchema.Tables["customers"] = &catalog.Table{
		Schema: "public", Name: "customers",
		Columns: []*catalog.Column{{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}}},
		Indexes: map[string]*catalog.Index{}, Triggers: map[string]*catalog.Trigger{}, Policies: map[string]*catalog.Policy{},
	}
	target := catalog.New()

	diffResult, err := differ.Diff(current, target, differ.Options{})
	require.NoError(t, err)

	plan, err := Order(diffResult, current, target)
	require.NoError(t, err)

	dropOrders := indexOf(plan.Ops, differ.DropTable, "orders")
	dropCustomers := indexOf(plan.Ops, differ.DropTable, "customers")
	require.GreaterOrEqual(t, dropOrders, 0)
	require.GreaterOrEqual(t, dropCustomers, 0)
	assert.Less(t, dropOrders, dropCustomers, "referencing table must be dropped before the table it FKs to")
}

// Within one table, AddColumn must precede the AddForeignKey that uses
// the new column.
func TestOrderAddColumnBeforeAddForeignKey(t *testing.T) {
	current := catalog.New()
	curSchema := current.GetOrCreateSchema("public")
	curSchema.Tables["customers"] = &catalog.Table{
		Schema: "public", Name: "customers",
		Columns: []*catalog.Column{{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}}},
		Indexes: map[string]*catalog.Index{}, Triggers: map[string]*catalog.Trigger{}, Policies: map[string]*catalog.Policy{},
	}
	curSchema.Tables["orders"] = &catalog.Table{
		Schema: "public", Name: "orders",
		Columns: []*catalog.Column{{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}}},
		Indexes: map[string]*catalog.Index{}, Triggers: map[string]*catalog.Trigger{}, Policies: map[string]*catalog.Policy{},
	}

	target := catalog.New()
	tgtSchema := target.GetOrCreateSchema("public")
	tgtSchema.Tables["customers"] = &catalog.Table{
		Schema: "public", Name: "customers",
		Columns: []*catalog.Column{{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}}},
		Indexes: map[string]*catalog.Index{}, Triggers: map[string]*catalog.Trigger{}, Policies: map[string]*catalog.Policy{},
	}
	tgtSchema.Tables["orders"] = &catalog.Table{
		Schema: "public", Name: "orders",
		Columns: []*catalog.Column{
			{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}},
			{Name: "customer_id", Type: catalog.PgType{Kind: catalog.TypeBigInt}},
		},
		ForeignKeys: []*catalog.ForeignKey{
			{Name: "orders_customer_fk", Columns: []string{"customer_id"}, ReferencedSchema: "public", ReferencedTable: "customers", ReferencedColumns: []string{"id"}},
		},
		Indexes: map[string]*catalog.Index{}, Triggers: map[string]*catalog.Trigger{}, Policies: map[string]*catalog.Policy{},
	}

	diffResult, err := differ.Diff(current, target, differ.Options{})
	require.NoError(t, err)

	plan, err := Order(diffResult, current, target)
	require.NoError(t, err)

	addCol := indexOf(plan.Ops, differ.AddColumn, "orders")
	addFK := indexOf(plan.Ops, differ.AddForeignKey, "orders")
	require.GreaterOrEqual(t, addCol, 0)
	require.GreaterOrEqual(t, addFK, 0)
	assert.Less(t, addCol, addFK)
}

// Determinism: running Order twice over the same inputs must produce
// byte-identical op sequences (spec §4.4's determinism requirement).
func TestOrderIsDeterministic(t *testing.T) {
	current := catalog.New()
	target := catalog.New()
	schema := target.GetOrCreateSchema("public")
	for _, name := range []string{"a", "b", "c", "d"} {
		schema.Tables[name] = &catalog.Table{
			Schema: "public", Name: name,
			Columns:  []*catalog.Column{{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}}},
			Indexes:  map[string]*catalog.Index{},
			Triggers: map[string]*catalog.Trigger{},
			Policies: map[string]*catalog.Policy{},
		}
	}

	diffResult, err := differ.Diff(current, target, differ.Options{})
	require.NoError(t, err)

	plan1, err := Order(diffResult, current, target)
	require.NoError(t, err)
	plan2, err := Order(diffResult, current, target)
	require.NoError(t, err)

	require.Equal(t, len(plan1.Ops), len(plan2.Ops))
	for i := range plan1.Ops {
		assert.Equal(t, plan1.Ops[i].Kind, plan2.Ops[i].Kind)
		assert.Equal(t, plan1.Ops[i].Name, plan2.Ops[i].Name)
	}
}

// FK type-change cascade: an AlterColumn touching an FK-participating
// column must be bracketed by a DropForeignKey/AddForeignKey pair.
func TestForeignKeyTypeChangeCascade(t *testing.T) {
	current := catalog.New()
	curSchema := current.GetOrCreateSchema("public")
	curSchema.Tables["customers"] = &catalog.Table{
		Schema: "public", Name: "customers",
		Columns: []*catalog.Column{{Name: "id", Type: catalog.PgType{Kind: catalog.TypeInteger}}},
		Indexes: map[string]*catalog.Index{}, Triggers: map[string]*catalog.Trigger{}, Policies: map[string]*catalog.Policy{},
	}
	curSchema.Tables["orders"] = &catalog.Table{
		Schema: "public", Name: "orders",
		Columns: []*catalog.Column{
			{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}},
			{Name: "customer_id", Type: catalog.PgType{Kind: catalog.TypeInteger}},
		},
		ForeignKeys: []*catalog.ForeignKey{
			{Name: "orders_customer_fk", Columns: []string{"customer_id"}, ReferencedSchema: "public", ReferencedTable: "customers", ReferencedColumns: []string{"id"}},
		},
		Indexes: map[string]*catalog.Index{}, Triggers: map[string]*catalog.Trigger{}, Policies: map[string]*catalog.Policy{},
	}

	target := catalog.New()
	tgtSchema := target.GetOrCreateSchema("public")
	tgtSchema.Tables["customers"] = &catalog.Table{
		Schema: "public", Name: "customers",
		Columns: []*catalog.Column{{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}}},
		Indexes: map[string]*catalog.Index{}, Triggers: map[string]*catalog.Trigger{}, Policies: map[string]*catalog.Policy{},
	}
	tgtSchema.Tables["orders"] = &catalog.Table{
		Schema: "public", Name: "orders",
		Columns: []*catalog.Column{
			{Name: "id", Type: catalog.PgType{Kind: catalog.TypeBigInt}},
			{Name: "customer_id", Type: catalog.PgType{Kind: catalog.TypeBigInt}},
		},
		ForeignKeys: []*catalog.ForeignKey{
			{Name: "orders_customer_fk", Columns: []string{"customer_id"}, ReferencedSchema: "public", ReferencedTable: "customers", ReferencedColumns: []string{"id"}},
		},
		Indexes: map[string]*catalog.Index{}, Triggers: map[string]*catalog.Trigger{}, Policies: map[string]*catalog.Policy{},
	}

	diffResult, err := differ.Diff(current, target, differ.Options{})
	require.NoError(t, err)

	plan, err := Order(diffResult, current, target)
	require.NoError(t, err)

	var dropFKs, addFKs []int
	alterCustomerID := -1
	for i, op := range plan.Ops {
		if op.Kind == differ.DropForeignKey && op.Secondary == "orders_customer_fk" {
			dropFKs = append(dropFKs, i)
		}
		if op.Kind == differ.AddForeignKey && op.Secondary == "orders_customer_fk" {
			addFKs = append(addFKs, i)
		}
		if op.Kind == differ.AlterColumn && op.Name == "customers" && op.Secondary == "id" {
			alterCustomerID = i
		}
	}
	require.NotEmpty(t, dropFKs)
	require.NotEmpty(t, addFKs)
	require.GreaterOrEqual(t, alterCustomerID, 0)

	hasDropBefore, hasAddAfter := false, false
	for _, d := range dropFKs {
		if d < alterCustomerID {
			hasDropBefore = true
		}
	}
	for _, a := range addFKs {
		if a > alterCustomerID {
			hasAddAfter = true
		}
	}
	assert.True(t, hasDropBefore, "expected a DropForeignKey cascaded before the FK column's type change")
	assert.True(t, hasAddAfter, "expected an AddForeignKey cascaded after the FK column's type change")
}
