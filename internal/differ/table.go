package differ

import (
	"github.com/pgdrift/pgdrift/internal/catalog"
)

func diffTables(schemaName string, cur, tgt *catalog.Schema, opts Options, r *Result) {
	curTables := schemaTables(cur)
	tgtTables := schemaTables(tgt)

	for _, name := range sortedKeys(tgtTables) {
		t := tgtTables[name]
		c, existed := curTables[name]
		if !existed {
			newTable := t
			r.Ops = append(r.Ops, Op{Kind: CreateTable, Schema: schemaName, Name: name, Table: newTable})
			continue
		}
		diffTablePair(schemaName, name, c, t, opts, r)
	}
	for _, name := range sortedKeys(curTables) {
		if _, ok := tgtTables[name]; !ok {
			oldTable := curTables[name]
			r.Ops = append(r.Ops, Op{Kind: DropTable, Schema: schemaName, Name: name, Table: oldTable})
		}
	}
}

func schemaTables(s *catalog.Schema) map[string]*catalog.Table {
	if s == nil {
		return map[string]*catalog.Table{}
	}
	return s.Tables
}

// diffTablePair always compares column-by-column, index-by-index,
// FK-by-FK, check-by-check, policy-by-policy, grant-by-grant — per
// spec §4.3's "Tables: always compare" rule, even when the table
// itself is unchanged overall.
func diffTablePair(schemaName, tableName string, cur, tgt *catalog.Table, opts Options, r *Result) {
	diffColumns(schemaName, tableName, cur, tgt, r)
	diffPrimaryKey(schemaName, tableName, cur, tgt, r)
	diffUniqueConstraints(schemaName, tableName, cur, tgt, r)
	diffCheckConstraints(schemaName, tableName, cur, tgt, r)
	diffForeignKeys(schemaName, tableName, cur, tgt, r)
	diffIndexes(schemaName, tableName, cur, tgt, r)
	diffTriggers(schemaName, tableName, cur, tgt, r)
	diffPolicies(schemaName, tableName, cur, tgt, r)

	if opts.ManageOwnership && cur.Owner != tgt.Owner && tgt.Owner != "" {
		r.Ops = append(r.Ops, Op{Kind: AlterOwner, Schema: schemaName, Name: tableName, OwnerKind: "table", NewOwner: tgt.Owner})
	}
	if opts.ManageGrants {
		diffGrants("table", schemaName, tableName, cur.Grants, tgt.Grants, opts, r)
	}
}

func diffColumns(schemaName, tableName string, cur, tgt *catalog.Table, r *Result) {
	curCols := columnMap(cur)
	tgtCols := columnMap(tgt)

	for _, name := range orderedColumnNames(tgt) {
		t := tgtCols[name]
		c, existed := curCols[name]
		if !existed {
			newCol := t
			r.Ops = append(r.Ops, Op{Kind: AddColumn, Schema: schemaName, Name: tableName, Secondary: name, Column: newCol})
			continue
		}
		if change := diffColumn(c, t); change != nil {
			r.Ops = append(r.Ops, Op{
				Kind: AlterColumn, Schema: schemaName, Name: tableName, Secondary: name,
				ColumnDiff: change, Column: t,
			})
		}
	}
	for _, name := range orderedColumnNames(cur) {
		if _, ok := tgtCols[name]; !ok {
			oldCol := curCols[name]
			r.Ops = append(r.Ops, Op{Kind: DropColumn, Schema: schemaName, Name: tableName, Secondary: name, Column: oldCol})
		}
	}
}

func columnMap(t *catalog.Table) map[string]*catalog.Column {
	m := make(map[string]*catalog.Column, len(t.Columns))
	for _, c := range t.Columns {
		m[c.Name] = c
	}
	return m
}

func orderedColumnNames(t *catalog.Table) []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// diffColumn returns the changed facets, or nil if equal. A type
// change always surfaces; whether it is compatible (widening) or
// needs a USING hint is a C5 emitter concern, not a C3 concern — C3
// only records the target type (spec §4.3).
func diffColumn(cur, tgt *catalog.Column) *ColumnChange {
	var change ColumnChange
	changed := false

	if !cur.Type.Equal(tgt.Type) {
		t, old := tgt.Type, cur.Type
		change.DataType = &t
		change.OldType = &old
		changed = true
	}
	if cur.IsNullable != tgt.IsNullable {
		n := tgt.IsNullable
		change.Nullable = &n
		changed = true
	}
	if ptrStrDiffer(cur.Default, tgt.Default) {
		change.Default = tgt.Default
		change.DefaultSet = true
		changed = true
	}
	if cur.Identity != tgt.Identity {
		id := tgt.Identity
		change.Identity = &id
		changed = true
	}
	if cur.Collation != tgt.Collation {
		c := tgt.Collation
		change.Collation = &c
		changed = true
	}

	if !changed {
		return nil
	}
	return &change
}

func diffPrimaryKey(schemaName, tableName string, cur, tgt *catalog.Table, r *Result) {
	switch {
	case cur.PrimaryKey == nil && tgt.PrimaryKey != nil:
		pk := tgt.PrimaryKey
		r.Ops = append(r.Ops, Op{Kind: AddPrimaryKey, Schema: schemaName, Name: tableName, PrimaryKey: pk})
	case cur.PrimaryKey != nil && tgt.PrimaryKey == nil:
		pk := cur.PrimaryKey
		r.Ops = append(r.Ops, Op{Kind: DropPrimaryKey, Schema: schemaName, Name: tableName, PrimaryKey: pk})
	case cur.PrimaryKey != nil && tgt.PrimaryKey != nil && !stringSliceEqual(cur.PrimaryKey.Columns, tgt.PrimaryKey.Columns):
		oldPK, newPK := cur.PrimaryKey, tgt.PrimaryKey
		r.Ops = append(r.Ops, Op{Kind: DropPrimaryKey, Schema: schemaName, Name: tableName, PrimaryKey: oldPK, RewriteGroup: "pk:" + schemaName + "." + tableName})
		r.Ops = append(r.Ops, Op{Kind: AddPrimaryKey, Schema: schemaName, Name: tableName, PrimaryKey: newPK, RewriteGroup: "pk:" + schemaName + "." + tableName})
	}
}

func diffUniqueConstraints(schemaName, tableName string, cur, tgt *catalog.Table, r *Result) {
	curSet := uniqueMap(cur)
	tgtSet := uniqueMap(tgt)

	for _, name := range sortedKeys(tgtSet) {
		t := tgtSet[name]
		c, existed := curSet[name]
		if !existed {
			u := t
			r.Ops = append(r.Ops, Op{Kind: AddUniqueConstraint, Schema: schemaName, Name: tableName, Secondary: name, Unique: u})
			continue
		}
		if !stringSliceEqual(c.Columns, t.Columns) {
			oldU, newU := c, t
			r.Ops = append(r.Ops, Op{Kind: DropUniqueConstraint, Schema: schemaName, Name: tableName, Secondary: name, Unique: oldU, RewriteGroup: name})
			r.Ops = append(r.Ops, Op{Kind: AddUniqueConstraint, Schema: schemaName, Name: tableName, Secondary: name, Unique: newU, RewriteGroup: name})
		}
	}
	for _, name := range sortedKeys(curSet) {
		if _, ok := tgtSet[name]; !ok {
			u := curSet[name]
			r.Ops = append(r.Ops, Op{Kind: DropUniqueConstraint, Schema: schemaName, Name: tableName, Secondary: name, Unique: u})
		}
	}
}

func uniqueMap(t *catalog.Table) map[string]*catalog.UniqueConstraint {
	m := make(map[string]*catalog.UniqueConstraint, len(t.UniqueConstraints))
	for _, u := range t.UniqueConstraints {
		m[u.Name] = u
	}
	return m
}

// diffCheckConstraints: a predicate change with the same name must
// Drop then Add, since a CHECK constraint cannot be redefined in
// place (spec §4.3).
func diffCheckConstraints(schemaName, tableName string, cur, tgt *catalog.Table, r *Result) {
	curSet := checkMap(cur)
	tgtSet := checkMap(tgt)

	for _, name := range sortedKeys(tgtSet) {
		t := tgtSet[name]
		c, existed := curSet[name]
		if !existed {
			chk := t
			r.Ops = append(r.Ops, Op{Kind: AddCheckConstraint, Schema: schemaName, Name: tableName, Secondary: name, Check: chk})
			continue
		}
		if c.Expression != t.Expression {
			oldC, newC := c, t
			r.Ops = append(r.Ops, Op{Kind: DropCheckConstraint, Schema: schemaName, Name: tableName, Secondary: name, Check: oldC, RewriteGroup: name})
			r.Ops = append(r.Ops, Op{Kind: AddCheckConstraint, Schema: schemaName, Name: tableName, Secondary: name, Check: newC, RewriteGroup: name})
		}
	}
	for _, name := range sortedKeys(curSet) {
		if _, ok := tgtSet[name]; !ok {
			chk := curSet[name]
			r.Ops = append(r.Ops, Op{Kind: DropCheckConstraint, Schema: schemaName, Name: tableName, Secondary: name, Check: chk})
		}
	}
}

func checkMap(t *catalog.Table) map[string]*catalog.CheckConstraint {
	m := make(map[string]*catalog.CheckConstraint, len(t.CheckConstraints))
	for _, c := range t.CheckConstraints {
		m[c.Name] = c
	}
	return m
}

func diffForeignKeys(schemaName, tableName string, cur, tgt *catalog.Table, r *Result) {
	curSet := fkMap(cur)
	tgtSet := fkMap(tgt)

	for _, name := range sortedKeys(tgtSet) {
		t := tgtSet[name]
		c, existed := curSet[name]
		if !existed {
			fk := t
			r.Ops = append(r.Ops, Op{Kind: AddForeignKey, Schema: schemaName, Name: tableName, Secondary: name, ForeignKey: fk})
			continue
		}
		if fksDiffer(c, t) {
			oldFK, newFK := c, t
			r.Ops = append(r.Ops, Op{Kind: DropForeignKey, Schema: schemaName, Name: tableName, Secondary: name, ForeignKey: oldFK, RewriteGroup: name})
			r.Ops = append(r.Ops, Op{Kind: AddForeignKey, Schema: schemaName, Name: tableName, Secondary: name, ForeignKey: newFK, RewriteGroup: name})
		}
	}
	for _, name := range sortedKeys(curSet) {
		if _, ok := tgtSet[name]; !ok {
			fk := curSet[name]
			r.Ops = append(r.Ops, Op{Kind: DropForeignKey, Schema: schemaName, Name: tableName, Secondary: name, ForeignKey: fk})
		}
	}
}

func fksDiffer(a, b *catalog.ForeignKey) bool {
	return !stringSliceEqual(a.Columns, b.Columns) ||
		a.ReferencedSchema != b.ReferencedSchema ||
		a.ReferencedTable != b.ReferencedTable ||
		!stringSliceEqual(a.ReferencedColumns, b.ReferencedColumns) ||
		a.OnDelete != b.OnDelete ||
		a.OnUpdate != b.OnUpdate ||
		a.Deferrable != b.Deferrable ||
		a.InitiallyDeferred != b.InitiallyDeferred
}

func fkMap(t *catalog.Table) map[string]*catalog.ForeignKey {
	m := make(map[string]*catalog.ForeignKey, len(t.ForeignKeys))
	for _, fk := range t.ForeignKeys {
		m[fk.Name] = fk
	}
	return m
}

// diffIndexes skips any index that backs a PRIMARY KEY or UNIQUE
// constraint — those are owned by the constraint and must not also
// surface as an orphan index op (spec §4.3).
func diffIndexes(schemaName, tableName string, cur, tgt *catalog.Table, r *Result) {
	curOwned := ownedIndexNames(cur)
	tgtOwned := ownedIndexNames(tgt)

	for name, t := range tgt.Indexes {
		if tgtOwned[name] {
			continue
		}
		c, existed := cur.Indexes[name]
		if !existed || curOwned[name] {
			idx := t
			r.Ops = append(r.Ops, Op{Kind: AddIndex, Schema: schemaName, Name: tableName, Secondary: name, Index: idx})
			continue
		}
		if indexesDiffer(c, t) {
			oldI, newI := c, t
			r.Ops = append(r.Ops, Op{Kind: DropIndex, Schema: schemaName, Name: tableName, Secondary: name, Index: oldI, RewriteGroup: name})
			r.Ops = append(r.Ops, Op{Kind: AddIndex, Schema: schemaName, Name: tableName, Secondary: name, Index: newI, RewriteGroup: name})
		}
	}
	for name, c := range cur.Indexes {
		if curOwned[name] {
			continue
		}
		if _, ok := tgt.Indexes[name]; !ok {
			idx := c
			r.Ops = append(r.Ops, Op{Kind: DropIndex, Schema: schemaName, Name: tableName, Secondary: name, Index: idx})
		}
	}
}

func ownedIndexNames(t *catalog.Table) map[string]bool {
	owned := make(map[string]bool)
	if t.PrimaryKey != nil {
		owned[t.PrimaryKey.Name] = true
	}
	for _, u := range t.UniqueConstraints {
		owned[u.Name] = true
	}
	return owned
}

func indexesDiffer(a, b *catalog.Index) bool {
	if a.Unique != b.Unique || a.Method != b.Method || a.Where != b.Where || len(a.Columns) != len(b.Columns) {
		return true
	}
	for i := range a.Columns {
		if a.Columns[i] != b.Columns[i] {
			return true
		}
	}
	return !stringSliceEqual(a.Include, b.Include)
}

func diffTriggers(schemaName, tableName string, cur, tgt *catalog.Table, r *Result) {
	for name, t := range tgt.Triggers {
		c, existed := cur.Triggers[name]
		if !existed {
			trig := t
			r.Ops = append(r.Ops, Op{Kind: CreateTrigger, Schema: schemaName, Name: tableName, Secondary: name, Trigger: trig})
			continue
		}
		if triggersDiffer(c, t) {
			oldT, newT := c, t
			r.Ops = append(r.Ops, Op{Kind: DropTrigger, Schema: schemaName, Name: tableName, Secondary: name, Trigger: oldT, RewriteGroup: name})
			r.Ops = append(r.Ops, Op{Kind: CreateTrigger, Schema: schemaName, Name: tableName, Secondary: name, Trigger: newT, RewriteGroup: name})
		}
	}
	for name, c := range cur.Triggers {
		if _, ok := tgt.Triggers[name]; !ok {
			trig := c
			r.Ops = append(r.Ops, Op{Kind: DropTrigger, Schema: schemaName, Name: tableName, Secondary: name, Trigger: trig})
		}
	}
}

func triggersDiffer(a, b *catalog.Trigger) bool {
	if a.Timing != b.Timing || a.ForEach != b.ForEach || a.When != b.When || a.Function != b.Function {
		return true
	}
	if len(a.Events) != len(b.Events) {
		return true
	}
	for i := range a.Events {
		if a.Events[i] != b.Events[i] {
			return true
		}
	}
	return !stringSliceEqual(a.UpdateOf, b.UpdateOf)
}

func diffPolicies(schemaName, tableName string, cur, tgt *catalog.Table, r *Result) {
	for name, t := range tgt.Policies {
		c, existed := cur.Policies[name]
		if !existed {
			pol := t
			r.Ops = append(r.Ops, Op{Kind: CreatePolicy, Schema: schemaName, Name: tableName, Secondary: name, Policy: pol})
			continue
		}
		if policiesDiffer(c, t) {
			pol := t
			r.Ops = append(r.Ops, Op{Kind: AlterPolicy, Schema: schemaName, Name: tableName, Secondary: name, Policy: pol})
		}
	}
	for name, c := range cur.Policies {
		if _, ok := tgt.Policies[name]; !ok {
			pol := c
			r.Ops = append(r.Ops, Op{Kind: DropPolicy, Schema: schemaName, Name: tableName, Secondary: name, Policy: pol})
		}
	}
}

func policiesDiffer(a, b *catalog.Policy) bool {
	return a.Command != b.Command ||
		a.Permissive != b.Permissive ||
		a.Using != b.Using ||
		a.WithCheck != b.WithCheck ||
		!stringSliceEqual(a.Roles, b.Roles)
}
