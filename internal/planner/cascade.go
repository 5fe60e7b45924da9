package planner

import (
	"strings"

	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/differ"
)

// applyForeignKeyCascade implements spec §4.4 item 2: a column-type
// change on either side of a live foreign key must drop the
// constraint before the ALTER COLUMN and re-add it afterward, since
// Postgres refuses to change a column's type while a dependent FK
// constraint exists. It inspects current and target catalogs (not
// just the op list) to find FKs the differ never touched because
// they didn't change themselves.
type fkRef struct {
	schema, table string
	fk            *catalog.ForeignKey
}

func (r fkRef) group() string { return "fkcascade:" + r.schema + "." + r.table + "." + r.fk.Name }

// applyForeignKeyCascade implements spec §4.4 item 2: a column-type
// change on either side of a live foreign key must drop the
// constraint before the ALTER COLUMN(s) touching it and re-add it
// afterward, since Postgres refuses to change a column's type while a
// dependent FK constraint exists. It inspects current and target
// catalogs (not just the op list) to find FKs the differ never
// touched because they didn't change themselves.
//
// Exactly one Drop/Add pair is synthesized per live FK, even when both
// its referencing and referenced column change type in the same plan
// (a naive per-AlterColumn approach would double-drop the constraint).
func applyForeignKeyCascade(ops []differ.Op, current, target *catalog.Catalog) []differ.Op {
	var liveFKs []fkRef
	for schemaName, schema := range target.Schemas {
		for tableName, table := range schema.Tables {
			curTable := lookupTable(current, schemaName, tableName)
			if curTable == nil {
				continue
			}
			for _, fk := range table.ForeignKeys {
				if curFKByName(curTable, fk.Name) != nil {
					liveFKs = append(liveFKs, fkRef{schema: schemaName, table: tableName, fk: fk})
				}
			}
		}
	}
	if len(liveFKs) == 0 {
		return ops
	}

	// For each live FK, find the first and last op index touching it.
	type span struct {
		ref            fkRef
		first, last    int
	}
	spans := make(map[string]*span)
	for i, op := range ops {
		if op.Kind != differ.AlterColumn || op.ColumnDiff == nil || op.ColumnDiff.DataType == nil {
			continue
		}
		for _, ref := range liveFKs {
			touches := (ref.schema == op.Schema && ref.table == op.Name && containsStr(ref.fk.Columns, op.Secondary)) ||
				(ref.fk.ReferencedSchema == op.Schema && ref.fk.ReferencedTable == op.Name && containsStr(ref.fk.ReferencedColumns, op.Secondary))
			if !touches {
				continue
			}
			key := ref.group()
			if s, ok := spans[key]; ok {
				if i < s.first {
					s.first = i
				}
				if i > s.last {
					s.last = i
				}
			} else {
				spans[key] = &span{ref: ref, first: i, last: i}
			}
		}
	}
	if len(spans) == 0 {
		return ops
	}

	dropBefore := make(map[int][]fkRef)
	addAfter := make(map[int][]fkRef)
	groupOf := make(map[int]string)
	for key, s := range spans {
		dropBefore[s.first] = append(dropBefore[s.first], s.ref)
		addAfter[s.last] = append(addAfter[s.last], s.ref)
		for i := s.first; i <= s.last; i++ {
			if ops[i].Kind == differ.AlterColumn {
				groupOf[i] = key
			}
		}
	}

	out := make([]differ.Op, 0, len(ops)+len(spans)*2)
	for i, op := range ops {
		for _, ref := range dropBefore[i] {
			out = append(out, differ.Op{Kind: differ.DropForeignKey, Schema: ref.schema, Name: ref.table, Secondary: ref.fk.Name, ForeignKey: ref.fk, RewriteGroup: ref.group(), Recreate: true})
		}
		if g, ok := groupOf[i]; ok {
			op.RewriteGroup = g
		}
		out = append(out, op)
		for _, ref := range addAfter[i] {
			out = append(out, differ.Op{Kind: differ.AddForeignKey, Schema: ref.schema, Name: ref.table, Secondary: ref.fk.Name, ForeignKey: ref.fk, RewriteGroup: ref.group(), Recreate: true})
		}
	}
	return out
}

func curFKByName(t *catalog.Table, name string) *catalog.ForeignKey {
	for _, fk := range t.ForeignKeys {
		if fk.Name == name {
			return fk
		}
	}
	return nil
}

func lookupTable(c *catalog.Catalog, schema, name string) *catalog.Table {
	s, ok := c.Schemas[schema]
	if !ok {
		return nil
	}
	return s.Tables[name]
}

func containsStr(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// applyRecreationCascade implements spec §4.4 item 4: dropping a
// function that a policy's USING/WITH CHECK clause references forces
// the policy to be dropped first and recreated after, since Postgres
// won't let you DROP FUNCTION while a policy depends on it. Ops
// synthesized here are marked Recreate: true even though the policy's
// own definition is unchanged.
func applyRecreationCascade(ops []differ.Op, edges []differ.Edge, current *catalog.Catalog) []differ.Op {
	dropFns := make(map[string]bool) // function qualified name -> dropped
	// Edges come from the target catalog, where a re-created function has
	// its new argument list, so they are matched without the argument list.
	dropBases := make(map[string]bool)
	for _, op := range ops {
		if op.Kind == differ.DropFunction {
			dropFns[op.QualifiedName()] = true
			dropBases[strings.SplitN(op.QualifiedName(), "(", 2)[0]] = true
		}
	}
	if len(dropFns) == 0 {
		return ops
	}

	dependentTables := make(map[string]bool) // table qualified name
	for _, e := range edges {
		if e.To.Kind == differ.NodeFunction && dropBases[strings.SplitN(e.To.Key, "(", 2)[0]] && e.From.Kind == differ.NodeTable {
			dependentTables[e.From.Key] = true
		}
	}
	if len(dependentTables) == 0 {
		return ops
	}

	var cascadeOps []differ.Op
	alreadyDropped := make(map[string]bool)
	for _, op := range ops {
		if op.Kind == differ.DropPolicy || op.Kind == differ.CreatePolicy {
			alreadyDropped[op.Schema+"."+op.Name+"."+op.Secondary] = true
		}
	}

	for schemaName, schema := range current.Schemas {
		for tableName, table := range schema.Tables {
			key := catalog.QualifiedKey(schemaName, tableName)
			if !dependentTables[key] {
				continue
			}
			for polName, pol := range table.Policies {
				fqKey := schemaName + "." + tableName + "." + polName
				if alreadyDropped[fqKey] {
					continue
				}
				if !policyReferencesDroppedFn(pol, dropFns) {
					continue
				}
				group := "polcascade:" + fqKey
				cascadeOps = append(cascadeOps,
					differ.Op{Kind: differ.DropPolicy, Schema: schemaName, Name: tableName, Secondary: polName, Policy: pol, RewriteGroup: group, Recreate: true},
					differ.Op{Kind: differ.CreatePolicy, Schema: schemaName, Name: tableName, Secondary: polName, Policy: pol, RewriteGroup: group, Recreate: true},
				)
			}
		}
	}
	return append(ops, cascadeOps...)
}

func policyReferencesDroppedFn(pol *catalog.Policy, dropFns map[string]bool) bool {
	for fqName := range dropFns {
		idx := strings.LastIndex(fqName, ".")
		sig := fqName
		if idx >= 0 {
			sig = fqName[idx+1:]
		}
		parenIdx := strings.Index(sig, "(")
		plainName := sig
		if parenIdx >= 0 {
			plainName = sig[:parenIdx]
		}
		if strings.Contains(pol.Using, plainName+"(") || strings.Contains(pol.WithCheck, plainName+"(") {
			return true
		}
	}
	return false
}
