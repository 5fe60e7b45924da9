package parser

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgdrift/pgdrift/internal/catalog"
)

func parseCreateTable(cat *catalog.Catalog, n *pg_query.CreateStmt) error {
	schemaName, tableName := relationName(n.Relation)
	s := cat.GetOrCreateSchema(schemaName)

	table := &catalog.Table{
		Schema: schemaName, Name: tableName,
		Indexes: map[string]*catalog.Index{}, Triggers: map[string]*catalog.Trigger{}, Policies: map[string]*catalog.Policy{},
	}
	if n.Partspec != nil {
		table.Kind = catalog.TablePartitionedRoot
	}
	if n.Partbound != nil {
		table.Kind = catalog.TablePartitionChild
		parentSchema, parentName := relationName(n.InhRelations[0].GetRangeVar())
		table.PartitionParent = catalog.QualifiedKey(parentSchema, parentName)
		cat.PartitionParents[table.QualifiedName()] = table.PartitionParent
	}

	for _, elt := range n.TableElts {
		switch e := elt.Node.(type) {
		case *pg_query.Node_ColumnDef:
			col := parseColumnDef(e.ColumnDef, table)
			table.Columns = append(table.Columns, col)
		case *pg_query.Node_Constraint:
			applyTableConstraint(table, e.Constraint)
		}
	}

	s.Tables[tableName] = table
	return nil
}

func parseColumnDef(def *pg_query.ColumnDef, table *catalog.Table) *catalog.Column {
	col := &catalog.Column{Name: def.Colname, IsNullable: true}
	if def.TypeName != nil {
		col.Type = parseType(def.TypeName)
	}
	for _, c := range def.Constraints {
		cons := c.GetConstraint()
		if cons == nil {
			continue
		}
		switch cons.Contype {
		case pg_query.ConstrType_CONSTR_NOTNULL:
			col.IsNullable = false
		case pg_query.ConstrType_CONSTR_NULL:
			col.IsNullable = true
		case pg_query.ConstrType_CONSTR_DEFAULT:
			if cons.RawExpr != nil {
				v := deparseExpr(cons.RawExpr)
				col.Default = &v
			}
		case pg_query.ConstrType_CONSTR_IDENTITY:
			if cons.GeneratedWhen == "a" {
				col.Identity = catalog.IdentityAlways
			} else {
				col.Identity = catalog.IdentityByDefault
			}
		case pg_query.ConstrType_CONSTR_PRIMARY:
			col.IsNullable = false
			table.PrimaryKey = &catalog.PrimaryKey{Name: constraintName(cons, table.Name, "pkey", col.Name), Columns: []string{col.Name}}
		case pg_query.ConstrType_CONSTR_UNIQUE:
			table.UniqueConstraints = append(table.UniqueConstraints, &catalog.UniqueConstraint{
				Name: constraintName(cons, table.Name, "key", col.Name), Columns: []string{col.Name},
			})
		case pg_query.ConstrType_CONSTR_CHECK:
			if cons.RawExpr != nil {
				table.CheckConstraints = append(table.CheckConstraints, &catalog.CheckConstraint{
					Name: constraintName(cons, table.Name, "check", col.Name), Expression: deparseExpr(cons.RawExpr),
				})
			}
		case pg_query.ConstrType_CONSTR_FOREIGN:
			table.ForeignKeys = append(table.ForeignKeys, parseInlineForeignKey(cons, col.Name, table.Name))
		}
	}
	return col
}

func constraintName(cons *pg_query.Constraint, table, suffix, col string) string {
	if cons.Conname != "" {
		return cons.Conname
	}
	return fmt.Sprintf("%s_%s_%s", table, col, suffix)
}

func parseInlineForeignKey(cons *pg_query.Constraint, col, table string) *catalog.ForeignKey {
	refSchema, refTable := "public", ""
	if cons.Pktable != nil {
		refSchema, refTable = relationName(cons.Pktable)
	}
	fk := &catalog.ForeignKey{
		Name: constraintName(cons, table, "fkey", col), Columns: []string{col},
		ReferencedSchema: refSchema, ReferencedTable: refTable,
		ReferencedColumns: nameList(cons.PkAttrs),
		OnDelete:          referentialAction(cons.FkDelAction), OnUpdate: referentialAction(cons.FkUpdAction),
		Deferrable: cons.Deferrable, InitiallyDeferred: cons.Initdeferred,
	}
	return fk
}

func referentialAction(action string) string {
	switch action {
	case "r":
		return "restrict"
	case "c":
		return "cascade"
	case "n":
		return "set null"
	case "d":
		return "set default"
	default:
		return "no action"
	}
}

func applyTableConstraint(table *catalog.Table, cons *pg_query.Constraint) {
	cols := nameList(cons.Keys)
	switch cons.Contype {
	case pg_query.ConstrType_CONSTR_PRIMARY:
		table.PrimaryKey = &catalog.PrimaryKey{Name: tableConstraintName(cons, table.Name, "pkey", cols), Columns: cols}
		for _, cn := range cols {
			if c := table.ColumnByName(cn); c != nil {
				c.IsNullable = false
			}
		}
	case pg_query.ConstrType_CONSTR_UNIQUE:
		table.UniqueConstraints = append(table.UniqueConstraints, &catalog.UniqueConstraint{
			Name: tableConstraintName(cons, table.Name, "key", cols), Columns: cols,
		})
	case pg_query.ConstrType_CONSTR_CHECK:
		if cons.RawExpr != nil {
			table.CheckConstraints = append(table.CheckConstraints, &catalog.CheckConstraint{
				Name: tableConstraintName(cons, table.Name, "check", cols), Expression: deparseExpr(cons.RawExpr),
			})
		}
	case pg_query.ConstrType_CONSTR_FOREIGN:
		fkCols := cols
		if len(fkCols) == 0 {
			fkCols = nameList(cons.FkAttrs)
		}
		refSchema, refTable := "public", ""
		if cons.Pktable != nil {
			refSchema, refTable = relationName(cons.Pktable)
		}
		table.ForeignKeys = append(table.ForeignKeys, &catalog.ForeignKey{
			Name: tableConstraintName(cons, table.Name, "fkey", fkCols), Columns: fkCols,
			ReferencedSchema: refSchema, ReferencedTable: refTable, ReferencedColumns: nameList(cons.PkAttrs),
			OnDelete: referentialAction(cons.FkDelAction), OnUpdate: referentialAction(cons.FkUpdAction),
			Deferrable: cons.Deferrable, InitiallyDeferred: cons.Initdeferred,
		})
	}
}

func tableConstraintName(cons *pg_query.Constraint, table, suffix string, cols []string) string {
	if cons.Conname != "" {
		return cons.Conname
	}
	if len(cols) > 0 {
		return fmt.Sprintf("%s_%s_%s", table, cols[0], suffix)
	}
	return fmt.Sprintf("%s_%s", table, suffix)
}

// deparseExpr renders an expression node back to SQL text via
// pg_query's deparser, the same approach C2's normalizer uses for
// default/check expressions — this keeps expression text canonical
// without a hand-rolled AST-to-string walk.
func deparseExpr(expr *pg_query.Node) string {
	wrapped := &pg_query.SelectStmt{
		TargetList: []*pg_query.Node{
			{Node: &pg_query.Node_ResTarget{ResTarget: &pg_query.ResTarget{Val: expr}}},
		},
	}
	stmt := &pg_query.RawStmt{Stmt: &pg_query.Node{Node: &pg_query.Node_SelectStmt{SelectStmt: wrapped}}}
	result := &pg_query.ParseResult{Stmts: []*pg_query.RawStmt{stmt}}
	out, err := pg_query.Deparse(result)
	if err != nil {
		return ""
	}
	const prefix = "SELECT "
	if len(out) > len(prefix) {
		return out[len(prefix):]
	}
	return out
}

func parseAlterTable(cat *catalog.Catalog, n *pg_query.AlterTableStmt) error {
	if n.Objtype != pg_query.ObjectType_OBJECT_TABLE {
		return nil
	}
	schemaName, tableName := relationName(n.Relation)
	s := cat.GetOrCreateSchema(schemaName)
	table, ok := s.Tables[tableName]
	if !ok {
		return nil // target schema describes tables in one forward pass; out-of-order ALTER is a caller error, not ours to detect here
	}
	for _, c := range n.Cmds {
		cmd := c.GetAlterTableCmd()
		if cmd == nil {
			continue
		}
		switch cmd.Subtype {
		case pg_query.AlterTableType_AT_AddConstraint:
			if cons := cmd.GetDef().GetConstraint(); cons != nil {
				applyTableConstraint(table, cons)
			}
		case pg_query.AlterTableType_AT_SetNotNull:
			if c := table.ColumnByName(cmd.Name); c != nil {
				c.IsNullable = false
			}
		case pg_query.AlterTableType_AT_DropNotNull:
			if c := table.ColumnByName(cmd.Name); c != nil {
				c.IsNullable = true
			}
		case pg_query.AlterTableType_AT_EnableRowSecurity:
			table.RLSEnabled = true
		case pg_query.AlterTableType_AT_DisableRowSecurity:
			table.RLSEnabled = false
		case pg_query.AlterTableType_AT_ColumnDefault:
			if c := table.ColumnByName(cmd.Name); c != nil && cmd.Def != nil {
				v := deparseExpr(cmd.Def)
				c.Default = &v
			}
		}
	}
	return nil
}

func parseCreateIndex(cat *catalog.Catalog, n *pg_query.IndexStmt) error {
	if n.Idxname == "" {
		return nil
	}
	schemaName, tableName := relationName(n.Relation)
	s := cat.GetOrCreateSchema(schemaName)
	table, ok := s.Tables[tableName]
	if !ok {
		return nil
	}

	idx := &catalog.Index{Name: n.Idxname, Unique: n.Unique, Method: "btree", Concurrent: n.Concurrent}
	if n.AccessMethod != "" {
		idx.Method = n.AccessMethod
	}
	for _, p := range n.IndexParams {
		elem := p.GetIndexElem()
		if elem == nil {
			continue
		}
		ic := catalog.IndexColumn{Name: elem.Name, Desc: elem.Ordering == pg_query.SortByDir_SORTBY_DESC}
		if elem.Name == "" && elem.Expr != nil {
			ic.Expression = deparseExpr(elem.Expr)
		}
		idx.Columns = append(idx.Columns, ic)
	}
	if n.WhereClause != nil {
		idx.Where = deparseExpr(n.WhereClause)
	}
	table.Indexes[n.Idxname] = idx
	return nil
}
