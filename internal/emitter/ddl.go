package emitter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/differ"
)

func emitCreateExtension(op differ.Op) string {
	schema := ""
	if op.Extension != nil && op.Extension.Schema != "" && op.Extension.Schema != "public" {
		schema = fmt.Sprintf(" SCHEMA %s", quoteIdent(op.Extension.Schema))
	}
	return fmt.Sprintf("CREATE EXTENSION %s%s;", quoteIdent(op.Name), schema)
}

func emitCreateEnum(op differ.Op) string {
	labels := make([]string, len(op.Enum.Labels))
	for i, l := range op.Enum.Labels {
		labels[i] = "'" + strings.ReplaceAll(l, "'", "''") + "'"
	}
	return fmt.Sprintf("CREATE TYPE %s AS ENUM (%s);", qualifyName(op.Schema, op.Name), strings.Join(labels, ", "))
}

func emitAddEnumValue(op differ.Op) Statement {
	ev := op.EnumValue
	sql := fmt.Sprintf("ALTER TYPE %s ADD VALUE '%s'", qualifyName(op.Schema, op.Name), strings.ReplaceAll(ev.Value, "'", "''"))
	switch {
	case ev.Before != "":
		sql += fmt.Sprintf(" BEFORE '%s'", strings.ReplaceAll(ev.Before, "'", "''"))
	case ev.After != "":
		sql += fmt.Sprintf(" AFTER '%s'", strings.ReplaceAll(ev.After, "'", "''"))
	}
	sql += ";"
	return Statement{SQL: sql, ObjectType: "type", Operation: "alter", ObjectPath: op.QualifiedName(), Op: op}
}

func emitCreateDomain(op differ.Op) string {
	d := op.Domain
	sql := fmt.Sprintf("CREATE DOMAIN %s AS %s", qualifyName(op.Schema, op.Name), typeSQL(d.BaseType))
	if d.NotNull {
		sql += " NOT NULL"
	}
	if d.Default != nil {
		sql += fmt.Sprintf(" DEFAULT %s", *d.Default)
	}
	if d.CheckExpr != "" {
		name := d.CheckName
		if name == "" {
			name = d.Name + "_check"
		}
		sql += fmt.Sprintf(" CONSTRAINT %s CHECK (%s)", quoteIdent(name), d.CheckExpr)
	}
	return sql + ";"
}

func emitAlterDomain(op differ.Op) []Statement {
	d := op.Domain
	var stmts []Statement
	name := qualifyName(op.Schema, op.Name)
	if d.NotNull {
		stmts = append(stmts, one(op, "domain", "alter", op.QualifiedName(), fmt.Sprintf("ALTER DOMAIN %s SET NOT NULL;", name))...)
	} else {
		stmts = append(stmts, one(op, "domain", "alter", op.QualifiedName(), fmt.Sprintf("ALTER DOMAIN %s DROP NOT NULL;", name))...)
	}
	if d.Default != nil {
		stmts = append(stmts, one(op, "domain", "alter", op.QualifiedName(), fmt.Sprintf("ALTER DOMAIN %s SET DEFAULT %s;", name, *d.Default))...)
	}
	return stmts
}

func emitCreateSequence(op differ.Op) string {
	s := op.Sequence
	sql := fmt.Sprintf("CREATE SEQUENCE %s", qualifyName(op.Schema, op.Name))
	if s.Increment != 0 {
		sql += fmt.Sprintf(" INCREMENT BY %d", s.Increment)
	}
	if s.MinValue != 0 {
		sql += fmt.Sprintf(" MINVALUE %d", s.MinValue)
	}
	if s.MaxValue != 0 {
		sql += fmt.Sprintf(" MAXVALUE %d", s.MaxValue)
	}
	if s.StartValue != 0 {
		sql += fmt.Sprintf(" START WITH %d", s.StartValue)
	}
	if s.CacheSize != 0 {
		sql += fmt.Sprintf(" CACHE %d", s.CacheSize)
	}
	if s.Cycle {
		sql += " CYCLE"
	}
	sql += ";"
	if s.OwnedByTable != "" {
		sql += fmt.Sprintf("\nALTER SEQUENCE %s OWNED BY %s.%s;", qualifyName(op.Schema, op.Name), qualifyName(op.Schema, s.OwnedByTable), quoteIdent(s.OwnedByColumn))
	}
	return sql
}

func emitAlterSequence(op differ.Op) string {
	s := op.Sequence
	name := qualifyName(op.Schema, op.Name)
	parts := []string{}
	if s.Increment != 0 {
		parts = append(parts, fmt.Sprintf("INCREMENT BY %d", s.Increment))
	}
	if s.MinValue != 0 {
		parts = append(parts, fmt.Sprintf("MINVALUE %d", s.MinValue))
	}
	if s.MaxValue != 0 {
		parts = append(parts, fmt.Sprintf("MAXVALUE %d", s.MaxValue))
	}
	if s.CacheSize != 0 {
		parts = append(parts, fmt.Sprintf("CACHE %d", s.CacheSize))
	}
	return fmt.Sprintf("ALTER SEQUENCE %s %s;", name, strings.Join(parts, " "))
}

// emitCreateTable follows spec.md §4.5's "inline by-column constraints,
// out-of-line for multi-column/FK/index" rule.
func emitCreateTable(op differ.Op) string {
	t := op.Table
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", qualifyName(op.Schema, op.Name))

	var lines []string
	for _, col := range t.Columns {
		lines = append(lines, "    "+columnDef(col))
	}
	if t.PrimaryKey != nil && len(t.PrimaryKey.Columns) == 1 {
		lines[colIndex(t, t.PrimaryKey.Columns[0])] += " PRIMARY KEY"
	} else if t.PrimaryKey != nil {
		lines = append(lines, fmt.Sprintf("    CONSTRAINT %s PRIMARY KEY (%s)", quoteIdent(t.PrimaryKey.Name), quoteIdentList(t.PrimaryKey.Columns)))
	}
	for _, u := range t.UniqueConstraints {
		lines = append(lines, fmt.Sprintf("    CONSTRAINT %s UNIQUE (%s)", quoteIdent(u.Name), quoteIdentList(u.Columns)))
	}
	for _, c := range t.CheckConstraints {
		lines = append(lines, fmt.Sprintf("    CONSTRAINT %s CHECK (%s)", quoteIdent(c.Name), c.Expression))
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	if t.IsPartitioned {
		fmt.Fprintf(&b, " PARTITION BY %s (%s)", strings.ToUpper(t.PartitionBy), t.PartitionKey)
	}
	b.WriteString(";")

	for _, fk := range t.ForeignKeys {
		b.WriteString("\n" + foreignKeyDDL(op.Schema, op.Name, fk))
	}
	for _, idx := range t.Indexes {
		b.WriteString("\n" + indexDDL(op.Schema, op.Name, idx, false))
	}
	return b.String()
}

func colIndex(t *catalog.Table, name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return 0
}

func columnDef(c *catalog.Column) string {
	sql := fmt.Sprintf("%s %s", quoteIdent(c.Name), typeSQL(c.Type))
	if c.Collation != "" {
		sql += fmt.Sprintf(" COLLATE %s", quoteIdent(c.Collation))
	}
	switch c.Identity {
	case catalog.IdentityAlways:
		sql += " GENERATED ALWAYS AS IDENTITY"
	case catalog.IdentityByDefault:
		sql += " GENERATED BY DEFAULT AS IDENTITY"
	}
	if c.GeneratedAs != "" {
		sql += fmt.Sprintf(" GENERATED ALWAYS AS (%s) STORED", c.GeneratedAs)
	}
	if !c.IsNullable {
		sql += " NOT NULL"
	}
	if c.Default != nil {
		sql += fmt.Sprintf(" DEFAULT %s", *c.Default)
	}
	return sql
}

func foreignKeyDDL(schema, table string, fk *catalog.ForeignKey) string {
	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		qualifyName(schema, table), quoteIdent(fk.Name), quoteIdentList(fk.Columns),
		qualifyName(fk.ReferencedSchema, fk.ReferencedTable), quoteIdentList(fk.ReferencedColumns))
	if fk.OnDelete != "" && fk.OnDelete != "no action" {
		sql += " ON DELETE " + strings.ToUpper(fk.OnDelete)
	}
	if fk.OnUpdate != "" && fk.OnUpdate != "no action" {
		sql += " ON UPDATE " + strings.ToUpper(fk.OnUpdate)
	}
	if fk.Deferrable {
		sql += " DEFERRABLE"
		if fk.InitiallyDeferred {
			sql += " INITIALLY DEFERRED"
		}
	}
	return sql + ";"
}

func indexDDL(schema, table string, idx *catalog.Index, concurrent bool) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	if concurrent {
		b.WriteString("CONCURRENTLY ")
	}
	b.WriteString(quoteIdent(idx.Name))
	fmt.Fprintf(&b, " ON %s", qualifyName(schema, table))
	if idx.Method != "" && idx.Method != "btree" {
		fmt.Fprintf(&b, " USING %s", idx.Method)
	}
	b.WriteString(" (")
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		part := c.Name
		if part == "" {
			part = "(" + c.Expression + ")"
		} else {
			part = quoteIdent(part)
		}
		if c.Collation != "" {
			part += " COLLATE " + quoteIdent(c.Collation)
		}
		if c.Desc {
			part += " DESC"
		}
		cols[i] = part
	}
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(")")
	if len(idx.Include) > 0 {
		fmt.Fprintf(&b, " INCLUDE (%s)", quoteIdentList(idx.Include))
	}
	if idx.Where != "" {
		fmt.Fprintf(&b, " WHERE %s", idx.Where)
	}
	b.WriteString(";")
	return b.String()
}

func emitCreatePartition(op differ.Op) string {
	t := op.Table
	return fmt.Sprintf("CREATE TABLE %s PARTITION OF %s %s;",
		qualifyName(op.Schema, op.Name), qualifyName(op.Schema, parentSchemaQualified(t.PartitionParent)), t.PartitionBound)
}

func parentSchemaQualified(qualified string) string {
	for i := 0; i < len(qualified); i++ {
		if qualified[i] == '.' {
			return qualified[i+1:]
		}
	}
	return qualified
}

func emitAddColumn(op differ.Op) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", qualifyName(op.Schema, op.Name), columnDef(op.Column))
}

// emitAlterColumn combines every changed facet into one ALTER TABLE
// statement with comma-separated ALTER COLUMN clauses, matching how
// Postgres accepts multiple sub-clauses in a single statement.
func emitAlterColumn(op differ.Op) string {
	d := op.ColumnDiff
	col := quoteIdent(op.Secondary)
	var clauses []string
	if d.DataType != nil {
		using := d.UsingClause
		clause := fmt.Sprintf("ALTER COLUMN %s TYPE %s", col, typeSQL(*d.DataType))
		if using != "" {
			clause += " USING " + using
		}
		clauses = append(clauses, clause)
	}
	if d.Nullable != nil {
		if *d.Nullable {
			clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s DROP NOT NULL", col))
		} else {
			clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s SET NOT NULL", col))
		}
	}
	if d.DefaultSet {
		if d.Default == nil {
			clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s DROP DEFAULT", col))
		} else {
			clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s SET DEFAULT %s", col, *d.Default))
		}
	}
	if d.Identity != nil {
		switch *d.Identity {
		case catalog.IdentityNone:
			clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s DROP IDENTITY IF EXISTS", col))
		case catalog.IdentityAlways:
			clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s ADD GENERATED ALWAYS AS IDENTITY", col))
		case catalog.IdentityByDefault:
			clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s ADD GENERATED BY DEFAULT AS IDENTITY", col))
		}
	}
	if d.Collation != nil {
		clauses = append(clauses, fmt.Sprintf("ALTER COLUMN %s SET DATA TYPE %s COLLATE %s", col, typeSQL(op.Column.Type), quoteIdent(*d.Collation)))
	}
	return fmt.Sprintf("ALTER TABLE %s %s;", qualifyName(op.Schema, op.Name), strings.Join(clauses, ", "))
}

func emitAddPrimaryKey(op differ.Op) string {
	pk := op.PrimaryKey
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s);",
		qualifyName(op.Schema, op.Name), quoteIdent(pk.Name), quoteIdentList(pk.Columns))
}

func emitAddUnique(op differ.Op) string {
	u := op.Unique
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);",
		qualifyName(op.Schema, op.Name), quoteIdent(u.Name), quoteIdentList(u.Columns))
}

func emitAddCheck(op differ.Op) string {
	c := op.Check
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);",
		qualifyName(op.Schema, op.Name), quoteIdent(c.Name), c.Expression)
}

func emitAddForeignKey(op differ.Op) string {
	return foreignKeyDDL(op.Schema, op.Name, op.ForeignKey)
}

func emitDropConstraint(op differ.Op, name string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", qualifyName(op.Schema, op.Name), quoteIdent(name))
}

func emitCreateIndex(op differ.Op, concurrent bool) string {
	return indexDDL(op.Schema, op.Name, op.Index, concurrent)
}

func emitCreateFunction(op differ.Op, replaceOnly bool) string {
	f := op.Function
	verb := "CREATE"
	if replaceOnly {
		verb = "CREATE OR REPLACE"
	}
	args := make([]string, len(f.Arguments))
	for i, a := range f.Arguments {
		arg := typeSQL(a.Type)
		if a.Name != "" {
			arg = quoteIdent(a.Name) + " " + arg
		}
		if a.Default != "" {
			arg += " DEFAULT " + a.Default
		}
		args[i] = arg
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s FUNCTION %s(%s) RETURNS %s\n", verb, qualifyName(op.Schema, op.Name), strings.Join(args, ", "), typeSQL(f.ReturnType))
	fmt.Fprintf(&b, "LANGUAGE %s\n", f.Language)
	switch f.Volatility {
	case catalog.VolatilityImmutable:
		b.WriteString("IMMUTABLE\n")
	case catalog.VolatilityStable:
		b.WriteString("STABLE\n")
	}
	if f.Strict {
		b.WriteString("STRICT\n")
	}
	if f.Security == catalog.SecurityDefiner {
		b.WriteString("SECURITY DEFINER\n")
	}
	keys := make([]string, 0, len(f.Config))
	for k := range f.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "SET %s = %s\n", k, f.Config[k])
	}
	fmt.Fprintf(&b, "AS $pgdrift$\n%s\n$pgdrift$;", f.Body)
	return b.String()
}

func emitCreateView(op differ.Op) string {
	v := op.View
	verb := "CREATE"
	if v.Materialized {
		verb += " MATERIALIZED"
	} else {
		verb += " OR REPLACE"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s VIEW %s", verb, qualifyName(op.Schema, op.Name))
	if len(v.Columns) > 0 {
		fmt.Fprintf(&b, " (%s)", quoteIdentList(v.Columns))
	}
	if v.SecurityInvoker {
		b.WriteString(" WITH (security_invoker = true)")
	}
	fmt.Fprintf(&b, " AS\n%s;", v.Definition)
	return b.String()
}

func emitDropView(op differ.Op) string {
	kw := "VIEW"
	if op.View != nil && op.View.Materialized {
		kw = "MATERIALIZED VIEW"
	}
	return fmt.Sprintf("DROP %s %s;", kw, qualifyName(op.Schema, op.Name))
}

func emitCreateTrigger(op differ.Op) string {
	t := op.Trigger
	timing := "BEFORE"
	switch t.Timing {
	case catalog.TriggerAfter:
		timing = "AFTER"
	case catalog.TriggerInsteadOf:
		timing = "INSTEAD OF"
	}
	events := make([]string, 0, len(t.Events))
	for _, e := range t.Events {
		switch e {
		case catalog.EventInsert:
			events = append(events, "INSERT")
		case catalog.EventUpdate:
			ev := "UPDATE"
			if len(t.UpdateOf) > 0 {
				ev += " OF " + quoteIdentList(t.UpdateOf)
			}
			events = append(events, ev)
		case catalog.EventDelete:
			events = append(events, "DELETE")
		case catalog.EventTruncate:
			events = append(events, "TRUNCATE")
		}
	}
	forEach := "STATEMENT"
	if t.ForEach == "row" {
		forEach = "ROW"
	}
	sql := fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s\nFOR EACH %s",
		quoteIdent(t.Name), timing, strings.Join(events, " OR "), qualifyName(op.Schema, op.Name), forEach)
	if t.When != "" {
		sql += fmt.Sprintf("\nWHEN (%s)", t.When)
	}
	sql += fmt.Sprintf("\nEXECUTE FUNCTION %s;", t.Function)
	return sql
}

func emitCreatePolicy(op differ.Op) string {
	p := op.Policy
	cmd := "ALL"
	switch p.Command {
	case catalog.PolicySelect:
		cmd = "SELECT"
	case catalog.PolicyInsert:
		cmd = "INSERT"
	case catalog.PolicyUpdate:
		cmd = "UPDATE"
	case catalog.PolicyDelete:
		cmd = "DELETE"
	}
	permissive := "PERMISSIVE"
	if !p.Permissive {
		permissive = "RESTRICTIVE"
	}
	roles := make([]string, len(p.Roles))
	for i, r := range p.Roles {
		if r == "PUBLIC" {
			roles[i] = "PUBLIC"
		} else {
			roles[i] = quoteIdent(r)
		}
	}
	sql := fmt.Sprintf("CREATE POLICY %s ON %s AS %s FOR %s TO %s",
		quoteIdent(p.Name), qualifyName(op.Schema, op.Name), permissive, cmd, strings.Join(roles, ", "))
	if p.Using != "" {
		sql += fmt.Sprintf("\nUSING (%s)", p.Using)
	}
	if p.WithCheck != "" {
		sql += fmt.Sprintf("\nWITH CHECK (%s)", p.WithCheck)
	}
	return sql + ";"
}

// emitAlterPolicy renders a policy content change as DROP+CREATE —
// Postgres has no ALTER POLICY for USING/WITH CHECK/role-list changes
// together, so this always round-trips through a drop.
func emitAlterPolicy(op differ.Op) []Statement {
	path := op.QualifiedName() + "." + op.Secondary
	drop := Statement{SQL: fmt.Sprintf("DROP POLICY %s ON %s;", quoteIdent(op.Secondary), qualifyName(op.Schema, op.Name)), ObjectType: "policy", Operation: "drop", ObjectPath: path, Op: op}
	create := Statement{SQL: emitCreatePolicy(op), ObjectType: "policy", Operation: "create", ObjectPath: path, Op: op}
	return []Statement{drop, create}
}

func emitAlterOwner(op differ.Op) string {
	kw := strings.ToUpper(op.OwnerKind)
	return fmt.Sprintf("ALTER %s %s OWNER TO %s;", kw, qualifyName(op.Schema, op.Name), quoteIdent(op.NewOwner))
}

func emitGrant(op differ.Op) string {
	kw := strings.ToUpper(op.OwnerKind)
	if kw == "" {
		kw = "TABLE"
	}
	grantee := op.Grantee
	if grantee != "PUBLIC" {
		grantee = quoteIdent(grantee)
	}
	sql := fmt.Sprintf("GRANT %s ON %s %s TO %s", strings.Join(op.Privileges, ", "), kw, qualifyName(op.Schema, op.Name), grantee)
	if op.WithGrant {
		sql += " WITH GRANT OPTION"
	}
	return sql + ";"
}

func emitRevoke(op differ.Op) string {
	kw := strings.ToUpper(op.OwnerKind)
	if kw == "" {
		kw = "TABLE"
	}
	grantee := op.Grantee
	if grantee != "PUBLIC" {
		grantee = quoteIdent(grantee)
	}
	return fmt.Sprintf("REVOKE %s ON %s %s FROM %s;", strings.Join(op.Privileges, ", "), kw, qualifyName(op.Schema, op.Name), grantee)
}

func emitAlterDefaultPrivileges(op differ.Op) string {
	dp := op.DefaultPrivilege
	sql := fmt.Sprintf("ALTER DEFAULT PRIVILEGES FOR ROLE %s", quoteIdent(dp.ForRole))
	if dp.Schema != "" {
		sql += fmt.Sprintf(" IN SCHEMA %s", quoteIdent(dp.Schema))
	}
	grantee := dp.Grantee
	if grantee != "PUBLIC" {
		grantee = quoteIdent(grantee)
	}
	if len(dp.Privileges) == 0 {
		return sql + fmt.Sprintf(" REVOKE ALL ON %s FROM %s;", strings.ToUpper(dp.ObjectType)+"S", grantee)
	}
	sql += fmt.Sprintf(" GRANT %s ON %s TO %s;", strings.Join(dp.Privileges, ", "), strings.ToUpper(dp.ObjectType)+"S", grantee)
	return sql
}
