// Package introspect implements the live-database half of the catalog
// sources: it walks pg_catalog/information_schema through pgx and
// populates a catalog.Catalog, mirroring the teacher's internal/ir/
// builder.go per-concern Build* method breakdown (buildTables,
// buildColumns, buildConstraints, ...) one schema query at a time.
// Unlike the teacher, which queries serially through sqlc-generated
// code, independent per-table concerns here run concurrently via
// golang.org/x/sync/errgroup once the table list is known.
package introspect

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/pgderrors"
)

// Introspector builds a catalog.Catalog from a live PostgreSQL
// connection pool.
type Introspector struct {
	pool *pgxpool.Pool
}

// New wraps an already-established pool. Callers own the pool's
// lifecycle (cliutil.DSN resolves the connection string; cmd/pgdrift
// opens the pool and closes it after Introspect returns).
func New(pool *pgxpool.Pool) *Introspector {
	return &Introspector{pool: pool}
}

// Introspect reads every schema whose name appears in schemas (all
// non-system schemas if schemas is empty) and returns a finalized
// catalog.Catalog.
func (in *Introspector) Introspect(ctx context.Context, schemas []string) (*catalog.Catalog, error) {
	cat := catalog.New()

	names, err := in.introspectSchemas(ctx, cat, schemas)
	if err != nil {
		return nil, pgderrors.Wrap(pgderrors.Introspection, err, "introspect schemas")
	}
	if err := in.introspectExtensions(ctx, cat); err != nil {
		return nil, pgderrors.Wrap(pgderrors.Introspection, err, "introspect extensions")
	}

	tables, err := in.introspectTables(ctx, cat, names)
	if err != nil {
		return nil, pgderrors.Wrap(pgderrors.Introspection, err, "introspect tables")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return in.introspectColumns(gctx, tables) })
	g.Go(func() error { return in.introspectConstraints(gctx, tables) })
	g.Go(func() error { return in.introspectIndexes(gctx, tables) })
	g.Go(func() error { return in.introspectTriggers(gctx, tables) })
	g.Go(func() error { return in.introspectPolicies(gctx, tables) })
	g.Go(func() error { return in.introspectSequences(gctx, cat, names) })
	g.Go(func() error { return in.introspectViews(gctx, cat, names) })
	g.Go(func() error { return in.introspectFunctions(gctx, cat, names) })
	g.Go(func() error { return in.introspectEnums(gctx, cat, names) })
	g.Go(func() error { return in.introspectDomains(gctx, cat, names) })
	if err := g.Wait(); err != nil {
		return nil, pgderrors.Wrap(pgderrors.Introspection, err, "introspect schema objects")
	}

	if err := in.introspectGrants(ctx, tables); err != nil {
		return nil, pgderrors.Wrap(pgderrors.Introspection, err, "introspect grants")
	}

	if err := cat.Finalize(); err != nil {
		return nil, pgderrors.Wrap(pgderrors.Introspection, err, "finalize introspected catalog")
	}
	return cat, nil
}

var systemSchemas = map[string]bool{
	"pg_catalog": true, "information_schema": true, "pg_toast": true,
}

func (in *Introspector) introspectSchemas(ctx context.Context, cat *catalog.Catalog, want []string) ([]string, error) {
	rows, err := in.pool.Query(ctx, `
		SELECT n.nspname, COALESCE(r.rolname, '')
		FROM pg_namespace n
		LEFT JOIN pg_roles r ON r.oid = n.nspowner
		WHERE n.nspname NOT LIKE 'pg_%' AND n.nspname <> 'information_schema'
		ORDER BY n.nspname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wanted := toSet(want)
	var names []string
	for rows.Next() {
		var name, owner string
		if err := rows.Scan(&name, &owner); err != nil {
			return nil, err
		}
		if systemSchemas[name] {
			continue
		}
		if len(wanted) > 0 && !wanted[name] {
			continue
		}
		s := cat.GetOrCreateSchema(name)
		s.Owner = owner
		names = append(names, name)
	}
	return names, rows.Err()
}

func (in *Introspector) introspectExtensions(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := in.pool.Query(ctx, `
		SELECT e.extname, n.nspname, e.extversion
		FROM pg_extension e
		JOIN pg_namespace n ON n.oid = e.extnamespace`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var ext catalog.Extension
		if err := rows.Scan(&ext.Name, &ext.Schema, &ext.Version); err != nil {
			return err
		}
		cat.Extensions[ext.Name] = &ext
	}
	return rows.Err()
}

// tableRef carries enough identity for the concurrent per-table
// introspection stages to find their way back into the catalog.
type tableRef struct {
	schema string
	name   string
	table  *catalog.Table
}

func (in *Introspector) introspectTables(ctx context.Context, cat *catalog.Catalog, schemas []string) ([]tableRef, error) {
	rows, err := in.pool.Query(ctx, `
		SELECT n.nspname, c.relname, c.relkind, COALESCE(r.rolname, ''),
		       COALESCE(obj_description(c.oid, 'pg_class'), ''), c.relrowsecurity,
		       COALESCE(p.partstrat, ''), pg_get_expr(c.relpartbound, c.oid)
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_roles r ON r.oid = c.relowner
		LEFT JOIN pg_partitioned_table p ON p.partrelid = c.oid
		WHERE c.relkind IN ('r', 'p') AND n.nspname = ANY($1)
		ORDER BY n.nspname, c.relname`, schemas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []tableRef
	for rows.Next() {
		var schema, name, relkind, owner, comment, partStrat string
		var rls bool
		var partBound *string
		if err := rows.Scan(&schema, &name, &relkind, &owner, &comment, &rls, &partStrat, &partBound); err != nil {
			return nil, err
		}
		t := &catalog.Table{
			Schema: schema, Name: name, Owner: owner, Comment: comment, RLSEnabled: rls,
			Indexes: map[string]*catalog.Index{}, Triggers: map[string]*catalog.Trigger{}, Policies: map[string]*catalog.Policy{},
		}
		if relkind == "p" {
			t.Kind = catalog.TablePartitionedRoot
			t.IsPartitioned = true
			t.PartitionBy = partitionStrategyName(partStrat)
		}
		if partBound != nil {
			t.Kind = catalog.TablePartitionChild
			t.PartitionBound = *partBound
		}
		s := cat.GetOrCreateSchema(schema)
		s.Tables[name] = t
		tables = append(tables, tableRef{schema, name, t})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := in.introspectPartitionParents(ctx, cat); err != nil {
		return nil, err
	}
	return tables, nil
}

func partitionStrategyName(strat string) string {
	switch strat {
	case "l":
		return "list"
	case "h":
		return "hash"
	default:
		return "range"
	}
}

func (in *Introspector) introspectPartitionParents(ctx context.Context, cat *catalog.Catalog) error {
	rows, err := in.pool.Query(ctx, `
		SELECT cn.nspname, c.relname, pn.nspname, p.relname
		FROM pg_inherits i
		JOIN pg_class c ON c.oid = i.inhrelid
		JOIN pg_namespace cn ON cn.oid = c.relnamespace
		JOIN pg_class p ON p.oid = i.inhparent
		JOIN pg_namespace pn ON pn.oid = p.relnamespace`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var childSchema, childName, parentSchema, parentName string
		if err := rows.Scan(&childSchema, &childName, &parentSchema, &parentName); err != nil {
			return err
		}
		cat.PartitionParents[catalog.QualifiedKey(childSchema, childName)] = catalog.QualifiedKey(parentSchema, parentName)
	}
	return rows.Err()
}

func (in *Introspector) introspectColumns(ctx context.Context, tables []tableRef) error {
	for _, tr := range tables {
		rows, err := in.pool.Query(ctx, `
			SELECT column_name, is_nullable, data_type, udt_name, character_maximum_length,
			       numeric_precision, numeric_scale, column_default, is_identity, identity_generation,
			       generation_expression, collation_name, COALESCE(col_description(
			           (quote_ident($1) || '.' || quote_ident($2))::regclass, ordinal_position), '')
			FROM information_schema.columns
			WHERE table_schema = $1 AND table_name = $2
			ORDER BY ordinal_position`, tr.schema, tr.name)
		if err != nil {
			return err
		}
		var cols []*catalog.Column
		for rows.Next() {
			var name, nullable, dataType, udt, generation, collation, comment string
			var charLen, numPrec, numScale *int
			var def *string
			var isIdentity, identityGen *string
			if err := rows.Scan(&name, &nullable, &dataType, &udt, &charLen, &numPrec, &numScale,
				&def, &isIdentity, &identityGen, &generation, &collation, &comment); err != nil {
				rows.Close()
				return err
			}
			col := &catalog.Column{
				Name: name, IsNullable: nullable == "YES", Default: def, Comment: comment,
				GeneratedAs: generation, Collation: collation,
				Type: mapColumnType(dataType, udt, charLen, numPrec, numScale),
			}
			if isIdentity != nil && *isIdentity == "YES" {
				if identityGen != nil && *identityGen == "ALWAYS" {
					col.Identity = catalog.IdentityAlways
				} else {
					col.Identity = catalog.IdentityByDefault
				}
			}
			cols = append(cols, col)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
		tr.table.Columns = cols
	}
	return nil
}

func mapColumnType(dataType, udt string, charLen, numPrec, numScale *int) catalog.PgType {
	if dataType == "ARRAY" {
		elemUDT := strings.TrimPrefix(udt, "_")
		elem := mapColumnType(elemUDT, elemUDT, nil, nil, nil)
		return catalog.PgType{Kind: catalog.TypeArray, Elem: &elem}
	}
	switch dataType {
	case "smallint":
		return catalog.PgType{Kind: catalog.TypeSmallInt}
	case "integer":
		return catalog.PgType{Kind: catalog.TypeInteger}
	case "bigint":
		return catalog.PgType{Kind: catalog.TypeBigInt}
	case "boolean":
		return catalog.PgType{Kind: catalog.TypeBoolean}
	case "text":
		return catalog.PgType{Kind: catalog.TypeText}
	case "character varying", "character":
		return catalog.PgType{Kind: catalog.TypeVarchar, Length: charLen}
	case "numeric":
		return catalog.PgType{Kind: catalog.TypeNumeric, Precision: numPrec, Scale: numScale}
	case "date":
		return catalog.PgType{Kind: catalog.TypeDate}
	case "timestamp without time zone":
		return catalog.PgType{Kind: catalog.TypeTimestamp}
	case "timestamp with time zone":
		return catalog.PgType{Kind: catalog.TypeTimestampTz}
	case "uuid":
		return catalog.PgType{Kind: catalog.TypeUUID}
	case "json":
		return catalog.PgType{Kind: catalog.TypeJSON}
	case "jsonb":
		return catalog.PgType{Kind: catalog.TypeJSONB}
	case "USER-DEFINED":
		if udt == "vector" {
			return catalog.PgType{Kind: catalog.TypeVector}
		}
		return catalog.PgType{Kind: catalog.TypeCustom, QualifiedName: udt}
	default:
		return catalog.PgType{Kind: catalog.TypeCustom, QualifiedName: udt}
	}
}

func (in *Introspector) introspectConstraints(ctx context.Context, tables []tableRef) error {
	byQualified := indexTables(tables)
	rows, err := in.pool.Query(ctx, `
		SELECT n.nspname, t.relname, con.conname, con.contype,
		       ARRAY(SELECT a.attname FROM unnest(con.conkey) WITH ORDINALITY k(attnum, ord)
		             JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum ORDER BY k.ord),
		       fn.nspname, ft.relname,
		       ARRAY(SELECT a.attname FROM unnest(con.confkey) WITH ORDINALITY k(attnum, ord)
		             JOIN pg_attribute a ON a.attrelid = ft.oid AND a.attnum = k.attnum ORDER BY k.ord),
		       con.confupdtype, con.confdeltype, con.condeferrable, con.condeferred,
		       pg_get_expr(con.conbin, con.conrelid)
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		LEFT JOIN pg_class ft ON ft.oid = con.confrelid
		LEFT JOIN pg_namespace fn ON fn.oid = ft.relnamespace
		WHERE con.contype IN ('p', 'u', 'f', 'c')`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, table, name string
		var contype string
		var cols []string
		var fnSchema, ftable *string
		var fcols []string
		var onUpdate, onDelete string
		var deferrable, deferred bool
		var checkExpr *string
		if err := rows.Scan(&schema, &table, &name, &contype, &cols, &fnSchema, &ftable, &fcols,
			&onUpdate, &onDelete, &deferrable, &deferred, &checkExpr); err != nil {
			return err
		}
		t, ok := byQualified[catalog.QualifiedKey(schema, table)]
		if !ok {
			continue
		}
		switch contype {
		case "p":
			t.PrimaryKey = &catalog.PrimaryKey{Name: name, Columns: cols}
		case "u":
			t.UniqueConstraints = append(t.UniqueConstraints, &catalog.UniqueConstraint{Name: name, Columns: cols})
		case "c":
			expr := ""
			if checkExpr != nil {
				expr = *checkExpr
			}
			t.CheckConstraints = append(t.CheckConstraints, &catalog.CheckConstraint{Name: name, Expression: expr})
		case "f":
			fk := &catalog.ForeignKey{
				Name: name, Columns: cols, ReferencedColumns: fcols,
				OnUpdate: fkAction(onUpdate), OnDelete: fkAction(onDelete),
				Deferrable: deferrable, InitiallyDeferred: deferred,
			}
			if fnSchema != nil {
				fk.ReferencedSchema = *fnSchema
			}
			if ftable != nil {
				fk.ReferencedTable = *ftable
			}
			t.ForeignKeys = append(t.ForeignKeys, fk)
		}
	}
	return rows.Err()
}

func fkAction(code string) string {
	switch code {
	case "c":
		return "cascade"
	case "n":
		return "set null"
	case "d":
		return "set default"
	case "r":
		return "restrict"
	default:
		return "no action"
	}
}

func (in *Introspector) introspectIndexes(ctx context.Context, tables []tableRef) error {
	byQualified := indexTables(tables)
	rows, err := in.pool.Query(ctx, `
		SELECT n.nspname, t.relname, ic.relname, i.indisunique, am.amname,
		       pg_get_expr(i.indpred, i.indrelid),
		       ARRAY(SELECT CASE WHEN a.attname IS NOT NULL THEN a.attname
		                         ELSE pg_get_indexdef(i.indexrelid, k.ord, false) END
		             FROM unnest(i.indkey) WITH ORDINALITY k(attnum, ord)
		             LEFT JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		             ORDER BY k.ord)
		FROM pg_index i
		JOIN pg_class t ON t.oid = i.indrelid
		JOIN pg_class ic ON ic.oid = i.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_am am ON am.oid = ic.relam
		WHERE t.relkind IN ('r', 'p') AND NOT i.indisprimary
		      AND ic.relname NOT IN (SELECT conname FROM pg_constraint WHERE contype = 'u')`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, table, idxName, method string
		var unique bool
		var where *string
		var cols []string
		if err := rows.Scan(&schema, &table, &idxName, &unique, &method, &where, &cols); err != nil {
			return err
		}
		t, ok := byQualified[catalog.QualifiedKey(schema, table)]
		if !ok {
			continue
		}
		idx := &catalog.Index{Name: idxName, Unique: unique, Method: method}
		if where != nil {
			idx.Where = *where
		}
		for _, c := range cols {
			idx.Columns = append(idx.Columns, catalog.IndexColumn{Name: c})
		}
		t.Indexes[idxName] = idx
	}
	return rows.Err()
}

func (in *Introspector) introspectTriggers(ctx context.Context, tables []tableRef) error {
	byQualified := indexTables(tables)
	rows, err := in.pool.Query(ctx, `
		SELECT n.nspname, t.relname, tg.tgname, tg.tgtype, p.proname, pn.nspname
		FROM pg_trigger tg
		JOIN pg_class t ON t.oid = tg.tgrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_proc p ON p.oid = tg.tgfoid
		JOIN pg_namespace pn ON pn.oid = p.pronamespace
		WHERE NOT tg.tgisinternal`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, table, name, fnName, fnSchema string
		var tgtype int16
		if err := rows.Scan(&schema, &table, &name, &tgtype, &fnName, &fnSchema); err != nil {
			return err
		}
		t, ok := byQualified[catalog.QualifiedKey(schema, table)]
		if !ok {
			continue
		}
		trig := &catalog.Trigger{
			Schema: schema, Table: table, Name: name,
			Function: fmt.Sprintf("%s.%s()", fnSchema, fnName),
		}
		switch {
		case tgtype&(1<<1) != 0: // TRIGGER_TYPE_BEFORE
			trig.Timing = catalog.TriggerBefore
		case tgtype&(1<<6) != 0: // TRIGGER_TYPE_INSTEAD
			trig.Timing = catalog.TriggerInsteadOf
		default:
			trig.Timing = catalog.TriggerAfter
		}
		if tgtype&(1<<2) != 0 {
			trig.Events = append(trig.Events, catalog.EventInsert)
		}
		if tgtype&(1<<3) != 0 {
			trig.Events = append(trig.Events, catalog.EventDelete)
		}
		if tgtype&(1<<4) != 0 {
			trig.Events = append(trig.Events, catalog.EventUpdate)
		}
		if tgtype&(1<<5) != 0 {
			trig.Events = append(trig.Events, catalog.EventTruncate)
		}
		if tgtype&(1<<0) != 0 {
			trig.ForEach = "row"
		} else {
			trig.ForEach = "statement"
		}
		t.Triggers[name] = trig
	}
	return rows.Err()
}

func (in *Introspector) introspectPolicies(ctx context.Context, tables []tableRef) error {
	byQualified := indexTables(tables)
	rows, err := in.pool.Query(ctx, `
		SELECT schemaname, tablename, policyname, permissive, roles, cmd,
		       COALESCE(qual, ''), COALESCE(with_check, '')
		FROM pg_policies`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, table, name, permissive, cmd, using, withCheck string
		var roles []string
		if err := rows.Scan(&schema, &table, &name, &permissive, &roles, &cmd, &using, &withCheck); err != nil {
			return err
		}
		t, ok := byQualified[catalog.QualifiedKey(schema, table)]
		if !ok {
			continue
		}
		t.Policies[name] = &catalog.Policy{
			Name: name, Table: catalog.QualifiedKey(schema, table),
			Permissive: permissive == "PERMISSIVE", Roles: roles,
			Command: parsePolicyCmd(cmd), Using: using, WithCheck: withCheck,
		}
	}
	return rows.Err()
}

func parsePolicyCmd(cmd string) catalog.PolicyCommand {
	switch cmd {
	case "SELECT":
		return catalog.PolicySelect
	case "INSERT":
		return catalog.PolicyInsert
	case "UPDATE":
		return catalog.PolicyUpdate
	case "DELETE":
		return catalog.PolicyDelete
	default:
		return catalog.PolicyAll
	}
}

func (in *Introspector) introspectSequences(ctx context.Context, cat *catalog.Catalog, schemas []string) error {
	rows, err := in.pool.Query(ctx, `
		SELECT schemaname, sequencename, COALESCE(sequenceowner, ''), start_value, increment_by,
		       min_value, max_value, cache_size, cycle
		FROM pg_sequences WHERE schemaname = ANY($1)`, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, name, owner string
		var seq catalog.Sequence
		if err := rows.Scan(&schema, &name, &owner, &seq.StartValue, &seq.Increment,
			&seq.MinValue, &seq.MaxValue, &seq.CacheSize, &seq.Cycle); err != nil {
			return err
		}
		seq.Schema, seq.Name, seq.Owner = schema, name, owner
		if err := in.resolveSequenceOwnership(ctx, &seq); err != nil {
			return err
		}
		cat.GetOrCreateSchema(schema).Sequences[name] = &seq
	}
	return rows.Err()
}

func (in *Introspector) resolveSequenceOwnership(ctx context.Context, seq *catalog.Sequence) error {
	row := in.pool.QueryRow(ctx, `
		SELECT tn.nspname, t.relname, a.attname
		FROM pg_depend d
		JOIN pg_class s ON s.oid = d.objid
		JOIN pg_class t ON t.oid = d.refobjid
		JOIN pg_namespace tn ON tn.oid = t.relnamespace
		JOIN pg_namespace sn ON sn.oid = s.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = d.refobjsubid
		WHERE d.deptype = 'a' AND s.relname = $1 AND sn.nspname = $2`, seq.Name, seq.Schema)
	var tableSchema, tableName, column string
	if err := row.Scan(&tableSchema, &tableName, &column); err != nil {
		if err == pgx.ErrNoRows {
			return nil
		}
		return err
	}
	seq.OwnedByTable = catalog.QualifiedKey(tableSchema, tableName)
	seq.OwnedByColumn = column
	return nil
}

func (in *Introspector) introspectViews(ctx context.Context, cat *catalog.Catalog, schemas []string) error {
	rows, err := in.pool.Query(ctx, `
		SELECT n.nspname, c.relname, c.relkind = 'm', COALESCE(r.rolname, ''), pg_get_viewdef(c.oid, true)
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		LEFT JOIN pg_roles r ON r.oid = c.relowner
		WHERE c.relkind IN ('v', 'm') AND n.nspname = ANY($1)`, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var v catalog.View
		if err := rows.Scan(&v.Schema, &v.Name, &v.Materialized, &v.Owner, &v.Definition); err != nil {
			return err
		}
		cat.GetOrCreateSchema(v.Schema).Views[v.Name] = &v
	}
	return rows.Err()
}

func (in *Introspector) introspectFunctions(ctx context.Context, cat *catalog.Catalog, schemas []string) error {
	rows, err := in.pool.Query(ctx, `
		SELECT n.nspname, p.proname, COALESCE(r.rolname, ''), l.lanname,
		       p.provolatile, p.proisstrict, p.prosecdef, COALESCE(p.prosrc, ''),
		       pg_get_function_arguments(p.oid), pg_get_function_result(p.oid)
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		JOIN pg_language l ON l.oid = p.prolang
		LEFT JOIN pg_roles r ON r.oid = p.proowner
		WHERE n.nspname = ANY($1) AND p.prokind IN ('f', 'p')`, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, name, owner, lang, volatility, args, returnType string
		var strict, secdef bool
		var body string
		if err := rows.Scan(&schema, &name, &owner, &lang, &volatility, &strict, &secdef, &body, &args, &returnType); err != nil {
			return err
		}
		fn := &catalog.Function{
			Schema: schema, Name: name, Owner: owner, Language: lang, Strict: strict, Body: body,
			ReturnType: catalog.PgType{Kind: catalog.TypeCustom, QualifiedName: returnType},
		}
		switch volatility {
		case "i":
			fn.Volatility = catalog.VolatilityImmutable
		case "s":
			fn.Volatility = catalog.VolatilityStable
		default:
			fn.Volatility = catalog.VolatilityVolatile
		}
		if secdef {
			fn.Security = catalog.SecurityDefiner
		}
		for _, arg := range strings.Split(args, ",") {
			arg = strings.TrimSpace(arg)
			if arg == "" {
				continue
			}
			parts := strings.Fields(arg)
			if len(parts) > 0 {
				fn.Arguments = append(fn.Arguments, catalog.Argument{Name: parts[0], Type: catalog.PgType{
					Kind: catalog.TypeCustom, QualifiedName: strings.Join(parts[1:], " "),
				}})
			}
		}
		cat.GetOrCreateSchema(schema).Functions[fn.Signature()] = fn
	}
	return rows.Err()
}

func (in *Introspector) introspectEnums(ctx context.Context, cat *catalog.Catalog, schemas []string) error {
	rows, err := in.pool.Query(ctx, `
		SELECT n.nspname, t.typname, COALESCE(r.rolname, ''),
		       ARRAY(SELECT e.enumlabel FROM pg_enum e WHERE e.enumtypid = t.oid ORDER BY e.enumsortorder)
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		LEFT JOIN pg_roles r ON r.oid = t.typowner
		WHERE t.typtype = 'e' AND n.nspname = ANY($1)`, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var e catalog.EnumType
		if err := rows.Scan(&e.Schema, &e.Name, &e.Owner, &e.Labels); err != nil {
			return err
		}
		cat.GetOrCreateSchema(e.Schema).Enums[e.Name] = &e
	}
	return rows.Err()
}

func (in *Introspector) introspectDomains(ctx context.Context, cat *catalog.Catalog, schemas []string) error {
	rows, err := in.pool.Query(ctx, `
		SELECT n.nspname, t.typname, COALESCE(r.rolname, ''), t.typnotnull,
		       format_type(t.typbasetype, t.typtypmod), pg_get_expr(t.typdefaultbin, 0)
		FROM pg_type t
		JOIN pg_namespace n ON n.oid = t.typnamespace
		LEFT JOIN pg_roles r ON r.oid = t.typowner
		WHERE t.typtype = 'd' AND n.nspname = ANY($1)`, schemas)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, name, owner, baseType string
		var notNull bool
		var def *string
		if err := rows.Scan(&schema, &name, &owner, &notNull, &baseType, &def); err != nil {
			return err
		}
		dom := &catalog.Domain{
			Schema: schema, Name: name, Owner: owner, NotNull: notNull, Default: def,
			BaseType: catalog.PgType{Kind: catalog.TypeCustom, QualifiedName: baseType},
		}
		cat.GetOrCreateSchema(schema).Domains[name] = dom
	}
	return rows.Err()
}

func (in *Introspector) introspectGrants(ctx context.Context, tables []tableRef) error {
	byQualified := indexTables(tables)
	rows, err := in.pool.Query(ctx, `
		SELECT table_schema, table_name, grantee, array_agg(privilege_type), bool_or(is_grantable = 'YES')
		FROM information_schema.table_privileges
		GROUP BY table_schema, table_name, grantee`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var schema, table, grantee string
		var privileges []string
		var withGrant bool
		if err := rows.Scan(&schema, &table, &grantee, &privileges, &withGrant); err != nil {
			return err
		}
		t, ok := byQualified[catalog.QualifiedKey(schema, table)]
		if !ok {
			continue
		}
		sort.Strings(privileges)
		t.Grants = append(t.Grants, catalog.Grant{Grantee: grantee, Privileges: privileges, WithGrantOption: withGrant})
	}
	return rows.Err()
}

func indexTables(tables []tableRef) map[string]*catalog.Table {
	out := make(map[string]*catalog.Table, len(tables))
	for _, tr := range tables {
		out[catalog.QualifiedKey(tr.schema, tr.name)] = tr.table
	}
	return out
}

func toSet(vals []string) map[string]bool {
	out := make(map[string]bool, len(vals))
	for _, v := range vals {
		out[v] = true
	}
	return out
}
