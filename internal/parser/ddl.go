package parser

import (
	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgdrift/pgdrift/internal/catalog"
)

func parseCreateSequence(cat *catalog.Catalog, n *pg_query.CreateSeqStmt) error {
	schemaName, seqName := relationName(n.Sequence)
	s := cat.GetOrCreateSchema(schemaName)
	seq := &catalog.Sequence{Schema: schemaName, Name: seqName, StartValue: 1, Increment: 1}
	for _, opt := range n.Options {
		d := opt.GetDefElem()
		if d == nil {
			continue
		}
		switch d.Defname {
		case "start":
			seq.StartValue = int64(intArg(d.Arg))
		case "increment":
			seq.Increment = int64(intArg(d.Arg))
		case "minvalue":
			seq.MinValue = int64(intArg(d.Arg))
		case "maxvalue":
			seq.MaxValue = int64(intArg(d.Arg))
		case "cache":
			seq.CacheSize = int64(intArg(d.Arg))
		case "cycle":
			seq.Cycle = true
		case "owned_by":
			if list := d.Arg.GetList(); list != nil && len(list.Items) >= 2 {
				names := nameList(list.Items)
				seq.OwnedByColumn = names[len(names)-1]
				seq.OwnedByTable = catalog.QualifiedKey(schemaName, names[len(names)-2])
			}
		}
	}
	s.Sequences[seqName] = seq
	return nil
}

func intArg(n *pg_query.Node) int {
	if n == nil {
		return 0
	}
	if c := n.GetAConst(); c != nil {
		if iv := c.GetIval(); iv != nil {
			return int(iv.Ival)
		}
	}
	if iv := n.GetInteger(); iv != nil {
		return int(iv.Ival)
	}
	return 0
}

func parseCreateView(cat *catalog.Catalog, n *pg_query.ViewStmt) error {
	schemaName, viewName := relationName(n.View)
	s := cat.GetOrCreateSchema(schemaName)
	view := &catalog.View{Schema: schemaName, Name: viewName, Materialized: false}
	if n.Query != nil {
		view.Definition = deparseQuery(n.Query)
	}
	s.Views[viewName] = view
	return nil
}

func deparseQuery(query *pg_query.Node) string {
	stmt := &pg_query.RawStmt{Stmt: query}
	result := &pg_query.ParseResult{Stmts: []*pg_query.RawStmt{stmt}}
	out, err := pg_query.Deparse(result)
	if err != nil {
		return ""
	}
	return out
}

func parseCreateFunction(cat *catalog.Catalog, n *pg_query.CreateFunctionStmt) error {
	schemaName, funcName := "public", ""
	for i, part := range n.Funcname {
		name := stringNode(part)
		if i == 0 && len(n.Funcname) > 1 {
			schemaName = name
		} else {
			funcName = name
		}
	}
	if funcName == "" {
		return nil
	}
	s := cat.GetOrCreateSchema(schemaName)

	fn := &catalog.Function{Schema: schemaName, Name: funcName, Language: "sql"}
	if n.ReturnType != nil {
		fn.ReturnType = parseType(n.ReturnType)
	}
	for _, p := range n.Parameters {
		fp := p.GetFunctionParameter()
		if fp == nil || fp.Mode == pg_query.FunctionParameterMode_FUNC_PARAM_OUT || fp.Mode == pg_query.FunctionParameterMode_FUNC_PARAM_TABLE {
			continue
		}
		arg := catalog.Argument{Name: fp.Name}
		if fp.ArgType != nil {
			arg.Type = parseType(fp.ArgType)
		}
		if fp.Defexpr != nil {
			arg.Default = deparseExpr(fp.Defexpr)
		}
		fn.Arguments = append(fn.Arguments, arg)
	}
	for _, opt := range n.Options {
		d := opt.GetDefElem()
		if d == nil {
			continue
		}
		switch d.Defname {
		case "language":
			fn.Language = stringNode(d.Arg)
		case "as":
			fn.Body = functionBody(d.Arg)
		case "volatility":
			fn.Volatility = parseVolatility(stringNode(d.Arg))
		case "strict":
			fn.Strict = true
		case "security":
			if b := d.Arg.GetBoolean(); b != nil {
				if b.Boolval {
					fn.Security = catalog.SecurityDefiner
				}
			}
		}
	}
	s.Functions[fn.Signature()] = fn
	return nil
}

func functionBody(arg *pg_query.Node) string {
	if list := arg.GetList(); list != nil {
		var parts []string
		for _, item := range list.Items {
			parts = append(parts, stringNode(item))
		}
		out := ""
		for i, p := range parts {
			if i > 0 {
				out += "\n"
			}
			out += p
		}
		return out
	}
	return stringNode(arg)
}

func parseVolatility(v string) catalog.Volatility {
	switch v {
	case "immutable", "i":
		return catalog.VolatilityImmutable
	case "stable", "s":
		return catalog.VolatilityStable
	default:
		return catalog.VolatilityVolatile
	}
}

func parseCreateTrigger(cat *catalog.Catalog, n *pg_query.CreateTrigStmt) error {
	schemaName, tableName := relationName(n.Relation)
	s := cat.GetOrCreateSchema(schemaName)
	table, ok := s.Tables[tableName]
	if !ok {
		return nil
	}

	trig := &catalog.Trigger{Schema: schemaName, Table: tableName, Name: n.Trigname}
	switch n.Timing {
	case 2: // TRIGGER_TYPE_BEFORE
		trig.Timing = catalog.TriggerBefore
	case 64: // TRIGGER_TYPE_INSTEAD
		trig.Timing = catalog.TriggerInsteadOf
	default:
		trig.Timing = catalog.TriggerAfter
	}
	if n.Events&4 != 0 { // TRIGGER_TYPE_INSERT
		trig.Events = append(trig.Events, catalog.EventInsert)
	}
	if n.Events&8 != 0 { // TRIGGER_TYPE_DELETE
		trig.Events = append(trig.Events, catalog.EventDelete)
	}
	if n.Events&16 != 0 { // TRIGGER_TYPE_UPDATE
		trig.Events = append(trig.Events, catalog.EventUpdate)
	}
	if n.Events&32 != 0 { // TRIGGER_TYPE_TRUNCATE
		trig.Events = append(trig.Events, catalog.EventTruncate)
	}
	if n.Row {
		trig.ForEach = "row"
	} else {
		trig.ForEach = "statement"
	}
	if len(n.Funcname) > 0 {
		fnSchema, fnName := "public", ""
		for i, part := range n.Funcname {
			name := stringNode(part)
			if i == 0 && len(n.Funcname) > 1 {
				fnSchema = name
			} else {
				fnName = name
			}
		}
		trig.Function = catalog.QualifiedKey(fnSchema, fnName+"()")
	}
	if n.WhenClause != nil {
		trig.When = deparseExpr(n.WhenClause)
	}
	table.Triggers[trig.Name] = trig
	return nil
}

func parseCreatePolicy(cat *catalog.Catalog, n *pg_query.CreatePolicyStmt) error {
	schemaName, tableName := relationName(n.Table)
	s := cat.GetOrCreateSchema(schemaName)
	table, ok := s.Tables[tableName]
	if !ok {
		return nil
	}

	pol := &catalog.Policy{
		Name: n.PolicyName, Table: catalog.QualifiedKey(schemaName, tableName),
		Permissive: n.Permissive, Command: parsePolicyCommand(n.CmdName),
	}
	for _, r := range n.Roles {
		pol.Roles = append(pol.Roles, roleSpecName(r.GetRoleSpec()))
	}
	if n.Qual != nil {
		pol.Using = deparseExpr(n.Qual)
	}
	if n.WithCheck != nil {
		pol.WithCheck = deparseExpr(n.WithCheck)
	}
	table.Policies[pol.Name] = pol
	return nil
}

func parsePolicyCommand(cmd string) catalog.PolicyCommand {
	switch cmd {
	case "select", "r":
		return catalog.PolicySelect
	case "insert", "a":
		return catalog.PolicyInsert
	case "update", "w":
		return catalog.PolicyUpdate
	case "delete", "d":
		return catalog.PolicyDelete
	default:
		return catalog.PolicyAll
	}
}

func parseCreateEnum(cat *catalog.Catalog, n *pg_query.CreateEnumStmt) error {
	names := nameList(n.TypeName)
	schemaName, typeName := "public", ""
	if len(names) > 1 {
		schemaName, typeName = names[0], names[len(names)-1]
	} else if len(names) == 1 {
		typeName = names[0]
	}
	s := cat.GetOrCreateSchema(schemaName)
	enum := &catalog.EnumType{Schema: schemaName, Name: typeName, Labels: nameList(n.Vals)}
	s.Enums[typeName] = enum
	return nil
}

func parseCreateDomain(cat *catalog.Catalog, n *pg_query.CreateDomainStmt) error {
	names := nameList(n.Domainname)
	schemaName, domainName := "public", ""
	if len(names) > 1 {
		schemaName, domainName = names[0], names[len(names)-1]
	} else if len(names) == 1 {
		domainName = names[0]
	}
	s := cat.GetOrCreateSchema(schemaName)
	dom := &catalog.Domain{Schema: schemaName, Name: domainName}
	if n.TypeName != nil {
		dom.BaseType = parseType(n.TypeName)
	}
	for _, c := range n.Constraints {
		cons := c.GetConstraint()
		if cons == nil {
			continue
		}
		switch cons.Contype {
		case pg_query.ConstrType_CONSTR_NOTNULL:
			dom.NotNull = true
		case pg_query.ConstrType_CONSTR_DEFAULT:
			if cons.RawExpr != nil {
				v := deparseExpr(cons.RawExpr)
				dom.Default = &v
			}
		case pg_query.ConstrType_CONSTR_CHECK:
			if cons.RawExpr != nil {
				dom.CheckName = cons.Conname
				if dom.CheckName == "" {
					dom.CheckName = domainName + "_check"
				}
				dom.CheckExpr = deparseExpr(cons.RawExpr)
			}
		}
	}
	s.Domains[domainName] = dom
	return nil
}

func parseGrant(cat *catalog.Catalog, n *pg_query.GrantStmt) error {
	if !n.IsGrant {
		return nil // REVOKE statements are not expected in desired-state SQL files
	}
	var privileges []string
	for _, p := range n.Privileges {
		if ap := p.GetAccessPriv(); ap != nil {
			privileges = append(privileges, ap.PrivName)
		}
	}
	for _, obj := range n.Objects {
		rv := obj.GetRangeVar()
		if rv == nil {
			continue
		}
		schemaName, objName := relationName(rv)
		s := cat.GetOrCreateSchema(schemaName)
		table, ok := s.Tables[objName]
		if !ok {
			continue
		}
		for _, g := range n.Grantees {
			table.Grants = append(table.Grants, catalog.Grant{
				Grantee: roleSpecName(g.GetRoleSpec()), Privileges: privileges, WithGrantOption: n.GrantOption,
			})
		}
	}
	return nil
}
