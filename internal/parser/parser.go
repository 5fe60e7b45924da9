// Package parser implements the desired-state half of the catalog
// sources: it turns a SQL text file (the declarative target schema)
// into a catalog.Catalog by walking pg_query_go's parse tree, the
// same AST-node-switch idiom the teacher's internal/ir/parser.go
// uses, rebuilt to populate catalog types instead of the teacher's IR.
package parser

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/pgderrors"
)

// Parse parses SQL text into a finalized catalog.Catalog.
func Parse(sql string) (*catalog.Catalog, error) {
	stmts, err := pg_query.SplitWithParser(sql, true)
	if err != nil {
		return nil, pgderrors.Wrap(pgderrors.Parse, err, "split SQL statements")
	}

	cat := catalog.New()
	for _, stmt := range stmts {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		result, err := pg_query.Parse(stmt)
		if err != nil {
			return nil, pgderrors.Wrap(pgderrors.Parse, err, fmt.Sprintf("parse statement %q", stmt))
		}
		for _, raw := range result.Stmts {
			if raw.Stmt == nil {
				continue
			}
			if err := processStatement(cat, raw.Stmt); err != nil {
				return nil, err
			}
		}
	}

	if err := cat.Finalize(); err != nil {
		return nil, pgderrors.Wrap(pgderrors.Parse, err, "finalize catalog")
	}
	return cat, nil
}

func processStatement(cat *catalog.Catalog, stmt *pg_query.Node) error {
	switch n := stmt.Node.(type) {
	case *pg_query.Node_CreateSchemaStmt:
		return parseCreateSchema(cat, n.CreateSchemaStmt)
	case *pg_query.Node_CreateExtensionStmt:
		return parseCreateExtension(cat, n.CreateExtensionStmt)
	case *pg_query.Node_CreateSeqStmt:
		return parseCreateSequence(cat, n.CreateSeqStmt)
	case *pg_query.Node_CreateStmt:
		return parseCreateTable(cat, n.CreateStmt)
	case *pg_query.Node_AlterTableStmt:
		return parseAlterTable(cat, n.AlterTableStmt)
	case *pg_query.Node_IndexStmt:
		return parseCreateIndex(cat, n.IndexStmt)
	case *pg_query.Node_ViewStmt:
		return parseCreateView(cat, n.ViewStmt)
	case *pg_query.Node_CreateFunctionStmt:
		return parseCreateFunction(cat, n.CreateFunctionStmt)
	case *pg_query.Node_CreateTrigStmt:
		return parseCreateTrigger(cat, n.CreateTrigStmt)
	case *pg_query.Node_CreatePolicyStmt:
		return parseCreatePolicy(cat, n.CreatePolicyStmt)
	case *pg_query.Node_CreateEnumStmt:
		return parseCreateEnum(cat, n.CreateEnumStmt)
	case *pg_query.Node_CreateDomainStmt:
		return parseCreateDomain(cat, n.CreateDomainStmt)
	case *pg_query.Node_GrantStmt:
		return parseGrant(cat, n.GrantStmt)
	default:
		return nil // statement kinds outside spec §3's entity set are ignored
	}
}

func relationName(rv *pg_query.RangeVar) (schema, name string) {
	schema = rv.Schemaname
	if schema == "" {
		schema = "public"
	}
	return schema, rv.Relname
}

func stringNode(n *pg_query.Node) string {
	if n == nil {
		return ""
	}
	if s := n.GetString_(); s != nil {
		return s.Sval
	}
	return ""
}

func nameList(nodes []*pg_query.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if s := stringNode(n); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseCreateSchema(cat *catalog.Catalog, n *pg_query.CreateSchemaStmt) error {
	name := n.Schemaname
	s := cat.GetOrCreateSchema(name)
	if n.Authrole != nil {
		s.Owner = roleSpecName(n.Authrole)
	}
	return nil
}

func roleSpecName(r *pg_query.RoleSpec) string {
	if r == nil {
		return ""
	}
	return r.Rolename
}

func parseCreateExtension(cat *catalog.Catalog, n *pg_query.CreateExtensionStmt) error {
	ext := &catalog.Extension{Name: n.Extname, Schema: "public"}
	for _, opt := range n.Options {
		if d := opt.GetDefElem(); d != nil {
			switch d.Defname {
			case "schema":
				ext.Schema = stringNode(d.Arg)
			case "version":
				ext.Version = stringNode(d.Arg)
			}
		}
	}
	cat.Extensions[ext.Name] = ext
	return nil
}
