package emitter

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/differ"
)

// quoteIdent double-quotes an identifier, deferring to lib/pq's
// quoting rule (spec.md §4.5: "every identifier is double-quoted").
func quoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

// qualifyName renders a schema-qualified, quoted name. The "public"
// schema is left unqualified when unambiguous, per spec.md §4.5.
func qualifyName(schema, name string) string {
	if schema == "" || schema == "public" {
		return quoteIdent(name)
	}
	return quoteIdent(schema) + "." + quoteIdent(name)
}

func quoteIdentList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// qualifyFunctionSig renders "schema"."name"(argtype, argtype) for DDL
// that needs the full signature to disambiguate overloads.
func qualifyFunctionSig(op differ.Op) string {
	args := make([]string, 0)
	if op.Function != nil {
		for _, a := range op.Function.Arguments {
			args = append(args, typeSQL(a.Type))
		}
	} else if op.OldFunction != nil {
		for _, a := range op.OldFunction.Arguments {
			args = append(args, typeSQL(a.Type))
		}
	}
	return fmt.Sprintf("%s(%s)", qualifyName(op.Schema, op.Name), strings.Join(args, ", "))
}

// typeSQL renders a catalog.PgType as PostgreSQL type syntax.
func typeSQL(t catalog.PgType) string {
	switch t.Kind {
	case catalog.TypeSmallInt:
		return "smallint"
	case catalog.TypeInteger:
		return "integer"
	case catalog.TypeBigInt:
		return "bigint"
	case catalog.TypeText:
		return "text"
	case catalog.TypeVarchar:
		if t.Length != nil {
			return fmt.Sprintf("varchar(%d)", *t.Length)
		}
		return "varchar"
	case catalog.TypeNumeric:
		if t.Precision != nil {
			scale := 0
			if t.Scale != nil {
				scale = *t.Scale
			}
			return fmt.Sprintf("numeric(%d,%d)", *t.Precision, scale)
		}
		return "numeric"
	case catalog.TypeBoolean:
		return "boolean"
	case catalog.TypeDate:
		return "date"
	case catalog.TypeTimestamp:
		return "timestamp"
	case catalog.TypeTimestampTz:
		return "timestamptz"
	case catalog.TypeUUID:
		return "uuid"
	case catalog.TypeJSON:
		return "json"
	case catalog.TypeJSONB:
		return "jsonb"
	case catalog.TypeVector:
		if t.Dimension != nil {
			return fmt.Sprintf("vector(%d)", *t.Dimension)
		}
		return "vector"
	case catalog.TypeArray:
		if t.Elem != nil {
			return typeSQL(*t.Elem) + "[]"
		}
		return "array"
	case catalog.TypeCustom:
		return t.QualifiedName
	default:
		return "text"
	}
}
