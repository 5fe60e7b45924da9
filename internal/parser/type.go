package parser

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/pgdrift/pgdrift/internal/catalog"
)

// parseType maps a pg_query TypeName node to a catalog.PgType,
// mirroring internal/ir/type_util.go's internal-name normalization
// table but resolving straight to the catalog's closed type sum
// instead of a canonical string.
func parseType(tn *pg_query.TypeName) catalog.PgType {
	if tn == nil {
		return catalog.PgType{Kind: catalog.TypeText}
	}
	names := nameList(tn.Names)
	raw := strings.Join(names, ".")
	raw = strings.TrimPrefix(raw, "pg_catalog.")

	if len(tn.ArrayBounds) > 0 {
		elem := parseTypeName(raw, tn.Typmods)
		return catalog.PgType{Kind: catalog.TypeArray, Elem: &elem}
	}
	return parseTypeName(raw, tn.Typmods)
}

func parseTypeName(raw string, typmods []*pg_query.Node) catalog.PgType {
	mods := intMods(typmods)

	switch raw {
	case "int2":
		return catalog.PgType{Kind: catalog.TypeSmallInt}
	case "int4":
		return catalog.PgType{Kind: catalog.TypeInteger}
	case "int8":
		return catalog.PgType{Kind: catalog.TypeBigInt}
	case "bool":
		return catalog.PgType{Kind: catalog.TypeBoolean}
	case "text":
		return catalog.PgType{Kind: catalog.TypeText}
	case "varchar", "bpchar":
		t := catalog.PgType{Kind: catalog.TypeVarchar}
		if len(mods) > 0 {
			t.Length = &mods[0]
		}
		return t
	case "numeric":
		t := catalog.PgType{Kind: catalog.TypeNumeric}
		if len(mods) > 0 {
			t.Precision = &mods[0]
		}
		if len(mods) > 1 {
			t.Scale = &mods[1]
		}
		return t
	case "date":
		return catalog.PgType{Kind: catalog.TypeDate}
	case "timestamp":
		return catalog.PgType{Kind: catalog.TypeTimestamp}
	case "timestamptz", "timestamp with time zone":
		return catalog.PgType{Kind: catalog.TypeTimestampTz}
	case "uuid":
		return catalog.PgType{Kind: catalog.TypeUUID}
	case "json":
		return catalog.PgType{Kind: catalog.TypeJSON}
	case "jsonb":
		return catalog.PgType{Kind: catalog.TypeJSONB}
	case "vector":
		t := catalog.PgType{Kind: catalog.TypeVector}
		if len(mods) > 0 {
			t.Dimension = &mods[0]
		}
		return t
	default:
		return catalog.PgType{Kind: catalog.TypeCustom, QualifiedName: raw}
	}
}

func intMods(typmods []*pg_query.Node) []int {
	var out []int
	for _, m := range typmods {
		if c := m.GetAConst(); c != nil {
			if iv := c.GetIval(); iv != nil {
				out = append(out, int(iv.Ival))
			}
		}
	}
	return out
}
