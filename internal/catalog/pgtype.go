package catalog

import "fmt"

// TypeKind discriminates the PgType sum described in spec §3.
type TypeKind int

const (
	TypeSmallInt TypeKind = iota
	TypeInteger
	TypeBigInt
	TypeText
	TypeVarchar // carries Length
	TypeNumeric // carries Precision, Scale
	TypeBoolean
	TypeDate
	TypeTimestamp
	TypeTimestampTz
	TypeUUID
	TypeJSON
	TypeJSONB
	TypeVector // carries Dimension
	TypeArray  // carries Elem
	TypeCustom // enum/domain/composite, carries QualifiedName
)

// PgType is the closed sum of column/expression types the catalog
// understands. Zero value of the non-discriminant fields means
// "unset" for that kind (e.g. Length == nil means unbounded varchar).
type PgType struct {
	Kind          TypeKind
	Length        *int    // Varchar(n)
	Precision     *int    // Numeric(p,s)
	Scale         *int    // Numeric(p,s)
	Dimension     *int    // Vector(n)
	Elem          *PgType // Array of
	QualifiedName string  // Custom: "schema.name"
}

func (t PgType) String() string {
	switch t.Kind {
	case TypeSmallInt:
		return "SmallInt"
	case TypeInteger:
		return "Integer"
	case TypeBigInt:
		return "BigInt"
	case TypeText:
		return "Text"
	case TypeVarchar:
		if t.Length != nil {
			return fmt.Sprintf("Varchar(%d)", *t.Length)
		}
		return "Varchar"
	case TypeNumeric:
		p, s := 0, 0
		if t.Precision != nil {
			p = *t.Precision
		}
		if t.Scale != nil {
			s = *t.Scale
		}
		return fmt.Sprintf("Numeric(%d,%d)", p, s)
	case TypeBoolean:
		return "Boolean"
	case TypeDate:
		return "Date"
	case TypeTimestamp:
		return "Timestamp"
	case TypeTimestampTz:
		return "TimestampTz"
	case TypeUUID:
		return "UUID"
	case TypeJSON:
		return "JSON"
	case TypeJSONB:
		return "JSONB"
	case TypeVector:
		if t.Dimension != nil {
			return fmt.Sprintf("Vector(%d)", *t.Dimension)
		}
		return "Vector"
	case TypeArray:
		if t.Elem != nil {
			return t.Elem.String() + "[]"
		}
		return "Array"
	case TypeCustom:
		return t.QualifiedName
	default:
		return "Unknown"
	}
}

// Equal compares two PgType values structurally.
func (t PgType) Equal(o PgType) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TypeVarchar:
		return intPtrEqual(t.Length, o.Length)
	case TypeNumeric:
		return intPtrEqual(t.Precision, o.Precision) && intPtrEqual(t.Scale, o.Scale)
	case TypeVector:
		return intPtrEqual(t.Dimension, o.Dimension)
	case TypeArray:
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == o.Elem
		}
		return t.Elem.Equal(*o.Elem)
	case TypeCustom:
		return t.QualifiedName == o.QualifiedName
	default:
		return true
	}
}

// IsNarrowerThan reports whether t is a strictly narrower storage type
// than o, the predicate C7's warn_type_narrowing rule needs (grounded
// on original_source/src/lint/mod.rs's is_type_narrowing).
func (t PgType) IsNarrowerThan(o PgType) bool {
	rank := func(k TypeKind) int {
		switch k {
		case TypeSmallInt:
			return 1
		case TypeInteger:
			return 2
		case TypeBigInt:
			return 3
		default:
			return -1
		}
	}
	tr, or := rank(t.Kind), rank(o.Kind)
	if tr >= 0 && or >= 0 {
		return tr < or
	}
	if t.Kind == TypeVarchar && o.Kind == TypeText {
		return true
	}
	if t.Kind == TypeVarchar && o.Kind == TypeVarchar && t.Length != nil && o.Length != nil {
		return *t.Length < *o.Length
	}
	return false
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
