package catalog

// EnumType is a CREATE TYPE ... AS ENUM. Labels are position
// significant: appending is non-destructive, reordering or removing a
// label is destructive (spec §3, §9 open question #1).
type EnumType struct {
	Schema string
	Name   string
	Owner  string
	Labels []string
	Comment string
}

func (e *EnumType) QualifiedName() string { return QualifiedKey(e.Schema, e.Name) }

// Domain is a CREATE DOMAIN: a named constrained base type.
type Domain struct {
	Schema        string
	Name          string
	Owner         string
	BaseType      PgType
	NotNull       bool
	Default       *string
	CheckName     string
	CheckExpr     string // normalized, empty if no CHECK
	Comment       string
}

func (d *Domain) QualifiedName() string { return QualifiedKey(d.Schema, d.Name) }
