package catalog

// IdentityKind classifies a column's GENERATED AS IDENTITY clause.
type IdentityKind int

const (
	IdentityNone IdentityKind = iota
	IdentityAlways
	IdentityByDefault
)

// Column is one table column (spec §3).
type Column struct {
	Name         string
	Type         PgType
	IsNullable   bool
	Default      *string // canonical form, nil if no default
	Comment      string
	Identity     IdentityKind
	GeneratedAs  string // generated column expression, empty if not generated
	Collation    string
}

// Index is an ordered-column, optionally-partial, optionally-unique
// index. Indexes backing a PRIMARY KEY or UNIQUE constraint are owned
// by that constraint and never appear here directly (spec §4.3).
type Index struct {
	Name       string
	Columns    []IndexColumn
	Unique     bool
	Method     string // btree, gin, gist, hash, ...
	Where      string // normalized partial predicate, empty if none
	Include    []string
	Concurrent bool
}

// IndexColumn is one column (or expression) participating in an
// index, with its optional collation — ordering within Columns is
// semantically significant.
type IndexColumn struct {
	Name       string // empty when Expression is set
	Expression string
	Collation  string
	Desc       bool
}

// ConstraintKind discriminates Table.Constraints.
type ConstraintKind int

const (
	ConstraintPrimaryKey ConstraintKind = iota
	ConstraintUnique
	ConstraintForeignKey
	ConstraintCheck
)

// ForeignKey describes one FOREIGN KEY constraint.
type ForeignKey struct {
	Name              string
	Columns           []string // declaration order, semantically significant
	ReferencedSchema  string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          string // "no action", "cascade", "restrict", "set null", "set default"
	OnUpdate          string
	Deferrable        bool
	InitiallyDeferred bool
}

// CheckConstraint is a normalized CHECK predicate.
type CheckConstraint struct {
	Name       string
	Expression string // normalized
}

// PrimaryKey names the PK constraint and its ordered columns.
type PrimaryKey struct {
	Name    string
	Columns []string
}

// UniqueConstraint is a table-level UNIQUE constraint.
type UniqueConstraint struct {
	Name    string
	Columns []string
}

// TableKind distinguishes ordinary tables from partitioned/partition
// tables.
type TableKind int

const (
	TableOrdinary TableKind = iota
	TablePartitionedRoot
	TablePartitionChild
)

// Table is the central entity of the catalog (spec §3).
type Table struct {
	Schema  string
	Name    string
	Kind    TableKind
	Owner   string
	Comment string

	Columns []*Column // ordinal position order

	PrimaryKey        *PrimaryKey
	UniqueConstraints []*UniqueConstraint
	ForeignKeys       []*ForeignKey
	CheckConstraints  []*CheckConstraint

	Indexes  map[string]*Index
	Triggers map[string]*Trigger
	Policies map[string]*Policy
	Grants   []Grant

	RLSEnabled bool

	IsPartitioned      bool
	PartitionBy        string // "range", "list", "hash"
	PartitionKey       string // column/expression list
	PartitionBound     string // for a partition child: FOR VALUES ...
	PartitionParent    string // qualified name of parent, set only on children
}

// QualifiedName returns "schema.name".
func (t *Table) QualifiedName() string { return QualifiedKey(t.Schema, t.Name) }

// ColumnByName returns the named column, or nil.
func (t *Table) ColumnByName(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}
