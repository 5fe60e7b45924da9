// Package differ implements component C3: it pairs entities between a
// current and a target catalog and emits an unordered multiset of
// typed MigrationOps plus the dependency edges C4 needs to order them.
package differ

import "github.com/pgdrift/pgdrift/internal/catalog"

// OpKind is the closed taxonomy of spec §4.3 — kinds, not free-form
// names, so the planner/emitter/lint can switch on them exhaustively.
type OpKind string

const (
	CreateSchema OpKind = "CreateSchema"
	DropSchema   OpKind = "DropSchema"
	AlterSchemaOwner OpKind = "AlterSchemaOwner"

	CreateExtension OpKind = "CreateExtension"
	DropExtension   OpKind = "DropExtension"

	CreateEnum   OpKind = "CreateEnum"
	DropEnum     OpKind = "DropEnum"
	AddEnumValue OpKind = "AddEnumValue"

	CreateDomain OpKind = "CreateDomain"
	DropDomain   OpKind = "DropDomain"
	AlterDomain  OpKind = "AlterDomain"

	CreateSequence OpKind = "CreateSequence"
	DropSequence   OpKind = "DropSequence"
	AlterSequence  OpKind = "AlterSequence"

	CreateTable OpKind = "CreateTable"
	DropTable   OpKind = "DropTable"

	CreatePartition OpKind = "CreatePartition"
	DropPartition   OpKind = "DropPartition"

	AddColumn   OpKind = "AddColumn"
	DropColumn  OpKind = "DropColumn"
	AlterColumn OpKind = "AlterColumn"

	AddPrimaryKey     OpKind = "AddPrimaryKey"
	DropPrimaryKey    OpKind = "DropPrimaryKey"
	AddUniqueConstraint  OpKind = "AddUniqueConstraint"
	DropUniqueConstraint OpKind = "DropUniqueConstraint"
	AddForeignKey     OpKind = "AddForeignKey"
	DropForeignKey    OpKind = "DropForeignKey"
	AddCheckConstraint  OpKind = "AddCheckConstraint"
	DropCheckConstraint OpKind = "DropCheckConstraint"
	AddIndex  OpKind = "AddIndex"
	DropIndex OpKind = "DropIndex"

	CreateFunction OpKind = "CreateFunction"
	DropFunction   OpKind = "DropFunction"
	AlterFunction  OpKind = "AlterFunction"
	CreateView     OpKind = "CreateView"
	DropView       OpKind = "DropView"
	AlterView      OpKind = "AlterView"
	CreateTrigger  OpKind = "CreateTrigger"
	DropTrigger    OpKind = "DropTrigger"
	CreatePolicy   OpKind = "CreatePolicy"
	DropPolicy     OpKind = "DropPolicy"
	AlterPolicy    OpKind = "AlterPolicy"

	AlterOwner          OpKind = "AlterOwner"
	GrantPrivileges     OpKind = "GrantPrivileges"
	RevokePrivileges    OpKind = "RevokePrivileges"
	AlterDefaultPrivileges OpKind = "AlterDefaultPrivileges"

	CreateVersionSchema OpKind = "CreateVersionSchema"
	DropVersionSchema   OpKind = "DropVersionSchema"
	CreateVersionView   OpKind = "CreateVersionView"
)

// ColumnChange describes the changed facets of an AlterColumn op —
// only non-nil facets changed (spec §4.3).
type ColumnChange struct {
	DataType    *catalog.PgType
	OldType     *catalog.PgType // prior type, set alongside DataType; lint-only
	UsingClause string // emitter hint for incompatible type changes
	Nullable    *bool
	Default     *string // nil pointer inside = "drop default"; nil field = unchanged
	DefaultSet  bool
	Identity    *catalog.IdentityKind
	Collation   *string
}

// Op is one migration operation. Only the fields relevant to Kind are
// populated; this mirrors the teacher's Diff{..., Source any} pattern
// but keeps each payload field concretely typed instead of `any`.
type Op struct {
	Kind OpKind

	Schema    string // schema-qualified owner, e.g. table's schema
	Name      string // primary object name (table, view, function sig, ...)
	Secondary string // column/constraint/index/trigger/policy name

	Table      *catalog.Table
	Column     *catalog.Column
	ColumnDiff *ColumnChange
	Index      *catalog.Index
	ForeignKey *catalog.ForeignKey
	Check      *catalog.CheckConstraint
	PrimaryKey *catalog.PrimaryKey
	Unique     *catalog.UniqueConstraint

	Function    *catalog.Function
	OldFunction *catalog.Function
	BodyOnly    bool // AlterFunction may use CREATE OR REPLACE

	View    *catalog.View
	Trigger *catalog.Trigger
	Policy  *catalog.Policy

	Sequence  *catalog.Sequence
	Enum      *catalog.EnumType
	EnumValue *EnumValueChange
	Domain    *catalog.Domain
	Extension *catalog.Extension

	OwnerKind string // object kind for AlterOwner/AlterSchemaOwner
	NewOwner  string

	Grantee    string
	Privileges []string
	WithGrant  bool

	DefaultPrivilege *catalog.DefaultPrivilege

	// Recreate marks a Drop/Create pair synthesized by the planner's
	// cascading-recreation rule (spec §4.4 item 4) rather than by a
	// direct content difference — the dependent's own content may be
	// unchanged.
	Recreate bool

	// RewriteGroup ties a Drop+Add pair with the same logical name so
	// the planner keeps them adjacent (spec §4.4 item 3).
	RewriteGroup string
}

// QualifiedName returns the "schema.name" key identifying the entity
// this op acts on, used as a dependency-graph node key.
func (o *Op) QualifiedName() string {
	if o.Schema == "" {
		return o.Name
	}
	return o.Schema + "." + o.Name
}

// EnumValueChange is the payload for AddEnumValue.
type EnumValueChange struct {
	Value  string
	Before string // anchor; empty if Append
	After  string
	Append bool
}

// EdgeKind is the kind of dependency-graph node an Edge endpoint names.
type EdgeKind string

const (
	NodeTable    EdgeKind = "table"
	NodeView     EdgeKind = "view"
	NodeFunction EdgeKind = "function"
	NodeSequence EdgeKind = "sequence"
	NodeType     EdgeKind = "type" // enum or domain
	NodeSchema   EdgeKind = "schema"
	NodeExtension EdgeKind = "extension"
	NodeTrigger  EdgeKind = "trigger"
	NodePolicy   EdgeKind = "policy"
)

// Node identifies one dependency-graph vertex.
type Node struct {
	Kind EdgeKind
	Key  string // qualified name
}

// Edge records "From depends on To": Create(To) before Create(From);
// Drop(From) before Drop(To) (spec §4.3 "Dependency discovery").
type Edge struct {
	From Node
	To   Node
}

// Result is C3's output: the op multiset plus the dependency edges
// that feed C4.
type Result struct {
	Ops   []Op
	Edges []Edge
}
