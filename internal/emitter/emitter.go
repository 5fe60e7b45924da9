// Package emitter implements component C5: it renders the planner's
// ordered op sequence into executable SQL text, one statement (or a
// short run of statements) per op, following the quoting and
// transaction-boundary rules of spec.md §4.5. Grounded on the
// teacher's internal/diff/sql_generator.go and sql_methods.go, which
// use the same per-DiffType switch shape generalized here to
// differ.OpKind.
package emitter

import (
	"fmt"

	"github.com/pgdrift/pgdrift/internal/differ"
)

// Directive marks a statement that cannot run inside the enclosing
// apply transaction (spec.md §5: "ALTER TYPE ... ADD VALUE" and
// CONCURRENTLY index builds), mirroring the teacher's
// internal/plan.Directive split between RewriteStep entries.
type Directive int

const (
	InTransaction Directive = iota
	OutsideTransaction
)

// Statement is one rendered SQL statement plus the context C7/C8/render
// need to report on it, mirroring the teacher's diff.SQLContext/PlanStep.
type Statement struct {
	SQL        string
	Directive  Directive
	ObjectType string // "table", "view", "function", ...
	Operation  string // "create", "alter", "drop"
	ObjectPath string // "schema.name" or "schema.table.column"
	Op         differ.Op
}

// Emit renders every op in order, failing closed on an unrecognized
// OpKind rather than silently skipping it.
func Emit(ops []differ.Op) ([]Statement, error) {
	out := make([]Statement, 0, len(ops))
	for _, op := range ops {
		stmts, err := emitOp(op)
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

func emitOp(op differ.Op) ([]Statement, error) {
	switch op.Kind {
	case differ.CreateSchema:
		return one(op, "schema", "create", op.Name, fmt.Sprintf("CREATE SCHEMA %s;", quoteIdent(op.Name))), nil
	case differ.DropSchema:
		return one(op, "schema", "drop", op.Name, fmt.Sprintf("DROP SCHEMA %s CASCADE;", quoteIdent(op.Name))), nil
	case differ.AlterSchemaOwner:
		return one(op, "schema", "alter", op.Name, fmt.Sprintf("ALTER SCHEMA %s OWNER TO %s;", quoteIdent(op.Name), quoteIdent(op.NewOwner))), nil

	case differ.CreateExtension:
		return one(op, "extension", "create", op.Name, emitCreateExtension(op)), nil
	case differ.DropExtension:
		return one(op, "extension", "drop", op.Name, fmt.Sprintf("DROP EXTENSION %s;", quoteIdent(op.Name))), nil

	case differ.CreateEnum:
		return one(op, "type", "create", op.QualifiedName(), emitCreateEnum(op)), nil
	case differ.DropEnum:
		return one(op, "type", "drop", op.QualifiedName(), fmt.Sprintf("DROP TYPE %s;", qualifyName(op.Schema, op.Name))), nil
	case differ.AddEnumValue:
		s := emitAddEnumValue(op)
		s.Directive = OutsideTransaction
		return []Statement{s}, nil

	case differ.CreateDomain:
		return one(op, "domain", "create", op.QualifiedName(), emitCreateDomain(op)), nil
	case differ.DropDomain:
		return one(op, "domain", "drop", op.QualifiedName(), fmt.Sprintf("DROP DOMAIN %s;", qualifyName(op.Schema, op.Name))), nil
	case differ.AlterDomain:
		return emitAlterDomain(op), nil

	case differ.CreateSequence:
		return one(op, "sequence", "create", op.QualifiedName(), emitCreateSequence(op)), nil
	case differ.DropSequence:
		return one(op, "sequence", "drop", op.QualifiedName(), fmt.Sprintf("DROP SEQUENCE %s;", qualifyName(op.Schema, op.Name))), nil
	case differ.AlterSequence:
		return one(op, "sequence", "alter", op.QualifiedName(), emitAlterSequence(op)), nil

	case differ.CreateTable:
		return one(op, "table", "create", op.QualifiedName(), emitCreateTable(op)), nil
	case differ.DropTable:
		return one(op, "table", "drop", op.QualifiedName(), fmt.Sprintf("DROP TABLE %s;", qualifyName(op.Schema, op.Name))), nil

	case differ.CreatePartition:
		return one(op, "table", "create", op.QualifiedName(), emitCreatePartition(op)), nil
	case differ.DropPartition:
		return one(op, "table", "drop", op.QualifiedName(), fmt.Sprintf("DROP TABLE %s;", qualifyName(op.Schema, op.Name))), nil

	case differ.AddColumn:
		return one(op, "column", "alter", op.QualifiedName()+"."+op.Column.Name, emitAddColumn(op)), nil
	case differ.DropColumn:
		return one(op, "column", "alter", op.QualifiedName()+"."+op.Secondary, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", qualifyName(op.Schema, op.Name), quoteIdent(op.Secondary))), nil
	case differ.AlterColumn:
		return one(op, "column", "alter", op.QualifiedName()+"."+op.Secondary, emitAlterColumn(op)), nil

	case differ.AddPrimaryKey:
		return one(op, "constraint", "alter", op.QualifiedName(), emitAddPrimaryKey(op)), nil
	case differ.DropPrimaryKey:
		return one(op, "constraint", "alter", op.QualifiedName(), emitDropConstraint(op, op.Secondary)), nil
	case differ.AddUniqueConstraint:
		return one(op, "constraint", "alter", op.QualifiedName(), emitAddUnique(op)), nil
	case differ.DropUniqueConstraint:
		return one(op, "constraint", "alter", op.QualifiedName(), emitDropConstraint(op, op.Secondary)), nil
	case differ.AddCheckConstraint:
		return one(op, "constraint", "alter", op.QualifiedName(), emitAddCheck(op)), nil
	case differ.DropCheckConstraint:
		return one(op, "constraint", "alter", op.QualifiedName(), emitDropConstraint(op, op.Secondary)), nil
	case differ.AddForeignKey:
		return one(op, "constraint", "alter", op.QualifiedName(), emitAddForeignKey(op)), nil
	case differ.DropForeignKey:
		return one(op, "constraint", "alter", op.QualifiedName(), emitDropConstraint(op, op.Secondary)), nil

	case differ.AddIndex:
		s := one(op, "index", "create", op.QualifiedName()+"."+op.Secondary, emitCreateIndex(op, false))[0]
		return []Statement{s}, nil
	case differ.DropIndex:
		return one(op, "index", "drop", op.QualifiedName()+"."+op.Secondary, fmt.Sprintf("DROP INDEX %s;", qualifyName(op.Schema, op.Secondary))), nil

	case differ.CreateFunction:
		return one(op, "function", "create", op.QualifiedName(), emitCreateFunction(op, false)), nil
	case differ.DropFunction:
		return one(op, "function", "drop", op.QualifiedName(), fmt.Sprintf("DROP FUNCTION %s;", qualifyFunctionSig(op))), nil
	case differ.AlterFunction:
		return one(op, "function", "alter", op.QualifiedName(), emitCreateFunction(op, op.BodyOnly)), nil

	case differ.CreateView:
		return one(op, "view", "create", op.QualifiedName(), emitCreateView(op)), nil
	case differ.DropView:
		return one(op, "view", "drop", op.QualifiedName(), emitDropView(op)), nil
	case differ.AlterView:
		return one(op, "view", "alter", op.QualifiedName(), emitCreateView(op)), nil
	case differ.CreateVersionView:
		return one(op, "view", "create", op.QualifiedName(), emitCreateView(op)), nil

	case differ.CreateTrigger:
		return one(op, "trigger", "create", op.QualifiedName()+"."+op.Secondary, emitCreateTrigger(op)), nil
	case differ.DropTrigger:
		return one(op, "trigger", "drop", op.QualifiedName()+"."+op.Secondary, fmt.Sprintf("DROP TRIGGER %s ON %s;", quoteIdent(op.Secondary), qualifyName(op.Schema, op.Name))), nil

	case differ.CreatePolicy:
		return one(op, "policy", "create", op.QualifiedName()+"."+op.Secondary, emitCreatePolicy(op)), nil
	case differ.DropPolicy:
		return one(op, "policy", "drop", op.QualifiedName()+"."+op.Secondary, fmt.Sprintf("DROP POLICY %s ON %s;", quoteIdent(op.Secondary), qualifyName(op.Schema, op.Name))), nil
	case differ.AlterPolicy:
		return emitAlterPolicy(op), nil

	case differ.AlterOwner:
		return one(op, op.OwnerKind, "alter", op.QualifiedName(), emitAlterOwner(op)), nil
	case differ.GrantPrivileges:
		return one(op, "privilege", "alter", op.QualifiedName(), emitGrant(op)), nil
	case differ.RevokePrivileges:
		return one(op, "privilege", "alter", op.QualifiedName(), emitRevoke(op)), nil
	case differ.AlterDefaultPrivileges:
		return one(op, "privilege", "alter", op.QualifiedName(), emitAlterDefaultPrivileges(op)), nil

	case differ.CreateVersionSchema:
		return one(op, "schema", "create", op.Name, fmt.Sprintf("CREATE SCHEMA %s;", quoteIdent(op.Name))), nil
	case differ.DropVersionSchema:
		return one(op, "schema", "drop", op.Name, fmt.Sprintf("DROP SCHEMA %s CASCADE;", quoteIdent(op.Name))), nil
	}

	return nil, fmt.Errorf("emitter: unhandled op kind %q for %q", op.Kind, op.QualifiedName())
}

func one(op differ.Op, objectType, operation, path, sql string) []Statement {
	return []Statement{{SQL: sql, Directive: InTransaction, ObjectType: objectType, Operation: operation, ObjectPath: path, Op: op}}
}
