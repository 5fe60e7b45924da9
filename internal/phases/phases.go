// Package phases implements component C6: it partitions an ordered
// plan into expand/backfill/contract sub-plans for online (zero-
// downtime) migrations, per spec.md §4.6. Grounded on the teacher's
// internal/plan/rewrite.go (CONCURRENTLY index build + wait-poll
// query, NOT VALID + VALIDATE CONSTRAINT split for FKs/checks, the
// three-step SET NOT NULL rewrite) and internal/plan/plan.go's
// ExecutionGroup/Directive split.
package phases

import (
	"fmt"

	"github.com/pgdrift/pgdrift/internal/differ"
	"github.com/pgdrift/pgdrift/internal/emitter"
)

// Split is the three-way partition of an emitted plan (spec.md §4.6).
type Split struct {
	Expand   []emitter.Statement
	Backfill []emitter.Statement
	Contract []emitter.Statement
}

// Split classifies every rendered statement as Expand, Backfill, or
// Contract. Classification is purely structural over the op that
// produced each statement — spec.md §4.6's "callers requiring finer
// control override via op-level hints" is left to the caller, who can
// always fall back to the single-phase emitter.Emit output instead.
func SplitStatements(stmts []emitter.Statement) Split {
	var s Split
	for _, st := range stmts {
		switch classify(st.Op) {
		case expand:
			s.Expand = append(s.Expand, rewriteExpand(st)...)
		case backfill:
			s.Backfill = append(s.Backfill, backfillPlaceholder(st))
		default:
			s.Contract = append(s.Contract, rewriteContract(st)...)
		}
	}
	return s
}

type bucket int

const (
	expand bucket = iota
	backfill
	contract
)

// classify implements spec.md §4.6's structural rule: additive,
// non-locking ops are Expand; destructive or locking ops are
// Contract. AddColumn only counts as Expand when the new column is
// nullable — a NOT NULL addition is classified Contract and emitted
// there unchanged, as a single ADD COLUMN ... NOT NULL statement.
// FK/check additions are Contract so rewriteContract can split them.
func classify(op differ.Op) bucket {
	switch op.Kind {
	case differ.CreateTable, differ.CreateEnum, differ.AddEnumValue,
		differ.CreateSchema, differ.CreateExtension, differ.CreateSequence,
		differ.CreateDomain, differ.CreatePartition:
		return expand
	case differ.AddColumn:
		if op.Column != nil && op.Column.IsNullable {
			return expand
		}
		return contract
	case differ.AddIndex:
		return expand
	case differ.DropColumn, differ.DropTable, differ.DropIndex, differ.DropSchema,
		differ.DropExtension, differ.DropSequence, differ.DropDomain, differ.DropEnum,
		differ.DropPartition, differ.DropPrimaryKey, differ.DropUniqueConstraint,
		differ.DropForeignKey, differ.DropCheckConstraint:
		return contract
	case differ.AlterColumn:
		if op.ColumnDiff != nil && op.ColumnDiff.DataType != nil {
			return contract
		}
		if op.ColumnDiff != nil && op.ColumnDiff.Nullable != nil && !*op.ColumnDiff.Nullable {
			return contract // nullable -> NOT NULL
		}
		return expand
	case differ.AddForeignKey, differ.AddCheckConstraint:
		return contract
	case differ.AddPrimaryKey, differ.AddUniqueConstraint:
		return expand
	case differ.CreateVersionView:
		return backfill
	default:
		return expand
	}
}

// rewriteExpand turns an Expand-classified AddIndex into the
// CREATE INDEX CONCURRENTLY + wait-poll pair (teacher's
// generateIndexRewrite), which must run outside the apply transaction.
func rewriteExpand(st emitter.Statement) []emitter.Statement {
	if st.Op.Kind != differ.AddIndex || st.Op.Index == nil {
		return []emitter.Statement{st}
	}
	concurrent := emitter.Statement{
		SQL: concurrentIndexSQL(st), Directive: emitter.OutsideTransaction,
		ObjectType: st.ObjectType, Operation: st.Operation, ObjectPath: st.ObjectPath, Op: st.Op,
	}
	wait := emitter.Statement{
		SQL: waitForIndexSQL(st.Op.Secondary), Directive: emitter.InTransaction,
		ObjectType: st.ObjectType, Operation: "wait", ObjectPath: st.ObjectPath, Op: st.Op,
	}
	return []emitter.Statement{concurrent, wait}
}

// rewriteContract applies the NOT VALID + VALIDATE split for
// FK/check-constraint additions and the three-step SET NOT NULL
// rewrite for nullable->not-null column changes, mirroring
// generateConstraintRewrite/generateForeignKeyRewrite/
// generateColumnNotNullRewrite in the teacher.
func rewriteContract(st emitter.Statement) []emitter.Statement {
	switch st.Op.Kind {
	case differ.AddForeignKey, differ.AddCheckConstraint:
		return splitNotValid(st)
	case differ.AlterColumn:
		if st.Op.ColumnDiff != nil && st.Op.ColumnDiff.Nullable != nil && !*st.Op.ColumnDiff.Nullable {
			return splitSetNotNull(st)
		}
	}
	return []emitter.Statement{st}
}

func splitNotValid(st emitter.Statement) []emitter.Statement {
	// The emitted SQL already ends in ";" — insert NOT VALID before it.
	sql := st.SQL
	if len(sql) > 0 && sql[len(sql)-1] == ';' {
		sql = sql[:len(sql)-1] + " NOT VALID;"
	}
	name := st.Op.Secondary
	if st.Op.Kind == differ.AddForeignKey && st.Op.ForeignKey != nil {
		name = st.Op.ForeignKey.Name
	}
	if st.Op.Kind == differ.AddCheckConstraint && st.Op.Check != nil {
		name = st.Op.Check.Name
	}
	validate := emitter.Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s VALIDATE CONSTRAINT %s;", tableRef(st), quoteIdent(name)),
		Directive:  emitter.InTransaction,
		ObjectType: st.ObjectType, Operation: "validate", ObjectPath: st.ObjectPath, Op: st.Op,
	}
	notValid := emitter.Statement{SQL: sql, Directive: emitter.InTransaction, ObjectType: st.ObjectType, Operation: st.Operation, ObjectPath: st.ObjectPath, Op: st.Op}
	return []emitter.Statement{notValid, validate}
}

func splitSetNotNull(st emitter.Statement) []emitter.Statement {
	table := tableRef(st)
	col := st.Op.Secondary
	constraintName := fmt.Sprintf("%s_not_null", col)
	add := emitter.Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s IS NOT NULL) NOT VALID;", table, quoteIdent(constraintName), quoteIdent(col)),
		Directive:  emitter.InTransaction,
		ObjectType: st.ObjectType, Operation: "alter", ObjectPath: st.ObjectPath, Op: st.Op,
	}
	validate := emitter.Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s VALIDATE CONSTRAINT %s;", table, quoteIdent(constraintName)),
		Directive:  emitter.InTransaction,
		ObjectType: st.ObjectType, Operation: "validate", ObjectPath: st.ObjectPath, Op: st.Op,
	}
	setNotNull := emitter.Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", table, quoteIdent(col)),
		Directive:  emitter.InTransaction,
		ObjectType: st.ObjectType, Operation: st.Operation, ObjectPath: st.ObjectPath, Op: st.Op,
	}
	drop := emitter.Statement{
		SQL:        fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", table, quoteIdent(constraintName)),
		Directive:  emitter.InTransaction,
		ObjectType: st.ObjectType, Operation: "cleanup", ObjectPath: st.ObjectPath, Op: st.Op,
	}
	return []emitter.Statement{add, validate, setNotNull, drop}
}

// backfillPlaceholder renders the non-executable placeholder comment
// spec.md §4.6 requires for the backfill phase. Currently only
// CreateVersionView's virtual-column rewrite lands here, per
// spec.md §4.5's "backfill placeholders" note.
func backfillPlaceholder(st emitter.Statement) emitter.Statement {
	return emitter.Statement{
		SQL:        fmt.Sprintf("-- Backfill required: %s", st.SQL),
		Directive:  emitter.OutsideTransaction,
		ObjectType: st.ObjectType, Operation: "backfill", ObjectPath: st.ObjectPath, Op: st.Op,
	}
}

func tableRef(st emitter.Statement) string {
	return qualifyName(st.Op.Schema, st.Op.Name)
}
