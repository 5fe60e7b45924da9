package planner

import "github.com/pgdrift/pgdrift/internal/differ"

// category buckets ops into a coarse create-phase-before-drop-phase
// ordering, mirroring the expand-before-contract spirit of spec §4.6.
// It seeds Kahn's initial queue order and breaks ties between ops with
// no direct dependency edge between them; it is not itself a
// correctness mechanism — the graph edges built in graph.go carry that
// weight.
var categoryTable = map[differ.OpKind]int{
	differ.CreateSchema:       0,
	differ.CreateExtension:    0,
	differ.CreateEnum:         0,
	differ.CreateDomain:       0,
	differ.CreateSequence:     0,
	differ.CreateTable:        0,
	differ.CreateVersionSchema: 0,
	differ.CreatePartition:    0,

	differ.AddColumn: 1,

	differ.AddPrimaryKey:        2,
	differ.AddUniqueConstraint:  2,
	differ.AddCheckConstraint:   2,

	differ.AddForeignKey: 3,

	differ.AddIndex: 4,

	differ.CreateTrigger: 5,

	differ.CreatePolicy: 6,
	differ.AlterPolicy:  6,

	differ.CreateFunction:     7,
	differ.CreateView:         7,
	differ.AlterFunction:      7,
	differ.AlterView:          7,
	differ.CreateVersionView:  7,

	differ.AddEnumValue:      8,
	differ.AlterColumn:       8,
	differ.AlterDomain:       8,
	differ.AlterSequence:     8,
	differ.AlterSchemaOwner:  8,
	differ.AlterOwner:        8,

	differ.GrantPrivileges:        9,
	differ.RevokePrivileges:       9,
	differ.AlterDefaultPrivileges: 9,

	differ.DropPolicy: 10,
	differ.DropView:   10,

	differ.DropTrigger: 11,

	differ.DropIndex: 12,

	differ.DropForeignKey: 13,

	differ.DropCheckConstraint:  14,
	differ.DropUniqueConstraint: 14,

	differ.DropPrimaryKey: 15,

	differ.DropColumn: 16,

	differ.DropTable:          17,
	differ.DropSequence:       17,
	differ.DropDomain:         17,
	differ.DropEnum:           17,
	differ.DropSchema:         17,
	differ.DropExtension:      17,
	differ.DropVersionSchema:  17,
	differ.DropPartition:      17,
	differ.DropFunction:       17,
}

// category returns the coarse phase bucket for kind. Unknown kinds
// (there should be none — the taxonomy is closed) sort last.
func category(kind differ.OpKind) int {
	if c, ok := categoryTable[kind]; ok {
		return c
	}
	return 99
}

func isCreateLike(kind differ.OpKind) bool {
	return category(kind) <= 9
}

func isDropLike(kind differ.OpKind) bool {
	return category(kind) >= 10
}
