package planner

import "github.com/pgdrift/pgdrift/internal/differ"

// entityNode returns the dependency-graph node an op principally acts
// on, using the same Node/EdgeKind vocabulary C3 used to record
// dependency edges (spec §4.3 "Dependency discovery"). Two ops acting
// on the same entity return an equal Node, which graph.go uses to
// place structural same-entity ordering edges between them.
func entityNode(op differ.Op) (differ.Node, bool) {
	switch {
	case isTableOp(op.Kind):
		return differ.Node{Kind: differ.NodeTable, Key: op.QualifiedName()}, true
	case isViewOp(op.Kind):
		return differ.Node{Kind: differ.NodeView, Key: op.QualifiedName()}, true
	case isFunctionOp(op.Kind):
		return differ.Node{Kind: differ.NodeFunction, Key: op.QualifiedName()}, true
	case isSequenceOp(op.Kind):
		return differ.Node{Kind: differ.NodeSequence, Key: op.QualifiedName()}, true
	case isTypeOp(op.Kind):
		return differ.Node{Kind: differ.NodeType, Key: op.QualifiedName()}, true
	case isSchemaOp(op.Kind):
		return differ.Node{Kind: differ.NodeSchema, Key: op.Name}, true
	case op.Kind == differ.CreateExtension || op.Kind == differ.DropExtension:
		return differ.Node{Kind: differ.NodeExtension, Key: op.Name}, true
	}
	return differ.Node{}, false
}

func isTableOp(k differ.OpKind) bool {
	switch k {
	case differ.CreateTable, differ.DropTable, differ.CreatePartition, differ.DropPartition,
		differ.AddColumn, differ.DropColumn, differ.AlterColumn,
		differ.AddPrimaryKey, differ.DropPrimaryKey,
		differ.AddUniqueConstraint, differ.DropUniqueConstraint,
		differ.AddForeignKey, differ.DropForeignKey,
		differ.AddCheckConstraint, differ.DropCheckConstraint,
		differ.AddIndex, differ.DropIndex,
		differ.CreateTrigger, differ.DropTrigger,
		differ.CreatePolicy, differ.DropPolicy, differ.AlterPolicy:
		return true
	}
	return false
}

func isViewOp(k differ.OpKind) bool {
	return k == differ.CreateView || k == differ.DropView || k == differ.AlterView
}

func isFunctionOp(k differ.OpKind) bool {
	return k == differ.CreateFunction || k == differ.DropFunction || k == differ.AlterFunction
}

func isSequenceOp(k differ.OpKind) bool {
	return k == differ.CreateSequence || k == differ.DropSequence || k == differ.AlterSequence
}

func isTypeOp(k differ.OpKind) bool {
	return k == differ.CreateEnum || k == differ.DropEnum || k == differ.AddEnumValue ||
		k == differ.CreateDomain || k == differ.DropDomain || k == differ.AlterDomain
}

func isSchemaOp(k differ.OpKind) bool {
	return k == differ.CreateSchema || k == differ.DropSchema || k == differ.AlterSchemaOwner
}

// graph is an adjacency list over op indices: edges[a] contains b
// means a must run before b.
type graph struct {
	edges  map[int][]int
	inDeg  map[int]int
	n      int
}

func newGraph(n int) *graph {
	g := &graph{edges: make(map[int][]int), inDeg: make(map[int]int), n: n}
	for i := 0; i < n; i++ {
		g.inDeg[i] = 0
	}
	return g
}

func (g *graph) addEdge(before, after int) {
	if before == after {
		return
	}
	for _, existing := range g.edges[before] {
		if existing == after {
			return
		}
	}
	g.edges[before] = append(g.edges[before], after)
	g.inDeg[after]++
}

// buildGraph wires three sources of ordering constraint into one
// Kahn's-algorithm graph (spec §4.4's "one unified dependency graph,
// not five per-kind topological sorts"):
//
//  1. entity-level dependency edges from C3 (differ.Result.Edges),
//     translated to op-level: Create(dependency) before Create(dependent);
//     Drop(dependent) before Drop(dependency) — both directions of
//     spec §4.4 item 1.
//  2. same-entity structural ordering (e.g. AddColumn before the
//     AddForeignKey that uses it on the same table) via the category
//     rank in rank.go.
//  3. explicit drop-before-create edges for RewriteGroup pairs (spec
//     §4.4 item 3), which deliberately bypass rule 2's category split
//     since a rewrite pair recreates one logical object, not two
//     unrelated ones.
func buildGraph(ops []differ.Op, edges []differ.Edge) *graph {
	g := newGraph(len(ops))

	nodeOps := make(map[differ.Node][]int)
	for i, op := range ops {
		if n, ok := entityNode(op); ok {
			nodeOps[n] = append(nodeOps[n], i)
		}
	}

	for _, e := range edges {
		fromOps := nodeOps[e.From]
		toOps := nodeOps[e.To]
		for _, fi := range fromOps {
			for _, ti := range toOps {
				f, t := ops[fi], ops[ti]
				switch {
				case isCreateLike(f.Kind) && isCreateLike(t.Kind):
					g.addEdge(ti, fi) // To created before From
				case isDropLike(f.Kind) && isDropLike(t.Kind):
					g.addEdge(fi, ti) // From dropped before To
				}
			}
		}
	}

	rewriteGroups := make(map[string][]int)
	for i, op := range ops {
		if op.RewriteGroup != "" {
			rewriteGroups[op.RewriteGroup] = append(rewriteGroups[op.RewriteGroup], i)
		}
	}
	inRewrite := make(map[int]bool)
	for _, idxs := range rewriteGroups {
		var dropIdx, createIdx []int
		for _, i := range idxs {
			inRewrite[i] = true
			if isDropLike(ops[i].Kind) {
				dropIdx = append(dropIdx, i)
			} else {
				createIdx = append(createIdx, i)
			}
		}
		for _, d := range dropIdx {
			for _, c := range createIdx {
				g.addEdge(d, c)
			}
		}
		// Chain the non-drop members in their original appearance order
		// (e.g. an FK-cascade's ALTER COLUMN before its re-added
		// constraint) rather than leaving their relative order to the
		// category tie-break, which would otherwise misorder an ALTER
		// COLUMN against a lower-category ADD.
		for k := 0; k+1 < len(createIdx); k++ {
			g.addEdge(createIdx[k], createIdx[k+1])
		}
	}

	for _, idxs := range nodeOps {
		for i := 0; i < len(idxs); i++ {
			for j := 0; j < len(idxs); j++ {
				if i == j {
					continue
				}
				a, b := idxs[i], idxs[j]
				if inRewrite[a] && inRewrite[b] {
					continue
				}
				if category(ops[a].Kind) < category(ops[b].Kind) {
					g.addEdge(a, b)
				}
			}
		}
	}

	return g
}
