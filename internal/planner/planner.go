// Package planner implements component C4: it takes C3's unordered op
// multiset and dependency edges and produces one executable sequence,
// generalizing the teacher's per-entity-kind topological sorts
// (internal/diff/topological.go) into a single Kahn's-algorithm pass
// over every op regardless of kind.
package planner

import (
	"sort"

	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/differ"
)

// Plan is the fully ordered, cascade-expanded list of ops ready for C5
// to render and C6 to split into phases.
type Plan struct {
	Ops []differ.Op
}

// Order topologically sorts diffResult's ops using its dependency
// edges, after expanding FK type-change and function-drop cascades
// against the current/target catalogs (spec §4.4 items 2 and 4).
func Order(diffResult *differ.Result, current, target *catalog.Catalog) (*Plan, error) {
	ops := append([]differ.Op(nil), diffResult.Ops...)
	ops = applyForeignKeyCascade(ops, current, target)
	ops = applyRecreationCascade(ops, diffResult.Edges, current)

	g := buildGraph(ops, diffResult.Edges)

	ordered, err := kahnSort(ops, g)
	if err != nil {
		return nil, err
	}
	return &Plan{Ops: ordered}, nil
}

// sortKey is the stable tie-break total order: (category, qualified
// name, secondary name, kind) — spec §4.4's "stable tie-break" between
// ops with no dependency relation to each other.
func sortKey(op differ.Op) (int, string, string, string) {
	return category(op.Kind), op.QualifiedName(), op.Secondary, string(op.Kind)
}

// kahnSort runs Kahn's algorithm with the teacher's exact idiom
// (internal/diff/topological.go): seed the queue with zero-indegree
// nodes, always pop the smallest by the deterministic tie-break, and
// re-sort the queue every time a new node becomes ready. A cycle
// cannot occur here in practice (the catalog's own invariants forbid
// circular object dependencies other than table<->table FKs, which
// never produce a create-before-create or drop-after-drop requirement
// since FK constraints are always added/dropped as ALTER TABLE, not
// baked into CREATE TABLE) — if one is ever produced by a bug upstream,
// Order returns an error rather than silently truncating the plan.
func kahnSort(ops []differ.Op, g *graph) ([]differ.Op, error) {
	n := len(ops)
	indeg := make([]int, n)
	for i, d := range g.inDeg {
		indeg[i] = d
	}

	var queue []int
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}
	sortQueue(queue, ops)

	var resultIdx []int
	processed := make([]bool, n)

	for len(resultIdx) < n {
		if len(queue) == 0 {
			return nil, errCycle(ops, processed)
		}
		cur := queue[0]
		queue = queue[1:]
		if processed[cur] {
			continue
		}
		processed[cur] = true
		resultIdx = append(resultIdx, cur)

		next := append([]int(nil), g.edges[cur]...)
		sortQueue(next, ops)
		for _, nb := range next {
			indeg[nb]--
			if indeg[nb] <= 0 && !processed[nb] {
				queue = append(queue, nb)
			}
		}
		sortQueue(queue, ops)
	}

	out := make([]differ.Op, n)
	for i, idx := range resultIdx {
		out[i] = ops[idx]
	}
	return out, nil
}

func sortQueue(idxs []int, ops []differ.Op) {
	sort.Slice(idxs, func(i, j int) bool {
		ac, aq, as, ak := sortKey(ops[idxs[i]])
		bc, bq, bs, bk := sortKey(ops[idxs[j]])
		if ac != bc {
			return ac < bc
		}
		if aq != bq {
			return aq < bq
		}
		if as != bs {
			return as < bs
		}
		return ak < bk
	})
}

func errCycle(ops []differ.Op, processed []bool) error {
	var stuck []string
	for i, op := range ops {
		if !processed[i] {
			stuck = append(stuck, string(op.Kind)+":"+op.QualifiedName())
			if len(stuck) >= 5 {
				break
			}
		}
	}
	return &cycleError{stuck: stuck}
}

// cycleError is returned when the dependency graph cannot be fully
// ordered — a signal that C3 or C1's invariants were violated upstream.
type cycleError struct {
	stuck []string
}

func (e *cycleError) Error() string {
	msg := "planner: dependency cycle detected among ops: "
	for i, s := range e.stuck {
		if i > 0 {
			msg += ", "
		}
		msg += s
	}
	return msg
}
