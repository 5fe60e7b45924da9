package catalog

// View is a CREATE [MATERIALIZED] VIEW. Definition is the normalized
// query body; note spec §4.2 item 3's documented non-convergence for
// views that use SELECT * (the normalizer never expands it).
type View struct {
	Schema           string
	Name             string
	Owner            string
	Materialized     bool
	Definition       string
	Columns          []string
	SecurityInvoker  bool
	Comment          string
	Grants           []Grant
	// View has no dependency fields: the differ's AST-level dependency
	// discovery records a view's table/function dependencies as edges
	// in its Result — the catalog only stores the entity.
}

func (v *View) QualifiedName() string { return QualifiedKey(v.Schema, v.Name) }
