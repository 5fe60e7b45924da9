package catalog

// PolicyCommand is the command a row-level-security policy applies to.
type PolicyCommand int

const (
	PolicyAll PolicyCommand = iota
	PolicySelect
	PolicyInsert
	PolicyUpdate
	PolicyDelete
)

// Policy is a CREATE POLICY record. Its table must exist and have RLS
// enabled (invariant 2); Catalog.Finalize enforces that when draining
// pending policies.
type Policy struct {
	Name        string
	Table       string // qualified
	Command     PolicyCommand
	Permissive  bool
	Roles       []string // "PUBLIC" kept uppercase verbatim, others lowercase+sorted
	Using       string   // normalized expression, empty if none
	WithCheck   string   // normalized expression, empty if none
}

func (p *Policy) QualifiedName() string { return p.Table + "." + p.Name }
