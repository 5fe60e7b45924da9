package catalog

// Sequence is a CREATE SEQUENCE, optionally owned by a table column
// (invariant 4: OWNED BY must reference an existing table+column).
type Sequence struct {
	Schema        string
	Name          string
	Owner         string
	StartValue    int64
	Increment     int64
	MinValue      int64
	MaxValue      int64
	CacheSize     int64
	Cycle         bool
	OwnedByTable  string // qualified, empty if not OWNED BY
	OwnedByColumn string
	Grants        []Grant
}

func (s *Sequence) QualifiedName() string { return QualifiedKey(s.Schema, s.Name) }
