// Package catalog implements the in-memory PostgreSQL schema graph
// (component C1): typed entities keyed by fully-qualified name, the
// invariants those keys must uphold, and the Finalize step that
// resolves pending ownership/grant/revoke/policy records recorded
// before their target entity was known.
package catalog

import (
	"fmt"
	"sort"

	"github.com/pgdrift/pgdrift/internal/pgderrors"
)

// Catalog is a value type: once built and finalized it is never
// mutated by the differ, planner, emitter, or lint packages. It is
// produced either by internal/parser or internal/introspect.
type Catalog struct {
	Schemas            map[string]*Schema
	Extensions         map[string]*Extension
	PartitionParents   map[string]string // child qualified name -> parent qualified name
	pendingOwnership   []pendingOwnership
	pendingGrants      []pendingGrant
	pendingRevokes     []pendingGrant
	pendingPolicies    []pendingPolicy
	pendingDefaultPriv []DefaultPrivilege
	finalized          bool
}

type pendingOwnership struct {
	ObjectKind string
	Qualified  string
	NewOwner   string
}

type pendingGrant struct {
	ObjectKind  string
	Qualified   string
	Grantee     string
	Privileges  []string
	WithGrant   bool
}

type pendingPolicy struct {
	Table  string
	Policy Policy
}

// New returns an empty Catalog ready to accept entities.
func New() *Catalog {
	return &Catalog{
		Schemas:          make(map[string]*Schema),
		Extensions:       make(map[string]*Extension),
		PartitionParents: make(map[string]string),
	}
}

// GetOrCreateSchema returns the named schema, creating it (owner
// unset) if this is the first entity seen for it. Mirrors
// internal/ir.IR.getOrCreateSchema's role as the single entry point
// that keeps schema creation implicit and idempotent while parsing or
// introspecting.
func (c *Catalog) GetOrCreateSchema(name string) *Schema {
	if name == "" {
		name = "public"
	}
	if s, ok := c.Schemas[name]; ok {
		return s
	}
	s := &Schema{
		Name:       name,
		Tables:     make(map[string]*Table),
		Views:      make(map[string]*View),
		Functions:  make(map[string]*Function),
		Sequences:  make(map[string]*Sequence),
		Enums:      make(map[string]*EnumType),
		Domains:    make(map[string]*Domain),
		DefaultPrivileges: make(map[string]*DefaultPrivilege),
	}
	c.Schemas[name] = s
	return s
}

// AddPendingOwnership records an ALTER ... OWNER TO seen before its
// target entity is known to exist; resolved at Finalize.
func (c *Catalog) AddPendingOwnership(objectKind, qualified, newOwner string) {
	c.pendingOwnership = append(c.pendingOwnership, pendingOwnership{objectKind, qualified, newOwner})
}

// AddPendingGrant records a GRANT statement for later resolution.
func (c *Catalog) AddPendingGrant(objectKind, qualified, grantee string, privileges []string, withGrant bool) {
	c.pendingGrants = append(c.pendingGrants, pendingGrant{objectKind, qualified, grantee, privileges, withGrant})
}

// AddPendingRevoke records a REVOKE statement for later resolution.
func (c *Catalog) AddPendingRevoke(objectKind, qualified, grantee string, privileges []string) {
	c.pendingRevokes = append(c.pendingRevokes, pendingGrant{objectKind, qualified, grantee, privileges, false})
}

// AddPendingPolicy records a CREATE POLICY statement for later
// resolution against its table.
func (c *Catalog) AddPendingPolicy(table string, p Policy) {
	c.pendingPolicies = append(c.pendingPolicies, pendingPolicy{table, p})
}

// AddDefaultPrivilege records an ALTER DEFAULT PRIVILEGES entry.
// Default privileges are schema/role scoped, not entity scoped, so
// they need no pending resolution against an as-yet-unseen entity.
func (c *Catalog) AddDefaultPrivilege(dp DefaultPrivilege) {
	c.pendingDefaultPriv = append(c.pendingDefaultPriv, dp)
}

// Finalize drains every pending list, attaching each record to its
// target entity. It fails with DanglingReference if a target is
// absent, matching spec §4.1.
func (c *Catalog) Finalize() error {
	if c.finalized {
		return nil
	}

	for _, p := range c.pendingOwnership {
		if err := c.applyOwnership(p); err != nil {
			return err
		}
	}
	for _, g := range c.pendingGrants {
		if err := c.applyGrant(g, false); err != nil {
			return err
		}
	}
	for _, g := range c.pendingRevokes {
		if err := c.applyGrant(g, true); err != nil {
			return err
		}
	}
	for _, pp := range c.pendingPolicies {
		table, err := c.lookupTable(pp.Table)
		if err != nil {
			return err
		}
		if !table.RLSEnabled {
			return pgderrors.Newf(pgderrors.DanglingReference,
				"policy %q targets table %q which does not have row level security enabled", pp.Policy.Name, pp.Table)
		}
		if table.Policies == nil {
			table.Policies = make(map[string]*Policy)
		}
		pol := pp.Policy
		table.Policies[pol.Name] = &pol
	}
	for _, dp := range c.pendingDefaultPriv {
		schema := c.GetOrCreateSchema(dp.Schema)
		key := dp.key()
		d := dp
		schema.DefaultPrivileges[key] = &d
	}

	c.pendingOwnership = nil
	c.pendingGrants = nil
	c.pendingRevokes = nil
	c.pendingPolicies = nil
	c.pendingDefaultPriv = nil
	c.finalized = true
	return c.checkInvariants()
}

func (c *Catalog) applyOwnership(p pendingOwnership) error {
	switch p.ObjectKind {
	case "schema":
		s, ok := c.Schemas[p.Qualified]
		if !ok {
			return pgderrors.Newf(pgderrors.DanglingReference, "owner target schema %q not found", p.Qualified)
		}
		s.Owner = p.NewOwner
	case "table":
		t, err := c.lookupTable(p.Qualified)
		if err != nil {
			return err
		}
		t.Owner = p.NewOwner
	case "view":
		v, err := c.lookupView(p.Qualified)
		if err != nil {
			return err
		}
		v.Owner = p.NewOwner
	case "sequence":
		s, err := c.lookupSequence(p.Qualified)
		if err != nil {
			return err
		}
		s.Owner = p.NewOwner
	case "function":
		f, err := c.lookupFunction(p.Qualified)
		if err != nil {
			return err
		}
		f.Owner = p.NewOwner
	case "type":
		e, err := c.lookupEnum(p.Qualified)
		if err == nil {
			e.Owner = p.NewOwner
			return nil
		}
		return pgderrors.Newf(pgderrors.DanglingReference, "owner target type %q not found", p.Qualified)
	default:
		return pgderrors.Newf(pgderrors.DanglingReference, "unknown owner target kind %q for %q", p.ObjectKind, p.Qualified)
	}
	return nil
}

func (c *Catalog) applyGrant(g pendingGrant, revoke bool) error {
	var grants *[]Grant
	switch g.ObjectKind {
	case "schema":
		s, ok := c.Schemas[g.Qualified]
		if !ok {
			return pgderrors.Newf(pgderrors.DanglingReference, "grant target schema %q not found", g.Qualified)
		}
		grants = &s.Grants
	case "table":
		t, err := c.lookupTable(g.Qualified)
		if err != nil {
			return err
		}
		grants = &t.Grants
	case "view":
		v, err := c.lookupView(g.Qualified)
		if err != nil {
			return err
		}
		grants = &v.Grants
	case "sequence":
		s, err := c.lookupSequence(g.Qualified)
		if err != nil {
			return err
		}
		grants = &s.Grants
	case "function":
		f, err := c.lookupFunction(g.Qualified)
		if err != nil {
			return err
		}
		grants = &f.Grants
	default:
		return pgderrors.Newf(pgderrors.DanglingReference, "unknown grant target kind %q for %q", g.ObjectKind, g.Qualified)
	}

	if revoke {
		filtered := (*grants)[:0]
		for _, existing := range *grants {
			if existing.Grantee == g.Grantee {
				existing.Privileges = subtractPrivileges(existing.Privileges, g.Privileges)
				if len(existing.Privileges) == 0 {
					continue
				}
			}
			filtered = append(filtered, existing)
		}
		*grants = filtered
		return nil
	}

	for i := range *grants {
		if (*grants)[i].Grantee == g.Grantee {
			(*grants)[i].Privileges = unionPrivileges((*grants)[i].Privileges, g.Privileges)
			(*grants)[i].WithGrantOption = (*grants)[i].WithGrantOption || g.WithGrant
			return nil
		}
	}
	*grants = append(*grants, Grant{Grantee: g.Grantee, Privileges: g.Privileges, WithGrantOption: g.WithGrant})
	return nil
}

func (c *Catalog) lookupTable(qualified string) (*Table, error) {
	schemaName, name := splitQualified(qualified)
	s, ok := c.Schemas[schemaName]
	if !ok {
		return nil, pgderrors.Newf(pgderrors.DanglingReference, "table %q: schema %q not found", qualified, schemaName)
	}
	t, ok := s.Tables[name]
	if !ok {
		return nil, pgderrors.Newf(pgderrors.DanglingReference, "table %q not found", qualified)
	}
	return t, nil
}

func (c *Catalog) lookupView(qualified string) (*View, error) {
	schemaName, name := splitQualified(qualified)
	s, ok := c.Schemas[schemaName]
	if !ok {
		return nil, pgderrors.Newf(pgderrors.DanglingReference, "view %q: schema %q not found", qualified, schemaName)
	}
	v, ok := s.Views[name]
	if !ok {
		return nil, pgderrors.Newf(pgderrors.DanglingReference, "view %q not found", qualified)
	}
	return v, nil
}

func (c *Catalog) lookupSequence(qualified string) (*Sequence, error) {
	schemaName, name := splitQualified(qualified)
	s, ok := c.Schemas[schemaName]
	if !ok {
		return nil, pgderrors.Newf(pgderrors.DanglingReference, "sequence %q: schema %q not found", qualified, schemaName)
	}
	sq, ok := s.Sequences[name]
	if !ok {
		return nil, pgderrors.Newf(pgderrors.DanglingReference, "sequence %q not found", qualified)
	}
	return sq, nil
}

func (c *Catalog) lookupFunction(qualifiedWithSig string) (*Function, error) {
	schemaName, rest := splitQualified(qualifiedWithSig)
	s, ok := c.Schemas[schemaName]
	if !ok {
		return nil, pgderrors.Newf(pgderrors.DanglingReference, "function %q: schema %q not found", qualifiedWithSig, schemaName)
	}
	if f, ok := s.Functions[rest]; ok {
		return f, nil
	}
	// Fall back to matching by name when no signature was supplied.
	for key, f := range s.Functions {
		if name, _ := splitSignature(key); name == rest {
			return f, nil
		}
	}
	return nil, pgderrors.Newf(pgderrors.DanglingReference, "function %q not found", qualifiedWithSig)
}

func (c *Catalog) lookupEnum(qualified string) (*EnumType, error) {
	schemaName, name := splitQualified(qualified)
	s, ok := c.Schemas[schemaName]
	if !ok {
		return nil, pgderrors.Newf(pgderrors.DanglingReference, "type %q: schema %q not found", qualified, schemaName)
	}
	e, ok := s.Enums[name]
	if !ok {
		return nil, pgderrors.Newf(pgderrors.DanglingReference, "type %q not found", qualified)
	}
	return e, nil
}

// checkInvariants verifies the seven structural invariants of spec §3
// that Finalize can check without database access (FK targets exist,
// trigger functions exist, OWNED BY targets exist, partition parent
// consistency). Dangling-reference detection for policies happens
// above during pending-list draining.
func (c *Catalog) checkInvariants() error {
	for schemaName, schema := range c.Schemas {
		for tableName, table := range schema.Tables {
			qualified := schemaName + "." + tableName
			for _, fk := range table.ForeignKeys {
				refSchema, ok := c.Schemas[fk.ReferencedSchema]
				if !ok {
					return pgderrors.Newf(pgderrors.DanglingReference,
						"foreign key %q on %q references unknown schema %q", fk.Name, qualified, fk.ReferencedSchema)
				}
				if _, ok := refSchema.Tables[fk.ReferencedTable]; !ok {
					return pgderrors.Newf(pgderrors.DanglingReference,
						"foreign key %q on %q references unknown table %q.%q", fk.Name, qualified, fk.ReferencedSchema, fk.ReferencedTable)
				}
			}
			for _, trig := range table.Triggers {
				if _, err := c.lookupFunction(trig.Function); err != nil {
					return pgderrors.Newf(pgderrors.DanglingReference,
						"trigger %q on %q references unknown function %q", trig.Name, qualified, trig.Function)
				}
			}
			if table.IsPartitioned && table.PartitionBy == "" {
				return pgderrors.Newf(pgderrors.DanglingReference,
					"table %q is marked partitioned but has no partition-by spec", qualified)
			}
		}
		for name, seq := range schema.Sequences {
			if seq.OwnedByTable == "" {
				continue
			}
			refTable, err := c.lookupTable(seq.OwnedByTable)
			if err != nil {
				return pgderrors.Newf(pgderrors.DanglingReference,
					"sequence %q.%q OWNED BY references unknown table %q", schemaName, name, seq.OwnedByTable)
			}
			found := false
			for _, col := range refTable.Columns {
				if col.Name == seq.OwnedByColumn {
					found = true
					break
				}
			}
			if !found {
				return pgderrors.Newf(pgderrors.DanglingReference,
					"sequence %q.%q OWNED BY references unknown column %q.%q", schemaName, name, seq.OwnedByTable, seq.OwnedByColumn)
			}
		}
	}
	for child, parent := range c.PartitionParents {
		if _, err := c.lookupTable(parent); err != nil {
			return pgderrors.Newf(pgderrors.DanglingReference,
				"partition %q declares parent %q which does not exist", child, parent)
		}
	}
	return nil
}

// Merge unions entities from other into c. Any key collision across
// the two catalogs fails the merge outright (spec §4.1: "deterministic
// failure is preferred to silent loss" — never last-writer-wins).
func (c *Catalog) Merge(other *Catalog) error {
	for schemaName, otherSchema := range other.Schemas {
		schema := c.GetOrCreateSchema(schemaName)
		if schema.Owner == "" {
			schema.Owner = otherSchema.Owner
		}
		for name, t := range otherSchema.Tables {
			if _, exists := schema.Tables[name]; exists {
				return pgderrors.Newf(pgderrors.DuplicateEntity, "%s.%s", schemaName, name)
			}
			schema.Tables[name] = t
		}
		for name, v := range otherSchema.Views {
			if _, exists := schema.Views[name]; exists {
				return pgderrors.Newf(pgderrors.DuplicateEntity, "%s.%s", schemaName, name)
			}
			schema.Views[name] = v
		}
		for sig, f := range otherSchema.Functions {
			if _, exists := schema.Functions[sig]; exists {
				return pgderrors.Newf(pgderrors.DuplicateEntity, "%s.%s", schemaName, sig)
			}
			schema.Functions[sig] = f
		}
		for name, s := range otherSchema.Sequences {
			if _, exists := schema.Sequences[name]; exists {
				return pgderrors.Newf(pgderrors.DuplicateEntity, "%s.%s", schemaName, name)
			}
			schema.Sequences[name] = s
		}
		for name, e := range otherSchema.Enums {
			if _, exists := schema.Enums[name]; exists {
				return pgderrors.Newf(pgderrors.DuplicateEntity, "%s.%s", schemaName, name)
			}
			schema.Enums[name] = e
		}
		for name, d := range otherSchema.Domains {
			if _, exists := schema.Domains[name]; exists {
				return pgderrors.Newf(pgderrors.DuplicateEntity, "%s.%s", schemaName, name)
			}
			schema.Domains[name] = d
		}
	}
	for name, ext := range other.Extensions {
		if _, exists := c.Extensions[name]; exists {
			return pgderrors.Newf(pgderrors.DuplicateEntity, "extension %s", name)
		}
		c.Extensions[name] = ext
	}
	c.pendingOwnership = append(c.pendingOwnership, other.pendingOwnership...)
	c.pendingGrants = append(c.pendingGrants, other.pendingGrants...)
	c.pendingRevokes = append(c.pendingRevokes, other.pendingRevokes...)
	c.pendingPolicies = append(c.pendingPolicies, other.pendingPolicies...)
	c.pendingDefaultPriv = append(c.pendingDefaultPriv, other.pendingDefaultPriv...)
	return nil
}

// SortedSchemaNames returns schema names in lexicographic order,
// satisfying invariant 7 (stable iteration).
func (c *Catalog) SortedSchemaNames() []string {
	names := make([]string, 0, len(c.Schemas))
	for name := range c.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func splitQualified(qualified string) (schema, name string) {
	for i := 0; i < len(qualified); i++ {
		if qualified[i] == '.' {
			return qualified[:i], qualified[i+1:]
		}
	}
	return "public", qualified
}

func splitSignature(key string) (name, sig string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '(' {
			return key[:i], key[i:]
		}
	}
	return key, ""
}

func unionPrivileges(a, b []string) []string {
	set := make(map[string]bool)
	for _, p := range a {
		set[p] = true
	}
	for _, p := range b {
		set[p] = true
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func subtractPrivileges(a, b []string) []string {
	remove := make(map[string]bool)
	for _, p := range b {
		remove[p] = true
	}
	var out []string
	for _, p := range a {
		if !remove[p] {
			out = append(out, p)
		}
	}
	return out
}

// QualifiedKey returns the canonical "schema.name" key for an entity.
func QualifiedKey(schema, name string) string {
	return fmt.Sprintf("%s.%s", schema, name)
}
