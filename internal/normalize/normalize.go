// Package normalize implements component C2: it canonicalizes
// identifiers, types, expressions, defaults, and grants so that two
// catalogs that are semantically equivalent — however differently
// their source SQL was written, and regardless of whether they came
// from the parser or the introspector — compare structurally equal.
// Normalize is pure and idempotent: Normalize(Normalize(c)) == Normalize(c).
package normalize

import (
	"sort"
	"strings"

	"github.com/pgdrift/pgdrift/internal/catalog"
)

// Catalog normalizes c in place. Both sides of a diff must be passed
// through Catalog before C3 compares them.
func Catalog(c *catalog.Catalog) error {
	for _, schemaName := range c.SortedSchemaNames() {
		schema := c.Schemas[schemaName]
		for _, table := range schema.Tables {
			if err := tableEntity(table); err != nil {
				return err
			}
		}
		for _, view := range schema.Views {
			if err := viewEntity(view); err != nil {
				return err
			}
		}
		for _, fn := range schema.Functions {
			functionEntity(fn)
		}
		for _, dom := range schema.Domains {
			if err := domainEntity(dom); err != nil {
				return err
			}
		}
		normalizeGrants(schema.Grants)
	}
	return nil
}

func tableEntity(t *catalog.Table) error {
	for _, col := range t.Columns {
		if col.Default != nil {
			colType := ""
			if t.Schema != "" {
				colType = col.Type.String()
			}
			normalized, err := DefaultValue(*col.Default, colType)
			if err != nil {
				return err
			}
			col.Default = &normalized
		}
		if col.GeneratedAs != "" {
			normalized, err := Expression(col.GeneratedAs)
			if err != nil {
				return err
			}
			col.GeneratedAs = normalized
		}
	}

	for _, check := range t.CheckConstraints {
		normalized, err := Expression(check.Expression)
		if err != nil {
			return err
		}
		check.Expression = normalized
	}

	for _, idx := range t.Indexes {
		if idx.Where != "" {
			normalized, err := Expression(idx.Where)
			if err != nil {
				return err
			}
			idx.Where = normalized
		}
	}

	for _, pol := range t.Policies {
		if pol.Using != "" {
			normalized, err := Expression(pol.Using)
			if err != nil {
				return err
			}
			pol.Using = normalized
		}
		if pol.WithCheck != "" {
			normalized, err := Expression(pol.WithCheck)
			if err != nil {
				return err
			}
			pol.WithCheck = normalized
		}
		normalizePolicyRoles(pol)
	}

	for _, trig := range t.Triggers {
		if trig.When != "" {
			normalized, err := Expression(trig.When)
			if err != nil {
				return err
			}
			trig.When = normalized
		}
		dedupeEvents(trig)
	}

	normalizeGrants(t.Grants)
	return nil
}

func viewEntity(v *catalog.View) error {
	normalized, err := Query(v.Definition)
	if err != nil {
		return err
	}
	v.Definition = normalized
	normalizeGrants(v.Grants)
	return nil
}

func functionEntity(f *catalog.Function) {
	f.Language = NormalizedLanguage(f.Language)
	f.Body = FunctionBody(f.Body)
	normalizeGrants(f.Grants)
}

func domainEntity(d *catalog.Domain) error {
	if d.CheckExpr != "" {
		normalized, err := Expression(d.CheckExpr)
		if err != nil {
			return err
		}
		d.CheckExpr = normalized
	}
	return nil
}

// normalizePolicyRoles lowercases and sorts role names, except the
// special PUBLIC role which stays uppercase (spec §4.2, grounded on
// internal/ir/normalize.go's normalizePolicyRoles).
func normalizePolicyRoles(p *catalog.Policy) {
	for i, r := range p.Roles {
		if strings.EqualFold(r, "public") {
			p.Roles[i] = "PUBLIC"
		} else {
			p.Roles[i] = strings.ToLower(r)
		}
	}
	sort.Slice(p.Roles, func(i, j int) bool {
		if p.Roles[i] == "PUBLIC" {
			return true
		}
		if p.Roles[j] == "PUBLIC" {
			return false
		}
		return p.Roles[i] < p.Roles[j]
	})
}

// dedupeEvents keeps a trigger's event set order-independent, per spec
// §4.2 item 7 — stored as a stable, deduplicated, sorted slice so two
// triggers differing only in declared event order compare equal.
func dedupeEvents(t *catalog.Trigger) {
	seen := make(map[catalog.TriggerEvent]bool)
	var out []catalog.TriggerEvent
	for _, e := range t.Events {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	t.Events = out
}

// normalizeGrants treats each grantee's privilege set as a set, never
// a list (spec §4.2 item 8): dedupe and sort so comparison is
// order-independent.
func normalizeGrants(grants []catalog.Grant) {
	for i := range grants {
		seen := make(map[string]bool)
		var out []string
		for _, p := range grants[i].Privileges {
			up := strings.ToUpper(p)
			if !seen[up] {
				seen[up] = true
				out = append(out, up)
			}
		}
		sort.Strings(out)
		grants[i].Privileges = out
	}
	sort.Slice(grants, func(i, j int) bool { return grants[i].Grantee < grants[j].Grantee })
}
