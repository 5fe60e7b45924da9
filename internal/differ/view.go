package differ

import "github.com/pgdrift/pgdrift/internal/catalog"

func diffViews(schemaName string, cur, tgt *catalog.Schema, opts Options, r *Result) {
	curViews := schemaViews(cur)
	tgtViews := schemaViews(tgt)

	for _, name := range sortedKeys(tgtViews) {
		t := tgtViews[name]
		c, existed := curViews[name]
		if !existed {
			v := t
			kind := CreateView
			r.Ops = append(r.Ops, Op{Kind: kind, Schema: schemaName, Name: name, View: v})
			continue
		}
		if c.Materialized != t.Materialized {
			// Materialization changed: only expressible as drop+create.
			oldV, newV := c, t
			group := schemaName + "." + name
			r.Ops = append(r.Ops, Op{Kind: DropView, Schema: schemaName, Name: name, View: oldV, RewriteGroup: group})
			r.Ops = append(r.Ops, Op{Kind: CreateView, Schema: schemaName, Name: name, View: newV, RewriteGroup: group})
			continue
		}
		if viewsDiffer(c, t) {
			v := t
			if t.Materialized {
				// Materialized views can't ALTER their query; recreate.
				group := schemaName + "." + name
				r.Ops = append(r.Ops, Op{Kind: DropView, Schema: schemaName, Name: name, View: c, RewriteGroup: group})
				r.Ops = append(r.Ops, Op{Kind: CreateView, Schema: schemaName, Name: name, View: v, RewriteGroup: group})
			} else {
				r.Ops = append(r.Ops, Op{Kind: AlterView, Schema: schemaName, Name: name, View: v, OldFunction: nil})
			}
		}
		if opts.ManageOwnership && c.Owner != t.Owner && t.Owner != "" {
			r.Ops = append(r.Ops, Op{Kind: AlterOwner, Schema: schemaName, Name: name, OwnerKind: "view", NewOwner: t.Owner})
		}
		if opts.ManageGrants {
			diffGrants("view", schemaName, name, c.Grants, t.Grants, opts, r)
		}
	}
	for _, name := range sortedKeys(curViews) {
		if _, ok := tgtViews[name]; !ok {
			v := curViews[name]
			r.Ops = append(r.Ops, Op{Kind: DropView, Schema: schemaName, Name: name, View: v})
		}
	}
}

func viewsDiffer(a, b *catalog.View) bool {
	return a.Definition != b.Definition || a.SecurityInvoker != b.SecurityInvoker || !stringSliceEqual(a.Columns, b.Columns)
}

func schemaViews(s *catalog.Schema) map[string]*catalog.View {
	if s == nil {
		return map[string]*catalog.View{}
	}
	return s.Views
}

func diffDefaultPrivileges(schemaName string, cur, tgt *catalog.Schema, opts Options, r *Result) {
	curDP := schemaDefaultPrivileges(cur)
	tgtDP := schemaDefaultPrivileges(tgt)

	for key, t := range tgtDP {
		if _, ok := curDP[key]; !ok {
			dp := t
			r.Ops = append(r.Ops, Op{Kind: AlterDefaultPrivileges, Schema: schemaName, DefaultPrivilege: dp})
		}
	}
	for key, c := range curDP {
		if _, ok := tgtDP[key]; !ok {
			dp := *c // copy: the current catalog's entry is left untouched
			dp.Privileges = nil // empty set signals "revoke all" to the emitter
			r.Ops = append(r.Ops, Op{Kind: AlterDefaultPrivileges, Schema: schemaName, DefaultPrivilege: &dp})
		}
	}
}

func schemaDefaultPrivileges(s *catalog.Schema) map[string]*catalog.DefaultPrivilege {
	if s == nil {
		return map[string]*catalog.DefaultPrivilege{}
	}
	return s.DefaultPrivileges
}
