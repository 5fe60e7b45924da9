package differ

import "github.com/pgdrift/pgdrift/internal/catalog"

func diffDomains(schemaName string, cur, tgt *catalog.Schema, opts Options, r *Result) {
	curDomains := schemaDomains(cur)
	tgtDomains := schemaDomains(tgt)

	for _, name := range sortedKeys(tgtDomains) {
		t := tgtDomains[name]
		c, existed := curDomains[name]
		if !existed {
			d := t
			r.Ops = append(r.Ops, Op{Kind: CreateDomain, Schema: schemaName, Name: name, Domain: d})
			continue
		}
		if domainsDiffer(c, t) {
			d := t
			r.Ops = append(r.Ops, Op{Kind: AlterDomain, Schema: schemaName, Name: name, Domain: d})
		}
	}
	for _, name := range sortedKeys(curDomains) {
		if _, ok := tgtDomains[name]; !ok {
			d := curDomains[name]
			r.Ops = append(r.Ops, Op{Kind: DropDomain, Schema: schemaName, Name: name, Domain: d})
		}
	}
}

func domainsDiffer(a, b *catalog.Domain) bool {
	return !a.BaseType.Equal(b.BaseType) ||
		a.NotNull != b.NotNull ||
		ptrStrDiffer(a.Default, b.Default) ||
		a.CheckExpr != b.CheckExpr
}

func schemaDomains(s *catalog.Schema) map[string]*catalog.Domain {
	if s == nil {
		return map[string]*catalog.Domain{}
	}
	return s.Domains
}

func ptrStrDiffer(a, b *string) bool {
	if a == nil || b == nil {
		return a != b
	}
	return *a != *b
}

func diffSequences(schemaName string, cur, tgt *catalog.Schema, opts Options, r *Result) {
	curSeqs := schemaSequences(cur)
	tgtSeqs := schemaSequences(tgt)

	for _, name := range sortedKeys(tgtSeqs) {
		t := tgtSeqs[name]
		c, existed := curSeqs[name]
		if !existed {
			s := t
			r.Ops = append(r.Ops, Op{Kind: CreateSequence, Schema: schemaName, Name: name, Sequence: s})
			continue
		}
		if sequencesDiffer(c, t) {
			s := t
			r.Ops = append(r.Ops, Op{Kind: AlterSequence, Schema: schemaName, Name: name, Sequence: s})
		}
		if opts.ManageOwnership && c.Owner != t.Owner && t.Owner != "" {
			r.Ops = append(r.Ops, Op{Kind: AlterOwner, Schema: schemaName, Name: name, OwnerKind: "sequence", NewOwner: t.Owner})
		}
	}
	for _, name := range sortedKeys(curSeqs) {
		if _, ok := tgtSeqs[name]; !ok {
			s := curSeqs[name]
			r.Ops = append(r.Ops, Op{Kind: DropSequence, Schema: schemaName, Name: name, Sequence: s})
		}
	}
}

func sequencesDiffer(a, b *catalog.Sequence) bool {
	return a.StartValue != b.StartValue ||
		a.Increment != b.Increment ||
		a.MinValue != b.MinValue ||
		a.MaxValue != b.MaxValue ||
		a.CacheSize != b.CacheSize ||
		a.Cycle != b.Cycle ||
		a.OwnedByTable != b.OwnedByTable ||
		a.OwnedByColumn != b.OwnedByColumn
}

func schemaSequences(s *catalog.Schema) map[string]*catalog.Sequence {
	if s == nil {
		return map[string]*catalog.Sequence{}
	}
	return s.Sequences
}
