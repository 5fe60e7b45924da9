package differ

import "github.com/pgdrift/pgdrift/internal/catalog"

// diffFunctions: an AlterFunction is valid only when the signature,
// defaults, return type, strictness, security, volatility, and
// language all match (catalog.Function.CompatibleSignature) —
// otherwise Drop then Create (spec §4.3). Functions never key by name
// alone (invariant 6): map keys are "name(argtypes)".
func diffFunctions(schemaName string, cur, tgt *catalog.Schema, opts Options, r *Result) {
	curFns := schemaFunctions(cur)
	tgtFns := schemaFunctions(tgt)

	for _, sig := range sortedKeys(tgtFns) {
		t := tgtFns[sig]
		c, existed := curFns[sig]
		if !existed {
			fn := t
			r.Ops = append(r.Ops, Op{Kind: CreateFunction, Schema: schemaName, Name: sig, Function: fn})
			continue
		}
		if !c.CompatibleSignature(t) {
			oldFn, newFn := c, t
			group := schemaName + "." + sig
			r.Ops = append(r.Ops, Op{Kind: DropFunction, Schema: schemaName, Name: sig, Function: oldFn, RewriteGroup: group})
			r.Ops = append(r.Ops, Op{Kind: CreateFunction, Schema: schemaName, Name: sig, Function: newFn, RewriteGroup: group})
			continue
		}
		if functionBodyDiffers(c, t) {
			fn := t
			r.Ops = append(r.Ops, Op{Kind: AlterFunction, Schema: schemaName, Name: sig, Function: fn, OldFunction: c, BodyOnly: true})
		}
		if opts.ManageOwnership && c.Owner != t.Owner && t.Owner != "" {
			r.Ops = append(r.Ops, Op{Kind: AlterOwner, Schema: schemaName, Name: sig, OwnerKind: "function", NewOwner: t.Owner})
		}
		if opts.ManageGrants {
			diffGrants("function", schemaName, sig, c.Grants, t.Grants, opts, r)
		}
	}
	for _, sig := range sortedKeys(curFns) {
		if _, ok := tgtFns[sig]; !ok {
			fn := curFns[sig]
			r.Ops = append(r.Ops, Op{Kind: DropFunction, Schema: schemaName, Name: sig, Function: fn})
		}
	}
}

func functionBodyDiffers(a, b *catalog.Function) bool {
	if a.Body != b.Body {
		return true
	}
	if len(a.Config) != len(b.Config) {
		return true
	}
	for k, v := range a.Config {
		if b.Config[k] != v {
			return true
		}
	}
	return false
}

func schemaFunctions(s *catalog.Schema) map[string]*catalog.Function {
	if s == nil {
		return map[string]*catalog.Function{}
	}
	return s.Functions
}
