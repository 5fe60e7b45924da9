package differ

import (
	"sort"

	"github.com/pgdrift/pgdrift/internal/catalog"
)

// Options is the configuration bag of spec §4.3.
type Options struct {
	ManageOwnership         bool
	ManageGrants            bool
	ExcludedGrantRoles      map[string]bool
	IncludeExtensionObjects bool
	AllowDestructive        bool
}

// Diff compares two normalized catalogs and returns the unordered op
// multiset plus dependency edges. current/target must already have
// passed through normalize.Catalog.
func Diff(current, target *catalog.Catalog, opts Options) (*Result, error) {
	r := &Result{}

	diffSchemas(current, target, opts, r)
	diffExtensions(current, target, opts, r)

	for _, schemaName := range unionSchemaNames(current, target) {
		curSchema := current.Schemas[schemaName]
		tgtSchema := target.Schemas[schemaName]

		diffEnums(schemaName, curSchema, tgtSchema, opts, r)
		diffDomains(schemaName, curSchema, tgtSchema, opts, r)
		diffSequences(schemaName, curSchema, tgtSchema, opts, r)
		diffTables(schemaName, curSchema, tgtSchema, opts, r)
		diffFunctions(schemaName, curSchema, tgtSchema, opts, r)
		diffViews(schemaName, curSchema, tgtSchema, opts, r)
		diffDefaultPrivileges(schemaName, curSchema, tgtSchema, opts, r)
	}

	if err := discoverASTDependencies(target, r); err != nil {
		return nil, err
	}

	return r, nil
}

func unionSchemaNames(current, target *catalog.Catalog) []string {
	seen := make(map[string]bool)
	for name := range current.Schemas {
		seen[name] = true
	}
	for name := range target.Schemas {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func diffSchemas(current, target *catalog.Catalog, opts Options, r *Result) {
	curNames := current.SortedSchemaNames()
	tgtNames := target.SortedSchemaNames()
	curSet := toSet(curNames)
	tgtSet := toSet(tgtNames)

	for _, name := range tgtNames {
		if !curSet[name] {
			r.Ops = append(r.Ops, Op{Kind: CreateSchema, Name: name})
		}
	}
	for _, name := range curNames {
		if !tgtSet[name] {
			r.Ops = append(r.Ops, Op{Kind: DropSchema, Name: name})
		}
	}
	if opts.ManageOwnership {
		for _, name := range tgtNames {
			if !curSet[name] {
				continue
			}
			cs, ts := current.Schemas[name], target.Schemas[name]
			if cs.Owner != ts.Owner && ts.Owner != "" {
				r.Ops = append(r.Ops, Op{Kind: AlterSchemaOwner, Name: name, OwnerKind: "schema", NewOwner: ts.Owner})
			}
		}
	}
}

func diffExtensions(current, target *catalog.Catalog, opts Options, r *Result) {
	for name, ext := range target.Extensions {
		if _, ok := current.Extensions[name]; !ok {
			e := ext
			r.Ops = append(r.Ops, Op{Kind: CreateExtension, Name: name, Extension: e})
		}
	}
	for name, ext := range current.Extensions {
		if _, ok := target.Extensions[name]; !ok {
			e := ext
			r.Ops = append(r.Ops, Op{Kind: DropExtension, Name: name, Extension: e})
		}
	}
}

func diffEnums(schemaName string, cur, tgt *catalog.Schema, opts Options, r *Result) {
	curEnums := schemaEnums(cur)
	tgtEnums := schemaEnums(tgt)

	for _, name := range sortedKeys(tgtEnums) {
		tgtEnum := tgtEnums[name]
		curEnum, existed := curEnums[name]
		if !existed {
			e := tgtEnum
			r.Ops = append(r.Ops, Op{Kind: CreateEnum, Schema: schemaName, Name: name, Enum: e})
			continue
		}
		if added, ok := appendOnlyDiff(curEnum.Labels, tgtEnum.Labels); ok {
			for _, v := range added {
				r.Ops = append(r.Ops, Op{
					Kind: AddEnumValue, Schema: schemaName, Name: name,
					EnumValue: v,
				})
			}
		} else if !stringSliceEqual(curEnum.Labels, tgtEnum.Labels) {
			// Reorder or removal: always destructive (open question #1
			// decision recorded in SPEC_FULL.md / DESIGN.md).
			oldE, newE := curEnum, tgtEnum
			r.Ops = append(r.Ops, Op{Kind: DropEnum, Schema: schemaName, Name: name, Enum: oldE, RewriteGroup: schemaName + "." + name})
			r.Ops = append(r.Ops, Op{Kind: CreateEnum, Schema: schemaName, Name: name, Enum: newE, RewriteGroup: schemaName + "." + name})
		}
	}
	for _, name := range sortedKeys(curEnums) {
		if _, ok := tgtEnums[name]; !ok {
			e := curEnums[name]
			r.Ops = append(r.Ops, Op{Kind: DropEnum, Schema: schemaName, Name: name, Enum: e})
		}
	}
}

// appendOnlyDiff reports whether newLabels is oldLabels with zero or
// more values appended/inserted, and if so which values are new and
// where (before/after anchors), matching spec §3's "appending is
// non-destructive" rule.
func appendOnlyDiff(old, new []string) ([]*EnumValueChange, bool) {
	oldSet := toSet(old)
	var added []*EnumValueChange
	oi := 0
	for ni, v := range new {
		if oldSet[v] {
			continue
		}
		change := &EnumValueChange{Value: v}
		if ni+1 < len(new) && oldSet[new[ni+1]] {
			change.Before = new[ni+1]
		} else if ni > 0 {
			change.After = new[ni-1]
		} else {
			change.Append = true
		}
		added = append(added, change)
	}
	// Verify the remaining (non-added) sequence in new matches old's order.
	var filtered []string
	for _, v := range new {
		if oldSet[v] {
			filtered = append(filtered, v)
		}
	}
	if !stringSliceEqual(old, filtered) {
		return nil, false
	}
	_ = oi
	return added, true
}

func schemaEnums(s *catalog.Schema) map[string]*catalog.EnumType {
	if s == nil {
		return map[string]*catalog.EnumType{}
	}
	return s.Enums
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func toSet(xs []string) map[string]bool {
	m := make(map[string]bool, len(xs))
	for _, x := range xs {
		m[x] = true
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
