// Package options defines the configuration surface cmd/pgdrift's
// plan/apply subcommands expose, grounded on original_source's
// options.rs builder struct. It applies internal/filter exclusions
// (ApplyFilter) and builds differ.Options (ToDifferOptions); it does
// not call internal/lint or internal/phases itself.
package options

import (
	"github.com/pgdrift/pgdrift/internal/catalog"
	"github.com/pgdrift/pgdrift/internal/differ"
	"github.com/pgdrift/pgdrift/internal/filter"
)

// PlanOptions configures how a Plan is computed: which schemas to
// read, which entities to filter out, and whether ownership/grant
// drift should be included at all.
type PlanOptions struct {
	TargetSchemas           []string
	Filter                  filter.Filter
	ManageOwnership         bool
	ManageGrants            bool
	ExcludeGrantsForRole    []string
	IncludeExtensionObjects bool
	ZeroDowntime            bool
	Reverse                 bool
}

// DefaultPlanOptions matches spec.md §6.4's defaults: schema "public",
// grant management on, everything else off until the caller opts in.
func DefaultPlanOptions() PlanOptions {
	return PlanOptions{
		TargetSchemas: []string{"public"},
		ManageGrants:  true,
	}
}

// ApplyOptions extends PlanOptions with the execution-time switches:
// whether destructive operations are allowed to run at all, and
// whether to stop short of executing anything.
type ApplyOptions struct {
	PlanOptions
	AllowDestructive bool
	DryRun           bool
}

// ApplyFilter prunes cat's tables, views, functions, sequences, and
// enum/domain types against f, returning a new catalog that the differ
// never sees the excluded entities of. Schemas absent from
// TargetSchemas are dropped outright before filtering.
func ApplyFilter(cat *catalog.Catalog, targetSchemas []string, f filter.Filter) *catalog.Catalog {
	out := catalog.New()
	wanted := toSet(targetSchemas)
	for name, schema := range cat.Schemas {
		if len(wanted) > 0 && !wanted[name] {
			continue
		}
		filtered := out.GetOrCreateSchema(name)
		filtered.Owner = schema.Owner
		filtered.Grants = schema.Grants
		filtered.DefaultPrivileges = schema.DefaultPrivileges

		for tname, t := range schema.Tables {
			if !f.ExcludesTable(tname) {
				filtered.Tables[tname] = t
			}
		}
		for vname, v := range schema.Views {
			if !f.ExcludesView(vname) {
				filtered.Views[vname] = v
			}
		}
		for sig, fn := range schema.Functions {
			if !f.ExcludesFunction(fn.Name) {
				filtered.Functions[sig] = fn
			}
		}
		for sname, s := range schema.Sequences {
			if !f.ExcludesSequence(sname) {
				filtered.Sequences[sname] = s
			}
		}
		for ename, e := range schema.Enums {
			if !f.ExcludesType(ename) {
				filtered.Enums[ename] = e
			}
		}
		for dname, d := range schema.Domains {
			if !f.ExcludesType(dname) {
				filtered.Domains[dname] = d
			}
		}
	}
	for name, ext := range cat.Extensions {
		out.Extensions[name] = ext
	}
	for child, parent := range cat.PartitionParents {
		out.PartitionParents[child] = parent
	}
	return out
}

// ToDifferOptions converts the CLI-facing PlanOptions into the
// differ's own Options shape; AllowDestructive comes from
// ApplyOptions, not PlanOptions, so callers pass it separately.
func (o PlanOptions) ToDifferOptions(allowDestructive bool) differ.Options {
	return differ.Options{
		ManageOwnership:         o.ManageOwnership,
		ManageGrants:            o.ManageGrants,
		ExcludedGrantRoles:      toSet(o.ExcludeGrantsForRole),
		IncludeExtensionObjects: o.IncludeExtensionObjects,
		AllowDestructive:        allowDestructive,
	}
}

func toSet(vals []string) map[string]bool {
	out := make(map[string]bool, len(vals))
	for _, v := range vals {
		out[v] = true
	}
	return out
}
