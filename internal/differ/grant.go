package differ

import "github.com/pgdrift/pgdrift/internal/catalog"

// diffGrants compares two grant lists and emits GrantPrivileges /
// RevokePrivileges ops for each grantee whose privilege set changed: a
// GrantPrivileges op for added privileges and a RevokePrivileges op for
// removed ones, so one grantee can get both.
// Grants for excluded (e.g. cloud-managed master) roles are skipped
// entirely (spec §6.4 exclude_grants_for_role).
func diffGrants(objectKind, schemaName, objectName string, cur, tgt []catalog.Grant, opts Options, r *Result) {
	curMap := grantMap(cur)
	tgtMap := grantMap(tgt)

	for grantee, tgtPrivs := range tgtMap {
		if opts.ExcludedGrantRoles[grantee] {
			continue
		}
		curPrivs, existed := curMap[grantee]
		if !existed {
			r.Ops = append(r.Ops, Op{
				Kind: GrantPrivileges, Schema: schemaName, Name: objectName,
				OwnerKind: objectKind, Grantee: grantee, Privileges: tgtPrivs.Privileges, WithGrant: tgtPrivs.WithGrantOption,
			})
			continue
		}
		added := setSubtract(tgtPrivs.Privileges, curPrivs.Privileges)
		removed := setSubtract(curPrivs.Privileges, tgtPrivs.Privileges)
		if len(added) > 0 {
			r.Ops = append(r.Ops, Op{
				Kind: GrantPrivileges, Schema: schemaName, Name: objectName,
				OwnerKind: objectKind, Grantee: grantee, Privileges: added, WithGrant: tgtPrivs.WithGrantOption,
			})
		}
		if len(removed) > 0 {
			r.Ops = append(r.Ops, Op{
				Kind: RevokePrivileges, Schema: schemaName, Name: objectName,
				OwnerKind: objectKind, Grantee: grantee, Privileges: removed,
			})
		}
	}
	for grantee, curPrivs := range curMap {
		if opts.ExcludedGrantRoles[grantee] {
			continue
		}
		if _, ok := tgtMap[grantee]; !ok {
			r.Ops = append(r.Ops, Op{
				Kind: RevokePrivileges, Schema: schemaName, Name: objectName,
				OwnerKind: objectKind, Grantee: grantee, Privileges: curPrivs.Privileges,
			})
		}
	}
}

func grantMap(grants []catalog.Grant) map[string]catalog.Grant {
	m := make(map[string]catalog.Grant, len(grants))
	for _, g := range grants {
		m[g.Grantee] = g
	}
	return m
}

func setSubtract(a, b []string) []string {
	bSet := toSet(b)
	var out []string
	for _, x := range a {
		if !bSet[x] {
			out = append(out, x)
		}
	}
	return out
}
