package normalize

import (
	"regexp"
	"strings"
)

// castSuffix matches a trailing `::typename` or `::"Quoted"` cast.
var castSuffix = regexp.MustCompile(`::[A-Za-z_][A-Za-z0-9_."]*$`)

// DefaultValue canonicalizes a column DEFAULT expression per spec
// §4.2 item 4: for enum/domain/user-typed columns, strip the
// `::type` suffix PostgreSQL's introspection adds when that type
// matches the column's own type, but always preserve
// `nextval('seq'::regclass)` verbatim (the cast there is load-bearing,
// not redundant — regclass is how PostgreSQL resolves the sequence).
func DefaultValue(raw, columnTypeQualifiedName string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if strings.Contains(raw, "nextval(") {
		return Expression(raw)
	}

	normalized, err := Expression(raw)
	if err != nil {
		return "", err
	}

	if columnTypeQualifiedName == "" {
		return normalized, nil
	}

	if m := castSuffix.FindString(normalized); m != "" {
		castTo := strings.Trim(strings.TrimPrefix(m, "::"), `"`)
		if unqualifiedNameMatches(castTo, columnTypeQualifiedName) {
			return strings.TrimSuffix(normalized, m), nil
		}
	}
	return normalized, nil
}

func unqualifiedNameMatches(castTo, qualified string) bool {
	parts := strings.SplitN(qualified, ".", 2)
	name := qualified
	if len(parts) == 2 {
		name = parts[1]
	}
	return strings.EqualFold(castTo, name) || strings.EqualFold(castTo, qualified)
}
