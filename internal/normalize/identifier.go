package normalize

import "strings"

// Identifier canonicalizes a possibly-quoted SQL identifier: surrounding
// double quotes are always stripped and the quoted text keeps its case;
// unquoted identifiers are lowercased. The canonical form never keeps
// quotes, not even for keywords or mixed-case names (the emitter quotes
// every identifier it writes).
func Identifier(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		inner := raw[1 : len(raw)-1]
		if inner == strings.ToLower(inner) && !isReservedKeyword(inner) {
			return inner
		}
		return inner // mixed-case or keyword-colliding: keep case, drop quotes from our canonical form (re-quoted on emit)
	}
	return strings.ToLower(raw)
}

// SchemaOrDefault returns name's schema, defaulting to "public" when
// the source omitted one (spec §4.2 item 1).
func SchemaOrDefault(schema string) string {
	if schema == "" {
		return "public"
	}
	return schema
}

// reservedKeywords is not exhaustive — it covers the identifiers most
// likely to appear unquoted in hand-written schema SQL where quoting
// would otherwise be dropped incorrectly.
var reservedKeywords = map[string]bool{
	"user": true, "order": true, "group": true, "table": true, "column": true,
	"select": true, "where": true, "primary": true, "references": true,
	"check": true, "default": true, "unique": true, "grant": true, "role": true,
}

func isReservedKeyword(s string) bool {
	return reservedKeywords[strings.ToLower(s)]
}
