package normalize

import (
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Expression parses a free-standing SQL expression (a CHECK predicate,
// a column default, a partial-index WHERE clause, a policy USING or
// WITH CHECK clause, a trigger WHEN condition) into PostgreSQL's real
// AST and re-prints it in canonical form. Spec §9 and §4.2 item 3
// forbid regex-level expression equality; this is the "parser as
// normalizer" strategy grounded on the teacher's own
// RawStmt{Stmt: node} + Deparse idiom (internal/ir/parser.go's
// extractViewDefinitionFromAST), applied here to bare expressions by
// wrapping them in a throwaway SELECT and stripping it back off.
func Expression(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	parsed, err := pg_query.Parse("SELECT " + raw + " AS pgdrift_normalize_target")
	if err != nil {
		// Not every fragment round-trips through a bare SELECT (e.g. a
		// DEFAULT of just a string literal does). Fall back to
		// whitespace normalization rather than failing the whole diff
		// over a fragment the parser can't stand alone.
		return collapseWhitespace(raw), nil
	}

	out, err := pg_query.Deparse(parsed)
	if err != nil {
		return collapseWhitespace(raw), nil
	}

	out = strings.TrimPrefix(out, "SELECT ")
	out = strings.TrimSuffix(out, " AS pgdrift_normalize_target")
	return stripRedundantParens(out), nil
}

// Query parses and re-deparses a full SELECT (a view body) so two
// textually different but semantically identical queries compare
// equal. Deliberately does NOT expand `SELECT *` — spec §4.2 item 3
// documents that as non-convergence, not a bug: a view defined with
// `*` in source will still diff against PostgreSQL's column-expanded
// introspected form.
func Query(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	parsed, err := pg_query.Parse(raw)
	if err != nil {
		return collapseWhitespace(raw), nil
	}
	out, err := pg_query.Deparse(parsed)
	if err != nil {
		return collapseWhitespace(raw), nil
	}
	return out, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// stripRedundantParens removes one layer of fully-enclosing
// parentheses left over from the SELECT-wrapping trick, while
// preserving precedence-required inner parens (spec §4.2 item 3).
func stripRedundantParens(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return s
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return s // the opening paren closes before the end: not fully enclosing
			}
		}
	}
	return strings.TrimSpace(s[1 : len(s)-1])
}
