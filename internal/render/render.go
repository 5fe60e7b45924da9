// Package render formats an emitted plan for terminal output in the
// Terraform-style "N to add, N to modify, N to drop" summary the
// teacher's internal/plan package produces, reusing internal/color
// for the add/change/destroy palette.
package render

import (
	"fmt"
	"strings"

	"github.com/pgdrift/pgdrift/internal/color"
	"github.com/pgdrift/pgdrift/internal/differ"
	"github.com/pgdrift/pgdrift/internal/emitter"
	"github.com/pgdrift/pgdrift/internal/lint"
)

// action classifies an op's effect for plan-line coloring.
func action(kind differ.OpKind) string {
	s := string(kind)
	switch {
	case strings.HasPrefix(s, "Create") || strings.HasPrefix(s, "Add") || strings.HasPrefix(s, "Grant"):
		return "add"
	case strings.HasPrefix(s, "Drop") || strings.HasPrefix(s, "Revoke"):
		return "drop"
	default:
		return "change"
	}
}

// Plan renders the full human-readable plan: one line per statement,
// a summary count, and any lint findings, colorized when enabled.
func Plan(stmts []emitter.Statement, findings []lint.Result, colorEnabled bool) string {
	c := color.New(colorEnabled)
	var b strings.Builder

	added, modified, dropped := 0, 0, 0
	for _, st := range stmts {
		act := action(st.Op.Kind)
		switch act {
		case "add":
			added++
		case "drop":
			dropped++
		default:
			modified++
		}
		fmt.Fprintln(&b, c.FormatPlanLine(c.PlanSymbol(act), st.ObjectType, st.ObjectPath, act))
		fmt.Fprintf(&b, "    %s\n", st.SQL)
	}

	if len(findings) > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, c.Bold("Lint findings:"))
		for _, f := range findings {
			label := c.Change(string(f.Severity))
			if f.Severity == lint.Error {
				label = c.Destroy(string(f.Severity))
			}
			fmt.Fprintf(&b, "  [%s] %s: %s\n", label, f.Rule, f.Message)
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, c.FormatPlanHeader(added, modified, dropped))
	return b.String()
}
