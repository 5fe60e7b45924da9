package render

import (
	"strings"
	"testing"

	"github.com/pgdrift/pgdrift/internal/differ"
	"github.com/pgdrift/pgdrift/internal/emitter"
	"github.com/pgdrift/pgdrift/internal/lint"
)

func TestPlanCountsAddChangeDrop(t *testing.T) {
	stmts := []emitter.Statement{
		{SQL: "CREATE TABLE public.widgets (id integer);", ObjectType: "table", ObjectPath: "public.widgets", Op: differ.Op{Kind: differ.CreateTable}},
		{SQL: "DROP TABLE public.old_widgets;", ObjectType: "table", ObjectPath: "public.old_widgets", Op: differ.Op{Kind: differ.DropTable}},
		{SQL: "ALTER TABLE public.widgets ADD COLUMN sku text;", ObjectType: "column", ObjectPath: "public.widgets.sku", Op: differ.Op{Kind: differ.AddColumn}},
	}
	out := Plan(stmts, nil, false)

	// CreateTable and AddColumn both classify as "add" (action() keys off
	// the "Create"/"Add"/"Grant" OpKind prefixes), so two ops land in the
	// add bucket and one in drop.
	if !strings.Contains(out, "2 to add") {
		t.Errorf("expected summary to report 2 to add, got: %s", out)
	}
	if !strings.Contains(out, "1 to drop") {
		t.Errorf("expected summary to report 1 to drop, got: %s", out)
	}
	if !strings.Contains(out, "public.widgets.sku") {
		t.Errorf("expected the add-column statement's object path to appear, got: %s", out)
	}
}

func TestPlanWithNoColorOmitsEscapeCodes(t *testing.T) {
	stmts := []emitter.Statement{
		{SQL: "DROP TABLE public.widgets;", ObjectType: "table", ObjectPath: "public.widgets", Op: differ.Op{Kind: differ.DropTable}},
	}
	out := Plan(stmts, nil, false)
	if strings.Contains(out, "\033[") {
		t.Errorf("expected no ANSI escape codes when colorEnabled is false, got: %q", out)
	}
}

func TestPlanRendersLintFindings(t *testing.T) {
	findings := []lint.Result{
		{Rule: "deny_drop_table", Severity: lint.Error, Message: "dropping public.widgets requires --allow-destructive"},
	}
	out := Plan(nil, findings, false)
	if !strings.Contains(out, "deny_drop_table") {
		t.Errorf("expected the lint rule name to appear, got: %s", out)
	}
	if !strings.Contains(out, "dropping public.widgets requires --allow-destructive") {
		t.Errorf("expected the lint message to appear, got: %s", out)
	}
}

func TestPlanEmptyStillPrintsHeader(t *testing.T) {
	out := Plan(nil, nil, false)
	if !strings.Contains(out, "Plan:") {
		t.Errorf("expected a Plan: header even with no statements, got: %s", out)
	}
	if !strings.Contains(out, "0 to add") || !strings.Contains(out, "0 to drop") {
		t.Errorf("expected all-zero counts, got: %s", out)
	}
}
