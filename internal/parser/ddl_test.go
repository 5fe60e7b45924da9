package parser

import (
	"testing"

	"github.com/pgdrift/pgdrift/internal/catalog"
)

func mustParse(t *testing.T, sql string) *catalog.Catalog {
	t.Helper()
	cat, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return cat
}

func TestParseCreateSequence(t *testing.T) {
	cat := mustParse(t, `CREATE SEQUENCE public.order_seq START WITH 100 INCREMENT BY 5 CYCLE;`)
	seq, ok := cat.Schemas["public"].Sequences["order_seq"]
	if !ok {
		t.Fatal("expected order_seq to be parsed")
	}
	if seq.StartValue != 100 || seq.Increment != 5 || !seq.Cycle {
		t.Errorf("unexpected sequence options: %+v", seq)
	}
}

func TestParseCreateEnum(t *testing.T) {
	cat := mustParse(t, `CREATE TYPE public.order_status AS ENUM ('pending', 'shipped', 'cancelled');`)
	enum, ok := cat.Schemas["public"].Enums["order_status"]
	if !ok {
		t.Fatal("expected order_status enum to be parsed")
	}
	want := []string{"pending", "shipped", "cancelled"}
	if len(enum.Labels) != len(want) {
		t.Fatalf("got %v, want %v", enum.Labels, want)
	}
	for i, w := range want {
		if enum.Labels[i] != w {
			t.Errorf("label %d: got %q, want %q", i, enum.Labels[i], w)
		}
	}
}

func TestParseCreateDomain(t *testing.T) {
	cat := mustParse(t, `CREATE DOMAIN public.positive_int AS integer NOT NULL CHECK (VALUE > 0);`)
	dom, ok := cat.Schemas["public"].Domains["positive_int"]
	if !ok {
		t.Fatal("expected positive_int domain to be parsed")
	}
	if !dom.NotNull {
		t.Error("expected NotNull to be true")
	}
	if dom.CheckExpr == "" {
		t.Error("expected a check expression to be captured")
	}
}

func TestParseCreateView(t *testing.T) {
	cat := mustParse(t, `CREATE VIEW public.active_widgets AS SELECT id FROM public.widgets WHERE active;`)
	view, ok := cat.Schemas["public"].Views["active_widgets"]
	if !ok {
		t.Fatal("expected active_widgets view to be parsed")
	}
	if view.Materialized {
		t.Error("expected a plain view, not materialized")
	}
	if view.Definition == "" {
		t.Error("expected the view definition to be deparsed")
	}
}

func TestParseCreateFunction(t *testing.T) {
	cat := mustParse(t, `
		CREATE FUNCTION public.add_one(n integer) RETURNS integer
		LANGUAGE sql IMMUTABLE STRICT AS $$ SELECT n + 1 $$;
	`)
	fn, ok := cat.Schemas["public"].Functions["add_one(Integer)"]
	if !ok {
		t.Fatalf("expected add_one(Integer) to be parsed, got functions: %v", cat.Schemas["public"].Functions)
	}
	if fn.Language != "sql" {
		t.Errorf("expected language sql, got %q", fn.Language)
	}
	if fn.Volatility != catalog.VolatilityImmutable {
		t.Errorf("expected immutable volatility, got %v", fn.Volatility)
	}
	if !fn.Strict {
		t.Error("expected strict to be true")
	}
	if len(fn.Arguments) != 1 || fn.Arguments[0].Name != "n" {
		t.Errorf("unexpected arguments: %+v", fn.Arguments)
	}
}

func TestParseCreateTriggerRequiresExistingTable(t *testing.T) {
	cat := mustParse(t, `
		CREATE TABLE public.widgets (id integer PRIMARY KEY);
		CREATE FUNCTION public.touch_widget() RETURNS trigger LANGUAGE plpgsql AS $$ BEGIN RETURN NEW; END; $$;
		CREATE TRIGGER widgets_touch BEFORE UPDATE ON public.widgets
		FOR EACH ROW EXECUTE FUNCTION public.touch_widget();
	`)
	table := cat.Schemas["public"].Tables["widgets"]
	trig, ok := table.Triggers["widgets_touch"]
	if !ok {
		t.Fatal("expected widgets_touch trigger to be parsed")
	}
	if trig.Timing != catalog.TriggerBefore {
		t.Errorf("expected BEFORE timing, got %v", trig.Timing)
	}
	if trig.ForEach != "row" {
		t.Errorf("expected row-level trigger, got %q", trig.ForEach)
	}
	found := false
	for _, ev := range trig.Events {
		if ev == catalog.EventUpdate {
			found = true
		}
	}
	if !found {
		t.Errorf("expected UPDATE event, got %v", trig.Events)
	}
}

func TestParseCreatePolicy(t *testing.T) {
	cat := mustParse(t, `
		CREATE TABLE public.widgets (id integer PRIMARY KEY, owner_id integer);
		CREATE POLICY widgets_owner_only ON public.widgets
		FOR SELECT TO app_user USING (owner_id = current_setting('app.user_id')::integer);
	`)
	table := cat.Schemas["public"].Tables["widgets"]
	pol, ok := table.Policies["widgets_owner_only"]
	if !ok {
		t.Fatal("expected widgets_owner_only policy to be parsed")
	}
	if pol.Command != catalog.PolicySelect {
		t.Errorf("expected SELECT command, got %v", pol.Command)
	}
	if !pol.Permissive {
		t.Error("expected a permissive policy")
	}
	if len(pol.Roles) != 1 || pol.Roles[0] != "app_user" {
		t.Errorf("unexpected roles: %v", pol.Roles)
	}
	if pol.Using == "" {
		t.Error("expected a USING expression to be captured")
	}
}

func TestParseGrant(t *testing.T) {
	cat := mustParse(t, `
		CREATE TABLE public.widgets (id integer PRIMARY KEY);
		GRANT SELECT, INSERT ON public.widgets TO app_user;
	`)
	table := cat.Schemas["public"].Tables["widgets"]
	if len(table.Grants) != 1 {
		t.Fatalf("expected one grant, got %d", len(table.Grants))
	}
	g := table.Grants[0]
	if g.Grantee != "app_user" {
		t.Errorf("expected grantee app_user, got %q", g.Grantee)
	}
	if len(g.Privileges) != 2 {
		t.Errorf("expected two privileges, got %v", g.Privileges)
	}
}

func TestParseRevokeIsIgnored(t *testing.T) {
	cat := mustParse(t, `
		CREATE TABLE public.widgets (id integer PRIMARY KEY);
		REVOKE SELECT ON public.widgets FROM app_user;
	`)
	table := cat.Schemas["public"].Tables["widgets"]
	if len(table.Grants) != 0 {
		t.Errorf("expected REVOKE to produce no grants, got %v", table.Grants)
	}
}
