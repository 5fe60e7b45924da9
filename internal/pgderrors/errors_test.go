package pgderrors

import (
	"errors"
	"strings"
	"testing"
)

func TestNewHasNoWrappedCause(t *testing.T) {
	err := New(Validation, "schema drifted since plan was computed")
	if err.Unwrap() != nil {
		t.Error("expected New to produce no wrapped cause")
	}
	if !strings.Contains(err.Error(), "validation") || !strings.Contains(err.Error(), "schema drifted") {
		t.Errorf("unexpected error text: %q", err.Error())
	}
}

func TestNewf(t *testing.T) {
	err := Newf(InvalidFilter, "pattern %q matches no known table", "widgit_*")
	if !strings.Contains(err.Error(), `pattern "widgit_*" matches no known table`) {
		t.Errorf("unexpected formatted message: %q", err.Error())
	}
}

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(Introspection, cause, "connect to target database")
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected the cause's message to appear, got: %q", err.Error())
	}
}

func TestNewExecutionCarriesApplyDetail(t *testing.T) {
	cause := errors.New(`relation "widgets" does not exist`)
	err := NewExecution(3, "ALTER TABLE widgets ADD COLUMN sku text;", `relation "widgets" does not exist`, cause)

	if err.Kind != Execution {
		t.Errorf("expected Execution kind, got %v", err.Kind)
	}
	if err.StmtIndex != 3 {
		t.Errorf("expected StmtIndex 3, got %d", err.StmtIndex)
	}
	if err.SQL != "ALTER TABLE widgets ADD COLUMN sku text;" {
		t.Errorf("unexpected SQL: %q", err.SQL)
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the wrapped cause")
	}
}

func TestKindStringTaxonomy(t *testing.T) {
	cases := map[Kind]string{
		Parse:              "parse",
		Introspection:      "introspection",
		DuplicateEntity:    "duplicate_entity",
		DanglingReference:  "dangling_reference",
		InvalidFilter:      "invalid_filter",
		IncompatibleChange: "incompatible_change",
		Validation:         "validation",
		Execution:          "execution",
		LintFailed:         "lint_failed",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}
