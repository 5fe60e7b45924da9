package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "nonexistent.pgdriftignore"))
	if err != nil {
		t.Fatalf("Load returned error for missing file: %v", err)
	}
	if !f.Empty() {
		t.Error("expected an empty filter for a missing ignore file")
	}
}

func TestLoadParsesPatterns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".pgdriftignore")
	content := `
[tables]
patterns = ["audit_*", "!audit_events"]

[views]
patterns = ["v_internal_*"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write ignore file: %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !f.ExcludesTable("audit_log") {
		t.Error("expected audit_log to be excluded")
	}
	if f.ExcludesTable("audit_events") {
		t.Error("expected audit_events to be re-included by the negation pattern")
	}
	if !f.ExcludesView("v_internal_stats") {
		t.Error("expected v_internal_stats to be excluded")
	}
	if f.ExcludesFunction("anything") {
		t.Error("functions have no patterns configured, nothing should be excluded")
	}
}
