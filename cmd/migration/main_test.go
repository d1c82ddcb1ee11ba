package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseSteps(t *testing.T) {
	if got, err := parseSteps(""); err != nil || got != 1 {
		t.Fatalf("expected default of 1 step, got %d (%v)", got, err)
	}
	if got, err := parseSteps(" 3 "); err != nil || got != 3 {
		t.Fatalf("expected 3 steps, got %d (%v)", got, err)
	}
	for _, raw := range []string{"0", "-2", "x"} {
		if _, err := parseSteps(raw); err == nil {
			t.Fatalf("expected error for steps %q", raw)
		}
	}
}

func TestParseVersionAndTarget(t *testing.T) {
	if got, err := parseVersion("1771776034"); err != nil || got != 1771776034 {
		t.Fatalf("unexpected version: %d (%v)", got, err)
	}
	if _, err := parseVersion("-1"); err == nil {
		t.Fatalf("expected error for negative version")
	}
	if _, err := parseTarget("-1"); err == nil {
		t.Fatalf("expected error for negative target")
	}
}

func TestResolveMigrationsDir(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveMigrationsDir(dir)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != dir {
		t.Fatalf("expected %q, got %q", dir, got)
	}

	file := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Chdir(dir)
	if _, err := resolveMigrationsDir(file); err == nil {
		t.Fatalf("expected error when no candidate is a directory")
	}
}
