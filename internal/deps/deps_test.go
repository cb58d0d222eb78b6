package deps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	results := CheckBinaries([]Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary", Stages: []string{"video", "mix"}},
	})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Available() || results[0].Path != present {
		t.Fatalf("expected present binary to resolve, got %#v", results[0])
	}
	if results[1].Available() || results[1].Satisfied() {
		t.Fatalf("expected missing binary to block, got %#v", results[1])
	}
	if !strings.Contains(results[1].Detail, "needed by video, mix") {
		t.Fatalf("detail should name the stages: %q", results[1].Detail)
	}
	if missing := Missing(results); len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("Missing = %#v", missing)
	}
}

func TestCheckBinariesEmptyCommand(t *testing.T) {
	results := CheckBinaries([]Requirement{{Name: "uvx", Command: "  ", Optional: true}})
	if len(results) != 1 || results[0].Available() || results[0].Detail != "command not configured" {
		t.Fatalf("unexpected result: %#v", results)
	}
	if !results[0].Satisfied() {
		t.Fatal("optional requirement should not block")
	}
	if len(Missing(results)) != 0 {
		t.Fatal("optional requirement reported as missing")
	}
}
