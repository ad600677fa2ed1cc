package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

const customPolicy = `# description: forbids module signing being disabled
package autokernel.hardening.module_sig

import rego.v1

deny contains violation if {
	value := input.symbols.MODULE_SIG
	value != "y"
	violation := {
		"message": "MODULE_SIG should be enabled",
		"severity": "error",
		"symbol": "MODULE_SIG",
	}
}
`

func TestLoader_LoadFromPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "module-sig.rego")
	if err := os.WriteFile(path, []byte(customPolicy), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-rego files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	policies, err := NewLoader(zerolog.Nop()).LoadFromPaths(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("LoadFromPaths: %v", err)
	}

	if len(policies) != 1 {
		t.Fatalf("Expected 1 policy, got %d", len(policies))
	}
	p := policies[0]
	if p.Name != "module-sig" {
		t.Errorf("Expected name module-sig, got %q", p.Name)
	}
	if p.Description != "forbids module signing being disabled" {
		t.Errorf("Unexpected description: %q", p.Description)
	}
	if !p.Enabled || p.Severity != SeverityError {
		t.Errorf("Unexpected defaults: %+v", p)
	}
}

func TestLoader_MissingPath(t *testing.T) {
	_, err := NewLoader(zerolog.Nop()).LoadFromPaths(context.Background(),
		[]string{filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Error("Expected an error for a missing path")
	}
}

func TestEngine_LoadCustomPolicy(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "module-sig.rego"), []byte(customPolicy), 0o644); err != nil {
		t.Fatal(err)
	}

	e := newTestEngine(t)
	if err := e.LoadPolicies(context.Background(), []string{dir}); err != nil {
		t.Fatalf("LoadPolicies: %v", err)
	}

	result, err := e.Evaluate(context.Background(), map[string]string{
		"MODULE_SIG": "n",
	}, nil)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if result.Passed {
		t.Error("Expected custom policy to fail the check")
	}
	if got := violationSymbols(result); got["MODULE_SIG"] != SeverityError {
		t.Errorf("Expected MODULE_SIG violation, got %v", got)
	}
}
