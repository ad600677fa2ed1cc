package kconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSnapshot = `
symbols:
  - name: INET
    type: tristate
  - name: NET
    type: tristate
    depends:
      - symbol: INET
        required: true
  - name: EXPERT
    type: bool
    value: y
  - name: WLAN
    type: tristate
    depends:
      - symbol: NET
        required: true
      - symbol: EXPERT
        required: false
  - name: HOSTNAME
    type: string
    value: "(none)"
  - name: HZ
    type: int
    value: "250"
    settable: ["100", "250", "1000"]
`

func parseTestSnapshot(t *testing.T) *SnapshotOracle {
	t.Helper()
	o, err := ParseSnapshot(strings.NewReader(testSnapshot))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	return o
}

func mustLookup(t *testing.T, o *SnapshotOracle, name string) Symbol {
	t.Helper()
	sym, err := o.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%s): %v", name, err)
	}
	return sym
}

func TestSnapshotOracle_Lookup(t *testing.T) {
	o := parseTestSnapshot(t)

	sym := mustLookup(t, o, "NET")
	if sym.Name() != "NET" || sym.Type() != TypeTristate {
		t.Errorf("Unexpected symbol: %s/%s", sym.Name(), sym.Type())
	}

	// Handles are stable across lookups; the engine memoizes by identity.
	again := mustLookup(t, o, "NET")
	if sym != again {
		t.Error("Expected identical handle for repeated lookups")
	}

	_, err := o.Lookup("MISSING")
	var unknown *UnknownSymbolError
	if !errors.As(err, &unknown) || unknown.Name != "MISSING" {
		t.Errorf("Expected UnknownSymbolError for MISSING, got: %v", err)
	}
}

func TestSnapshotOracle_DependencyPairs(t *testing.T) {
	o := parseTestSnapshot(t)
	wlan := mustLookup(t, o, "WLAN")

	if o.DirectDepSatisfied(wlan) {
		t.Error("Expected WLAN deps unsatisfied initially (NET=n, EXPERT=y)")
	}

	pairs := o.RequiredDeps(wlan)
	if len(pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].Symbol.Name() != "NET" || !pairs[0].Required {
		t.Errorf("Unexpected first pair: %+v", pairs[0])
	}
	if pairs[1].Symbol.Name() != "EXPERT" || pairs[1].Required {
		t.Errorf("Unexpected second pair: %+v", pairs[1])
	}

	// Satisfy both legs and re-check.
	o.SetValue(mustLookup(t, o, "NET"), "y")
	o.SetValue(mustLookup(t, o, "EXPERT"), "n")
	if !o.DirectDepSatisfied(wlan) {
		t.Error("Expected WLAN deps satisfied after NET=y, EXPERT=n")
	}
}

func TestSnapshotOracle_SetValue(t *testing.T) {
	o := parseTestSnapshot(t)

	// Bool symbols promote m to y; readback differs from the request.
	expert := mustLookup(t, o, "EXPERT")
	if !o.SetValue(expert, "m") {
		t.Fatal("Expected bool set m to be accepted")
	}
	if got := o.Value(expert); got != "y" {
		t.Errorf("Expected m promoted to y, got %q", got)
	}
	if o.SetValue(expert, "250") {
		t.Error("Expected non-tristate value rejected for bool symbol")
	}

	// Settable lists reject values outside the range.
	hz := mustLookup(t, o, "HZ")
	if o.SetValue(hz, "300") {
		t.Error("Expected 300 rejected for HZ")
	}
	if !o.SetValue(hz, "1000") {
		t.Error("Expected 1000 accepted for HZ")
	}

	// String symbols take anything.
	hostname := mustLookup(t, o, "HOSTNAME")
	if !o.SetValue(hostname, "box") || o.Value(hostname) != "box" {
		t.Errorf("Expected hostname set, got %q", o.Value(hostname))
	}
}

func TestSnapshotOracle_MergeAndReference(t *testing.T) {
	o := parseTestSnapshot(t)
	dir := t.TempDir()

	merge := filepath.Join(dir, "merge.config")
	if err := os.WriteFile(merge, []byte("CONFIG_NET=m\nCONFIG_UNRELATED=y\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := o.MergeValueFile(merge); err != nil {
		t.Fatalf("MergeValueFile: %v", err)
	}
	if got := o.Value(mustLookup(t, o, "NET")); got != "m" {
		t.Errorf("Expected NET=m after merge, got %q", got)
	}

	// Loading reference values resets state before merging the file.
	ref := filepath.Join(dir, "ref.config")
	if err := os.WriteFile(ref, []byte("CONFIG_INET=y\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := o.LoadReferenceValues(ref); err != nil {
		t.Fatalf("LoadReferenceValues: %v", err)
	}
	if got := o.Value(mustLookup(t, o, "NET")); got != "n" {
		t.Errorf("Expected NET reset to default n, got %q", got)
	}
	if got := o.Value(mustLookup(t, o, "INET")); got != "y" {
		t.Errorf("Expected INET=y from reference, got %q", got)
	}
}

func TestSnapshotOracle_WriteConfig(t *testing.T) {
	o := parseTestSnapshot(t)
	o.SetValue(mustLookup(t, o, "NET"), "m")

	var sb strings.Builder
	if err := o.WriteConfig(&sb, "# header\n"); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	out := sb.String()
	if !strings.HasPrefix(out, "# header\n") {
		t.Errorf("Expected header first, got:\n%s", out)
	}
	for _, want := range []string{
		"# CONFIG_INET is not set\n",
		"CONFIG_NET=m\n",
		"CONFIG_EXPERT=y\n",
		"CONFIG_HOSTNAME=\"(none)\"\n",
		"CONFIG_HZ=250\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}

	// Declaration order is preserved.
	if strings.Index(out, "INET") > strings.Index(out, "CONFIG_NET=") {
		t.Errorf("Expected INET before NET:\n%s", out)
	}
}

func TestParseSnapshot_Errors(t *testing.T) {
	cases := map[string]string{
		"duplicate symbol": `
symbols:
  - name: NET
  - name: NET
`,
		"unknown dependency": `
symbols:
  - name: NET
    depends:
      - symbol: MISSING
        required: true
`,
		"empty name": `
symbols:
  - type: tristate
`,
	}
	for name, snapshot := range cases {
		if _, err := ParseSnapshot(strings.NewReader(snapshot)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
