package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rheehot/autokernel/pkg/detect"
	"github.com/rheehot/autokernel/pkg/kconfig"
)

const detectTestSnapshot = `
symbols:
  - name: INET
    type: tristate
    value: "n"
  - name: NET
    type: tristate
    value: "n"
    depends:
      - symbol: INET
        required: true
`

const detectTestCatalog = `
entries:
  - subsystem: pci
    match: "pci:v00008086*"
    options: [NET]
`

// A dependency the reference file already satisfies must still show up in
// the detected graph and its report. The graph is built against snapshot
// defaults; the reference values are loaded only afterwards.
func TestDetectedReport_ReferenceSatisfiedDependencySurvives(t *testing.T) {
	oracle, err := kconfig.ParseSnapshot(strings.NewReader(detectTestSnapshot))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	catalog, err := detect.ParseCatalog(strings.NewReader(detectTestCatalog))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}

	sysRoot := t.TempDir()
	devDir := filepath.Join(sysRoot, "bus", "pci", "devices", "0000:00:1f.6")
	if err := os.MkdirAll(devDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(devDir, "modalias"), []byte("pci:v00008086d0000156F\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	refPath := filepath.Join(t.TempDir(), "reference.config")
	if err := os.WriteFile(refPath, []byte("CONFIG_INET=y\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	source := detect.NewDetectorAt(sysRoot, zerolog.Nop())
	matcher := detect.NewMatcher(oracle, catalog, source, zerolog.Nop())

	graph, report, err := detectedReport(context.Background(), oracle, matcher, refPath)
	if err != nil {
		t.Fatalf("detectedReport: %v", err)
	}

	if _, ok := graph.Module("config_inet"); !ok {
		t.Errorf("Expected dependency module config_inet in the graph, have %d modules", graph.Len())
	}

	states := make(map[string]detect.MatchState)
	for _, st := range report {
		states[st.Symbol] = st.State
	}
	if states["INET"] != detect.StateMatch {
		t.Errorf("Expected INET reported as %s, got %q", detect.StateMatch, states["INET"])
	}
	if states["NET"] != detect.StateMismatch {
		t.Errorf("Expected NET reported as %s, got %q", detect.StateMismatch, states["NET"])
	}
}
