package detect

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/rheehot/autokernel/pkg/engine"
	"github.com/rheehot/autokernel/pkg/kconfig"
)

type stubSource struct {
	components []Component
}

func (s *stubSource) Components(context.Context) ([]Component, error) {
	return s.components, nil
}

func testOracle(t *testing.T) *kconfig.SnapshotOracle {
	t.Helper()
	const snapshot = `
symbols:
  - name: INET
    type: tristate
  - name: NET
    type: tristate
    depends:
      - symbol: INET
        required: true
  - name: E1000E
    type: tristate
    depends:
      - symbol: NET
        required: true
  - name: USB_STORAGE
    type: tristate
`
	oracle, err := kconfig.ParseSnapshot(strings.NewReader(snapshot))
	if err != nil {
		t.Fatalf("ParseSnapshot: %v", err)
	}
	return oracle
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	const catalog = `
entries:
  - subsystem: pci
    match: "pci:v00008086d0000156F*"
    options: [E1000E]
  - subsystem: usb
    match: "usb:v0781*"
    options: [USB_STORAGE]
`
	c, err := ParseCatalog(strings.NewReader(catalog))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	return c
}

func TestMatcher_BuildGraph(t *testing.T) {
	source := &stubSource{components: []Component{
		{Subsystem: "usb", Modalias: "usb:v0781p5567d0100"},
		{Subsystem: "pci", Modalias: "pci:v00008086d0000156Fsv000017AA"},
		{Subsystem: "acpi", Modalias: "acpi:PNP0C0A:"},
	}}

	m := NewMatcher(testOracle(t), testCatalog(t), source, zerolog.Nop())
	graph, err := m.BuildGraph(context.Background())
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	// Components sort by canonical name: pci before usb; acpi had no
	// candidates and is skipped without consuming a sequence number.
	pciMod, ok := graph.Module("0000_pci_pci_v00008086d0000156fsv000017aa")
	if !ok {
		t.Fatalf("Expected pci module, have %v", moduleNames(graph))
	}
	usbMod, ok := graph.Module("0001_usb_usb_v0781p5567d0100")
	if !ok {
		t.Fatalf("Expected usb module, have %v", moduleNames(graph))
	}

	if len(graph.SelectAll.Deps) != 2 {
		t.Fatalf("Expected 2 selected modules, got %d", len(graph.SelectAll.Deps))
	}
	if graph.SelectAll.Deps[0] != pciMod || graph.SelectAll.Deps[1] != usbMod {
		t.Errorf("Unexpected select-all order: %v", moduleNames(graph))
	}

	// The pci module depends on the option module, which pulls its own
	// dependency chain E1000E -> NET (INET handled via builder recursion).
	if len(pciMod.Deps) != 1 || pciMod.Deps[0].Name != "config_e1000e" {
		t.Fatalf("Expected dep on config_e1000e, got %v", pciMod.Deps)
	}
	if _, ok := graph.Module("config_net"); !ok {
		t.Errorf("Expected transitive config_net module, have %v", moduleNames(graph))
	}
}

func TestMatcher_BuildGraph_NoCandidatesNoGraph(t *testing.T) {
	source := &stubSource{components: []Component{
		{Subsystem: "acpi", Modalias: "acpi:PNP0C0A:"},
	}}

	m := NewMatcher(testOracle(t), testCatalog(t), source, zerolog.Nop())
	graph, err := m.BuildGraph(context.Background())
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if graph.Len() != 0 {
		t.Errorf("Expected empty graph, got %v", moduleNames(graph))
	}
	if len(graph.SelectAll.Deps) != 0 {
		t.Errorf("Expected empty select-all, got %d deps", len(graph.SelectAll.Deps))
	}
}

func TestMatcher_BuildGraph_SharedOptionModule(t *testing.T) {
	source := &stubSource{components: []Component{
		{Subsystem: "usb", Modalias: "usb:v0781p0001"},
		{Subsystem: "usb", Modalias: "usb:v0781p0002"},
	}}

	m := NewMatcher(testOracle(t), testCatalog(t), source, zerolog.Nop())
	graph, err := m.BuildGraph(context.Background())
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	first, _ := graph.Module("0000_usb_usb_v0781p0001")
	second, _ := graph.Module("0001_usb_usb_v0781p0002")
	if first == nil || second == nil {
		t.Fatalf("Expected both component modules, have %v", moduleNames(graph))
	}
	if first.Deps[0] != second.Deps[0] {
		t.Errorf("Expected both components to share the option module")
	}
}

func TestCompareDetected(t *testing.T) {
	oracle := testOracle(t)
	source := &stubSource{components: []Component{
		{Subsystem: "pci", Modalias: "pci:v00008086d0000156Fsv000017AA"},
	}}

	graph, err := NewMatcher(oracle, testCatalog(t), source, zerolog.Nop()).BuildGraph(context.Background())
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}

	// Reference state: NET enabled as module, INET off, E1000E off.
	for name, value := range map[string]string{"NET": "m", "INET": "n"} {
		sym, err := oracle.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", name, err)
		}
		oracle.SetValue(sym, value)
	}

	report, err := CompareDetected(graph, oracle)
	if err != nil {
		t.Fatalf("CompareDetected: %v", err)
	}

	states := make(map[string]MatchState)
	var order []string
	for _, st := range report {
		states[st.Symbol] = st.State
		order = append(order, st.Symbol)
	}
	if states["NET"] != StateMixed {
		t.Errorf("Expected NET mixed (m vs y), got %s", states["NET"])
	}
	if states["INET"] != StateMismatch {
		t.Errorf("Expected INET mismatch, got %s", states["INET"])
	}
	if states["E1000E"] != StateMismatch {
		t.Errorf("Expected E1000E mismatch, got %s", states["E1000E"])
	}

	// Dependencies precede dependents in the report.
	idx := make(map[string]int)
	for i, sym := range order {
		idx[sym] = i
	}
	if !(idx["INET"] < idx["NET"] && idx["NET"] < idx["E1000E"]) {
		t.Errorf("Expected dependency order INET, NET, E1000E; got %v", order)
	}
}

func TestDetector_Components(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		t.Helper()
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("bus/pci/devices/0000:00:1f.6/modalias", "pci:v00008086d0000156F\n")
	write("bus/usb/devices/1-1/modalias", "usb:v0781p5567\n")
	// Devices without a modalias file are skipped.
	write("bus/usb/devices/1-2/uevent", "DEVTYPE=usb_device\n")

	d := NewDetectorAt(root, zerolog.Nop())
	components, err := d.Components(context.Background())
	if err != nil {
		t.Fatalf("Components: %v", err)
	}
	if len(components) != 2 {
		t.Fatalf("Expected 2 components, got %d: %v", len(components), components)
	}
	for _, c := range components {
		if c.Modalias == "" || c.Subsystem == "" {
			t.Errorf("Incomplete component: %+v", c)
		}
		if strings.ContainsAny(c.Modalias, " \n") {
			t.Errorf("Modalias not trimmed: %q", c.Modalias)
		}
	}
}

func TestCatalog_FindOptions_Dedup(t *testing.T) {
	const catalog = `
entries:
  - match: "usb:v0781*"
    options: [USB_STORAGE, SCSI]
  - match: "usb:*"
    options: [USB_STORAGE]
`
	c, err := ParseCatalog(strings.NewReader(catalog))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	got := c.FindOptions(Component{Subsystem: "usb", Modalias: "usb:v0781p5567"})
	want := []string{"USB_STORAGE", "SCSI"}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}
}

func moduleNames(g *engine.Graph) []string {
	var names []string
	for _, m := range g.Modules() {
		names = append(names, m.Name)
	}
	return names
}
