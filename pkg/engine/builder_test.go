package engine

import (
	"testing"
)

func TestBuilder_EnsureModule_Idempotent(t *testing.T) {
	oracle := newFakeOracle()
	sym := oracle.addSymbol("NET", "n")

	builder := NewBuilder(oracle, NewGraph())

	first, err := builder.EnsureModule(sym)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	second, err := builder.EnsureModule(sym)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if first != second {
		t.Errorf("Expected the identical module for repeated EnsureModule calls")
	}
	if builder.Graph().Len() != 1 {
		t.Errorf("Expected 1 registered module, got %d", builder.Graph().Len())
	}
}

func TestBuilder_EnsureModule_NameAndAssignment(t *testing.T) {
	oracle := newFakeOracle()
	sym := oracle.addSymbol("USB_STORAGE", "n")

	builder := NewBuilder(oracle, NewGraph())
	mod, err := builder.EnsureModule(sym)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if mod.Name != "config_usb_storage" {
		t.Errorf("Expected module name config_usb_storage, got %q", mod.Name)
	}
	if len(mod.Assignments) != 1 {
		t.Fatalf("Expected 1 assignment, got %d", len(mod.Assignments))
	}
	if mod.Assignments[0] != (Assignment{Symbol: "USB_STORAGE", Value: "y"}) {
		t.Errorf("Unexpected assignment: %+v", mod.Assignments[0])
	}
}

func TestBuilder_EnsureModule_SatisfiedDepsSkipped(t *testing.T) {
	oracle := newFakeOracle()
	oracle.addSymbol("INET", "y")
	sym := oracle.addSymbol("NET", "n")
	oracle.deps["NET"] = []fakePair{{symbol: "INET", required: true}}

	builder := NewBuilder(oracle, NewGraph())
	mod, err := builder.EnsureModule(sym)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// INET is already enabled, so the option is reachable as-is.
	if len(mod.Deps) != 0 {
		t.Errorf("Expected no dependency modules, got %d", len(mod.Deps))
	}
	if builder.Graph().Len() != 1 {
		t.Errorf("Expected 1 module, got %d", builder.Graph().Len())
	}
}

func TestBuilder_EnsureModule_DependencyCompleteness(t *testing.T) {
	oracle := newFakeOracle()
	oracle.addSymbol("A", "n")
	oracle.addSymbol("B", "y")
	sym := oracle.addSymbol("S", "n")
	oracle.deps["S"] = []fakePair{
		{symbol: "A", required: true},
		{symbol: "B", required: false},
	}

	builder := NewBuilder(oracle, NewGraph())
	mod, err := builder.EnsureModule(sym)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// Required-true spawns a dependency module.
	if len(mod.Deps) != 1 || mod.Deps[0].Name != "config_a" {
		t.Fatalf("Expected one dependency edge to config_a, got %v", mod.Deps)
	}

	// Required-false becomes a direct off assignment, no module for B.
	wantOff := Assignment{Symbol: "B", Value: "n"}
	found := false
	for _, as := range mod.Assignments {
		if as == wantOff {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected direct assignment B=n on %s, got %v", mod.Name, mod.Assignments)
	}
	if _, ok := builder.Graph().Module("config_b"); ok {
		t.Errorf("Expected no module for required-false symbol B")
	}
}

func TestBuilder_EnsureModule_SharedDependencyBuiltOnce(t *testing.T) {
	oracle := newFakeOracle()
	oracle.addSymbol("CORE", "n")
	s1 := oracle.addSymbol("FEAT1", "n")
	s2 := oracle.addSymbol("FEAT2", "n")
	oracle.deps["FEAT1"] = []fakePair{{symbol: "CORE", required: true}}
	oracle.deps["FEAT2"] = []fakePair{{symbol: "CORE", required: true}}

	builder := NewBuilder(oracle, NewGraph())
	m1, err := builder.EnsureModule(s1)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	m2, err := builder.EnsureModule(s2)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if m1.Deps[0] != m2.Deps[0] {
		t.Errorf("Expected both features to share the same CORE module")
	}
	if builder.Graph().Len() != 3 {
		t.Errorf("Expected 3 modules, got %d", builder.Graph().Len())
	}
}

func TestBuilder_EnsureModule_CycleDetected(t *testing.T) {
	oracle := newFakeOracle()
	oracle.addSymbol("A", "n")
	oracle.addSymbol("B", "n")
	sym := oracle.syms["A"]
	oracle.deps["A"] = []fakePair{{symbol: "B", required: true}}
	oracle.deps["B"] = []fakePair{{symbol: "A", required: true}}

	builder := NewBuilder(oracle, NewGraph())
	_, err := builder.EnsureModule(sym)
	if err == nil {
		t.Fatal("Expected a dependency cycle error")
	}
	if !HasCode(err, ErrCodeDependencyCycle) {
		t.Errorf("Expected code %s, got: %v", ErrCodeDependencyCycle, err)
	}
}

func TestBuilder_Scenario_NetRequiresInet(t *testing.T) {
	oracle := newFakeOracle()
	oracle.addSymbol("INET", "n")
	sym := oracle.addSymbol("NET", "n")
	oracle.deps["NET"] = []fakePair{{symbol: "INET", required: true}}

	graph := NewGraph()
	builder := NewBuilder(oracle, graph)
	mod, err := builder.EnsureModule(sym)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	net, ok := graph.Module("config_net")
	if !ok || net != mod {
		t.Fatal("Expected config_net to be registered")
	}
	inet, ok := graph.Module("config_inet")
	if !ok {
		t.Fatal("Expected config_inet to be registered")
	}
	if len(net.Deps) != 1 || net.Deps[0] != inet {
		t.Errorf("Expected config_net to depend on config_inet")
	}
	for _, m := range []*Module{net, inet} {
		if len(m.Assignments) != 1 || m.Assignments[0].Value != "y" {
			t.Errorf("Expected exactly one y assignment on %s, got %v", m.Name, m.Assignments)
		}
	}
}
