package engine

import (
	"errors"
	"strings"

	"github.com/rheehot/autokernel/pkg/kconfig"
)

func asEngineError(err error, target **EngineError) bool {
	return errors.As(err, target)
}

func containsString(s, substr string) bool {
	return strings.Contains(s, substr)
}

// fakeSymbol is a minimal symbol handle for engine tests.
type fakeSymbol struct {
	name string
	typ  kconfig.SymbolType
}

func (s *fakeSymbol) Name() string             { return s.name }
func (s *fakeSymbol) Type() kconfig.SymbolType { return s.typ }

type fakePair struct {
	symbol   string
	required bool
}

// fakeOracle is a canned-response oracle. Dependency pairs are declared per
// symbol; a symbol's direct dependency counts as satisfied when every pair
// currently holds against the value map.
type fakeOracle struct {
	syms    map[string]*fakeSymbol
	values  map[string]string
	deps    map[string][]fakePair
	rejects map[string]bool
	// clamps maps a symbol to the value the oracle reports after any set,
	// regardless of the requested value.
	clamps map[string]string
	merged []string
	// mergeEntries are applied when MergeValueFile is called with the path key.
	mergeEntries map[string][]kconfig.ValueEntry
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		syms:         make(map[string]*fakeSymbol),
		values:       make(map[string]string),
		deps:         make(map[string][]fakePair),
		rejects:      make(map[string]bool),
		clamps:       make(map[string]string),
		mergeEntries: make(map[string][]kconfig.ValueEntry),
	}
}

func (o *fakeOracle) addSymbol(name, value string) *fakeSymbol {
	sym := &fakeSymbol{name: name, typ: kconfig.TypeTristate}
	o.syms[name] = sym
	o.values[name] = value
	return sym
}

func (o *fakeOracle) Lookup(name string) (kconfig.Symbol, error) {
	sym, ok := o.syms[name]
	if !ok {
		return nil, &kconfig.UnknownSymbolError{Name: name}
	}
	return sym, nil
}

func (o *fakeOracle) Value(sym kconfig.Symbol) string {
	return o.values[sym.Name()]
}

func (o *fakeOracle) SetValue(sym kconfig.Symbol, value string) bool {
	if o.rejects[sym.Name()] {
		return false
	}
	if clamped, ok := o.clamps[sym.Name()]; ok {
		o.values[sym.Name()] = clamped
		return true
	}
	o.values[sym.Name()] = value
	return true
}

func (o *fakeOracle) DirectDepSatisfied(sym kconfig.Symbol) bool {
	for _, pair := range o.deps[sym.Name()] {
		t, _ := kconfig.ParseTristate(o.values[pair.symbol])
		if t.Bool() != pair.required {
			return false
		}
	}
	return true
}

func (o *fakeOracle) RequiredDeps(sym kconfig.Symbol) []kconfig.DependencyPair {
	var pairs []kconfig.DependencyPair
	for _, pair := range o.deps[sym.Name()] {
		pairs = append(pairs, kconfig.DependencyPair{
			Symbol:   o.syms[pair.symbol],
			Required: pair.required,
		})
	}
	return pairs
}

func (o *fakeOracle) MergeValueFile(path string) error {
	o.merged = append(o.merged, path)
	for _, entry := range o.mergeEntries[path] {
		o.values[entry.Symbol] = entry.Value
	}
	return nil
}

func (o *fakeOracle) LoadReferenceValues(string) error { return nil }
