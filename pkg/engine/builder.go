package engine

import (
	"fmt"
	"strings"

	"github.com/rheehot/autokernel/pkg/kconfig"
)

// Builder expands requested symbols into option modules. For every symbol it
// creates at most one module (memoized by symbol identity, not name), whose
// transitive dependency closure is sufficient, per the oracle's dependency
// semantics, to enable the symbol.
type Builder struct {
	oracle kconfig.Oracle
	graph  *Graph

	// moduleForSym memoizes built modules by symbol handle identity.
	moduleForSym map[kconfig.Symbol]*Module

	// building guards against cyclic dependency reports from the oracle.
	building map[kconfig.Symbol]bool
}

// NewBuilder creates a builder that registers generated modules in graph.
func NewBuilder(oracle kconfig.Oracle, graph *Graph) *Builder {
	return &Builder{
		oracle:       oracle,
		graph:        graph,
		moduleForSym: make(map[kconfig.Symbol]*Module),
		building:     make(map[kconfig.Symbol]bool),
	}
}

// Graph returns the graph the builder registers modules in.
func (b *Builder) Graph() *Graph {
	return b.graph
}

// EnsureModule returns the module enforcing the given symbol, building it
// and modules for its unmet dependencies first if needed. Calling it twice
// for the same symbol returns the identical module and never re-walks
// already-satisfied subtrees.
//
// The builder does not pre-validate satisfiability: contradictory required
// values reported by the oracle surface as assignment conflicts at apply
// time, not here.
func (b *Builder) EnsureModule(sym kconfig.Symbol) (*Module, error) {
	if mod, ok := b.moduleForSym[sym]; ok {
		return mod, nil
	}
	if b.building[sym] {
		return nil, NewPermanentError(
			fmt.Sprintf("dependency cycle while resolving symbol %s", sym.Name()), nil).
			WithCode(ErrCodeDependencyCycle).
			WithSymbol(sym.Name())
	}

	b.building[sym] = true
	defer delete(b.building, sym)

	mod, err := b.buildModule(sym)
	if err != nil {
		return nil, err
	}
	b.moduleForSym[sym] = mod
	return mod, nil
}

// buildModule creates the module for one symbol: a deterministic name, one
// assignment enabling the symbol, and, when the symbol's direct dependency
// expression is not already satisfied, one dependency edge per
// required-true pair and one direct off-assignment per required-false pair.
// The off case has no transitive requirements, so it never spawns a module.
func (b *Builder) buildModule(sym kconfig.Symbol) (*Module, error) {
	mod := NewModule(ModuleNameForSymbol(sym.Name()))
	mod.Assign(sym.Name(), kconfig.Yes.String())

	if !b.oracle.DirectDepSatisfied(sym) {
		for _, dep := range b.oracle.RequiredDeps(sym) {
			if dep.Required {
				depMod, err := b.EnsureModule(dep.Symbol)
				if err != nil {
					return nil, err
				}
				mod.AddDep(depMod)
			} else {
				mod.Assign(dep.Symbol.Name(), kconfig.No.String())
			}
		}
	}

	if err := b.graph.Register(mod); err != nil {
		return nil, err
	}
	return mod, nil
}

// ModuleNameForSymbol returns the deterministic name of the auto-generated
// module for a symbol. The naming is part of the output contract.
func ModuleNameForSymbol(symbol string) string {
	return "config_" + strings.ToLower(symbol)
}
