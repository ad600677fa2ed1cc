package engine

import "fmt"

// DefaultSelectAllName is the name the synthetic select-all module is
// rendered under unless the caller supplies one. Generated names are part
// of the output contract; downstream tooling may parse them.
const DefaultSelectAllName = "local"

// Assignment forces one symbol to one value.
type Assignment struct {
	Symbol string
	Value  string
}

// Assertion checks, after all assignments of a module and its dependencies
// have been applied, that a symbol holds the expected value. Assertions
// never mutate oracle state.
type Assertion struct {
	Symbol string
	Value  string
}

// Module is a named unit bundling dependency edges, value assignments and
// assertions. Modules are shared across dependents; the graph owns their
// lifetime.
type Module struct {
	// Name is unique within a graph.
	Name string

	// Deps lists the modules that must be processed before this one,
	// in declaration order.
	Deps []*Module

	// Assignments are applied in order during an engine run.
	Assignments []Assignment

	// Assertions are checked in order, after the module's assignments.
	Assertions []Assertion

	// MergeFiles are external value files merged into the oracle before
	// the module's assignments, in order.
	MergeFiles []string

	// RevDeps is derived state: the modules that declared a dependency on
	// this one. It is rebuilt before each render and never persisted.
	RevDeps []*Module
}

// NewModule creates an empty module with the given name.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// AddDep appends a dependency edge.
func (m *Module) AddDep(dep *Module) {
	m.Deps = append(m.Deps, dep)
}

// Assign appends an assignment forcing symbol to value.
func (m *Module) Assign(symbol, value string) {
	m.Assignments = append(m.Assignments, Assignment{Symbol: symbol, Value: value})
}

// Assert appends an assertion that symbol holds value.
func (m *Module) Assert(symbol, value string) {
	m.Assertions = append(m.Assertions, Assertion{Symbol: symbol, Value: value})
}

// Empty reports whether the module carries neither assignments nor
// assertions. The raw value renderer skips empty modules.
func (m *Module) Empty() bool {
	return len(m.Assignments) == 0 && len(m.Assertions) == 0
}

// Graph is an insertion-ordered registry of uniquely named modules plus the
// distinguished select-all module aggregating a run's top-level selections.
// The select-all module is not part of the registry; renderers emit it last,
// and only when it has at least one dependency.
type Graph struct {
	modules map[string]*Module
	order   []string

	// SelectAll aggregates the top-level modules selected by a run.
	SelectAll *Module
}

// NewGraph creates an empty graph with a default-named select-all module.
func NewGraph() *Graph {
	return &Graph{
		modules:   make(map[string]*Module),
		SelectAll: NewModule(DefaultSelectAllName),
	}
}

// Register adds a module to the graph. Module names are unique; a duplicate
// name is a validation error.
func (g *Graph) Register(m *Module) error {
	if m.Name == "" {
		return NewPermanentError("module has empty name", nil).WithCode(ErrCodeValidation)
	}
	if _, exists := g.modules[m.Name]; exists {
		return NewPermanentError(fmt.Sprintf("duplicate module name %q", m.Name), nil).
			WithCode(ErrCodeValidation)
	}
	g.modules[m.Name] = m
	g.order = append(g.order, m.Name)
	return nil
}

// Module returns the registered module with the given name.
func (g *Graph) Module(name string) (*Module, bool) {
	m, ok := g.modules[name]
	return m, ok
}

// Modules returns all registered modules in registration order.
func (g *Graph) Modules() []*Module {
	mods := make([]*Module, 0, len(g.order))
	for _, name := range g.order {
		mods = append(mods, g.modules[name])
	}
	return mods
}

// Len returns the number of registered modules, excluding select-all.
func (g *Graph) Len() int {
	return len(g.order)
}

// Select appends a module to the select-all module's dependencies.
func (g *Graph) Select(m *Module) {
	g.SelectAll.AddDep(m)
}

// RebuildReverseDeps recomputes every module's reverse-dependency list from
// scratch: for each dependency edge, the dependent is appended to the
// dependency's RevDeps, in registration order. Must run immediately before
// rendering since RevDeps is not maintained incrementally.
func (g *Graph) RebuildReverseDeps() {
	for _, name := range g.order {
		g.modules[name].RevDeps = nil
	}
	g.SelectAll.RevDeps = nil

	for _, name := range g.order {
		m := g.modules[name]
		for _, dep := range m.Deps {
			dep.RevDeps = append(dep.RevDeps, m)
		}
	}
	for _, dep := range g.SelectAll.Deps {
		dep.RevDeps = append(dep.RevDeps, g.SelectAll)
	}
}
