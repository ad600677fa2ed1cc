package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rheehot/autokernel/pkg/engine"
)

// SymbolValue is one symbol/value pair from a set or assert block, in
// declaration order.
type SymbolValue struct {
	Symbol string `validate:"required"`
	Value  string
}

// ModuleConfig is the declarative form of one module block before it is
// translated into an engine module.
type ModuleConfig struct {
	Name    string `validate:"required"`
	Use     []string
	Merge   []string
	Sets    []SymbolValue `validate:"dive"`
	Asserts []SymbolValue `validate:"dive"`
}

// Model is the merged result of loading every module file: the module blocks
// in declaration order plus the root module named by the kernel block.
type Model struct {
	Kernel  string
	Modules []*ModuleConfig `validate:"dive"`
}

// Validate checks struct constraints and cross-references: unique module
// names, every use target declared, and the kernel root declared when set.
func (m *Model) Validate(v *validator.Validate) error {
	if err := v.Struct(m); err != nil {
		return engine.NewPermanentError("module configuration invalid", err).
			WithCode(engine.ErrCodeValidation)
	}

	seen := make(map[string]struct{}, len(m.Modules))
	for _, mc := range m.Modules {
		if _, dup := seen[mc.Name]; dup {
			return engine.NewPermanentError(
				fmt.Sprintf("duplicate module name %q", mc.Name), nil).
				WithCode(engine.ErrCodeValidation)
		}
		seen[mc.Name] = struct{}{}
	}
	for _, mc := range m.Modules {
		for _, use := range mc.Use {
			if _, ok := seen[use]; !ok {
				return engine.NewPermanentError(
					fmt.Sprintf("module %q uses undeclared module %q", mc.Name, use), nil).
					WithCode(engine.ErrCodeValidation).WithModule(mc.Name)
			}
		}
	}
	if m.Kernel != "" {
		if _, ok := seen[m.Kernel]; !ok {
			return engine.NewPermanentError(
				fmt.Sprintf("kernel block names undeclared module %q", m.Kernel), nil).
				WithCode(engine.ErrCodeValidation)
		}
	}
	return nil
}

// BuildGraph translates the model into an engine graph. Modules are
// registered in declaration order; use edges are resolved after every module
// exists so forward references work. The returned root is the module the
// kernel block names, or nil when no kernel block was given.
func (m *Model) BuildGraph() (*engine.Graph, *engine.Module, error) {
	graph := engine.NewGraph()
	for _, mc := range m.Modules {
		mod := engine.NewModule(mc.Name)
		mod.MergeFiles = append(mod.MergeFiles, mc.Merge...)
		for _, sv := range mc.Sets {
			mod.Assign(sv.Symbol, sv.Value)
		}
		for _, sv := range mc.Asserts {
			mod.Assert(sv.Symbol, sv.Value)
		}
		if err := graph.Register(mod); err != nil {
			return nil, nil, err
		}
	}

	for _, mc := range m.Modules {
		mod, _ := graph.Module(mc.Name)
		for _, use := range mc.Use {
			dep, ok := graph.Module(use)
			if !ok {
				return nil, nil, engine.NewPermanentError(
					fmt.Sprintf("module %q uses undeclared module %q", mc.Name, use), nil).
					WithCode(engine.ErrCodeValidation).WithModule(mc.Name)
			}
			mod.AddDep(dep)
		}
	}

	var root *engine.Module
	if m.Kernel != "" {
		r, ok := graph.Module(m.Kernel)
		if !ok {
			return nil, nil, engine.NewPermanentError(
				fmt.Sprintf("kernel block names undeclared module %q", m.Kernel), nil).
				WithCode(engine.ErrCodeValidation)
		}
		root = r
	}
	return graph, root, nil
}
