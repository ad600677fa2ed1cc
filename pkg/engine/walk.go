package engine

import (
	"fmt"
	"strings"
)

// Walker performs post-order, visit-once traversals of a module DAG:
// every dependency is visited strictly before its dependent, and each
// module exactly once across the walker's lifetime. The assignment engine,
// the renderers and the detect comparison all share this traversal.
//
// A walker carries its visited set across calls, so walking several roots
// with one walker never revisits shared dependencies.
type Walker struct {
	visited map[*Module]bool
	inStack map[*Module]bool
}

// NewWalker creates a walker with an empty visited set.
func NewWalker() *Walker {
	return &Walker{
		visited: make(map[*Module]bool),
		inStack: make(map[*Module]bool),
	}
}

// Walk traverses the DAG rooted at m, calling visit once per module in
// dependency-before-dependent order. Revisiting a module that is still on
// the current descent path means the dependency lists do not form a DAG;
// that fails with a dependency-cycle error instead of recursing unboundedly.
func (w *Walker) Walk(m *Module, visit func(*Module) error) error {
	return w.walk(m, visit, nil)
}

func (w *Walker) walk(m *Module, visit func(*Module) error, path []string) error {
	if w.visited[m] {
		return nil
	}
	if w.inStack[m] {
		cycle := append(path, m.Name)
		return NewPermanentError(
			fmt.Sprintf("dependency cycle detected: %s", strings.Join(cycle, " -> ")), nil).
			WithCode(ErrCodeDependencyCycle).
			WithModule(m.Name)
	}

	w.inStack[m] = true
	path = append(path, m.Name)
	for _, dep := range m.Deps {
		if err := w.walk(dep, visit, path); err != nil {
			return err
		}
	}
	w.inStack[m] = false

	w.visited[m] = true
	return visit(m)
}
