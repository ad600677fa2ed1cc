package detect

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rheehot/autokernel/pkg/engine"
	"github.com/rheehot/autokernel/pkg/kconfig"
)

// Matcher turns detected components into a module graph: one module per
// component the catalog knows, depending on the builder-generated modules
// of its candidate options, all aggregated under the graph's select-all
// module.
type Matcher struct {
	oracle  kconfig.Oracle
	catalog *Catalog
	source  ComponentSource
	logger  zerolog.Logger
}

// NewMatcher creates a matcher over the given oracle, catalog and source.
func NewMatcher(oracle kconfig.Oracle, catalog *Catalog, source ComponentSource, logger zerolog.Logger) *Matcher {
	return &Matcher{
		oracle:  oracle,
		catalog: catalog,
		source:  source,
		logger:  logger.With().Str("component", "matcher").Logger(),
	}
}

// BuildGraph enumerates components, sorted by canonical name for
// deterministic output, and builds the detected module graph. Components
// without catalog candidates are skipped silently. The select-all module
// keeps its default name; callers may rename it before rendering.
func (m *Matcher) BuildGraph(ctx context.Context) (*engine.Graph, error) {
	components, err := m.source.Components(ctx)
	if err != nil {
		return nil, engine.NewPermanentError("enumerating system components", err).
			WithCode(engine.ErrCodeIO)
	}
	sort.Slice(components, func(i, j int) bool {
		return components[i].CanonicalName() < components[j].CanonicalName()
	})

	graph := engine.NewGraph()
	builder := engine.NewBuilder(m.oracle, graph)

	matched := 0
	seq := 0
	for _, comp := range components {
		options := m.catalog.FindOptions(comp)
		if len(options) == 0 {
			continue
		}

		mod, err := m.moduleForComponent(builder, comp, options, seq)
		if err != nil {
			return nil, err
		}
		seq++
		matched++

		if err := graph.Register(mod); err != nil {
			return nil, err
		}
		graph.Select(mod)
	}

	m.logger.Info().
		Int("components", len(components)).
		Int("matched", matched).
		Msg("Matched detected components against catalog")
	return graph, nil
}

// moduleForComponent builds the module for one detected component. The
// sequence-numbered name is part of the output contract.
func (m *Matcher) moduleForComponent(builder *engine.Builder, comp Component, options []string, seq int) (*engine.Module, error) {
	mod := engine.NewModule(fmt.Sprintf("%04d_%s", seq, comp.CanonicalName()))
	for _, opt := range options {
		sym, err := m.oracle.Lookup(opt)
		if err != nil {
			return nil, engine.NewPermanentError("catalog option unknown to oracle", err).
				WithCode(engine.ErrCodeUnknownSymbol).
				WithSymbol(opt).
				WithModule(mod.Name)
		}
		depMod, err := builder.EnsureModule(sym)
		if err != nil {
			return nil, err
		}
		mod.AddDep(depMod)
	}
	return mod, nil
}
