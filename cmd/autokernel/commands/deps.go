package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rheehot/autokernel/pkg/engine"
	"github.com/rheehot/autokernel/pkg/kconfig"
	"github.com/rheehot/autokernel/pkg/render"
)

func newDepsCommand() *cobra.Command {
	var (
		global     bool
		outputType string
		outFile    string
	)

	cmd := &cobra.Command{
		Use:   "deps SYMBOL...",
		Short: "Show what it takes to enable a symbol",
		Long: `Resolve the dependency closure needed to enable the given symbols and
render it as configuration.

By default the user's module configuration is applied first, so subtrees the
configuration already satisfies are skipped and only the missing pieces are
shown. With --global the closure is computed against the bare snapshot
defaults instead.`,
		Example: `  # What is missing to enable CONFIG_WLAN on top of my configuration
  autokernel deps WLAN

  # The full closure, ignoring the configuration
  autokernel deps --global WLAN

  # Emit module definitions instead of raw value lines
  autokernel deps --type module -o wlan.conf CONFIG_WLAN`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := loadRuntime(ctx)
			if err != nil {
				return err
			}
			if !global {
				if _, _, err := rt.applyUserConfig(ctx); err != nil {
					return err
				}
			}

			graph, err := resolveDepsGraph(rt.oracle, args)
			if err != nil {
				return err
			}

			w, closeW, err := outputWriter(outFile)
			if err != nil {
				return err
			}
			sink, err := render.NewSink(outputType, w)
			if err != nil {
				closeW()
				return err
			}
			if err := render.RenderGraph(graph, sink); err != nil {
				closeW()
				return err
			}
			return closeW()
		},
	}

	cmd.Flags().BoolVarP(&global, "global", "g", false, "ignore the module configuration")
	cmd.Flags().StringVar(&outputType, "type", render.FormatKconf, "output format: module or kconf")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	return cmd
}

// resolveDepsGraph builds the dependency closure for the named symbols.
// The modules are not selected into the aggregate module: the output lists
// each closure on its own, without a combined wrapper block.
func resolveDepsGraph(oracle kconfig.Oracle, names []string) (*engine.Graph, error) {
	graph := engine.NewGraph()
	builder := engine.NewBuilder(oracle, graph)
	for _, name := range names {
		sym, err := oracle.Lookup(strings.TrimPrefix(name, "CONFIG_"))
		if err != nil {
			return nil, err
		}
		if _, err := builder.EnsureModule(sym); err != nil {
			return nil, err
		}
	}
	return graph, nil
}
