package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rheehot/autokernel/pkg/detect"
	"github.com/rheehot/autokernel/pkg/engine"
	"github.com/rheehot/autokernel/pkg/kconfig"
	"github.com/rheehot/autokernel/pkg/render"
	"github.com/rheehot/autokernel/pkg/stores"
	"github.com/rheehot/autokernel/pkg/telemetry"
)

// cachedSource detects components once and replays the result, so the same
// enumeration feeds both the matcher and the run history.
type cachedSource struct {
	inner      detect.ComponentSource
	components []detect.Component
	done       bool
}

func (s *cachedSource) Components(ctx context.Context) ([]detect.Component, error) {
	if s.done {
		return s.components, nil
	}
	components, err := s.inner.Components(ctx)
	if err != nil {
		return nil, err
	}
	s.components = components
	s.done = true
	return components, nil
}

func newDetectCommand() *cobra.Command {
	var (
		checkMode     bool
		outputType    string
		moduleName    string
		outFile       string
		sysRoot       string
		metricsListen string
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect hardware and derive the options it needs",
		Long: `Detect the system's hardware components from sysfs, match them against the
option catalog, and build a module per component enabling its options.

By default the detected module graph is rendered to the output. In check
mode the detected options are instead compared against the running kernel's
configuration, reporting which detected options are already enabled.`,
		Example: `  # Print the detected modules in module-definition format
  autokernel detect

  # Emit raw kernel value lines instead
  autokernel detect --type kconf -o detected.config

  # Name the aggregate module
  autokernel detect --module-name my_laptop

  # Compare detected options against the running kernel
  autokernel detect --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := loadRuntime(ctx)
			if err != nil {
				return err
			}
			if rt.settings.Catalog == "" {
				return fmt.Errorf("detection requires a catalog path in the settings file")
			}
			catalog, err := detect.LoadCatalog(rt.settings.Catalog)
			if err != nil {
				return err
			}

			store, err := openStore(ctx, rt.settings.Store)
			if err != nil {
				return err
			}
			if store != nil {
				defer store.Close()
			}
			run := beginRun(ctx, store, "detect")

			metrics, err := telemetry.NewMetrics(telemetry.MetricsConfig{
				Enabled:       metricsListen != "",
				ListenAddress: metricsListen,
				Path:          "/metrics",
				Namespace:     "autokernel",
			})
			if err != nil {
				return err
			}
			if metricsListen != "" {
				if err := metrics.StartMetricsServer(); err != nil {
					return err
				}
			}

			logger := telemetry.FromContext(ctx)
			source := &cachedSource{inner: detect.NewDetectorAt(sysRoot, logger.Component("detect").Zerolog())}
			matcher := detect.NewMatcher(rt.oracle, catalog, source, logger.Component("detect").Zerolog())

			if checkMode {
				_, report, err := detectedReport(ctx, rt.oracle, matcher, "")
				if err != nil {
					finishRun(ctx, store, run, err)
					return err
				}
				persistComponents(ctx, store, run.ID, source.components, catalog)
				recordDetectMetrics(metrics, source.components, catalog)
				err = printDetectedReport(report)
				finishRun(ctx, store, run, err)
				return err
			}

			graph, err := matcher.BuildGraph(ctx)
			if err != nil {
				finishRun(ctx, store, run, err)
				return err
			}
			if moduleName != "" {
				graph.SelectAll.Name = moduleName
			}
			persistComponents(ctx, store, run.ID, source.components, catalog)
			recordDetectMetrics(metrics, source.components, catalog)
			metrics.RecordModulesBuilt(graph.Len())

			w, closeW, err := outputWriter(outFile)
			if err != nil {
				finishRun(ctx, store, run, err)
				return err
			}
			sink, err := render.NewSink(outputType, w)
			if err != nil {
				closeW()
				finishRun(ctx, store, run, err)
				return err
			}
			if err := render.RenderGraph(graph, sink); err != nil {
				closeW()
				finishRun(ctx, store, run, err)
				return err
			}
			err = closeW()
			finishRun(ctx, store, run, err)
			if err != nil {
				return err
			}

			log.Info().
				Str("run_id", run.ID).
				Int("components", len(source.components)).
				Int("modules", graph.Len()).
				Msg("Detection complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkMode, "check", false, "compare detected options against the running kernel")
	cmd.Flags().StringVar(&outputType, "type", render.FormatModule, "output format: module or kconf")
	cmd.Flags().StringVar(&moduleName, "module-name", "", "name for the aggregate module")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&sysRoot, "sys-root", "/sys", "sysfs mount point")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address")

	return cmd
}

// detectedReport builds the detected module graph against the oracle's
// snapshot state, then loads the reference values and compares. The build
// must come first: dependency subtrees the reference already satisfies
// still belong in the report, and building against reference state would
// drop them.
func detectedReport(ctx context.Context, oracle *kconfig.SnapshotOracle, matcher *detect.Matcher, referencePath string) (*engine.Graph, []detect.OptionStatus, error) {
	graph, err := matcher.BuildGraph(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := oracle.LoadReferenceValues(referencePath); err != nil {
		return nil, nil, err
	}
	report, err := detect.CompareDetected(graph, oracle)
	if err != nil {
		return nil, nil, err
	}
	return graph, report, nil
}

// printDetectedReport prints the dependency-ordered comparison of detected
// desired values against the reference state.
func printDetectedReport(report []detect.OptionStatus) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	matched := 0
	for _, st := range report {
		marker := "✗"
		switch st.State {
		case detect.StateMatch:
			marker = "✓"
			matched++
		case detect.StateMixed:
			marker = "~"
		}
		fmt.Printf("%s %-40s desired=%s actual=%s\n", marker, st.Symbol, st.Desired, st.Actual)
	}
	fmt.Printf("%d of %d detected option(s) already in the desired state\n", matched, len(report))
	return nil
}

// recordDetectMetrics counts the enumerated components and their catalog
// match outcomes.
func recordDetectMetrics(metrics *telemetry.Metrics, components []detect.Component, catalog *detect.Catalog) {
	metrics.RecordComponentsDetected(len(components))
	for _, comp := range components {
		outcome := "skipped"
		if len(catalog.FindOptions(comp)) > 0 {
			outcome = "matched"
		}
		metrics.RecordComponentMatch(outcome)
	}
}

// persistComponents stores the detected components with their matched
// catalog options as the run's component records.
func persistComponents(ctx context.Context, store *stores.SQLiteStore, runID string, components []detect.Component, catalog *detect.Catalog) {
	if store == nil || len(components) == 0 {
		return
	}
	rows := make([]stores.Component, len(components))
	for i, comp := range components {
		options := catalog.FindOptions(comp)
		encoded, err := json.Marshal(options)
		if err != nil {
			encoded = []byte("[]")
		}
		rows[i] = stores.Component{
			Subsystem:  comp.Subsystem,
			Modalias:   comp.Modalias,
			ModuleName: comp.CanonicalName(),
			Options:    string(encoded),
		}
	}
	if err := store.AppendComponents(ctx, runID, rows); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("Failed to record components")
	}
}
