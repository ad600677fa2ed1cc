package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rheehot/autokernel/pkg/engine"
	"github.com/rheehot/autokernel/pkg/render"
	"github.com/rheehot/autokernel/pkg/telemetry"
)

func newGenerateCommand() *cobra.Command {
	var (
		outFile       string
		watch         bool
		trace         bool
		metricsListen string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the resolved kernel configuration",
		Long: `Generate the full kernel configuration from the configured modules.

The run:
  - Loads the symbol snapshot and the module configuration
  - Applies every module in dependency order, merging external value files,
    assigning symbols and checking assertions
  - Aborts on the first conflict or failed assertion
  - Writes the fully resolved configuration with a generation header

With --watch, the module directories are watched and the configuration is
regenerated whenever a module file changes.`,
		Example: `  # Generate into the output path from the settings file
  autokernel generate

  # Generate to an explicit path
  autokernel generate -o /tmp/.config

  # Regenerate on every module file change
  autokernel generate --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

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

			tracerCfg := telemetry.DefaultConfig().Tracing
			tracerCfg.Enabled = trace
			tracerCfg.Exporter = "stdout"
			tracer, err := telemetry.NewTracer(tracerCfg, "autokernel", cmd.Root().Version)
			if err != nil {
				return err
			}
			defer tracer.Shutdown(context.Background())

			if err := generateOnce(ctx, outFile, metrics, tracer); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchAndRegenerate(ctx, outFile, metrics, tracer)
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (defaults to the settings output path)")
	cmd.Flags().BoolVar(&watch, "watch", false, "regenerate when module files change")
	cmd.Flags().BoolVar(&trace, "trace", false, "emit trace spans to stdout")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "serve Prometheus metrics on this address")

	return cmd
}

// generateOnce performs one full resolution run with fresh state.
func generateOnce(ctx context.Context, outFile string, metrics *telemetry.Metrics, tracer *telemetry.Tracer) (err error) {
	start := time.Now()
	metrics.RecordRunStarted("generate")

	loadCtx, loadSpan := tracer.StartPhaseSpan(ctx, "load")
	rt, err := loadRuntime(loadCtx)
	if err != nil {
		telemetry.RecordError(loadSpan, err)
		loadSpan.End()
		metrics.RecordRunCompleted("failed", time.Since(start))
		return err
	}
	telemetry.RecordSuccess(loadSpan)
	loadSpan.End()

	store, err := openStore(ctx, rt.settings.Store)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	run := beginRun(ctx, store, "generate")
	ctx, runSpan := tracer.StartRunSpan(ctx, run.ID, "generate")
	defer runSpan.End()
	defer func() {
		status := "completed"
		if err != nil {
			status = "failed"
			telemetry.RecordError(runSpan, err)
		} else {
			telemetry.RecordSuccess(runSpan)
		}
		metrics.RecordRunCompleted(status, time.Since(start))
		finishRun(ctx, store, run, err)
	}()

	_, applySpan := tracer.StartPhaseSpan(ctx, "apply")
	changes, rejected, err := rt.applyUserConfig(ctx)
	applySpan.End()
	if err != nil {
		if engine.IsConflict(err) {
			metrics.RecordConflict()
		}
		metrics.RecordError(engine.CodeOf(err))
		return err
	}
	metrics.RecordChanges(len(changes))
	metrics.RecordRejectedValues(rejected)
	persistChanges(ctx, store, run.ID, changes)

	output := outFile
	if output == "" {
		output = rt.settings.Output
	}

	_, renderSpan := tracer.StartPhaseSpan(ctx, "render")
	defer renderSpan.End()
	w, closeW, err := outputWriter(output)
	if err != nil {
		return err
	}
	if err := rt.oracle.WriteConfig(w, render.GenerationHeader(time.Now())); err != nil {
		closeW()
		return err
	}
	if err := closeW(); err != nil {
		return err
	}

	log.Info().
		Str("run_id", run.ID).
		Str("output", output).
		Int("changes", len(changes)).
		Msg("Configuration generated")
	fmt.Printf("✓ Wrote %s (%d symbols changed)\n", output, len(changes))
	return nil
}

// watchAndRegenerate blocks until the context is cancelled, rerunning the
// generation whenever a module file under the configured paths changes.
func watchAndRegenerate(ctx context.Context, outFile string, metrics *telemetry.Metrics, tracer *telemetry.Tracer) error {
	rt, err := loadRuntime(ctx)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range rt.settings.Modules {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		dir := path
		if !info.IsDir() {
			dir = filepath.Dir(path)
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		log.Info().Str("path", dir).Msg("Watching for module file changes")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".hcl") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Info().Str("file", event.Name).Str("op", event.Op.String()).Msg("Module file changed, regenerating")
			if err := generateOnce(ctx, outFile, metrics, tracer); err != nil {
				// Keep watching: a broken intermediate save should not
				// kill the session.
				log.Error().Err(err).Msg("Regeneration failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("File watcher error")
		}
	}
}
