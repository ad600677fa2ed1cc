package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rheehot/autokernel/pkg/config"
	"github.com/rheehot/autokernel/pkg/engine"
	"github.com/rheehot/autokernel/pkg/kconfig"
	"github.com/rheehot/autokernel/pkg/stores"
	"github.com/rheehot/autokernel/pkg/telemetry"
)

// runtime bundles everything a resolution run needs: the loaded settings,
// a fresh oracle over the symbol snapshot, and the user's module model.
type runtime struct {
	settings *config.Settings
	oracle   *kconfig.SnapshotOracle
	model    *config.Model
}

// loadRuntime loads the settings file, the symbol snapshot it names and the
// module configuration. Each call returns a fresh oracle, so callers may
// mutate it freely for one run.
func loadRuntime(ctx context.Context) (*runtime, error) {
	path := settingsPath
	if path == "" {
		path = config.DefaultSettingsPath
	}

	settings, err := config.NewSettingsLoader().Load(path)
	if err != nil {
		return nil, err
	}

	oracle, err := kconfig.LoadSnapshot(settings.Snapshot)
	if err != nil {
		return nil, err
	}

	logger := telemetry.FromContext(ctx)
	model, err := config.NewLoader(logger.Component("config").Zerolog()).Load(ctx, settings.Modules...)
	if err != nil {
		return nil, err
	}

	return &runtime{settings: settings, oracle: oracle, model: model}, nil
}

// applyUserConfig builds the configured module graph and applies it to the
// runtime's oracle. A missing kernel block means there is nothing to apply.
// The second return value counts assignments the oracle refused.
func (rt *runtime) applyUserConfig(ctx context.Context) ([]engine.ChangeRecord, int, error) {
	_, root, err := rt.model.BuildGraph()
	if err != nil {
		return nil, 0, err
	}
	if root == nil {
		log.Warn().Msg("No kernel block in module configuration, nothing to apply")
		return nil, 0, nil
	}
	applier := engine.NewApplier(rt.oracle, telemetry.FromContext(ctx).Component("engine").Zerolog())
	changes, err := applier.Apply(root)
	return changes, applier.Rejected(), err
}

// openStore opens the run-history database named in the settings. An empty
// path disables persistence and returns nil.
func openStore(ctx context.Context, path string) (*stores.SQLiteStore, error) {
	if path == "" {
		return nil, nil
	}
	store, err := stores.NewSQLiteStore(stores.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// beginRun records the start of a run. With a nil store it returns a run
// record anyway so callers have a run ID for logging.
func beginRun(ctx context.Context, store *stores.SQLiteStore, command string) *stores.Run {
	run := &stores.Run{
		ID:        uuid.NewString(),
		Command:   command,
		Status:    stores.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if store == nil {
		return run
	}
	if err := store.CreateRun(ctx, run); err != nil {
		log.Warn().Err(err).Msg("Failed to record run start")
	}
	return run
}

// finishRun records the outcome of a run. Persistence failures are logged,
// never escalated: run history must not change a run's result.
func finishRun(ctx context.Context, store *stores.SQLiteStore, run *stores.Run, runErr error) {
	if store == nil {
		return
	}
	status := stores.RunStatusCompleted
	var errMsg *string
	if runErr != nil {
		status = stores.RunStatusFailed
		msg := runErr.Error()
		errMsg = &msg
	}
	if err := store.UpdateRunStatus(ctx, run.ID, status, errMsg); err != nil {
		log.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to record run outcome")
	}
}

// persistChanges stores the change records of a run in apply order.
func persistChanges(ctx context.Context, store *stores.SQLiteStore, runID string, changes []engine.ChangeRecord) {
	if store == nil || len(changes) == 0 {
		return
	}
	rows := make([]stores.Change, len(changes))
	for i, c := range changes {
		rows[i] = stores.Change{Symbol: c.Symbol, From: c.From, To: c.To}
	}
	if err := store.AppendChanges(ctx, runID, rows); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("Failed to record changes")
	}
}

// outputWriter opens the named file for writing, or hands out stdout for
// "-". The returned close function is a no-op for stdout.
func outputWriter(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening output file: %w", err)
	}
	return f, f.Close, nil
}
