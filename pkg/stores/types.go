package stores

import (
	"context"
	"database/sql"
	"time"
)

// RunStatus represents the status of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run represents one command invocation that resolved configuration.
type Run struct {
	ID          string     `json:"id"`
	Command     string     `json:"command"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
	OutputPath  *string    `json:"output_path,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Change represents one applied symbol value change, ordered by position
// within its run.
type Change struct {
	ID       int64  `json:"id"`
	RunID    string `json:"run_id"`
	Position int    `json:"position"`
	Symbol   string `json:"symbol"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// Component represents one hardware component matched during a detect run.
type Component struct {
	ID         int64  `json:"id"`
	RunID      string `json:"run_id"`
	Position   int    `json:"position"`
	Subsystem  string `json:"subsystem"`
	Modalias   string `json:"modalias"`
	ModuleName string `json:"module_name"`
	Options    string `json:"options"` // JSON array of option names
}

// Store defines the interface for the run-history persistence layer.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// Run operations
	CreateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	UpdateRunStatus(ctx context.Context, id string, status RunStatus, errMsg *string) error
	ListRuns(ctx context.Context, limit, offset int) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error

	// Change operations
	AppendChanges(ctx context.Context, runID string, changes []Change) error
	ListChangesByRun(ctx context.Context, runID string) ([]*Change, error)

	// Component operations
	AppendComponents(ctx context.Context, runID string, components []Component) error
	ListComponentsByRun(ctx context.Context, runID string) ([]*Component, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
