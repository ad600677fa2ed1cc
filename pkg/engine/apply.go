package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rheehot/autokernel/pkg/kconfig"
)

// ChangeRecord is the before/after value pair for one symbol that actually
// changed during a run.
type ChangeRecord struct {
	Symbol string `json:"symbol"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// assignmentIntent remembers which module first assigned a symbol, and to
// what, for conflict reporting.
type assignmentIntent struct {
	module *Module
	value  string
}

// Applier walks a module graph in dependency order against a live oracle:
// external value files are merged, assignments applied with deterministic
// conflict detection, and assertions evaluated over the fully merged state.
//
// The applier is the sole oracle writer during a run. It completes one
// module's merges, assignments and assertions before starting the next;
// later modules may rely on state set by earlier ones.
type Applier struct {
	oracle kconfig.Oracle
	logger zerolog.Logger

	// TreatModYesEqual treats "m" and "y" as compatible when two modules
	// assign the same symbol, so a module-vs-builtin disagreement is not a
	// conflict. Off by default: the values differ, and so does the result.
	TreatModYesEqual bool

	intents  map[string]assignmentIntent
	changed  map[string]int
	changes  []ChangeRecord
	rejected int
}

// NewApplier creates an applier running against the given oracle.
func NewApplier(oracle kconfig.Oracle, logger zerolog.Logger) *Applier {
	return &Applier{
		oracle:  oracle,
		logger:  logger.With().Str("component", "applier").Logger(),
		intents: make(map[string]assignmentIntent),
		changed: make(map[string]int),
	}
}

// Rejected returns how many assignments the oracle refused outright during
// the run. Rejections are warnings, not failures.
func (a *Applier) Rejected() int {
	return a.rejected
}

// Apply processes the graph rooted at root and returns one change record
// per symbol that actually changed, in the order symbols first changed.
// The run aborts on the first conflict or assertion failure; symbols
// already set stay set, since oracle state is re-derived on the next run.
func (a *Applier) Apply(root *Module) ([]ChangeRecord, error) {
	walker := NewWalker()
	err := walker.Walk(root, a.applyModule)
	if err != nil {
		return nil, err
	}
	a.logger.Info().Int("changed", len(a.changes)).Msg("Applied module graph")
	return a.changes, nil
}

func (a *Applier) applyModule(m *Module) error {
	for _, path := range m.MergeFiles {
		a.logger.Debug().Str("module", m.Name).Str("file", path).Msg("Merging external value file")
		if err := a.oracle.MergeValueFile(path); err != nil {
			return NewPermanentError("merging external value file", err).
				WithCode(ErrCodeIO).
				WithModule(m.Name)
		}
	}

	for _, as := range m.Assignments {
		if err := a.applyAssignment(m, as); err != nil {
			return err
		}
	}

	// Assertions run last so they observe the module's own assignments and
	// everything its dependencies set, but nothing from later modules.
	for _, at := range m.Assertions {
		if err := a.checkAssertion(m, at); err != nil {
			return err
		}
	}
	return nil
}

func (a *Applier) applyAssignment(m *Module, as Assignment) error {
	if prev, ok := a.intents[as.Symbol]; ok {
		if !a.compatible(prev.value, as.Value) {
			return NewConflictError(
				fmt.Sprintf("conflicting assignment: module %q wants %s, module %q already set %s",
					m.Name, kconfig.FormatValue(as.Value),
					prev.module.Name, kconfig.FormatValue(prev.value)),
				nil).
				WithCode(ErrCodeConflictingAssignment).
				WithSymbol(as.Symbol).
				WithModule(m.Name)
		}
		// Same value requested again: no duplicate work, no duplicate record.
		return nil
	}
	a.intents[as.Symbol] = assignmentIntent{module: m, value: as.Value}

	sym, err := a.oracle.Lookup(as.Symbol)
	if err != nil {
		return NewPermanentError("symbol lookup failed", err).
			WithCode(ErrCodeUnknownSymbol).
			WithSymbol(as.Symbol).
			WithModule(m.Name)
	}

	before := a.oracle.Value(sym)
	if !a.oracle.SetValue(sym, as.Value) {
		a.rejected++
		a.logger.Warn().
			Str("symbol", as.Symbol).
			Str("module", m.Name).
			Str("value", as.Value).
			Msg("Value rejected by oracle")
		return nil
	}

	after := a.oracle.Value(sym)
	if after != as.Value {
		// No contradictory intent existed, so a refused value is a warning,
		// not a conflict; the run continues with the oracle's actual value.
		a.logger.Warn().
			Str("symbol", as.Symbol).
			Str("module", m.Name).
			Str("requested", kconfig.FormatValue(as.Value)).
			Str("actual", kconfig.FormatValue(after)).
			Msg("Assignment did not take requested value")
	}

	if after != before {
		if _, ok := a.changed[as.Symbol]; !ok {
			a.changed[as.Symbol] = len(a.changes)
			a.changes = append(a.changes, ChangeRecord{Symbol: as.Symbol, From: before, To: after})
		}
		a.logger.Debug().
			Str("symbol", as.Symbol).
			Str("value", kconfig.FormatValue(after)).
			Msg("Symbol changed")
	}
	return nil
}

func (a *Applier) checkAssertion(m *Module, at Assertion) error {
	sym, err := a.oracle.Lookup(at.Symbol)
	if err != nil {
		return NewPermanentError("symbol lookup failed", err).
			WithCode(ErrCodeUnknownSymbol).
			WithSymbol(at.Symbol).
			WithModule(m.Name)
	}

	actual := a.oracle.Value(sym)
	if actual != at.Value {
		return NewPermanentError(
			fmt.Sprintf("assertion failed: should be %s but is %s",
				kconfig.FormatValue(at.Value), kconfig.FormatValue(actual)),
			nil).
			WithCode(ErrCodeAssertionFailed).
			WithSymbol(at.Symbol).
			WithModule(m.Name)
	}
	return nil
}

// compatible reports whether a repeated assignment to value b is a no-op
// given the already-recorded value a.
func (a *Applier) compatible(prev, next string) bool {
	if prev == next {
		return true
	}
	if !a.TreatModYesEqual {
		return false
	}
	p, okP := kconfig.ParseTristate(prev)
	n, okN := kconfig.ParseTristate(next)
	return okP && okN && p.Bool() && n.Bool()
}
