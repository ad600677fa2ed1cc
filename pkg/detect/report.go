package detect

import (
	"github.com/rheehot/autokernel/pkg/engine"
	"github.com/rheehot/autokernel/pkg/kconfig"
)

// MatchState classifies one detected option against a reference value set.
type MatchState string

// Match states, from best to worst.
const (
	// StateMatch means the reference value equals the desired value.
	StateMatch MatchState = "match"

	// StateMixed means both values enable the option but disagree on
	// builtin versus module.
	StateMixed MatchState = "mixed"

	// StateMismatch means the option is not in the desired state.
	StateMismatch MatchState = "mismatch"
)

// OptionStatus reports one detected option's desired value against the
// reference value the oracle currently holds.
type OptionStatus struct {
	Symbol  string     `json:"symbol"`
	Desired string     `json:"desired"`
	Actual  string     `json:"actual"`
	State   MatchState `json:"state"`
}

// CompareDetected walks a detected module graph in dependency order,
// visiting each module and each option once, and reports every assignment's
// desired value against the oracle's current (reference) value. The order
// is dependency-before-dependent, so applying the report top to bottom is
// valid.
func CompareDetected(graph *engine.Graph, oracle kconfig.Oracle) ([]OptionStatus, error) {
	var report []OptionStatus
	seen := make(map[string]bool)

	walker := engine.NewWalker()
	visit := func(m *engine.Module) error {
		for _, as := range m.Assignments {
			if seen[as.Symbol] {
				continue
			}
			seen[as.Symbol] = true

			sym, err := oracle.Lookup(as.Symbol)
			if err != nil {
				return engine.NewPermanentError("symbol lookup failed", err).
					WithCode(engine.ErrCodeUnknownSymbol).
					WithSymbol(as.Symbol).
					WithModule(m.Name)
			}
			actual := oracle.Value(sym)
			report = append(report, OptionStatus{
				Symbol:  as.Symbol,
				Desired: as.Value,
				Actual:  actual,
				State:   classify(as.Value, actual),
			})
		}
		return nil
	}

	for _, m := range graph.Modules() {
		if err := walker.Walk(m, visit); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func classify(desired, actual string) MatchState {
	want, wantTri := kconfig.ParseTristate(desired)
	got, gotTri := kconfig.ParseTristate(actual)
	if !wantTri || !gotTri {
		if desired == actual {
			return StateMatch
		}
		return StateMismatch
	}
	switch {
	case want == got:
		return StateMatch
	case want.Bool() == got.Bool():
		return StateMixed
	default:
		return StateMismatch
	}
}
