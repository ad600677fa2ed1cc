// Package kconfig defines the symbol oracle contract consumed by the
// resolution engine, together with a snapshot-based oracle implementation
// and helpers for the kernel value-file format.
//
// The oracle owns all symbol state: metadata, current values, dependency
// expressions and their evaluation. The engine only reaches it through the
// narrow Oracle interface so tests can inject a deterministic fake.
package kconfig

import (
	"fmt"
)

// Tristate is the value domain of boolean and tristate symbols.
type Tristate int

// Tristate values, ordered so that numeric comparison matches kconfig
// semantics (No < Mod < Yes).
const (
	No Tristate = iota
	Mod
	Yes
)

// String returns the value-file representation of the tristate.
func (t Tristate) String() string {
	switch t {
	case Mod:
		return "m"
	case Yes:
		return "y"
	default:
		return "n"
	}
}

// Bool reduces a tristate to enabled/disabled, treating Mod as enabled.
func (t Tristate) Bool() bool {
	return t != No
}

// ParseTristate parses "n", "m" or "y". The second return value reports
// whether the input was a tristate literal at all.
func ParseTristate(s string) (Tristate, bool) {
	switch s {
	case "n":
		return No, true
	case "m":
		return Mod, true
	case "y":
		return Yes, true
	default:
		return No, false
	}
}

// IsTristateValue reports whether a raw value string is a tristate literal.
func IsTristateValue(v string) bool {
	_, ok := ParseTristate(v)
	return ok
}

// FormatValue renders a value for log and error messages: tristate values in
// brackets, everything else single-quoted.
func FormatValue(v string) string {
	if IsTristateValue(v) {
		return "[" + v + "]"
	}
	return "'" + v + "'"
}

// SymbolType describes the value domain of a symbol.
type SymbolType string

// Symbol types understood by the snapshot oracle.
const (
	TypeBool     SymbolType = "bool"
	TypeTristate SymbolType = "tristate"
	TypeString   SymbolType = "string"
	TypeInt      SymbolType = "int"
	TypeHex      SymbolType = "hex"
)

// Symbol is an opaque handle to a configuration symbol owned by an Oracle.
// Handles are comparable; the engine memoizes per-symbol work by handle
// identity, so an oracle must return the same handle for the same symbol
// for its whole lifetime.
type Symbol interface {
	// Name returns the unique symbol name, without any CONFIG_ prefix.
	Name() string

	// Type returns the symbol's value domain.
	Type() SymbolType
}

// DependencyPair pairs a symbol with the boolean value it must hold for a
// dependent symbol's dependency expression to become satisfiable.
type DependencyPair struct {
	Symbol   Symbol
	Required bool
}

// Oracle is the symbol store and dependency evaluator the engine runs
// against. All calls are blocking; SetValue and MergeValueFile mutate
// shared oracle state.
type Oracle interface {
	// Lookup resolves a symbol name to its handle. Unknown names fail with
	// *UnknownSymbolError.
	Lookup(name string) (Symbol, error)

	// Value returns the symbol's current value as a value-file string.
	Value(sym Symbol) string

	// SetValue requests a new value for the symbol. A false return means the
	// oracle rejected the value outright (wrong domain, not settable); the
	// caller decides whether that is fatal. Even on true, the resulting
	// value may differ from the request when dependencies clamp it.
	SetValue(sym Symbol, value string) bool

	// DirectDepSatisfied reports whether the symbol's direct dependency
	// expression evaluates to true in the oracle's current state.
	DirectDepSatisfied(sym Symbol) bool

	// RequiredDeps returns the minimal ordered set of (symbol, bool) pairs
	// that must hold for the symbol's dependency expression to be
	// satisfiable.
	RequiredDeps(sym Symbol) []DependencyPair

	// MergeValueFile applies a value file on top of the current state,
	// preserving the file's assignment order.
	MergeValueFile(path string) error

	// LoadReferenceValues replaces current values with the ones from the
	// given value file. An empty path loads the running system's value
	// snapshot (/proc/config.gz).
	LoadReferenceValues(path string) error
}

// UnknownSymbolError is returned by Oracle.Lookup for names the oracle has
// no symbol for.
type UnknownSymbolError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q", e.Name)
}
