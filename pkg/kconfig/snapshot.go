package kconfig

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// SnapshotOracle is an Oracle backed by a pre-evaluated symbol table loaded
// from a YAML snapshot. The snapshot carries, per symbol, the value domain,
// the default value, and the minimal dependency pairs its dependency
// expression reduces to, so no Kconfig parsing or expression evaluation
// happens here.
type SnapshotOracle struct {
	symbols map[string]*snapshotSymbol
	order   []string
}

type snapshotSymbol struct {
	name     string
	typ      SymbolType
	value    string
	def      string
	deps     []DependencyPair
	settable []string
}

// Name implements Symbol.
func (s *snapshotSymbol) Name() string { return s.name }

// Type implements Symbol.
func (s *snapshotSymbol) Type() SymbolType { return s.typ }

// snapshotFile is the on-disk YAML layout.
type snapshotFile struct {
	Symbols []snapshotEntry `yaml:"symbols"`
}

type snapshotEntry struct {
	Name     string         `yaml:"name"`
	Type     SymbolType     `yaml:"type"`
	Value    string         `yaml:"value"`
	Depends  []snapshotDep  `yaml:"depends,omitempty"`
	Settable []string       `yaml:"settable,omitempty"`
}

type snapshotDep struct {
	Symbol   string `yaml:"symbol"`
	Required bool   `yaml:"required"`
}

// LoadSnapshot reads a symbol-table snapshot from the given YAML file.
func LoadSnapshot(path string) (*SnapshotOracle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	o, err := ParseSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}

// ParseSnapshot decodes a symbol-table snapshot from a reader.
func ParseSnapshot(r io.Reader) (*SnapshotOracle, error) {
	var file snapshotFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding symbol snapshot: %w", err)
	}

	o := &SnapshotOracle{symbols: make(map[string]*snapshotSymbol)}
	for _, entry := range file.Symbols {
		if entry.Name == "" {
			return nil, fmt.Errorf("symbol with empty name")
		}
		if _, exists := o.symbols[entry.Name]; exists {
			return nil, fmt.Errorf("duplicate symbol %q", entry.Name)
		}
		typ := entry.Type
		if typ == "" {
			typ = TypeTristate
		}
		value := entry.Value
		if value == "" && (typ == TypeBool || typ == TypeTristate) {
			value = No.String()
		}
		o.symbols[entry.Name] = &snapshotSymbol{
			name:     entry.Name,
			typ:      typ,
			value:    value,
			def:      value,
			settable: entry.Settable,
		}
		o.order = append(o.order, entry.Name)
	}

	// Dependency pairs can only be resolved once every symbol exists.
	for _, entry := range file.Symbols {
		sym := o.symbols[entry.Name]
		for _, dep := range entry.Depends {
			target, ok := o.symbols[dep.Symbol]
			if !ok {
				return nil, fmt.Errorf("symbol %q depends on unknown symbol %q", entry.Name, dep.Symbol)
			}
			sym.deps = append(sym.deps, DependencyPair{Symbol: target, Required: dep.Required})
		}
	}
	return o, nil
}

// Lookup implements Oracle.
func (o *SnapshotOracle) Lookup(name string) (Symbol, error) {
	sym, ok := o.symbols[name]
	if !ok {
		return nil, &UnknownSymbolError{Name: name}
	}
	return sym, nil
}

// Value implements Oracle.
func (o *SnapshotOracle) Value(sym Symbol) string {
	return sym.(*snapshotSymbol).value
}

// SetValue implements Oracle. Bool symbols promote "m" to "y" the way the
// kernel's own tooling does, which makes the readback differ from the
// request without the set being a rejection.
func (o *SnapshotOracle) SetValue(sym Symbol, value string) bool {
	s := sym.(*snapshotSymbol)
	if len(s.settable) > 0 && !contains(s.settable, value) {
		return false
	}
	switch s.typ {
	case TypeBool:
		t, ok := ParseTristate(value)
		if !ok {
			return false
		}
		if t == Mod {
			t = Yes
		}
		s.value = t.String()
	case TypeTristate:
		t, ok := ParseTristate(value)
		if !ok {
			return false
		}
		s.value = t.String()
	default:
		s.value = value
	}
	return true
}

// DirectDepSatisfied implements Oracle.
func (o *SnapshotOracle) DirectDepSatisfied(sym Symbol) bool {
	for _, dep := range sym.(*snapshotSymbol).deps {
		target := dep.Symbol.(*snapshotSymbol)
		t, _ := ParseTristate(target.value)
		if t.Bool() != dep.Required {
			return false
		}
	}
	return true
}

// RequiredDeps implements Oracle.
func (o *SnapshotOracle) RequiredDeps(sym Symbol) []DependencyPair {
	return sym.(*snapshotSymbol).deps
}

// MergeValueFile implements Oracle. Symbols the snapshot does not know are
// skipped; value files routinely carry more options than a trimmed table.
func (o *SnapshotOracle) MergeValueFile(path string) error {
	entries, err := ReadValueFile(path)
	if err != nil {
		return err
	}
	o.mergeEntries(entries)
	return nil
}

// LoadReferenceValues implements Oracle. Every symbol is reset to its
// snapshot default before the reference values are merged, so the result
// reflects the reference file alone.
func (o *SnapshotOracle) LoadReferenceValues(path string) error {
	entries, err := ReadValueFile(path)
	if err != nil {
		return err
	}
	for _, name := range o.order {
		sym := o.symbols[name]
		sym.value = sym.def
	}
	o.mergeEntries(entries)
	return nil
}

func (o *SnapshotOracle) mergeEntries(entries []ValueEntry) {
	for _, entry := range entries {
		sym, ok := o.symbols[entry.Symbol]
		if !ok {
			continue
		}
		o.SetValue(sym, entry.Value)
	}
}

// Symbols returns every symbol handle in snapshot declaration order.
func (o *SnapshotOracle) Symbols() []Symbol {
	syms := make([]Symbol, 0, len(o.order))
	for _, name := range o.order {
		syms = append(syms, o.symbols[name])
	}
	return syms
}

// WriteConfig writes the oracle's full value state in value-file format,
// preceded by the given header lines.
func (o *SnapshotOracle) WriteConfig(w io.Writer, header string) error {
	if header != "" {
		if _, err := io.WriteString(w, header); err != nil {
			return err
		}
	}
	for _, name := range o.order {
		sym := o.symbols[name]
		if _, err := fmt.Fprintln(w, FormatValueLine(sym.name, sym.value, sym.typ)); err != nil {
			return err
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
