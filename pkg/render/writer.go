// Package render serializes finished module graphs into the two output
// formats: the raw kernel value format and the structured module-definition
// format. Both are pure, read-only passes over the graph.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/rheehot/autokernel/pkg/engine"
	"github.com/rheehot/autokernel/pkg/kconfig"
)

// ModuleSink writes one module at a time in some output format.
type ModuleSink interface {
	WriteModule(m *engine.Module) error
}

// GenerationHeader returns the timestamp comment both formats start with.
func GenerationHeader(now time.Time) string {
	return fmt.Sprintf("# Generated by autokernel on %s\n",
		now.UTC().Format("2006-01-02 15:04:05 UTC"))
}

// ModelineHeader returns the fixed editor-hint comment both formats carry.
func ModelineHeader() string {
	return "# vim: set ft=sh:\n"
}

func writeHeaders(w io.Writer) error {
	if _, err := io.WriteString(w, GenerationHeader(time.Now())); err != nil {
		return err
	}
	_, err := io.WriteString(w, ModelineHeader())
	return err
}

// KconfigWriter emits modules in the raw kernel value format: one
// CONFIG_NAME=value line per assignment (string values double-quoted,
// tristate values bare) and one comment annotation per assertion.
// Modules with neither assignments nor assertions are skipped.
type KconfigWriter struct {
	w io.Writer
}

// NewKconfigWriter creates a writer and emits the format headers.
func NewKconfigWriter(w io.Writer) (*KconfigWriter, error) {
	if err := writeHeaders(w); err != nil {
		return nil, err
	}
	return &KconfigWriter{w: w}, nil
}

// WriteModule implements ModuleSink.
func (kw *KconfigWriter) WriteModule(m *engine.Module) error {
	if m.Empty() {
		return nil
	}

	for _, d := range m.RevDeps {
		if _, err := fmt.Fprintf(kw.w, "# required by %s\n", d.Name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(kw.w, "# module %s\n", m.Name); err != nil {
		return err
	}
	for _, as := range m.Assignments {
		var err error
		if kconfig.IsTristateValue(as.Value) {
			_, err = fmt.Fprintf(kw.w, "CONFIG_%s=%s\n", as.Symbol, as.Value)
		} else {
			_, err = fmt.Fprintf(kw.w, "CONFIG_%s=%q\n", as.Symbol, as.Value)
		}
		if err != nil {
			return err
		}
	}
	for _, at := range m.Assertions {
		if _, err := fmt.Fprintf(kw.w, "# REQUIRES %s\n", at.Symbol); err != nil {
			return err
		}
	}
	return nil
}

// ModuleWriter emits modules in the structured module-definition format:
//
//	module <name> {
//		use <dep>;
//		set <symbol> <value>;
//		assert <symbol>;
//	}
//
// Unlike the raw format it always emits a block, even for empty modules.
type ModuleWriter struct {
	w io.Writer
}

// NewModuleWriter creates a writer and emits the format headers.
func NewModuleWriter(w io.Writer) (*ModuleWriter, error) {
	if err := writeHeaders(w); err != nil {
		return nil, err
	}
	return &ModuleWriter{w: w}, nil
}

// WriteModule implements ModuleSink.
func (mw *ModuleWriter) WriteModule(m *engine.Module) error {
	for _, d := range m.RevDeps {
		if _, err := fmt.Fprintf(mw.w, "# required by %s\n", d.Name); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(mw.w, "module %s {\n", m.Name); err != nil {
		return err
	}
	for _, d := range m.Deps {
		if _, err := fmt.Fprintf(mw.w, "\tuse %s;\n", d.Name); err != nil {
			return err
		}
	}
	for _, as := range m.Assignments {
		if _, err := fmt.Fprintf(mw.w, "\tset %s %s;\n", as.Symbol, as.Value); err != nil {
			return err
		}
	}
	for _, at := range m.Assertions {
		if _, err := fmt.Fprintf(mw.w, "\tassert %s;\n", at.Symbol); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(mw.w, "}\n\n")
	return err
}

// RenderGraph rebuilds reverse dependencies and writes every registered
// module in registration order. Each rendered module is self-contained, so
// dependency order is not required of the render order. The select-all
// module goes last, and only when the run selected anything.
func RenderGraph(g *engine.Graph, sink ModuleSink) error {
	g.RebuildReverseDeps()

	for _, m := range g.Modules() {
		if err := sink.WriteModule(m); err != nil {
			return err
		}
	}
	if len(g.SelectAll.Deps) > 0 {
		return sink.WriteModule(g.SelectAll)
	}
	return nil
}

// Format names accepted on the command line.
const (
	FormatKconf  = "kconf"
	FormatModule = "module"
)

// NewSink constructs the ModuleSink for a format name.
func NewSink(format string, w io.Writer) (ModuleSink, error) {
	switch format {
	case FormatKconf:
		return NewKconfigWriter(w)
	case FormatModule:
		return NewModuleWriter(w)
	default:
		return nil, fmt.Errorf("invalid output format %q", format)
	}
}
