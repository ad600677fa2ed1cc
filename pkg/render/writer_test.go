package render

import (
	"strings"
	"testing"

	"github.com/rheehot/autokernel/pkg/engine"
)

// body strips the two header lines so tests compare stable content only.
func body(t *testing.T, out string) string {
	t.Helper()
	lines := strings.SplitN(out, "\n", 3)
	if len(lines) != 3 {
		t.Fatalf("Expected header lines plus body, got: %q", out)
	}
	if !strings.HasPrefix(lines[0], "# Generated by autokernel on ") {
		t.Errorf("Unexpected generation header: %q", lines[0])
	}
	if lines[1] != "# vim: set ft=sh:" {
		t.Errorf("Unexpected modeline header: %q", lines[1])
	}
	return lines[2]
}

func testGraph(t *testing.T) *engine.Graph {
	t.Helper()
	g := engine.NewGraph()

	inet := engine.NewModule("config_inet")
	inet.Assign("INET", "y")
	net := engine.NewModule("config_net")
	net.AddDep(inet)
	net.Assign("NET", "y")
	net.Assign("HOSTNAME", "box")
	net.Assert("INET", "y")
	for _, m := range []*engine.Module{inet, net} {
		if err := g.Register(m); err != nil {
			t.Fatalf("Register(%s): %v", m.Name, err)
		}
	}
	return g
}

func TestKconfigWriter_RenderGraph(t *testing.T) {
	g := testGraph(t)

	var sb strings.Builder
	kw, err := NewKconfigWriter(&sb)
	if err != nil {
		t.Fatalf("NewKconfigWriter: %v", err)
	}
	if err := RenderGraph(g, kw); err != nil {
		t.Fatalf("RenderGraph: %v", err)
	}

	want := "# required by config_net\n" +
		"# module config_inet\n" +
		"CONFIG_INET=y\n" +
		"# module config_net\n" +
		"CONFIG_NET=y\n" +
		"CONFIG_HOSTNAME=\"box\"\n" +
		"# REQUIRES INET\n"
	if got := body(t, sb.String()); got != want {
		t.Errorf("Unexpected kconf output.\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestKconfigWriter_SkipsEmptyModules(t *testing.T) {
	g := engine.NewGraph()
	empty := engine.NewModule("empty")
	if err := g.Register(empty); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var sb strings.Builder
	kw, err := NewKconfigWriter(&sb)
	if err != nil {
		t.Fatalf("NewKconfigWriter: %v", err)
	}
	if err := RenderGraph(g, kw); err != nil {
		t.Fatalf("RenderGraph: %v", err)
	}
	if got := body(t, sb.String()); got != "" {
		t.Errorf("Expected empty body, got:\n%s", got)
	}
}

func TestModuleWriter_RenderGraph(t *testing.T) {
	g := testGraph(t)
	net, _ := g.Module("config_net")
	g.Select(net)
	g.SelectAll.Name = "local"

	var sb strings.Builder
	mw, err := NewModuleWriter(&sb)
	if err != nil {
		t.Fatalf("NewModuleWriter: %v", err)
	}
	if err := RenderGraph(g, mw); err != nil {
		t.Fatalf("RenderGraph: %v", err)
	}

	want := "# required by config_net\n" +
		"module config_inet {\n" +
		"\tset INET y;\n" +
		"}\n\n" +
		"# required by local\n" +
		"module config_net {\n" +
		"\tuse config_inet;\n" +
		"\tset NET y;\n" +
		"\tset HOSTNAME box;\n" +
		"\tassert INET;\n" +
		"}\n\n" +
		"module local {\n" +
		"\tuse config_net;\n" +
		"}\n\n"
	if got := body(t, sb.String()); got != want {
		t.Errorf("Unexpected module output.\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderGraph_SelectAllOmittedWithoutDeps(t *testing.T) {
	g := testGraph(t)

	var sb strings.Builder
	mw, err := NewModuleWriter(&sb)
	if err != nil {
		t.Fatalf("NewModuleWriter: %v", err)
	}
	if err := RenderGraph(g, mw); err != nil {
		t.Fatalf("RenderGraph: %v", err)
	}
	if strings.Contains(sb.String(), "module local") {
		t.Errorf("Expected no select-all block when nothing was selected:\n%s", sb.String())
	}
}

func TestRenderGraph_RebuildsReverseDepsEachRender(t *testing.T) {
	g := testGraph(t)

	for i := 0; i < 2; i++ {
		var sb strings.Builder
		kw, err := NewKconfigWriter(&sb)
		if err != nil {
			t.Fatalf("NewKconfigWriter: %v", err)
		}
		if err := RenderGraph(g, kw); err != nil {
			t.Fatalf("RenderGraph: %v", err)
		}
		if got := strings.Count(sb.String(), "# required by config_net"); got != 1 {
			t.Fatalf("Render %d: expected exactly one reverse-dep annotation, got %d", i+1, got)
		}
	}
}

func TestNewSink_InvalidFormat(t *testing.T) {
	if _, err := NewSink("xml", &strings.Builder{}); err == nil {
		t.Error("Expected an error for an unknown format")
	}
}
