package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rheehot/autokernel/pkg/engine"
)

const settingsSource = `
settings: {
	snapshot: "/var/lib/autokernel/symbols.yaml"
	modules: ["/etc/autokernel/modules.d"]
	catalog: "/etc/autokernel/catalog.yaml"
	store:   "/var/lib/autokernel/runs.db"
	hardening: {
		enabled: true
		skip: ["kexec"]
	}
}
`

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.cue")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSettingsLoader_Load(t *testing.T) {
	path := writeSettings(t, settingsSource)

	settings, err := NewSettingsLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if settings.Snapshot != "/var/lib/autokernel/symbols.yaml" {
		t.Errorf("Unexpected snapshot path: %q", settings.Snapshot)
	}
	if len(settings.Modules) != 1 || settings.Modules[0] != "/etc/autokernel/modules.d" {
		t.Errorf("Unexpected modules: %v", settings.Modules)
	}
	if settings.Output != ".config" {
		t.Errorf("Expected default output .config, got %q", settings.Output)
	}
	if !settings.Hardening.Enabled {
		t.Error("Expected hardening enabled")
	}
	if len(settings.Hardening.Skip) != 1 || settings.Hardening.Skip[0] != "kexec" {
		t.Errorf("Unexpected hardening skip list: %v", settings.Hardening.Skip)
	}
}

func TestSettingsLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "no settings struct",
			content: `other: {}`,
		},
		{
			name: "missing snapshot",
			content: `
settings: {
	output: "out.config"
}
`,
		},
		{
			name:    "evaluation error",
			content: `settings: { snapshot: 1 & "two" }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSettings(t, tt.content)
			_, err := NewSettingsLoader().Load(path)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !engine.HasCode(err, engine.ErrCodeValidation) {
				t.Errorf("Expected VALIDATION_ERROR, got: %v", err)
			}
		})
	}
}

func TestSettingsLoader_MissingFile(t *testing.T) {
	_, err := NewSettingsLoader().Load(filepath.Join(t.TempDir(), "missing.cue"))
	if err == nil || !engine.HasCode(err, engine.ErrCodeIO) {
		t.Errorf("Expected IO_ERROR, got: %v", err)
	}
}
