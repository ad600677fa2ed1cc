package config

import (
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"github.com/go-playground/validator/v10"

	"github.com/rheehot/autokernel/pkg/engine"
)

// Settings carries tool-level configuration: where the symbol snapshot
// lives, where module files are found, and what the run should produce.
type Settings struct {
	// Snapshot is the path to the symbol-table snapshot (YAML).
	Snapshot string `json:"snapshot" validate:"required"`

	// Modules lists files or directories holding module files.
	Modules []string `json:"modules"`

	// Output is where generated configuration is written. Defaults to
	// ".config".
	Output string `json:"output"`

	// Catalog is the path to the hardware option catalog (YAML).
	Catalog string `json:"catalog"`

	// Store is the path to the run-history database. Empty disables
	// persistence.
	Store string `json:"store"`

	// Hardening configures the policy check.
	Hardening HardeningSettings `json:"hardening"`
}

// HardeningSettings toggles the builtin hardening policies.
type HardeningSettings struct {
	Enabled bool     `json:"enabled"`
	Skip    []string `json:"skip"`
}

// DefaultSettingsPath is tried when no settings file is given.
const DefaultSettingsPath = "/etc/autokernel/settings.cue"

// SettingsLoader evaluates CUE settings from a file or directory package.
type SettingsLoader struct {
	ctx      *cue.Context
	validate *validator.Validate
}

// NewSettingsLoader creates a settings loader.
func NewSettingsLoader() *SettingsLoader {
	return &SettingsLoader{
		ctx:      cuecontext.New(),
		validate: validator.New(),
	}
}

// Load evaluates the CUE source at path, decodes the top-level "settings"
// struct and validates it.
func (sl *SettingsLoader) Load(path string) (*Settings, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, engine.NewPermanentError(
			fmt.Sprintf("accessing settings %s", path), err).WithCode(engine.ErrCodeIO)
	}

	var val cue.Value
	if info.IsDir() {
		val, err = sl.loadDirectory(path)
	} else {
		val, err = sl.loadFile(path)
	}
	if err != nil {
		return nil, err
	}

	settingsVal := val.LookupPath(cue.ParsePath("settings"))
	if !settingsVal.Exists() {
		return nil, engine.NewPermanentError(
			fmt.Sprintf("%s: no settings struct found", path), nil).
			WithCode(engine.ErrCodeValidation)
	}

	settings := &Settings{}
	if err := settingsVal.Decode(settings); err != nil {
		return nil, engine.NewPermanentError(
			fmt.Sprintf("decoding settings from %s", path), cueError(err)).
			WithCode(engine.ErrCodeValidation)
	}
	if settings.Output == "" {
		settings.Output = ".config"
	}

	if err := sl.validate.Struct(settings); err != nil {
		return nil, engine.NewPermanentError(
			fmt.Sprintf("settings from %s invalid", path), err).
			WithCode(engine.ErrCodeValidation)
	}
	return settings, nil
}

func (sl *SettingsLoader) loadFile(path string) (cue.Value, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, engine.NewPermanentError(
			fmt.Sprintf("reading settings %s", path), err).WithCode(engine.ErrCodeIO)
	}
	val := sl.ctx.CompileString(string(content), cue.Filename(path))
	if err := val.Err(); err != nil {
		return cue.Value{}, engine.NewPermanentError(
			fmt.Sprintf("evaluating settings %s", path), cueError(err)).
			WithCode(engine.ErrCodeValidation)
	}
	return val, nil
}

func (sl *SettingsLoader) loadDirectory(dir string) (cue.Value, error) {
	instances := load.Instances([]string{dir}, nil)
	if len(instances) == 0 {
		return cue.Value{}, engine.NewPermanentError(
			fmt.Sprintf("no CUE files found in %s", dir), nil).
			WithCode(engine.ErrCodeValidation)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, engine.NewPermanentError(
			fmt.Sprintf("loading settings package %s", dir), cueError(inst.Err)).
			WithCode(engine.ErrCodeValidation)
	}
	val := sl.ctx.BuildInstance(inst)
	if err := val.Err(); err != nil {
		return cue.Value{}, engine.NewPermanentError(
			fmt.Sprintf("evaluating settings package %s", dir), cueError(err)).
			WithCode(engine.ErrCodeValidation)
	}
	return val, nil
}

// cueError flattens a CUE error list into a single error carrying every
// position-annotated detail line.
func cueError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, strings.TrimSpace(cueerrors.Details(e, &cueerrors.Config{ToSlash: true})))
	}
	return fmt.Errorf("%s", strings.Join(parts, "; "))
}
