package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/rheehot/autokernel/pkg/engine"
)

// Loader reads module files from files or directories and merges them into a
// single Model.
type Loader struct {
	logger   zerolog.Logger
	validate *validator.Validate
}

// NewLoader creates a module-file loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger:   logger.With().Str("component", "config").Logger(),
		validate: validator.New(),
	}
}

// fileRoot decodes all top-level blocks of one module file.
type fileRoot struct {
	Kernel  *kernelBlock   `hcl:"kernel,block"`
	Modules []*moduleBlock `hcl:"module,block"`
}

type kernelBlock struct {
	Module string `hcl:"module"`
}

type moduleBlock struct {
	Name    string        `hcl:"name,label"`
	Use     []string      `hcl:"use,optional"`
	Merge   []string      `hcl:"merge,optional"`
	Sets    []*valueBlock `hcl:"set,block"`
	Asserts []*valueBlock `hcl:"assert,block"`
}

// valueBlock holds the raw body of a set or assert block. The attribute names
// are symbol names, so they cannot be decoded through a fixed struct.
type valueBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Load parses every module file reachable from the given paths, merges the
// blocks in discovery order and validates the result.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Model, error) {
	files, err := l.findModuleFiles(paths)
	if err != nil {
		return nil, err
	}
	l.logger.Debug().Int("count", len(files)).Msg("Discovered module files")

	model := &Model{}
	parser := hclparse.NewParser()

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, engine.NewPermanentError(
				fmt.Sprintf("parsing module file %s", file), diags).
				WithCode(engine.ErrCodeValidation)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, engine.NewPermanentError(
				fmt.Sprintf("decoding module file %s", file), diags).
				WithCode(engine.ErrCodeValidation)
		}

		if root.Kernel != nil {
			if model.Kernel != "" && model.Kernel != root.Kernel.Module {
				return nil, engine.NewPermanentError(
					fmt.Sprintf("conflicting kernel blocks: %q and %q", model.Kernel, root.Kernel.Module), nil).
					WithCode(engine.ErrCodeValidation)
			}
			model.Kernel = root.Kernel.Module
		}

		for _, block := range root.Modules {
			mc, err := l.translateModule(block)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			model.Modules = append(model.Modules, mc)
		}
	}

	if err := model.Validate(l.validate); err != nil {
		return nil, err
	}
	l.logger.Debug().
		Int("modules", len(model.Modules)).
		Str("kernel", model.Kernel).
		Msg("Module files loaded")
	return model, nil
}

func (l *Loader) translateModule(block *moduleBlock) (*ModuleConfig, error) {
	mc := &ModuleConfig{
		Name:  block.Name,
		Use:   block.Use,
		Merge: block.Merge,
	}
	for _, set := range block.Sets {
		values, err := decodeValues(set.Body)
		if err != nil {
			return nil, fmt.Errorf("module %q set block: %w", block.Name, err)
		}
		mc.Sets = append(mc.Sets, values...)
	}
	for _, assert := range block.Asserts {
		values, err := decodeValues(assert.Body)
		if err != nil {
			return nil, fmt.Errorf("module %q assert block: %w", block.Name, err)
		}
		mc.Asserts = append(mc.Asserts, values...)
	}
	return mc, nil
}

// decodeValues turns the attributes of a set or assert block into ordered
// symbol/value pairs. Attribute maps carry no order, so pairs are sorted by
// source position to preserve declaration order.
func decodeValues(body hcl.Body) ([]SymbolValue, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		ordered = append(ordered, attr)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Range.Start.Byte < ordered[j].Range.Start.Byte
	})

	values := make([]SymbolValue, 0, len(ordered))
	for _, attr := range ordered {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		str, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", attr.Name, err)
		}
		values = append(values, SymbolValue{Symbol: attr.Name, Value: str.AsString()})
	}
	return values, nil
}

// findModuleFiles walks the given paths and returns every .hcl file once, in
// discovery order. A configured path that does not exist is skipped.
func (l *Loader) findModuleFiles(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, dup := seen[p]; !dup {
			files = append(files, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, engine.NewPermanentError(
				fmt.Sprintf("accessing %s", path), err).WithCode(engine.ErrCodeIO)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, engine.NewPermanentError(
				fmt.Sprintf("walking %s", path), err).WithCode(engine.ErrCodeIO)
		}
	}
	return files, nil
}
