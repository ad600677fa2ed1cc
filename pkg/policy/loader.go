package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Loader reads policies from .rego files.
type Loader struct {
	logger zerolog.Logger
}

// NewLoader creates a new policy loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger: logger.With().Str("component", "policy-loader").Logger(),
	}
}

// LoadFromPaths loads policies from a list of file or directory paths.
func (l *Loader) LoadFromPaths(ctx context.Context, paths []string) ([]Policy, error) {
	var policies []Policy
	for _, path := range paths {
		loaded, err := l.loadFromPath(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load from path %s: %w", path, err)
		}
		policies = append(policies, loaded...)
	}
	l.logger.Debug().
		Int("total", len(policies)).
		Int("sources", len(paths)).
		Msg("Policies loaded from paths")
	return policies, nil
}

func (l *Loader) loadFromPath(ctx context.Context, path string) ([]Policy, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	if !info.IsDir() {
		policy, err := l.loadFile(path)
		if err != nil {
			return nil, err
		}
		return []Policy{policy}, nil
	}

	var policies []Policy
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if info.IsDir() || filepath.Ext(p) != ".rego" {
			return nil
		}
		policy, err := l.loadFile(p)
		if err != nil {
			return err
		}
		policies = append(policies, policy)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return policies, nil
}

// loadFile reads one .rego file. The policy name is the file name without
// extension; a leading "# description: ..." comment becomes the description.
func (l *Loader) loadFile(path string) (Policy, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	policy := Policy{
		Name:     name,
		Rego:     string(content),
		Severity: SeverityError,
		Enabled:  true,
	}
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# description:") {
			policy.Description = strings.TrimSpace(strings.TrimPrefix(trimmed, "# description:"))
			break
		}
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			break
		}
	}
	return policy, nil
}
