package policy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"
)

// Engine compiles and evaluates hardening policies.
type Engine struct {
	mu       sync.RWMutex
	policies map[string]*compiledPolicy
	order    []string
	logger   zerolog.Logger
}

// compiledPolicy is a policy with its deny query prepared for reuse.
type compiledPolicy struct {
	policy   *Policy
	query    rego.PreparedEvalQuery
	compiled time.Time
}

// NewEngine creates a policy engine with the builtin policies loaded.
func NewEngine(logger zerolog.Logger) (*Engine, error) {
	e := &Engine{
		policies: make(map[string]*compiledPolicy),
		logger:   logger.With().Str("component", "policy").Logger(),
	}

	builtin := BuiltinPolicies()
	for i := range builtin {
		if err := e.compileAndStore(context.Background(), &builtin[i]); err != nil {
			return nil, fmt.Errorf("failed to compile builtin policy %s: %w", builtin[i].Name, err)
		}
	}
	e.logger.Debug().Int("count", len(builtin)).Msg("Builtin policies loaded")
	return e, nil
}

// Evaluate runs every enabled policy against the resolved symbol map.
// Policies named in skip are not run. A policy that fails to evaluate is
// reported as a warning, never as a violation.
func (e *Engine) Evaluate(ctx context.Context, symbols map[string]string, skip []string) (*Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	skipped := make(map[string]struct{}, len(skip))
	for _, name := range skip {
		skipped[name] = struct{}{}
	}

	input := Input{Symbols: symbols}
	result := &Result{Passed: true}

	for _, name := range e.order {
		cp := e.policies[name]
		if !cp.policy.Enabled {
			continue
		}
		if _, ok := skipped[name]; ok {
			continue
		}
		result.EvaluatedPolicies = append(result.EvaluatedPolicies, name)

		violations, err := e.evaluatePolicy(ctx, cp, input)
		if err != nil {
			e.logger.Error().Err(err).Str("policy", name).Msg("Policy evaluation failed")
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("policy %s evaluation failed: %v", name, err))
			continue
		}
		result.Violations = append(result.Violations, violations...)
	}

	for i := range result.Violations {
		if result.Violations[i].Severity == SeverityError {
			result.Passed = false
			break
		}
	}
	result.EvaluatedAt = time.Now()

	e.logger.Debug().
		Int("violations", len(result.Violations)).
		Bool("passed", result.Passed).
		Msg("Policy evaluation completed")
	return result, nil
}

// evaluatePolicy runs one prepared deny query and converts the deny set
// into violations.
func (e *Engine) evaluatePolicy(ctx context.Context, cp *compiledPolicy, input Input) ([]Violation, error) {
	results, err := cp.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("policy evaluation error: %w", err)
	}

	var violations []Violation
	for _, result := range results {
		for _, expr := range result.Expressions {
			denySet, ok := expr.Value.([]interface{})
			if !ok {
				continue
			}
			for _, d := range denySet {
				violations = append(violations, e.toViolation(cp.policy, d))
			}
		}
	}
	return violations, nil
}

// toViolation converts one deny-set element into a Violation.
func (e *Engine) toViolation(policy *Policy, result interface{}) Violation {
	violation := Violation{
		Policy:     policy.Name,
		Severity:   policy.Severity,
		DetectedAt: time.Now(),
	}

	switch v := result.(type) {
	case string:
		violation.Message = v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			violation.Message = msg
		}
		if sev, ok := v["severity"].(string); ok {
			violation.Severity = Severity(sev)
		}
		if sym, ok := v["symbol"].(string); ok {
			violation.Symbol = sym
		}
	default:
		violation.Message = fmt.Sprintf("%v", result)
	}
	return violation
}

// compileAndStore prepares a policy's deny query and registers it.
func (e *Engine) compileAndStore(ctx context.Context, policy *Policy) error {
	packageName := extractPackageName(policy.Rego)

	r := rego.New(
		rego.Module(policy.Name, policy.Rego),
		rego.Query(fmt.Sprintf("data.%s.deny", packageName)),
	)
	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return fmt.Errorf("failed to prepare query: %w", err)
	}

	if _, exists := e.policies[policy.Name]; !exists {
		e.order = append(e.order, policy.Name)
	}
	e.policies[policy.Name] = &compiledPolicy{
		policy:   policy,
		query:    query,
		compiled: time.Now(),
	}
	return nil
}

// extractPackageName extracts the package name from Rego source.
func extractPackageName(source string) string {
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "package ") {
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				return parts[1]
			}
		}
	}
	return "autokernel.hardening"
}

// LoadPolicies compiles and registers additional policies from .rego files.
func (e *Engine) LoadPolicies(ctx context.Context, paths []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	loader := NewLoader(e.logger)
	policies, err := loader.LoadFromPaths(ctx, paths)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}

	for i := range policies {
		if err := e.compileAndStore(ctx, &policies[i]); err != nil {
			return fmt.Errorf("failed to compile policy %s: %w", policies[i].Name, err)
		}
	}
	e.logger.Info().Int("count", len(policies)).Msg("Policies loaded")
	return nil
}

// GetPolicy returns a policy by name.
func (e *Engine) GetPolicy(name string) (*Policy, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cp, exists := e.policies[name]
	if !exists {
		return nil, fmt.Errorf("policy not found: %s", name)
	}
	return cp.policy, nil
}

// ListPolicies returns all registered policies sorted by name.
func (e *Engine) ListPolicies() []Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	policies := make([]Policy, 0, len(e.policies))
	for _, cp := range e.policies {
		policies = append(policies, *cp.policy)
	}
	sort.Slice(policies, func(i, j int) bool {
		return policies[i].Name < policies[j].Name
	})
	return policies
}

// SetEnabled enables or disables a policy by name.
func (e *Engine) SetEnabled(name string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp, exists := e.policies[name]
	if !exists {
		return fmt.Errorf("policy not found: %s", name)
	}
	cp.policy.Enabled = enabled
	return nil
}
