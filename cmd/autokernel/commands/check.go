package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rheehot/autokernel/pkg/kconfig"
	"github.com/rheehot/autokernel/pkg/policy"
)

func newCheckCommand() *cobra.Command {
	var (
		compareConfig string
		hardening     bool
		policyPaths   []string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the resolved configuration against a reference",
		Long: `Check the configured modules against the running kernel or a reference
configuration file.

The module configuration is applied to a fresh symbol table, then every
resolved value is compared against the reference. Without --compare-config
the running kernel's /proc/config.gz is used as the reference.

With --hardening, the resolved configuration is additionally evaluated
against the built-in hardening policies; error-severity violations fail
the check.`,
		Example: `  # Compare against the running kernel
  autokernel check

  # Compare against a saved configuration
  autokernel check --compare-config /boot/config-6.8.0

  # Run the hardening policy check as well
  autokernel check --hardening

  # Include custom Rego policies
  autokernel check --hardening --policy ./policies`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := loadRuntime(ctx)
			if err != nil {
				return err
			}
			if _, _, err := rt.applyUserConfig(ctx); err != nil {
				return err
			}

			// A second oracle holds the reference values; the resolved one
			// must stay untouched for the comparison.
			reference, err := kconfig.LoadSnapshot(rt.settings.Snapshot)
			if err != nil {
				return err
			}
			if err := reference.LoadReferenceValues(compareConfig); err != nil {
				return err
			}

			lines, err := referenceDiffLines(rt.oracle, reference)
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Println(line)
			}
			if len(lines) == 0 {
				fmt.Println("✓ Configuration matches the reference")
			} else {
				fmt.Printf("%d symbol(s) differ from the reference\n", len(lines))
			}

			if !hardening && !rt.settings.Hardening.Enabled {
				return nil
			}
			return runHardeningCheck(cmd, rt, policyPaths)
		},
	}

	cmd.Flags().StringVar(&compareConfig, "compare-config", "", "reference configuration file (defaults to /proc/config.gz)")
	cmd.Flags().BoolVar(&hardening, "hardening", false, "evaluate hardening policies against the resolved configuration")
	cmd.Flags().StringSliceVar(&policyPaths, "policy", nil, "additional Rego policy files or directories")

	return cmd
}

// referenceDiffLines reports every symbol whose reference value differs
// from the resolved value, in declaration order, one "[old -> new] SYMBOL"
// line per difference. Values are printed bare, as they appear in a value
// file.
func referenceDiffLines(resolved, reference *kconfig.SnapshotOracle) ([]string, error) {
	var lines []string
	for _, sym := range resolved.Symbols() {
		want := resolved.Value(sym)
		refSym, err := reference.Lookup(sym.Name())
		if err != nil {
			return nil, err
		}
		if have := reference.Value(refSym); have != want {
			lines = append(lines, fmt.Sprintf("[%s -> %s] %s", have, want, sym.Name()))
		}
	}
	return lines, nil
}

// runHardeningCheck evaluates the hardening policies against the resolved
// oracle state and reports violations. Error-severity violations make the
// command fail.
func runHardeningCheck(cmd *cobra.Command, rt *runtime, policyPaths []string) error {
	ctx := cmd.Context()

	eng, err := policy.NewEngine(log.Logger)
	if err != nil {
		return err
	}
	if len(policyPaths) > 0 {
		if err := eng.LoadPolicies(ctx, policyPaths); err != nil {
			return err
		}
	}

	symbols := make(map[string]string)
	for _, sym := range rt.oracle.Symbols() {
		symbols[sym.Name()] = rt.oracle.Value(sym)
	}

	result, err := eng.Evaluate(ctx, symbols, rt.settings.Hardening.Skip)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		for _, v := range result.Violations {
			marker := "!"
			if v.Severity == policy.SeverityError {
				marker = "✗"
			}
			if v.Symbol != "" {
				fmt.Printf("%s [%s] %s: %s\n", marker, v.Policy, v.Symbol, v.Message)
			} else {
				fmt.Printf("%s [%s] %s\n", marker, v.Policy, v.Message)
			}
		}
		for _, w := range result.Warnings {
			log.Warn().Str("detail", w).Msg("Policy evaluation warning")
		}
	}

	if !result.Passed {
		return fmt.Errorf("hardening check failed with %d violation(s)", len(result.Violations))
	}
	if len(result.Violations) > 0 {
		fmt.Printf("Hardening check passed with %d warning(s)\n", len(result.Violations))
	} else {
		fmt.Println("✓ Hardening check passed")
	}
	return nil
}
