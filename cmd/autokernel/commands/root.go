package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rheehot/autokernel/pkg/telemetry"
)

var (
	// Global flags
	settingsPath string
	verbose      bool
	jsonOutput   bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "autokernel",
		Short: "Autokernel - Kernel configuration management",
		Long: `Autokernel resolves a declarative kernel configuration: modules declare
option assignments and assertions, dependencies between options are expanded
automatically, and conflicting assignments are detected instead of silently
overwritten.

Features:
  - Module files in HCL, settings in CUE
  - Automatic dependency resolution against a symbol-table snapshot
  - Hardware detection from sysfs with a catalog of matching options
  - Conflict detection with precise attribution to the assigning modules
  - Hardening policy checks via Rego
  - Run history in a local SQLite database`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logCfg := telemetry.DefaultConfig().Logging
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				logCfg.Level = "debug"
			}
			if logger, err := telemetry.NewLogger(logCfg); err == nil {
				cmd.SetContext(logger.WithContext(cmd.Context()))
			}
		},
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "settings", "c", "", "settings file path (CUE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newDetectCommand())
	rootCmd.AddCommand(newDepsCommand())
	rootCmd.AddCommand(newSearchCommand())

	return rootCmd
}
