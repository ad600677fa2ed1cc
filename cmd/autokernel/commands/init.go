package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rheehot/autokernel/pkg/stores"
)

const defaultSettings = `settings: {
	// Symbol-table snapshot for the target kernel tree.
	snapshot: "snapshot.yaml"

	// Module files or directories, loaded in order.
	modules: ["modules.d"]

	// Where 'generate' writes the resolved configuration.
	output: ".config"

	// Hardware option catalog used by 'detect'. Optional.
	// catalog: "catalog.yaml"

	// Run-history database. Remove to disable persistence.
	store: "autokernel.db"

	hardening: {
		enabled: false
		skip: []
	}
}
`

const defaultModule = `kernel {
  module = "base"
}

module "base" {
  set {
    # DEFAULT_HOSTNAME = "mine"
  }
}
`

func newInitCommand() *cobra.Command {
	var (
		dir   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize an autokernel workspace",
		Long: `Initialize a workspace with a starter settings file, a module directory
and the run-history database.

Existing files are left alone unless --force is given.`,
		Example: `  # Initialize the current directory
  autokernel init

  # Initialize a dedicated configuration directory
  autokernel init --dir /etc/autokernel`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			log.Info().Str("dir", dir).Msg("Initializing workspace")
			fmt.Printf("Initializing autokernel workspace in %s\n\n", dir)

			modulesDir := filepath.Join(dir, "modules.d")
			if err := os.MkdirAll(modulesDir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", modulesDir, err)
			}
			fmt.Printf("✓ Created directory: %s\n", modulesDir)

			files := []struct {
				path    string
				content string
			}{
				{filepath.Join(dir, "settings.cue"), defaultSettings},
				{filepath.Join(modulesDir, "base.hcl"), defaultModule},
			}
			for _, f := range files {
				if _, err := os.Stat(f.path); err == nil && !force {
					fmt.Printf("- Kept existing file: %s\n", f.path)
					continue
				}
				if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", f.path, err)
				}
				fmt.Printf("✓ Created file: %s\n", f.path)
			}

			dbPath := filepath.Join(dir, "autokernel.db")
			store, err := stores.NewSQLiteStore(stores.Config{Path: dbPath})
			if err != nil {
				return fmt.Errorf("failed to create store: %w", err)
			}
			if err := store.Init(ctx); err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}
			defer store.Close()
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			fmt.Printf("✓ Initialized run-history database: %s\n", dbPath)

			fmt.Println("\nNext steps:")
			fmt.Printf("  1. Point snapshot in %s at your kernel's symbol snapshot\n", filepath.Join(dir, "settings.cue"))
			fmt.Printf("  2. Declare modules under %s\n", modulesDir)
			fmt.Printf("  3. Run: autokernel generate -c %s\n", filepath.Join(dir, "settings.cue"))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "workspace directory")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")

	return cmd
}
