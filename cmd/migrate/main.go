package main

import (
	"fmt"
	"os"
	"strconv"

	"todo-web/internal/migration"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var migrator *migration.Migrator

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the blobs table schema",
		Long: `Todo Blob Store Migration Tool

Migrations create the "blobs" table used by STORAGE_BACKEND=sql. The server
also creates it on startup, so running them is only required when the
schema is managed outside the application.

Environment Variables:
  DB_DRIVER       sqlite or postgres (default: sqlite)
  SQLITE_PATH     SQLite database file (default: ./data/todo.db)
  DB_HOST         Database host (default: localhost)
  DB_PORT         Database port (default: 5432)
  DB_USER         Database user (default: postgres)
  DB_PASSWORD     Database password (default: postgres)
  DB_NAME         Database name (default: todo)
  DB_SSL_MODE     SSL mode (default: disable)`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			var err error
			migrator, err = migration.NewFromEnv()
			if err != nil {
				return fmt.Errorf("failed to create migrator: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if migrator == nil {
				return nil
			}
			return migrator.Close()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := migrator.Up(); err != nil {
					return err
				}
				cmd.Println("✅ Migrations applied successfully")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := migrator.Down(); err != nil {
					return err
				}
				cmd.Println("✅ Migration rolled back successfully")
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show current migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				version, dirty, err := migrator.Version()
				if err != nil {
					return err
				}
				if dirty {
					cmd.Printf("Current version: %d (dirty)\n", version)
					cmd.Println("⚠️  Warning: Database is in a dirty state. Use 'force' command to fix.")
					return nil
				}
				cmd.Printf("Current version: %d\n", version)
				return nil
			},
		},
		&cobra.Command{
			Use:     "steps <n>",
			Short:   "Run n migrations (positive = up, negative = down)",
			Example: "  migrate steps 2\n  migrate steps -- -1",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid number of steps: %w", err)
				}
				if err := migrator.Steps(n); err != nil {
					return err
				}
				cmd.Printf("✅ Successfully ran %d migration steps\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Force set the migration version (use with caution)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version number: %w", err)
				}
				if err := migrator.Force(version); err != nil {
					return err
				}
				cmd.Printf("✅ Forced migration version to %d\n", version)
				cmd.Println("⚠️  Warning: This does not run migrations. Make sure database state matches the forced version.")
				return nil
			},
		},
	)

	return root
}
