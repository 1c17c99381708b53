package backups

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/artyomka101/appforphone/internal/backup"
	"github.com/artyomka101/appforphone/internal/cli"
	"github.com/artyomka101/appforphone/internal/constants"
)

var errNotSQLite = errors.New("backups are only available for the SQLite database; use pg_dump for PostgreSQL")

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(app *cli.Context, ctx context.Context) error {
	mgr := app.Backups()
	if mgr == nil {
		return errNotSQLite
	}
	path, err := mgr.Create(ctx)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	app.Printf("✓ Backup created: %s\n", filepath.Base(path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(app *cli.Context) error {
	mgr := app.Backups()
	if mgr == nil {
		return errNotSQLite
	}
	list, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(list) == 0 {
		app.Println("No backups found.")
		app.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	app.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(list), constants.MaxBackups)
	for _, b := range list {
		app.Printf("  %s  %s  (%.1f KB)\n", b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), float64(b.Size)/1024.0)
	}
	app.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `short:"y" help:"Do not ask for confirmation."`
}

// locate accepts an existing path or a file name inside the backup directory
func locate(mgr *backup.Manager, name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return filepath.Abs(name)
	}
	if !filepath.IsAbs(name) {
		candidate := filepath.Join(mgr.Dir(), name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("backup file not found: tried %s and %s", name, mgr.Dir())
}

func (c *BackupRestoreCmd) Run(app *cli.Context, ctx context.Context) error {
	mgr := app.Backups()
	if mgr == nil {
		return errNotSQLite
	}
	path, err := locate(mgr, c.BackupFile)
	if err != nil {
		return err
	}

	app.Println("⚠️  WARNING: This will replace your current database with the backup.")
	app.Println("⚠️  Stop every other habitkeeper process (including the TUI) first.")
	app.Println("A backup of your current database will be created before restoring.")
	app.Printf("\nRestore from: %s\n", path)
	if !c.Yes && !cli.Confirm(cli.Stdin, app.Out, "Continue?") {
		app.Println("Restore cancelled.")
		return nil
	}

	if err := app.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database connection: %v\n", err)
	}

	safety, err := mgr.Restore(ctx, path)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	app.Println("✓ Database restored successfully!")
	if safety != "" {
		app.Printf("  Previous database saved as %s\n", filepath.Base(safety))
	}
	return nil
}
