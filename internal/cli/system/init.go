package system

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/artyomka101/appforphone/internal/cli"
	"github.com/artyomka101/appforphone/internal/config"
	"github.com/artyomka101/appforphone/internal/constants"
	"github.com/artyomka101/appforphone/internal/storage"
	"github.com/artyomka101/appforphone/internal/storage/sqlite"
)

// schemaStore is implemented by both SQL backends
type schemaStore interface {
	storage.Provider
	Open(ctx context.Context) error
	Migrate(ctx context.Context, logFn func(string)) (int, error)
	ValidateSchema(ctx context.Context) error
}

type InitCmd struct {
	Force       bool `help:"Delete an existing SQLite database before initialization."`
	WriteConfig bool `help:"Also write the effective configuration to the config file."`
}

func (c *InitCmd) Run(app *cli.Context, ctx context.Context) error {
	if c.Force {
		if _, ok := app.Store.(*sqlite.Store); !ok {
			return errors.New("--force is only supported for the SQLite database")
		}
		path := app.Store.GetConfigPath()
		if _, err := os.Stat(path); err == nil {
			if err := app.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			for _, p := range []string{path, path + "-wal", path + "-shm"} {
				if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("failed to delete existing database: %w", err)
				}
			}
			app.Printf("Deleted existing database at: %s\n", path)
			if err := app.Open(); err != nil {
				return err
			}
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := app.Store.Init(ctx); err != nil {
		return err
	}
	app.Printf("Initialized %s storage at: %s\n", constants.AppName, app.Store.GetConfigPath())

	if c.WriteConfig {
		path := app.ConfigPath
		if path == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}
		if err := app.Config.Save(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		app.Printf("Wrote configuration to: %s\n", path)
	}
	return nil
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(app *cli.Context, ctx context.Context) error {
	store, ok := app.Store.(schemaStore)
	if !ok {
		return fmt.Errorf("migrate is not supported for this storage backend")
	}
	if err := store.Open(ctx); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	count, err := store.Migrate(ctx, func(msg string) { app.Println(msg) })
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		app.Println("No migrations to apply. Database is up to date.")
	} else {
		app.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
