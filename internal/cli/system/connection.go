package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/artyomka101/appforphone/internal/cli"
	"github.com/artyomka101/appforphone/internal/keyring"
	"github.com/artyomka101/appforphone/internal/storage/postgres"
)

type ConfigCmd struct {
	Show            ConfigShowCmd            `cmd:"" help:"Show the effective configuration." default:"1"`
	SetConnection   ConfigSetConnectionCmd   `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
	ShowConnection  ConfigShowConnectionCmd  `cmd:"" help:"Show the stored connection string with the password masked."`
	ClearConnection ConfigClearConnectionCmd `cmd:"" help:"Remove the stored connection string."`
}

type ConfigShowCmd struct{}

func (c *ConfigShowCmd) Run(app *cli.Context) error {
	db := app.Config.Database
	if cli.IsPostgres(db) {
		db = keyring.MaskPassword(db)
	}
	app.Printf("config file:             %s\n", app.ConfigPath)
	app.Printf("database:                %s\n", db)
	app.Printf("timezone:                %s\n", app.Config.Timezone)
	app.Printf("persist_debounce:        %s\n", app.Config.PersistDebounce)
	app.Printf("debug:                   %t\n", app.Config.Debug)
	app.Printf("notifications.enabled:   %t\n", app.Config.Notifications.Enabled)
	app.Printf("notifications.mode:      %s\n", app.Config.Notifications.Mode)
	return nil
}

type ConfigSetConnectionCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in the keyring."`
}

func (cmd *ConfigSetConnectionCmd) Run(app *cli.Context) error {
	if !cli.IsPostgres(cmd.ConnectionString) && !strings.Contains(cmd.ConnectionString, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		app.Println("⚠️  Connection string contains a password; it is kept only in the encrypted OS keyring.")
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return err
	}

	app.Println("✓ Connection string stored in OS keyring")
	app.Printf("  Use it with --db=%s or 'database: %s' in the config file\n", cli.KeyringDatabase, cli.KeyringDatabase)
	return nil
}

type ConfigShowConnectionCmd struct{}

func (cmd *ConfigShowConnectionCmd) Run(app *cli.Context) error {
	connStr, err := keyring.GetConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring, use 'habitkeeper config set-connection' to store one")
		}
		return err
	}
	app.Println(keyring.MaskPassword(connStr))
	return nil
}

type ConfigClearConnectionCmd struct{}

func (cmd *ConfigClearConnectionCmd) Run(app *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return err
	}
	app.Println("✓ Connection string removed from OS keyring")
	return nil
}
