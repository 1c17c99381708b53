package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/artyomka101/appforphone/internal/cli"
	"github.com/artyomka101/appforphone/internal/cli/backups"
	"github.com/artyomka101/appforphone/internal/cli/habits"
	"github.com/artyomka101/appforphone/internal/cli/notifications"
	"github.com/artyomka101/appforphone/internal/cli/profile"
	"github.com/artyomka101/appforphone/internal/cli/system"
	"github.com/artyomka101/appforphone/internal/cli/templates"
	"github.com/artyomka101/appforphone/internal/config"
	"github.com/artyomka101/appforphone/internal/constants"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Path to the YAML config file." type:"path" placeholder:"PATH"`
	DB      string `name:"db" help:"SQLite file path, PostgreSQL URI without password, or 'keyring'. Overrides the config file."`
	Debug   bool   `help:"Log debug output to stderr."`
	Notify  string `help:"Platform notification mode (tray|stdout|none). Overrides the config file."`

	Init         system.InitCmd                `cmd:"" help:"Initialize habitkeeper storage."`
	Migrate      system.MigrateCmd             `cmd:"" help:"Run database migrations."`
	Doctor       system.DoctorCmd              `cmd:"" help:"Run health checks and diagnostics."`
	Tui          system.TuiCmd                 `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Stats        system.StatsCmd               `cmd:"" help:"Show statistics and process metrics."`
	Habit        habits.HabitCmd               `cmd:"" help:"Manage and track habits."`
	Template     templates.TemplateCmd         `cmd:"" help:"Browse habit templates."`
	Notification notifications.NotificationCmd `cmd:"" help:"Manage notifications."`
	Profile      profile.ProfileCmd            `cmd:"" help:"Show or rename the profile."`
	Backup       backups.BackupCmd             `cmd:"" help:"Manage database backups."`
	ConfigCmd    system.ConfigCmd              `cmd:"" name:"config" help:"Show configuration and manage the stored connection string."`
}

// commands that open or prepare storage themselves
var selfLoading = map[string]bool{
	"init":    true,
	"migrate": true,
	"doctor":  true,
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily habit tracker with goals and an archive of achieved habits"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}
	if CLI.DB != "" {
		cfg.Database = CLI.DB
	}
	if CLI.Debug {
		cfg.Debug = true
	}
	if CLI.Notify != "" {
		cfg.Notifications.Mode = CLI.Notify
	}
	if err := cfg.Validate(); err != nil {
		apperrors.Fatal(err)
	}

	configDir, err := config.Dir()
	if err != nil {
		apperrors.Fatal(err)
	}
	if err := logger.Init(logger.Config{Debug: cfg.Debug, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewContext(cfg, CLI.Config, os.Stdout)
	if err != nil {
		apperrors.Fatal(err)
	}

	command := kctx.Command()
	top := strings.Fields(command)[0]
	if top != "config" {
		if err := app.Open(); err != nil {
			apperrors.Fatal(err)
		}
		if !selfLoading[top] {
			if err := app.Store.Load(ctx); err != nil {
				app.Close()
				apperrors.Fatal(err)
			}
		}
	}

	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run(app)
	if cerr := app.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		logger.Error("Command failed", "command", command, "error", err)
		fmt.Fprintln(os.Stderr, apperrors.Format(err))
		os.Exit(1)
	}
}
