package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/artyomka101/appforphone/internal/backup"
	"github.com/artyomka101/appforphone/internal/config"
	"github.com/artyomka101/appforphone/internal/engine"
	"github.com/artyomka101/appforphone/internal/keyring"
	"github.com/artyomka101/appforphone/internal/logger"
	"github.com/artyomka101/appforphone/internal/models"
	"github.com/artyomka101/appforphone/internal/notifier"
	"github.com/artyomka101/appforphone/internal/state"
	"github.com/artyomka101/appforphone/internal/storage"
	"github.com/artyomka101/appforphone/internal/storage/postgres"
	"github.com/artyomka101/appforphone/internal/storage/sqlite"
	"github.com/artyomka101/appforphone/internal/utils"
)

// KeyringDatabase as the database setting reads the PostgreSQL connection
// string from the OS keyring
const KeyringDatabase = "keyring"

// Context is shared by every command. Open attaches the store without
// loading it; main loads it unless the command prepares storage itself.
type Context struct {
	Config     config.Config
	ConfigPath string
	Store      storage.Provider
	Engine     *engine.Engine
	Notifier   *notifier.Guarded
	Out        io.Writer

	state *state.Container
}

// NewContext builds the notifier for cfg. The store is attached by Open.
func NewContext(cfg config.Config, configPath string, out io.Writer) (*Context, error) {
	n, err := notifier.New(cfg.Notifications.Mode, true, out)
	if err != nil {
		return nil, err
	}
	return &Context{
		Config:     cfg,
		ConfigPath: configPath,
		Notifier:   notifier.NewGuarded(n, cfg.Notifications.Enabled),
		Out:        out,
	}, nil
}

// Open selects the store for the configured database and wires the engine
func (c *Context) Open() error {
	store, err := OpenStore(c.Config.Database)
	if err != nil {
		return err
	}
	c.SetStore(store)
	return nil
}

// SetStore swaps the store, e.g. after it was recreated on disk
func (c *Context) SetStore(store storage.Provider) {
	c.Store = store
	c.Engine = engine.New(store, c.Notifier)
}

// OpenStore picks the backend for a database setting: the keyring marker,
// a PostgreSQL URI, or a SQLite file path.
func OpenStore(database string) (storage.Provider, error) {
	switch {
	case database == KeyringDatabase:
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, errors.New("no connection string in keyring, run 'habitkeeper config set-connection' first")
			}
			return nil, err
		}
		// keyring values may carry a password
		return postgres.New(connStr, nil), nil
	case IsPostgres(database):
		if err := postgres.ValidateConnString(database); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("%w; store it with 'habitkeeper config set-connection' and use --db=%s, or use ~/.pgpass", err, KeyringDatabase)
			}
			return nil, err
		}
		return postgres.New(database, nil), nil
	default:
		path, err := config.ExpandPath(database)
		if err != nil {
			return nil, fmt.Errorf("failed to expand database path: %w", err)
		}
		return sqlite.NewStore(path, nil), nil
	}
}

func IsPostgres(database string) bool {
	return strings.HasPrefix(database, "postgres://") || strings.HasPrefix(database, "postgresql://")
}

// Printf writes to the command output
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// Today is the current date in the configured timezone
func (c *Context) Today() (string, error) {
	return utils.GetTodayInTimezone(c.Config.Timezone)
}

// ResolveDate accepts YYYY-MM-DD, "today", "yesterday" or an empty string (today)
func (c *Context) ResolveDate(s string) (string, error) {
	today, err := c.Today()
	if err != nil {
		return "", err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return utils.ShiftDate(today, -1)
	}
	if err := models.ValidateDate(s); err != nil {
		return "", err
	}
	return s, nil
}

// State starts the state container on first use
func (c *Context) State(ctx context.Context) (*state.Container, error) {
	if c.state != nil {
		return c.state, nil
	}
	today, err := c.Today()
	if err != nil {
		return nil, err
	}
	st := state.New(c.Store, c.Engine,
		state.WithDebounce(c.Config.PersistDebounce),
		state.WithDate(today),
	)
	if err := st.Start(ctx); err != nil {
		return nil, err
	}
	c.state = st
	return st, nil
}

// Backups returns the backup manager, or nil when the store is not a SQLite file
func (c *Context) Backups() *backup.Manager {
	if c.Store == nil {
		return nil
	}
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return nil
	}
	return backup.NewManager(c.Store.GetConfigPath())
}

// PerformAutomaticBackup creates a backup and only logs failures
func (c *Context) PerformAutomaticBackup(ctx context.Context) {
	mgr := c.Backups()
	if mgr == nil {
		return
	}
	if _, err := mgr.Create(ctx); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// Close flushes pending toggles and releases the store
func (c *Context) Close() error {
	var errs []error
	if c.state != nil {
		if err := c.state.Close(); err != nil {
			errs = append(errs, err)
		}
		c.state = nil
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Confirm asks a yes/no question on in; anything but y/yes is a no
func Confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	var answer string
	if _, err := fmt.Fscanln(in, &answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// Stdin is swapped in tests
var Stdin io.Reader = os.Stdin
