// Package clitest builds command contexts over throwaway SQLite databases.
package clitest

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/artyomka101/appforphone/internal/cli"
	"github.com/artyomka101/appforphone/internal/config"
	"github.com/artyomka101/appforphone/internal/constants"
)

// New returns an initialized context whose output is captured in the buffer.
// Toggles persist immediately and notifications go to the buffer as well.
func New(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Database = filepath.Join(t.TempDir(), "habitkeeper.db")
	cfg.Timezone = "UTC"
	cfg.PersistDebounce = time.Millisecond
	cfg.Notifications.Mode = constants.NotifyModeStdout

	out := &bytes.Buffer{}
	app, err := cli.NewContext(cfg, filepath.Join(t.TempDir(), constants.ConfigFileName), out)
	if err != nil {
		t.Fatalf("failed to build context: %v", err)
	}
	if err := app.Open(); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := app.Store.Init(context.Background()); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app, out
}
