package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/artyomka101/appforphone/internal/cli"
	"github.com/artyomka101/appforphone/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(app *cli.Context, ctx context.Context) error {
	app.PerformAutomaticBackup(ctx)

	st, err := app.State(ctx)
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewModel(ctx, st, app.Notifier, app.Today), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited with an error: %w", err)
	}
	return nil
}
