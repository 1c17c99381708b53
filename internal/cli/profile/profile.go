package profile

import (
	"context"
	"fmt"

	"github.com/artyomka101/appforphone/internal/cli"
)

type ProfileCmd struct {
	Show   ProfileShowCmd   `cmd:"" help:"Show the profile and statistics." default:"1"`
	Rename ProfileRenameCmd `cmd:"" help:"Change the profile name."`
}

type ProfileShowCmd struct{}

func (c *ProfileShowCmd) Run(app *cli.Context, ctx context.Context) error {
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	stats := snap.Stats()

	app.Printf("👤 %s\n", snap.Profile.Name)
	app.Printf("   Member since %s\n\n", snap.Profile.CreatedAt.Local().Format("2006-01-02"))
	app.Printf("   Total habits:      %d\n", stats.TotalHabits)
	app.Printf("   Active habits:     %d\n", stats.ActiveHabits)
	app.Printf("   Completed today:   %d\n", stats.CompletedToday)
	app.Printf("   Total completions: %d\n", stats.TotalCompletions)
	return nil
}

type ProfileRenameCmd struct {
	Name string `arg:"" help:"New profile name."`
}

func (c *ProfileRenameCmd) Run(app *cli.Context, ctx context.Context) error {
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	if err := st.RenameProfile(ctx, c.Name); err != nil {
		return fmt.Errorf("failed to rename profile: %w", err)
	}
	app.Printf("✓ Profile renamed to %s\n", st.Snapshot().Profile.Name)
	return nil
}
