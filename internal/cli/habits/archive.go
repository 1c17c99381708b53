package habits

import (
	"context"
	"fmt"

	"github.com/artyomka101/appforphone/internal/cli"
)

type HabitArchivedCmd struct{}

func (c *HabitArchivedCmd) Run(app *cli.Context, ctx context.Context) error {
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	if len(snap.Archived) == 0 {
		app.Println("No archived habits.")
		return nil
	}

	app.Printf("%-8s %-*s %-10s %s\n", "ID", maxTitleLen, "Title", "Days", "Created")
	for _, h := range snap.Archived {
		app.Printf("%-8s %-*s %-10s %s\n",
			h.ID[:min(8, len(h.ID))],
			maxTitleLen, truncate(h.Title, maxTitleLen),
			fmt.Sprintf("%d/%d", snap.Counts[h.ID], h.TargetDays),
			h.CreatedAt.Local().Format("2006-01-02"))
	}
	return nil
}

type HabitCompleteCmd struct {
	Habit string `arg:"" help:"Habit ID, ID prefix or title."`
}

func (c *HabitCompleteCmd) Run(app *cli.Context, ctx context.Context) error {
	h, err := Find(ctx, app, c.Habit)
	if err != nil {
		return err
	}
	if !h.IsActive {
		return fmt.Errorf("habit %q is already archived", h.Title)
	}
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	if err := st.CompleteHabit(ctx, h.ID); err != nil {
		return fmt.Errorf("failed to archive habit: %w", err)
	}
	app.Printf("✓ Habit archived: %s\n", h.Title)
	return nil
}

type HabitReactivateCmd struct {
	Habit  string `arg:"" help:"Habit ID, ID prefix or title."`
	Target int    `help:"New target days; must exceed the days already completed."`
}

func (c *HabitReactivateCmd) Run(app *cli.Context, ctx context.Context) error {
	h, err := Find(ctx, app, c.Habit)
	if err != nil {
		return err
	}
	if h.IsActive {
		return fmt.Errorf("habit %q is already active", h.Title)
	}
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	h, err = st.ReactivateHabit(ctx, h.ID, c.Target)
	if err != nil {
		return fmt.Errorf("failed to reactivate habit: %w", err)
	}
	app.Printf("✓ Habit reactivated: %s (target %d days)\n", h.Title, h.TargetDays)
	return nil
}
