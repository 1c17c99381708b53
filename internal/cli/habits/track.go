package habits

import (
	"context"
	"fmt"
	"strings"

	"github.com/artyomka101/appforphone/internal/cli"
	"github.com/artyomka101/appforphone/internal/models"
	"github.com/artyomka101/appforphone/internal/utils"
)

const maxTitleLen = 24

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

type HabitListCmd struct {
	Date string `help:"Day to show (YYYY-MM-DD, today or yesterday)." default:"today"`
}

func (c *HabitListCmd) Run(app *cli.Context, ctx context.Context) error {
	date, err := app.ResolveDate(c.Date)
	if err != nil {
		return err
	}
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	if err := st.SetSelectedDate(ctx, date); err != nil {
		return err
	}

	snap := st.Snapshot()
	if len(snap.Active) == 0 {
		app.Println("No active habits. Add one with 'habitkeeper habit add' or 'habitkeeper template add'.")
		return nil
	}

	app.Printf("Habits for %s:\n\n", date)
	for _, h := range snap.Active {
		mark := "[ ]"
		if snap.Cell(h.ID) == models.CellComplete {
			mark = "[x]"
		}
		app.Printf("%s %-*s %3d/%-3d  %s\n", mark, maxTitleLen, truncate(h.Title, maxTitleLen),
			snap.Counts[h.ID], h.TargetDays, h.ID[:min(8, len(h.ID))])
	}
	app.Printf("\nCompleted: %d/%d (%d%%)\n", snap.CompletedToday(), len(snap.Active), snap.CompletionRate())
	return nil
}

type HabitToggleCmd struct {
	Habit string `arg:"" help:"Habit ID, ID prefix or title."`
	Date  string `help:"Day to toggle (YYYY-MM-DD, today or yesterday)." default:"today"`
}

func (c *HabitToggleCmd) Run(app *cli.Context, ctx context.Context) error {
	h, err := Find(ctx, app, c.Habit)
	if err != nil {
		return err
	}
	date, err := app.ResolveDate(c.Date)
	if err != nil {
		return err
	}

	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	if err := st.SetSelectedDate(ctx, date); err != nil {
		return err
	}
	done, err := st.ToggleHabitCompletion(ctx, h.ID)
	if err != nil {
		return fmt.Errorf("failed to toggle habit: %w", err)
	}
	if err := st.Flush(ctx); err != nil {
		return fmt.Errorf("failed to save toggle: %w", err)
	}

	snap := st.Snapshot()
	if done {
		app.Printf("✓ %s completed for %s (%d/%d days)\n", h.Title, date, snap.Counts[h.ID], h.TargetDays)
	} else {
		app.Printf("○ %s unchecked for %s (%d/%d days)\n", h.Title, date, snap.Counts[h.ID], h.TargetDays)
	}
	if after, ok := snap.Habit(h.ID); ok && h.IsActive && !after.IsActive {
		app.Printf("🏆 Goal achieved! %s moved to the archive\n", h.Title)
	}
	return nil
}

type HabitStatusCmd struct{}

func (c *HabitStatusCmd) Run(app *cli.Context, ctx context.Context) error {
	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	snap := st.Snapshot()
	stats := snap.Stats()

	app.Printf("%s: %d/%d done today (%d%%)\n\n", snap.SelectedDate, stats.CompletedToday, stats.ActiveHabits, snap.CompletionRate())
	if len(snap.Active) == 0 {
		app.Println("No active habits.")
		return nil
	}
	for _, h := range snap.Active {
		count := snap.Counts[h.ID]
		app.Printf("%-*s %s %3d%%\n", maxTitleLen, truncate(h.Title, maxTitleLen), progressBar(h.Progress(count), 20), h.Progress(count))
	}
	app.Printf("\nHabits: %d active, %d total, %d completions recorded\n", stats.ActiveHabits, stats.TotalHabits, stats.TotalCompletions)
	return nil
}

func progressBar(percent, width int) string {
	filled := percent * width / 100
	filled = max(0, min(width, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

type HabitLogCmd struct {
	Days  int    `help:"Number of days to show." default:"14"`
	Habit string `help:"Show log for a specific habit only."`
}

func (c *HabitLogCmd) Run(app *cli.Context, ctx context.Context) error {
	if c.Days < 1 || c.Days > 366 {
		return fmt.Errorf("days must be between 1 and 366, got %d", c.Days)
	}

	var selected []models.Habit
	if c.Habit != "" {
		h, err := Find(ctx, app, c.Habit)
		if err != nil {
			return err
		}
		selected = []models.Habit{h}
	} else {
		active, err := app.Store.GetHabits(ctx, true)
		if err != nil {
			return err
		}
		selected = active
	}
	if len(selected) == 0 {
		app.Println("No habits found.")
		return nil
	}

	today, err := app.Today()
	if err != nil {
		return err
	}
	days, err := utils.DateRange(today, c.Days)
	if err != nil {
		return err
	}

	app.Printf("Habit log (last %d days):\n\n", c.Days)
	app.Printf("%-*s ", maxTitleLen, "Habit")
	for _, d := range days {
		// MM-DD
		app.Printf(" %5s", d[5:])
	}
	app.Println()
	app.Println(strings.Repeat("-", maxTitleLen+1+6*len(days)))

	for _, h := range selected {
		completions, err := app.Store.GetCompletionsForHabit(ctx, h.ID)
		if err != nil {
			return err
		}
		done := make(map[string]bool, len(completions))
		for _, comp := range completions {
			done[comp.Date] = true
		}

		app.Printf("%-*s ", maxTitleLen, truncate(h.Title, maxTitleLen))
		for _, d := range days {
			if done[d] {
				app.Printf("  x   ")
			} else {
				app.Printf("  .   ")
			}
		}
		app.Println()
	}
	return nil
}
