package habits

import (
	"context"
	"fmt"
	"strings"

	"github.com/artyomka101/appforphone/internal/cli"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/models"
)

type HabitCmd struct {
	Add        HabitAddCmd        `cmd:"" help:"Add a new habit."`
	Edit       HabitEditCmd       `cmd:"" help:"Edit an existing habit."`
	List       HabitListCmd       `cmd:"" help:"List active habits with their status for a day." default:"1"`
	Archived   HabitArchivedCmd   `cmd:"" help:"List archived habits."`
	Delete     HabitDeleteCmd     `cmd:"" help:"Delete a habit and its history."`
	Toggle     HabitToggleCmd     `cmd:"" help:"Toggle a habit's completion for a day."`
	Status     HabitStatusCmd     `cmd:"" help:"Show progress towards each habit's target."`
	Log        HabitLogCmd        `cmd:"" help:"Show habit log (ASCII history)."`
	Complete   HabitCompleteCmd   `cmd:"" help:"Archive a habit by hand."`
	Reactivate HabitReactivateCmd `cmd:"" help:"Move an archived habit back to the active list."`
}

// Find resolves ref as a habit ID, a unique ID prefix or a title (case-insensitive)
func Find(ctx context.Context, app *cli.Context, ref string) (models.Habit, error) {
	ref = strings.TrimSpace(ref)
	if h, err := app.Store.GetHabit(ctx, ref); err == nil {
		return h, nil
	} else if !apperrors.IsNotFound(err) {
		return models.Habit{}, err
	}

	all, err := app.Store.GetAllHabits(ctx)
	if err != nil {
		return models.Habit{}, err
	}
	var matches []models.Habit
	for _, h := range all {
		if strings.EqualFold(h.Title, ref) {
			return h, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(h.ID, ref) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return models.Habit{}, apperrors.NotFoundf("habit %q not found", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, apperrors.Invalidf("habit reference %q is ambiguous (%d matches)", ref, len(matches))
	}
}

type HabitAddCmd struct {
	Title       string `arg:"" help:"Habit title."`
	Description string `help:"Optional description."`
	Color       string `help:"Color as #RRGGBB." default:"#2196F3"`
	Icon        string `help:"Icon key (task, fitness, book, water, dining, bedtime, school, work, favorite, star)." default:"task"`
	Target      int    `help:"Number of completed days that achieves the goal." default:"30"`
	Time        string `help:"Optional reminder time (HH:MM)."`
}

func (c *HabitAddCmd) Run(app *cli.Context, ctx context.Context) error {
	st, err := app.State(ctx)
	if err != nil {
		return err
	}

	h := models.Habit{
		Title:         c.Title,
		Description:   c.Description,
		Color:         c.Color,
		Icon:          c.Icon,
		TargetDays:    c.Target,
		ScheduledTime: c.Time,
	}
	h, err = st.AddHabit(ctx, h)
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}

	app.Printf("✓ Habit added: %s (target %d days, id %s)\n", h.Title, h.TargetDays, h.ID)
	return nil
}

type HabitEditCmd struct {
	Habit       string  `arg:"" help:"Habit ID, ID prefix or title."`
	Title       *string `help:"New title."`
	Description *string `help:"New description."`
	Color       *string `help:"New color (#RRGGBB)."`
	Icon        *string `help:"New icon key."`
	Target      *int    `help:"New target days. Lowering it to the completed count archives the habit."`
	Time        *string `help:"New reminder time (HH:MM), empty to clear."`
}

func (c *HabitEditCmd) Run(app *cli.Context, ctx context.Context) error {
	h, err := Find(ctx, app, c.Habit)
	if err != nil {
		return err
	}

	changed := false
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
			changed = true
		}
	}
	set(&h.Title, c.Title)
	set(&h.Description, c.Description)
	set(&h.Color, c.Color)
	set(&h.Icon, c.Icon)
	set(&h.ScheduledTime, c.Time)
	if c.Target != nil {
		h.TargetDays = *c.Target
		changed = true
	}
	if !changed {
		app.Println("Nothing to change.")
		return nil
	}

	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	wasActive := h.IsActive
	h, err = st.UpdateHabit(ctx, h)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}

	app.Printf("✓ Habit updated: %s\n", h.Title)
	if wasActive && !h.IsActive {
		app.Printf("🏆 Goal reached with the new target, %s moved to the archive\n", h.Title)
	}
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit ID, ID prefix or title."`
	Yes   bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *HabitDeleteCmd) Run(app *cli.Context, ctx context.Context) error {
	h, err := Find(ctx, app, c.Habit)
	if err != nil {
		return err
	}

	if !c.Yes && !cli.Confirm(cli.Stdin, app.Out, fmt.Sprintf("Delete %q and all of its completions?", h.Title)) {
		app.Println("Delete cancelled.")
		return nil
	}

	st, err := app.State(ctx)
	if err != nil {
		return err
	}
	if err := st.DeleteHabit(ctx, h.ID); err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}

	app.Printf("✓ Habit deleted: %s\n", h.Title)
	return nil
}
