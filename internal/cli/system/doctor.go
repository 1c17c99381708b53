package system

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/artyomka101/appforphone/internal/cli"
	"github.com/artyomka101/appforphone/internal/constants"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/models"
	"github.com/artyomka101/appforphone/internal/utils"
	"github.com/artyomka101/appforphone/internal/validation"
)

// skipped is returned by a check that does not apply
type skipped string

func (s skipped) Error() string { return string(s) }

type DoctorCmd struct {
	Fix bool `help:"Repair the integrity problems that can be fixed automatically."`
}

type check struct {
	name     string
	needsDB  bool
	warnOnly bool
	run      func(ctx context.Context) error
}

func (cmd *DoctorCmd) Run(app *cli.Context, ctx context.Context) error {
	app.Println("Running diagnostics...")
	app.Println()

	d := &doctor{app: app, fix: cmd.Fix}
	checks := []check{
		{name: "Database reachable", run: d.checkReachable},
		{name: "Schema version", needsDB: true, run: d.checkSchema},
		{name: "Backups present", warnOnly: true, run: d.checkBackups},
		{name: "Clock/timezone", run: d.checkClock},
		{name: "Data integrity", needsDB: true, run: d.checkIntegrity},
	}

	hasError := false
	for _, c := range checks {
		var skip skipped
		if c.needsDB && !d.reachable {
			app.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			app.Printf("✓ %s: OK\n", c.name)
		case errors.As(err, &skip):
			app.Printf("⊘ %s: SKIPPED (%s)\n", c.name, skip)
		case c.warnOnly:
			app.Printf("⚠ %s: WARNING\n", c.name)
			app.Printf("   %v\n", err)
		default:
			app.Printf("❌ %s: FAIL\n", c.name)
			app.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	for _, a := range d.actions {
		if a.Err != nil {
			app.Printf("   ❌ %s\n", a.Action)
			hasError = true
		} else {
			app.Printf("   🔧 %s\n", a.Action)
		}
	}

	app.Println()
	if hasError {
		app.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	app.Println("All diagnostics passed!")
	return nil
}

type doctor struct {
	app       *cli.Context
	fix       bool
	reachable bool
	actions   []validation.FixAction
}

func (d *doctor) checkReachable(ctx context.Context) error {
	if store, ok := d.app.Store.(schemaStore); ok {
		if err := store.Open(ctx); err != nil {
			return err
		}
	}
	if _, err := d.app.Store.GetHabits(ctx, true); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	d.reachable = true
	return nil
}

func (d *doctor) checkSchema(ctx context.Context) error {
	store, ok := d.app.Store.(schemaStore)
	if !ok {
		return skipped("backend has no schema version")
	}
	return store.ValidateSchema(ctx)
}

func (d *doctor) checkBackups(ctx context.Context) error {
	mgr := d.app.Backups()
	if mgr == nil {
		return skipped("not a SQLite database")
	}
	list, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(list) == 0 {
		return fmt.Errorf("no backups found in %s, consider 'habitkeeper backup create'", filepath.Clean(mgr.Dir()))
	}
	if age := time.Since(list[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("latest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}

func (d *doctor) checkClock(context.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, err := utils.LoadLocation(d.app.Config.Timezone); err != nil {
		return err
	}
	return nil
}

func (d *doctor) checkIntegrity(ctx context.Context) error {
	store := d.app.Store
	habits, err := store.GetAllHabits(ctx)
	if err != nil {
		return err
	}
	completions, err := store.GetAllCompletions(ctx)
	if err != nil {
		return err
	}
	pending, err := store.GetPendingToggles(ctx)
	if err != nil {
		return err
	}

	result := validation.New().Validate(habits, completions, pending)
	if !result.HasConflicts() {
		return nil
	}
	if !d.fix {
		return fmt.Errorf("%s   run 'habitkeeper doctor --fix' to repair", result.FormatReport())
	}

	d.app.PerformAutomaticBackup(ctx)
	d.actions = validation.AutoFix(ctx, result, validation.Fixers{
		DeleteCompletion: store.DeleteCompletion,
		CheckGoal:        d.app.Engine.CheckGoalAchievement,
		ApplyPending: func(ctx context.Context, p models.PendingToggle) error {
			if _, err := d.app.Engine.SetCompleted(ctx, p.HabitID, p.Date, p.Completed); err != nil && !apperrors.IsNotFound(err) {
				return err
			}
			return store.DeletePendingToggle(ctx, p)
		},
	})
	if n := result.Count(constants.ConflictInvalidHabit); n > 0 {
		return fmt.Errorf("%d invalid habit(s) need a manual 'habitkeeper habit edit'", n)
	}
	return nil
}
