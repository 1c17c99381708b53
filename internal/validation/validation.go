// Package validation finds data that breaks the habit tracker's invariants
// and repairs what can be repaired.
package validation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/artyomka101/appforphone/internal/constants"
	"github.com/artyomka101/appforphone/internal/models"
)

// Conflict is one detected invariant violation
type Conflict struct {
	Type        constants.ConflictType
	Description string
	HabitID     string
	Date        string   // YYYY-MM-DD, if applicable
	IDs         []string // completion IDs to remove, if applicable
	Pending     *models.PendingToggle
}

// Result contains all detected conflicts
type Result struct {
	Conflicts []Conflict
}

// FixAction describes what an auto-fix did
type FixAction struct {
	Action         string
	SourceConflict Conflict
	Err            error
}

func (r *Result) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Count returns the number of conflicts of type t
func (r *Result) Count(t constants.ConflictType) int {
	n := 0
	for _, c := range r.Conflicts {
		if c.Type == t {
			n++
		}
	}
	return n
}

// FormatReport returns a human-readable report of all conflicts
func (r *Result) FormatReport() string {
	if !r.HasConflicts() {
		return "No conflicts detected."
	}
	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range r.Conflicts {
		fmt.Fprintf(&b, "- %s\n", c.Description)
	}
	return b.String()
}

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Validate checks a full dump of habits, completions and queued toggles
func (v *Validator) Validate(habits []models.Habit, completions []models.Completion, pending []models.PendingToggle) Result {
	result := Result{Conflicts: []Conflict{}}

	byID := make(map[string]models.Habit, len(habits))
	for _, h := range habits {
		byID[h.ID] = h
		if err := h.Validate(); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        constants.ConflictInvalidHabit,
				Description: fmt.Sprintf("Habit %q (%s) is invalid: %v", h.Title, h.ID, err),
				HabitID:     h.ID,
			})
		}
	}

	type cell struct{ habitID, date string }
	perCell := map[cell][]models.Completion{}
	dates := map[string]map[string]struct{}{}
	for _, c := range completions {
		if _, ok := byID[c.HabitID]; !ok {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        constants.ConflictOrphanCompletion,
				Description: fmt.Sprintf("Completion %s on %s references missing habit %s", c.ID, c.Date, c.HabitID),
				HabitID:     c.HabitID,
				Date:        c.Date,
				IDs:         []string{c.ID},
			})
			continue
		}
		k := cell{c.HabitID, c.Date}
		perCell[k] = append(perCell[k], c)
		if dates[c.HabitID] == nil {
			dates[c.HabitID] = map[string]struct{}{}
		}
		dates[c.HabitID][c.Date] = struct{}{}
	}

	cells := make([]cell, 0, len(perCell))
	for k, list := range perCell {
		if len(list) > 1 {
			cells = append(cells, k)
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].habitID != cells[j].habitID {
			return cells[i].habitID < cells[j].habitID
		}
		return cells[i].date < cells[j].date
	})
	for _, k := range cells {
		list := perCell[k]
		// keep the earliest record
		sort.Slice(list, func(i, j int) bool {
			if !list[i].CompletedAt.Equal(list[j].CompletedAt) {
				return list[i].CompletedAt.Before(list[j].CompletedAt)
			}
			return list[i].ID < list[j].ID
		})
		var extra []string
		for _, c := range list[1:] {
			extra = append(extra, c.ID)
		}
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        constants.ConflictDuplicateCompletion,
			Description: fmt.Sprintf("Habit %q has %d completion records on %s", byID[k.habitID].Title, len(list), k.date),
			HabitID:     k.habitID,
			Date:        k.date,
			IDs:         extra,
		})
	}

	for _, h := range habits {
		count := len(dates[h.ID])
		if h.IsActive && h.TargetDays > 0 && h.GoalReached(count) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        constants.ConflictGoalNotApplied,
				Description: fmt.Sprintf("Habit %q is active with %d of %d days completed", h.Title, count, h.TargetDays),
				HabitID:     h.ID,
			})
		}
	}

	for i := range pending {
		p := pending[i]
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        constants.ConflictPendingToggle,
			Description: fmt.Sprintf("Toggle of habit %s on %s (completed=%t) was never persisted", p.HabitID, p.Date, p.Completed),
			HabitID:     p.HabitID,
			Date:        p.Date,
			Pending:     &p,
		})
	}

	return result
}

// Fixers are the write operations AutoFix may use
type Fixers struct {
	DeleteCompletion func(ctx context.Context, id string) error
	CheckGoal        func(ctx context.Context, habitID string) (bool, error)
	ApplyPending     func(ctx context.Context, p models.PendingToggle) error
}

// AutoFix repairs every fixable conflict. Invalid habits need a manual edit
// and are skipped. Individual failures are reported in the returned actions.
func AutoFix(ctx context.Context, result Result, f Fixers) []FixAction {
	actions := []FixAction{}
	for _, c := range result.Conflicts {
		var action string
		var err error
		switch c.Type {
		case constants.ConflictDuplicateCompletion, constants.ConflictOrphanCompletion:
			var removed []string
			for _, id := range c.IDs {
				if err = f.DeleteCompletion(ctx, id); err != nil {
					break
				}
				removed = append(removed, id)
			}
			action = fmt.Sprintf("Removed completion record(s) %v", removed)
		case constants.ConflictGoalNotApplied:
			var achieved bool
			achieved, err = f.CheckGoal(ctx, c.HabitID)
			action = fmt.Sprintf("Applied goal check to habit %s (archived: %t)", c.HabitID, achieved)
		case constants.ConflictPendingToggle:
			err = f.ApplyPending(ctx, *c.Pending)
			action = fmt.Sprintf("Persisted queued toggle of habit %s on %s", c.HabitID, c.Date)
		default:
			continue
		}
		if err != nil {
			action = fmt.Sprintf("Failed to fix %s: %v", c.Type, err)
		}
		actions = append(actions, FixAction{Action: action, SourceConflict: c, Err: err})
	}
	return actions
}
