// Package engine owns the completion state transition: toggling a habit for a
// date, counting completions and deactivating habits that reach their target.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/logger"
	"github.com/artyomka101/appforphone/internal/metrics"
	"github.com/artyomka101/appforphone/internal/models"
	"github.com/artyomka101/appforphone/internal/notifier"
	"github.com/artyomka101/appforphone/internal/storage"
	"github.com/artyomka101/appforphone/internal/utils"
)

// Engine serializes writes per habit. Unrelated habits never wait on each other.
type Engine struct {
	store    storage.Provider
	notifier notifier.Notifier
	locks    *utils.KeyedMutex
	now      func() time.Time
	newID    func() string
}

type Option func(*Engine)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides uuid generation for new records
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func New(store storage.Provider, n notifier.Notifier, opts ...Option) *Engine {
	if n == nil {
		n = notifier.Nop{}
	}
	e := &Engine{
		store:    store,
		notifier: n,
		locks:    utils.NewKeyedMutex(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ToggleResult describes the committed state after a toggle
type ToggleResult struct {
	Habit        models.Habit
	Date         string
	Completed    bool
	Changed      bool
	Count        int
	GoalAchieved bool
}

// IsCompleted reports whether a completion record exists for (habitID, date)
func (e *Engine) IsCompleted(ctx context.Context, habitID, date string) (bool, error) {
	if _, err := e.store.GetHabit(ctx, habitID); err != nil {
		return false, err
	}
	_, err := e.store.GetCompletion(ctx, habitID, date)
	if err == nil {
		return true, nil
	}
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// ToggleCompletion flips the completion of habitID on date
func (e *Engine) ToggleCompletion(ctx context.Context, habitID, date string) (ToggleResult, error) {
	return e.apply(ctx, habitID, date, nil)
}

// SetCompleted drives the cell to want, toggling only if the stored state differs
func (e *Engine) SetCompleted(ctx context.Context, habitID, date string, want bool) (ToggleResult, error) {
	return e.apply(ctx, habitID, date, &want)
}

func (e *Engine) apply(ctx context.Context, habitID, date string, want *bool) (ToggleResult, error) {
	unlock := e.locks.Lock(habitID)
	defer unlock()

	var res ToggleResult
	var outbox []models.Notification
	err := e.store.WithTx(ctx, func(q storage.Queries) error {
		h, err := q.GetHabit(ctx, habitID)
		if err != nil {
			return err
		}
		res, outbox, err = e.toggleTx(ctx, q, h, date, want)
		return err
	})
	if err != nil {
		return ToggleResult{}, err
	}

	if res.Changed {
		metrics.RecordToggle(res.Completed)
		logger.Debug("Toggled completion", "habit", habitID, "date", date, "completed", res.Completed, "count", res.Count)
	}
	if res.GoalAchieved {
		metrics.GoalsAchieved.Inc()
		logger.Info("Goal achieved", "habit", habitID, "count", res.Count, "target", res.Habit.TargetDays)
	}
	e.dispatch(ctx, outbox)
	return res, nil
}

// toggleTx runs inside the caller's transaction. On an incomplete to complete
// transition it records the TASK_COMPLETED notification and applies the goal
// check so the two can never be separated by a crash.
func (e *Engine) toggleTx(ctx context.Context, q storage.Queries, h models.Habit, date string, want *bool) (ToggleResult, []models.Notification, error) {
	res := ToggleResult{Habit: h, Date: date}

	existing, err := q.GetCompletion(ctx, h.ID, date)
	exists := err == nil
	if err != nil && !apperrors.IsNotFound(err) {
		return res, nil, err
	}

	if want != nil && *want == exists {
		res.Completed = exists
		res.Count, err = q.CountCompletions(ctx, h.ID)
		return res, nil, err
	}

	res.Changed = true
	now := e.now()
	var outbox []models.Notification

	if exists {
		if err := q.DeleteCompletion(ctx, existing.ID); err != nil {
			return res, nil, err
		}
		res.Completed = false
	} else {
		c := models.Completion{ID: e.newID(), HabitID: h.ID, Date: date, CompletedAt: now}
		if err := q.AddCompletion(ctx, c); err != nil {
			return res, nil, err
		}
		note := models.TaskCompletedNotification(e.newID(), h, now)
		if err := q.AddNotification(ctx, note); err != nil {
			return res, nil, err
		}
		outbox = append(outbox, note)
		res.Completed = true
	}

	res.Count, err = q.CountCompletions(ctx, h.ID)
	if err != nil {
		return res, nil, err
	}

	if res.Completed {
		goal, err := e.goalTx(ctx, q, &res.Habit, res.Count, now)
		if err != nil {
			return res, nil, err
		}
		if goal != nil {
			res.GoalAchieved = true
			outbox = append(outbox, *goal)
		}
	}
	return res, outbox, nil
}

// goalTx deactivates h and records GOAL_ACHIEVED when an active habit's count
// reaches its target. Returns the notification, nil when nothing happened.
func (e *Engine) goalTx(ctx context.Context, q storage.Queries, h *models.Habit, count int, now time.Time) (*models.Notification, error) {
	if !h.IsActive || !h.GoalReached(count) {
		return nil, nil
	}
	if err := q.SetHabitActive(ctx, h.ID, false); err != nil {
		return nil, err
	}
	h.IsActive = false
	note := models.GoalAchievedNotification(e.newID(), *h, count, now)
	if err := q.AddNotification(ctx, note); err != nil {
		return nil, err
	}
	return &note, nil
}

// CompletionCount returns the all-time number of completed dates for habitID
func (e *Engine) CompletionCount(ctx context.Context, habitID string) (int, error) {
	return e.store.CountCompletions(ctx, habitID)
}

// CheckGoalAchievement deactivates habitID if its count reached the target.
// It fires at most once: an archived habit is never re-notified.
func (e *Engine) CheckGoalAchievement(ctx context.Context, habitID string) (bool, error) {
	unlock := e.locks.Lock(habitID)
	defer unlock()

	var goal *models.Notification
	var h models.Habit
	err := e.store.WithTx(ctx, func(q storage.Queries) error {
		var err error
		h, err = q.GetHabit(ctx, habitID)
		if err != nil {
			return err
		}
		count, err := q.CountCompletions(ctx, habitID)
		if err != nil {
			return err
		}
		goal, err = e.goalTx(ctx, q, &h, count, e.now())
		return err
	})
	if err != nil {
		return false, err
	}
	if goal == nil {
		return false, nil
	}
	metrics.GoalsAchieved.Inc()
	logger.Info("Goal achieved", "habit", habitID, "target", h.TargetDays)
	e.dispatch(ctx, []models.Notification{*goal})
	return true, nil
}

// UpdateHabit stores the editable fields of h. Creation time and the active
// flag are taken from the stored row, and the goal check runs in the same
// transaction, so a lowered target archives the habit at once.
func (e *Engine) UpdateHabit(ctx context.Context, h models.Habit) (models.Habit, error) {
	unlock := e.locks.Lock(h.ID)
	defer unlock()

	var goal *models.Notification
	err := e.store.WithTx(ctx, func(q storage.Queries) error {
		stored, err := q.GetHabit(ctx, h.ID)
		if err != nil {
			return err
		}
		h.CreatedAt = stored.CreatedAt
		h.IsActive = stored.IsActive
		if err := q.UpdateHabit(ctx, h); err != nil {
			return err
		}
		count, err := q.CountCompletions(ctx, h.ID)
		if err != nil {
			return err
		}
		goal, err = e.goalTx(ctx, q, &h, count, e.now())
		return err
	})
	if err != nil {
		return models.Habit{}, err
	}
	if goal != nil {
		metrics.GoalsAchieved.Inc()
		logger.Info("Goal achieved", "habit", h.ID, "target", h.TargetDays)
		e.dispatch(ctx, []models.Notification{*goal})
	}
	return h, nil
}

// ReactivateHabit puts habitID back on the active list. A target above zero
// replaces the stored one, and the result must exceed the completions already
// recorded.
func (e *Engine) ReactivateHabit(ctx context.Context, habitID string, target int) (models.Habit, error) {
	unlock := e.locks.Lock(habitID)
	defer unlock()

	var h models.Habit
	err := e.store.WithTx(ctx, func(q storage.Queries) error {
		var err error
		h, err = q.GetHabit(ctx, habitID)
		if err != nil {
			return err
		}
		count, err := q.CountCompletions(ctx, habitID)
		if err != nil {
			return err
		}
		if target > 0 {
			h.TargetDays = target
		}
		if err := h.Validate(); err != nil {
			return err
		}
		if h.GoalReached(count) {
			return apperrors.Invalidf("target must exceed the %d completed days, got %d", count, h.TargetDays)
		}
		if err := q.UpdateHabit(ctx, h); err != nil {
			return err
		}
		h.IsActive = true
		return q.SetHabitActive(ctx, habitID, true)
	})
	if err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

// ReconcileGoals applies the goal check to every active habit and returns the
// IDs that were deactivated.
func (e *Engine) ReconcileGoals(ctx context.Context) ([]string, error) {
	active, err := e.store.GetHabits(ctx, true)
	if err != nil {
		return nil, err
	}
	var achieved []string
	for _, h := range active {
		ok, err := e.CheckGoalAchievement(ctx, h.ID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue // deleted meanwhile
			}
			return achieved, fmt.Errorf("reconcile goal of %s: %w", h.ID, err)
		}
		if ok {
			achieved = append(achieved, h.ID)
		}
	}
	return achieved, nil
}

// CreateTestNotification records a TEST notification and raises it
func (e *Engine) CreateTestNotification(ctx context.Context) (models.Notification, error) {
	note := models.TestNotification(e.newID(), e.now())
	if err := e.store.AddNotification(ctx, note); err != nil {
		return models.Notification{}, err
	}
	e.dispatch(ctx, []models.Notification{note})
	return note, nil
}
