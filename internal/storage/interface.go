package storage

import (
	"context"

	"github.com/artyomka101/appforphone/internal/events"
	"github.com/artyomka101/appforphone/internal/models"
)

// Queries is the one-shot data access contract. It holds no business logic:
// toggling, counting against targets and deactivation live in the engine.
// Lookups of missing rows return errors wrapping errors.ErrNotFound;
// every other failure is an *errors.StoreError.
type Queries interface {
	// Habits
	AddHabit(ctx context.Context, h models.Habit) error
	GetHabit(ctx context.Context, id string) (models.Habit, error)
	// GetHabits returns active or archived habits, newest first
	GetHabits(ctx context.Context, active bool) ([]models.Habit, error)
	GetAllHabits(ctx context.Context) ([]models.Habit, error)
	// UpdateHabit writes the editable fields; the active flag is not touched
	UpdateHabit(ctx context.Context, h models.Habit) error
	SetHabitActive(ctx context.Context, id string, active bool) error
	// DeleteHabit removes the habit, its completions and pending toggles.
	// Notifications referencing it are kept.
	DeleteHabit(ctx context.Context, id string) error

	// Completions
	GetCompletion(ctx context.Context, habitID, date string) (models.Completion, error)
	AddCompletion(ctx context.Context, c models.Completion) error
	DeleteCompletion(ctx context.Context, id string) error
	// CountCompletions counts completed dates of an existing habit
	CountCompletions(ctx context.Context, habitID string) (int, error)
	GetCompletionsForDate(ctx context.Context, date string) ([]models.Completion, error)
	GetCompletionsForHabit(ctx context.Context, habitID string) ([]models.Completion, error)
	GetAllCompletions(ctx context.Context) ([]models.Completion, error)

	// Notifications
	AddNotification(ctx context.Context, n models.Notification) error
	GetNotification(ctx context.Context, id string) (models.Notification, error)
	// GetNotifications returns every notification, newest first
	GetNotifications(ctx context.Context) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context) error

	// Profile
	GetProfile(ctx context.Context) (models.Profile, error)
	SaveProfile(ctx context.Context, p models.Profile) error

	// Pending toggles journal
	SavePendingToggle(ctx context.Context, p models.PendingToggle) error
	GetPendingToggles(ctx context.Context) ([]models.PendingToggle, error)
	// DeletePendingToggle removes the journal entry only if it is still the one
	// queued at p.QueuedAt, so a newer toggle of the same cell survives.
	DeletePendingToggle(ctx context.Context, p models.PendingToggle) error
}

// Provider is a persistence backend
type Provider interface {
	Queries

	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// WithTx runs fn in a single transaction. Change events for writes made
	// through q are published only after commit.
	WithTx(ctx context.Context, fn func(q Queries) error) error

	// Subscribe returns a feed of committed changes
	Subscribe() (<-chan events.Event, func())

	// Utils
	GetConfigPath() string
}
