// Package storagetest holds the behavior every storage.Provider must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artyomka101/appforphone/internal/constants"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/events"
	"github.com/artyomka101/appforphone/internal/models"
	"github.com/artyomka101/appforphone/internal/storage"
)

// Factory returns an initialized, empty provider. Cleanup is the factory's job.
type Factory func(t *testing.T) storage.Provider

// Habit returns a valid habit created at the given offset from a fixed base time
func Habit(title string, offset time.Duration) models.Habit {
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	return models.NewHabit(uuid.NewString(), title, base.Add(offset))
}

// Run executes the provider conformance suite
func Run(t *testing.T, newStore Factory) {
	t.Run("HabitCRUD", func(t *testing.T) { testHabitCRUD(t, newStore(t)) })
	t.Run("ActiveArchivedOrdering", func(t *testing.T) { testOrdering(t, newStore(t)) })
	t.Run("Completions", func(t *testing.T) { testCompletions(t, newStore(t)) })
	t.Run("DeleteHabitCascade", func(t *testing.T) { testDeleteCascade(t, newStore(t)) })
	t.Run("Notifications", func(t *testing.T) { testNotifications(t, newStore(t)) })
	t.Run("Profile", func(t *testing.T) { testProfile(t, newStore(t)) })
	t.Run("PendingToggles", func(t *testing.T) { testPending(t, newStore(t)) })
	t.Run("TransactionRollback", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("ChangeFeed", func(t *testing.T) { testChangeFeed(t, newStore(t)) })
}

func testHabitCRUD(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	h := Habit("Drink water", 0)
	h.Description = "8 glasses"
	h.ScheduledTime = "08:00"
	require.NoError(t, s.AddHabit(ctx, h))

	got, err := s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.Title, got.Title)
	assert.Equal(t, "8 glasses", got.Description)
	assert.Equal(t, "08:00", got.ScheduledTime)
	assert.True(t, got.IsActive)
	assert.True(t, h.CreatedAt.Equal(got.CreatedAt))

	got.Title = "Drink more water"
	got.TargetDays = 10
	require.NoError(t, s.UpdateHabit(ctx, got))
	again, err := s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drink more water", again.Title)
	assert.Equal(t, 10, again.TargetDays)

	require.NoError(t, s.SetHabitActive(ctx, h.ID, false))
	again.IsActive = true
	again.Description = "stale copy"
	require.NoError(t, s.UpdateHabit(ctx, again))
	after, err := s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "stale copy", after.Description)
	assert.False(t, after.IsActive, "UpdateHabit must not touch the active flag")

	_, err = s.GetHabit(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)

	missing := Habit("ghost", 0)
	assert.True(t, apperrors.IsNotFound(s.UpdateHabit(ctx, missing)))
	assert.True(t, apperrors.IsNotFound(s.SetHabitActive(ctx, missing.ID, false)))
}

func testOrdering(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	older := Habit("older", 0)
	newer := Habit("newer", time.Hour)
	archived := Habit("archived", 2*time.Hour)
	for _, h := range []models.Habit{older, newer, archived} {
		require.NoError(t, s.AddHabit(ctx, h))
	}
	require.NoError(t, s.SetHabitActive(ctx, archived.ID, false))

	active, err := s.GetHabits(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "newer", active[0].Title)
	assert.Equal(t, "older", active[1].Title)

	inactive, err := s.GetHabits(ctx, false)
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, archived.ID, inactive[0].ID)

	all, err := s.GetAllHabits(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testCompletions(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	h := Habit("Read", 0)
	require.NoError(t, s.AddHabit(ctx, h))

	_, err := s.GetCompletion(ctx, h.ID, "2026-01-10")
	assert.True(t, apperrors.IsNotFound(err))

	c := models.Completion{ID: uuid.NewString(), HabitID: h.ID, Date: "2026-01-10", CompletedAt: time.Now()}
	require.NoError(t, s.AddCompletion(ctx, c))
	require.NoError(t, s.AddCompletion(ctx, models.Completion{ID: uuid.NewString(), HabitID: h.ID, Date: "2026-01-11", CompletedAt: time.Now()}))

	got, err := s.GetCompletion(ctx, h.ID, "2026-01-10")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	n, err := s.CountCompletions(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	forDate, err := s.GetCompletionsForDate(ctx, "2026-01-11")
	require.NoError(t, err)
	assert.Len(t, forDate, 1)

	forHabit, err := s.GetCompletionsForHabit(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, forHabit, 2)
	assert.Equal(t, "2026-01-10", forHabit[0].Date)

	require.NoError(t, s.DeleteCompletion(ctx, c.ID))
	assert.True(t, apperrors.IsNotFound(s.DeleteCompletion(ctx, c.ID)))
	n, err = s.CountCompletions(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.CountCompletions(ctx, "no-such-habit")
	assert.True(t, apperrors.IsNotFound(err))
}

func testDeleteCascade(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	h := Habit("Stretch", 0)
	require.NoError(t, s.AddHabit(ctx, h))
	require.NoError(t, s.AddCompletion(ctx, models.Completion{ID: uuid.NewString(), HabitID: h.ID, Date: "2026-01-10", CompletedAt: time.Now()}))
	require.NoError(t, s.SavePendingToggle(ctx, models.PendingToggle{HabitID: h.ID, Date: "2026-01-11", Completed: true, QueuedAt: time.Now()}))
	n := models.TaskCompletedNotification(uuid.NewString(), h, time.Now())
	require.NoError(t, s.AddNotification(ctx, n))

	require.NoError(t, s.DeleteHabit(ctx, h.ID))

	_, err := s.GetHabit(ctx, h.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = s.CountCompletions(ctx, h.ID)
	assert.True(t, apperrors.IsNotFound(err))
	all, err := s.GetAllCompletions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	pending, err := s.GetPendingToggles(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// the notification log is kept
	_, err = s.GetNotification(ctx, n.ID)
	assert.NoError(t, err)

	assert.True(t, apperrors.IsNotFound(s.DeleteHabit(ctx, h.ID)))
}

func testNotifications(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	h := Habit("Walk", 0)
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	first := models.TaskCompletedNotification(uuid.NewString(), h, base)
	second := models.GoalAchievedNotification(uuid.NewString(), h, 30, base.Add(time.Minute))
	test := models.TestNotification(uuid.NewString(), base.Add(2*time.Minute))
	for _, n := range []models.Notification{first, second, test} {
		require.NoError(t, s.AddNotification(ctx, n))
	}

	list, err := s.GetNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, test.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[2].ID)
	assert.Equal(t, constants.NotificationGoalAchieved, list[1].Type)
	assert.Equal(t, h.ID, list[1].HabitID)
	assert.Empty(t, list[0].HabitID)
	assert.Equal(t, "01.02.2026 10:02", list[0].CreatedAt)

	unread, err := s.CountUnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	require.NoError(t, s.MarkNotificationRead(ctx, first.ID))
	got, err := s.GetNotification(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	assert.True(t, apperrors.IsNotFound(s.MarkNotificationRead(ctx, "nope")))

	require.NoError(t, s.DeleteNotification(ctx, second.ID))
	assert.True(t, apperrors.IsNotFound(s.DeleteNotification(ctx, second.ID)))

	require.NoError(t, s.ClearNotifications(ctx))
	list, err = s.GetNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testProfile(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	_, err := s.GetProfile(ctx)
	assert.True(t, apperrors.IsNotFound(err))

	p := models.DefaultProfile(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.SaveProfile(ctx, p))

	p.Name = "Artyom"
	p.CreatedAt = time.Now() // ignored on update
	require.NoError(t, s.SaveProfile(ctx, p))

	got, err := s.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, constants.ProfileID, got.ID)
	assert.Equal(t, "Artyom", got.Name)
	assert.Equal(t, 2026, got.CreatedAt.Year())
}

func testPending(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	queued := time.Date(2026, 1, 10, 9, 0, 0, 1, time.UTC)
	p := models.PendingToggle{HabitID: "h1", Date: "2026-01-10", Completed: true, QueuedAt: queued}
	require.NoError(t, s.SavePendingToggle(ctx, p))

	newer := p
	newer.Completed = false
	newer.QueuedAt = queued.Add(time.Millisecond)
	require.NoError(t, s.SavePendingToggle(ctx, newer))

	// stale delete leaves the newer entry in place
	require.NoError(t, s.DeletePendingToggle(ctx, p))
	list, err := s.GetPendingToggles(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Completed)
	assert.True(t, newer.QueuedAt.Equal(list[0].QueuedAt))

	require.NoError(t, s.DeletePendingToggle(ctx, newer))
	list, err = s.GetPendingToggles(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testRollback(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	h := Habit("Journal", 0)
	require.NoError(t, s.AddHabit(ctx, h))

	boom := apperrors.Invalidf("abort")
	err := s.WithTx(ctx, func(q storage.Queries) error {
		if err := q.AddCompletion(ctx, models.Completion{ID: uuid.NewString(), HabitID: h.ID, Date: "2026-01-10", CompletedAt: time.Now()}); err != nil {
			return err
		}
		if err := q.SetHabitActive(ctx, h.ID, false); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := s.CountCompletions(ctx, h.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	got, err := s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func testChangeFeed(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	feed, cancel := s.Subscribe()
	defer cancel()

	h := Habit("Meditate", 0)
	require.NoError(t, s.AddHabit(ctx, h))
	assert.Equal(t, events.Event{Topic: events.TopicHabits, HabitID: h.ID}, next(t, feed))

	// nothing is published until commit, and failed transactions publish nothing
	_ = s.WithTx(ctx, func(q storage.Queries) error {
		_ = q.SetHabitActive(ctx, h.ID, false)
		assertEmpty(t, feed)
		return apperrors.Invalidf("abort")
	})
	assertEmpty(t, feed)

	require.NoError(t, s.WithTx(ctx, func(q storage.Queries) error {
		return q.AddCompletion(ctx, models.Completion{ID: uuid.NewString(), HabitID: h.ID, Date: "2026-01-10", CompletedAt: time.Now()})
	}))
	assert.Equal(t, events.Event{Topic: events.TopicCompletions, HabitID: h.ID}, next(t, feed))
}

func next(t *testing.T, feed <-chan events.Event) events.Event {
	t.Helper()
	select {
	case evt := <-feed:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
		return events.Event{}
	}
}

func assertEmpty(t *testing.T, feed <-chan events.Event) {
	t.Helper()
	select {
	case evt := <-feed:
		t.Errorf("unexpected change event %+v", evt)
	default:
	}
}
