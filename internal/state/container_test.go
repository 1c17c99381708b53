package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artyomka101/appforphone/internal/constants"
	"github.com/artyomka101/appforphone/internal/engine"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/models"
	"github.com/artyomka101/appforphone/internal/notifier"
	"github.com/artyomka101/appforphone/internal/storage/sqlite"
)

const day1 = "2026-01-01"

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	s := sqlite.NewStore(path, nil)
	require.NoError(t, s.Init(context.Background()))
	return s
}

func startContainer(t *testing.T, s *sqlite.Store, opts ...Option) *Container {
	t.Helper()
	opts = append([]Option{WithDate(day1), WithDebounce(10 * time.Millisecond)}, opts...)
	c := New(s, engine.New(s, notifier.Nop{}), opts...)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { c.Close() })
	return c
}

func setup(t *testing.T, opts ...Option) (*Container, *sqlite.Store) {
	t.Helper()
	s := openStore(t, filepath.Join(t.TempDir(), "state.db"))
	t.Cleanup(func() { s.Close() })
	return startContainer(t, s, opts...), s
}

func newHabit(title string, target int) models.Habit {
	return models.Habit{Title: title, TargetDays: target}
}

func countType(t *testing.T, s *sqlite.Store, typ constants.NotificationType) int {
	t.Helper()
	all, err := s.GetNotifications(context.Background())
	require.NoError(t, err)
	n := 0
	for _, note := range all {
		if note.Type == typ {
			n++
		}
	}
	return n
}

func TestStartCreatesDefaultProfile(t *testing.T) {
	c, _ := setup(t)
	snap := c.Snapshot()
	assert.Equal(t, constants.DefaultProfileName, snap.Profile.Name)
	assert.True(t, snap.Loaded)
	assert.Equal(t, day1, snap.SelectedDate)
}

func TestCompletionRateWithoutActiveHabits(t *testing.T) {
	c, _ := setup(t)
	assert.Equal(t, 0, c.CompletedToday())
	assert.Equal(t, 0, c.CompletionRate())
}

func TestCompletionRate(t *testing.T) {
	ctx := context.Background()
	c, _ := setup(t)

	var ids []string
	for _, title := range []string{"Read", "Walk", "Floss"} {
		h, err := c.AddHabit(ctx, newHabit(title, 30))
		require.NoError(t, err)
		ids = append(ids, h.ID)
	}
	_, err := c.ToggleHabitCompletion(ctx, ids[0])
	require.NoError(t, err)

	// optimistic value counts before the write lands
	assert.Equal(t, 1, c.CompletedToday())
	assert.Equal(t, 33, c.CompletionRate())

	require.NoError(t, c.Flush(ctx))
	snap := c.Snapshot()
	assert.Empty(t, snap.Pending)
	assert.Equal(t, models.CellComplete, snap.Confirmed[ids[0]])
	assert.Equal(t, 33, snap.CompletionRate())
}

func TestDrinkWaterReachesGoal(t *testing.T) {
	ctx := context.Background()
	c, s := setup(t)

	h, err := c.AddHabit(ctx, newHabit("Drink water", 3))
	require.NoError(t, err)

	for _, date := range []string{"2026-01-01", "2026-01-02", "2026-01-03"} {
		require.NoError(t, c.SetSelectedDate(ctx, date))
		done, err := c.ToggleHabitCompletion(ctx, h.ID)
		require.NoError(t, err)
		assert.True(t, done)
		require.NoError(t, c.Flush(ctx))
	}
	require.NoError(t, c.Reload(ctx))

	snap := c.Snapshot()
	assert.Empty(t, snap.Active)
	require.Len(t, snap.Archived, 1)
	assert.Equal(t, "Drink water", snap.Archived[0].Title)
	assert.Equal(t, 3, snap.Counts[h.ID])
	assert.Equal(t, 1, countType(t, s, constants.NotificationGoalAchieved))
	assert.Equal(t, 3, countType(t, s, constants.NotificationTaskCompleted))
}

func TestDoubleToggleLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	c, s := setup(t, WithDebounce(time.Hour))

	h, err := c.AddHabit(ctx, newHabit("Stretch", 30))
	require.NoError(t, err)

	first, err := c.ToggleHabitCompletion(ctx, h.ID)
	require.NoError(t, err)
	second, err := c.ToggleHabitCompletion(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	require.NoError(t, c.Flush(ctx))

	completions, err := s.GetCompletionsForHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, completions)
	assert.Equal(t, 0, countType(t, s, constants.NotificationTaskCompleted))

	pending, err := s.GetPendingToggles(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRapidTogglesCoalesce(t *testing.T) {
	ctx := context.Background()
	c, s := setup(t, WithDebounce(time.Hour))

	h, err := c.AddHabit(ctx, newHabit("Journal", 30))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.ToggleHabitCompletion(ctx, h.ID)
		require.NoError(t, err)
	}
	snap := c.Snapshot()
	assert.Equal(t, true, snap.Pending[h.ID])
	assert.Equal(t, models.CellIncomplete, snap.Confirmed[h.ID])
	assert.Equal(t, models.CellComplete, snap.Cell(h.ID))

	require.NoError(t, c.Flush(ctx))

	completions, err := s.GetCompletionsForHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, completions, 1)
	assert.Equal(t, 1, countType(t, s, constants.NotificationTaskCompleted))
}

func TestDebouncedPersistLands(t *testing.T) {
	ctx := context.Background()
	c, s := setup(t, WithDebounce(0))

	h, err := c.AddHabit(ctx, newHabit("Plan day", 30))
	require.NoError(t, err)
	_, err = c.ToggleHabitCompletion(ctx, h.ID)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		done, err := s.GetCompletion(ctx, h.ID, day1)
		return err == nil && done.HabitID == h.ID
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCrashRecoveryReplaysJournal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "crash.db")

	first := openStore(t, path)
	c := New(first, engine.New(first, notifier.Nop{}), WithDate(day1), WithDebounce(time.Hour))
	require.NoError(t, c.Start(ctx))
	h, err := c.AddHabit(ctx, newHabit("Vitamins", 30))
	require.NoError(t, err)
	_, err = c.ToggleHabitCompletion(ctx, h.ID)
	require.NoError(t, err)

	// simulate a crash: the timer never fires and Close is never called
	pending, err := first.GetPendingToggles(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	_, err = first.GetCompletion(ctx, h.ID, day1)
	require.True(t, apperrors.IsNotFound(err))
	require.NoError(t, first.Close())

	second := openStore(t, path)
	t.Cleanup(func() { second.Close() })
	restarted := startContainer(t, second)

	snap := restarted.Snapshot()
	assert.Equal(t, models.CellComplete, snap.Cell(h.ID))
	assert.Equal(t, 1, snap.Counts[h.ID])
	pending, err = second.GetPendingToggles(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProfileRenameSurvivesNewSession(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "profile.db")

	first := openStore(t, path)
	c := New(first, engine.New(first, notifier.Nop{}), WithDate(day1))
	require.NoError(t, c.Start(ctx))

	assert.True(t, apperrors.IsValidation(c.RenameProfile(ctx, "   ")))
	require.NoError(t, c.RenameProfile(ctx, "  Alice "))
	assert.Equal(t, "Alice", c.Snapshot().Profile.Name)
	require.NoError(t, c.Close())
	require.NoError(t, first.Close())

	second := sqlite.NewStore(path, nil)
	require.NoError(t, second.Load(ctx))
	t.Cleanup(func() { second.Close() })
	again := startContainer(t, second)
	assert.Equal(t, "Alice", again.Snapshot().Profile.Name)
}

func TestDeleteHabitRemovesFromBothViews(t *testing.T) {
	ctx := context.Background()
	c, _ := setup(t, WithDebounce(time.Hour))

	active, err := c.AddHabit(ctx, newHabit("Run", 30))
	require.NoError(t, err)
	archived, err := c.AddHabit(ctx, newHabit("Sketch", 30))
	require.NoError(t, err)
	require.NoError(t, c.CompleteHabit(ctx, archived.ID))

	_, err = c.ToggleHabitCompletion(ctx, active.ID)
	require.NoError(t, err)

	require.NoError(t, c.DeleteHabit(ctx, active.ID))
	require.NoError(t, c.DeleteHabit(ctx, archived.ID))

	snap := c.Snapshot()
	assert.Empty(t, snap.Active)
	assert.Empty(t, snap.Archived)
	assert.Empty(t, snap.Pending)

	_, err = c.engine.CompletionCount(ctx, active.ID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(c.DeleteHabit(ctx, active.ID)))
	require.NoError(t, c.Flush(ctx))
}

func TestToggleUnknownHabit(t *testing.T) {
	c, _ := setup(t)
	_, err := c.ToggleHabitCompletion(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, c.Snapshot().Pending)
}

func TestAddHabitValidation(t *testing.T) {
	ctx := context.Background()
	c, _ := setup(t)

	tests := []struct {
		name string
		h    models.Habit
	}{
		{name: "blank title", h: newHabit("   ", 30)},
		{name: "zero target", h: newHabit("Read", 0)},
		{name: "bad color", h: models.Habit{Title: "Read", TargetDays: 5, Color: "blue"}},
		{name: "bad icon", h: models.Habit{Title: "Read", TargetDays: 5, Icon: "rocket"}},
		{name: "bad time", h: models.Habit{Title: "Read", TargetDays: 5, ScheduledTime: "25:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.AddHabit(ctx, tt.h)
			assert.True(t, apperrors.IsValidation(err), "got %v", err)
		})
	}
	assert.Empty(t, c.Snapshot().Active)
}

func TestAddFromTemplate(t *testing.T) {
	ctx := context.Background()
	c, _ := setup(t)

	h, err := c.AddFromTemplate(ctx, "water")
	require.NoError(t, err)
	assert.Equal(t, "Drink water", h.Title)
	assert.Equal(t, "#42A5F5", h.Color)
	assert.Equal(t, "08:00", h.ScheduledTime)
	assert.Len(t, c.Snapshot().Active, 1)

	_, err = c.AddFromTemplate(ctx, "nope")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateHabitLoweringTargetArchives(t *testing.T) {
	ctx := context.Background()
	c, s := setup(t)

	h, err := c.AddHabit(ctx, newHabit("Floss", 30))
	require.NoError(t, err)
	_, err = c.ToggleHabitCompletion(ctx, h.ID)
	require.NoError(t, err)
	require.NoError(t, c.Flush(ctx))

	h.TargetDays = 1
	h.Title = "Floss daily"
	updated, err := c.UpdateHabit(ctx, h)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 1, countType(t, s, constants.NotificationGoalAchieved))

	snap := c.Snapshot()
	got, ok := snap.Habit(h.ID)
	require.True(t, ok)
	assert.Equal(t, "Floss daily", got.Title)
	assert.Empty(t, snap.Active)
}

func TestUpdateHabitAfterConcurrentGoalStaysArchived(t *testing.T) {
	ctx := context.Background()
	c, s := setup(t)

	h, err := c.AddHabit(ctx, newHabit("Stretch", 3))
	require.NoError(t, err)
	for _, d := range []string{"2025-12-30", "2025-12-31"} {
		_, err := c.engine.ToggleCompletion(ctx, h.ID, d)
		require.NoError(t, err)
	}

	// another writer reaches the goal while h is being edited
	res, err := c.engine.ToggleCompletion(ctx, h.ID, day1)
	require.NoError(t, err)
	require.True(t, res.GoalAchieved)

	h.Description = "after the morning run"
	updated, err := c.UpdateHabit(ctx, h)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	got, err := s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "after the morning run", got.Description)
	assert.Equal(t, 1, countType(t, s, constants.NotificationGoalAchieved))
	assert.Empty(t, c.Snapshot().Active)
}

func TestReactivateHabitCountsUnderLock(t *testing.T) {
	ctx := context.Background()
	c, s := setup(t)

	h, err := c.AddHabit(ctx, newHabit("Budget", 1))
	require.NoError(t, err)
	_, err = c.engine.ToggleCompletion(ctx, h.ID, day1)
	require.NoError(t, err)
	_, err = c.engine.ToggleCompletion(ctx, h.ID, "2026-01-02")
	require.NoError(t, err)

	// 2 days are recorded, so a target of 2 would archive it again
	_, err = c.ReactivateHabit(ctx, h.ID, 2)
	assert.True(t, apperrors.IsValidation(err))
	got, err := s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 1, got.TargetDays)

	again, err := c.ReactivateHabit(ctx, h.ID, 3)
	require.NoError(t, err)
	assert.True(t, again.IsActive)
	assert.Equal(t, 1, countType(t, s, constants.NotificationGoalAchieved))
}

func TestReactivateHabit(t *testing.T) {
	ctx := context.Background()
	c, _ := setup(t)

	h, err := c.AddHabit(ctx, newHabit("Budget", 1))
	require.NoError(t, err)
	_, err = c.ToggleHabitCompletion(ctx, h.ID)
	require.NoError(t, err)
	require.NoError(t, c.Flush(ctx))
	require.NoError(t, c.Reload(ctx))
	require.Len(t, c.Snapshot().Archived, 1)

	_, err = c.ReactivateHabit(ctx, h.ID, 0)
	assert.True(t, apperrors.IsValidation(err))

	again, err := c.ReactivateHabit(ctx, h.ID, 5)
	require.NoError(t, err)
	assert.True(t, again.IsActive)
	assert.Equal(t, 5, again.TargetDays)
	assert.Len(t, c.Snapshot().Active, 1)
}

func TestNotificationOps(t *testing.T) {
	ctx := context.Background()
	c, _ := setup(t)

	first, err := c.CreateTestNotification(ctx)
	require.NoError(t, err)
	_, err = c.CreateTestNotification(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Snapshot().UnreadCount)

	require.NoError(t, c.MarkNotificationRead(ctx, first.ID))
	assert.Equal(t, 1, c.Snapshot().UnreadCount)

	require.NoError(t, c.DeleteNotification(ctx, first.ID))
	assert.Len(t, c.Snapshot().Notifications, 1)
	assert.True(t, apperrors.IsNotFound(c.MarkNotificationRead(ctx, first.ID)))

	require.NoError(t, c.ClearNotifications(ctx))
	assert.Empty(t, c.Snapshot().Notifications)
}

func TestSetSelectedDate(t *testing.T) {
	ctx := context.Background()
	c, _ := setup(t)

	h, err := c.AddHabit(ctx, newHabit("Walk", 30))
	require.NoError(t, err)
	_, err = c.ToggleHabitCompletion(ctx, h.ID)
	require.NoError(t, err)
	require.NoError(t, c.Flush(ctx))

	assert.True(t, apperrors.IsValidation(c.SetSelectedDate(ctx, "01/02/2026")))

	require.NoError(t, c.SetSelectedDate(ctx, "2026-01-02"))
	snap := c.Snapshot()
	assert.Equal(t, "2026-01-02", snap.SelectedDate)
	assert.Equal(t, models.CellIncomplete, snap.Cell(h.ID))
	assert.Equal(t, 1, snap.Counts[h.ID])

	require.NoError(t, c.SetSelectedDate(ctx, day1))
	assert.Equal(t, models.CellComplete, c.Snapshot().Cell(h.ID))
}

func TestSubscribeReceivesOptimisticSnapshot(t *testing.T) {
	ctx := context.Background()
	c, _ := setup(t, WithDebounce(time.Hour))

	h, err := c.AddHabit(ctx, newHabit("Meditate", 30))
	require.NoError(t, err)

	ch, cancel := c.Subscribe()
	defer cancel()
	<-ch // current value

	_, err = c.ToggleHabitCompletion(ctx, h.ID)
	require.NoError(t, err)

	select {
	case snap := <-ch:
		assert.Equal(t, true, snap.Pending[h.ID])
		assert.Equal(t, 1, snap.CompletedToday())
	case <-time.After(time.Second):
		t.Fatal("no snapshot after toggle")
	}
}

func TestJournalFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	c, s := setup(t, WithDebounce(time.Hour))

	h, err := c.AddHabit(ctx, newHabit("Cold shower", 30))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = c.ToggleHabitCompletion(ctx, h.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStore)

	snap := c.Snapshot()
	assert.Empty(t, snap.Pending)
	assert.Equal(t, models.CellIncomplete, snap.Cell(h.ID))
	assert.Error(t, snap.Err)
}

func TestPersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	c, s := setup(t, WithDebounce(time.Hour))

	h, err := c.AddHabit(ctx, newHabit("Stretch", 30))
	require.NoError(t, err)
	done, err := c.ToggleHabitCompletion(ctx, h.ID)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, models.CellComplete, c.Snapshot().Cell(h.ID))

	require.NoError(t, s.Close())
	err = c.Flush(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStore)

	snap := c.Snapshot()
	assert.Empty(t, snap.Pending)
	assert.Equal(t, models.CellIncomplete, snap.Cell(h.ID))
	assert.Error(t, snap.Err)
}

func TestClosedContainerRejectsToggles(t *testing.T) {
	c, _ := setup(t)
	require.NoError(t, c.Close())
	_, err := c.ToggleHabitCompletion(context.Background(), "any")
	assert.ErrorIs(t, err, ErrClosed)

	ch, _ := c.Subscribe()
	_, open := <-ch
	assert.False(t, open)
}
