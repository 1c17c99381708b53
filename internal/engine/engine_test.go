package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artyomka101/appforphone/internal/constants"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/models"
	"github.com/artyomka101/appforphone/internal/storage/sqlite"
	"github.com/artyomka101/appforphone/internal/storage/storagetest"
)

type recordingNotifier struct {
	mu     sync.Mutex
	titles []string
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.titles)
}

func setupEngine(t *testing.T, n *recordingNotifier) (*Engine, *sqlite.Store) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "engine.db"), nil)
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })
	if n == nil {
		n = &recordingNotifier{}
	}
	return New(store, n), store
}

func addHabit(t *testing.T, s *sqlite.Store, title string, target int) models.Habit {
	t.Helper()
	h := storagetest.Habit(title, 0)
	h.TargetDays = target
	require.NoError(t, s.AddHabit(context.Background(), h))
	return h
}

func notificationsOfType(t *testing.T, s *sqlite.Store, typ constants.NotificationType) []models.Notification {
	t.Helper()
	all, err := s.GetNotifications(context.Background())
	require.NoError(t, err)
	var out []models.Notification
	for _, n := range all {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func TestToggleCompletionParity(t *testing.T) {
	ctx := context.Background()
	e, s := setupEngine(t, nil)
	h := addHabit(t, s, "Read", 30)

	for i := 1; i <= 5; i++ {
		res, err := e.ToggleCompletion(ctx, h.ID, "2026-03-01")
		require.NoError(t, err)
		assert.Equal(t, i%2 == 1, res.Completed, "toggle #%d", i)
		assert.True(t, res.Changed)

		done, err := e.IsCompleted(ctx, h.ID, "2026-03-01")
		require.NoError(t, err)
		assert.Equal(t, res.Completed, done)
	}

	count, err := e.CompletionCount(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUncheckKeepsTaskCompletedRecord(t *testing.T) {
	ctx := context.Background()
	e, s := setupEngine(t, nil)
	h := addHabit(t, s, "Stretch", 30)

	_, err := e.ToggleCompletion(ctx, h.ID, "2026-03-01")
	require.NoError(t, err)
	_, err = e.ToggleCompletion(ctx, h.ID, "2026-03-01")
	require.NoError(t, err)

	assert.Len(t, notificationsOfType(t, s, constants.NotificationTaskCompleted), 1)
}

func TestCompletionCountAcrossDates(t *testing.T) {
	ctx := context.Background()
	e, s := setupEngine(t, nil)
	h := addHabit(t, s, "Walk", 30)
	other := addHabit(t, s, "Journal", 30)

	for _, d := range []string{"2026-03-01", "2026-03-02", "2026-03-04"} {
		_, err := e.ToggleCompletion(ctx, h.ID, d)
		require.NoError(t, err)
	}
	_, err := e.ToggleCompletion(ctx, other.ID, "2026-03-01")
	require.NoError(t, err)

	count, err := e.CompletionCount(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = e.CompletionCount(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGoalAchievedOnTarget(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	e, s := setupEngine(t, n)
	h := addHabit(t, s, "Drink water", 3)

	dates := []string{"2026-01-01", "2026-01-02", "2026-01-03"}
	for i, d := range dates {
		res, err := e.ToggleCompletion(ctx, h.ID, d)
		require.NoError(t, err)
		assert.Equal(t, i+1, res.Count)
		assert.Equal(t, i == 2, res.GoalAchieved)
	}

	got, err := s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	goals := notificationsOfType(t, s, constants.NotificationGoalAchieved)
	require.Len(t, goals, 1)
	assert.Equal(t, h.ID, goals[0].HabitID)
	assert.Contains(t, goals[0].Message, "(3 days)")

	// archived habits are not re-notified
	_, err = e.ToggleCompletion(ctx, h.ID, "2026-01-04")
	require.NoError(t, err)
	achieved, err := e.CheckGoalAchievement(ctx, h.ID)
	require.NoError(t, err)
	assert.False(t, achieved)
	assert.Len(t, notificationsOfType(t, s, constants.NotificationGoalAchieved), 1)

	// 4 task completions + 1 goal
	assert.Equal(t, 5, n.count())
}

func TestCheckGoalAchievementBelowTarget(t *testing.T) {
	ctx := context.Background()
	e, s := setupEngine(t, nil)
	h := addHabit(t, s, "Meditate", 5)

	_, err := e.ToggleCompletion(ctx, h.ID, "2026-01-01")
	require.NoError(t, err)

	achieved, err := e.CheckGoalAchievement(ctx, h.ID)
	require.NoError(t, err)
	assert.False(t, achieved)

	got, err := s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestReconcileGoals(t *testing.T) {
	ctx := context.Background()
	e, s := setupEngine(t, nil)
	done := addHabit(t, s, "Vitamins", 2)
	open := addHabit(t, s, "Run", 10)

	// completions written behind the engine's back, as after a crash
	for i, d := range []string{"2026-02-01", "2026-02-02"} {
		require.NoError(t, s.AddCompletion(ctx, models.Completion{
			ID: fmt.Sprintf("c%d", i), HabitID: done.ID, Date: d, CompletedAt: time.Now(),
		}))
	}

	achieved, err := e.ReconcileGoals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{done.ID}, achieved)

	got, err := s.GetHabit(ctx, open.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	again, err := e.ReconcileGoals(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestSetCompletedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e, s := setupEngine(t, nil)
	h := addHabit(t, s, "Floss", 30)

	res, err := e.SetCompleted(ctx, h.ID, "2026-03-01", true)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	res, err = e.SetCompleted(ctx, h.ID, "2026-03-01", true)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.True(t, res.Completed)
	assert.Equal(t, 1, res.Count)

	res, err = e.SetCompleted(ctx, h.ID, "2026-03-02", false)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Len(t, notificationsOfType(t, s, constants.NotificationTaskCompleted), 1)
}

func TestConcurrentTogglesNeverDuplicate(t *testing.T) {
	ctx := context.Background()
	e, s := setupEngine(t, nil)
	h := addHabit(t, s, "Plan day", 100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.SetCompleted(ctx, h.ID, "2026-03-01", true)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	completions, err := s.GetCompletionsForHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, completions, 1)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ToggleCompletion(ctx, h.ID, "2026-03-02")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	done, err := e.IsCompleted(ctx, h.ID, "2026-03-02")
	require.NoError(t, err)
	assert.False(t, done, "an even number of toggles cancels out")
	assert.Zero(t, e.locks.Len())
}

func TestToggleAfterDeleteIsNotFound(t *testing.T) {
	ctx := context.Background()
	e, s := setupEngine(t, nil)
	h := addHabit(t, s, "Cold shower", 30)

	_, err := e.ToggleCompletion(ctx, h.ID, "2026-03-01")
	require.NoError(t, err)
	require.NoError(t, s.DeleteHabit(ctx, h.ID))

	_, err = e.ToggleCompletion(ctx, h.ID, "2026-03-01")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = e.IsCompleted(ctx, h.ID, "2026-03-01")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = e.CheckGoalAchievement(ctx, h.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestNotifierFailureDoesNotFailToggle(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{err: errors.New("tray is down")}
	e, s := setupEngine(t, n)
	h := addHabit(t, s, "Budget", 1)

	res, err := e.ToggleCompletion(ctx, h.ID, "2026-03-01")
	require.NoError(t, err)
	assert.True(t, res.GoalAchieved)
	assert.Equal(t, 2, n.count())
	assert.Len(t, notificationsOfType(t, s, constants.NotificationGoalAchieved), 1)
}

func TestClosedStoreReturnsStoreError(t *testing.T) {
	ctx := context.Background()
	e, s := setupEngine(t, nil)
	h := addHabit(t, s, "Sketch", 30)
	require.NoError(t, s.Close())

	_, err := e.ToggleCompletion(ctx, h.ID, "2026-03-01")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStore)
}

func TestCreateTestNotification(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	e, s := setupEngine(t, n)

	note, err := e.CreateTestNotification(ctx)
	require.NoError(t, err)
	assert.Equal(t, constants.NotificationTest, note.Type)
	assert.Len(t, notificationsOfType(t, s, constants.NotificationTest), 1)
	assert.Equal(t, 1, n.count())
}

func TestUpdateHabitWithStaleCopyKeepsArchive(t *testing.T) {
	ctx := context.Background()
	n := &recordingNotifier{}
	e, s := setupEngine(t, n)
	h := addHabit(t, s, "Stretch", 3)
	for _, d := range []string{"2026-01-01", "2026-01-02"} {
		_, err := e.ToggleCompletion(ctx, h.ID, d)
		require.NoError(t, err)
	}

	stale := h
	res, err := e.ToggleCompletion(ctx, h.ID, "2026-01-03")
	require.NoError(t, err)
	require.True(t, res.GoalAchieved)

	stale.Description = "after the morning run"
	updated, err := e.UpdateHabit(ctx, stale)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	got, err := s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "after the morning run", got.Description)
	assert.Len(t, notificationsOfType(t, s, constants.NotificationGoalAchieved), 1)
	// 3 task completions + 1 goal
	assert.Equal(t, 4, n.count())
}

func TestUpdateHabitLoweredTargetArchives(t *testing.T) {
	ctx := context.Background()
	e, s := setupEngine(t, nil)
	h := addHabit(t, s, "Floss", 30)
	_, err := e.ToggleCompletion(ctx, h.ID, "2026-01-01")
	require.NoError(t, err)

	h.TargetDays = 1
	h.CreatedAt = time.Time{}
	updated, err := e.UpdateHabit(ctx, h)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.False(t, updated.CreatedAt.IsZero(), "creation time comes from the stored row")
	assert.Len(t, notificationsOfType(t, s, constants.NotificationGoalAchieved), 1)

	// a second edit of the archived habit does not re-notify
	updated.Title = "Floss nightly"
	_, err = e.UpdateHabit(ctx, updated)
	require.NoError(t, err)
	assert.Len(t, notificationsOfType(t, s, constants.NotificationGoalAchieved), 1)

	missing := storagetest.Habit("ghost", 0)
	_, err = e.UpdateHabit(ctx, missing)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestConcurrentEditsAndToggleFireGoalOnce(t *testing.T) {
	ctx := context.Background()
	e, s := setupEngine(t, nil)
	h := addHabit(t, s, "Read", 3)
	for _, d := range []string{"2026-01-01", "2026-01-02"} {
		_, err := e.ToggleCompletion(ctx, h.ID, d)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 9)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := e.ToggleCompletion(ctx, h.ID, "2026-01-03")
		errs <- err
	}()
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			edit := h
			edit.Description = fmt.Sprintf("edit %d", i)
			_, err := e.UpdateHabit(ctx, edit)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Len(t, notificationsOfType(t, s, constants.NotificationGoalAchieved), 1)
}

func TestReactivateHabitRequiresHigherTarget(t *testing.T) {
	ctx := context.Background()
	e, s := setupEngine(t, nil)
	h := addHabit(t, s, "Budget", 2)
	for _, d := range []string{"2026-01-01", "2026-01-02"} {
		_, err := e.ToggleCompletion(ctx, h.ID, d)
		require.NoError(t, err)
	}

	_, err := e.ReactivateHabit(ctx, h.ID, 0)
	assert.True(t, apperrors.IsValidation(err))
	_, err = e.ReactivateHabit(ctx, h.ID, 2)
	assert.True(t, apperrors.IsValidation(err))
	got, err := s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	again, err := e.ReactivateHabit(ctx, h.ID, 5)
	require.NoError(t, err)
	assert.True(t, again.IsActive)
	assert.Equal(t, 5, again.TargetDays)

	got, err = s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Equal(t, 5, got.TargetDays)

	_, err = e.ReactivateHabit(ctx, "missing", 5)
	assert.True(t, apperrors.IsNotFound(err))
}
