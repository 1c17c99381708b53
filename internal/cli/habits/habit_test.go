package habits

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artyomka101/appforphone/internal/cli"
	"github.com/artyomka101/appforphone/internal/cli/clitest"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
)

func TestHabitAddAndList(t *testing.T) {
	ctx := context.Background()
	app, out := clitest.New(t)

	require.NoError(t, (&HabitAddCmd{Title: "Drink water", Color: "#2196F3", Icon: "water", Target: 21}).Run(app, ctx))
	assert.Contains(t, out.String(), "✓ Habit added: Drink water (target 21 days")

	out.Reset()
	require.NoError(t, (&HabitListCmd{Date: "today"}).Run(app, ctx))
	assert.Contains(t, out.String(), "[ ] Drink water")
	assert.Contains(t, out.String(), "Completed: 0/1 (0%)")
}

func TestHabitAddRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	app, _ := clitest.New(t)

	err := (&HabitAddCmd{Title: "  ", Color: "#2196F3", Icon: "task", Target: 30}).Run(app, ctx)
	assert.True(t, apperrors.IsValidation(err))

	err = (&HabitAddCmd{Title: "Run", Color: "#2196F3", Icon: "task", Target: 0}).Run(app, ctx)
	assert.True(t, apperrors.IsValidation(err))
}

func TestHabitToggleReachesGoal(t *testing.T) {
	ctx := context.Background()
	app, out := clitest.New(t)
	require.NoError(t, (&HabitAddCmd{Title: "Vitamins", Color: "#4CAF50", Icon: "task", Target: 2}).Run(app, ctx))

	require.NoError(t, (&HabitToggleCmd{Habit: "vitamins", Date: "yesterday"}).Run(app, ctx))
	assert.Contains(t, out.String(), "(1/2 days)")

	out.Reset()
	require.NoError(t, (&HabitToggleCmd{Habit: "Vitamins", Date: "today"}).Run(app, ctx))
	assert.Contains(t, out.String(), "(2/2 days)")
	assert.Contains(t, out.String(), "🏆 Goal achieved!")

	out.Reset()
	require.NoError(t, (&HabitArchivedCmd{}).Run(app, ctx))
	assert.Contains(t, out.String(), "Vitamins")
	assert.Contains(t, out.String(), "2/2")
}

func TestHabitToggleTwiceUnchecks(t *testing.T) {
	ctx := context.Background()
	app, out := clitest.New(t)
	require.NoError(t, (&HabitAddCmd{Title: "Floss", Color: "#2196F3", Icon: "task", Target: 30}).Run(app, ctx))

	require.NoError(t, (&HabitToggleCmd{Habit: "Floss", Date: "2026-03-01"}).Run(app, ctx))
	require.NoError(t, (&HabitToggleCmd{Habit: "Floss", Date: "2026-03-01"}).Run(app, ctx))
	assert.Contains(t, out.String(), "○ Floss unchecked for 2026-03-01 (0/30 days)")
}

func TestHabitEditLowersTargetAndArchives(t *testing.T) {
	ctx := context.Background()
	app, out := clitest.New(t)
	require.NoError(t, (&HabitAddCmd{Title: "Walk", Color: "#2196F3", Icon: "task", Target: 10}).Run(app, ctx))
	require.NoError(t, (&HabitToggleCmd{Habit: "Walk", Date: "today"}).Run(app, ctx))

	target := 1
	out.Reset()
	require.NoError(t, (&HabitEditCmd{Habit: "Walk", Target: &target}).Run(app, ctx))
	assert.Contains(t, out.String(), "moved to the archive")

	h, err := Find(ctx, app, "walk")
	require.NoError(t, err)
	assert.False(t, h.IsActive)

	out.Reset()
	require.NoError(t, (&HabitReactivateCmd{Habit: "Walk", Target: 5}).Run(app, ctx))
	assert.Contains(t, out.String(), "target 5 days")
}

func TestHabitDeleteWithConfirmation(t *testing.T) {
	ctx := context.Background()
	app, out := clitest.New(t)
	require.NoError(t, (&HabitAddCmd{Title: "Journal", Color: "#2196F3", Icon: "book", Target: 30}).Run(app, ctx))

	orig := cli.Stdin
	cli.Stdin = strings.NewReader("n\n")
	t.Cleanup(func() { cli.Stdin = orig })
	require.NoError(t, (&HabitDeleteCmd{Habit: "Journal"}).Run(app, ctx))
	assert.Contains(t, out.String(), "Delete cancelled.")

	require.NoError(t, (&HabitDeleteCmd{Habit: "Journal", Yes: true}).Run(app, ctx))
	_, err := Find(ctx, app, "Journal")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestFindByIDPrefix(t *testing.T) {
	ctx := context.Background()
	app, _ := clitest.New(t)
	require.NoError(t, (&HabitAddCmd{Title: "Meditate", Color: "#2196F3", Icon: "task", Target: 30}).Run(app, ctx))

	h, err := Find(ctx, app, "Meditate")
	require.NoError(t, err)

	byPrefix, err := Find(ctx, app, h.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, h.ID, byPrefix.ID)

	_, err = Find(ctx, app, "nothing-like-this")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHabitLogStrip(t *testing.T) {
	ctx := context.Background()
	app, out := clitest.New(t)
	require.NoError(t, (&HabitAddCmd{Title: "Read", Color: "#2196F3", Icon: "book", Target: 30}).Run(app, ctx))
	require.NoError(t, (&HabitToggleCmd{Habit: "Read", Date: "today"}).Run(app, ctx))

	out.Reset()
	require.NoError(t, (&HabitLogCmd{Days: 3}).Run(app, ctx))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	last := lines[len(lines)-1]
	assert.True(t, strings.HasPrefix(last, "Read"))
	assert.Equal(t, 1, strings.Count(last, "x"))
	assert.Equal(t, 2, strings.Count(last, "."))

	assert.Error(t, (&HabitLogCmd{Days: 0}).Run(app, ctx))
}

func TestHabitStatus(t *testing.T) {
	ctx := context.Background()
	app, out := clitest.New(t)
	require.NoError(t, (&HabitAddCmd{Title: "Plan day", Color: "#2196F3", Icon: "work", Target: 4}).Run(app, ctx))
	require.NoError(t, (&HabitToggleCmd{Habit: "Plan day", Date: "today"}).Run(app, ctx))

	out.Reset()
	require.NoError(t, (&HabitStatusCmd{}).Run(app, ctx))
	assert.Contains(t, out.String(), "1/1 done today (100%)")
	assert.Contains(t, out.String(), "[#####...............]  25%")
}
