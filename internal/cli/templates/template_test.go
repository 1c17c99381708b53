package templates

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artyomka101/appforphone/internal/cli/clitest"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
)

func TestTemplateListByCategory(t *testing.T) {
	app, out := clitest.New(t)

	require.NoError(t, (&TemplateListCmd{Category: "Finance"}).Run(app))
	assert.Contains(t, out.String(), "Track expenses")
	assert.Contains(t, out.String(), "Save money")
	assert.NotContains(t, out.String(), "Drink water")
}

func TestTemplateListRejectsUnknownCategory(t *testing.T) {
	app, _ := clitest.New(t)

	err := (&TemplateListCmd{Category: "Sports"}).Run(app)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
}

func TestTemplateListNoMatch(t *testing.T) {
	app, out := clitest.New(t)

	require.NoError(t, (&TemplateListCmd{Category: "All", Query: "skydiving"}).Run(app))
	assert.Equal(t, "No templates match.\n", out.String())
}

func TestTemplateAdd(t *testing.T) {
	ctx := context.Background()
	app, out := clitest.New(t)

	require.NoError(t, (&TemplateAddCmd{ID: "plan"}).Run(app, ctx))
	assert.Contains(t, out.String(), "✓ Habit added: Plan the day")

	habits, err := app.Store.GetHabits(ctx, true)
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, "Plan the day", habits[0].Title)

	err = (&TemplateAddCmd{ID: "nope"}).Run(app, ctx)
	assert.True(t, apperrors.IsNotFound(err))
}
