package catalog

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/artyomka101/appforphone/internal/errors"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestTemplatesAreValidHabits(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	seen := map[string]bool{}
	for _, tpl := range All() {
		assert.False(t, seen[tpl.ID], "duplicate template id %s", tpl.ID)
		seen[tpl.ID] = true
		assert.Contains(t, Categories, tpl.Category)

		h := tpl.Habit("id-"+tpl.ID, now)
		h.Normalize()
		assert.NoError(t, h.Validate(), tpl.ID)
		assert.True(t, h.IsActive)
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		category string
		query    string
		want     []string
	}{
		{name: "finance", category: "Finance", want: []string{"budget", "save", "invest"}},
		{name: "category case", category: "daily HABITS", want: []string{"sleep", "morning", "phone", "gratitude"}},
		{name: "query title", category: AllCategories, query: "WATER", want: []string{"water", "morning"}},
		{name: "query description", query: "meditation", want: []string{"morning"}},
		{name: "query within category", category: "Learning", query: "minutes", want: []string{"reading", "language", "course"}},
		{name: "no match", query: "skydiving", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{}
			for _, tpl := range Filter(tt.category, tt.query) {
				ids = append(ids, tpl.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilterAllReturnsEverything(t *testing.T) {
	assert.Len(t, Filter("", ""), len(All()))
}

func TestGet(t *testing.T) {
	tpl, err := Get("plan")
	require.NoError(t, err)
	assert.Equal(t, "Plan the day", tpl.Title)

	_, err = Get("nope")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestRenderGolden(t *testing.T) {
	g := newGoldie(t)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, All()))
	g.Assert(t, "all", buf.Bytes())

	buf.Reset()
	require.NoError(t, Render(&buf, Filter("Finance", "")))
	g.Assert(t, "finance", buf.Bytes())
}
