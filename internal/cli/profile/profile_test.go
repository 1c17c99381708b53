package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artyomka101/appforphone/internal/cli/clitest"
	"github.com/artyomka101/appforphone/internal/constants"
	apperrors "github.com/artyomka101/appforphone/internal/errors"
)

func TestProfileShowDefaults(t *testing.T) {
	app, out := clitest.New(t)

	require.NoError(t, (&ProfileShowCmd{}).Run(app, context.Background()))
	assert.Contains(t, out.String(), "👤 "+constants.DefaultProfileName)
	assert.Contains(t, out.String(), "Total habits:      0")
}

func TestProfileRename(t *testing.T) {
	ctx := context.Background()
	app, out := clitest.New(t)

	require.NoError(t, (&ProfileRenameCmd{Name: "  Marta  "}).Run(app, ctx))
	assert.Contains(t, out.String(), "✓ Profile renamed to Marta")

	out.Reset()
	require.NoError(t, (&ProfileShowCmd{}).Run(app, ctx))
	assert.Contains(t, out.String(), "👤 Marta")

	err := (&ProfileRenameCmd{Name: "   "}).Run(app, ctx)
	assert.True(t, apperrors.IsValidation(err))
}
