package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunestat/tunestat/core/accounts"
	"github.com/tunestat/tunestat/core/connectors"
	"github.com/tunestat/tunestat/core/shared/errors"
)

func TestBootstrapSeedsFirstAdminExactlyOnce(t *testing.T) {
	dsn := "file:bootstrapcmd?mode=memory&cache=shared"
	t.Setenv("TUNESTAT_DB_DSN", dsn)
	t.Setenv("TUNESTAT_BCRYPT_COST", "4")

	// Anchor connection keeps the shared-cache memory database alive
	// across the two bootstrap runs.
	anchor, err := connectors.Open(dsn)
	require.NoError(t, err)
	defer anchor.Close()

	origUser, origPass := bootstrapUsername, bootstrapPassword
	defer func() { bootstrapUsername, bootstrapPassword = origUser, origPass }()
	bootstrapUsername = "root"
	bootstrapPassword = "rootpw"

	require.NoError(t, runBootstrap(bootstrapCmd, nil))

	ctx := context.Background()
	manager := accounts.NewManager(anchor, 4)
	n, err := manager.AdminCount(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// A second seed must be refused, leaving the table unchanged.
	err = runBootstrap(bootstrapCmd, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvariantViolation, errors.CodeOf(err))

	list, err := manager.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "root", list[0].Username)
	assert.Equal(t, accounts.RoleAdmin, list[0].Role)
}
