package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tunestat/tunestat/core/connectors"
	"github.com/tunestat/tunestat/core/shared/errors"
)

func openTestCredentials(t *testing.T, name string) (*CredentialStore, *Manager) {
	t.Helper()
	conn, err := connectors.Open("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.Migrate())

	store, err := NewCredentialStore(conn, bcrypt.MinCost)
	require.NoError(t, err)
	return store, NewManager(conn, bcrypt.MinCost)
}

func TestAuthenticateRoundTrip(t *testing.T) {
	store, m := openTestCredentials(t, "authroundtrip")
	ctx := context.Background()

	for _, seed := range []CreateInput{
		{Username: "admin", Password: "s3cret", Role: RoleAdmin},
		{Username: "alice", Password: "pw1", Role: RoleUser},
	} {
		_, err := m.Create(ctx, seed)
		require.NoError(t, err)
	}

	acct, err := store.Authenticate(ctx, "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, acct.Role)

	acct, err = store.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, acct.Role)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	store, m := openTestCredentials(t, "authfailures")
	ctx := context.Background()

	_, err := m.Create(ctx, CreateInput{Username: "alice", Password: "pw1", Role: RoleUser})
	require.NoError(t, err)

	_, errUnknown := store.Authenticate(ctx, "mallory", "pw1")
	_, errBadPassword := store.Authenticate(ctx, "alice", "wrong")

	require.Error(t, errUnknown)
	require.Error(t, errBadPassword)
	assert.Equal(t, errors.ErrCodeAuthentication, errors.CodeOf(errUnknown))
	assert.Equal(t, errors.ErrCodeAuthentication, errors.CodeOf(errBadPassword))
	// Identical messages so usernames cannot be enumerated
	assert.Equal(t, errUnknown.Error(), errBadPassword.Error())
}

func TestAuthenticateIsCaseSensitive(t *testing.T) {
	store, m := openTestCredentials(t, "authcase")
	ctx := context.Background()

	_, err := m.Create(ctx, CreateInput{Username: "Alice", Password: "pw1", Role: RoleUser})
	require.NoError(t, err)

	_, err = store.Authenticate(ctx, "alice", "pw1")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAuthentication, errors.CodeOf(err))
}

func TestNewCredentialStoreRejectsBadCost(t *testing.T) {
	conn, err := connectors.Open("file:authbadcost?mode=memory&cache=shared")
	require.NoError(t, err)
	defer conn.Close()

	_, err = NewCredentialStore(conn, 99)
	require.Error(t, err)
}
