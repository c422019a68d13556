package repoinmemory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ssoflow/sso-server/users"
	"github.com/ssoflow/sso-server/users/repoinmemory"
)

const testUsername = "alice"

func TestInsertAndGetReturnsCopy(t *testing.T) {
	repo := repoinmemory.NewInMemoryUserRepo()

	user := &users.User{Username: testUsername, PasswordHash: "hash"}
	require.NoError(t, repo.Insert(user))

	// mutating the inserted struct must not affect the stored record
	user.PasswordHash = "mutated"

	stored, err := repo.GetByUsername(testUsername)
	require.NoError(t, err)
	require.Equal(t, "hash", stored.PasswordHash)
}

func TestInsertDuplicate(t *testing.T) {
	repo := repoinmemory.NewInMemoryUserRepo()

	require.NoError(t, repo.Insert(&users.User{Username: testUsername}))
	require.ErrorIs(t, repo.Insert(&users.User{Username: testUsername}), users.ErrDuplicateUser)
}

func TestUpdate(t *testing.T) {
	repo := repoinmemory.NewInMemoryUserRepo()

	require.NoError(t, repo.Insert(&users.User{Username: testUsername}))

	lastLogin := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Update(&users.User{Username: testUsername, LastLogin: lastLogin}))

	stored, err := repo.GetByUsername(testUsername)
	require.NoError(t, err)
	require.True(t, stored.LastLogin.Equal(lastLogin))
}

func TestUpdateUnknownUser(t *testing.T) {
	repo := repoinmemory.NewInMemoryUserRepo()

	err := repo.Update(&users.User{Username: "nobody"})
	require.ErrorIs(t, err, users.ErrUserNotFound)
}

func TestDelete(t *testing.T) {
	repo := repoinmemory.NewInMemoryUserRepo()

	require.NoError(t, repo.Insert(&users.User{Username: testUsername}))
	require.NoError(t, repo.Delete(testUsername))

	_, err := repo.GetByUsername(testUsername)
	require.ErrorIs(t, err, users.ErrUserNotFound)

	require.ErrorIs(t, repo.Delete(testUsername), users.ErrUserNotFound)
}
