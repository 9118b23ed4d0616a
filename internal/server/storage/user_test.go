package storage

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/martius-lab/teamproject-competition-server/internal/server/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()
	store, err := NewStore(Options{
		UserDBPath: filepath.Join(dir, "users.db"),
		UserTable:  "users",
		GameDBPath: filepath.Join(dir, "games.db"),
		GameTable:  "games",
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func newTestUser(t *testing.T, store *Store, username string, mu, sigma float64) *UserRecord {
	t.Helper()

	record := &UserRecord{
		Username: username,
		Password: "hashed-password",
		Role:     core.RoleUser,
		Token:    "token-" + username,
		Mu:       mu,
		Sigma:    sigma,
	}
	require.NoError(t, store.CreateUser(record))
	return record
}

func TestNewStoreRejectsBadTableName(t *testing.T) {
	dir := t.TempDir()
	_, err := NewStore(Options{
		UserDBPath: filepath.Join(dir, "users.db"),
		UserTable:  "users; DROP TABLE users",
		GameDBPath: filepath.Join(dir, "games.db"),
		GameTable:  "games",
	})
	assert.Error(t, err)
}

func TestCreateUserAssignsID(t *testing.T) {
	store := newTestStore(t)

	first := newTestUser(t, store, "alice", 25.0, 8.333)
	second := newTestUser(t, store, "bob", 25.0, 8.333)

	assert.Greater(t, first.UserID, int64(0))
	assert.Greater(t, second.UserID, first.UserID)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	newTestUser(t, store, "alice", 25.0, 8.333)

	err := store.CreateUser(&UserRecord{
		Username: "alice",
		Password: "other-hash",
		Role:     core.RoleUser,
		Token:    "other-token",
		Mu:       25.0,
		Sigma:    8.333,
	})
	assert.ErrorIs(t, err, core.ErrDuplicateUsername)

	// The original row is untouched
	user, err := store.GetUserByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, "hashed-password", user.Password)
}

func TestGetUserByUsernameCaseSensitive(t *testing.T) {
	store := newTestStore(t)
	newTestUser(t, store, "Alice", 25.0, 8.333)

	_, err := store.GetUserByUsername("alice")
	assert.ErrorIs(t, err, core.ErrUserNotFound)

	user, err := store.GetUserByUsername("Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Username)
}

func TestGetUserByToken(t *testing.T) {
	store := newTestStore(t)
	created := newTestUser(t, store, "alice", 25.0, 8.333)

	user, err := store.GetUserByToken(created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.UserID, user.UserID)

	_, err = store.GetUserByToken("no-such-token")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestGetRankedUsersOrder(t *testing.T) {
	store := newTestStore(t)

	// Conservative estimates: carol 22, alice 20, bob 15
	newTestUser(t, store, "alice", 25.0, 5.0)
	newTestUser(t, store, "bob", 20.0, 5.0)
	newTestUser(t, store, "carol", 30.0, 8.0)

	users, err := store.GetRankedUsers()
	require.NoError(t, err)
	require.Len(t, users, 3)

	assert.Equal(t, "carol", users[0].Username)
	assert.Equal(t, "alice", users[1].Username)
	assert.Equal(t, "bob", users[2].Username)
}

func TestGetRankedUsersTiebreakByID(t *testing.T) {
	store := newTestStore(t)

	// Identical estimates, so insertion order decides
	newTestUser(t, store, "first", 25.0, 8.333)
	newTestUser(t, store, "second", 25.0, 8.333)

	users, err := store.GetRankedUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "first", users[0].Username)
	assert.Equal(t, "second", users[1].Username)
}

func TestSearchUsersByNameSubstring(t *testing.T) {
	store := newTestStore(t)

	newTestUser(t, store, "alice", 25.0, 8.333)
	newTestUser(t, store, "malice", 25.0, 8.333)
	newTestUser(t, store, "bob", 25.0, 8.333)

	users, err := store.SearchUsersByName("lic")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "malice", users[1].Username)
}

func TestSearchUsersByNameCaseSensitive(t *testing.T) {
	store := newTestStore(t)
	newTestUser(t, store, "Alice", 25.0, 8.333)

	users, err := store.SearchUsersByName("alice")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSearchUsersByNameCaseSensitiveOnEveryConnection(t *testing.T) {
	store := newTestStore(t)
	newTestUser(t, store, "Alice", 25.0, 8.333)

	// Pin the first pooled connection with an open cursor so the
	// search below is served by a second connection, which must apply
	// the same LIKE semantics.
	rows, err := store.users.Query(fmt.Sprintf(`SELECT username FROM %s`, store.usersTable))
	require.NoError(t, err)
	defer rows.Close()

	users, err := store.SearchUsersByName("alice")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestSearchUsersByNamePromotesExactMatch(t *testing.T) {
	store := newTestStore(t)

	// "bob" sorts after "bobby" by id, but the exact match leads
	newTestUser(t, store, "bobby", 25.0, 8.333)
	newTestUser(t, store, "bob", 25.0, 8.333)

	users, err := store.SearchUsersByName("bob")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Username)
	assert.Equal(t, "bobby", users[1].Username)
}

func TestSearchUsersByNameEscapesWildcards(t *testing.T) {
	store := newTestStore(t)
	newTestUser(t, store, "alice", 25.0, 8.333)

	// "%" must not match everything
	users, err := store.SearchUsersByName("%")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUpdateUserOverwritesAllFields(t *testing.T) {
	store := newTestStore(t)
	created := newTestUser(t, store, "alice", 25.0, 8.333)

	created.Username = "alice2"
	created.Password = "new-hash"
	created.Role = core.RoleBot
	created.Token = "new-token"
	created.Mu = 30.0
	created.Sigma = 4.0
	require.NoError(t, store.UpdateUser(created))

	user, err := store.GetUserByID(created.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", user.Username)
	assert.Equal(t, "new-hash", user.Password)
	assert.Equal(t, core.RoleBot, user.Role)
	assert.Equal(t, "new-token", user.Token)
	assert.Equal(t, 30.0, user.Mu)
	assert.Equal(t, 4.0, user.Sigma)
}

func TestUpdateUserNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.UpdateUser(&UserRecord{
		UserID:   4242,
		Username: "ghost",
		Password: "hash",
		Role:     core.RoleUser,
		Token:    "token",
		Mu:       25.0,
		Sigma:    8.333,
	})
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestUpdateUserDuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	newTestUser(t, store, "alice", 25.0, 8.333)
	bob := newTestUser(t, store, "bob", 25.0, 8.333)

	bob.Username = "alice"
	err := store.UpdateUser(bob)
	assert.ErrorIs(t, err, core.ErrDuplicateUsername)
}

func TestSetSkill(t *testing.T) {
	store := newTestStore(t)
	created := newTestUser(t, store, "alice", 25.0, 8.333)

	require.NoError(t, store.SetSkill(created.UserID, 28.5, 6.0))

	user, err := store.GetUserByID(created.UserID)
	require.NoError(t, err)
	assert.Equal(t, 28.5, user.Mu)
	assert.Equal(t, 6.0, user.Sigma)

	assert.ErrorIs(t, store.SetSkill(4242, 1.0, 1.0), core.ErrUserNotFound)
}
