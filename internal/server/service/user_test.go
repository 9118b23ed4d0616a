package service

import (
	"path/filepath"
	"testing"

	"github.com/martius-lab/teamproject-competition-server/internal/server/core"
	"github.com/martius-lab/teamproject-competition-server/internal/server/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.NewStore(storage.Options{
		UserDBPath: filepath.Join(dir, "users.db"),
		UserTable:  "users",
		GameDBPath: filepath.Join(dir, "games.db"),
		GameTable:  "games",
	})
	require.NoError(t, err)

	svc := New(store, []byte("test-secret-minimum-32-characters-xx"))
	t.Cleanup(func() { svc.Close() })

	return svc
}

func TestAddUserDefaults(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.AddUser("alice", "password1", "")
	require.NoError(t, err)

	assert.Greater(t, user.ID, int64(0))
	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, core.RoleUser, user.Role)
	assert.NotEmpty(t, user.Token)

	record, err := svc.store.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultMu, record.Mu)
	assert.Equal(t, core.DefaultSigma, record.Sigma)
	assert.NotEqual(t, "password1", record.Password)
}

func TestAddUserInvalidRole(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.AddUser("alice", "password1", "superuser")
	assert.Error(t, err)
}

func TestAddUserDuplicate(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.AddUser("alice", "password1", core.RoleUser)
	require.NoError(t, err)

	_, err = svc.AddUser("alice", "password2", core.RoleUser)
	assert.ErrorIs(t, err, core.ErrDuplicateUsername)

	// Original credentials still work
	_, err = svc.Authenticate("alice", "password1")
	assert.NoError(t, err)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.AddUser("alice", "password1", core.RoleUser)
	require.NoError(t, err)

	user, err := svc.Authenticate("alice", "password1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, created.Token, user.Token)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.AddUser("alice", "password1", core.RoleUser)
	require.NoError(t, err)

	_, err = svc.Authenticate("alice", "wrong-password")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc := newTestService(t)

	// Same sentinel as a wrong password, no enumeration
	_, err := svc.Authenticate("nobody", "password1")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestUserByToken(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.AddUser("bot1", "password1", core.RoleBot)
	require.NoError(t, err)

	user, err := svc.UserByToken(created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, core.RoleBot, user.Role)

	_, err = svc.UserByToken("bogus")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}

func TestRankedUsers(t *testing.T) {
	svc := newTestService(t)

	alice, err := svc.AddUser("alice", "password1", core.RoleUser)
	require.NoError(t, err)
	bob, err := svc.AddUser("bob", "password1", core.RoleUser)
	require.NoError(t, err)

	require.NoError(t, svc.SetSkill(alice.ID, 20.0, 5.0)) // rating 15
	require.NoError(t, svc.SetSkill(bob.ID, 30.0, 5.0))   // rating 25

	entries, err := svc.RankedUsers()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "bob", entries[0].Username)
	assert.Equal(t, 25.0, entries[0].Rating)
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, "alice", entries[1].Username)
}

func TestRankingPosition(t *testing.T) {
	svc := newTestService(t)

	alice, err := svc.AddUser("alice", "password1", core.RoleUser)
	require.NoError(t, err)

	pos, err := svc.RankingPosition(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	pos, err = svc.RankingPosition(4242)
	require.NoError(t, err)
	assert.Equal(t, -1, pos)
}

func TestEditUserNotFound(t *testing.T) {
	svc := newTestService(t)

	err := svc.EditUser(&storage.UserRecord{
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

func TestEditUserInvalidRole(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.AddUser("alice", "password1", core.RoleUser)
	require.NoError(t, err)

	err = svc.EditUser(&storage.UserRecord{
		UserID:   user.ID,
		Username: "alice",
		Password: "hash",
		Role:     "superuser",
		Token:    user.Token,
		Mu:       25.0,
		Sigma:    8.333,
	})
	assert.Error(t, err)
}

func TestTokenRoundtrip(t *testing.T) {
	svc := newTestService(t)

	user, err := svc.AddUser("alice", "password1", core.RoleAdmin)
	require.NoError(t, err)

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	userID, claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.Equal(t, "alice", claims["username"])
	assert.Equal(t, core.RoleAdmin, claims["role"])
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}
