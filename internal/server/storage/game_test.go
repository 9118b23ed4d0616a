package storage

import (
	"database/sql"
	"testing"

	"github.com/martius-lab/teamproject-competition-server/internal/server/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(t *testing.T, store *Store, gameID string, user1, user2 int64, endState int, winner, disconnected sql.NullInt64, startTime string) {
	t.Helper()

	require.NoError(t, store.InsertGame(GameRecord{
		GameID:       gameID,
		User1:        user1,
		User2:        user2,
		Score1:       1,
		Score2:       0,
		StartTime:    startTime,
		EndState:     endState,
		Winner:       winner,
		Disconnected: disconnected,
	}))
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: true}
}

func TestInsertGameDuplicateID(t *testing.T) {
	store := newTestStore(t)

	newTestGame(t, store, "g1", 1, 2, core.EndStateWin, nullID(1), sql.NullInt64{}, "2024-01-01 10:00:00")

	err := store.InsertGame(GameRecord{
		GameID:    "g1",
		User1:     3,
		User2:     4,
		StartTime: "2024-01-01 11:00:00",
		EndState:  core.EndStateDraw,
	})
	assert.ErrorIs(t, err, core.ErrDuplicateGame)
}

func TestGetGameNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetGame("missing")
	assert.ErrorIs(t, err, core.ErrGameNotFound)
}

func TestGetGameRoundtrip(t *testing.T) {
	store := newTestStore(t)

	newTestGame(t, store, "g1", 1, 2, core.EndStateDisconnected,
		nullID(1), nullID(2), "2024-01-01 10:00:00")

	game, err := store.GetGame("g1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), game.User1)
	assert.Equal(t, int64(2), game.User2)
	assert.Equal(t, core.EndStateDisconnected, game.EndState)
	assert.True(t, game.Winner.Valid)
	assert.Equal(t, int64(1), game.Winner.Int64)
	assert.True(t, game.Disconnected.Valid)
	assert.Equal(t, int64(2), game.Disconnected.Int64)
}

func TestGamesByUserNewestFirst(t *testing.T) {
	store := newTestStore(t)

	newTestGame(t, store, "old", 1, 2, core.EndStateDraw, sql.NullInt64{}, sql.NullInt64{}, "2024-01-01 10:00:00")
	newTestGame(t, store, "new", 2, 1, core.EndStateDraw, sql.NullInt64{}, sql.NullInt64{}, "2024-02-01 10:00:00")
	newTestGame(t, store, "other", 3, 4, core.EndStateDraw, sql.NullInt64{}, sql.NullInt64{}, "2024-03-01 10:00:00")

	games, err := store.GamesByUser(1)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "new", games[0].GameID)
	assert.Equal(t, "old", games[1].GameID)
}

func TestGetStatisticsZeroGames(t *testing.T) {
	store := newTestStore(t)

	stats, err := store.GetStatistics(1)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.PlayedGames)
	assert.Equal(t, 0, stats.WonGames)
	assert.Equal(t, 0, stats.DisconnectedGames)
}

func TestGetStatisticsCounts(t *testing.T) {
	store := newTestStore(t)

	// user 1: one win, one loss, one draw, one disconnect
	newTestGame(t, store, "g1", 1, 2, core.EndStateWin, nullID(1), sql.NullInt64{}, "2024-01-01 10:00:00")
	newTestGame(t, store, "g2", 2, 1, core.EndStateWin, nullID(2), sql.NullInt64{}, "2024-01-02 10:00:00")
	newTestGame(t, store, "g3", 1, 3, core.EndStateDraw, sql.NullInt64{}, sql.NullInt64{}, "2024-01-03 10:00:00")
	newTestGame(t, store, "g4", 3, 1, core.EndStateDisconnected, nullID(3), nullID(1), "2024-01-04 10:00:00")
	// not a game of user 1
	newTestGame(t, store, "g5", 2, 3, core.EndStateWin, nullID(2), sql.NullInt64{}, "2024-01-05 10:00:00")

	stats, err := store.GetStatistics(1)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.PlayedGames)
	assert.Equal(t, 1, stats.WonGames)
	assert.Equal(t, 1, stats.DisconnectedGames)
}
