package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/martius-lab/teamproject-competition-server/internal/server/core"
)

const gameColumns = "game_id, user1, user2, score1, score2, start_time, end_state, winner, disconnected"

// InsertGame records a completed game. Game records are append-only;
// a duplicate game_id is rejected by the primary key.
func (s *Store) InsertGame(record GameRecord) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.gamesTable, gameColumns)

	_, err := s.games.Exec(query,
		record.GameID, record.User1, record.User2,
		record.Score1, record.Score2, record.StartTime,
		record.EndState, record.Winner, record.Disconnected,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrDuplicateGame
		}
		return fmt.Errorf("failed to insert game: %w", err)
	}

	return nil
}

// GetGame retrieves a game by id
func (s *Store) GetGame(gameID string) (*GameRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE game_id = ?`, gameColumns, s.gamesTable)

	var g GameRecord
	err := s.games.QueryRow(query, gameID).Scan(
		&g.GameID, &g.User1, &g.User2,
		&g.Score1, &g.Score2, &g.StartTime,
		&g.EndState, &g.Winner, &g.Disconnected,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}

	return &g, nil
}

// GamesByUser retrieves every game the user participated in, newest
// first
func (s *Store) GamesByUser(userID int64) ([]GameRecord, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE user1 = ? OR user2 = ? ORDER BY start_time DESC`,
		gameColumns, s.gamesTable)

	rows, err := s.games.Query(query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("game query failed: %w", err)
	}
	defer rows.Close()

	var games []GameRecord
	for rows.Next() {
		var g GameRecord
		err := rows.Scan(
			&g.GameID, &g.User1, &g.User2,
			&g.Score1, &g.Score2, &g.StartTime,
			&g.EndState, &g.Winner, &g.Disconnected,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}

	return games, rows.Err()
}

// GetStatistics aggregates the per-user game counts in one pass.
// winner/disconnected always reference a participant, so the
// conditional sums count the same rows the played filter selects.
func (s *Store) GetStatistics(userID int64) (Statistics, error) {
	query := fmt.Sprintf(`SELECT
		COUNT(*) AS played,
		COALESCE(SUM(CASE WHEN winner = ? THEN 1 ELSE 0 END), 0) AS won,
		COALESCE(SUM(CASE WHEN disconnected = ? THEN 1 ELSE 0 END), 0) AS disconnected
	FROM %s WHERE user1 = ? OR user2 = ?`, s.gamesTable)

	var stats Statistics
	err := s.games.QueryRow(query, userID, userID, userID, userID).Scan(
		&stats.PlayedGames, &stats.WonGames, &stats.DisconnectedGames,
	)
	if err != nil {
		return Statistics{}, fmt.Errorf("statistics query failed: %w", err)
	}

	return stats, nil
}
