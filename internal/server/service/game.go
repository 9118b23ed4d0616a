package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/martius-lab/teamproject-competition-server/internal/server/core"
	"github.com/martius-lab/teamproject-competition-server/internal/server/storage"
)

// maxSearchKeywords caps how many whitespace-separated terms of a
// search query are considered
const maxSearchKeywords = 3

// Participant is one side of a composed game view
type Participant struct {
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	Winner       bool    `json:"winner"`
	Disconnected bool    `json:"disconnected"`
}

// GameView is a game record joined with resolved usernames and
// per-participant winner/disconnected flags
type GameView struct {
	GameID       string         `json:"game_id"`
	Participants [2]Participant `json:"participants"`
	StartTime    string         `json:"start_time"`
	EndState     int            `json:"end_state"`
}

// Statistics returns the aggregate game counts for a user. The result
// never includes a win rate; callers derive it and must guard
// PlayedGames == 0.
func (s *Service) Statistics(userID int64) (storage.Statistics, error) {
	return s.store.GetStatistics(userID)
}

// GameByID returns the composed view of a single game
func (s *Service) GameByID(gameID string) (*GameView, error) {
	record, err := s.store.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return s.composeGame(record)
}

// SearchGames interprets query as up to three whitespace-separated
// keywords. Each keyword is tried as a literal game id and as a
// case-sensitive username substring; games of matched users are
// composed, with exact-name matches ranked first. Results are
// de-duplicated by game id. Unmatched input yields an empty result,
// never an error.
func (s *Service) SearchGames(query string) ([]GameView, error) {
	keywords := strings.Fields(query)
	if len(keywords) > maxSearchKeywords {
		keywords = keywords[:maxSearchKeywords]
	}

	seen := make(map[string]struct{})
	var results []GameView

	appendGame := func(record *storage.GameRecord) error {
		if _, ok := seen[record.GameID]; ok {
			return nil
		}
		view, err := s.composeGame(record)
		if err != nil {
			return err
		}
		seen[record.GameID] = struct{}{}
		results = append(results, *view)
		return nil
	}

	for _, keyword := range keywords {
		record, err := s.store.GetGame(keyword)
		switch {
		case err == nil:
			if err := appendGame(record); err != nil {
				return nil, err
			}
		case !errors.Is(err, core.ErrGameNotFound):
			return nil, err
		}

		users, err := s.store.SearchUsersByName(keyword)
		if err != nil {
			return nil, err
		}

		for _, user := range users {
			games, err := s.store.GamesByUser(user.UserID)
			if err != nil {
				return nil, err
			}
			for i := range games {
				if err := appendGame(&games[i]); err != nil {
					return nil, err
				}
			}
		}
	}

	return results, nil
}

// RecordGame validates and stores a completed game result. Both
// participants must exist; a row referencing an unknown user would
// make every later composition of that game fail.
func (s *Service) RecordGame(record storage.GameRecord) error {
	if err := validateGameRecord(record); err != nil {
		return err
	}

	for _, userID := range []int64{record.User1, record.User2} {
		if _, err := s.store.GetUserByID(userID); err != nil {
			if errors.Is(err, core.ErrUserNotFound) {
				return fmt.Errorf("%w: unknown participant %d", core.ErrInvalidGameRecord, userID)
			}
			return err
		}
	}

	return s.store.InsertGame(record)
}

// composeGame resolves participant usernames and flags
func (s *Service) composeGame(record *storage.GameRecord) (*GameView, error) {
	user1, err := s.store.GetUserByID(record.User1)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve participant %d: %w", record.User1, err)
	}
	user2, err := s.store.GetUserByID(record.User2)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve participant %d: %w", record.User2, err)
	}

	return &GameView{
		GameID: record.GameID,
		Participants: [2]Participant{
			{
				Name:         user1.Username,
				Score:        record.Score1,
				Winner:       nullableEquals(record.Winner, record.User1),
				Disconnected: nullableEquals(record.Disconnected, record.User1),
			},
			{
				Name:         user2.Username,
				Score:        record.Score2,
				Winner:       nullableEquals(record.Winner, record.User2),
				Disconnected: nullableEquals(record.Disconnected, record.User2),
			},
		},
		StartTime: record.StartTime,
		EndState:  record.EndState,
	}, nil
}

func validateGameRecord(record storage.GameRecord) error {
	if record.GameID == "" {
		return fmt.Errorf("%w: missing game id", core.ErrInvalidGameRecord)
	}
	if record.User1 == record.User2 {
		return fmt.Errorf("%w: participants must be distinct", core.ErrInvalidGameRecord)
	}
	if record.EndState < core.EndStateWin || record.EndState > core.EndStateDisconnected {
		return fmt.Errorf("%w: unknown end state %d", core.ErrInvalidGameRecord, record.EndState)
	}
	if record.EndState == core.EndStateDraw && record.Winner.Valid {
		return fmt.Errorf("%w: draw must not name a winner", core.ErrInvalidGameRecord)
	}
	if record.Winner.Valid && !isParticipant(record, record.Winner.Int64) {
		return fmt.Errorf("%w: winner is not a participant", core.ErrInvalidGameRecord)
	}
	if record.Disconnected.Valid && !isParticipant(record, record.Disconnected.Int64) {
		return fmt.Errorf("%w: disconnected player is not a participant", core.ErrInvalidGameRecord)
	}
	return nil
}

func isParticipant(record storage.GameRecord, userID int64) bool {
	return userID == record.User1 || userID == record.User2
}

func nullableEquals(v sql.NullInt64, userID int64) bool {
	return v.Valid && v.Int64 == userID
}
