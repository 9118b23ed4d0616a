package http

import (
	"database/sql"
	"errors"
	"math"
	"strconv"

	"github.com/martius-lab/teamproject-competition-server/internal/server/core"
	"github.com/martius-lab/teamproject-competition-server/internal/server/storage"

	"github.com/gofiber/fiber/v2"
)

// LeaderboardResponse contains the full ranking plus the caller's own
// position (-1 if absent)
type LeaderboardResponse struct {
	Entries  []RankEntryJSON `json:"entries"`
	Position int             `json:"position"`
}

type RankEntryJSON struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Mu       float64 `json:"mu"`
	Sigma    float64 `json:"sigma"`
	Rating   float64 `json:"rating"`
}

// StatisticsResponse carries the aggregate counts. WinRate is only
// present when at least one game was played, so clients never divide
// by zero.
type StatisticsResponse struct {
	PlayedGames       int      `json:"playedGames"`
	WonGames          int      `json:"wonGames"`
	DisconnectedGames int      `json:"disconnectedGames"`
	WinRate           *float64 `json:"winRate,omitempty"`
}

// AdminUserRow is a full user row for the admin grid. Password holds
// the stored credential hash; the admin edit endpoint requires it for
// the full-row overwrite.
type AdminUserRow struct {
	UserID   int64   `json:"userId"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	Token    string  `json:"token"`
	Mu       float64 `json:"mu"`
	Sigma    float64 `json:"sigma"`
}

// Leaderboard returns all users ranked by conservative skill estimate
func (h *HTTPHandler) Leaderboard(c *fiber.Ctx) error {
	entries, err := h.svc.RankedUsers()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to load leaderboard",
			Code:  core.ErrCodeInternalError,
		})
	}

	position := -1
	if userID, ok := c.Locals("userID").(int64); ok {
		if position, err = h.svc.RankingPosition(userID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
				Error: "failed to resolve ranking position",
				Code:  core.ErrCodeInternalError,
			})
		}
	}

	resp := LeaderboardResponse{
		Entries:  make([]RankEntryJSON, len(entries)),
		Position: position,
	}
	for i, e := range entries {
		resp.Entries[i] = RankEntryJSON(e)
	}

	return c.JSON(resp)
}

// MyStatistics returns the aggregate game counts of the current user
func (h *HTTPHandler) MyStatistics(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(int64)

	stats, err := h.svc.Statistics(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to load statistics",
			Code:  core.ErrCodeInternalError,
		})
	}

	resp := StatisticsResponse{
		PlayedGames:       stats.PlayedGames,
		WonGames:          stats.WonGames,
		DisconnectedGames: stats.DisconnectedGames,
	}
	if stats.PlayedGames > 0 {
		rate := math.Round(float64(stats.WonGames) / float64(stats.PlayedGames) * 100)
		resp.WinRate = &rate
	}

	return c.JSON(resp)
}

// GetGame returns the composed view of a single game
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")

	view, err := h.svc.GameByID(gameID)
	if err != nil {
		if errors.Is(err, core.ErrGameNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
				Error: "game not found",
				Code:  core.ErrCodeGameNotFound,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to load game",
			Code:  core.ErrCodeInternalError,
		})
	}

	return c.JSON(view)
}

// SearchGames runs a keyword search over game ids and usernames
func (h *HTTPHandler) SearchGames(c *fiber.Ctx) error {
	query := c.Query("q")

	views, err := h.svc.SearchGames(query)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "search failed",
			Code:  core.ErrCodeInternalError,
		})
	}

	return c.JSON(fiber.Map{"games": views})
}

// RecordGame ingests a completed game result
func (h *HTTPHandler) RecordGame(c *fiber.Ctx) error {
	validatedBody, ok := c.Locals("validatedBody").(*core.RecordGameRequest)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "validation data missing",
			Code:  core.ErrCodeInternalError,
		})
	}
	req := *validatedBody

	record := storage.GameRecord{
		GameID:       req.GameID,
		User1:        req.User1,
		User2:        req.User2,
		Score1:       req.Score1,
		Score2:       req.Score2,
		StartTime:    req.StartTime,
		EndState:     req.EndState,
		Winner:       toNullInt64(req.Winner),
		Disconnected: toNullInt64(req.Disconnected),
	}

	if err := h.svc.RecordGame(record); err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidGameRecord):
			return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
				Error:   "invalid game record",
				Code:    core.ErrCodeInvalidRequest,
				Details: err.Error(),
			})
		case errors.Is(err, core.ErrDuplicateGame):
			return c.Status(fiber.StatusConflict).JSON(core.ErrorResponse{
				Error: "game already recorded",
				Code:  core.ErrCodeInvalidRequest,
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
				Error: "failed to record game",
				Code:  core.ErrCodeInternalError,
			})
		}
	}

	return c.SendStatus(fiber.StatusCreated)
}

// ListUsers returns all user rows for the admin grid
func (h *HTTPHandler) ListUsers(c *fiber.Ctx) error {
	records, err := h.svc.Users()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to list users",
			Code:  core.ErrCodeInternalError,
		})
	}

	rows := make([]AdminUserRow, len(records))
	for i, r := range records {
		rows[i] = AdminUserRow{
			UserID:   r.UserID,
			Username: r.Username,
			Password: r.Password,
			Role:     r.Role,
			Token:    r.Token,
			Mu:       r.Mu,
			Sigma:    r.Sigma,
		}
	}

	return c.JSON(fiber.Map{"users": rows})
}

// EditUser overwrites a full user row by id
func (h *HTTPHandler) EditUser(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid user id",
			Code:    core.ErrCodeInvalidRequest,
			Details: "user id must be an integer",
		})
	}

	validatedBody, ok := c.Locals("validatedBody").(*core.EditUserRequest)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "validation data missing",
			Code:  core.ErrCodeInternalError,
		})
	}
	req := *validatedBody

	record := &storage.UserRecord{
		UserID:   userID,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		Token:    req.Token,
		Mu:       req.Mu,
		Sigma:    req.Sigma,
	}

	if err := h.svc.EditUser(record); err != nil {
		switch {
		case errors.Is(err, core.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
				Error: "user not found",
				Code:  core.ErrCodeUserNotFound,
			})
		case errors.Is(err, core.ErrDuplicateUsername):
			return c.Status(fiber.StatusConflict).JSON(core.ErrorResponse{
				Error: "username already taken",
				Code:  core.ErrCodeDuplicateUsername,
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
				Error: "failed to update user",
				Code:  core.ErrCodeInternalError,
			})
		}
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
