package http

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode"

	"github.com/martius-lab/teamproject-competition-server/internal/server/core"

	"github.com/gofiber/fiber/v2"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{1,40}$`)

// AuthResponse contains the session JWT and user information,
// including the per-user access token agents connect with
type AuthResponse struct {
	Token       string    `json:"token"`
	UserID      int64     `json:"userId"`
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// UserResponse contains current user information
type UserResponse struct {
	UserID      int64  `json:"userId"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	AccessToken string `json:"accessToken"`
}

// RegisterHandler creates a new user account, gated by the shared
// registration key
func (h *HTTPHandler) RegisterHandler(c *fiber.Ctx) error {
	var req core.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid request body",
			Code:    core.ErrCodeInvalidRequest,
			Details: err.Error(),
		})
	}

	// Literal comparison against the configured secret; an empty
	// configured key disables registration entirely.
	if h.registrationKey == "" ||
		subtle.ConstantTimeCompare([]byte(req.Key), []byte(h.registrationKey)) != 1 {
		return c.Status(fiber.StatusForbidden).JSON(core.ErrorResponse{
			Error: "invalid registration key",
			Code:  core.ErrCodeInvalidKey,
		})
	}

	if !usernameRegex.MatchString(req.Username) {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid username format",
			Code:    core.ErrCodeInvalidRequest,
			Details: "username must be 1-40 characters, alphanumeric and underscore only",
		})
	}

	if err := validatePassword(req.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "weak password",
			Code:    core.ErrCodeInvalidRequest,
			Details: err.Error(),
		})
	}

	user, err := h.svc.AddUser(req.Username, req.Password, core.RoleUser)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateUsername) {
			return c.Status(fiber.StatusConflict).JSON(core.ErrorResponse{
				Error:   "user already exists",
				Code:    core.ErrCodeDuplicateUsername,
				Details: "username already taken",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to create user",
			Code:  core.ErrCodeInternalError,
		})
	}

	token, err := h.svc.GenerateToken(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to generate token",
			Code:  core.ErrCodeInternalError,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		Token:       token,
		UserID:      user.ID,
		Username:    user.Name,
		Role:        user.Role,
		AccessToken: user.Token,
		ExpiresAt:   time.Now().Add(7 * 24 * time.Hour),
	})
}

// validatePassword checks password strength requirements
func validatePassword(password string) error {
	const (
		minPasswordLength = 8
		maxPasswordLength = 128
	)
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must not exceed 128 characters")
	}

	// Check for at least one letter and one number
	hasLetter := false
	hasNumber := false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsNumber(r):
			hasNumber = true
		}
		if hasLetter && hasNumber {
			break
		}
	}

	if !hasLetter || !hasNumber {
		return fmt.Errorf("password must contain at least one letter and one number")
	}

	return nil
}

// LoginHandler authenticates a user and returns the session JWT
func (h *HTTPHandler) LoginHandler(c *fiber.Ctx) error {
	var req core.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(core.ErrorResponse{
			Error:   "invalid request body",
			Code:    core.ErrCodeInvalidRequest,
			Details: err.Error(),
		})
	}

	user, err := h.svc.Authenticate(req.Username, req.Password)
	if err != nil {
		// Always return the same error to prevent user enumeration
		return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
			Error: "invalid credentials",
			Code:  core.ErrCodeUnauthorized,
		})
	}

	token, err := h.svc.GenerateToken(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to generate token",
			Code:  core.ErrCodeInternalError,
		})
	}

	return c.JSON(AuthResponse{
		Token:       token,
		UserID:      user.ID,
		Username:    user.Name,
		Role:        user.Role,
		AccessToken: user.Token,
		ExpiresAt:   time.Now().Add(7 * 24 * time.Hour),
	})
}

// GetCurrentUserHandler returns authenticated user information
func (h *HTTPHandler) GetCurrentUserHandler(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(int64)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
			Error: "unauthorized",
			Code:  core.ErrCodeUnauthorized,
		})
	}

	user, err := h.svc.UserByID(userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "user not found",
			Code:  core.ErrCodeUserNotFound,
		})
	}

	return c.JSON(UserResponse{
		UserID:      user.ID,
		Username:    user.Name,
		Role:        user.Role,
		AccessToken: user.Token,
	})
}
