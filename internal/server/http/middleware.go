package http

import (
	"errors"
	"strings"

	"github.com/martius-lab/teamproject-competition-server/internal/server/core"

	"github.com/gofiber/fiber/v2"
)

// TokenValidator verifies a session JWT and returns the user id and
// claims
type TokenValidator func(token string) (int64, map[string]any, error)

// AuthRequired validates the bearer JWT and stores the user identity
// in request locals
func AuthRequired(validateToken TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c.Get("Authorization"))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
				Error: "missing authorization token",
				Code:  core.ErrCodeUnauthorized,
			})
		}

		userID, claims, err := validateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
				Error: "invalid or expired token",
				Code:  core.ErrCodeUnauthorized,
			})
		}

		c.Locals("userID", userID)
		if role, ok := claims["role"].(string); ok {
			c.Locals("role", role)
		}
		return c.Next()
	}
}

// AdminRequired rejects requests whose session role is not admin.
// Must run after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if role != core.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(core.ErrorResponse{
				Error: "admin access required",
				Code:  core.ErrCodeUnauthorized,
			})
		}
		return c.Next()
	}
}

// IngestAuth authorizes game-result submission: either an admin JWT
// or the access token of a bot/admin account in X-Access-Token.
func (h *HTTPHandler) IngestAuth(validateToken TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if accessToken := c.Get("X-Access-Token"); accessToken != "" {
			user, err := h.svc.UserByToken(accessToken)
			if err != nil {
				if !errors.Is(err, core.ErrUserNotFound) {
					return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
						Error: "failed to verify access token",
						Code:  core.ErrCodeInternalError,
					})
				}
				return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
					Error: "invalid access token",
					Code:  core.ErrCodeUnauthorized,
				})
			}
			if user.Role != core.RoleBot && user.Role != core.RoleAdmin {
				return c.Status(fiber.StatusForbidden).JSON(core.ErrorResponse{
					Error: "access token not authorized for game ingest",
					Code:  core.ErrCodeUnauthorized,
				})
			}
			c.Locals("userID", user.ID)
			c.Locals("role", user.Role)
			return c.Next()
		}

		token := extractBearerToken(c.Get("Authorization"))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
				Error: "missing credentials",
				Code:  core.ErrCodeUnauthorized,
			})
		}

		userID, claims, err := validateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
				Error: "invalid or expired token",
				Code:  core.ErrCodeUnauthorized,
			})
		}

		role, _ := claims["role"].(string)
		if role != core.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(core.ErrorResponse{
				Error: "admin access required",
				Code:  core.ErrCodeUnauthorized,
			})
		}

		c.Locals("userID", userID)
		c.Locals("role", role)
		return c.Next()
	}
}

// extractBearerToken extracts the JWT from the Authorization header
func extractBearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimPrefix(header, prefix)
}
