package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PulseTrack/internal/http/util"
)

// RequireBearer admits only requests carrying the configured admin token.
// The 401 body does not distinguish a bad token from a missing one.
func RequireBearer(adminToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get(fiber.HeaderAuthorization)
		token := ""
		if strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}

		if !util.VerifyToken(token, adminToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}

		return c.Next()
	}
}

// RequireOrigin is the CSRF guard for state-mutating endpoints: the Origin
// header must be present and on the allow-list. A missing Origin counts as a
// CSRF signal.
func RequireOrigin(allowedOrigins []string) fiber.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if _, ok := allowed[origin]; origin == "" || !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"ok":    false,
				"error": "Invalid origin",
			})
		}

		return c.Next()
	}
}
