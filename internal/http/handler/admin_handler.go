package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PulseTrack/internal/app/service"
	"github.com/sifan077/PulseTrack/internal/http/util"
	"go.uber.org/zap"
)

// AdminDeps groups dependencies required by the dashboard/auth handlers.
type AdminDeps struct {
	Logger            *zap.Logger
	Summaries         service.SummaryService
	AdminToken        string
	AdminPassword     string
	AdminPasswordHash string
}

// AdminHandler implements the authenticated dashboard API plus the login
// flow that issues its bearer token.
type AdminHandler struct {
	logger            *zap.Logger
	summaries         service.SummaryService
	adminToken        string
	adminPassword     string
	adminPasswordHash string
}

// NewAdminHandler creates an admin handler with the provided dependencies.
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{
		logger:            logger,
		summaries:         deps.Summaries,
		adminToken:        deps.AdminToken,
		adminPassword:     deps.AdminPassword,
		adminPasswordHash: deps.AdminPasswordHash,
	}
}

// LoginRequest is the password-for-token exchange body.
type LoginRequest struct {
	Password string `json:"password"`
}

// Login handles POST /auth/login. Failures are deliberately generic: the
// response never says whether the password was wrong, empty or unconfigured.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":    false,
			"error": "Invalid JSON",
		})
	}

	if !util.VerifyPassword(req.Password, h.adminPassword, h.adminPasswordHash) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"ok":    false,
			"error": "Invalid credentials",
		})
	}

	return c.JSON(fiber.Map{"ok": true, "token": h.adminToken})
}

// Verify handles GET /auth/verify: a token validity probe for the dashboard.
func (h *AdminHandler) Verify(c *fiber.Ctx) error {
	if !util.VerifyToken(bearerToken(c), h.adminToken) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"authenticated": false,
		})
	}
	return c.JSON(fiber.Map{"authenticated": true})
}

// Logout handles POST /auth/logout. Tokens are stateless, so there is
// nothing to revoke server-side.
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// Summary handles GET /summary: the full aggregation payload for a range.
func (h *AdminHandler) Summary(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	summary, err := h.summaries.Summary(ctx, c.Query("range"), c.Query("start"), c.Query("end"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCustomRange) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid_custom_range",
			})
		}
		h.logger.Error("failed to build summary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Server error",
		})
	}

	return c.JSON(summary)
}

// Links handles GET /links: the per-link click/unique breakdown.
func (h *AdminHandler) Links(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	links, err := h.summaries.Links(ctx, c.Query("range"), c.Query("start"), c.Query("end"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCustomRange) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid_custom_range",
			})
		}
		h.logger.Error("failed to build links breakdown", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Server error",
		})
	}

	return c.JSON(fiber.Map{"links": links})
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}
