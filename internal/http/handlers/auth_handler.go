package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "minishop/internal/log"
	"minishop/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type sessionRequest struct {
	IDToken string `json:"idToken"`
}

// POST /api/session
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	var req sessionRequest
	if err := c.BodyParser(&req); err != nil || req.IDToken == "" {
		return badRequest(c, "idToken", "idToken is required")
	}
	id, shop, err := h.Auth.Session(c.UserContext(), req.IDToken)
	if err != nil {
		return respondError(c, "auth.session", err)
	}
	c.Locals(applog.SubjectKey, id.Subject)
	applog.Audit(c, "auth.session", map[string]any{"shop_id": shop.ShopID})
	return c.JSON(fiber.Map{"user": id, "shop": shop})
}
