package handlers

import (
	"github.com/gofiber/fiber/v2"

	"minishop/internal/domain"
	applog "minishop/internal/log"
	"minishop/internal/services"
	"minishop/internal/validate"
)

const shopKey = "shop"

// RequireOwner verifies the bearer id token and stores the subject for later handlers.
func RequireOwner(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok, ok := validate.Bearer(c.Get(fiber.HeaderAuthorization))
		if !ok {
			applog.Security(c, "auth.missing", nil)
			return respondError(c, "auth", domain.New(domain.KindUnauthorized, "bearer token required"))
		}
		id, err := auth.Identify(c.UserContext(), tok)
		if err != nil {
			return respondError(c, "auth", err)
		}
		c.Locals(applog.SubjectKey, id.Subject)
		return c.Next()
	}
}

// LoadShop resolves the verified owner's shop; it runs after RequireOwner.
func LoadShop(shops *services.ShopService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shop, err := shops.Get(c.UserContext(), subject(c))
		if err != nil {
			return respondError(c, "shop.load", err)
		}
		c.Locals(shopKey, shop)
		return c.Next()
	}
}

func subject(c *fiber.Ctx) string {
	s, _ := c.Locals(applog.SubjectKey).(string)
	return s
}

func currentShop(c *fiber.Ctx) domain.Shop {
	s, _ := c.Locals(shopKey).(domain.Shop)
	return s
}
