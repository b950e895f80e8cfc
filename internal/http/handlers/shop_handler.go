package handlers

import (
	"github.com/gofiber/fiber/v2"

	"minishop/internal/domain"
	applog "minishop/internal/log"
	"minishop/internal/services"
)

type ShopHandler struct {
	Shops *services.ShopService
}

// GET /api/shop
func (h *ShopHandler) Get(c *fiber.Ctx) error {
	shop, err := h.Shops.GetOrCreate(c.UserContext(), subject(c))
	if err != nil {
		return respondError(c, "shop.get", err)
	}
	return c.JSON(fiber.Map{"shop": shop})
}

type shopUpdateRequest struct {
	Name            string `json:"name"`
	PurchaseMessage string `json:"purchaseMessage"`
}

// PUT /api/shop
func (h *ShopHandler) Update(c *fiber.Ctx) error {
	var req shopUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	shop, err := h.Shops.Update(c.UserContext(), subject(c), req.Name, req.PurchaseMessage)
	if err != nil {
		return respondError(c, "shop.update", err)
	}
	applog.Audit(c, "shop.update", map[string]any{"shop_id": shop.ShopID})
	return c.JSON(fiber.Map{"shop": shop})
}

type shopStatusRequest struct {
	Status domain.ShopStatus `json:"status"`
}

// PATCH /api/shop
func (h *ShopHandler) SetStatus(c *fiber.Ctx) error {
	var req shopStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	shop, err := h.Shops.SetStatus(c.UserContext(), subject(c), req.Status)
	if err != nil {
		return respondError(c, "shop.status", err)
	}
	applog.Audit(c, "shop.status", map[string]any{"shop_id": shop.ShopID, "status": string(shop.Status)})
	return c.JSON(fiber.Map{"shop": shop})
}
