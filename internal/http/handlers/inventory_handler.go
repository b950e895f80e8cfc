package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "minishop/internal/log"
	"minishop/internal/services"
	"minishop/internal/validate"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

type adjustRequest struct {
	Delta *int `json:"delta"`
}

// POST /api/products/:id/inventory
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product", "invalid product id")
	}
	var req adjustRequest
	if err := c.BodyParser(&req); err != nil || req.Delta == nil {
		return badRequest(c, "delta", "delta is required")
	}
	qty, err := h.Inv.Adjust(c.UserContext(), currentShop(c), id, *req.Delta)
	if err != nil {
		return respondError(c, "inventory.adjust", err)
	}
	applog.Audit(c, "inventory.adjust", map[string]any{"product_id": id, "delta": *req.Delta, "inventory": qty})
	return c.JSON(fiber.Map{"productId": id, "inventory": qty})
}

// GET /api/public/products/:id/availability
func (h *InventoryHandler) Availability(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product", "invalid product id")
	}
	avail, err := h.Inv.CheckAvailability(c.UserContext(), id)
	if err != nil {
		return respondError(c, "inventory.availability", err)
	}
	return c.JSON(avail)
}
