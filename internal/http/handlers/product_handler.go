package handlers

import (
	"github.com/gofiber/fiber/v2"

	"minishop/internal/domain"
	applog "minishop/internal/log"
	"minishop/internal/services"
	"minishop/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /api/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	shop := currentShop(c)
	ps, err := h.Catalog.List(c.UserContext(), shop.ShopID)
	if err != nil {
		return respondError(c, "product.list", err)
	}
	return c.JSON(fiber.Map{"products": ps})
}

// GET /api/products/:id
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product", "invalid product id")
	}
	p, err := h.Catalog.Get(c.UserContext(), currentShop(c).ShopID, id)
	if err != nil {
		return respondError(c, "product.get", err)
	}
	return c.JSON(fiber.Map{"product": p})
}

// POST /api/products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in domain.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	p, err := h.Catalog.Create(c.UserContext(), currentShop(c), in)
	if err != nil {
		return respondError(c, "product.create", err)
	}
	applog.Audit(c, "product.create", map[string]any{"product_id": p.ID, "inventory": p.Inventory})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"product": p})
}

// PUT /api/products/:id
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product", "invalid product id")
	}
	var in domain.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	p, err := h.Catalog.Update(c.UserContext(), currentShop(c), id, in)
	if err != nil {
		return respondError(c, "product.update", err)
	}
	applog.Audit(c, "product.update", map[string]any{"product_id": p.ID, "inventory": p.Inventory})
	return c.JSON(fiber.Map{"product": p})
}

// DELETE /api/products/:id
func (h *ProductHandler) Archive(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "product", "invalid product id")
	}
	if err := h.Catalog.Archive(c.UserContext(), currentShop(c), id); err != nil {
		return respondError(c, "product.archive", err)
	}
	applog.Audit(c, "product.archive", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
