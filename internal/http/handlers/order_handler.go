package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"minishop/internal/domain"
	applog "minishop/internal/log"
	"minishop/internal/services"
	"minishop/internal/validate"
)

type OrderHandler struct {
	Orders *services.OrderService
}

// GET /api/orders?status=&limit=
func (h *OrderHandler) List(c *fiber.Ctx) error {
	status := domain.OrderStatus(strings.TrimSpace(c.Query("status")))
	list, err := h.Orders.List(c.UserContext(), currentShop(c).ShopID, status, c.QueryInt("limit", 100))
	if err != nil {
		return respondError(c, "order.list", err)
	}
	return c.JSON(fiber.Map{"orders": list})
}

// GET /api/orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order", "invalid order id")
	}
	o, err := h.Orders.Get(c.UserContext(), currentShop(c).ShopID, id)
	if err != nil {
		return respondError(c, "order.get", err)
	}
	return c.JSON(fiber.Map{"order": o})
}

type orderActionRequest struct {
	Action string `json:"action"`
}

// POST /api/orders/:id {"action": "accept" | "cancel"}
func (h *OrderHandler) Action(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order", "invalid order id")
	}
	var req orderActionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "invalid request body")
	}

	shop := currentShop(c)
	var (
		o   domain.Order
		err error
	)
	switch req.Action {
	case "accept":
		o, err = h.Orders.Accept(c.UserContext(), shop, id)
	case "cancel":
		o, err = h.Orders.Cancel(c.UserContext(), shop, id)
	default:
		return badRequest(c, "action", "action must be accept or cancel")
	}
	if err != nil {
		return respondError(c, "order."+req.Action, err)
	}
	applog.Audit(c, "order."+req.Action, map[string]any{"order_id": o.ID, "total": o.Total})
	return c.JSON(fiber.Map{"order": o})
}

// PATCH /api/orders/:id {"memo"?, "closed"?}
func (h *OrderHandler) UpdateMeta(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order", "invalid order id")
	}
	var meta domain.OrderMeta
	if err := c.BodyParser(&meta); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	o, err := h.Orders.UpdateMeta(c.UserContext(), currentShop(c).ShopID, id, meta)
	if err != nil {
		return respondError(c, "order.meta", err)
	}
	applog.Audit(c, "order.meta", map[string]any{"order_id": o.ID, "closed": o.Closed})
	return c.JSON(fiber.Map{"order": o})
}

// POST /api/orders/:id/contact
func (h *OrderHandler) RequestContact(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "order", "invalid order id")
	}
	o, err := h.Orders.RequestContact(c.UserContext(), currentShop(c), id)
	if err != nil {
		return respondError(c, "order.contact", err)
	}
	applog.Audit(c, "order.contact", map[string]any{"order_id": o.ID})
	return c.JSON(fiber.Map{"order": o})
}

type relayRequest struct {
	Message string `json:"message"`
}

// POST /api/contact {"message": "..."}
func (h *OrderHandler) Relay(c *fiber.Ctx) error {
	var req relayRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	o, err := h.Orders.RelayContact(c.UserContext(), subject(c), req.Message)
	if err != nil {
		return respondError(c, "order.relay", err)
	}
	applog.Audit(c, "order.relay", map[string]any{"order_id": o.ID})
	return c.JSON(fiber.Map{"order": o})
}
