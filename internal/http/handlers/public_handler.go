package handlers

import (
	"github.com/gofiber/fiber/v2"

	"minishop/internal/domain"
	applog "minishop/internal/log"
	"minishop/internal/services"
	"minishop/internal/validate"
)

// PublicHandler serves the buyer-facing storefront.
type PublicHandler struct {
	Shops     *services.ShopService
	Catalog   *services.CatalogService
	Admission *services.AdmissionService
	Auth      *services.AuthService
}

type publicProduct struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	Price           int64               `json:"price"`
	ImageURL        string              `json:"imageUrl,omitempty"`
	QuestionEnabled bool                `json:"questionEnabled"`
	QuestionText    string              `json:"questionText,omitempty"`
	Availability    domain.Availability `json:"availability"`
}

func toPublicProduct(p domain.Product) publicProduct {
	return publicProduct{
		ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price, ImageURL: p.ImageURL,
		QuestionEnabled: p.QuestionEnabled, QuestionText: p.QuestionText,
		Availability: domain.AvailabilityFor(p.Inventory),
	}
}

// GET /api/public/shops/:shopId
func (h *PublicHandler) Shop(c *fiber.Ctx) error {
	shopID, ok := validate.ShopID(c.Params("shopId"))
	if !ok {
		return badRequest(c, "shopId", "invalid shop id")
	}
	shop, err := h.Shops.GetOpen(c.UserContext(), shopID)
	if err != nil {
		return respondError(c, "public.shop", err)
	}
	return c.JSON(fiber.Map{"shop": shop.Public()})
}

// GET /api/public/shops/:shopId/products
func (h *PublicHandler) Products(c *fiber.Ctx) error {
	shopID, ok := validate.ShopID(c.Params("shopId"))
	if !ok {
		return badRequest(c, "shopId", "invalid shop id")
	}
	ps, err := h.Catalog.ListPublic(c.UserContext(), shopID)
	if err != nil {
		return respondError(c, "public.products", err)
	}
	out := make([]publicProduct, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPublicProduct(p))
	}
	return c.JSON(fiber.Map{"products": out})
}

type placeOrderRequest struct {
	ShopID           string  `json:"shopId"`
	ProductID        string  `json:"productId"`
	Quantity         *int    `json:"quantity"`
	BuyerIDToken     string  `json:"buyerIdToken"`
	QuestionResponse *string `json:"questionResponse"`
}

// POST /api/public/orders
func (h *PublicHandler) PlaceOrder(c *fiber.Ctx) error {
	var req placeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "body", "invalid request body")
	}
	shopID, ok := validate.ShopID(req.ShopID)
	if !ok {
		return badRequest(c, "shopId", "shopId is required")
	}
	productID, ok := validate.ID(req.ProductID)
	if !ok {
		return badRequest(c, "productId", "productId is required")
	}
	if req.BuyerIDToken == "" {
		return badRequest(c, "buyerIdToken", "buyerIdToken is required")
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if !validate.Qty(qty) {
		return respondError(c, "public.order", domain.New(domain.KindInvalidQuantity, "quantity too large"))
	}

	buyer, err := h.Auth.Identify(c.UserContext(), req.BuyerIDToken)
	if err != nil {
		return respondError(c, "public.order", err)
	}
	c.Locals(applog.SubjectKey, buyer.Subject)

	o, err := h.Admission.PlaceOrder(c.UserContext(), services.PlaceOrderInput{
		ShopID:           shopID,
		ProductID:        productID,
		Quantity:         qty,
		BuyerUserID:      buyer.Subject,
		QuestionResponse: req.QuestionResponse,
	})
	if err != nil {
		return respondError(c, "public.order", err)
	}
	applog.Audit(c, "order.place", map[string]any{"order_id": o.ID, "shop_id": o.ShopID, "total": o.Total})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"order": o})
}
