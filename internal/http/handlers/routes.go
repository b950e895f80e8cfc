package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	applog "minishop/internal/log"
)

type RouteConfig struct {
	// Storage backs every limiter; nil keeps counters in process memory.
	Storage fiber.Storage

	GlobalMax       int // requests per minute per IP
	OrderMax        int // public order submissions per minute per IP
	SessionMax      int // session exchanges per minute per IP
	AvailabilityMax int // availability checks per 30s per IP

	AccessLog bool
}

func DefaultRouteConfig() RouteConfig {
	return RouteConfig{GlobalMax: 120, OrderMax: 10, SessionMax: 20, AvailabilityMax: 15, AccessLog: true}
}

func rateLimit(rc RouteConfig, name string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		Storage:    rc.Storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|" + name
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Status(fiber.StatusTooManyRequests)
			applog.Security(c, "rate."+name+".hit", nil)
			return c.JSON(fiber.Map{"error": "rate limit exceeded, retry soon", "code": "RateLimited"})
		},
	})
}

// NewApp builds the fiber app with middleware and every route mounted.
func NewApp(d *Deps, rc RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		BodyLimit:    1 << 20,
	})
	app.Use(applog.Middleware(d.Log))
	app.Use(recover.New())
	app.Use(requestid.New())
	if rc.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	app.Use(rateLimit(rc, "global", rc.GlobalMax, time.Minute))
	Register(app, d, rc)
	return app
}

func Register(app *fiber.App, d *Deps, rc RouteConfig) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	api := app.Group("/api")
	api.Post("/session", rateLimit(rc, "session", rc.SessionMax, time.Minute), d.AuthHandler.Session)

	// Buyer-facing storefront
	pub := api.Group("/public")
	pub.Get("/shops/:shopId", d.PublicHandler.Shop)
	pub.Get("/shops/:shopId/products", d.PublicHandler.Products)
	pub.Get("/products/:id/availability",
		rateLimit(rc, "availability", rc.AvailabilityMax, 30*time.Second), d.InventoryHandler.Availability)
	pub.Post("/orders", rateLimit(rc, "order", rc.OrderMax, time.Minute), d.PublicHandler.PlaceOrder)

	// Owner console
	owner := RequireOwner(d.Auth)
	api.Get("/shop", owner, d.ShopHandler.Get)
	api.Put("/shop", owner, d.ShopHandler.Update)
	api.Patch("/shop", owner, d.ShopHandler.SetStatus)
	api.Post("/contact", owner, d.OrderHandler.Relay)

	withShop := []fiber.Handler{owner, LoadShop(d.Shops)}
	products := api.Group("/products", withShop...)
	products.Get("/", d.ProductHandler.List)
	products.Post("/", d.ProductHandler.Create)
	products.Get("/:id", d.ProductHandler.Get)
	products.Put("/:id", d.ProductHandler.Update)
	products.Delete("/:id", d.ProductHandler.Archive)
	products.Post("/:id/inventory", d.InventoryHandler.Adjust)

	orders := api.Group("/orders", withShop...)
	orders.Get("/", d.OrderHandler.List)
	orders.Get("/:id", d.OrderHandler.Get)
	orders.Post("/:id", d.OrderHandler.Action)
	orders.Patch("/:id", d.OrderHandler.UpdateMeta)
	orders.Post("/:id/contact", d.OrderHandler.RequestContact)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found", "code": "NotFound"})
	})
}
