package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"minishop/internal/domain"
	applog "minishop/internal/log"
)

const genericError = "Something went wrong. Please try again."

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindForbidden, domain.KindShopClosed:
		return fiber.StatusForbidden
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	case domain.KindInvalidState, domain.KindMissingProductReference:
		return fiber.StatusConflict
	case domain.KindDailyLimitExceeded:
		return fiber.StatusTooManyRequests
	case domain.KindInvalid, domain.KindInvalidQuantity, domain.KindOutOfStock, domain.KindInsufficientInventory:
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// respondError maps a business error to its status and stable message. Anything
// without a kind is logged and answered with a generic 500.
func respondError(c *fiber.Ctx, action string, err error) error {
	kind := domain.KindOf(err)
	if kind == "" {
		applog.Error(c, action+".fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": genericError})
	}
	status := statusFor(kind)
	c.Status(status)
	switch status {
	case fiber.StatusForbidden, fiber.StatusUnauthorized:
		applog.Security(c, action+".denied", map[string]any{"kind": string(kind), "reason": err.Error()})
	default:
		applog.Info(c, action+".rejected", map[string]any{"kind": string(kind), "reason": err.Error()})
	}
	return c.JSON(fiber.Map{"error": domain.UserMessage(kind), "code": string(kind)})
}

func badRequest(c *fiber.Ctx, field, msg string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg, "code": string(domain.KindInvalid)})
}

// ErrorHandler is the app-level fallback for errors no handler answered.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	applog.Error(c, "server.error", err, nil)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": genericError})
}
