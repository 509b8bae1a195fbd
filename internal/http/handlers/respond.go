package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"neynegar/internal/domain"
	applog "neynegar/internal/log"
)

// fail maps a domain error onto a JSON response. Unknown errors surface as
// a generic 500 so internals never leak to clients.
func fail(c *fiber.Ctx, action string, err error) error {
	status := fiber.StatusInternalServerError
	msg := "something went wrong, please try again"

	switch {
	case errors.Is(err, domain.ErrValidation):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		status, msg = fiber.StatusForbidden, "access denied"
	case errors.Is(err, domain.ErrNotFound):
		status, msg = fiber.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrPaymentRejected):
		status, msg = fiber.StatusPaymentRequired, "payment was not verified"
	case errors.Is(err, domain.ErrGatewayUnreachable), errors.Is(err, domain.ErrGatewayRejected):
		status, msg = fiber.StatusBadGateway, "payment gateway error"
	case errors.Is(err, domain.ErrStateConflict), errors.Is(err, domain.ErrInsufficientStock):
		status, msg = fiber.StatusConflict, err.Error()
	}

	if status == fiber.StatusInternalServerError {
		applog.Error(c, action, err, nil)
	} else {
		applog.Security(c, action, map[string]any{"error": err.Error()})
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
