package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "neynegar/internal/log"
	"neynegar/internal/services"
	"neynegar/internal/validate"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
}

type checkoutReq struct {
	Shipment string  `json:"shipment"`
	Discount float64 `json:"discount"`
}

// Create prices the caller's basket and starts a gateway payment.
func (h *CheckoutHandler) Create(c *fiber.Ctx) error {
	var req checkoutReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	method, ok := validate.Method(req.Shipment)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shipment method"})
	}

	u := currentUser(c)
	pay, err := h.Checkout.CreateCheckoutPayment(c.Context(), u.ID, method, req.Discount)
	if err != nil {
		return fail(c, "checkout.create", err)
	}
	applog.Audit(c, "checkout.create", map[string]any{"user_id": u.ID, "authority": pay.Authority})
	return c.JSON(pay)
}

// Convert manually promotes a staged checkout into an order (staff).
func (h *CheckoutHandler) Convert(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid checkout id"})
	}
	o, err := h.Checkout.ConvertCheckoutToOrder(id)
	if err != nil {
		return fail(c, "checkout.convert", err)
	}
	applog.Audit(c, "checkout.convert", map[string]any{"order_id": o.ID, "authority": o.Authority})
	return c.JSON(o)
}

// ListByUser shows a user's live checkout sessions (staff).
func (h *CheckoutHandler) ListByUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("userID"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}
	sessions, err := h.Checkout.Checkouts.ListByUser(id)
	if err != nil {
		return fail(c, "checkout.list", err)
	}
	return c.JSON(fiber.Map{"checkouts": sessions})
}

func (h *CheckoutHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid checkout id"})
	}
	if err := h.Checkout.Checkouts.Delete(id); err != nil {
		return fail(c, "checkout.delete", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
