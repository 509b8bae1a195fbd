package handlers

import (
	"github.com/gofiber/fiber/v2"

	"neynegar/internal/domain"
	applog "neynegar/internal/log"
	"neynegar/internal/repos"
	"neynegar/internal/validate"
)

type ShippingHandler struct {
	Ship *repos.ShippingRepo
}

func (h *ShippingHandler) List(c *fiber.Ctx) error {
	rules, err := h.Ship.ListAll()
	if err != nil {
		return fail(c, "shipping.list", err)
	}
	return c.JSON(fiber.Map{"rules": rules})
}

func (h *ShippingHandler) Upsert(c *fiber.Ctx) error {
	var rule domain.ShippingRule
	if err := c.BodyParser(&rule); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	method, ok := validate.Method(rule.Method)
	if !ok || rule.FlatCost < 0 || rule.CostPerKg < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid shipping rule"})
	}
	rule.Method = method
	if err := h.Ship.Upsert(rule); err != nil {
		return fail(c, "shipping.upsert", err)
	}
	applog.Audit(c, "shipping.upsert", map[string]any{"method": rule.Method})
	return c.JSON(rule)
}

func (h *ShippingHandler) Delete(c *fiber.Ctx) error {
	method, ok := validate.Method(c.Params("method"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid method"})
	}
	if err := h.Ship.Delete(method); err != nil {
		return fail(c, "shipping.delete", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
