package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	applog "neynegar/internal/log"
	"neynegar/internal/repos"
	"neynegar/internal/validate"
)

// ProductHandler exposes the append-only history operations on products.
// Catalog CRUD itself lives with the catalog collaborator; only the
// pricing-relevant history writes are served here.
type ProductHandler struct {
	Products *repos.ProductRepo
}

func (h *ProductHandler) AppendPrice(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	var req struct {
		Price float64 `json:"price"`
	}
	if err := c.BodyParser(&req); err != nil || req.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid price"})
	}
	if err := h.Products.AppendPrice(id, req.Price); err != nil {
		return fail(c, "product.price", err)
	}
	applog.Audit(c, "product.price", map[string]any{"product_id": id, "price": req.Price})
	return c.JSON(fiber.Map{"ok": true})
}

func (h *ProductHandler) AppendDiscount(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	var req struct {
		Pct       float64 `json:"pct"`
		ExpiresAt int64   `json:"expiresAt"` // unix seconds
	}
	if err := c.BodyParser(&req); err != nil || req.Pct < 0 || req.Pct > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid discount"})
	}
	if err := h.Products.AppendDiscount(id, req.Pct, time.Unix(req.ExpiresAt, 0)); err != nil {
		return fail(c, "product.discount", err)
	}
	applog.Audit(c, "product.discount", map[string]any{"product_id": id, "pct": req.Pct})
	return c.JSON(fiber.Map{"ok": true})
}

func (h *ProductHandler) AppendCost(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	var req struct {
		Cost  float64 `json:"cost"`
		Count int     `json:"count"`
	}
	if err := c.BodyParser(&req); err != nil || req.Cost < 0 || req.Count < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid cost entry"})
	}
	if err := h.Products.AppendCost(id, req.Cost, req.Count); err != nil {
		return fail(c, "product.cost", err)
	}
	applog.Audit(c, "product.cost", map[string]any{"product_id": id, "count": req.Count})
	return c.JSON(fiber.Map{"ok": true})
}
