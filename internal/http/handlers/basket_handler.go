package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "neynegar/internal/log"
	"neynegar/internal/services"
	"neynegar/internal/validate"
)

type BasketHandler struct {
	Basket *services.BasketService
}

func (h *BasketHandler) View(c *fiber.Ctx) error {
	view, err := h.Basket.View(currentUser(c).ID)
	if err != nil {
		return fail(c, "basket.view", err)
	}
	return c.JSON(view)
}

type basketAddReq struct {
	ProductID string `json:"productId"`
	Count     int    `json:"count"`
}

func (h *BasketHandler) Add(c *fiber.Ctx) error {
	var req basketAddReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	id, ok := validate.ID(req.ProductID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	if err := h.Basket.Add(currentUser(c).ID, id, validate.Count(req.Count)); err != nil {
		return fail(c, "basket.add", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *BasketHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("productID"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	if err := h.Basket.Remove(currentUser(c).ID, id); err != nil {
		return fail(c, "basket.remove", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// SetCount overwrites a basket line's count on behalf of a user (staff).
func (h *BasketHandler) SetCount(c *fiber.Ctx) error {
	var req struct {
		UserID    string `json:"userId"`
		ProductID string `json:"productId"`
		Count     int    `json:"count"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.Basket.SetCount(req.UserID, req.ProductID, validate.Count(req.Count)); err != nil {
		return fail(c, "basket.setcount", err)
	}
	applog.Audit(c, "basket.setcount", map[string]any{"user_id": req.UserID, "product_id": req.ProductID})
	return c.JSON(fiber.Map{"ok": true})
}

func (h *BasketHandler) Favorites(c *fiber.Ctx) error {
	favs, err := h.Basket.Favorites(currentUser(c).ID)
	if err != nil {
		return fail(c, "favorites.list", err)
	}
	return c.JSON(fiber.Map{"favorites": favs})
}

func (h *BasketHandler) AddFavorite(c *fiber.Ctx) error {
	var req struct {
		ProductID string `json:"productId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if err := h.Basket.AddFavorite(currentUser(c).ID, req.ProductID); err != nil {
		return fail(c, "favorites.add", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *BasketHandler) RemoveFavorite(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("productID"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid product id"})
	}
	if err := h.Basket.RemoveFavorite(currentUser(c).ID, id); err != nil {
		return fail(c, "favorites.remove", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
