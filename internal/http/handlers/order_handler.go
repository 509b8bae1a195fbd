package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "neynegar/internal/log"
	"neynegar/internal/repos"
	"neynegar/internal/services"
	"neynegar/internal/validate"
)

type OrderHandler struct {
	Order *services.OrderService
	Repo  *repos.OrderRepo
}

// Verify settles the order's payment with the gateway. Safe to retry; a
// second call on a settled order is a no-op.
func (h *OrderHandler) Verify(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}

	o, err := h.Order.VerifyPayment(c.Context(), id)
	if err != nil {
		return fail(c, "order.verify", err)
	}
	applog.Audit(c, "order.verify", map[string]any{"order_id": o.ID, "status": o.Status})
	return c.JSON(o)
}

// View returns one order; owners see their own, staff see any.
func (h *OrderHandler) View(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}
	o, err := h.Repo.Get(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}

	u := currentUser(c)
	if o.UserID != u.ID && !u.Staff() {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": id})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
	}
	return c.JSON(o)
}

// History lists the caller's own orders.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	orders, err := h.Repo.ListByUser(currentUser(c).ID)
	if err != nil {
		return fail(c, "orders.history", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// ---------- Staff operations ----------

func (h *OrderHandler) List(c *fiber.Ctx) error {
	orders, err := h.Repo.ListLatest(c.QueryInt("limit", 100))
	if err != nil {
		return fail(c, "orders.list", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func (h *OrderHandler) ListByStatus(c *fiber.Ctx) error {
	statuses := strings.Split(strings.ToUpper(c.Params("status")), ",")
	orders, err := h.Repo.ListByStatus(statuses)
	if err != nil {
		return fail(c, "orders.bystatus", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func (h *OrderHandler) ListByUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("userID"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid user id"})
	}
	orders, err := h.Repo.ListByUser(id)
	if err != nil {
		return fail(c, "orders.byuser", err)
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// DirectCreate persists an order without gateway involvement (staff).
func (h *OrderHandler) DirectCreate(c *fiber.Ctx) error {
	var in services.DirectOrderInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	o, err := h.Order.CommitDirectOrder(in)
	if err != nil {
		return fail(c, "order.direct", err)
	}
	applog.Audit(c, "order.direct", map[string]any{"order_id": o.ID, "user_id": o.UserID})
	return c.JSON(o)
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	o, err := h.Order.UpdateStatus(id, strings.ToUpper(req.Status))
	if err != nil {
		return fail(c, "order.status", err)
	}
	applog.Audit(c, "order.status", map[string]any{"order_id": o.ID, "status": o.Status})
	return c.JSON(o)
}

func (h *OrderHandler) UpdatePaymentRef(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}
	var req struct {
		PaymentID string `json:"paymentId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	o, err := h.Order.UpdatePaymentRef(id, req.PaymentID)
	if err != nil {
		return fail(c, "order.payment", err)
	}
	return c.JSON(o)
}

func (h *OrderHandler) UpdatePostVerify(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid order id"})
	}
	var req struct {
		PostVerify string `json:"postVerify"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	o, err := h.Order.UpdatePostVerify(id, req.PostVerify)
	if err != nil {
		return fail(c, "order.postverify", err)
	}
	return c.JSON(o)
}
