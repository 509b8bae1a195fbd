package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	applog "neynegar/internal/log"
	"neynegar/internal/services"
	"neynegar/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     "sid",
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable true behind TLS
		})
	}
	return sid
}

type loginReq struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	phone, ok := validate.Phone(req.Phone)
	if !ok || !validate.Password(req.Password) {
		applog.Security(c, "login.validation.fail", nil)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid phone or password"})
	}

	sid := ensureSID(c)
	u, err := h.Auth.Login(sid, phone, req.Password)
	if err != nil {
		applog.Security(c, "login.fail", map[string]any{"phone": phone})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid phone or password"})
	}
	applog.Audit(c, "login.ok", map[string]any{"user_id": u.ID})
	return c.JSON(fiber.Map{"id": u.ID, "name": u.Name, "role": u.Role})
}

type profileReq struct {
	Address  string `json:"address"`
	PostCode string `json:"postCode"`
}

// UpdateProfile stores the caller's shipping address and postal code.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var req profileReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	if len(req.Address) > 500 || len(req.PostCode) > 20 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid address"})
	}
	u := currentUser(c)
	if err := h.Auth.UpdateAddress(u.ID, req.Address, req.PostCode); err != nil {
		return fail(c, "profile.update", err)
	}
	applog.Audit(c, "profile.update", map[string]any{"user_id": u.ID})
	return c.JSON(fiber.Map{"ok": true})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies("sid"); sid != "" {
		_ = h.Auth.Logout(sid)
	}
	return c.JSON(fiber.Map{"ok": true})
}
