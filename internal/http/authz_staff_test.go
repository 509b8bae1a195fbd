package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"neynegar/internal/http/handlers"
	"neynegar/internal/repos"
	"neynegar/internal/services"
)

// Minimal app for staff guard testing
func newStaffApp(t *testing.T) (*fiber.App, *repos.UserRepo) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}

	app := fiber.New()
	app.Use(requestid.New())

	admin := app.Group("/admin", handlers.RequireStaff(authSvc))
	admin.Get("/orders", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	return app, userRepo
}

func TestStaffGuard(t *testing.T) {
	app, userRepo := newStaffApp(t)

	// Anonymous -> 401
	resp, err := app.Test(httptest.NewRequest("GET", "/admin/orders", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous, got %d", resp.StatusCode)
	}

	// Logged-in USER -> 403
	_ = userRepo.BindSession("sid-user", "u-demo")
	reqUser := httptest.NewRequest("GET", "/admin/orders", nil)
	reqUser.AddCookie(&http.Cookie{Name: "sid", Value: "sid-user"})
	respUser, err := app.Test(reqUser)
	if err != nil {
		t.Fatal(err)
	}
	if respUser.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-staff, got %d", respUser.StatusCode)
	}

	// OWNER -> 200
	_ = userRepo.BindSession("sid-owner", "u-owner")
	reqOwner := httptest.NewRequest("GET", "/admin/orders", nil)
	reqOwner.AddCookie(&http.Cookie{Name: "sid", Value: "sid-owner"})
	respOwner, err := app.Test(reqOwner)
	if err != nil {
		t.Fatal(err)
	}
	if respOwner.StatusCode != http.StatusOK {
		t.Fatalf("owner expected 200, got %d", respOwner.StatusCode)
	}
}
