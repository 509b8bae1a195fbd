package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"neynegar/internal/config"
	"neynegar/internal/gateway"
	"neynegar/internal/http/handlers"
	applog "neynegar/internal/log"
	"neynegar/internal/repos"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	gw := gateway.NewZarinpal(
		cfg.GatewayRequestURL, cfg.GatewayVerifyURL, cfg.GatewayPaymentURL,
		cfg.GatewayMerchantID, cfg.GatewayCallback, cfg.GatewayTimeout,
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "something went wrong, please try again",
			})
		},
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	}))

	deps := handlers.NewDeps(db, cfg, gw)
	user := handlers.RequireUser(deps.Auth)
	staff := handlers.RequireStaff(deps.Auth)

	// Auth (login throttled)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts"})
		},
	}), deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)
	app.Put("/profile", user, deps.AuthHandler.UpdateProfile)

	// Basket & favorites
	app.Get("/basket", user, deps.BasketHandler.View)
	app.Post("/basket", user, deps.BasketHandler.Add)
	app.Delete("/basket/:productID", user, deps.BasketHandler.Remove)
	app.Get("/favorites", user, deps.BasketHandler.Favorites)
	app.Post("/favorites", user, deps.BasketHandler.AddFavorite)
	app.Delete("/favorites/:productID", user, deps.BasketHandler.RemoveFavorite)

	// Checkout & payment
	app.Post("/checkout", user, deps.CheckoutHandler.Create)
	app.Post("/orders/:id/verify", user, deps.OrderHandler.Verify)
	app.Get("/orders", user, deps.OrderHandler.History)
	app.Get("/orders/:id", user, deps.OrderHandler.View)

	// Staff
	admin := app.Group("/admin", staff)
	admin.Get("/orders", deps.OrderHandler.List)
	admin.Get("/orders/status/:status", deps.OrderHandler.ListByStatus)
	admin.Get("/orders/user/:userID", deps.OrderHandler.ListByUser)
	admin.Post("/orders", deps.OrderHandler.DirectCreate)
	admin.Post("/orders/:id/status", deps.OrderHandler.UpdateStatus)
	admin.Post("/orders/:id/payment", deps.OrderHandler.UpdatePaymentRef)
	admin.Post("/orders/:id/post-verify", deps.OrderHandler.UpdatePostVerify)
	admin.Get("/checkouts/user/:userID", deps.CheckoutHandler.ListByUser)
	admin.Post("/checkouts/:id/convert", deps.CheckoutHandler.Convert)
	admin.Delete("/checkouts/:id", deps.CheckoutHandler.Delete)
	admin.Get("/shipping-rules", deps.ShippingHandler.List)
	admin.Post("/shipping-rules", deps.ShippingHandler.Upsert)
	admin.Delete("/shipping-rules/:method", deps.ShippingHandler.Delete)
	admin.Post("/products/:id/price", deps.ProductHandler.AppendPrice)
	admin.Post("/products/:id/discount", deps.ProductHandler.AppendDiscount)
	admin.Post("/products/:id/cost", deps.ProductHandler.AppendCost)
	admin.Post("/basket-count", deps.BasketHandler.SetCount)

	// Health
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	log.Fatal(app.Listen(":" + cfg.Port))
}
