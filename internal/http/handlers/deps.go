package handlers

import (
	"github.com/jmoiron/sqlx"

	"neynegar/internal/config"
	"neynegar/internal/gateway"
	"neynegar/internal/repos"
	"neynegar/internal/services"
	"neynegar/internal/shipping"
)

type Deps struct {
	AuthHandler     *AuthHandler
	BasketHandler   *BasketHandler
	CheckoutHandler *CheckoutHandler
	OrderHandler    *OrderHandler
	ShippingHandler *ShippingHandler
	ProductHandler  *ProductHandler

	Auth *services.AuthService
}

func NewDeps(db *sqlx.DB, cfg config.Config, gw gateway.Adapter) *Deps {
	userRepo := repos.NewUserRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	checkoutRepo := repos.NewCheckoutRepo(db)
	shipRepo := repos.NewShippingRepo(db)

	fb := shipping.Fallback{PerGram: cfg.ShipFallbackPerGram, Base: cfg.ShipFallbackBase}

	authSvc := &services.AuthService{Users: userRepo}
	basketSvc := &services.BasketService{Users: userRepo, Products: prodRepo, Fallback: fb}
	checkoutSvc := &services.CheckoutService{
		Users: userRepo, Products: prodRepo, Checkouts: checkoutRepo, Orders: orderRepo,
		Ship: shipRepo, Gateway: gw,
		MinorUnitFactor: cfg.MinorUnitFactor, CheckoutTTL: cfg.CheckoutTTL, Fallback: fb,
	}
	orderSvc := &services.OrderService{
		Users: userRepo, Products: prodRepo, Orders: orderRepo, Gateway: gw,
		MinorUnitFactor: cfg.MinorUnitFactor,
	}

	return &Deps{
		AuthHandler:     &AuthHandler{Auth: authSvc},
		BasketHandler:   &BasketHandler{Basket: basketSvc},
		CheckoutHandler: &CheckoutHandler{Checkout: checkoutSvc},
		OrderHandler:    &OrderHandler{Order: orderSvc, Repo: orderRepo},
		ShippingHandler: &ShippingHandler{Ship: shipRepo},
		ProductHandler:  &ProductHandler{Products: prodRepo},
		Auth:            authSvc,
	}
}
