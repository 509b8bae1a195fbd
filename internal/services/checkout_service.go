package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"neynegar/internal/domain"
	"neynegar/internal/gateway"
	"neynegar/internal/pricing"
	"neynegar/internal/repos"
	"neynegar/internal/shipping"
)

// CheckoutService stages a priced basket, requests gateway authorization
// and converts the result into an unpaid order.
type CheckoutService struct {
	Users     *repos.UserRepo
	Products  *repos.ProductRepo
	Checkouts *repos.CheckoutRepo
	Orders    *repos.OrderRepo
	Ship      *repos.ShippingRepo
	Gateway   gateway.Adapter

	MinorUnitFactor float64
	CheckoutTTL     time.Duration
	Fallback        shipping.Fallback
}

type CheckoutPayment struct {
	Authority   string `json:"authority"`
	RedirectURL string `json:"redirectUrl"`
}

// MinorUnits converts a catalog-currency amount to the gateway's minor
// currency unit.
func (s *CheckoutService) MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * s.MinorUnitFactor))
}

// CreateCheckoutPayment prices the user's live basket, authorizes the
// charge with the gateway, persists a short-lived checkout session and
// immediately commits it as an UNPAID order with per-line price and
// discount frozen at this moment.
func (s *CheckoutService) CreateCheckoutPayment(ctx context.Context, userID, method string, manualDiscount float64) (CheckoutPayment, error) {
	if manualDiscount < 0 {
		return CheckoutPayment{}, errors.Wrap(domain.ErrValidation, "negative discount")
	}

	user, err := s.Users.ByID(userID)
	if err != nil {
		return CheckoutPayment{}, errors.Wrap(domain.ErrNotFound, "user")
	}

	basket, err := s.Users.Basket(userID)
	if err != nil {
		return CheckoutPayment{}, err
	}
	if len(basket) == 0 {
		return CheckoutPayment{}, errors.Wrap(domain.ErrValidation, "basket is empty")
	}

	ids := make([]string, 0, len(basket))
	for _, l := range basket {
		ids = append(ids, l.ProductID)
	}
	cat, err := s.Products.Snapshot(ids)
	if err != nil {
		return CheckoutPayment{}, err
	}

	lines, totals := pricing.Price(basket, cat, time.Now())

	rule, err := s.Ship.ByMethod(method)
	if err != nil {
		return CheckoutPayment{}, err
	}
	shippingCost := shipping.Resolve(rule, totals.TotalWeight, s.Fallback)

	// Postal orders carry shipping in the charged amount; courier orders
	// collect it on delivery.
	grandTotal := totals.Total + shippingCost
	charge := totals.Total
	if method == "post" {
		charge = grandTotal
	}
	charge -= manualDiscount
	if charge <= 0 {
		return CheckoutPayment{}, errors.Wrap(domain.ErrValidation, "nothing to charge")
	}

	auth, err := s.Gateway.Authorize(ctx, s.MinorUnits(charge), user.Phone, "order payment")
	if err != nil {
		return CheckoutPayment{}, err
	}

	cs := domain.CheckoutSession{
		ID:          uuid.NewString(),
		UserID:      userID,
		Submission:  method,
		Authority:   auth.Authority,
		TotalPrice:  charge,
		TotalWeight: totals.TotalWeight,
		Discount:    manualDiscount,
		ExpiresAt:   time.Now().Add(s.CheckoutTTL),
		Products:    basket,
	}
	if err := s.Checkouts.Create(cs); err != nil {
		return CheckoutPayment{}, err
	}

	order := domain.Order{
		ID:           uuid.NewString(),
		UserID:       userID,
		Submission:   method,
		TotalPrice:   charge,
		TotalWeight:  totals.TotalWeight,
		ShippingCost: shippingCost,
		Discount:     manualDiscount,
		Status:       domain.StatusUnpaid,
		Authority:    auth.Authority,
	}
	for _, l := range lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID: l.ProductID,
			Price:     l.CurrentPrice,
			Discount:  l.CurrentDiscountPct,
			Count:     l.Count,
		})
	}
	if err := s.Orders.Create(order); err != nil {
		return CheckoutPayment{}, err
	}

	// The session was only a staging artifact for this order.
	_ = s.Checkouts.Delete(cs.ID)

	return CheckoutPayment{Authority: auth.Authority, RedirectURL: auth.RedirectURL}, nil
}

// ConvertCheckoutToOrder manually promotes a previously created checkout
// session into an order without re-pricing. Per-line price and discount
// are placeholder zeros; the session's stored totals are reused as-is.
func (s *CheckoutService) ConvertCheckoutToOrder(checkoutID string) (domain.Order, error) {
	cs, err := s.Checkouts.Get(checkoutID)
	if err != nil {
		return domain.Order{}, errors.Wrap(domain.ErrNotFound, "checkout")
	}

	order := domain.Order{
		ID:          uuid.NewString(),
		UserID:      cs.UserID,
		Submission:  cs.Submission,
		TotalPrice:  cs.TotalPrice,
		TotalWeight: cs.TotalWeight,
		Discount:    cs.Discount,
		Status:      domain.StatusUnpaid,
		Authority:   cs.Authority,
	}
	for _, l := range cs.Products {
		order.Lines = append(order.Lines, domain.OrderLine{
			ProductID: l.ProductID,
			Count:     l.Count,
		})
	}
	if err := s.Orders.Create(order); err != nil {
		return domain.Order{}, err
	}
	if err := s.Checkouts.Delete(cs.ID); err != nil {
		return domain.Order{}, err
	}
	return s.Orders.Get(order.ID)
}
