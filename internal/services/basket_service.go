package services

import (
	"time"

	"github.com/pkg/errors"

	"neynegar/internal/domain"
	"neynegar/internal/pricing"
	"neynegar/internal/repos"
	"neynegar/internal/shipping"
)

// BasketService wraps the user's live basket and favorites.
type BasketService struct {
	Users    *repos.UserRepo
	Products *repos.ProductRepo

	Fallback shipping.Fallback
}

func (s *BasketService) Add(userID, productID string, count int) error {
	if count < 1 {
		return errors.Wrap(domain.ErrValidation, "count must be at least 1")
	}
	p, err := s.Products.Get(productID)
	if err != nil {
		return errors.Wrap(domain.ErrNotFound, "product")
	}
	if count > p.ShowCount {
		return errors.Wrapf(domain.ErrInsufficientStock, "only %d available", p.ShowCount)
	}
	return s.Users.AddToBasket(userID, productID, count)
}

func (s *BasketService) Remove(userID, productID string) error {
	return s.Users.RemoveFromBasket(userID, productID)
}

// SetCount overwrites a line's count (privileged operation).
func (s *BasketService) SetCount(userID, productID string, count int) error {
	if count < 1 {
		return errors.Wrap(domain.ErrValidation, "count must be at least 1")
	}
	return s.Users.SetBasketCount(userID, productID, count)
}

// BasketView is the enriched basket detail shown before checkout.
type BasketView struct {
	Lines        []pricing.EnrichedLine `json:"basket"`
	Totals       pricing.Totals         `json:"totals"`
	ShippingCost float64                `json:"shippingCost"`
	GrandTotal   float64                `json:"grandTotal"`
}

// View prices the live basket and estimates shipping with the fallback
// formula; the method-specific rule applies only at checkout.
func (s *BasketService) View(userID string) (BasketView, error) {
	basket, err := s.Users.Basket(userID)
	if err != nil {
		return BasketView{}, err
	}

	ids := make([]string, 0, len(basket))
	for _, l := range basket {
		ids = append(ids, l.ProductID)
	}
	cat, err := s.Products.Snapshot(ids)
	if err != nil {
		return BasketView{}, err
	}

	lines, totals := pricing.Price(basket, cat, time.Now())
	shippingCost := shipping.Resolve(nil, totals.TotalWeight, s.Fallback)

	return BasketView{
		Lines:        lines,
		Totals:       totals,
		ShippingCost: shippingCost,
		GrandTotal:   totals.Total + shippingCost,
	}, nil
}

func (s *BasketService) AddFavorite(userID, productID string) error {
	if _, err := s.Products.Get(productID); err != nil {
		return errors.Wrap(domain.ErrNotFound, "product")
	}
	return s.Users.AddFavorite(userID, productID)
}

func (s *BasketService) RemoveFavorite(userID, productID string) error {
	return s.Users.RemoveFavorite(userID, productID)
}

func (s *BasketService) Favorites(userID string) ([]string, error) {
	return s.Users.Favorites(userID)
}
