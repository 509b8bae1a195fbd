package services

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"neynegar/internal/domain"
	"neynegar/internal/gateway"
	"neynegar/internal/repos"
)

// OrderService owns the order commitment state machine.
type OrderService struct {
	Users    *repos.UserRepo
	Products *repos.ProductRepo
	Orders   *repos.OrderRepo
	Gateway  gateway.Adapter

	MinorUnitFactor float64
}

func (s *OrderService) minorUnits(amount float64) int64 {
	return int64(math.Round(amount * s.MinorUnitFactor))
}

// VerifyPayment verifies the order's payment with the gateway and, on
// success, applies the commitment side effects exactly once.
//
// Calling it on an order that already left UNPAID is an idempotent no-op:
// the order is returned unchanged and no side effect is repeated. Two
// near-simultaneous calls race on an atomic conditional transition; the
// loser observes the winner's state and backs off.
func (s *OrderService) VerifyPayment(ctx context.Context, orderID string) (domain.Order, error) {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return domain.Order{}, errors.Wrap(domain.ErrNotFound, "order")
	}
	if o.Status != domain.StatusUnpaid {
		return o, nil
	}

	won, err := s.Orders.TransitionStatus(orderID, domain.StatusUnpaid, domain.StatusPendingConf)
	if err != nil {
		return domain.Order{}, err
	}
	if !won {
		return s.Orders.Get(orderID)
	}

	res, err := s.Gateway.Verify(ctx, s.minorUnits(o.TotalPrice), o.Authority)
	if err != nil {
		// Leave the order retryable; the transition is rolled back so a
		// later attempt can re-verify.
		if _, rerr := s.Orders.TransitionStatus(orderID, domain.StatusPendingConf, domain.StatusUnpaid); rerr != nil {
			return domain.Order{}, rerr
		}
		if errors.Is(err, domain.ErrGatewayUnreachable) {
			return domain.Order{}, err
		}
		return domain.Order{}, errors.Wrap(domain.ErrPaymentRejected, err.Error())
	}

	if err := s.applyPaidEffects(o, res.RefID); err != nil {
		return domain.Order{}, err
	}
	return s.Orders.Get(orderID)
}

// applyPaidEffects records the settlement and updates basket, ledger and
// inventory for a verified order.
func (s *OrderService) applyPaidEffects(o domain.Order, refID string) error {
	if err := s.Orders.SetPaymentRef(o.ID, refID); err != nil {
		return err
	}
	for _, l := range o.Lines {
		if err := s.Users.RemoveFromBasket(o.UserID, l.ProductID); err != nil {
			return err
		}
	}
	if err := s.Users.AddSpend(o.UserID, o.TotalPrice); err != nil {
		return err
	}
	for _, l := range o.Lines {
		if err := s.Products.ApplyPaidSale(l.ProductID, l.Count, l.Paid()); err != nil {
			return err
		}
	}
	return nil
}

// DirectOrderInput is the administrative order-creation payload.
type DirectOrderInput struct {
	UserID       string             `json:"userId"`
	Submission   string             `json:"submission"`
	TotalPrice   float64            `json:"totalPrice"`
	TotalWeight  float64            `json:"totalWeight"`
	ShippingCost float64            `json:"shippingCost"`
	Discount     float64            `json:"discount"`
	Authority    string             `json:"authority"`
	Lines        []domain.OrderLine `json:"lines"`
}

// CommitDirectOrder persists an order as given, bypassing the gateway.
//
// Its side effects are coarser than the verified-payment path: lifetime
// spend grows by the submitted total, only show_count is decremented and
// total_sell grows by raw unit counts instead of discounted revenue.
func (s *OrderService) CommitDirectOrder(in DirectOrderInput) (domain.Order, error) {
	if in.UserID == "" || len(in.Lines) == 0 {
		return domain.Order{}, errors.Wrap(domain.ErrValidation, "userId and lines are required")
	}
	if _, err := s.Users.ByID(in.UserID); err != nil {
		return domain.Order{}, errors.Wrap(domain.ErrNotFound, "user")
	}

	order := domain.Order{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		Submission:   in.Submission,
		TotalPrice:   in.TotalPrice,
		TotalWeight:  in.TotalWeight,
		ShippingCost: in.ShippingCost,
		Discount:     in.Discount,
		Status:       domain.StatusUnpaid,
		Authority:    in.Authority,
		Lines:        in.Lines,
	}
	if err := s.Orders.Create(order); err != nil {
		return domain.Order{}, err
	}

	if err := s.Users.AddSpend(in.UserID, in.TotalPrice); err != nil {
		return domain.Order{}, err
	}
	for _, l := range in.Lines {
		if err := s.Products.ApplyDirectSale(l.ProductID, l.Count); err != nil {
			return domain.Order{}, err
		}
	}
	return s.Orders.Get(order.ID)
}

// UpdateStatus moves the order to any valid status (privileged callers).
// Orders that already shipped can no longer be canceled.
func (s *OrderService) UpdateStatus(orderID, status string) (domain.Order, error) {
	if !domain.ValidStatus(status) {
		return domain.Order{}, errors.Wrapf(domain.ErrValidation, "status %q", status)
	}
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return domain.Order{}, errors.Wrap(domain.ErrNotFound, "order")
	}
	if status == domain.StatusCanceled &&
		(o.Status == domain.StatusShipped || o.Status == domain.StatusDelivered) {
		return domain.Order{}, errors.Wrapf(domain.ErrStateConflict, "cancel after %s", o.Status)
	}
	if err := s.Orders.UpdateStatus(orderID, status); err != nil {
		return domain.Order{}, err
	}
	return s.Orders.Get(orderID)
}

func (s *OrderService) UpdatePaymentRef(orderID, ref string) (domain.Order, error) {
	if _, err := s.Orders.Get(orderID); err != nil {
		return domain.Order{}, errors.Wrap(domain.ErrNotFound, "order")
	}
	if err := s.Orders.SetPaymentRef(orderID, ref); err != nil {
		return domain.Order{}, err
	}
	return s.Orders.Get(orderID)
}

func (s *OrderService) UpdatePostVerify(orderID, postVerify string) (domain.Order, error) {
	if _, err := s.Orders.Get(orderID); err != nil {
		return domain.Order{}, errors.Wrap(domain.ErrNotFound, "order")
	}
	if err := s.Orders.SetPostVerify(orderID, postVerify); err != nil {
		return domain.Order{}, err
	}
	return s.Orders.Get(orderID)
}
