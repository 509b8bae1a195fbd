package services_test

import (
	"context"
	"errors"
	"testing"

	"neynegar/internal/domain"
	"neynegar/internal/repos"
	"neynegar/internal/services"
)

// placeUnpaidOrder creates a checkout-path order with one frozen line:
// 2 × 100000 at 20% discount, charged total 235000 (incl. shipping 75000).
func placeUnpaidOrder(t *testing.T, orders *repos.OrderRepo) domain.Order {
	t.Helper()
	o := domain.Order{
		ID: "o-1", UserID: "u-1", Submission: "post",
		TotalPrice: 235000, TotalWeight: 1000, ShippingCost: 75000,
		Status: domain.StatusUnpaid, Authority: "A-v1",
		Lines: []domain.OrderLine{{ProductID: "bk-1", Price: 100000, Discount: 20, Count: 2}},
	}
	if err := orders.Create(o); err != nil {
		t.Fatal(err)
	}
	return o
}

func TestVerifyPayment_AppliesEffectsOnce(t *testing.T) {
	db := memdb(t)
	gw := &stubGateway{refID: "ref-77"}
	_, orderSvc, users, _, _, orders := newServices(db, gw)

	if err := users.AddToBasket("u-1", "bk-1", 2); err != nil {
		t.Fatal(err)
	}
	placeUnpaidOrder(t, orders)

	o, err := orderSvc.VerifyPayment(context.Background(), "o-1")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusPendingConf || o.PaymentRef != "ref-77" {
		t.Fatalf("bad order after verify: %+v", o)
	}
	if gw.lastAmount != 2350000 {
		t.Fatalf("verify amount should be total ×10, got %d", gw.lastAmount)
	}

	// basket line removed
	basket, err := users.Basket("u-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(basket) != 0 {
		t.Fatalf("ordered product should leave the basket: %v", basket)
	}

	// lifetime spend grows by the order total
	u, err := users.ByID("u-1")
	if err != nil {
		t.Fatal(err)
	}
	if u.TotalBuy != 235000 {
		t.Fatalf("want totalBuy 235000, got %v", u.TotalBuy)
	}

	// inventory: both counters drop by 2; revenue = 80000×2 = 160000
	products := repos.NewProductRepo(db)
	p, err := products.Get("bk-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Count != 8 || p.ShowCount != 6 {
		t.Fatalf("want count 8 / showCount 6, got %d/%d", p.Count, p.ShowCount)
	}
	if p.TotalSell != 160000 {
		t.Fatalf("want totalSell 160000 (discounted revenue), got %v", p.TotalSell)
	}
}

func TestVerifyPayment_Idempotent(t *testing.T) {
	db := memdb(t)
	gw := &stubGateway{refID: "ref-1"}
	_, orderSvc, users, _, _, orders := newServices(db, gw)

	if err := users.AddToBasket("u-1", "bk-1", 2); err != nil {
		t.Fatal(err)
	}
	placeUnpaidOrder(t, orders)

	first, err := orderSvc.VerifyPayment(context.Background(), "o-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := orderSvc.VerifyPayment(context.Background(), "o-1")
	if err != nil {
		t.Fatal(err)
	}
	if first.Status != second.Status || first.PaymentRef != second.PaymentRef {
		t.Fatalf("second verify changed the order: %+v vs %+v", first, second)
	}
	if gw.verifyCalls != 1 {
		t.Fatalf("gateway must be called exactly once, got %d", gw.verifyCalls)
	}

	// side effects applied exactly once
	u, _ := users.ByID("u-1")
	if u.TotalBuy != 235000 {
		t.Fatalf("spend applied twice: %v", u.TotalBuy)
	}
	p, _ := repos.NewProductRepo(db).Get("bk-1")
	if p.Count != 8 || p.ShowCount != 6 {
		t.Fatalf("inventory applied twice: %d/%d", p.Count, p.ShowCount)
	}
}

func TestVerifyPayment_RejectedStaysRetryable(t *testing.T) {
	db := memdb(t)
	gw := &stubGateway{verifyErr: domain.ErrGatewayRejected}
	_, orderSvc, users, _, _, orders := newServices(db, gw)

	if err := users.AddToBasket("u-1", "bk-1", 2); err != nil {
		t.Fatal(err)
	}
	placeUnpaidOrder(t, orders)

	_, err := orderSvc.VerifyPayment(context.Background(), "o-1")
	if !errors.Is(err, domain.ErrPaymentRejected) {
		t.Fatalf("want ErrPaymentRejected, got %v", err)
	}

	o, err := orders.Get("o-1")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusUnpaid {
		t.Fatalf("order must remain UNPAID for retry, got %s", o.Status)
	}
	// no side effects leaked
	u, _ := users.ByID("u-1")
	if u.TotalBuy != 0 {
		t.Fatalf("spend must not change on rejection: %v", u.TotalBuy)
	}
	if basket, _ := users.Basket("u-1"); len(basket) != 1 {
		t.Fatalf("basket must survive rejection: %v", basket)
	}

	// a later retry with a healthy gateway succeeds
	gw.verifyErr = nil
	gw.refID = "ref-2"
	o, err = orderSvc.VerifyPayment(context.Background(), "o-1")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusPendingConf || o.PaymentRef != "ref-2" {
		t.Fatalf("retry should commit: %+v", o)
	}
}

func TestVerifyPayment_InventoryFloorsAtZero(t *testing.T) {
	db := memdb(t)
	gw := &stubGateway{refID: "ref-9"}
	_, orderSvc, _, _, _, orders := newServices(db, gw)

	// order more than is in stock (10 raw / 8 shown)
	o := domain.Order{
		ID: "o-big", UserID: "u-1", Submission: "post",
		TotalPrice: 1, Status: domain.StatusUnpaid, Authority: "A-big",
		Lines: []domain.OrderLine{{ProductID: "bk-1", Price: 100000, Count: 25}},
	}
	if err := orders.Create(o); err != nil {
		t.Fatal(err)
	}

	if _, err := orderSvc.VerifyPayment(context.Background(), "o-big"); err != nil {
		t.Fatal(err)
	}
	p, err := repos.NewProductRepo(db).Get("bk-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Count != 0 || p.ShowCount != 0 {
		t.Fatalf("counters must floor at zero, got %d/%d", p.Count, p.ShowCount)
	}
}

func TestVerifyPayment_NotFound(t *testing.T) {
	db := memdb(t)
	_, orderSvc, _, _, _, _ := newServices(db, &stubGateway{})

	_, err := orderSvc.VerifyPayment(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCommitDirectOrder_CoarseEffects(t *testing.T) {
	db := memdb(t)
	_, orderSvc, users, _, _, _ := newServices(db, &stubGateway{})

	o, err := orderSvc.CommitDirectOrder(services.DirectOrderInput{
		UserID: "u-1", Submission: "courier", TotalPrice: 300000, Authority: "A-d",
		Lines: []domain.OrderLine{{ProductID: "bk-1", Price: 100000, Discount: 20, Count: 3}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusUnpaid {
		t.Fatalf("direct order starts UNPAID, got %s", o.Status)
	}

	u, _ := users.ByID("u-1")
	if u.TotalBuy != 300000 {
		t.Fatalf("want totalBuy 300000, got %v", u.TotalBuy)
	}

	// direct path: show_count only; total_sell grows by raw units
	p, _ := repos.NewProductRepo(db).Get("bk-1")
	if p.Count != 10 {
		t.Fatalf("direct path must not touch raw count, got %d", p.Count)
	}
	if p.ShowCount != 5 {
		t.Fatalf("want showCount 5, got %d", p.ShowCount)
	}
	if p.TotalSell != 3 {
		t.Fatalf("want totalSell 3 (raw units), got %v", p.TotalSell)
	}
}

func TestUpdateStatus_EnumChecked(t *testing.T) {
	db := memdb(t)
	_, orderSvc, _, _, _, orders := newServices(db, &stubGateway{})
	placeUnpaidOrder(t, orders)

	if _, err := orderSvc.UpdateStatus("o-1", "LOST_IN_MAIL"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation for unknown status, got %v", err)
	}

	o, err := orderSvc.UpdateStatus("o-1", domain.StatusCanceled)
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusCanceled {
		t.Fatalf("want CANCELED, got %s", o.Status)
	}
}

func TestFieldMutators_UnknownOrder(t *testing.T) {
	db := memdb(t)
	_, orderSvc, _, _, _, _ := newServices(db, &stubGateway{})

	if _, err := orderSvc.UpdatePaymentRef("nope", "ref-x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound from UpdatePaymentRef, got %v", err)
	}
	if _, err := orderSvc.UpdatePostVerify("nope", "barcode"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound from UpdatePostVerify, got %v", err)
	}
}

func TestUpdateStatus_NoCancelAfterShipment(t *testing.T) {
	db := memdb(t)
	_, orderSvc, _, _, _, orders := newServices(db, &stubGateway{})
	placeUnpaidOrder(t, orders)

	if _, err := orderSvc.UpdateStatus("o-1", domain.StatusShipped); err != nil {
		t.Fatal(err)
	}
	_, err := orderSvc.UpdateStatus("o-1", domain.StatusCanceled)
	if !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("want ErrStateConflict, got %v", err)
	}
}
