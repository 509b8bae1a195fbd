package services_test

import (
	"errors"
	"testing"

	"neynegar/internal/domain"
	"neynegar/internal/repos"
	"neynegar/internal/services"
)

func TestBasket_AddMergesCounts(t *testing.T) {
	db := memdb(t)
	users := repos.NewUserRepo(db)
	svc := &services.BasketService{Users: users, Products: repos.NewProductRepo(db), Fallback: fb}

	if err := svc.Add("u-1", "bk-1", 2); err != nil {
		t.Fatal(err)
	}
	if err := svc.Add("u-1", "bk-1", 3); err != nil {
		t.Fatal(err)
	}

	basket, err := users.Basket("u-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(basket) != 1 || basket[0].Count != 5 {
		t.Fatalf("counts should merge: %v", basket)
	}
}

func TestBasket_AddRejectsBadInput(t *testing.T) {
	db := memdb(t)
	svc := &services.BasketService{Users: repos.NewUserRepo(db), Products: repos.NewProductRepo(db), Fallback: fb}

	if err := svc.Add("u-1", "bk-1", 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation for count 0, got %v", err)
	}
	if err := svc.Add("u-1", "ghost", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown product, got %v", err)
	}
	// bk-1 displays 8 in stock
	if err := svc.Add("u-1", "bk-1", 9); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock, got %v", err)
	}
}

func TestBasket_ViewEstimatesShipping(t *testing.T) {
	db := memdb(t)
	users := repos.NewUserRepo(db)
	svc := &services.BasketService{Users: users, Products: repos.NewProductRepo(db), Fallback: fb}

	if err := svc.Add("u-1", "bk-1", 2); err != nil {
		t.Fatal(err)
	}
	view, err := svc.View("u-1")
	if err != nil {
		t.Fatal(err)
	}
	// 1000g through the fallback formula
	if want := 1000*7 + 90000.0; view.ShippingCost != want {
		t.Fatalf("want shipping %v, got %v", want, view.ShippingCost)
	}
	if view.GrandTotal != view.Totals.Total+view.ShippingCost {
		t.Fatalf("grand total identity broken: %+v", view)
	}
}

func TestFavorites_IdempotentAdd(t *testing.T) {
	db := memdb(t)
	svc := &services.BasketService{Users: repos.NewUserRepo(db), Products: repos.NewProductRepo(db), Fallback: fb}

	if err := svc.AddFavorite("u-1", "bk-1"); err != nil {
		t.Fatal(err)
	}
	if err := svc.AddFavorite("u-1", "bk-1"); err != nil {
		t.Fatal(err)
	}
	favs, err := svc.Favorites("u-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(favs) != 1 {
		t.Fatalf("favorite add should be idempotent: %v", favs)
	}

	if err := svc.RemoveFavorite("u-1", "bk-1"); err != nil {
		t.Fatal(err)
	}
	if favs, _ = svc.Favorites("u-1"); len(favs) != 0 {
		t.Fatalf("favorite not removed: %v", favs)
	}
}
