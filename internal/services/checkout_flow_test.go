package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"neynegar/internal/domain"
	"neynegar/internal/gateway"
	"neynegar/internal/repos"
	"neynegar/internal/services"
	"neynegar/internal/shipping"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	schema := `
	CREATE TABLE products(id TEXT PRIMARY KEY, title TEXT, weight NUMERIC DEFAULT 0,
	  count INTEGER DEFAULT 0, show_count INTEGER DEFAULT 0, total_sell NUMERIC DEFAULT 0,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE price_points(seq INTEGER PRIMARY KEY AUTOINCREMENT, product_id TEXT,
	  price NUMERIC, recorded_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE cost_points(seq INTEGER PRIMARY KEY AUTOINCREMENT, product_id TEXT,
	  cost NUMERIC, count INTEGER, recorded_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE discount_points(seq INTEGER PRIMARY KEY AUTOINCREMENT, product_id TEXT,
	  pct NUMERIC, expires_at INTEGER, recorded_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE users(id TEXT PRIMARY KEY, phone TEXT UNIQUE, name TEXT, password_hash TEXT,
	  role TEXT, address TEXT DEFAULT '', post_code TEXT DEFAULT '', total_buy NUMERIC DEFAULT 0,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE sessions(id TEXT PRIMARY KEY, user_id TEXT, created_at TEXT, last_seen TEXT);
	CREATE TABLE basket_items(user_id TEXT, product_id TEXT, count INTEGER,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP, updated_at TEXT, PRIMARY KEY(user_id, product_id));
	CREATE TABLE favorite_items(user_id TEXT, product_id TEXT,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP, PRIMARY KEY(user_id, product_id));
	CREATE TABLE checkouts(id TEXT PRIMARY KEY, user_id TEXT, submission TEXT, authority TEXT UNIQUE,
	  total_price NUMERIC, total_weight NUMERIC, discount NUMERIC DEFAULT 0, expires_at INTEGER,
	  created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE checkout_items(checkout_id TEXT, product_id TEXT, count INTEGER,
	  PRIMARY KEY(checkout_id, product_id));
	CREATE TABLE orders(id TEXT PRIMARY KEY, user_id TEXT, submission TEXT, total_price NUMERIC,
	  total_weight NUMERIC DEFAULT 0, shipping_cost NUMERIC DEFAULT 0, discount NUMERIC DEFAULT 0,
	  status TEXT DEFAULT 'UNPAID', payment_ref TEXT DEFAULT '', authority TEXT,
	  post_verify TEXT DEFAULT '', created_at TEXT DEFAULT CURRENT_TIMESTAMP);
	CREATE TABLE order_items(order_id TEXT, product_id TEXT, price NUMERIC, discount NUMERIC,
	  count INTEGER, PRIMARY KEY(order_id, product_id));
	CREATE TABLE shipping_rules(method TEXT PRIMARY KEY, flat_cost NUMERIC, cost_per_kg NUMERIC DEFAULT 0,
	  created_at TEXT, updated_at TEXT);

	INSERT INTO users(id,phone,name,password_hash,role) VALUES
	  ('u-1','09120000001','Demo','x','USER');
	INSERT INTO products(id,title,weight,count,show_count) VALUES
	  ('bk-1','Shahnameh',500,10,8);
	INSERT INTO price_points(product_id,price) VALUES ('bk-1',100000);
	INSERT INTO shipping_rules(method,flat_cost,cost_per_kg) VALUES ('post',60000,15000);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	return db
}

// stubGateway satisfies gateway.Adapter for service tests.
type stubGateway struct {
	authority string
	refID     string
	authErr   error
	verifyErr error

	authorizeCalls int
	verifyCalls    int
	lastAmount     int64
}

func (g *stubGateway) Authorize(_ context.Context, amountMinor int64, _, _ string) (gateway.AuthorizeResult, error) {
	g.authorizeCalls++
	g.lastAmount = amountMinor
	if g.authErr != nil {
		return gateway.AuthorizeResult{}, g.authErr
	}
	return gateway.AuthorizeResult{Authority: g.authority, RedirectURL: "https://pay.test/" + g.authority}, nil
}

func (g *stubGateway) Verify(_ context.Context, amountMinor int64, _ string) (gateway.VerifyResult, error) {
	g.verifyCalls++
	g.lastAmount = amountMinor
	if g.verifyErr != nil {
		return gateway.VerifyResult{}, g.verifyErr
	}
	return gateway.VerifyResult{RefID: g.refID}, nil
}

var fb = shipping.Fallback{PerGram: 7, Base: 90000}

func newServices(db *sqlx.DB, gw gateway.Adapter) (*services.CheckoutService, *services.OrderService, *repos.UserRepo, *repos.ProductRepo, *repos.CheckoutRepo, *repos.OrderRepo) {
	users := repos.NewUserRepo(db)
	products := repos.NewProductRepo(db)
	checkouts := repos.NewCheckoutRepo(db)
	orders := repos.NewOrderRepo(db)
	ship := repos.NewShippingRepo(db)

	checkoutSvc := &services.CheckoutService{
		Users: users, Products: products, Checkouts: checkouts, Orders: orders, Ship: ship,
		Gateway: gw, MinorUnitFactor: 10, CheckoutTTL: time.Hour, Fallback: fb,
	}
	orderSvc := &services.OrderService{
		Users: users, Products: products, Orders: orders, Gateway: gw, MinorUnitFactor: 10,
	}
	return checkoutSvc, orderSvc, users, products, checkouts, orders
}

func TestCreateCheckoutPayment_PostMethod(t *testing.T) {
	db := memdb(t)
	gw := &stubGateway{authority: "A100"}
	checkoutSvc, _, users, _, _, orders := newServices(db, gw)

	if err := users.AddToBasket("u-1", "bk-1", 2); err != nil {
		t.Fatal(err)
	}

	pay, err := checkoutSvc.CreateCheckoutPayment(context.Background(), "u-1", "post", 0)
	if err != nil {
		t.Fatal(err)
	}
	if pay.Authority != "A100" || pay.RedirectURL == "" {
		t.Fatalf("bad payment: %+v", pay)
	}

	// 2×100000 total, 1000g → shipping 60000+15000*1 = 75000, grand 275000
	// charged in minor units (×10)
	if gw.lastAmount != 2750000 {
		t.Fatalf("want charge 2750000 minor units, got %d", gw.lastAmount)
	}

	list, err := orders.ListByUser("u-1")
	if err != nil || len(list) != 1 {
		t.Fatalf("want one order, got %v err=%v", list, err)
	}
	o, err := orders.Get(list[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusUnpaid || o.Authority != "A100" {
		t.Fatalf("bad order: %+v", o)
	}
	if len(o.Lines) != 1 || o.Lines[0].Price != 100000 || o.Lines[0].Count != 2 {
		t.Fatalf("line not frozen: %+v", o.Lines)
	}
	if o.ShippingCost != 75000 || o.TotalPrice != 275000 {
		t.Fatalf("bad totals: %+v", o)
	}

	// the staging checkout must be gone
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM checkouts`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("checkout session not deleted: %d left", n)
	}
}

func TestCreateCheckoutPayment_CourierExcludesShipping(t *testing.T) {
	db := memdb(t)
	gw := &stubGateway{authority: "A101"}
	checkoutSvc, _, users, _, _, _ := newServices(db, gw)

	if err := users.AddToBasket("u-1", "bk-1", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := checkoutSvc.CreateCheckoutPayment(context.Background(), "u-1", "courier", 0); err != nil {
		t.Fatal(err)
	}
	// courier charge excludes shipping: 100000 × 10
	if gw.lastAmount != 1000000 {
		t.Fatalf("want 1000000 minor units, got %d", gw.lastAmount)
	}
}

func TestCreateCheckoutPayment_EmptyBasket(t *testing.T) {
	db := memdb(t)
	checkoutSvc, _, _, _, _, _ := newServices(db, &stubGateway{authority: "A1"})

	_, err := checkoutSvc.CreateCheckoutPayment(context.Background(), "u-1", "post", 0)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestCreateCheckoutPayment_GatewayFailurePropagates(t *testing.T) {
	db := memdb(t)
	gw := &stubGateway{authErr: domain.ErrGatewayUnreachable}
	checkoutSvc, _, users, _, _, orders := newServices(db, gw)

	if err := users.AddToBasket("u-1", "bk-1", 1); err != nil {
		t.Fatal(err)
	}
	_, err := checkoutSvc.CreateCheckoutPayment(context.Background(), "u-1", "post", 0)
	if !errors.Is(err, domain.ErrGatewayUnreachable) {
		t.Fatalf("want ErrGatewayUnreachable, got %v", err)
	}
	if list, _ := orders.ListByUser("u-1"); len(list) != 0 {
		t.Fatalf("no order should exist after gateway failure: %v", list)
	}
}

func TestConvertCheckoutToOrder(t *testing.T) {
	db := memdb(t)
	checkoutSvc, _, _, _, checkouts, _ := newServices(db, &stubGateway{})

	cs := domain.CheckoutSession{
		ID: "c-1", UserID: "u-1", Submission: "post", Authority: "A-conv",
		TotalPrice: 275000, TotalWeight: 1000, ExpiresAt: time.Now().Add(time.Hour),
		Products: []domain.BasketLine{{ProductID: "bk-1", Count: 2}},
	}
	if err := checkouts.Create(cs); err != nil {
		t.Fatal(err)
	}

	o, err := checkoutSvc.ConvertCheckoutToOrder("c-1")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusUnpaid || o.TotalPrice != 275000 || o.Authority != "A-conv" {
		t.Fatalf("bad converted order: %+v", o)
	}
	// conversion does not re-price: placeholder zeros
	if len(o.Lines) != 1 || o.Lines[0].Price != 0 || o.Lines[0].Discount != 0 {
		t.Fatalf("want zero placeholder prices: %+v", o.Lines)
	}

	if _, err := checkouts.Get("c-1"); err == nil {
		t.Fatal("checkout should be deleted after conversion")
	}
}

func TestConvertCheckoutToOrder_ExpiredUnreachable(t *testing.T) {
	db := memdb(t)
	checkoutSvc, _, _, _, checkouts, _ := newServices(db, &stubGateway{})

	cs := domain.CheckoutSession{
		ID: "c-old", UserID: "u-1", Submission: "post", Authority: "A-old",
		TotalPrice: 1000, TotalWeight: 100, ExpiresAt: time.Now().Add(-time.Minute),
		Products: []domain.BasketLine{{ProductID: "bk-1", Count: 1}},
	}
	if err := checkouts.Create(cs); err != nil {
		t.Fatal(err)
	}

	_, err := checkoutSvc.ConvertCheckoutToOrder("c-old")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expired checkout must be unreachable, got %v", err)
	}
}
