package domain

import "time"

// PricePoint is one entry in a product's append-only price history.
type PricePoint struct {
	Price      float64   `db:"price"`
	RecordedAt time.Time `db:"recorded_at"`
}

// CostPoint records an acquisition cost alongside the restocked quantity.
type CostPoint struct {
	Cost       float64   `db:"cost"`
	Count      int       `db:"count"`
	RecordedAt time.Time `db:"recorded_at"`
}

// DiscountPoint is one entry in a product's append-only discount history.
// A discount applies only while its expiry lies in the future.
type DiscountPoint struct {
	Pct       float64   `db:"pct"`
	ExpiresAt time.Time `db:"expires_at"`
}

type PriceHistory []PricePoint

// Current returns the last-inserted price, or 0 for an empty history.
func (h PriceHistory) Current() float64 {
	if len(h) == 0 {
		return 0
	}
	return h[len(h)-1].Price
}

type DiscountHistory []DiscountPoint

// ActiveAt returns the last-inserted discount percentage if its expiry is
// strictly after now, otherwise 0.
func (h DiscountHistory) ActiveAt(now time.Time) float64 {
	if len(h) == 0 {
		return 0
	}
	last := h[len(h)-1]
	if !last.ExpiresAt.After(now) {
		return 0
	}
	return last.Pct
}

type Product struct {
	ID        string  `db:"id"`
	Title     string  `db:"title"`
	Weight    float64 `db:"weight"` // grams
	Count     int     `db:"count"`
	ShowCount int     `db:"show_count"`
	TotalSell float64 `db:"total_sell"`
	CreatedAt string  `db:"created_at"`
}

// ProductSnapshot is the slice of catalog state the pricing engine reads.
type ProductSnapshot struct {
	ID        string
	Title     string
	Weight    float64
	Prices    PriceHistory
	Discounts DiscountHistory
	ShowCount int
}

// BasketLine is one (product, count) pair in a user's live basket.
type BasketLine struct {
	ProductID string `db:"product_id" json:"productId"`
	Count     int    `db:"count" json:"count"`
}

type ShippingRule struct {
	Method    string  `db:"method" json:"method"`
	FlatCost  float64 `db:"flat_cost" json:"flatCost"`
	CostPerKg float64 `db:"cost_per_kg" json:"costPerKg"`
}

// CheckoutSession stages a priced basket against a gateway authority.
// It is transient: converted into an Order or reaped after its TTL.
type CheckoutSession struct {
	ID          string       `db:"id" json:"id"`
	UserID      string       `db:"user_id" json:"userId"`
	Submission  string       `db:"submission" json:"submission"`
	Authority   string       `db:"authority" json:"authority"`
	TotalPrice  float64      `db:"total_price" json:"totalPrice"`
	TotalWeight float64      `db:"total_weight" json:"totalWeight"`
	Discount    float64      `db:"discount" json:"discount"`
	ExpiresAt   time.Time    `db:"expires_at" json:"expiresAt"`
	Products    []BasketLine `json:"products"`
}

// Order statuses. CANCELED is reachable from any state before SHIPPED.
const (
	StatusUnpaid      = "UNPAID"
	StatusPendingConf = "PENDING_CONFIRMATION"
	StatusPreparing   = "PREPARING"
	StatusShipped     = "SHIPPED"
	StatusDelivered   = "DELIVERED"
	StatusCanceled    = "CANCELED"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusUnpaid, StatusPendingConf, StatusPreparing, StatusShipped, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

// OrderLine freezes price and discount at commit time.
type OrderLine struct {
	ProductID string  `db:"product_id" json:"productId"`
	Price     float64 `db:"price" json:"price"`
	Discount  float64 `db:"discount" json:"discount"`
	Count     int     `db:"count" json:"count"`
}

// Paid returns the discounted amount this line contributed to the order.
func (l OrderLine) Paid() float64 {
	return (l.Price - l.Price*l.Discount/100) * float64(l.Count)
}

type Order struct {
	ID           string      `db:"id" json:"id"`
	UserID       string      `db:"user_id" json:"userId"`
	Submission   string      `db:"submission" json:"submission"`
	TotalPrice   float64     `db:"total_price" json:"totalPrice"`
	TotalWeight  float64     `db:"total_weight" json:"totalWeight"`
	ShippingCost float64     `db:"shipping_cost" json:"shippingCost"`
	Discount     float64     `db:"discount" json:"discount"`
	Status       string      `db:"status" json:"status"`
	PaymentRef   string      `db:"payment_ref" json:"paymentRef"`
	Authority    string      `db:"authority" json:"authority"`
	PostVerify   string      `db:"post_verify" json:"postVerify"`
	CreatedAt    string      `db:"created_at" json:"createdAt"`
	Lines        []OrderLine `json:"lines"`
}
