// Package pricing turns a basket and a catalog snapshot into priced,
// weighted line items. It is a pure function of its inputs: no store
// access, no clock access beyond the caller-supplied evaluation time.
package pricing

import (
	"time"

	"neynegar/internal/domain"
)

// Catalog maps product id to the snapshot the engine prices against.
// A basket line whose product is missing from the catalog prices to zero.
type Catalog map[string]domain.ProductSnapshot

// EnrichedLine is a derived, never-persisted view of one basket line.
type EnrichedLine struct {
	ProductID          string  `json:"productId"`
	Title              string  `json:"title,omitempty"`
	Count              int     `json:"count"`
	CurrentPrice       float64 `json:"currentPrice"`
	CurrentDiscountPct float64 `json:"currentDiscountPct"`
	ItemTotal          float64 `json:"itemTotal"`
	ItemDiscountAmount float64 `json:"itemDiscountAmount"`
	ItemWeight         float64 `json:"itemWeight"`
	ShowCount          int     `json:"showCount"`
}

type Totals struct {
	Subtotal      float64 `json:"subtotal"`
	TotalDiscount float64 `json:"totalDiscount"`
	Total         float64 `json:"total"`
	TotalWeight   float64 `json:"totalWeight"`
}

// Price evaluates every basket line against the catalog at time now.
//
// The current price is the last-inserted price point (0 if none); a
// discount applies only while its expiry is strictly after now. A line
// whose product no longer exists yields a zeroed line rather than an
// error, contributing nothing to the totals.
func Price(basket []domain.BasketLine, cat Catalog, now time.Time) ([]EnrichedLine, Totals) {
	lines := make([]EnrichedLine, 0, len(basket))
	var t Totals

	for _, bl := range basket {
		line := EnrichedLine{ProductID: bl.ProductID, Count: bl.Count}

		if p, ok := cat[bl.ProductID]; ok {
			price := p.Prices.Current()
			pct := p.Discounts.ActiveAt(now)
			n := float64(bl.Count)

			line.Title = p.Title
			line.ShowCount = p.ShowCount
			line.CurrentPrice = price
			line.CurrentDiscountPct = pct
			line.ItemDiscountAmount = price * pct / 100 * n
			line.ItemTotal = (price - price*pct/100) * n
			line.ItemWeight = p.Weight * n

			t.Subtotal += price * n
			t.TotalDiscount += line.ItemDiscountAmount
			t.Total += line.ItemTotal
			t.TotalWeight += line.ItemWeight
		}

		lines = append(lines, line)
	}

	return lines, t
}
