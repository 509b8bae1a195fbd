package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"neynegar/internal/domain"
	"neynegar/internal/pricing"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
	  SELECT id, title, weight, count, show_count, total_sell, created_at
	  FROM products WHERE id = ?
	`, id)
	return p, err
}

// Snapshot loads the catalog state the pricing engine needs for the given
// product ids. Ids with no product row are simply absent from the result.
func (r *ProductRepo) Snapshot(ids []string) (pricing.Catalog, error) {
	cat := pricing.Catalog{}
	if len(ids) == 0 {
		return cat, nil
	}

	query, args, err := sqlx.In(`
	  SELECT id, title, weight, count, show_count, total_sell, created_at
	  FROM products WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, err
	}
	var products []domain.Product
	if err := r.db.Select(&products, query, args...); err != nil {
		return nil, err
	}

	for _, p := range products {
		snap := domain.ProductSnapshot{
			ID:        p.ID,
			Title:     p.Title,
			Weight:    p.Weight,
			ShowCount: p.ShowCount,
		}

		var prices []domain.PricePoint
		if err := r.db.Select(&prices, `
		  SELECT price FROM price_points
		  WHERE product_id = ? ORDER BY seq
		`, p.ID); err != nil {
			return nil, err
		}
		snap.Prices = prices

		type discountRow struct {
			Pct       float64 `db:"pct"`
			ExpiresAt int64   `db:"expires_at"`
		}
		var discounts []discountRow
		if err := r.db.Select(&discounts, `
		  SELECT pct, expires_at FROM discount_points
		  WHERE product_id = ? ORDER BY seq
		`, p.ID); err != nil {
			return nil, err
		}
		for _, d := range discounts {
			snap.Discounts = append(snap.Discounts, domain.DiscountPoint{
				Pct:       d.Pct,
				ExpiresAt: time.Unix(d.ExpiresAt, 0),
			})
		}

		cat[p.ID] = snap
	}
	return cat, nil
}

// AppendPrice records a new current price for the product.
func (r *ProductRepo) AppendPrice(productID string, price float64) error {
	_, err := r.db.Exec(`INSERT INTO price_points(product_id,price) VALUES(?,?)`, productID, price)
	return err
}

// AppendDiscount records a new discount active until expiresAt.
func (r *ProductRepo) AppendDiscount(productID string, pct float64, expiresAt time.Time) error {
	_, err := r.db.Exec(`INSERT INTO discount_points(product_id,pct,expires_at) VALUES(?,?,?)`,
		productID, pct, expiresAt.Unix())
	return err
}

// AppendCost records an acquisition cost and restocks both counters.
func (r *ProductRepo) AppendCost(productID string, cost float64, count int) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO cost_points(product_id,cost,count) VALUES(?,?,?)`,
		productID, cost, count); err != nil {
		return err
	}
	if _, err := tx.Exec(`
	  UPDATE products SET count = count + ?, show_count = show_count + ? WHERE id = ?
	`, count, count, productID); err != nil {
		return err
	}
	return tx.Commit()
}

// ApplyPaidSale applies the verified-payment inventory effects for one
// order line: both stock counters drop by the ordered quantity (floored at
// zero) and total_sell grows by the discounted revenue of the line.
func (r *ProductRepo) ApplyPaidSale(productID string, count int, revenue float64) error {
	_, err := r.db.Exec(`
	  UPDATE products SET
	    count = MAX(count - ?, 0),
	    show_count = MAX(show_count - ?, 0),
	    total_sell = total_sell + ?
	  WHERE id = ?
	`, count, count, revenue, productID)
	return err
}

// ApplyDirectSale applies the administrative-create effects: only the
// displayed stock drops, and total_sell grows by raw unit count rather
// than revenue.
func (r *ProductRepo) ApplyDirectSale(productID string, count int) error {
	_, err := r.db.Exec(`
	  UPDATE products SET
	    show_count = MAX(show_count - ?, 0),
	    total_sell = total_sell + ?
	  WHERE id = ?
	`, count, count, productID)
	return err
}
