package repos

import (
	"github.com/jmoiron/sqlx"

	"neynegar/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `id, user_id, submission, total_price, total_weight, shipping_cost,
	  discount, status, payment_ref, authority, post_verify, created_at`

// Create inserts the order header and its frozen line items in one tx.
func (r *OrderRepo) Create(o domain.Order) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO orders
	    (id, user_id, submission, total_price, total_weight, shipping_cost, discount, status, payment_ref, authority, post_verify)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?)
	`, o.ID, o.UserID, o.Submission, o.TotalPrice, o.TotalWeight, o.ShippingCost,
		o.Discount, o.Status, o.PaymentRef, o.Authority, o.PostVerify); err != nil {
		return err
	}

	for _, l := range o.Lines {
		if _, err := tx.Exec(`
		  INSERT INTO order_items(order_id, product_id, price, discount, count)
		  VALUES(?,?,?,?,?)
		`, o.ID, l.ProductID, l.Price, l.Discount, l.Count); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *OrderRepo) Get(id string) (domain.Order, error) {
	var o domain.Order
	if err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id); err != nil {
		return domain.Order{}, err
	}
	if err := r.db.Select(&o.Lines, `
	  SELECT product_id, price, discount, count
	  FROM order_items WHERE order_id = ?
	`, id); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

// TransitionStatus moves the order from one status to another only if it
// still holds the expected status. Reports whether this caller won the
// transition; concurrent verifiers of the same order lose and back off.
func (r *OrderRepo) TransitionStatus(id, from, to string) (bool, error) {
	res, err := r.db.Exec(`UPDATE orders SET status=? WHERE id=? AND status=?`, to, id, from)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *OrderRepo) UpdateStatus(id, status string) error {
	_, err := r.db.Exec(`UPDATE orders SET status=? WHERE id=?`, status, id)
	return err
}

func (r *OrderRepo) SetPaymentRef(id, ref string) error {
	_, err := r.db.Exec(`UPDATE orders SET payment_ref=? WHERE id=?`, ref, id)
	return err
}

func (r *OrderRepo) SetPostVerify(id, postVerify string) error {
	_, err := r.db.Exec(`UPDATE orders SET post_verify=? WHERE id=?`, postVerify, id)
	return err
}

// ---------- Listings (admin/user views) ----------

type OrderSummary struct {
	ID         string  `db:"id" json:"id"`
	UserID     string  `db:"user_id" json:"userId"`
	Submission string  `db:"submission" json:"submission"`
	TotalPrice float64 `db:"total_price" json:"totalPrice"`
	Status     string  `db:"status" json:"status"`
	CreatedAt  string  `db:"created_at" json:"createdAt"`
}

func (r *OrderRepo) ListLatest(limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT id, user_id, submission, total_price, status, created_at
		FROM orders
		ORDER BY datetime(created_at) DESC
		LIMIT ?
	`, limit)
	return out, err
}

func (r *OrderRepo) ListByUser(userID string) ([]OrderSummary, error) {
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT id, user_id, submission, total_price, status, created_at
		FROM orders
		WHERE user_id = ?
		ORDER BY datetime(created_at) DESC
	`, userID)
	return out, err
}

func (r *OrderRepo) ListByStatus(statuses []string) ([]OrderSummary, error) {
	query, args, err := sqlx.In(`
		SELECT id, user_id, submission, total_price, status, created_at
		FROM orders
		WHERE status IN (?)
		ORDER BY datetime(created_at) DESC
	`, statuses)
	if err != nil {
		return nil, err
	}
	var out []OrderSummary
	err = r.db.Select(&out, query, args...)
	return out, err
}
