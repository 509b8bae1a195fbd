package repos

import (
	"time"

	"github.com/jmoiron/sqlx"

	"neynegar/internal/domain"
)

// CheckoutRepo persists transient checkout sessions. Expiry is handled
// here in the storage layer: expired rows are purged opportunistically and
// never satisfy a read, so callers can't observe a dead session.
type CheckoutRepo struct{ db *sqlx.DB }

func NewCheckoutRepo(db *sqlx.DB) *CheckoutRepo { return &CheckoutRepo{db: db} }

func (r *CheckoutRepo) reap() {
	_, _ = r.db.Exec(`DELETE FROM checkouts WHERE expires_at <= ?`, time.Now().Unix())
}

type checkoutRow struct {
	ID          string  `db:"id"`
	UserID      string  `db:"user_id"`
	Submission  string  `db:"submission"`
	Authority   string  `db:"authority"`
	TotalPrice  float64 `db:"total_price"`
	TotalWeight float64 `db:"total_weight"`
	Discount    float64 `db:"discount"`
	ExpiresAt   int64   `db:"expires_at"`
}

func (row checkoutRow) session() domain.CheckoutSession {
	return domain.CheckoutSession{
		ID:          row.ID,
		UserID:      row.UserID,
		Submission:  row.Submission,
		Authority:   row.Authority,
		TotalPrice:  row.TotalPrice,
		TotalWeight: row.TotalWeight,
		Discount:    row.Discount,
		ExpiresAt:   time.Unix(row.ExpiresAt, 0),
	}
}

func (r *CheckoutRepo) Create(cs domain.CheckoutSession) error {
	r.reap()

	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO checkouts(id,user_id,submission,authority,total_price,total_weight,discount,expires_at)
	  VALUES(?,?,?,?,?,?,?,?)
	`, cs.ID, cs.UserID, cs.Submission, cs.Authority, cs.TotalPrice, cs.TotalWeight,
		cs.Discount, cs.ExpiresAt.Unix()); err != nil {
		return err
	}
	for _, l := range cs.Products {
		if _, err := tx.Exec(`
		  INSERT INTO checkout_items(checkout_id,product_id,count) VALUES(?,?,?)
		`, cs.ID, l.ProductID, l.Count); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get returns a live session; expired or deleted sessions are not found.
func (r *CheckoutRepo) Get(id string) (domain.CheckoutSession, error) {
	r.reap()

	var row checkoutRow
	if err := r.db.Get(&row, `
	  SELECT id,user_id,submission,authority,total_price,total_weight,discount,expires_at
	  FROM checkouts WHERE id = ? AND expires_at > ?
	`, id, time.Now().Unix()); err != nil {
		return domain.CheckoutSession{}, err
	}

	cs := row.session()
	if err := r.db.Select(&cs.Products, `
	  SELECT product_id, count FROM checkout_items WHERE checkout_id = ?
	`, id); err != nil {
		return domain.CheckoutSession{}, err
	}
	return cs, nil
}

func (r *CheckoutRepo) ListByUser(userID string) ([]domain.CheckoutSession, error) {
	r.reap()

	var rows []checkoutRow
	if err := r.db.Select(&rows, `
	  SELECT id,user_id,submission,authority,total_price,total_weight,discount,expires_at
	  FROM checkouts WHERE user_id = ? AND expires_at > ?
	  ORDER BY created_at DESC
	`, userID, time.Now().Unix()); err != nil {
		return nil, err
	}

	out := make([]domain.CheckoutSession, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.session())
	}
	return out, nil
}

func (r *CheckoutRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM checkouts WHERE id = ?`, id)
	return err
}
