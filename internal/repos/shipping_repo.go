package repos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"neynegar/internal/domain"
)

type ShippingRepo struct{ db *sqlx.DB }

func NewShippingRepo(db *sqlx.DB) *ShippingRepo { return &ShippingRepo{db: db} }

// ByMethod returns the rule for a submission method, or nil when none is
// configured; callers fall back to the formula in that case.
func (r *ShippingRepo) ByMethod(method string) (*domain.ShippingRule, error) {
	var rule domain.ShippingRule
	err := r.db.Get(&rule, `
	  SELECT method, flat_cost, cost_per_kg FROM shipping_rules WHERE method = ?
	`, method)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ShippingRepo) ListAll() ([]domain.ShippingRule, error) {
	rules := []domain.ShippingRule{}
	err := r.db.Select(&rules, `SELECT method, flat_cost, cost_per_kg FROM shipping_rules ORDER BY method`)
	return rules, err
}

func (r *ShippingRepo) Upsert(rule domain.ShippingRule) error {
	_, err := r.db.Exec(`
	  INSERT INTO shipping_rules(method, flat_cost, cost_per_kg)
	  VALUES(?,?,?)
	  ON CONFLICT(method) DO UPDATE
	  SET flat_cost = excluded.flat_cost, cost_per_kg = excluded.cost_per_kg, updated_at = CURRENT_TIMESTAMP
	`, rule.Method, rule.FlatCost, rule.CostPerKg)
	return err
}

func (r *ShippingRepo) Delete(method string) error {
	_, err := r.db.Exec(`DELETE FROM shipping_rules WHERE method = ?`, method)
	return err
}
