package repos

import (
	"github.com/jmoiron/sqlx"

	"neynegar/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, phone, name, password_hash, role, address, post_code, total_buy`

func (r *UserRepo) ByPhone(phone string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE phone=?`, phone)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpdateAddress(id, address, postCode string) error {
	_, err := r.DB.Exec(`UPDATE users SET address=?, post_code=? WHERE id=?`, address, postCode, id)
	return err
}

// AddSpend adds amount to the user's lifetime spend ledger.
func (r *UserRepo) AddSpend(id string, amount float64) error {
	_, err := r.DB.Exec(`UPDATE users SET total_buy = total_buy + ? WHERE id=?`, amount, id)
	return err
}

// ---------- Basket ----------
// Every mutation is a single statement, so concurrent edits from multiple
// devices cannot lose each other's updates.

func (r *UserRepo) Basket(userID string) ([]domain.BasketLine, error) {
	lines := []domain.BasketLine{}
	err := r.DB.Select(&lines, `
	  SELECT product_id, count FROM basket_items
	  WHERE user_id=? ORDER BY created_at
	`, userID)
	return lines, err
}

// AddToBasket merges count into an existing line or inserts a new one.
func (r *UserRepo) AddToBasket(userID, productID string, count int) error {
	_, err := r.DB.Exec(`
	  INSERT INTO basket_items(user_id,product_id,count)
	  VALUES(?,?,?)
	  ON CONFLICT(user_id,product_id) DO UPDATE
	  SET count = basket_items.count + excluded.count, updated_at = CURRENT_TIMESTAMP
	`, userID, productID, count)
	return err
}

func (r *UserRepo) RemoveFromBasket(userID, productID string) error {
	_, err := r.DB.Exec(`DELETE FROM basket_items WHERE user_id=? AND product_id=?`, userID, productID)
	return err
}

// SetBasketCount overwrites the line's count (privileged operation).
func (r *UserRepo) SetBasketCount(userID, productID string, count int) error {
	_, err := r.DB.Exec(`
	  UPDATE basket_items SET count=?, updated_at=CURRENT_TIMESTAMP
	  WHERE user_id=? AND product_id=?
	`, count, userID, productID)
	return err
}

// ---------- Favorites ----------

func (r *UserRepo) Favorites(userID string) ([]string, error) {
	ids := []string{}
	err := r.DB.Select(&ids, `
	  SELECT product_id FROM favorite_items WHERE user_id=? ORDER BY created_at
	`, userID)
	return ids, err
}

func (r *UserRepo) AddFavorite(userID, productID string) error {
	_, err := r.DB.Exec(`
	  INSERT INTO favorite_items(user_id,product_id) VALUES(?,?)
	  ON CONFLICT(user_id,product_id) DO NOTHING
	`, userID, productID)
	return err
}

func (r *UserRepo) RemoveFavorite(userID, productID string) error {
	_, err := r.DB.Exec(`DELETE FROM favorite_items WHERE user_id=? AND product_id=?`, userID, productID)
	return err
}

// ---------- Sessions ----------

func (r *UserRepo) BindSession(sid, userID string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
      SELECT u.id,u.phone,u.name,u.password_hash,u.role,u.address,u.post_code,u.total_buy
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
