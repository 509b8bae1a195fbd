package repos

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps :memory: databases coherent and serializes
	// writes, which sqlite wants anyway.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Seed baseline data if DB is empty (idempotent; safe to run every start)
	if err := seedIfEmpty(db); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Products. count is raw stock, show_count the publicly displayed stock.
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  weight NUMERIC NOT NULL DEFAULT 0 CHECK (weight >= 0),
  count INTEGER NOT NULL DEFAULT 0 CHECK (count >= 0),
  show_count INTEGER NOT NULL DEFAULT 0 CHECK (show_count >= 0),
  total_sell NUMERIC NOT NULL DEFAULT 0 CHECK (total_sell >= 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

-- Append-only histories; the last-inserted row is the current value.
CREATE TABLE IF NOT EXISTS price_points(
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  price NUMERIC NOT NULL CHECK (price >= 0),
  recorded_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_price_points_product ON price_points(product_id);

CREATE TABLE IF NOT EXISTS cost_points(
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  cost NUMERIC NOT NULL CHECK (cost >= 0),
  count INTEGER NOT NULL CHECK (count >= 0),
  recorded_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_cost_points_product ON cost_points(product_id);

CREATE TABLE IF NOT EXISTS discount_points(
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  pct NUMERIC NOT NULL CHECK (pct >= 0 AND pct <= 100),
  expires_at INTEGER NOT NULL,
  recorded_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_discount_points_product ON discount_points(product_id);

-- Users & Sessions
CREATE TABLE IF NOT EXISTS users(
  id TEXT PRIMARY KEY,
  phone TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('USER','ADMIN','OWNER')),
  address TEXT NOT NULL DEFAULT '',
  post_code TEXT NOT NULL DEFAULT '',
  total_buy NUMERIC NOT NULL DEFAULT 0,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id TEXT NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Live basket and favorites, owned per-user
CREATE TABLE IF NOT EXISTS basket_items(
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  count INTEGER NOT NULL CHECK (count >= 1),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT,
  PRIMARY KEY (user_id, product_id)
);

CREATE TABLE IF NOT EXISTS favorite_items(
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (user_id, product_id)
);

-- Checkout sessions: transient, reaped once expires_at passes
CREATE TABLE IF NOT EXISTS checkouts(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  submission TEXT NOT NULL,
  authority TEXT NOT NULL UNIQUE,
  total_price NUMERIC NOT NULL CHECK (total_price >= 0),
  total_weight NUMERIC NOT NULL CHECK (total_weight >= 0),
  discount NUMERIC NOT NULL DEFAULT 0 CHECK (discount >= 0),
  expires_at INTEGER NOT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_checkouts_user ON checkouts(user_id);
CREATE INDEX IF NOT EXISTS idx_checkouts_expires ON checkouts(expires_at);

CREATE TABLE IF NOT EXISTS checkout_items(
  checkout_id TEXT NOT NULL REFERENCES checkouts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  count INTEGER NOT NULL CHECK (count >= 1),
  PRIMARY KEY (checkout_id, product_id)
);

-- Orders: durable, per-line price/discount frozen at commit time
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  submission TEXT NOT NULL,
  total_price NUMERIC NOT NULL CHECK (total_price >= 0),
  total_weight NUMERIC NOT NULL DEFAULT 0 CHECK (total_weight >= 0),
  shipping_cost NUMERIC NOT NULL DEFAULT 0 CHECK (shipping_cost >= 0),
  discount NUMERIC NOT NULL DEFAULT 0 CHECK (discount >= 0),
  status TEXT NOT NULL DEFAULT 'UNPAID'
    CHECK (status IN ('UNPAID','PENDING_CONFIRMATION','PREPARING','SHIPPED','DELIVERED','CANCELED')),
  payment_ref TEXT NOT NULL DEFAULT '',
  authority TEXT NOT NULL,
  post_verify TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);

CREATE TABLE IF NOT EXISTS order_items(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  price NUMERIC NOT NULL CHECK (price >= 0),
  discount NUMERIC NOT NULL CHECK (discount >= 0 AND discount <= 100),
  count INTEGER NOT NULL CHECK (count >= 1),
  PRIMARY KEY (order_id, product_id)
);

-- Shipping rules, keyed by submission method
CREATE TABLE IF NOT EXISTS shipping_rules(
  method TEXT PRIMARY KEY,
  flat_cost NUMERIC NOT NULL CHECK (flat_cost >= 0),
  cost_per_kg NUMERIC NOT NULL DEFAULT 0 CHECK (cost_per_kg >= 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT
);
`
	_, err := db.Exec(schema)
	return err
}

func seedIfEmpty(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM products`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo products/prices/shipping rules")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO products(id,title,weight,count,show_count,total_sell) VALUES
	  ('bk-shahnameh','Shahnameh (used, good)',900,12,10,0),
	  ('bk-masnavi','Masnavi vol. 1 (like new)',650,6,6,0),
	  ('bk-bustan','Bustan of Saadi',400,3,3,0)`)

	tx.MustExec(`INSERT INTO price_points(product_id,price) VALUES
	  ('bk-shahnameh',420000),
	  ('bk-masnavi',280000),
	  ('bk-bustan',150000)`)

	exp := time.Now().Add(14 * 24 * time.Hour).Unix()
	tx.MustExec(`INSERT INTO discount_points(product_id,pct,expires_at) VALUES
	  ('bk-masnavi',15,?)`, exp)

	tx.MustExec(`INSERT INTO shipping_rules(method,flat_cost,cost_per_kg) VALUES
	  ('post',60000,15000),
	  ('courier',45000,0)`)

	return tx.Commit()
}

// seedUsers ensures one USER and one OWNER exist (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		ID, Phone, Name, Role, Hash string
	}
	mk := func(id, phone, name, role, raw string) u {
		h, _ := bcrypt.GenerateFromPassword([]byte(raw), 12)
		return u{ID: id, Phone: phone, Name: name, Role: role, Hash: string(h)}
	}

	users := []u{
		mk("u-demo", "09120000001", "Demo", "USER", "Passw0rd!"),
		mk("u-owner", "09120000009", "Owner", "OWNER", "Passw0rd!"),
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		if _, err := tx.Exec(`
			INSERT INTO users(id,phone,name,password_hash,role)
			VALUES(?,?,?,?,?)
			ON CONFLICT(phone) DO NOTHING
		`, x.ID, x.Phone, x.Name, x.Hash, x.Role); err != nil {
			return err
		}
	}

	return tx.Commit()
}
