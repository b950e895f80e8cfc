package repos

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenDB connects to the store and makes sure the schema exists.
// All timestamps are stored as unix milliseconds so the same DDL works on both drivers.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "", DriverSQLite:
		driver = DriverSQLite
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// One connection serializes writers and keeps ":memory:" databases shared.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
-- Shops (keyed by owner)
CREATE TABLE IF NOT EXISTS shops(
  owner_user_id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  purchase_message TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'preparing' CHECK (status IN ('preparing','open')),
  contact_pending_order_id TEXT,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);

-- Products
CREATE TABLE IF NOT EXISTS products(
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price BIGINT NOT NULL CHECK (price >= 0),
  inventory INTEGER NOT NULL DEFAULT 0 CHECK (inventory >= 0),
  image_url TEXT NOT NULL DEFAULT '',
  question_enabled BOOLEAN NOT NULL DEFAULT FALSE,
  question_text TEXT NOT NULL DEFAULT '',
  is_archived BOOLEAN NOT NULL DEFAULT FALSE,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_shop ON products(shop_id);

-- Orders
CREATE TABLE IF NOT EXISTS orders(
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL,
  buyer_user_id TEXT NOT NULL,
  buyer_display_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','accepted','canceled')),
  items_version INTEGER NOT NULL DEFAULT 2,
  items_json TEXT NOT NULL,
  total BIGINT NOT NULL,
  question_response TEXT,
  memo TEXT NOT NULL DEFAULT '',
  closed BOOLEAN NOT NULL DEFAULT FALSE,
  contact_pending BOOLEAN NOT NULL DEFAULT FALSE,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL,
  accepted_at BIGINT,
  canceled_at BIGINT
);
CREATE INDEX IF NOT EXISTS idx_orders_shop_created ON orders(shop_id, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_buyer_created ON orders(buyer_user_id, created_at);
`
	_, err := db.Exec(schema)
	return err
}
