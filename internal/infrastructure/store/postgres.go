// Package store persists supplies, vendors, orders and meal productions.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bekal-bangsa/internal/infrastructure/config"
	"bekal-bangsa/internal/pkg/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Connect opens a pgx pool and optionally creates the schema.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	common.LogInfo("connected to PostgreSQL",
		zap.Int32("max_conns", poolCfg.MaxConns),
	)

	if cfg.InitSchema {
		if err := initSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
	}

	return pool, nil
}

// initSchema creates the tables when missing.
func initSchema(ctx context.Context, db *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			full_name VARCHAR(255) NOT NULL,
			phone_number VARCHAR(50),
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS supplies (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
			owner_name VARCHAR(255),
			item_name VARCHAR(255) NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			unit VARCHAR(50),
			freshness VARCHAR(100),
			note TEXT,
			expiry_days INTEGER NOT NULL DEFAULT 0,
			expiry_date DATE,
			photo_url TEXT,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_supplies_expiry_days ON supplies (expiry_days)`,
		`CREATE INDEX IF NOT EXISTS idx_supplies_user_id ON supplies (user_id)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			supply_id BIGINT REFERENCES supplies(id) ON DELETE SET NULL,
			seller_id BIGINT,
			buyer_id BIGINT,
			qty_ordered INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(50) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS meal_productions (
			id BIGSERIAL PRIMARY KEY,
			menu_name VARCHAR(255) NOT NULL,
			qty_produced INTEGER NOT NULL,
			expiry_datetime TIMESTAMPTZ NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'fresh',
			storage_tips TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	common.LogInfo("schema initialized")
	return nil
}

// Postgres implements the repositories on a pgx pool.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres wraps a pool.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// Ping checks the connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

// Close closes the pool.
func (p *Postgres) Close() {
	p.db.Close()
}

const supplyColumns = `
	id,
	user_id,
	COALESCE(owner_name, ''),
	item_name,
	quantity,
	COALESCE(unit, ''),
	COALESCE(freshness, ''),
	COALESCE(note, ''),
	expiry_days,
	COALESCE(to_char(expiry_date, 'YYYY-MM-DD'), ''),
	COALESCE(photo_url, ''),
	latitude,
	longitude,
	created_at
`

func scanSupply(row pgx.Row) (common.StockItem, error) {
	var (
		it      common.StockItem
		ownerID *int64
	)
	err := row.Scan(
		&it.ID,
		&ownerID,
		&it.OwnerName,
		&it.ItemName,
		&it.Quantity,
		&it.Unit,
		&it.Freshness,
		&it.Note,
		&it.ExpiryDays,
		&it.ExpiryDate,
		&it.PhotoURL,
		&it.Latitude,
		&it.Longitude,
		&it.CreatedAt,
	)
	if ownerID != nil {
		it.OwnerID = *ownerID
	}
	return it, err
}

func (p *Postgres) querySupplies(ctx context.Context, query string, args ...any) ([]common.StockItem, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []common.StockItem
	for rows.Next() {
		it, err := scanSupply(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// FindExpiring returns supplies with expiry_days <= maxDays.
func (p *Postgres) FindExpiring(ctx context.Context, maxDays int) ([]common.StockItem, error) {
	return p.querySupplies(ctx, `
		SELECT `+supplyColumns+`
		FROM supplies
		WHERE expiry_days <= $1
		ORDER BY id
	`, maxDays)
}

// ListSupplies returns ownerID's supplies, or all supplies when ownerID is 0.
func (p *Postgres) ListSupplies(ctx context.Context, ownerID int64) ([]common.StockItem, error) {
	if ownerID == 0 {
		return p.querySupplies(ctx, `SELECT `+supplyColumns+` FROM supplies ORDER BY created_at DESC, id DESC`)
	}
	return p.querySupplies(ctx, `
		SELECT `+supplyColumns+`
		FROM supplies
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
}

// SearchSupplies returns supplies whose name contains keyword, case-insensitively.
func (p *Postgres) SearchSupplies(ctx context.Context, keyword string) ([]common.StockItem, error) {
	return p.querySupplies(ctx, `
		SELECT `+supplyColumns+`
		FROM supplies
		WHERE item_name ILIKE '%' || $1 || '%'
		ORDER BY id
	`, keyword)
}

// InsertSupplies inserts items in one transaction and returns them with ids set.
func (p *Postgres) InsertSupplies(ctx context.Context, items []common.StockItem) ([]common.StockItem, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	out := make([]common.StockItem, len(items))
	for i, it := range items {
		var ownerID *int64
		if it.OwnerID != 0 {
			ownerID = &it.OwnerID
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO supplies (
				user_id, owner_name, item_name, quantity, unit, freshness, note,
				expiry_days, expiry_date, photo_url, latitude, longitude
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, '')::date, $10, $11, $12)
			RETURNING id, created_at
		`,
			ownerID,
			it.OwnerName,
			it.ItemName,
			it.Quantity,
			it.Unit,
			it.Freshness,
			it.Note,
			it.ExpiryDays,
			it.ExpiryDate,
			it.PhotoURL,
			it.Latitude,
			it.Longitude,
		).Scan(&it.ID, &it.CreatedAt)
		if err != nil {
			return nil, err
		}
		out[i] = it
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteSupplies removes the given rows.
func (p *Postgres) DeleteSupplies(ctx context.Context, ids []int64) error {
	_, err := p.db.Exec(ctx, `DELETE FROM supplies WHERE id = ANY($1)`, ids)
	return err
}

// FindOwner returns the vendor, or nil when it does not exist.
func (p *Postgres) FindOwner(ctx context.Context, id int64) (*common.Owner, error) {
	var o common.Owner
	err := p.db.QueryRow(ctx, `
		SELECT id, full_name, COALESCE(phone_number, ''), latitude, longitude
		FROM users
		WHERE id = $1
	`, id).Scan(&o.ID, &o.FullName, &o.PhoneNumber, &o.Latitude, &o.Longitude)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOwner inserts a vendor and sets its id.
func (p *Postgres) CreateOwner(ctx context.Context, o *common.Owner) error {
	return p.db.QueryRow(ctx, `
		INSERT INTO users (full_name, phone_number, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, o.FullName, o.PhoneNumber, o.Latitude, o.Longitude).Scan(&o.ID)
}

// ListOrdersBySeller returns the seller's orders with the ordered item's name.
func (p *Postgres) ListOrdersBySeller(ctx context.Context, sellerID int64) ([]common.Order, error) {
	rows, err := p.db.Query(ctx, `
		SELECT
			o.id,
			COALESCE(o.supply_id, 0),
			COALESCE(o.seller_id, 0),
			COALESCE(o.buyer_id, 0),
			o.qty_ordered,
			o.status,
			COALESCE(s.item_name, '')
		FROM orders o
		LEFT JOIN supplies s ON s.id = o.supply_id
		WHERE o.seller_id = $1
		ORDER BY o.id
	`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []common.Order
	for rows.Next() {
		var o common.Order
		if err := rows.Scan(&o.ID, &o.SupplyID, &o.SellerID, &o.BuyerID, &o.QtyOrdered, &o.Status, &o.ItemName); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// InsertMeal logs a production batch and sets its id.
func (p *Postgres) InsertMeal(ctx context.Context, meal *common.MealProduction) error {
	if meal.CreatedAt.IsZero() {
		meal.CreatedAt = time.Now()
	}
	return p.db.QueryRow(ctx, `
		INSERT INTO meal_productions (menu_name, qty_produced, expiry_datetime, status, storage_tips, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, meal.MenuName, meal.QtyProduced, meal.ExpiryDatetime, meal.Status, meal.StorageTips, meal.CreatedAt).Scan(&meal.ID)
}

// UpdateMealStatus sets a batch's status. It returns common.ErrNotFound for unknown ids.
func (p *Postgres) UpdateMealStatus(ctx context.Context, id int64, status string) (*common.MealProduction, error) {
	var m common.MealProduction
	err := p.db.QueryRow(ctx, `
		UPDATE meal_productions
		SET status = $2
		WHERE id = $1
		RETURNING id, menu_name, qty_produced, expiry_datetime, status, COALESCE(storage_tips, ''), created_at
	`, id, status).Scan(&m.ID, &m.MenuName, &m.QtyProduced, &m.ExpiryDatetime, &m.Status, &m.StorageTips, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.Wrap(common.ErrNotFound, fmt.Errorf("meal %d", id))
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
