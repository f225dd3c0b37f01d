package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrMenuItemNotFound is returned for updates/deletes against an id that
// does not exist.
var ErrMenuItemNotFound = errors.New("menu item not found")

// PGStore persists the menu in Postgres. The menu-admin handlers write
// through it and reload the in-memory Catalog after every change.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Load reads the whole menu. Returns the default menu when the table is
// empty so a fresh database still serves orders.
func (s *PGStore) Load(ctx context.Context) ([]MenuItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, price, category FROM menu_items ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		var mi MenuItem
		var price pgtype.Numeric
		if err := rows.Scan(&mi.ID, &mi.Name, &price, &mi.Category); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		mi.Price = numericToDecimal(price)
		items = append(items, mi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load menu: %w", err)
	}
	if len(items) == 0 {
		return DefaultMenu(), nil
	}
	return items, nil
}

// Create inserts a new menu item.
func (s *PGStore) Create(ctx context.Context, mi MenuItem) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO menu_items (id, name, price, category) VALUES ($1, $2, $3, $4)`,
		mi.ID, mi.Name, decimalToNumeric(mi.Price), mi.Category)
	if err != nil {
		return fmt.Errorf("create menu item: %w", err)
	}
	return nil
}

// Update overwrites name, price, and category of an existing item.
func (s *PGStore) Update(ctx context.Context, mi MenuItem) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE menu_items SET name = $2, price = $3, category = $4 WHERE id = $1`,
		mi.ID, mi.Name, decimalToNumeric(mi.Price), mi.Category)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

// Delete removes a menu item. Orders that reference it keep their
// snapshotted name and price.
func (s *PGStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMenuItemNotFound
	}
	return nil
}

// Get fetches a single item by id.
func (s *PGStore) Get(ctx context.Context, id string) (MenuItem, error) {
	var mi MenuItem
	var price pgtype.Numeric
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, price, category FROM menu_items WHERE id = $1`, id).
		Scan(&mi.ID, &mi.Name, &price, &mi.Category)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MenuItem{}, ErrMenuItemNotFound
		}
		return MenuItem{}, fmt.Errorf("get menu item: %w", err)
	}
	mi.Price = numericToDecimal(price)
	return mi, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
