package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/comanda-live/api/internal/order"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Postgres backs the channel with one orders table scoped by app and
// owner. Every committed mutation fires NOTIFY on an app-scoped channel
// with the owner id as payload; each subscription holds a dedicated
// LISTEN connection and re-reads the owner's whole collection per
// notification. The path convention {appID}/users/{ownerID}/orders maps
// to (notify channel, owner_id column, id column).
type Postgres struct {
	pool  *pgxpool.Pool
	appID string
}

func NewPostgres(pool *pgxpool.Pool, appID string) *Postgres {
	return &Postgres{pool: pool, appID: appID}
}

func (p *Postgres) notifyChannel() string {
	return p.appID + "_orders"
}

// Subscribe opens a LISTEN connection and streams full snapshots.
func (p *Postgres) Subscribe(ctx context.Context, ownerID uuid.UUID) (<-chan Snapshot, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{p.notifyChannel()}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen: %w", err)
	}

	ch := make(chan Snapshot, subBuffer)

	go func() {
		defer conn.Release()
		defer close(ch)

		// Initial snapshot: the current state.
		snap, err := p.read(ctx, ownerID)
		if err != nil {
			sendCoalesced(ch, Snapshot{Err: err})
			return
		}
		sendCoalesced(ch, Snapshot{Orders: snap})

		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				sendCoalesced(ch, Snapshot{Err: fmt.Errorf("subscription lost: %w", err)})
				return
			}
			if n.Payload != ownerID.String() {
				continue
			}
			snap, err := p.read(ctx, ownerID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				sendCoalesced(ch, Snapshot{Err: err})
				return
			}
			sendCoalesced(ch, Snapshot{Orders: snap})
		}
	}()

	return ch, nil
}

// Create inserts the order and notifies in one transaction.
func (p *Postgres) Create(ctx context.Context, ownerID uuid.UUID, o order.Order) (string, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return "", fmt.Errorf("encode order items: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var id uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (app_id, owner_id, table_number, items, total_price, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		 RETURNING id`,
		p.appID, ownerID, o.TableNumber, items, decimalToNumeric(o.TotalPrice), o.Status).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}
	if err := p.notify(ctx, tx, ownerID); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}
	return id.String(), nil
}

// Patch updates the given fields and notifies in one transaction.
func (p *Postgres) Patch(ctx context.Context, ownerID uuid.UUID, orderID string, patch Patch) error {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return ErrOrderNotFound
	}

	set := "updated_at = $3"
	args := []any{id, ownerID, patch.UpdatedAt}
	if patch.UpdatedAt.IsZero() {
		args[2] = time.Now()
	}
	if patch.TableNumber != nil {
		args = append(args, *patch.TableNumber)
		set += fmt.Sprintf(", table_number = $%d", len(args))
	}
	if patch.Items != nil {
		items, err := json.Marshal(*patch.Items)
		if err != nil {
			return fmt.Errorf("encode order items: %w", err)
		}
		args = append(args, items)
		set += fmt.Sprintf(", items = $%d", len(args))
	}
	if patch.TotalPrice != nil {
		args = append(args, decimalToNumeric(*patch.TotalPrice))
		set += fmt.Sprintf(", total_price = $%d", len(args))
	}
	if patch.Status != nil {
		args = append(args, *patch.Status)
		set += fmt.Sprintf(", status = $%d", len(args))
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		"UPDATE orders SET "+set+" WHERE id = $1 AND owner_id = $2", args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	if err := p.notify(ctx, tx, ownerID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Delete removes the order and notifies in one transaction.
func (p *Postgres) Delete(ctx context.Context, ownerID uuid.UUID, orderID string) error {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return ErrOrderNotFound
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`DELETE FROM orders WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	if err := p.notify(ctx, tx, ownerID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (p *Postgres) notify(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`,
		p.notifyChannel(), ownerID.String()); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// read loads the owner's whole collection.
func (p *Postgres) read(ctx context.Context, ownerID uuid.UUID) (map[string]order.Order, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, table_number, items, total_price, status, created_at, updated_at
		 FROM orders WHERE app_id = $1 AND owner_id = $2`,
		p.appID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	defer rows.Close()

	out := make(map[string]order.Order)
	for rows.Next() {
		var (
			id    uuid.UUID
			o     order.Order
			items []byte
			total pgtype.Numeric
		)
		if err := rows.Scan(&id, &o.TableNumber, &items, &total, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if err := json.Unmarshal(items, &o.Items); err != nil {
			// A malformed row should not blank the whole shift's view.
			log.Printf("ERROR: order %s has malformed items, skipping: %v", id, err)
			continue
		}
		o.ID = id.String()
		o.OwnerID = ownerID
		o.TotalPrice = numericToDecimal(total)
		out[o.ID] = o
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	return out, nil
}

// sendCoalesced delivers snap without ever blocking the listener loop:
// when the subscriber lags, the oldest buffered snapshot is dropped so
// the latest state is still the last one delivered.
func sendCoalesced(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
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
