// Package channel defines the narrow contract the order engine has on
// the remote multi-writer store: one collection per owner, and a push of
// the entire current collection on any change. The engine never merges
// increments; each snapshot fully replaces what came before.
package channel

import (
	"context"
	"errors"
	"time"

	"github.com/comanda-live/api/internal/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrOrderNotFound is returned by Patch and Delete when the order id no
// longer exists, e.g. after a concurrent delete.
var ErrOrderNotFound = errors.New("order not found")

// Snapshot is a full point-in-time copy of one owner's order collection,
// keyed by order id. A non-nil Err marks a subscription failure; the
// Orders map is nil in that case and the previous local state should be
// kept, not cleared.
type Snapshot struct {
	Orders map[string]order.Order
	Err    error
}

// Patch is a partial order update. Nil fields are left untouched.
// UpdatedAt is always written.
type Patch struct {
	TableNumber *string
	Items       *[]order.LineItem
	TotalPrice  *decimal.Decimal
	Status      *string
	UpdatedAt   time.Time
}

// Channel is the subscription-based store the engine consumes. Snapshots
// for one subscription are delivered in the order the channel emits
// them; implementations may coalesce intermediate states but must always
// deliver the latest state last.
type Channel interface {
	// Subscribe streams the owner's collection: the current state first,
	// then one snapshot per observed change. The stream closes when ctx
	// is canceled.
	Subscribe(ctx context.Context, ownerID uuid.UUID) (<-chan Snapshot, error)

	// Create persists a new order and returns the id the store assigned.
	Create(ctx context.Context, ownerID uuid.UUID, o order.Order) (string, error)

	// Patch applies a partial update to one order.
	Patch(ctx context.Context, ownerID uuid.UUID, orderID string, p Patch) error

	// Delete removes one order.
	Delete(ctx context.Context, ownerID uuid.UUID, orderID string) error
}
