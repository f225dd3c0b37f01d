package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one menu item within an order. Name and unit price are
// copied from the catalog at assembly time so historical orders stay
// accurate after menu edits.
type LineItem struct {
	MenuItemID string          `json:"menuItemId"`
	ItemName   string          `json:"itemName"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Delivered  bool            `json:"delivered"`
}

// Order is a committed table order. The id is assigned by the remote
// channel on creation; TotalPrice is always the recomputed sum of its
// line items at the moment of last write.
type Order struct {
	ID          string          `json:"id"`
	TableNumber string          `json:"tableNumber"`
	Items       []LineItem      `json:"orderItems"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Status      string          `json:"status"`
	OwnerID     uuid.UUID       `json:"ownerId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CloneItems returns a copy of the order's line items that is safe to
// mutate without disturbing shared snapshots.
func (o Order) CloneItems() []LineItem {
	items := make([]LineItem, len(o.Items))
	copy(items, o.Items)
	return items
}

// Draft is user-entered order data before validation and assembly.
type Draft struct {
	TableNumber string
	Lines       []DraftLine
}

// DraftLine is one unpriced menu item + quantity pair in a draft.
type DraftLine struct {
	MenuItemID string
	Quantity   int
}
