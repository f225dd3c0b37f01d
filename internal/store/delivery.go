package store

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// PendingItem is one undelivered line joined across a table's orders,
// tagged with the order it came from so a runner can mark exactly that
// occurrence.
type PendingItem struct {
	OrderID    string          `json:"orderId"`
	MenuItemID string          `json:"menuItemId"`
	ItemName   string          `json:"itemName"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Status     string          `json:"orderStatus"`
}

// Reconciler answers "what still has to reach table N" across every
// open order for that table. It is a pure view over the store; marking
// a delivery goes through the store so the channel round-trip stays the
// single write path.
type Reconciler struct {
	store *Store
}

func NewReconciler(s *Store) *Reconciler {
	return &Reconciler{store: s}
}

// PendingItemsForTable flattens the undelivered lines of every order at
// the given table, preserving the store's order ordering and each
// order's line ordering. Two orders for the same table contribute
// independently: a dish delivered on one never hides the same dish
// still owed on the other.
func (r *Reconciler) PendingItemsForTable(tableNumber string) []PendingItem {
	table := strings.TrimSpace(tableNumber)
	var out []PendingItem
	for _, o := range r.store.Orders() {
		if o.TableNumber != table {
			continue
		}
		for _, it := range o.Items {
			if it.Delivered {
				continue
			}
			out = append(out, PendingItem{
				OrderID:    o.ID,
				MenuItemID: it.MenuItemID,
				ItemName:   it.ItemName,
				Quantity:   it.Quantity,
				UnitPrice:  it.UnitPrice,
				Status:     o.Status,
			})
		}
	}
	return out
}

// Tables lists the table numbers that still have at least one
// undelivered item, in the order the store lists their orders.
func (r *Reconciler) Tables() []string {
	var out []string
	seen := make(map[string]bool)
	for _, o := range r.store.Orders() {
		if seen[o.TableNumber] {
			continue
		}
		for _, it := range o.Items {
			if !it.Delivered {
				seen[o.TableNumber] = true
				out = append(out, o.TableNumber)
				break
			}
		}
	}
	return out
}

// MarkDelivered flags one pending item as delivered on its owning
// order. The pending view updates only via the confirming snapshot, so
// a failed write leaves the item in the working set.
func (r *Reconciler) MarkDelivered(ctx context.Context, orderID, menuItemID string) error {
	return r.store.PatchDeliveryItem(ctx, orderID, menuItemID)
}
