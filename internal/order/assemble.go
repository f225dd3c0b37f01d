package order

import (
	"github.com/comanda-live/api/internal/catalog"
	"github.com/comanda-live/api/internal/enum"
	"github.com/shopspring/decimal"
)

// UnknownItemName is the sentinel used when a draft references a menu
// item that no longer exists. The order is assembled with a zero price
// instead of failing: the item may have been removed from the menu after
// the draft was started, and losing the whole submission is worse than
// saving a correctable line.
const UnknownItemName = "unknown item"

// Assemble resolves a validated draft against the catalog into a priced
// order. Pure: no I/O, no clock. Status is existingStatus when editing,
// pending when creating. TotalPrice is the exact decimal sum of
// quantity × unit price over all lines.
func Assemble(d Draft, c catalog.Reader, existingStatus string) Order {
	items := make([]LineItem, len(d.Lines))
	total := decimal.Zero
	for i, line := range d.Lines {
		name := UnknownItemName
		price := decimal.Zero
		if mi, ok := c.Lookup(line.MenuItemID); ok {
			name = mi.Name
			price = mi.Price
		}
		items[i] = LineItem{
			MenuItemID: line.MenuItemID,
			ItemName:   name,
			Quantity:   line.Quantity,
			UnitPrice:  price,
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	status := existingStatus
	if status == "" {
		status = enum.StatusPending
	}

	return Order{
		TableNumber: d.TableNumber,
		Items:       items,
		TotalPrice:  total,
		Status:      status,
	}
}
