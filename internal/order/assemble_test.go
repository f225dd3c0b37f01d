package order

import (
	"testing"

	"github.com/comanda-live/api/internal/catalog"
	"github.com/comanda-live/api/internal/enum"
	"github.com/shopspring/decimal"
)

func testMenu() catalog.Reader {
	return catalog.New([]catalog.MenuItem{
		{ID: "p1", Name: "Pizza Margherita", Price: decimal.NewFromInt(30), Category: enum.CategoryPizza},
		{ID: "b1", Name: "Refrigerante Lata", Price: decimal.NewFromInt(5), Category: enum.CategoryDrink},
		{ID: "s1", Name: "Pudim", Price: decimal.RequireFromString("10.50"), Category: enum.CategoryDessert},
	})
}

func TestAssemblePricesFromCatalog(t *testing.T) {
	d := Draft{
		TableNumber: "5",
		Lines: []DraftLine{
			{MenuItemID: "p1", Quantity: 2},
			{MenuItemID: "b1", Quantity: 1},
		},
	}

	o := Assemble(d, testMenu(), "")

	if o.TableNumber != "5" {
		t.Errorf("table = %q, want 5", o.TableNumber)
	}
	if o.Status != enum.StatusPending {
		t.Errorf("status = %q, want pending", o.Status)
	}
	if len(o.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(o.Items))
	}
	if o.Items[0].ItemName != "Pizza Margherita" || !o.Items[0].UnitPrice.Equal(decimal.NewFromInt(30)) {
		t.Errorf("items[0] = %+v", o.Items[0])
	}
	if o.Items[0].Delivered {
		t.Error("fresh line already delivered")
	}
	if !o.TotalPrice.Equal(decimal.NewFromInt(65)) {
		t.Errorf("total = %s, want 65", o.TotalPrice)
	}
}

func TestAssembleExactDecimalTotal(t *testing.T) {
	d := Draft{
		TableNumber: "1",
		Lines:       []DraftLine{{MenuItemID: "s1", Quantity: 3}},
	}

	o := Assemble(d, testMenu(), "")
	if o.TotalPrice.String() != "31.5" {
		t.Errorf("total = %s, want exactly 31.5", o.TotalPrice)
	}
}

func TestAssembleUnknownItemSentinel(t *testing.T) {
	d := Draft{
		TableNumber: "5",
		Lines: []DraftLine{
			{MenuItemID: "removed-dish", Quantity: 2},
			{MenuItemID: "b1", Quantity: 1},
		},
	}

	o := Assemble(d, testMenu(), "")

	if o.Items[0].ItemName != UnknownItemName {
		t.Errorf("items[0].ItemName = %q, want %q", o.Items[0].ItemName, UnknownItemName)
	}
	if !o.Items[0].UnitPrice.IsZero() {
		t.Errorf("items[0].UnitPrice = %s, want 0", o.Items[0].UnitPrice)
	}
	// The unknown line contributes nothing to the total.
	if !o.TotalPrice.Equal(decimal.NewFromInt(5)) {
		t.Errorf("total = %s, want 5", o.TotalPrice)
	}
}

func TestAssemblePreservesExistingStatus(t *testing.T) {
	d := Draft{
		TableNumber: "5",
		Lines:       []DraftLine{{MenuItemID: "p1", Quantity: 1}},
	}

	o := Assemble(d, testMenu(), enum.StatusPreparing)
	if o.Status != enum.StatusPreparing {
		t.Errorf("status = %q, want preserved %q", o.Status, enum.StatusPreparing)
	}
}
