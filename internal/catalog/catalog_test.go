package catalog

import (
	"testing"

	"github.com/comanda-live/api/internal/enum"
	"github.com/shopspring/decimal"
)

func TestLookup(t *testing.T) {
	c := New(DefaultMenu())

	mi, ok := c.Lookup("p1")
	if !ok {
		t.Fatal("p1 not found")
	}
	if mi.Name != "Pizza Margherita" || !mi.Price.Equal(decimal.NewFromInt(30)) {
		t.Errorf("p1 = %+v", mi)
	}

	if _, ok := c.Lookup("nope"); ok {
		t.Error("unknown id resolved")
	}
}

func TestListOrderedByCategoryThenName(t *testing.T) {
	c := New([]MenuItem{
		{ID: "b", Name: "Suco Natural", Category: enum.CategoryDrink},
		{ID: "a", Name: "Refrigerante Lata", Category: enum.CategoryDrink},
		{ID: "c", Name: "Batata Frita", Category: enum.CategorySide},
	})

	got := c.List()
	if len(got) != 3 {
		t.Fatalf("list = %d items, want 3", len(got))
	}
	// "Acompanhamento" sorts before "Bebida"; names break ties.
	want := []string{"c", "a", "b"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("list[%d].ID = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestReplaceSwapsWholeMenu(t *testing.T) {
	c := New(DefaultMenu())

	c.Replace([]MenuItem{
		{ID: "x1", Name: "Esfiha", Price: decimal.NewFromInt(12), Category: enum.CategorySnack},
	})

	if _, ok := c.Lookup("p1"); ok {
		t.Error("old item survived the swap")
	}
	if _, ok := c.Lookup("x1"); !ok {
		t.Error("new item missing after the swap")
	}
	if len(c.List()) != 1 {
		t.Errorf("list = %d items, want 1", len(c.List()))
	}
}
