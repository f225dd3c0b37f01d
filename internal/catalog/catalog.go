package catalog

import (
	"sort"
	"sync"

	"github.com/comanda-live/api/internal/enum"
	"github.com/shopspring/decimal"
)

// MenuItem is one entry of the menu. Price is decimal money, never float.
type MenuItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// Reader is the lookup contract the order assembler depends on.
type Reader interface {
	Lookup(menuItemID string) (MenuItem, bool)
}

// Catalog is an in-memory menu, loaded once and swapped wholesale on
// menu-admin edits. Lookups never see a partially updated menu.
type Catalog struct {
	mu    sync.RWMutex
	items map[string]MenuItem
}

// New builds a catalog from the given items.
func New(items []MenuItem) *Catalog {
	c := &Catalog{}
	c.Replace(items)
	return c
}

// Lookup resolves a menu item by id.
func (c *Catalog) Lookup(menuItemID string) (MenuItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	mi, ok := c.items[menuItemID]
	return mi, ok
}

// List returns every menu item, ordered by category then name.
func (c *Catalog) List() []MenuItem {
	c.mu.RLock()
	out := make([]MenuItem, 0, len(c.items))
	for _, mi := range c.items {
		out = append(out, mi)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Replace swaps the whole menu atomically.
func (c *Catalog) Replace(items []MenuItem) {
	m := make(map[string]MenuItem, len(items))
	for _, mi := range items {
		m[mi.ID] = mi
	}
	c.mu.Lock()
	c.items = m
	c.mu.Unlock()
}

// DefaultMenu is the built-in menu used when no database rows exist yet.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{ID: "p1", Name: "Pizza Margherita", Price: decimal.NewFromInt(30), Category: enum.CategoryPizza},
		{ID: "p2", Name: "Pizza Calabresa", Price: decimal.NewFromInt(35), Category: enum.CategoryPizza},
		{ID: "p3", Name: "Hamburguer Classico", Price: decimal.NewFromInt(25), Category: enum.CategorySnack},
		{ID: "p4", Name: "Batata Frita", Price: decimal.NewFromInt(15), Category: enum.CategorySide},
		{ID: "b1", Name: "Refrigerante Lata", Price: decimal.NewFromInt(5), Category: enum.CategoryDrink},
		{ID: "b2", Name: "Suco Natural", Price: decimal.NewFromInt(8), Category: enum.CategoryDrink},
		{ID: "s1", Name: "Pudim", Price: decimal.NewFromInt(10), Category: enum.CategoryDessert},
	}
}
