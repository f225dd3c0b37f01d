package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/comanda-live/api/internal/catalog"
	"github.com/comanda-live/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuStore defines the persistence methods needed by menu handlers.
// Satisfied by *catalog.PGStore; narrow interface for testability.
type MenuStore interface {
	Load(ctx context.Context) ([]catalog.MenuItem, error)
	Create(ctx context.Context, mi catalog.MenuItem) error
	Update(ctx context.Context, mi catalog.MenuItem) error
	Delete(ctx context.Context, id string) error
}

// MenuHandler handles menu management. Reads serve from the in-memory
// catalog; writes go through the store and then reload the catalog, so
// order assembly always prices against a fully applied menu.
type MenuHandler struct {
	store MenuStore
	menu  *catalog.Catalog
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore, menu *catalog.Catalog) *MenuHandler {
	return &MenuHandler{store: store, menu: menu}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
// Mounted behind the auth middleware at /menu; writes additionally sit
// behind RequireAdmin.
func (h *MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// RegisterAdminRoutes registers the mutating menu endpoints.
func (h *MenuHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type menuItemRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
}

type menuItemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
}

func toMenuItemResponse(mi catalog.MenuItem) menuItemResponse {
	return menuItemResponse{
		ID:       mi.ID,
		Name:     mi.Name,
		Price:    mi.Price.StringFixed(2),
		Category: mi.Category,
	}
}

// --- Helpers ---

func isValidCategory(category string) bool {
	switch category {
	case enum.CategoryPizza, enum.CategorySnack, enum.CategorySide,
		enum.CategoryDrink, enum.CategoryDessert:
		return true
	}
	return false
}

var errNegativePrice = errors.New("negative price")

func parsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if d.IsNegative() {
		return decimal.Decimal{}, errNegativePrice
	}
	return d, nil
}

func (h *MenuHandler) validateRequest(w http.ResponseWriter, req menuItemRequest) (decimal.Decimal, bool) {
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return decimal.Decimal{}, false
	}
	if req.Price == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price is required"})
		return decimal.Decimal{}, false
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be >= 0"})
		} else {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		}
		return decimal.Decimal{}, false
	}
	if !isValidCategory(req.Category) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category"})
		return decimal.Decimal{}, false
	}
	return price, true
}

// reload refreshes the in-memory catalog after a successful write.
func (h *MenuHandler) reload(ctx context.Context) {
	items, err := h.store.Load(ctx)
	if err != nil {
		// The write committed; pricing keeps serving the previous menu
		// until the next successful reload.
		log.Printf("ERROR: reload menu: %v", err)
		return
	}
	h.menu.Replace(items)
}

// --- Handlers ---

// List returns the current menu, ordered by category then name.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.menu.List()
	resp := make([]menuItemResponse, len(items))
	for i, mi := range items {
		resp[i] = toMenuItemResponse(mi)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new menu item.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, ok := h.validateRequest(w, req)
	if !ok {
		return
	}

	mi := catalog.MenuItem{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Price:    price,
		Category: req.Category,
	}
	if err := h.store.Create(r.Context(), mi); err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.reload(r.Context())

	writeJSON(w, http.StatusCreated, toMenuItemResponse(mi))
}

// Update modifies an existing menu item. Orders keep the name and price
// they were assembled with; only future orders see the change.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	price, ok := h.validateRequest(w, req)
	if !ok {
		return
	}

	mi := catalog.MenuItem{
		ID:       id,
		Name:     req.Name,
		Price:    price,
		Category: req.Category,
	}
	if err := h.store.Update(r.Context(), mi); err != nil {
		if errors.Is(err, catalog.ErrMenuItemNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.reload(r.Context())

	writeJSON(w, http.StatusOK, toMenuItemResponse(mi))
}

// Delete removes a menu item. Existing orders keep their snapshotted
// lines.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrMenuItemNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.reload(r.Context())

	w.WriteHeader(http.StatusNoContent)
}
