package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/comanda-live/api/internal/catalog"
	"github.com/comanda-live/api/internal/middleware"
	"github.com/comanda-live/api/internal/order"
	"github.com/comanda-live/api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Stores hands out the per-user order store. Satisfied by
// *store.Registry.
type Stores interface {
	ForOwner(ownerID uuid.UUID) (*store.Store, error)
}

// OrderHandler handles the order lifecycle endpoints. Every route is
// scoped to the authenticated user's own collection.
type OrderHandler struct {
	stores Stores
	menu   catalog.Reader
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(stores Stores, menu catalog.Reader) *OrderHandler {
	return &OrderHandler{stores: stores, menu: menu}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted behind the auth middleware at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/items/{menuItemID}/delivered", h.MarkDelivered)
	r.Get("/pending", h.PendingItems)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type draftLineRequest struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
}

type orderDraftRequest struct {
	TableNumber string             `json:"tableNumber"`
	Items       []draftLineRequest `json:"items"`
}

func (req orderDraftRequest) toDraft() order.Draft {
	d := order.Draft{TableNumber: req.TableNumber}
	for _, line := range req.Items {
		d.Lines = append(d.Lines, order.DraftLine{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
		})
	}
	return d
}

type statusRequest struct {
	Status string `json:"status"`
}

// ordersResponse carries the live list plus the sync error, if any, so
// a client can render last-known data with a warning instead of a
// blank page.
type ordersResponse struct {
	Orders []order.Order `json:"orders"`
	Error  string        `json:"error,omitempty"`
}

type pendingResponse struct {
	Table string              `json:"table"`
	Items []store.PendingItem `json:"items"`
}

type createResponse struct {
	ID string `json:"id"`
}

// --- Handlers ---

// List returns the user's current order list, newest first.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	st, ok := h.ownerStore(w, r)
	if !ok {
		return
	}

	resp := ordersResponse{Orders: st.Orders()}
	if resp.Orders == nil {
		resp.Orders = []order.Order{}
	}
	if err := st.Err(); err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create validates and assembles a new order from a draft.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	st, ok := h.ownerStore(w, r)
	if !ok {
		return
	}

	var req orderDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	draft := req.toDraft()
	if err := order.Validate(draft, true); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	o := order.Assemble(draft, h.menu, "")
	id, err := st.Create(r.Context(), o)
	if err != nil {
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{ID: id})
}

// Update re-submits an order from an edited draft. The order keeps its
// id, status, and creation time; items and total are rebuilt from the
// current menu.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	st, ok := h.ownerStore(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")

	var req orderDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	draft := req.toDraft()
	if err := order.Validate(draft, true); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	existingStatus := ""
	for _, o := range st.Orders() {
		if o.ID == orderID {
			existingStatus = o.Status
			break
		}
	}
	if existingStatus == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}

	o := order.Assemble(draft, h.menu, existingStatus)
	if err := st.Update(r.Context(), orderID, o); err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: update order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus moves an order to a new status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := h.ownerStore(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	err := st.PatchStatus(r.Context(), orderID, req.Status)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, store.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	case errors.Is(err, store.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: update order status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// MarkDelivered flags one undelivered line of the order as delivered.
func (h *OrderHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	st, ok := h.ownerStore(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")
	menuItemID := chi.URLParam(r, "menuItemID")

	err := st.PatchDeliveryItem(r.Context(), orderID, menuItemID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, store.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	default:
		log.Printf("ERROR: mark delivered: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// PendingItems returns the undelivered items still owed to one table,
// joined across all of that table's orders.
func (h *OrderHandler) PendingItems(w http.ResponseWriter, r *http.Request) {
	st, ok := h.ownerStore(w, r)
	if !ok {
		return
	}

	table := r.URL.Query().Get("table")
	if table == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "table query parameter is required"})
		return
	}

	items := store.NewReconciler(st).PendingItemsForTable(table)
	if items == nil {
		items = []store.PendingItem{}
	}
	writeJSON(w, http.StatusOK, pendingResponse{Table: table, Items: items})
}

// Delete removes an order entirely.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	st, ok := h.ownerStore(w, r)
	if !ok {
		return
	}
	orderID := chi.URLParam(r, "id")

	err := st.Remove(r.Context(), orderID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, store.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	default:
		log.Printf("ERROR: delete order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// --- Helpers ---

func (h *OrderHandler) ownerStore(w http.ResponseWriter, r *http.Request) (*store.Store, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return nil, false
	}
	st, err := h.stores.ForOwner(claims.UserID)
	if err != nil {
		log.Printf("ERROR: subscribe owner %s: %v", claims.UserID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return nil, false
	}
	return st, true
}
