package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/comanda-live/api/internal/order"
	"github.com/google/uuid"
)

// Event types pushed to connected clients.
const (
	EventOrdersList = "orders.list"
	EventSyncError  = "sync.error"
)

// Event is a WebSocket message to be broadcast.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// OrdersListEvent builds the full-list event every client renders from.
// Clients replace their whole view with each one, the same way the
// engine replaces its list per snapshot.
func OrdersListEvent(orders []order.Order) (Event, error) {
	payload, err := json.Marshal(orders)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: EventOrdersList, Payload: payload}, nil
}

// ownerEvent routes an event to one owner's room.
type ownerEvent struct {
	OwnerID uuid.UUID
	Event   Event
}

// Hub maintains the set of active clients, one room per owner, and
// broadcasts order-list events to them.
type Hub struct {
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *ownerEvent

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *ownerEvent, 256),
	}
}

// Run is the hub's main loop; call as a goroutine. It exits when ctx is
// canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for ownerID, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, ownerID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.ownerID] == nil {
				h.rooms[client.ownerID] = make(map[*Client]bool)
			}
			h.rooms[client.ownerID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.ownerID]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.ownerID)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.OwnerID]

			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Send buffer full: the client stopped reading.
					close(client.send)
					delete(h.rooms[event.OwnerID], client)
					if len(h.rooms[event.OwnerID]) == 0 {
						delete(h.rooms, event.OwnerID)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToOwner sends an event to every client in the owner's room.
func (h *Hub) BroadcastToOwner(ownerID uuid.UUID, event Event) {
	h.broadcast <- &ownerEvent{
		OwnerID: ownerID,
		Event:   event,
	}
}

// BroadcastOrders pushes the full order list to the owner's room. This
// is what the store's listener hook is wired to.
func (h *Hub) BroadcastOrders(ownerID uuid.UUID, orders []order.Order) {
	event, err := OrdersListEvent(orders)
	if err != nil {
		log.Printf("ERROR: encoding orders list for %s: %v", ownerID, err)
		return
	}
	h.BroadcastToOwner(ownerID, event)
}
