package store

import (
	"context"
	"sync"

	"github.com/comanda-live/api/internal/channel"
	"github.com/comanda-live/api/internal/order"
	"github.com/google/uuid"
)

// Registry hands out one Store per owner, lazily subscribed on first
// use. A server process serves many owners; each owner still sees a
// single source of truth for their orders.
type Registry struct {
	ctx     context.Context
	channel channel.Channel
	onList  func(ownerID uuid.UUID, orders []order.Order)

	mu     sync.Mutex
	stores map[uuid.UUID]*Store
}

// NewRegistry builds a registry whose stores subscribe under ctx.
// onList, if non-nil, is attached to every store and fires on each new
// list, e.g. to fan out over websockets.
func NewRegistry(ctx context.Context, ch channel.Channel, onList func(uuid.UUID, []order.Order)) *Registry {
	return &Registry{
		ctx:     ctx,
		channel: ch,
		onList:  onList,
		stores:  make(map[uuid.UUID]*Store),
	}
}

// ForOwner returns the owner's store, creating and subscribing it on
// first call.
func (r *Registry) ForOwner(ownerID uuid.UUID) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.stores[ownerID]; ok {
		return st, nil
	}
	st := New(r.channel)
	if r.onList != nil {
		owner := ownerID
		st.Listen(func(list []order.Order) {
			r.onList(owner, list)
		})
	}
	if err := st.Subscribe(r.ctx, ownerID); err != nil {
		return nil, err
	}
	r.stores[ownerID] = st
	return st, nil
}

// Close unsubscribes every store.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, st := range r.stores {
		st.Unsubscribe()
		delete(r.stores, id)
	}
}
