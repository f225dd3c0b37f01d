package channel

import (
	"context"
	"sync"
	"time"

	"github.com/comanda-live/api/internal/order"
	"github.com/google/uuid"
)

// subBuffer bounds how many undelivered snapshots a slow subscriber can
// hold. When it fills, the oldest snapshot is dropped: pushes coalesce,
// and the latest state is always the last one delivered.
const subBuffer = 16

// Memory is an in-process Channel with the same semantics as the
// Postgres binding. Used by tests and local development.
type Memory struct {
	mu          sync.Mutex
	collections map[uuid.UUID]map[string]order.Order
	subs        map[uuid.UUID]map[int]chan Snapshot
	nextSub     int
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[uuid.UUID]map[string]order.Order),
		subs:        make(map[uuid.UUID]map[int]chan Snapshot),
	}
}

// Subscribe streams the owner's collection, current state first.
func (m *Memory) Subscribe(ctx context.Context, ownerID uuid.UUID) (<-chan Snapshot, error) {
	ch := make(chan Snapshot, subBuffer)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	if m.subs[ownerID] == nil {
		m.subs[ownerID] = make(map[int]chan Snapshot)
	}
	m.subs[ownerID][id] = ch
	ch <- Snapshot{Orders: m.snapshotLocked(ownerID)}
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		if subs, ok := m.subs[ownerID]; ok {
			if _, exists := subs[id]; exists {
				delete(subs, id)
				close(ch)
				if len(subs) == 0 {
					delete(m.subs, ownerID)
				}
			}
		}
		m.mu.Unlock()
	}()

	return ch, nil
}

// Create assigns an id and server timestamps, then pushes a snapshot.
func (m *Memory) Create(ctx context.Context, ownerID uuid.UUID, o order.Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	now := time.Now()
	o.ID = id
	o.OwnerID = ownerID
	o.CreatedAt = now
	o.UpdatedAt = now

	m.mu.Lock()
	if m.collections[ownerID] == nil {
		m.collections[ownerID] = make(map[string]order.Order)
	}
	m.collections[ownerID][id] = o
	m.broadcastLocked(ownerID)
	m.mu.Unlock()
	return id, nil
}

// Patch applies a partial update to one order.
func (m *Memory) Patch(ctx context.Context, ownerID uuid.UUID, orderID string, p Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.collections[ownerID][orderID]
	if !ok {
		return ErrOrderNotFound
	}
	if p.TableNumber != nil {
		o.TableNumber = *p.TableNumber
	}
	if p.Items != nil {
		items := make([]order.LineItem, len(*p.Items))
		copy(items, *p.Items)
		o.Items = items
	}
	if p.TotalPrice != nil {
		o.TotalPrice = *p.TotalPrice
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	o.UpdatedAt = p.UpdatedAt
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = time.Now()
	}
	m.collections[ownerID][orderID] = o
	m.broadcastLocked(ownerID)
	return nil
}

// Delete removes one order.
func (m *Memory) Delete(ctx context.Context, ownerID uuid.UUID, orderID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[ownerID][orderID]; !ok {
		return ErrOrderNotFound
	}
	delete(m.collections[ownerID], orderID)
	m.broadcastLocked(ownerID)
	return nil
}

// Put places an order with an explicit id and timestamps, then pushes a
// snapshot. Seeding and test hook, not part of the Channel contract.
func (m *Memory) Put(ownerID uuid.UUID, o order.Order) {
	m.mu.Lock()
	if m.collections[ownerID] == nil {
		m.collections[ownerID] = make(map[string]order.Order)
	}
	o.OwnerID = ownerID
	m.collections[ownerID][o.ID] = o
	m.broadcastLocked(ownerID)
	m.mu.Unlock()
}

// snapshotLocked copies the owner's collection. Caller holds mu.
func (m *Memory) snapshotLocked(ownerID uuid.UUID) map[string]order.Order {
	src := m.collections[ownerID]
	dst := make(map[string]order.Order, len(src))
	for id, o := range src {
		o.Items = o.CloneItems()
		dst[id] = o
	}
	return dst
}

// broadcastLocked pushes the current collection to every subscriber of
// the owner. Caller holds mu.
func (m *Memory) broadcastLocked(ownerID uuid.UUID) {
	for _, ch := range m.subs[ownerID] {
		snap := Snapshot{Orders: m.snapshotLocked(ownerID)}
		select {
		case ch <- snap:
		default:
			// Buffer full: drop the oldest so the latest state wins.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
