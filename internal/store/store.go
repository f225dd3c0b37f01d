// Package store owns the authoritative local projection of one owner's
// orders. It subscribes to the remote channel, normalizes every pushed
// snapshot into an ordered list, and exposes the mutation operations.
// Mutations are fire-and-forget toward the channel: the visible list
// only changes when the next snapshot confirms the write.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/comanda-live/api/internal/channel"
	"github.com/comanda-live/api/internal/order"
	"github.com/google/uuid"
)

// Errors returned by store operations.
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoSession         = errors.New("no active session")
)

// ErrOrderNotFound mirrors the channel sentinel so callers need only
// this package's taxonomy.
var ErrOrderNotFound = channel.ErrOrderNotFound

// MutationState is the lifecycle of one optimistic in-flight patch.
// Rollback on failure is structural: only pending mutations overlay the
// confirmed list, so a failed one reverts by no longer being shown.
type MutationState int

const (
	MutationIdle MutationState = iota
	MutationPending
	MutationFailed
)

type inflight struct {
	state     MutationState
	requested string
	previous  string
}

// Store is the single source of truth for the current session's orders.
// One instance per active session; all methods are safe for concurrent
// use.
type Store struct {
	channel channel.Channel

	mu           sync.RWMutex
	ownerID      uuid.UUID
	orders       []order.Order // confirmed list; swapped whole, never mutated
	byID         map[string]order.Order
	inflight     map[string]inflight
	lastErr      error
	cancel       context.CancelFunc
	gen          int // subscription generation, guards stale pushes
	listeners    map[int]func([]order.Order)
	nextListener int
}

func New(ch channel.Channel) *Store {
	return &Store{
		channel:   ch,
		byID:      make(map[string]order.Order),
		inflight:  make(map[string]inflight),
		listeners: make(map[int]func([]order.Order)),
	}
}

// Subscribe switches the store to ownerID. Any previous subscription is
// canceled and the local list cleared synchronously, before the new
// owner's first snapshot can arrive: orders from a previous owner are
// never visible after a switch, even transiently.
func (s *Store) Subscribe(ctx context.Context, ownerID uuid.UUID) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.ownerID = ownerID
	s.orders = nil
	s.byID = make(map[string]order.Order)
	s.inflight = make(map[string]inflight)
	s.lastErr = nil
	subCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.notify()

	snaps, err := s.channel.Subscribe(subCtx, ownerID)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe orders: %w", err)
	}
	go func() {
		for snap := range snaps {
			s.apply(gen, snap)
		}
	}()
	return nil
}

// Unsubscribe releases the channel subscription and clears the list.
func (s *Store) Unsubscribe() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.orders = nil
	s.byID = make(map[string]order.Order)
	s.inflight = make(map[string]inflight)
	s.lastErr = nil
	s.mu.Unlock()

	s.notify()
}

// Orders returns the current list: the last confirmed snapshot with any
// pending optimistic status patches overlaid. Callers must not mutate
// the returned orders.
func (s *Store) Orders() []order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

// Err reports the last subscription error, if any. The order list stays
// at its last-known state alongside it rather than going blank.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// OwnerID returns the owner this store is subscribed for.
func (s *Store) OwnerID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerID
}

// MutationState reports the in-flight status patch for an order and the
// last confirmed status it would roll back to.
func (s *Store) MutationState(orderID string) (MutationState, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.inflight[orderID]
	if !ok {
		return MutationIdle, ""
	}
	return f.state, f.previous
}

// Listen registers fn for every new list. The returned func removes it.
func (s *Store) Listen(fn func([]order.Order)) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Create forwards a new order to the channel and returns the assigned
// id. No speculative insertion: the visible list changes only once the
// snapshot round-trip confirms it, so a row can never appear twice.
func (s *Store) Create(ctx context.Context, o order.Order) (string, error) {
	owner, err := s.session()
	if err != nil {
		return "", err
	}
	o.OwnerID = owner
	id, err := s.channel.Create(ctx, owner, o)
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	return id, nil
}

// Update is the edit flow: a full re-submission of table number, items,
// total, and status. The id and createdAt are preserved.
func (s *Store) Update(ctx context.Context, orderID string, o order.Order) error {
	owner, err := s.session()
	if err != nil {
		return err
	}
	items := o.CloneItems()
	p := channel.Patch{
		TableNumber: &o.TableNumber,
		Items:       &items,
		TotalPrice:  &o.TotalPrice,
		Status:      &o.Status,
		UpdatedAt:   time.Now(),
	}
	if err := s.channel.Patch(ctx, owner, orderID, p); err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return nil
}

// PatchStatus requests a status change. Same-status requests and
// non-members of the status set are rejected locally with
// ErrInvalidTransition and no write is issued. Accepted requests are
// shown optimistically until the channel confirms or the write fails.
func (s *Store) PatchStatus(ctx context.Context, orderID, newStatus string) error {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return ErrNoSession
	}
	owner := s.ownerID
	cur, ok := s.byID[orderID]
	if !ok {
		s.mu.Unlock()
		return ErrOrderNotFound
	}
	if !order.CanTransition(cur.Status, newStatus) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, newStatus)
	}
	s.inflight[orderID] = inflight{
		state:     MutationPending,
		requested: newStatus,
		previous:  cur.Status,
	}
	s.mu.Unlock()
	s.notify()

	p := channel.Patch{Status: &newStatus, UpdatedAt: time.Now()}
	if err := s.channel.Patch(ctx, owner, orderID, p); err != nil {
		s.mu.Lock()
		if f, ok := s.inflight[orderID]; ok && f.state == MutationPending && f.requested == newStatus {
			f.state = MutationFailed
			s.inflight[orderID] = f
		}
		s.mu.Unlock()
		s.notify()
		return fmt.Errorf("patch status: %w", err)
	}
	return nil
}

// PatchDeliveryItem marks the earliest undelivered occurrence of
// menuItemID in the order as delivered and writes back the full item
// list. A duplicate line for the same dish is marked one occurrence per
// call. Delivered flags only ever go false→true, so a call with no
// undelivered occurrence is a no-op and issues no write.
func (s *Store) PatchDeliveryItem(ctx context.Context, orderID, menuItemID string) error {
	s.mu.RLock()
	if s.cancel == nil {
		s.mu.RUnlock()
		return ErrNoSession
	}
	owner := s.ownerID
	cur, ok := s.byID[orderID]
	s.mu.RUnlock()
	if !ok {
		return ErrOrderNotFound
	}

	items := cur.CloneItems()
	marked := false
	for i := range items {
		if items[i].MenuItemID == menuItemID && !items[i].Delivered {
			items[i].Delivered = true
			marked = true
			break
		}
	}
	if !marked {
		return nil
	}

	p := channel.Patch{Items: &items, UpdatedAt: time.Now()}
	if err := s.channel.Patch(ctx, owner, orderID, p); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

// Remove forwards a delete. The local list updates only after the next
// snapshot confirms the removal; no order is ever deleted as a side
// effect of any other operation.
func (s *Store) Remove(ctx context.Context, orderID string) error {
	owner, err := s.session()
	if err != nil {
		return err
	}
	if err := s.channel.Delete(ctx, owner, orderID); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// --- snapshot handling ---

// apply installs one pushed snapshot. Pushes from a canceled
// subscription generation are dropped.
func (s *Store) apply(gen int, snap channel.Snapshot) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	if snap.Err != nil {
		// Keep the last-known list; a blank screen mid-shift is worse
		// than a stale one.
		s.lastErr = snap.Err
		s.mu.Unlock()
		s.notify()
		return
	}

	list := Normalize(snap.Orders)
	byID := make(map[string]order.Order, len(list))
	for _, o := range list {
		byID[o.ID] = o
	}
	s.orders = list
	s.byID = byID
	// The channel is the sole source of truth per push: whatever it
	// says wins over any optimistic overlay, even an unconfirmed one.
	s.inflight = make(map[string]inflight)
	s.lastErr = nil
	s.mu.Unlock()

	s.notify()
}

// Normalize turns a snapshot map into the display order: createdAt
// descending, ties broken by id ascending for determinism. The map key
// is the authoritative id.
func Normalize(snap map[string]order.Order) []order.Order {
	list := make([]order.Order, 0, len(snap))
	for id, o := range snap {
		o.ID = id
		list = append(list, o)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// viewLocked builds the caller-visible list: a fresh slice over the
// confirmed orders with pending optimistic statuses overlaid. Caller
// holds at least a read lock.
func (s *Store) viewLocked() []order.Order {
	out := make([]order.Order, len(s.orders))
	copy(out, s.orders)
	for i := range out {
		if f, ok := s.inflight[out[i].ID]; ok && f.state == MutationPending {
			out[i].Status = f.requested
		}
	}
	return out
}

func (s *Store) session() (uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cancel == nil {
		return uuid.Nil, ErrNoSession
	}
	return s.ownerID, nil
}

func (s *Store) notify() {
	s.mu.RLock()
	list := s.viewLocked()
	fns := make([]func([]order.Order), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(list)
	}
}
