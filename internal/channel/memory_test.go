package channel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/comanda-live/api/internal/enum"
	"github.com/comanda-live/api/internal/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func recvSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatal("snapshot channel closed")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
		return Snapshot{}
	}
}

func TestSubscribeDeliversCurrentStateFirst(t *testing.T) {
	m := NewMemory()
	owner := uuid.New()
	m.Put(owner, order.Order{ID: "a", TableNumber: "1", Status: enum.StatusPending})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := m.Subscribe(ctx, owner)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	snap := recvSnapshot(t, ch)
	if snap.Err != nil {
		t.Fatalf("initial snapshot error: %v", snap.Err)
	}
	if len(snap.Orders) != 1 || snap.Orders["a"].TableNumber != "1" {
		t.Errorf("initial snapshot = %v", snap.Orders)
	}
}

func TestCreateAssignsIDAndTimestampsAndPushes(t *testing.T) {
	m := NewMemory()
	owner := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := m.Subscribe(ctx, owner)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	recvSnapshot(t, ch) // initial empty state

	id, err := m.Create(context.Background(), owner, order.Order{
		TableNumber: "5",
		Items: []order.LineItem{
			{MenuItemID: "p1", ItemName: "Pizza Margherita", Quantity: 1, UnitPrice: decimal.NewFromInt(30)},
		},
		TotalPrice: decimal.NewFromInt(30),
		Status:     enum.StatusPending,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id == "" {
		t.Fatal("empty id")
	}

	snap := recvSnapshot(t, ch)
	o, ok := snap.Orders[id]
	if !ok {
		t.Fatalf("created order not in snapshot: %v", snap.Orders)
	}
	if o.CreatedAt.IsZero() || o.UpdatedAt.IsZero() {
		t.Error("timestamps not assigned")
	}
	if o.OwnerID != owner {
		t.Errorf("owner = %s, want %s", o.OwnerID, owner)
	}
}

func TestPatchAppliesOnlyGivenFields(t *testing.T) {
	m := NewMemory()
	owner := uuid.New()
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m.Put(owner, order.Order{
		ID:          "a",
		TableNumber: "5",
		TotalPrice:  decimal.NewFromInt(30),
		Status:      enum.StatusPending,
		CreatedAt:   created,
		UpdatedAt:   created,
	})

	status := enum.StatusReady
	if err := m.Patch(context.Background(), owner, "a", Patch{Status: &status, UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("Patch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := m.Subscribe(ctx, owner)
	o := recvSnapshot(t, ch).Orders["a"]

	if o.Status != enum.StatusReady {
		t.Errorf("status = %q, want ready", o.Status)
	}
	if o.TableNumber != "5" || !o.TotalPrice.Equal(decimal.NewFromInt(30)) {
		t.Errorf("untouched fields changed: %+v", o)
	}
	if !o.CreatedAt.Equal(created) {
		t.Errorf("createdAt changed: %v", o.CreatedAt)
	}
}

func TestPatchUnknownOrder(t *testing.T) {
	m := NewMemory()
	status := enum.StatusReady
	err := m.Patch(context.Background(), uuid.New(), "ghost", Patch{Status: &status})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("got %v, want ErrOrderNotFound", err)
	}
}

func TestDeleteRemovesAndPushes(t *testing.T) {
	m := NewMemory()
	owner := uuid.New()
	m.Put(owner, order.Order{ID: "a", TableNumber: "1"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := m.Subscribe(ctx, owner)
	recvSnapshot(t, ch)

	if err := m.Delete(context.Background(), owner, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	snap := recvSnapshot(t, ch)
	if len(snap.Orders) != 0 {
		t.Errorf("snapshot after delete = %v, want empty", snap.Orders)
	}

	if err := m.Delete(context.Background(), owner, "a"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("second delete: got %v, want ErrOrderNotFound", err)
	}
}

func TestSubscriptionsAreScopedPerOwner(t *testing.T) {
	m := NewMemory()
	owner1 := uuid.New()
	owner2 := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch2, _ := m.Subscribe(ctx, owner2)
	recvSnapshot(t, ch2)

	if _, err := m.Create(context.Background(), owner1, order.Order{TableNumber: "1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	select {
	case snap := <-ch2:
		t.Fatalf("owner2 received owner1's change: %v", snap.Orders)
	case <-time.After(50 * time.Millisecond):
		// Expected.
	}
}

func TestCancelClosesSubscription(t *testing.T) {
	m := NewMemory()
	owner := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := m.Subscribe(ctx, owner)
	recvSnapshot(t, ch)

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestSlowSubscriberCoalescesToLatest(t *testing.T) {
	m := NewMemory()
	owner := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := m.Subscribe(ctx, owner)

	// Never read while flooding: the buffer fills and older snapshots
	// are dropped.
	for i := 0; i < subBuffer*3; i++ {
		if _, err := m.Create(context.Background(), owner, order.Order{TableNumber: "1"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	var last Snapshot
	for {
		select {
		case snap, ok := <-ch:
			if !ok {
				t.Fatal("channel closed")
			}
			last = snap
			if len(last.Orders) == subBuffer*3 {
				return // latest state delivered last
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("latest state never delivered; last had %d orders", len(last.Orders))
		}
	}
}
