package service

import (
	"context"
	"fmt"
	"sync"

	"stockpulse/internal/application/port"
	"stockpulse/internal/domain"
)

// TriggerIndex is the in-memory view of pending trigger orders, bucketed by
// instrument for O(1) lookup during a matching pass. The ledger is the system
// of record; the index is rebuilt from it at startup and mutated on order
// creation and execution.
type TriggerIndex struct {
	mu      sync.RWMutex
	buckets map[int][]*domain.TriggerOrder
}

func NewTriggerIndex() *TriggerIndex {
	return &TriggerIndex{buckets: make(map[int][]*domain.TriggerOrder)}
}

// Load rebuilds the index from the ledger, replacing any prior state.
// A load failure is fatal to startup: matching against a partial order set
// is unsafe.
func (t *TriggerIndex) Load(ctx context.Context, ledger port.Ledger) error {
	orders, err := ledger.LoadPendingOrders(ctx)
	if err != nil {
		return fmt.Errorf("load pending orders: %w", err)
	}

	buckets := make(map[int][]*domain.TriggerOrder)
	for _, o := range orders {
		buckets[o.InstrumentID] = append(buckets[o.InstrumentID], o)
	}

	t.mu.Lock()
	t.buckets = buckets
	t.mu.Unlock()
	return nil
}

// Insert adds a newly created pending order. It is visible to the next
// matching pass at the latest.
func (t *TriggerIndex) Insert(o *domain.TriggerOrder) {
	t.mu.Lock()
	t.buckets[o.InstrumentID] = append(t.buckets[o.InstrumentID], o)
	t.mu.Unlock()
}

// Remove drops an order from its bucket once it leaves pending.
func (t *TriggerIndex) Remove(o *domain.TriggerOrder) {
	t.mu.Lock()
	defer t.mu.Unlock()

	bucket := t.buckets[o.InstrumentID]
	for i, cur := range bucket {
		if cur.ID == o.ID {
			t.buckets[o.InstrumentID] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(t.buckets[o.InstrumentID]) == 0 {
		delete(t.buckets, o.InstrumentID)
	}
}

// Pending returns a copy of the instrument's bucket so the matcher can
// iterate and remove without invalidating its own iteration.
func (t *TriggerIndex) Pending(instrumentID int) []*domain.TriggerOrder {
	t.mu.RLock()
	defer t.mu.RUnlock()

	bucket := t.buckets[instrumentID]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]*domain.TriggerOrder, len(bucket))
	copy(out, bucket)
	return out
}

// Instruments returns the ids that currently have pending orders.
func (t *TriggerIndex) Instruments() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]int, 0, len(t.buckets))
	for id := range t.buckets {
		ids = append(ids, id)
	}
	return ids
}

func (t *TriggerIndex) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, b := range t.buckets {
		n += len(b)
	}
	return n
}
