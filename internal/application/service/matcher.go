package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"stockpulse/internal/application/port"
	"stockpulse/internal/domain"
)

// Matcher evaluates the trigger index against a fresh snapshot set and
// executes matches against the ledger. Instruments are evaluated in
// parallel; orders within one instrument's bucket run sequentially so an
// order is never in flight twice and per-instrument ledger contention
// stays bounded.
type Matcher struct {
	index     *TriggerIndex
	ledger    port.Ledger
	publisher port.Publisher
}

func NewMatcher(index *TriggerIndex, ledger port.Ledger, publisher port.Publisher) *Matcher {
	return &Matcher{index: index, ledger: ledger, publisher: publisher}
}

// Run performs one matching pass over the given tick's quotes.
func (m *Matcher) Run(ctx context.Context, quotes map[int]domain.Quote) {
	var wg sync.WaitGroup
	for _, instrumentID := range m.index.Instruments() {
		q, ok := quotes[instrumentID]
		if !ok {
			continue
		}
		wg.Add(1)
		go func(id int, price float64) {
			defer wg.Done()
			m.matchInstrument(ctx, id, price)
		}(instrumentID, q.Price)
	}
	wg.Wait()
}

func (m *Matcher) matchInstrument(ctx context.Context, instrumentID int, price float64) {
	for _, order := range m.index.Pending(instrumentID) {
		if !order.Matches(price) {
			continue
		}
		if err := m.execute(ctx, order, price); err != nil {
			// Order stays pending and is re-evaluated next tick.
			log.Error().
				Err(err).
				Str("order_id", order.ID).
				Int64("user_id", order.UserID).
				Int("stock_id", instrumentID).
				Float64("price", price).
				Msg("trade execution failed")
		}
	}
}

// execute fires a matched order: notify the owner, apply the trade at the
// current market price, persist the status flip, then drop the order from
// the index. Removal strictly follows confirmed persistence, so a crash
// mid-sequence leaves the order pending and safe to retry.
func (m *Matcher) execute(ctx context.Context, order *domain.TriggerOrder, price float64) error {
	event := domain.NewExecutionEvent(order, price)
	if payload, err := json.Marshal(event); err == nil {
		m.publisher.SendToUser(order.UserID, payload)
	}

	var err error
	switch order.Side {
	case domain.SideBuy:
		err = m.ledger.ApplyBuy(ctx, order.UserID, order.InstrumentID, order.Quantity, price)
	case domain.SideSell:
		err = m.ledger.ApplySell(ctx, order.UserID, order.InstrumentID, order.Quantity, price)
	}
	if err != nil {
		return err
	}

	if err := m.ledger.UpdateOrderStatus(ctx, order.ID, domain.StatusExecuted); err != nil {
		return err
	}
	order.Status = domain.StatusExecuted
	m.index.Remove(order)

	log.Info().
		Str("order_id", order.ID).
		Int64("user_id", order.UserID).
		Int("stock_id", order.InstrumentID).
		Str("side", string(order.Side)).
		Int64("quantity", order.Quantity).
		Float64("price", price).
		Msg("trigger order executed")
	return nil
}
