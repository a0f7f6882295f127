package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"stockpulse/internal/application/port"
	"stockpulse/internal/domain"
)

// mockLedger records calls and can be primed to fail sells.
type mockLedger struct {
	mu            sync.Mutex
	pending       []*domain.TriggerOrder
	loadErr       error
	sellErr       error
	buys          []string
	sells         []string
	statusUpdates map[string]domain.OrderStatus
	created       []*domain.TriggerOrder
}

func newMockLedger() *mockLedger {
	return &mockLedger{statusUpdates: make(map[string]domain.OrderStatus)}
}

func (m *mockLedger) LoadPendingOrders(ctx context.Context) ([]*domain.TriggerOrder, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.pending, nil
}

func (m *mockLedger) CreateOrder(ctx context.Context, o *domain.TriggerOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, o)
	return nil
}

func (m *mockLedger) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusUpdates[orderID] = status
	return nil
}

func (m *mockLedger) ApplyBuy(ctx context.Context, userID int64, instrumentID int, quantity int64, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buys = append(m.buys, "buy")
	return nil
}

func (m *mockLedger) ApplySell(ctx context.Context, userID int64, instrumentID int, quantity int64, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sellErr != nil {
		return m.sellErr
	}
	m.sells = append(m.sells, "sell")
	return nil
}

func (m *mockLedger) ListPositions(ctx context.Context, userID int64) ([]port.Position, error) {
	return nil, nil
}

func (m *mockLedger) Close() error { return nil }

func (m *mockLedger) status(orderID string) (domain.OrderStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statusUpdates[orderID]
	return s, ok
}

func (m *mockLedger) sellCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sells)
}

// mockPublisher captures broadcasts and private sends.
type mockPublisher struct {
	mu         sync.Mutex
	broadcasts [][]byte
	private    map[int64][][]byte
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{private: make(map[int64][][]byte)}
}

func (p *mockPublisher) Broadcast(payload []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcasts = append(p.broadcasts, payload)
}

func (p *mockPublisher) SendToUser(userID int64, payload []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.private[userID] = append(p.private[userID], payload)
}

func (p *mockPublisher) broadcastCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.broadcasts)
}

func (p *mockPublisher) privateCount(userID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.private[userID])
}

// mockQuoteSource serves canned prices and daily closes.
type mockQuoteSource struct {
	mu         sync.Mutex
	prices     map[string]float64
	failing    map[string]bool
	closes     map[string]map[string]float64 // date -> symbol -> close
	closesErr  error
	fetchCalls int
	closeCalls int
}

func newMockQuoteSource() *mockQuoteSource {
	return &mockQuoteSource{
		prices:  make(map[string]float64),
		failing: make(map[string]bool),
		closes:  make(map[string]map[string]float64),
	}
}

func (s *mockQuoteSource) FetchPrice(ctx context.Context, symbol string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	if s.failing[symbol] {
		return 0, errors.New("source unavailable")
	}
	price, ok := s.prices[symbol]
	if !ok {
		return 0, errors.New("unknown symbol")
	}
	return price, nil
}

func (s *mockQuoteSource) FetchDailyCloses(ctx context.Context, symbols []string, asOf time.Time) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	if s.closesErr != nil {
		return nil, s.closesErr
	}
	rows, ok := s.closes[asOf.Format("2006-01-02")]
	if !ok {
		return map[string]float64{}, nil
	}
	return rows, nil
}

func (s *mockQuoteSource) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls
}

func (s *mockQuoteSource) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}
