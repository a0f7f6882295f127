package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/application/port"
	"stockpulse/internal/domain"
)

// OrderService creates and cancels trigger orders, keeping the ledger and
// the in-memory index in step. An order is persisted before it is indexed,
// so the index never holds an order the ledger does not know about.
type OrderService struct {
	index  *TriggerIndex
	ledger port.Ledger
}

func NewOrderService(index *TriggerIndex, ledger port.Ledger) *OrderService {
	return &OrderService{index: index, ledger: ledger}
}

// PlaceTrigger persists a new pending order and makes it eligible for the
// next matching pass.
func (s *OrderService) PlaceTrigger(ctx context.Context, userID int64, instrumentID int, side domain.Side, quantity int64, targetPrice float64) (*domain.TriggerOrder, error) {
	if quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}
	if targetPrice <= 0 {
		return nil, errors.New("target price must be positive")
	}

	order := &domain.TriggerOrder{
		ID:           uuid.NewString(),
		UserID:       userID,
		InstrumentID: instrumentID,
		Side:         side,
		Quantity:     quantity,
		TargetPrice:  targetPrice,
		Status:       domain.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.ledger.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.index.Insert(order)
	return order, nil
}

// CancelTrigger flips a pending order to canceled and removes it from the
// index. The persistence write happens first; on failure the order stays
// pending and matchable.
func (s *OrderService) CancelTrigger(ctx context.Context, order *domain.TriggerOrder) error {
	if err := s.ledger.UpdateOrderStatus(ctx, order.ID, domain.StatusCanceled); err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	order.Status = domain.StatusCanceled
	s.index.Remove(order)
	return nil
}
