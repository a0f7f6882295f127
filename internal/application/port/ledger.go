package port

import (
	"context"
	"errors"

	"stockpulse/internal/domain"
)

// ErrInsufficientHoldings is returned by ApplySell when the requested
// quantity exceeds the held position. Execution fails closed; nothing is
// truncated or partially filled.
var ErrInsufficientHoldings = errors.New("insufficient holdings")

// Position is a user's holding in one instrument.
type Position struct {
	UserID       int64
	InstrumentID int
	Quantity     int64
	EntryPrice   float64
}

// Ledger is the persistence collaborator owning orders, positions and
// transactions. Each Apply call is atomic: either the position update and
// the transaction row both commit, or neither does.
type Ledger interface {
	// Order operations
	LoadPendingOrders(ctx context.Context) ([]*domain.TriggerOrder, error)
	CreateOrder(ctx context.Context, o *domain.TriggerOrder) error
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error

	// Execution operations
	ApplyBuy(ctx context.Context, userID int64, instrumentID int, quantity int64, price float64) error
	ApplySell(ctx context.Context, userID int64, instrumentID int, quantity int64, price float64) error

	// Position operations
	ListPositions(ctx context.Context, userID int64) ([]Position, error)

	Close() error
}
