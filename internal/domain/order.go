package domain

import (
	"fmt"
	"time"
)

// Side of a trigger order.
type Side string

const (
	SideBuy  Side = "B"
	SideSell Side = "S"
)

// OrderStatus is the closed lifecycle set persisted in the ledger.
type OrderStatus string

const (
	StatusPending  OrderStatus = "P"
	StatusExecuted OrderStatus = "E"
	StatusCanceled OrderStatus = "C"
)

func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideBuy, SideSell:
		return Side(s), nil
	}
	return "", fmt.Errorf("invalid order side %q", s)
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusExecuted, StatusCanceled:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("invalid order status %q", s)
}

// TriggerOrder is a standing instruction to trade once the market price
// crosses the target. The ledger is the system of record; in-memory copies
// live in the trigger index only while the status is pending.
type TriggerOrder struct {
	ID           string
	UserID       int64
	InstrumentID int
	Side         Side
	Quantity     int64
	TargetPrice  float64
	Status       OrderStatus
	CreatedAt    time.Time
}

// Matches reports whether the order fires at the given market price:
// a buy fires at or below target, a sell at or above.
func (o *TriggerOrder) Matches(price float64) bool {
	switch o.Side {
	case SideBuy:
		return price <= o.TargetPrice
	case SideSell:
		return price >= o.TargetPrice
	}
	return false
}

// ExecutionEvent is the private notice pushed to an order's owner when it
// executes.
type ExecutionEvent struct {
	Type         string  `json:"type"`
	InstrumentID int     `json:"stock_id"`
	Price        float64 `json:"price"`
	Quantity     int64   `json:"quantity"`
	Side         Side    `json:"side"`
}

func NewExecutionEvent(o *TriggerOrder, price float64) ExecutionEvent {
	return ExecutionEvent{
		Type:         "ORDER_EXECUTED",
		InstrumentID: o.InstrumentID,
		Price:        price,
		Quantity:     o.Quantity,
		Side:         o.Side,
	}
}
