package domain

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusFulfilled OrderStatus = "FULFILLED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus validates a raw status string. Anything outside the three
// known statuses is a validation failure, never a silent no-op.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch OrderStatus(raw) {
	case StatusPending, StatusFulfilled, StatusCancelled:
		return OrderStatus(raw), nil
	default:
		return "", &ValidationError{Field: "status", Value: raw}
	}
}

// LedgerEffect describes what a status transition does to the inventory ledger.
type LedgerEffect int

const (
	EffectNone    LedgerEffect = iota
	EffectReserve              // decrement stock for every line
	EffectRelease              // return every line's quantity to stock
)

// OrderTransition defines a valid state change and its ledger effect.
type OrderTransition struct {
	From   OrderStatus
	To     OrderStatus
	Effect LedgerEffect
}

// OrderTransitions defines every cross-state change in the order lifecycle.
// Same-state requests are accepted as no-ops and are not listed here.
// This is domain knowledge consumed by the FSM adapter.
var OrderTransitions = []OrderTransition{
	{From: StatusPending, To: StatusFulfilled, Effect: EffectReserve},
	{From: StatusFulfilled, To: StatusPending, Effect: EffectRelease},
	{From: StatusFulfilled, To: StatusCancelled, Effect: EffectRelease},
	{From: StatusCancelled, To: StatusFulfilled, Effect: EffectReserve},
	{From: StatusPending, To: StatusCancelled, Effect: EffectNone},
	{From: StatusCancelled, To: StatusPending, Effect: EffectNone},
}

// Order is a customer purchase record (boleta) composed of order lines.
// It exclusively owns its lines: their lifetime is bounded by the order's.
type Order struct {
	ID              string
	TenantID        string
	BuyerUserID     string // optional authenticated buyer
	SessionID       string // optional anonymous session
	Status          OrderStatus
	TotalCents      int64
	BuyerName       string
	ShippingAddress string
	Lines           []OrderLine
	CreatedAt       time.Time
}

// OrderLine references one variant with a quantity and a price snapshot
// taken at order creation. Lines are immutable once the order exists.
type OrderLine struct {
	ID             string
	OrderID        string
	VariantID      string
	SKU            string
	Quantity       int
	UnitPriceCents int64
	SubtotalCents  int64
}
