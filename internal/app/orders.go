package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tiendix/tiendix/internal/domain"
	"github.com/tiendix/tiendix/internal/scope"
)

// OrderLineInput is one requested line of a new order.
type OrderLineInput struct {
	SKU      string
	Quantity int
}

// OrderService orchestrates order creation and the fulfillment state machine.
type OrderService struct {
	orders    domain.OrderRepository
	variants  domain.VariantRepository
	validator domain.StatusValidator
	guard     *PermissionGuard
	receipts  domain.ReceiptPublisher
}

// NewOrderService creates a service with the given adapters.
func NewOrderService(orders domain.OrderRepository, variants domain.VariantRepository, validator domain.StatusValidator, guard *PermissionGuard, receipts domain.ReceiptPublisher) *OrderService {
	return &OrderService{
		orders:    orders,
		variants:  variants,
		validator: validator,
		guard:     guard,
		receipts:  receipts,
	}
}

// Create builds a PENDING order for the request's tenant, snapshotting each
// line's unit price from the variant. Creation has no ledger effect; stock
// moves only when the order transitions to FULFILLED.
func (s *OrderService) Create(ctx context.Context, buyerName, shippingAddress, buyerUserID, sessionID string, lines []OrderLineInput) (domain.Order, error) {
	tenant, err := scope.Tenant(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	if len(lines) == 0 {
		return domain.Order{}, &domain.ValidationError{Field: "lines", Value: "empty"}
	}

	orderID, err := generateID()
	if err != nil {
		return domain.Order{}, fmt.Errorf("generating order id: %w", err)
	}

	order := domain.Order{
		ID:              orderID,
		TenantID:        tenant.ID,
		BuyerUserID:     buyerUserID,
		SessionID:       sessionID,
		Status:          domain.StatusPending,
		BuyerName:       buyerName,
		ShippingAddress: shippingAddress,
		CreatedAt:       time.Now().UTC(),
	}

	for _, in := range lines {
		if in.Quantity <= 0 {
			return domain.Order{}, &domain.ValidationError{Field: "quantity", Value: fmt.Sprintf("%d", in.Quantity)}
		}
		variant, err := s.variants.GetBySKU(ctx, tenant.ID, in.SKU)
		if err != nil {
			return domain.Order{}, err
		}
		lineID, err := generateID()
		if err != nil {
			return domain.Order{}, fmt.Errorf("generating line id: %w", err)
		}
		subtotal := variant.PriceCents * int64(in.Quantity)
		order.Lines = append(order.Lines, domain.OrderLine{
			ID:             lineID,
			OrderID:        order.ID,
			VariantID:      variant.ID,
			SKU:            variant.SKU,
			Quantity:       in.Quantity,
			UnitPriceCents: variant.PriceCents,
			SubtotalCents:  subtotal,
		})
		order.TotalCents += subtotal
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("creating order: %w", err)
	}

	return order, nil
}

// Get returns an order scoped to the request's tenant.
func (s *OrderService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	tenant, err := scope.Tenant(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	return s.orders.GetByID(ctx, tenant.ID, orderID)
}

// Transition moves an order to the requested status, applying the matching
// ledger effect in the same transactional unit. Only a platform admin or the
// owning tenant's representative may request one.
//
// On PENDING to FULFILLED the receipt document job is enqueued fire-and-forget:
// its failure is logged and never converts the committed transition into an
// error.
func (s *OrderService) Transition(ctx context.Context, orderID, rawStatus string) (domain.Order, error) {
	tenant, err := scope.Tenant(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	identity, _ := scope.Identity(ctx)

	target, err := domain.ParseOrderStatus(rawStatus)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.orders.GetByID(ctx, tenant.ID, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.guard.Authorize(identity, tenant, order.TenantID); err != nil {
		return domain.Order{}, err
	}

	effect, err := s.validator.Apply(ctx, order.Status, target)
	if err != nil {
		return domain.Order{}, err
	}

	// Same-state requests are accepted but change nothing.
	if target == order.Status {
		return order, nil
	}

	if err := s.orders.ApplyTransition(ctx, order, target, effect); err != nil {
		return domain.Order{}, err
	}

	from := order.Status
	order.Status = target

	if from == domain.StatusPending && target == domain.StatusFulfilled {
		if err := s.receipts.Publish(ctx, order); err != nil {
			slog.ErrorContext(ctx, "enqueuing receipt document",
				"order_id", order.ID,
				"tenant_id", order.TenantID,
				"error", err,
			)
		}
	}

	return order, nil
}
