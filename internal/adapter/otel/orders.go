package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tiendix/tiendix/internal/domain"
)

const tracerName = "github.com/tiendix/tiendix/internal/adapter/otel"

// TracingOrderRepository wraps a domain.OrderRepository with OpenTelemetry
// tracing. Each method creates a span with semantic attributes and records
// errors; the transition span carries the requested status so an oversell
// rejection is visible in traces.
type TracingOrderRepository struct {
	next   domain.OrderRepository
	tracer trace.Tracer
}

// Compile-time check: TracingOrderRepository implements domain.OrderRepository.
var _ domain.OrderRepository = (*TracingOrderRepository)(nil)

// NewTracingOrderRepository creates a tracing decorator around the given repository.
func NewTracingOrderRepository(next domain.OrderRepository) *TracingOrderRepository {
	return &TracingOrderRepository{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (r *TracingOrderRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.Create",
		trace.WithAttributes(
			attribute.String("order.id", order.ID),
			attribute.String("tenant.id", order.TenantID),
			attribute.Int("order.line_count", len(order.Lines)),
		),
	)
	defer span.End()

	err := r.next.Create(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracingOrderRepository) GetByID(ctx context.Context, tenantID, id string) (domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByID",
		trace.WithAttributes(
			attribute.String("order.id", id),
			attribute.String("tenant.id", tenantID),
		),
	)
	defer span.End()

	order, err := r.next.GetByID(ctx, tenantID, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return order, err
}

func (r *TracingOrderRepository) ApplyTransition(ctx context.Context, order domain.Order, to domain.OrderStatus, effect domain.LedgerEffect) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.ApplyTransition",
		trace.WithAttributes(
			attribute.String("order.id", order.ID),
			attribute.String("tenant.id", order.TenantID),
			attribute.String("order.status.from", string(order.Status)),
			attribute.String("order.status.to", string(to)),
		),
	)
	defer span.End()

	err := r.next.ApplyTransition(ctx, order, to, effect)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
