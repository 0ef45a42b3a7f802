package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tiendix/tiendix/internal/domain"
)

// TracingReceiptPublisher wraps a domain.ReceiptPublisher with OpenTelemetry tracing.
type TracingReceiptPublisher struct {
	next   domain.ReceiptPublisher
	tracer trace.Tracer
}

// Compile-time check: TracingReceiptPublisher implements domain.ReceiptPublisher.
var _ domain.ReceiptPublisher = (*TracingReceiptPublisher)(nil)

// NewTracingReceiptPublisher creates a tracing decorator around the given publisher.
func NewTracingReceiptPublisher(next domain.ReceiptPublisher) *TracingReceiptPublisher {
	return &TracingReceiptPublisher{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingReceiptPublisher) Publish(ctx context.Context, order domain.Order) error {
	ctx, span := p.tracer.Start(ctx, "ReceiptPublisher.Publish",
		trace.WithAttributes(
			attribute.String("order.id", order.ID),
			attribute.String("tenant.id", order.TenantID),
			attribute.Int64("order.total_cents", order.TotalCents),
		),
	)
	defer span.End()

	err := p.next.Publish(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
