package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/parkiq/internal/domain"
)

const tracerName = "github.com/neomorfeo/parkiq/internal/adapter/otel"

// TracingPublisher wraps a domain.AuditPublisher with OpenTelemetry tracing.
type TracingPublisher struct {
	next   domain.AuditPublisher
	tracer trace.Tracer
}

// Compile-time check: TracingPublisher implements domain.AuditPublisher.
var _ domain.AuditPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.AuditPublisher) *TracingPublisher {
	return &TracingPublisher{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingPublisher) Publish(ctx context.Context, record domain.AuditRecord) error {
	ctx, span := p.tracer.Start(ctx, "AuditPublisher.Publish",
		trace.WithAttributes(
			attribute.String("token.id", record.TokenID),
			attribute.String("slot.id", record.SlotID),
			attribute.String("vehicle.registration", record.Registration),
		),
	)
	defer span.End()

	err := p.next.Publish(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
