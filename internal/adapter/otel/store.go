package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/parkiq/internal/domain"
)

// TracingStore wraps a domain.AuditStore with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
type TracingStore struct {
	next   domain.AuditStore
	tracer trace.Tracer
}

// Compile-time check: TracingStore implements domain.AuditStore.
var _ domain.AuditStore = (*TracingStore)(nil)

// NewTracingStore creates a tracing decorator around the given store.
func NewTracingStore(next domain.AuditStore) *TracingStore {
	return &TracingStore{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *TracingStore) Append(ctx context.Context, record domain.AuditRecord) error {
	ctx, span := s.tracer.Start(ctx, "AuditStore.Append",
		trace.WithAttributes(
			attribute.String("token.id", record.TokenID),
			attribute.String("slot.id", record.SlotID),
		),
	)
	defer span.End()

	err := s.next.Append(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *TracingStore) List(ctx context.Context, limit, offset int) ([]domain.AuditRecord, error) {
	ctx, span := s.tracer.Start(ctx, "AuditStore.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", limit),
			attribute.Int("filter.offset", offset),
		),
	)
	defer span.End()

	records, err := s.next.List(ctx, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(records)))
	}
	return records, err
}
