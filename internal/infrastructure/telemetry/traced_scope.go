package telemetry

import (
	"context"

	appinventory "github.com/marketplace/inventory/internal/application/inventory"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracedTransactionScope wraps a TransactionScope in a span per unit of work.
type TracedTransactionScope struct {
	next   appinventory.TransactionScope
	tracer trace.Tracer
}

// NewTracedTransactionScope wraps next; spans come from tracer.
func NewTracedTransactionScope(next appinventory.TransactionScope, tracer trace.Tracer) *TracedTransactionScope {
	return &TracedTransactionScope{next: next, tracer: tracer}
}

// Execute runs fn in the wrapped scope inside an "inventory.unit_of_work" span.
func (s *TracedTransactionScope) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	ctx, span := s.tracer.Start(ctx, "inventory.unit_of_work", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	err := s.next.Execute(ctx, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

var _ appinventory.TransactionScope = (*TracedTransactionScope)(nil)
