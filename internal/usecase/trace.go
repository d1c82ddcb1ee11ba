package usecase

import (
	"context"

	"github.com/riskibarqy/nleaderboard/internal/domain/highscoreable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("nleaderboard/internal/usecase")

// startSpan only opens a child span; without a traced parent, such as a
// CLI run with tracing off, it returns the context's no-op span.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func boardAttrs(ref highscoreable.Ref) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("board.kind", string(ref.Kind)),
		attribute.Int64("board.id", ref.ID),
	}
}

// failSpan marks the span failed and passes err through.
func failSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).Reason())
	}
	return err
}
