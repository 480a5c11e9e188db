package history

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo reads the active span from ctx. Both fields are empty when
// the context carries no valid span, e.g. in unit tests.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds a Transition stamped with the trace info found in ctx.
//
//	entry := history.NewEntry(ctx, order.ID, domain.StatusPending, domain.StatusConfirmed, actor)
//	_ = repo.Save(ctx, entry)
func NewEntry(ctx context.Context, orderID string, from, to domain.OrderStatus, actor domain.Actor) *Transition {
	ti := ExtractTraceInfo(ctx)
	return &Transition{
		OrderID:   orderID,
		From:      from,
		To:        to,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		TraceID:   ti.TraceID,
		SpanID:    ti.SpanID,
		At:        time.Now().UTC(),
	}
}
