// Package app holds the marketplace use cases: cart, checkout, order
// lifecycle and order queries. Services take the acting domain.Actor
// explicitly and depend only on ports.
package app

import (
	"context"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/history"
)

const instrumentationName = "github.com/jcmexdev/homechef-marketplace/internal/marketplace/app"

var tracer = otel.Tracer(instrumentationName)

// metrics are resolved from the global MeterProvider at construction time, so
// a provider installed in main before the services are built is picked up.
type metrics struct {
	ordersCreated      metric.Int64Counter
	transitionsApplied metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter(instrumentationName)
	fallback := noop.NewMeterProvider().Meter(instrumentationName)

	created, err := meter.Int64Counter("marketplace.orders.created",
		metric.WithDescription("Orders committed by checkout"))
	if err != nil {
		created, _ = fallback.Int64Counter("marketplace.orders.created")
	}
	applied, err := meter.Int64Counter("marketplace.order.transitions",
		metric.WithDescription("Order status transitions applied"))
	if err != nil {
		applied, _ = fallback.Int64Counter("marketplace.order.transitions")
	}
	return &metrics{ordersCreated: created, transitionsApplied: applied}
}

func requireRole(actor domain.Actor, op string, roles ...domain.Role) error {
	if !actor.Authenticated() {
		return domain.E(domain.KindNotAuthenticated, op, "authentication required")
	}
	if !slices.Contains(roles, actor.Role) {
		return domain.E(domain.KindForbidden, op, "role %s may not perform this action", actor.Role)
	}
	return nil
}

func startSpan(ctx context.Context, name string, actor domain.Actor) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("actor.id", actor.ID),
		attribute.String("actor.role", string(actor.Role)),
	))
}

// endSpan records err on the span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.KindOf(err)))
	}
	span.End()
}

// recordTransition appends to the history log. The order document is the
// source of truth, so a failed append is logged and otherwise ignored.
func recordTransition(ctx context.Context, repo history.Repository, orderID string, from, to domain.OrderStatus, actor domain.Actor) {
	if repo == nil {
		return
	}
	entry := history.NewEntry(ctx, orderID, from, to, actor)
	if err := repo.Save(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "failed to append order transition",
			"order_id", orderID, "from", from, "to", to, "error", err)
	}
}
