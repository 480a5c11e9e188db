package app

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/history"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/ports"
)

// LifecycleService applies status transitions on behalf of an actor.
type LifecycleService struct {
	orders  ports.OrderRepository
	history history.Repository
	metrics *metrics
	now     func() time.Time
}

// NewLifecycleService wires the state machine. hist may be nil.
func NewLifecycleService(orders ports.OrderRepository, hist history.Repository) *LifecycleService {
	return &LifecycleService{
		orders:  orders,
		history: hist,
		metrics: newMetrics(),
		now:     time.Now,
	}
}

// Transition moves the order to the target status if the actor's role and
// ownership allow it. The write only succeeds if the status has not changed
// since it was read.
func (s *LifecycleService) Transition(ctx context.Context, actor domain.Actor, orderID string, to domain.OrderStatus) (_ *domain.Order, err error) {
	const op = "order.transition"
	ctx, span := startSpan(ctx, "LifecycleService.Transition", actor)
	span.SetAttributes(attribute.String("order.id", orderID), attribute.String("order.to", string(to)))
	defer func() { endSpan(span, err) }()

	if !actor.Authenticated() {
		return nil, domain.E(domain.KindNotAuthenticated, op, "authentication required")
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	if err := domain.AuthorizeTransition(actor, order, to); err != nil {
		return nil, err
	}

	from := order.Status
	updated, err := s.orders.UpdateStatus(ctx, orderID, from, to, s.now().UTC())
	if err != nil {
		return nil, domain.Persistence(op, err)
	}

	recordTransition(ctx, s.history, orderID, from, to, actor)
	s.metrics.transitionsApplied.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
		attribute.String("role", string(actor.Role)),
	))
	slog.InfoContext(ctx, "order status changed",
		"order_id", orderID, "from", from, "to", to, "actor_id", actor.ID, "actor_role", actor.Role)
	return updated, nil
}

// Cancel is the customer-facing cancellation.
func (s *LifecycleService) Cancel(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	if err := requireRole(actor, "order.cancel", domain.RoleCustomer); err != nil {
		return nil, err
	}
	return s.Transition(ctx, actor, orderID, domain.StatusCancelled)
}

// ChefUpdate applies a chef-requested status change.
func (s *LifecycleService) ChefUpdate(ctx context.Context, actor domain.Actor, orderID string, to domain.OrderStatus) (*domain.Order, error) {
	if err := requireRole(actor, "order.chef_update", domain.RoleChef); err != nil {
		return nil, err
	}
	return s.Transition(ctx, actor, orderID, to)
}

// AdminUpdate applies an administrative override.
func (s *LifecycleService) AdminUpdate(ctx context.Context, actor domain.Actor, orderID string, to domain.OrderStatus) (*domain.Order, error) {
	if err := requireRole(actor, "order.admin_update", domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.Transition(ctx, actor, orderID, to)
}
