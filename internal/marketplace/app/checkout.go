package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/coordinator"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/history"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/ports"
	"github.com/jcmexdev/homechef-marketplace/internal/pkg/interceptors/constants"
)

// CheckoutService turns a customer's cart into a pending order.
type CheckoutService struct {
	carts   ports.CartRepository
	orders  ports.OrderRepository
	catalog ports.CatalogReader
	tx      ports.Transactor
	history history.Repository
	retry   coordinator.RetryPolicy
	metrics *metrics

	now   func() time.Time
	newID func() string
}

// NewCheckoutService wires the checkout. catalog must not be cached: the
// order snapshots prices as of checkout. hist may be nil.
func NewCheckoutService(
	carts ports.CartRepository,
	orders ports.OrderRepository,
	catalog ports.CatalogReader,
	tx ports.Transactor,
	hist history.Repository,
	retry coordinator.RetryPolicy,
) *CheckoutService {
	return &CheckoutService{
		carts:   carts,
		orders:  orders,
		catalog: catalog,
		tx:      tx,
		history: hist,
		retry:   retry,
		metrics: newMetrics(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// CreateOrder builds an order from the actor's cart and empties the cart.
// Either both happen or neither is visible.
func (s *CheckoutService) CreateOrder(ctx context.Context, actor domain.Actor, details domain.DeliveryDetails) (_ *domain.Order, err error) {
	const op = "order.create"
	ctx, span := startSpan(ctx, "CheckoutService.CreateOrder", actor)
	defer func() { endSpan(span, err) }()

	if err := requireRole(actor, op, domain.RoleCustomer); err != nil {
		return nil, err
	}

	cart, err := s.carts.Get(ctx, actor.ID)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	catalog, err := s.catalog.GetItems(ctx, cart.ItemIDs())
	if err != nil {
		return nil, domain.Persistence(op, err)
	}

	lines, chefID, err := buildLines(op, cart, catalog)
	if err != nil {
		return nil, err
	}
	total := domain.SumLines(lines)

	if err := details.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &domain.Order{
		ID:                    s.newID(),
		CustomerID:            actor.ID,
		ChefID:                chefID,
		Items:                 lines,
		TotalAmount:           total,
		Status:                domain.StatusPending,
		DeliveryType:          details.DeliveryType,
		ContactNumber:         details.ContactNumber,
		SpecialInstructions:   details.SpecialInstructions,
		CreatedAt:             now,
		UpdatedAt:             now,
		EstimatedDeliveryTime: now.Add(domain.EstimatedDeliveryWindow),
	}
	if details.DeliveryType == domain.DeliveryTypeDelivery {
		order.DeliveryAddress = details.DeliveryAddress
	}
	order.IdempotencyKey = constants.IdempotencyKey(ctx)
	order.RequestID = constants.RequestID(ctx)

	span.SetAttributes(attribute.String("order.id", order.ID), attribute.String("order.chef_id", chefID))

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		saga := coordinator.NewOrchestrator(order.ID,
			coordinator.NewPersistOrderStep(s.orders, order),
			coordinator.NewClearCartStep(s.carts, actor.ID, s.retry),
		)
		return saga.Start(txCtx)
	})
	if err != nil {
		slog.ErrorContext(ctx, "checkout failed", "order_id", order.ID, "customer_id", actor.ID, "error", err)
		return nil, domain.Persistence(op, err)
	}

	recordTransition(ctx, s.history, order.ID, "", domain.StatusPending, actor)
	s.metrics.ordersCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("delivery_type", string(order.DeliveryType)),
	))
	slog.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"customer_id", actor.ID,
		"chef_id", chefID,
		"total", total.String(),
		"request_id", order.RequestID,
	)
	return order, nil
}

// buildLines resolves cart entries against the catalog, skipping dangling
// ones, and enforces the single-chef rule. An item without an owning chef
// cannot be attributed to any order and counts as dangling.
func buildLines(op string, cart *domain.Cart, catalog map[string]domain.CatalogItem) ([]domain.LineItem, string, error) {
	lines := make([]domain.LineItem, 0, len(cart.Items))
	chefID := ""
	for _, it := range cart.Items {
		item, ok := catalog[it.ItemID]
		if !ok || item.ChefID == "" {
			continue
		}
		if len(lines) == 0 {
			chefID = item.ChefID
		} else if item.ChefID != chefID {
			return nil, "", domain.E(domain.KindMultiChefOrder, op, "all items in an order must come from the same chef")
		}
		lines = append(lines, domain.LineItem{
			ItemID:    it.ItemID,
			Name:      item.Name,
			Quantity:  it.Quantity,
			UnitPrice: item.Price,
		})
	}
	if len(lines) == 0 {
		return nil, "", domain.E(domain.KindEmptyCart, op, "cart is empty")
	}
	return lines, chefID, nil
}
