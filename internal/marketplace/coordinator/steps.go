package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/ports"
)

// --- PersistOrderStep ---

type PersistOrderStep struct {
	orders ports.OrderRepository
	order  *domain.Order
}

func NewPersistOrderStep(orders ports.OrderRepository, order *domain.Order) *PersistOrderStep {
	return &PersistOrderStep{orders: orders, order: order}
}

func (s *PersistOrderStep) Name() string { return "Persist_Order_Step" }

func (s *PersistOrderStep) Execute(ctx context.Context) error {
	if err := s.orders.Create(ctx, s.order); err != nil {
		return fmt.Errorf("persist order: %w", err)
	}
	return nil
}

// Compensate removes the order so a failed checkout leaves no trace. This is
// the only path that ever deletes an order.
func (s *PersistOrderStep) Compensate(ctx context.Context) error {
	return s.orders.Delete(ctx, s.order.ID)
}

// --- ClearCartStep ---

// RetryPolicy bounds the retries of the cart-clear step.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy retries five times over at most five seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTries:        5,
		InitialInterval: 50 * time.Millisecond,
		MaxElapsedTime:  5 * time.Second,
	}
}

type ClearCartStep struct {
	carts      ports.CartRepository
	customerID string
	policy     RetryPolicy
}

func NewClearCartStep(carts ports.CartRepository, customerID string, policy RetryPolicy) *ClearCartStep {
	return &ClearCartStep{carts: carts, customerID: customerID, policy: policy}
}

func (s *ClearCartStep) Name() string { return "Clear_Cart_Step" }

// Execute empties the cart, retrying persistence failures with exponential
// backoff. Any other error kind stops immediately.
func (s *ClearCartStep) Execute(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.policy.InitialInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := s.carts.Clear(ctx, s.customerID)
		if err == nil {
			return struct{}{}, nil
		}
		if !errors.Is(err, domain.ErrPersistence) {
			return struct{}{}, backoff.Permanent(err)
		}
		slog.WarnContext(ctx, "cart clear failed, retrying",
			"customer_id", s.customerID, "attempt", attempt, "error", err)
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.policy.MaxTries),
		backoff.WithMaxElapsedTime(s.policy.MaxElapsedTime),
	)
	if err != nil {
		return fmt.Errorf("clear cart after %d attempts: %w", attempt, err)
	}
	return nil
}

// Compensate is a no-op: this is the last step, and an emptied cart cannot
// be told apart from one the customer emptied.
func (s *ClearCartStep) Compensate(ctx context.Context) error {
	return nil
}
