package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/adapters/memory"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/coordinator"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/history"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/ports"
)

var (
	customer      = domain.Actor{ID: "cust-1", Role: domain.RoleCustomer}
	otherCustomer = domain.Actor{ID: "cust-2", Role: domain.RoleCustomer}
	chef1         = domain.Actor{ID: "chef-1", Role: domain.RoleChef}
	chef2         = domain.Actor{ID: "chef-2", Role: domain.RoleChef}
	admin         = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}

	deliveryDetails = domain.DeliveryDetails{
		DeliveryType:    domain.DeliveryTypeDelivery,
		DeliveryAddress: &domain.Address{Street: "1 Main St", City: "Pune"},
		ContactNumber:   "9999999999",
	}
)

// memoryHistory is an in-memory history.Repository.
type memoryHistory struct {
	mu      sync.Mutex
	entries []history.Transition
	failing bool
}

func (h *memoryHistory) Save(ctx context.Context, t *history.Transition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failing {
		return errors.New("disk full")
	}
	h.entries = append(h.entries, *t)
	return nil
}

func (h *memoryHistory) List(ctx context.Context, orderID string) ([]history.Transition, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []history.Transition
	for _, e := range h.entries {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

// failingClear makes Clear fail a fixed number of times.
type failingClear struct {
	ports.CartRepository
	failures int
	calls    int
}

func (f *failingClear) Clear(ctx context.Context, customerID string) error {
	f.calls++
	if f.calls <= f.failures {
		return domain.Persistence("cart.clear", errors.New("connection reset"))
	}
	return f.CartRepository.Clear(ctx, customerID)
}

type fixture struct {
	store     *memory.Store
	history   *memoryHistory
	carts     *CartService
	checkout  *CheckoutService
	lifecycle *LifecycleService
	query     *QueryService
	clock     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.NewStore(),
		history: &memoryHistory{},
		clock:   time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
	f.store.PutItem(item("a", "chef-1", "100"))
	f.store.PutItem(item("b", "chef-1", "50"))
	f.store.PutItem(item("c", "chef-2", "20"))
	f.store.PutProfile(domain.Profile{ID: "cust-1", Name: "Ravi", Role: domain.RoleCustomer})
	f.store.PutProfile(domain.Profile{ID: "chef-1", Name: "Meera", Role: domain.RoleChef})

	f.carts = NewCartService(f.store.Carts(), f.store)
	f.checkout = f.newCheckout(f.store.Carts())
	f.lifecycle = NewLifecycleService(f.store.Orders(), f.history)
	f.query = NewQueryService(f.store.Orders(), f.store, f.store, f.history)
	return f
}

func (f *fixture) newCheckout(carts ports.CartRepository) *CheckoutService {
	svc := NewCheckoutService(carts, f.store.Orders(), f.store, f.store, f.history, coordinator.RetryPolicy{
		MaxTries:        3,
		InitialInterval: time.Millisecond,
		MaxElapsedTime:  time.Second,
	})
	ticks, ids := 0, 0
	svc.now = func() time.Time {
		ticks++
		return f.clock.Add(time.Duration(ticks) * time.Minute)
	}
	svc.newID = func() string {
		ids++
		return fmt.Sprintf("order-%d", ids)
	}
	return svc
}

func item(id, chefID, price string) domain.CatalogItem {
	return domain.CatalogItem{
		ID:        id,
		ChefID:    chefID,
		Name:      "dish " + id,
		Price:     decimal.RequireFromString(price),
		Available: true,
	}
}

func (f *fixture) add(t *testing.T, actor domain.Actor, itemID string, qty int) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), actor, itemID, qty)
	require.NoError(t, err)
}

// placeOrder fills the cart with one item of chef-1 and checks out.
func (f *fixture) placeOrder(t *testing.T, actor domain.Actor) *domain.Order {
	t.Helper()
	f.add(t, actor, "a", 1)
	o, err := f.checkout.CreateOrder(context.Background(), actor, deliveryDetails)
	require.NoError(t, err)
	return o
}
