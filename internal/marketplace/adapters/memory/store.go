// Package memory is an in-process store implementing every marketplace port.
// It backs STORE_DRIVER=memory for local runs and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/ports"
)

var (
	_ ports.CartRepository  = (*CartRepository)(nil)
	_ ports.OrderRepository = (*OrderRepository)(nil)
	_ ports.CatalogReader   = (*Store)(nil)
	_ ports.ActorDirectory  = (*Store)(nil)
	_ ports.Transactor      = (*Store)(nil)
)

// Store keeps every collection behind one RWMutex. Values are copied on the
// way in and out so callers never share memory with the store. Carts and
// Orders expose the two repositories that share it.
type Store struct {
	mu       sync.RWMutex
	carts    map[string]*domain.Cart
	orders   map[string]*domain.Order
	catalog  map[string]domain.CatalogItem
	profiles map[string]domain.Profile
}

func NewStore() *Store {
	return &Store{
		carts:    make(map[string]*domain.Cart),
		orders:   make(map[string]*domain.Order),
		catalog:  make(map[string]domain.CatalogItem),
		profiles: make(map[string]domain.Profile),
	}
}

// PutItem inserts or replaces a catalog item.
func (s *Store) PutItem(item domain.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[item.ID] = item
}

// DeleteItem removes a catalog item, leaving any cart references dangling.
func (s *Store) DeleteItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.catalog, id)
}

// PutProfile inserts or replaces a directory profile.
func (s *Store) PutProfile(p domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

// Carts returns the cart repository view of the store.
func (s *Store) Carts() *CartRepository { return &CartRepository{s: s} }

// Orders returns the order repository view of the store.
func (s *Store) Orders() *OrderRepository { return &OrderRepository{s: s} }

// --- carts ---

type CartRepository struct{ s *Store }

func (r *CartRepository) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if c, ok := r.s.carts[customerID]; ok {
		return c.Clone(), nil
	}
	return &domain.Cart{CustomerID: customerID, Items: []domain.CartItem{}}, nil
}

func (r *CartRepository) AddItem(ctx context.Context, customerID, itemID string, quantity int) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[customerID]
	if !ok {
		c = &domain.Cart{CustomerID: customerID, Items: []domain.CartItem{}}
		r.s.carts[customerID] = c
	}
	c.Add(itemID, quantity)
	return c.Clone(), nil
}

func (r *CartRepository) RemoveItem(ctx context.Context, customerID, itemID string) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[customerID]
	if !ok {
		return &domain.Cart{CustomerID: customerID, Items: []domain.CartItem{}}, nil
	}
	c.Remove(itemID)
	return c.Clone(), nil
}

func (r *CartRepository) Clear(ctx context.Context, customerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.carts[customerID]; ok {
		c.Clear()
	}
	return nil
}

// --- orders ---

type OrderRepository struct{ s *Store }

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[order.ID]; ok {
		return domain.E(domain.KindConflict, "order.create", "order %s already exists", order.ID)
	}
	r.s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.E(domain.KindNotFound, "order.get", "order %s not found", id)
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (*domain.Order, error) {
	const op = "order.update_status"
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.E(domain.KindNotFound, op, "order %s not found", id)
	}
	if o.Status != from {
		return nil, domain.E(domain.KindInvalidStateTransition, op,
			"order %s changed to %s concurrently", id, o.Status)
	}
	o.Status = to
	o.UpdatedAt = at
	return cloneOrder(o), nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.orders, id)
	return nil
}

func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	r.s.mu.RLock()
	out := make([]domain.Order, 0)
	for _, o := range r.s.orders {
		if filter.Matches(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *OrderRepository) Stats(ctx context.Context) (domain.OrderStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stats := domain.OrderStats{TotalRevenue: decimal.Zero}
	for _, o := range r.s.orders {
		stats.TotalOrders++
		switch o.Status {
		case domain.StatusPending:
			stats.PendingOrders++
		case domain.StatusDelivered:
			stats.CompletedOrders++
			stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalAmount)
		}
	}
	return stats, nil
}

// --- catalog and directory ---

func (s *Store) GetItems(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.CatalogItem, len(ids))
	for _, id := range ids {
		if it, ok := s.catalog[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

func (s *Store) CountItems(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.catalog)), nil
}

func (s *Store) Profiles(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Profile, len(ids))
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *Store) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, p := range s.profiles {
		if p.Role == role {
			n++
		}
	}
	return n, nil
}

// WithinTransaction runs fn directly; the store has no rollback, so checkout
// relies on saga compensation.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.LineItem(nil), o.Items...)
	if o.DeliveryAddress != nil {
		addr := *o.DeliveryAddress
		if addr.Coordinates != nil {
			coords := *addr.Coordinates
			addr.Coordinates = &coords
		}
		c.DeliveryAddress = &addr
	}
	return &c
}
