// Package ports declares the storage and collaborator interfaces the
// marketplace services depend on. Adapters live under adapters/.
package ports

import (
	"context"
	"time"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
)

// CartRepository stores one cart document per customer. Every method is
// atomic for the single document it touches.
type CartRepository interface {
	// Get returns the customer's cart, or an empty cart when none exists yet.
	Get(ctx context.Context, customerID string) (*domain.Cart, error)
	// AddItem creates the cart lazily and merges quantity into the entry.
	AddItem(ctx context.Context, customerID, itemID string, quantity int) (*domain.Cart, error)
	// RemoveItem drops the entry if present.
	RemoveItem(ctx context.Context, customerID, itemID string) (*domain.Cart, error)
	// Clear empties the item list; the cart document itself persists.
	Clear(ctx context.Context, customerID string) error
}

// OrderRepository persists orders. Orders are never deleted once a checkout
// commits; Delete exists only to compensate a checkout that failed midway.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	// UpdateStatus moves the order from -> to only if it is still in from.
	// It returns domain.ErrNotFound for unknown ids and
	// domain.ErrInvalidStateTransition when the status changed underneath.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (*domain.Order, error)
	Delete(ctx context.Context, id string) error
	// List returns matching orders, newest first.
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	Stats(ctx context.Context) (domain.OrderStats, error)
}

// CatalogReader resolves menu items. Unknown ids are absent from the result
// rather than reported as errors.
type CatalogReader interface {
	GetItems(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error)
	CountItems(ctx context.Context) (int64, error)
}

// ActorDirectory looks up display profiles of customers and chefs. Unknown ids
// are absent from the result.
type ActorDirectory interface {
	Profiles(ctx context.Context, ids []string) (map[string]domain.Profile, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// Transactor runs fn inside a storage transaction when the backend supports
// one; otherwise fn runs directly on ctx.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
