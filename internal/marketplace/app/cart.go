package app

import (
	"context"
	"strings"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/ports"
)

// CartService manages the customer's basket. The catalog it resolves lines
// against may be cached; cart contents are display data.
type CartService struct {
	carts   ports.CartRepository
	catalog ports.CatalogReader
}

func NewCartService(carts ports.CartRepository, catalog ports.CatalogReader) *CartService {
	return &CartService{carts: carts, catalog: catalog}
}

// AddItem merges quantity of itemID into the actor's cart. The item is not
// checked against the catalog here; dangling ids show up as unavailable.
func (s *CartService) AddItem(ctx context.Context, actor domain.Actor, itemID string, quantity int) (_ *domain.CartView, err error) {
	const op = "cart.add_item"
	ctx, span := startSpan(ctx, "CartService.AddItem", actor)
	defer func() { endSpan(span, err) }()

	if err := requireRole(actor, op, domain.RoleCustomer); err != nil {
		return nil, err
	}
	if strings.TrimSpace(itemID) == "" {
		return nil, domain.E(domain.KindValidation, op, "itemId is required")
	}
	if quantity < 1 {
		return nil, domain.E(domain.KindValidation, op, "quantity must be at least 1")
	}

	cart, err := s.carts.AddItem(ctx, actor.ID, itemID, quantity)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return s.resolve(ctx, op, cart)
}

// RemoveItem drops itemID from the cart. Absent items are not an error.
func (s *CartService) RemoveItem(ctx context.Context, actor domain.Actor, itemID string) (_ *domain.CartView, err error) {
	const op = "cart.remove_item"
	ctx, span := startSpan(ctx, "CartService.RemoveItem", actor)
	defer func() { endSpan(span, err) }()

	if err := requireRole(actor, op, domain.RoleCustomer); err != nil {
		return nil, err
	}
	if strings.TrimSpace(itemID) == "" {
		return nil, domain.E(domain.KindValidation, op, "itemId is required")
	}

	cart, err := s.carts.RemoveItem(ctx, actor.ID, itemID)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return s.resolve(ctx, op, cart)
}

// GetCart returns the resolved cart, empty when the customer has none yet.
func (s *CartService) GetCart(ctx context.Context, actor domain.Actor) (_ *domain.CartView, err error) {
	const op = "cart.get"
	ctx, span := startSpan(ctx, "CartService.GetCart", actor)
	defer func() { endSpan(span, err) }()

	if err := requireRole(actor, op, domain.RoleCustomer); err != nil {
		return nil, err
	}
	cart, err := s.carts.Get(ctx, actor.ID)
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	return s.resolve(ctx, op, cart)
}

// ClearCart empties the customer's cart in place.
func (s *CartService) ClearCart(ctx context.Context, customerID string) error {
	if err := s.carts.Clear(ctx, customerID); err != nil {
		return domain.Persistence("cart.clear", err)
	}
	return nil
}

func (s *CartService) resolve(ctx context.Context, op string, cart *domain.Cart) (*domain.CartView, error) {
	items, err := s.catalog.GetItems(ctx, cart.ItemIDs())
	if err != nil {
		return nil, domain.Persistence(op, err)
	}
	view := cart.Resolve(items)
	return &view, nil
}
