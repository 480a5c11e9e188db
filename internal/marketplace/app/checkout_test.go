package app

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/pkg/interceptors/constants"
)

func TestCheckout_SingleChefCartBecomesPendingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, customer, "a", 2)
	f.add(t, customer, "b", 1)

	order, err := f.checkout.CreateOrder(ctx, customer, deliveryDetails)
	require.NoError(t, err)

	assert.Equal(t, "250", order.TotalAmount.String())
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, "chef-1", order.ChefID)
	assert.Equal(t, customer.ID, order.CustomerID)
	require.Len(t, order.Items, 2)
	assert.Equal(t, domain.SumLines(order.Items), order.TotalAmount)
	assert.Equal(t, order.CreatedAt.Add(domain.EstimatedDeliveryWindow), order.EstimatedDeliveryTime)

	cart, err := f.carts.GetCart(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	stored, err := f.store.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.TotalAmount, stored.TotalAmount)

	entries, err := f.history.List(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OrderStatus(""), entries[0].From)
	assert.Equal(t, domain.StatusPending, entries[0].To)
}

func TestCheckout_PriceSnapshotSurvivesCatalogChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, customer, "a", 2)

	order, err := f.checkout.CreateOrder(ctx, customer, deliveryDetails)
	require.NoError(t, err)

	changed := item("a", "chef-1", "175")
	f.store.PutItem(changed)

	stored, err := f.store.Orders().Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "200", stored.TotalAmount.String())
	assert.True(t, stored.Items[0].UnitPrice.Equal(decimal.NewFromInt(100)))
}

func TestCheckout_MultiChefCartIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.add(t, customer, "a", 1)
	f.add(t, customer, "c", 1)

	_, err := f.checkout.CreateOrder(ctx, customer, deliveryDetails)
	require.ErrorIs(t, err, domain.ErrMultiChefOrder)

	orders, err := f.store.Orders().List(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	cart, err := f.carts.GetCart(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestCheckout_EmptyCart(t *testing.T) {
	t.Run("no cart", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.checkout.CreateOrder(context.Background(), customer, deliveryDetails)
		require.ErrorIs(t, err, domain.ErrEmptyCart)
	})

	t.Run("every item deleted from catalog", func(t *testing.T) {
		f := newFixture(t)
		f.add(t, customer, "a", 1)
		f.store.DeleteItem("a")

		_, err := f.checkout.CreateOrder(context.Background(), customer, deliveryDetails)
		require.ErrorIs(t, err, domain.ErrEmptyCart)
	})
}

func TestCheckout_SkipsDanglingLines(t *testing.T) {
	f := newFixture(t)
	f.add(t, customer, "a", 1)
	f.add(t, customer, "ghost", 3)

	order, err := f.checkout.CreateOrder(context.Background(), customer, deliveryDetails)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "100", order.TotalAmount.String())
}

func TestCheckout_ItemWithoutChefIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.store.PutItem(item("z", "", "5"))
	f.add(t, customer, "z", 1)
	f.add(t, customer, "c", 1)

	order, err := f.checkout.CreateOrder(context.Background(), customer, deliveryDetails)
	require.NoError(t, err)
	assert.Equal(t, "chef-2", order.ChefID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "c", order.Items[0].ItemID)

	t.Run("only ownerless items", func(t *testing.T) {
		f := newFixture(t)
		f.store.PutItem(item("z", "", "5"))
		f.add(t, customer, "z", 1)

		_, err := f.checkout.CreateOrder(context.Background(), customer, deliveryDetails)
		require.ErrorIs(t, err, domain.ErrEmptyCart)
	})
}

func TestCheckout_DeliveryDetailsValidation(t *testing.T) {
	tests := []struct {
		name    string
		details domain.DeliveryDetails
		wantErr bool
	}{
		{"missing contact", domain.DeliveryDetails{DeliveryType: domain.DeliveryTypePickup}, true},
		{"delivery without address", domain.DeliveryDetails{DeliveryType: domain.DeliveryTypeDelivery, ContactNumber: "1"}, true},
		{"delivery without city", domain.DeliveryDetails{
			DeliveryType:    domain.DeliveryTypeDelivery,
			ContactNumber:   "1",
			DeliveryAddress: &domain.Address{Street: "x"},
		}, true},
		{"unknown delivery type", domain.DeliveryDetails{DeliveryType: "drone", ContactNumber: "1"}, true},
		{"pickup without address", domain.DeliveryDetails{DeliveryType: domain.DeliveryTypePickup, ContactNumber: "1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.add(t, customer, "a", 1)

			order, err := f.checkout.CreateOrder(context.Background(), customer, tt.details)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Nil(t, order.DeliveryAddress)
		})
	}
}

func TestCheckout_RetriesCartClear(t *testing.T) {
	f := newFixture(t)
	carts := &failingClear{CartRepository: f.store.Carts(), failures: 2}
	f.add(t, customer, "a", 1)

	order, err := f.newCheckout(carts).CreateOrder(context.Background(), customer, deliveryDetails)
	require.NoError(t, err)
	assert.Equal(t, 3, carts.calls)

	cart, err := f.carts.GetCart(context.Background(), customer)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.NotEmpty(t, order.ID)
}

func TestCheckout_CompensatesWhenCartClearKeepsFailing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	carts := &failingClear{CartRepository: f.store.Carts(), failures: 100}
	f.add(t, customer, "a", 1)

	_, err := f.newCheckout(carts).CreateOrder(ctx, customer, deliveryDetails)
	require.ErrorIs(t, err, domain.ErrPersistence)

	orders, err := f.store.Orders().List(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)

	cart, err := f.carts.GetCart(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	assert.Empty(t, f.history.entries)
}

func TestCheckout_CapturesRequestMetadata(t *testing.T) {
	f := newFixture(t)
	f.add(t, customer, "a", 1)
	ctx := context.WithValue(context.Background(), constants.ContextKeyIdempotencyKey, "idem-1")
	ctx = context.WithValue(ctx, constants.ContextKeyRequestID, "req-1")

	order, err := f.checkout.CreateOrder(ctx, customer, deliveryDetails)
	require.NoError(t, err)
	assert.Equal(t, "idem-1", order.IdempotencyKey)
	assert.Equal(t, "req-1", order.RequestID)
}

func TestCheckout_OnlyCustomers(t *testing.T) {
	f := newFixture(t)

	_, err := f.checkout.CreateOrder(context.Background(), chef1, deliveryDetails)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.checkout.CreateOrder(context.Background(), domain.Actor{}, deliveryDetails)
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
}
