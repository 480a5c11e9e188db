package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EstimatedDeliveryWindow is added to the creation time of every order.
const EstimatedDeliveryWindow = 60 * time.Minute

type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypePickup   DeliveryType = "pickup"
)

func (d DeliveryType) Valid() bool {
	return d == DeliveryTypeDelivery || d == DeliveryTypePickup
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Address struct {
	Street      string       `json:"street"`
	City        string       `json:"city"`
	State       string       `json:"state,omitempty"`
	ZipCode     string       `json:"zipCode,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// LineItem snapshots the catalog price (and name, for display) at order time.
type LineItem struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
}

func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID                    string          `json:"id"`
	CustomerID            string          `json:"customerId"`
	ChefID                string          `json:"chefId"`
	Items                 []LineItem      `json:"items"`
	TotalAmount           decimal.Decimal `json:"totalAmount"`
	Status                OrderStatus     `json:"status"`
	DeliveryType          DeliveryType    `json:"deliveryType"`
	DeliveryAddress       *Address        `json:"deliveryAddress,omitempty"`
	ContactNumber         string          `json:"contactNumber"`
	SpecialInstructions   string          `json:"specialInstructions"`
	IdempotencyKey        string          `json:"-"`
	RequestID             string          `json:"-"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
	EstimatedDeliveryTime time.Time       `json:"estimatedDeliveryTime"`
}

// SumLines computes the order total from its line items.
func SumLines(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// DeliveryDetails is the checkout input supplied by the customer.
type DeliveryDetails struct {
	DeliveryType        DeliveryType
	DeliveryAddress     *Address
	ContactNumber       string
	SpecialInstructions string
}

// Validate enforces the contact number requirement and that an address with
// street and city is present iff the order is delivered.
func (d DeliveryDetails) Validate() error {
	const op = "order.validate"

	if !d.DeliveryType.Valid() {
		return E(KindValidation, op, "deliveryType must be %q or %q", DeliveryTypeDelivery, DeliveryTypePickup)
	}
	if strings.TrimSpace(d.ContactNumber) == "" {
		return E(KindValidation, op, "contactNumber is required")
	}
	if d.DeliveryType == DeliveryTypeDelivery {
		if d.DeliveryAddress == nil ||
			strings.TrimSpace(d.DeliveryAddress.Street) == "" ||
			strings.TrimSpace(d.DeliveryAddress.City) == "" {
			return E(KindValidation, op, "deliveryAddress street and city are required for delivery")
		}
	}
	return nil
}

// OrderFilter narrows an order listing. Zero values mean "no constraint".
type OrderFilter struct {
	CustomerID string
	ChefID     string
	Status     OrderStatus
	From       *time.Time
	To         *time.Time
	Limit      int
}

// Matches applies the filter to a single order.
func (f OrderFilter) Matches(o *Order) bool {
	if f.CustomerID != "" && o.CustomerID != f.CustomerID {
		return false
	}
	if f.ChefID != "" && o.ChefID != f.ChefID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.From != nil && o.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && o.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// OrderStats backs the admin dashboard. Completed means delivered; revenue
// sums delivered orders only.
type OrderStats struct {
	TotalOrders     int64           `json:"totalOrders"`
	PendingOrders   int64           `json:"pendingOrders"`
	CompletedOrders int64           `json:"completedOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
}
