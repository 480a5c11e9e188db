package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
)

type cartItemDoc struct {
	ItemID   string `bson:"itemId"`
	Quantity int    `bson:"quantity"`
}

type cartDoc struct {
	CustomerID string        `bson:"_id"`
	Items      []cartItemDoc `bson:"items"`
	UpdatedAt  time.Time     `bson:"updatedAt"`
}

func (d cartDoc) toDomain() *domain.Cart {
	c := &domain.Cart{CustomerID: d.CustomerID, Items: make([]domain.CartItem, 0, len(d.Items))}
	for _, it := range d.Items {
		c.Items = append(c.Items, domain.CartItem{ItemID: it.ItemID, Quantity: it.Quantity})
	}
	return c
}

type coordinatesDoc struct {
	Latitude  float64 `bson:"latitude"`
	Longitude float64 `bson:"longitude"`
}

type addressDoc struct {
	Street      string          `bson:"street"`
	City        string          `bson:"city"`
	State       string          `bson:"state,omitempty"`
	ZipCode     string          `bson:"zipCode,omitempty"`
	Coordinates *coordinatesDoc `bson:"coordinates,omitempty"`
}

type lineItemDoc struct {
	ItemID    string               `bson:"itemId"`
	Name      string               `bson:"name,omitempty"`
	Quantity  int                  `bson:"quantity"`
	UnitPrice primitive.Decimal128 `bson:"price"`
}

type orderDoc struct {
	ID                    string               `bson:"_id"`
	CustomerID            string               `bson:"customerId"`
	ChefID                string               `bson:"chefId"`
	Items                 []lineItemDoc        `bson:"items"`
	TotalAmount           primitive.Decimal128 `bson:"totalAmount"`
	Status                string               `bson:"status"`
	DeliveryType          string               `bson:"deliveryType"`
	DeliveryAddress       *addressDoc          `bson:"deliveryAddress,omitempty"`
	ContactNumber         string               `bson:"contactNumber"`
	SpecialInstructions   string               `bson:"specialInstructions,omitempty"`
	IdempotencyKey        string               `bson:"idempotencyKey,omitempty"`
	RequestID             string               `bson:"requestId,omitempty"`
	CreatedAt             time.Time            `bson:"createdAt"`
	UpdatedAt             time.Time            `bson:"updatedAt"`
	EstimatedDeliveryTime time.Time            `bson:"estimatedDeliveryTime"`
}

func toOrderDoc(o *domain.Order) (orderDoc, error) {
	total, err := toDecimal128(o.TotalAmount)
	if err != nil {
		return orderDoc{}, err
	}
	doc := orderDoc{
		ID:                    o.ID,
		CustomerID:            o.CustomerID,
		ChefID:                o.ChefID,
		Items:                 make([]lineItemDoc, 0, len(o.Items)),
		TotalAmount:           total,
		Status:                string(o.Status),
		DeliveryType:          string(o.DeliveryType),
		ContactNumber:         o.ContactNumber,
		SpecialInstructions:   o.SpecialInstructions,
		IdempotencyKey:        o.IdempotencyKey,
		RequestID:             o.RequestID,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
		EstimatedDeliveryTime: o.EstimatedDeliveryTime,
	}
	for _, it := range o.Items {
		price, err := toDecimal128(it.UnitPrice)
		if err != nil {
			return orderDoc{}, err
		}
		doc.Items = append(doc.Items, lineItemDoc{ItemID: it.ItemID, Name: it.Name, Quantity: it.Quantity, UnitPrice: price})
	}
	if a := o.DeliveryAddress; a != nil {
		doc.DeliveryAddress = &addressDoc{Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode}
		if a.Coordinates != nil {
			doc.DeliveryAddress.Coordinates = &coordinatesDoc{Latitude: a.Coordinates.Latitude, Longitude: a.Coordinates.Longitude}
		}
	}
	return doc, nil
}

func (d orderDoc) toDomain() (*domain.Order, error) {
	total, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return nil, err
	}
	o := &domain.Order{
		ID:                    d.ID,
		CustomerID:            d.CustomerID,
		ChefID:                d.ChefID,
		Items:                 make([]domain.LineItem, 0, len(d.Items)),
		TotalAmount:           total,
		Status:                domain.OrderStatus(d.Status),
		DeliveryType:          domain.DeliveryType(d.DeliveryType),
		ContactNumber:         d.ContactNumber,
		SpecialInstructions:   d.SpecialInstructions,
		IdempotencyKey:        d.IdempotencyKey,
		RequestID:             d.RequestID,
		CreatedAt:             d.CreatedAt.UTC(),
		UpdatedAt:             d.UpdatedAt.UTC(),
		EstimatedDeliveryTime: d.EstimatedDeliveryTime.UTC(),
	}
	for _, it := range d.Items {
		price, err := fromDecimal128(it.UnitPrice)
		if err != nil {
			return nil, err
		}
		o.Items = append(o.Items, domain.LineItem{ItemID: it.ItemID, Name: it.Name, Quantity: it.Quantity, UnitPrice: price})
	}
	if a := d.DeliveryAddress; a != nil {
		o.DeliveryAddress = &domain.Address{Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode}
		if a.Coordinates != nil {
			o.DeliveryAddress.Coordinates = &domain.Coordinates{Latitude: a.Coordinates.Latitude, Longitude: a.Coordinates.Longitude}
		}
	}
	return o, nil
}

// menuDoc mirrors the menus collection. Ids and prices were written by other
// services, so both accept more than one BSON type.
type menuDoc struct {
	ID          interface{} `bson:"_id"`
	ChefID      interface{} `bson:"chefId"`
	Name        string      `bson:"name"`
	Description string      `bson:"description"`
	Image       string      `bson:"image"`
	Price       interface{} `bson:"price"`
	Available   *bool       `bson:"available"`
}

func (d menuDoc) toDomain() (domain.CatalogItem, error) {
	price, err := anyToDecimal(d.Price)
	if err != nil {
		return domain.CatalogItem{}, fmt.Errorf("menu item %v: %w", d.ID, err)
	}
	available := true
	if d.Available != nil {
		available = *d.Available
	}
	return domain.CatalogItem{
		ID:          idString(d.ID),
		ChefID:      idString(d.ChefID),
		Name:        d.Name,
		Description: d.Description,
		ImageURL:    d.Image,
		Price:       price,
		Available:   available,
	}, nil
}

type userDoc struct {
	ID    interface{} `bson:"_id"`
	Name  string      `bson:"name"`
	Email string      `bson:"email"`
	Phone string      `bson:"phone"`
	Role  string      `bson:"role"`
}

func (d userDoc) toDomain() domain.Profile {
	p := domain.Profile{ID: idString(d.ID), Name: d.Name, Email: d.Email, Phone: d.Phone}
	if role, ok := domain.ParseRole(d.Role); ok {
		p.Role = role
	}
	return p
}

// storedRoles lists every spelling of role found in the users collection.
func storedRoles(role domain.Role) []string {
	switch role {
	case domain.RoleCustomer:
		return []string{"customer", "user"}
	case domain.RoleChef:
		return []string{"chef", "homechef"}
	default:
		return []string{string(role)}
	}
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode decimal %s: %w", v, err)
	}
	return d, nil
}

func anyToDecimal(v interface{}) (decimal.Decimal, error) {
	switch p := v.(type) {
	case primitive.Decimal128:
		return fromDecimal128(p)
	case float64:
		return decimal.NewFromFloat(p), nil
	case int32:
		return decimal.NewFromInt32(p), nil
	case int64:
		return decimal.NewFromInt(p), nil
	case string:
		return decimal.NewFromString(p)
	default:
		return decimal.Zero, fmt.Errorf("unsupported price type %T", v)
	}
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// idCandidates matches documents keyed by either ObjectID or plain string.
func idCandidates(ids []string) []interface{} {
	out := make([]interface{}, 0, 2*len(ids))
	for _, id := range ids {
		out = append(out, id)
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}
