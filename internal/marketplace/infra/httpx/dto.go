package httpx

import "github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"

type AddToCartRequest struct {
	ItemID string `json:"itemId"`
	// Quantity defaults to 1 when omitted.
	Quantity *int `json:"quantity"`
}

type RemoveFromCartRequest struct {
	ItemID string `json:"itemId"`
}

type CoordinatesDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type AddressDTO struct {
	Street      string          `json:"street"`
	City        string          `json:"city"`
	State       string          `json:"state"`
	ZipCode     string          `json:"zipCode"`
	Coordinates *CoordinatesDTO `json:"coordinates"`
}

type CreateOrderRequest struct {
	DeliveryType        string      `json:"deliveryType"`
	DeliveryAddress     *AddressDTO `json:"deliveryAddress"`
	ContactNumber       string      `json:"contactNumber"`
	SpecialInstructions string      `json:"specialInstructions"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (r CreateOrderRequest) toDetails() domain.DeliveryDetails {
	d := domain.DeliveryDetails{
		DeliveryType:        domain.DeliveryType(r.DeliveryType),
		ContactNumber:       r.ContactNumber,
		SpecialInstructions: r.SpecialInstructions,
	}
	if a := r.DeliveryAddress; a != nil {
		d.DeliveryAddress = &domain.Address{Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode}
		if a.Coordinates != nil {
			d.DeliveryAddress.Coordinates = &domain.Coordinates{Latitude: a.Coordinates.Latitude, Longitude: a.Coordinates.Longitude}
		}
	}
	return d
}
