package domain

import "github.com/shopspring/decimal"

// CatalogItem is the read contract of a menu item: who sells it, at what
// price, and whether it is currently offered.
type CatalogItem struct {
	ID          string          `json:"id"`
	ChefID      string          `json:"chefId"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Available   bool            `json:"available"`
}
