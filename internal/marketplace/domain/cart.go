package domain

import "github.com/shopspring/decimal"

// CartItem is one (item, quantity) entry. ItemID is a weak catalog reference.
type CartItem struct {
	ItemID   string
	Quantity int
}

// Cart is the single mutable basket of a customer.
type Cart struct {
	CustomerID string
	Items      []CartItem
}

// Add merges quantity into an existing entry or appends a new one.
func (c *Cart) Add(itemID string, quantity int) {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			c.Items[i].Quantity += quantity
			return
		}
	}
	c.Items = append(c.Items, CartItem{ItemID: itemID, Quantity: quantity})
}

// Remove drops the entry for itemID. Removing an absent item is a no-op.
func (c *Cart) Remove(itemID string) {
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.ItemID != itemID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
}

// Clear empties the cart in place.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

// ItemIDs returns the referenced catalog ids in cart order.
func (c *Cart) ItemIDs() []string {
	ids := make([]string, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ItemID)
	}
	return ids
}

// Clone returns a deep copy.
func (c *Cart) Clone() *Cart {
	out := &Cart{CustomerID: c.CustomerID, Items: make([]CartItem, len(c.Items))}
	copy(out.Items, c.Items)
	return out
}

// CartLine is a cart entry resolved against the catalog for display.
type CartLine struct {
	ItemID    string          `json:"itemId"`
	Quantity  int             `json:"quantity"`
	Item      *CatalogItem    `json:"item,omitempty"`
	Available bool            `json:"available"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartView is the resolved cart returned to customers.
type CartView struct {
	CustomerID string          `json:"customerId"`
	Items      []CartLine      `json:"items"`
	Total      decimal.Decimal `json:"total"`
}

// Resolve joins the cart with catalog entries. Dangling references are kept
// as unavailable lines and excluded from the total.
func (c *Cart) Resolve(items map[string]CatalogItem) CartView {
	view := CartView{CustomerID: c.CustomerID, Items: make([]CartLine, 0, len(c.Items)), Total: decimal.Zero}
	for _, it := range c.Items {
		line := CartLine{ItemID: it.ItemID, Quantity: it.Quantity, Subtotal: decimal.Zero}
		if ci, ok := items[it.ItemID]; ok {
			line.Item = &ci
			line.Available = ci.Available
			line.Subtotal = ci.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			view.Total = view.Total.Add(line.Subtotal)
		}
		view.Items = append(view.Items, line)
	}
	return view
}
