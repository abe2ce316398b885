package models

import "github.com/google/uuid"

// Cart is the single shopping cart of a user.
type Cart struct {
	BaseModel
	UserID      uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Items       []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	TotalAmount float64    `gorm:"not null;default:0" json:"total_amount"`
}

// CartItem is one product line of a cart. UnitPrice is a snapshot of the
// product price taken when the line was last touched.
type CartItem struct {
	BaseModel
	CartID     uuid.UUID `gorm:"type:uuid;index;not null" json:"cart_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	Product    *Product  `json:"product,omitempty"`
	Position   int       `json:"position"`
	Quantity   int       `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	TotalPrice float64   `json:"total_price"`
}

// Line returns the index of the line for productID, or -1.
func (c *Cart) Line(productID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// SetQuantity replaces the quantity of the product line at the given unit
// price. A new product is appended; a quantity of zero drops the line.
// Totals are recomputed before returning.
func (c *Cart) SetQuantity(productID uuid.UUID, quantity int, unitPrice float64) {
	idx := c.Line(productID)

	switch {
	case quantity <= 0 && idx >= 0:
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	case quantity <= 0:
	case idx >= 0:
		c.Items[idx].Quantity = quantity
		c.Items[idx].UnitPrice = unitPrice
	default:
		c.Items = append(c.Items, CartItem{
			CartID:    c.ID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: unitPrice,
		})
	}

	c.Recalculate()
}

// RemoveLine drops the product line. It reports false when no line matched.
func (c *Cart) RemoveLine(productID uuid.UUID) bool {
	idx := c.Line(productID)
	if idx < 0 {
		return false
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	c.Recalculate()
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Recalculate()
}

// Recalculate derives every line total, the line positions and the cart
// total from the current lines.
func (c *Cart) Recalculate() {
	var total float64
	for i := range c.Items {
		item := &c.Items[i]
		item.Position = i
		item.TotalPrice = float64(item.Quantity) * item.UnitPrice
		total += item.TotalPrice
	}
	c.TotalAmount = total
}
