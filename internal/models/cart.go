package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a shopping cart. Version is bumped by every mutation so that
// concurrent writers can detect each other.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	Version   int64      `json:"-" gorm:"not null;default:0"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartItem is one product line in a cart. The unit price is captured when the
// product is first added.
type CartItem struct {
	ID          uint            `json:"-" gorm:"primaryKey"`
	CartID      string          `json:"-" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_product"`
	ProductID   string          `json:"productId" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_product"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"`
}

// TotalPrice returns unit price times quantity.
func (i CartItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalPrice sums every line of the cart.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// FindItem returns the line for productID, or nil.
func (c *Cart) FindItem(productID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// CartItemDto is the wire form of a cart line.
type CartItemDto struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

// CartDto is the wire form of a cart.
type CartDto struct {
	ID         string          `json:"id"`
	Items      []CartItemDto   `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// ToDto maps a cart line to its wire form.
func (i CartItem) ToDto() CartItemDto {
	return CartItemDto{
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		Quantity:    i.Quantity,
		UnitPrice:   i.UnitPrice,
		TotalPrice:  i.TotalPrice(),
	}
}

// ToDto maps a cart to its wire form.
func (c *Cart) ToDto() CartDto {
	items := make([]CartItemDto, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, item.ToDto())
	}
	return CartDto{ID: c.ID, Items: items, TotalPrice: c.TotalPrice()}
}
