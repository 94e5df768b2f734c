package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusFailed:  {PaymentStatusPaid, PaymentStatusCancelled},
}

// IsTerminal reports whether no further transition is allowed.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusCancelled
}

// CanTransitionTo reports whether an order in status s may move to next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PaymentStatus) String() string {
	return string(s)
}

// OrderItem is a frozen copy of a cart line taken at checkout.
type OrderItem struct {
	ID          uint            `json:"-" gorm:"primaryKey"`
	OrderID     string          `json:"-" gorm:"type:varchar(36);index;not null"`
	ProductID   string          `json:"productId" gorm:"type:varchar(36);not null"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unitPrice" gorm:"type:decimal(12,2);not null"`
	TotalPrice  decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`
}

// Order represents a customer order.
type Order struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string          `json:"userId" gorm:"type:varchar(36);index;not null"`
	Items       []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TotalAmount decimal.Decimal `json:"totalAmount" gorm:"type:decimal(12,2);not null"`
	Status      PaymentStatus   `json:"status" gorm:"type:varchar(20);index;not null"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NewOrderFromCart snapshots the cart's lines and total into a pending order
// owned by userID.
func NewOrderFromCart(cart *Cart, userID string) *Order {
	order := &Order{
		ID:          uuid.New().String(),
		UserID:      userID,
		TotalAmount: cart.TotalPrice(),
		Status:      PaymentStatusPending,
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, OrderItem{
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice(),
		})
	}
	return order
}
