package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the store.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	ImageURL    string          `json:"imageUrl"`
	CategoryID  *uint           `json:"categoryId" gorm:"index"`
	Category    *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt  `json:"-" gorm:"index"`
}

// Category groups products in the catalog.
type Category struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"uniqueIndex;type:varchar(255);not null"`
	ImageURL string `json:"imageUrl"`
}

// StockUpdate is pushed to subscribers of a product's inventory topic.
type StockUpdate struct {
	ProductID string `json:"productId"`
	NewStock  int    `json:"newStock"`
}
