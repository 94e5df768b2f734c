package models

import "time"

// WishlistItem marks a product a user wants to keep an eye on.
type WishlistItem struct {
	UserID    string    `json:"userId" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"productId" gorm:"primaryKey;type:varchar(36)"`
	Product   *Product  `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt time.Time `json:"createdAt"`
}
