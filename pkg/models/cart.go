package models

import (
	"time"
)

// CartItem is the persisted row for an authenticated user's cart. Only the
// reference and quantity are stored; prices come from the catalog on load.
type CartItem struct {
	UserID    string    `gorm:"primaryKey;type:varchar(36)" json:"user_id"`
	DishID    string    `gorm:"primaryKey;type:varchar(36)" json:"dish_id"`
	Quantity  int32     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// CartLine is a materialized cart entry with its dish snapshot, the shape the
// checkout flow consumes. UnitPrice is minor units (cents). Never stored as a
// table; anonymous carts serialize it to Redis as JSON.
type CartLine struct {
	DishID    string `json:"dish_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	ImageURL  string `json:"image_url,omitempty"`
	Quantity  int32  `json:"quantity"`
}
