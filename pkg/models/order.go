package models

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusPaymentFailed  OrderStatus = "payment_failed"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// Terminal reports whether no further transition exists at all. "paid" is a
// settlement endpoint but still moves forward through fulfillment.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) String() string {
	return string(s)
}

type PaymentMethod string

const (
	PaymentMethodCash PaymentMethod = "cash"
	PaymentMethodCard PaymentMethod = "card"
)

// Order is the aggregate root for a purchase. All monetary fields are minor
// units (cents); nothing in this codebase multiplies by 100 at call sites.
type Order struct {
	ID                  string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID              string        `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Status              OrderStatus   `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	TotalAmount         int64         `gorm:"not null" json:"total_amount"`
	DeliveryAddress     string        `gorm:"type:varchar(255);not null" json:"delivery_address"`
	ContactNumber       string        `gorm:"type:varchar(30);not null" json:"contact_number"`
	SpecialInstructions string        `gorm:"type:text" json:"special_instructions,omitempty"`
	PaymentMethod       PaymentMethod `gorm:"type:varchar(10)" json:"payment_method,omitempty"`
	PaymentIntentID     string        `gorm:"type:varchar(64);index" json:"payment_intent_id,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem captures a dish at the price it had when the order was placed.
// PriceAtTime is never recomputed from the catalog.
type OrderItem struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID     string    `gorm:"type:varchar(36);not null;index" json:"order_id"`
	DishID      string    `gorm:"type:varchar(36);not null" json:"dish_id"`
	Quantity    int32     `gorm:"not null" json:"quantity"`
	PriceAtTime int64     `gorm:"not null" json:"price_at_time"`
	CreatedAt   time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
