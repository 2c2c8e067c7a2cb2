package models

import (
	"time"

	"gorm.io/gorm"
)

// Dish price is minor units (cents).
type Dish struct {
	ID              string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name            string         `gorm:"type:varchar(100);not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description,omitempty"`
	Price           int64          `gorm:"not null" json:"price"`
	ImageURL        string         `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	CategoryID      string         `gorm:"type:varchar(36);index" json:"category_id,omitempty"`
	IsAvailable     bool           `gorm:"default:true" json:"is_available"`
	PreparationTime string         `gorm:"type:varchar(50)" json:"preparation_time,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Dish) TableName() string {
	return "dishes"
}

type Category struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	ImageURL    string    `gorm:"type:varchar(255)" json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}
