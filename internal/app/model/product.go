package model

import (
	"time"

	"gorm.io/gorm"
)

// Product is the authoritative catalog entry. Weight is stored in kilograms;
// gram inputs are converted at the request boundary.
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       float64        `gorm:"not null" json:"price"`
	Weight      float64        `gorm:"not null;default:0" json:"weight"`
	Stock       int            `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Category    string         `gorm:"type:varchar(50);index" json:"category"`
	ImageURL    string         `json:"image_url"`
	AddedByID   *uint          `gorm:"index" json:"added_by_id,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// GramsToKilograms converts a gram weight from client input.
func GramsToKilograms(grams float64) float64 {
	return grams / 1000
}
