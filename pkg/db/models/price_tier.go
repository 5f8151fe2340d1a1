package models

import (
	"time"

	"github.com/google/uuid"
)

// PriceTier unlocks a lower unit price once a campaign reaches MinPeople.
// Rows for a product are kept sorted ascending by min_people; validation at
// product-edit time guarantees strictly increasing thresholds with strictly
// non-increasing prices.
type PriceTier struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	MinPeople int       `gorm:"column:min_people;not null"`
	Price     int64     `gorm:"column:price;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PriceTier) TableName() string {
	return "product_price_tiers"
}
