package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vientianelabs/khumsue-backend/pkg/enums"
)

// Product is a storefront item sold through group-buy campaigns. Prices are
// integer LAK (the kip has no minor unit).
type Product struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string              `gorm:"column:name;not null"`
	NameLo        *string             `gorm:"column:name_lo"`
	Description   string              `gorm:"column:description;not null"`
	DescriptionLo *string             `gorm:"column:description_lo"`
	Images        []string            `gorm:"column:images;type:jsonb;serializer:json"`
	OriginalPrice int64               `gorm:"column:original_price;not null"`
	Stock         int                 `gorm:"column:stock;not null;default:0"`
	Category      string              `gorm:"column:category;not null"`
	Status        enums.ProductStatus `gorm:"column:status;not null;default:'active'"`
	Tiers         []PriceTier         `gorm:"foreignKey:ProductID"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
