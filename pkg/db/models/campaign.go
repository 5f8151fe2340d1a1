package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vientianelabs/khumsue-backend/pkg/enums"
)

// Campaign is a time-boxed group-buy pool for one product.
//
// CurrentPeople/Status form the only mutable shared state in the core: every
// writer must hold a row lock on this record, and the pair changes atomically
// so current_people == target_people always implies status success.
type Campaign struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID            `gorm:"column:product_id;type:uuid;not null"`
	Product       *Product             `gorm:"foreignKey:ProductID"`
	CurrentPeople int                  `gorm:"column:current_people;not null;default:0"`
	TargetPeople  int                  `gorm:"column:target_people;not null"`
	CurrentTier   int                  `gorm:"column:current_tier;not null;default:-1"`
	Status        enums.CampaignStatus `gorm:"column:status;not null;default:'pending'"`
	ExpiresAt     time.Time            `gorm:"column:expires_at;not null"`
	IsOfficial    bool                 `gorm:"column:is_official;not null;default:false"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (Campaign) TableName() string {
	return "group_campaigns"
}
