package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vientianelabs/khumsue-backend/pkg/enums"
)

// GroupMember is one join commitment inside a campaign. Phone is the lookup
// key for "my orders" queries and is deliberately not unique: a person may
// join any number of campaigns.
type GroupMember struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CampaignID    uuid.UUID           `gorm:"column:campaign_id;type:uuid;not null"`
	Name          string              `gorm:"column:name;not null"`
	Phone         string              `gorm:"column:phone;not null;index"`
	Address       string              `gorm:"column:address;not null"`
	DepositAmount int64               `gorm:"column:deposit_amount;not null"`
	FinalAmount   int64               `gorm:"column:final_amount;not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	Status        enums.MemberStatus  `gorm:"column:status;not null;default:'joined'"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
