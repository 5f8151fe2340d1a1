package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vientianelabs/khumsue-backend/pkg/enums"
)

// Order snapshots the price a member locked in when joining a campaign.
// UnitPrice is the tier price active at join time and is never recomputed.
//
// CountedAt records the moment this order's verified payment advanced the
// campaign counter; it doubles as the idempotency guard for ConfirmPayment.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CampaignID      uuid.UUID             `gorm:"column:campaign_id;type:uuid;not null"`
	Campaign        *Campaign             `gorm:"foreignKey:CampaignID"`
	MemberID        uuid.UUID             `gorm:"column:member_id;type:uuid;not null"`
	Member          *GroupMember          `gorm:"foreignKey:MemberID"`
	ProductID       uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	Product         *Product              `gorm:"foreignKey:ProductID"`
	Quantity        int                   `gorm:"column:quantity;not null;default:1"`
	UnitPrice       int64                 `gorm:"column:unit_price;not null"`
	TotalPrice      int64                 `gorm:"column:total_price;not null"`
	DepositAmount   int64                 `gorm:"column:deposit_amount;not null"`
	FinalAmount     int64                 `gorm:"column:final_amount;not null"`
	Status          enums.OrderStatus     `gorm:"column:status;not null;default:'pending_deposit'"`
	PaymentStatus   enums.PaymentStatus   `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentProofURL *string               `gorm:"column:payment_proof_url"`
	PaymentRef      *string               `gorm:"column:payment_ref"`
	ShippingStatus  *enums.ShippingStatus `gorm:"column:shipping_status"`
	TrackingNumber  *string               `gorm:"column:tracking_number"`
	Notes           *string               `gorm:"column:notes"`
	CountedAt       *time.Time            `gorm:"column:counted_at"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
