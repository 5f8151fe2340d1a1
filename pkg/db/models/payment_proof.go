package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vientianelabs/khumsue-backend/pkg/enums"
)

// PaymentProof is one proof-of-payment submission for an order. Proofs are
// append-only; only the newest row drives the verification workflow, the rest
// stay for audit.
type PaymentProof struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	MemberID      uuid.UUID           `gorm:"column:member_id;type:uuid;not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;not null"`
	ProofImageURL string              `gorm:"column:proof_image_url;not null"`
	Amount        int64               `gorm:"column:amount;not null"`
	Status        enums.ProofStatus   `gorm:"column:status;not null;default:'pending'"`
	AdminNote     *string             `gorm:"column:admin_note"`
	VerifiedBy    *uuid.UUID          `gorm:"column:verified_by;type:uuid"`
	VerifiedAt    *time.Time          `gorm:"column:verified_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}
