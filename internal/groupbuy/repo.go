package groupbuy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
)

// Repository persists campaigns and the member/order rows a join creates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	FindCampaignByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	FindOpenCampaignsByProduct(ctx context.Context, productID uuid.UUID, now time.Time) ([]models.Campaign, error)
	FindDuePendingCampaigns(ctx context.Context, now time.Time, limit int) ([]models.Campaign, error)
	UpdateCampaignTier(ctx context.Context, campaignID uuid.UUID, tier int) error

	// GateOpenCampaign write-locks the campaign row while atomically checking
	// that it is still pending, unexpired and under target. Returns false when
	// any precondition fails.
	GateOpenCampaign(ctx context.Context, campaignID uuid.UUID, now time.Time) (bool, error)

	// IncrementCampaignPeople applies the atomic compare-and-increment: adds
	// one participant and flips status to success when the target is reached,
	// both in a single guarded statement. Returns false when the campaign is
	// no longer pending or already full.
	IncrementCampaignPeople(ctx context.Context, campaignID uuid.UUID) (bool, error)

	// MarkCampaignFailed reaps an expired, under-filled pending campaign.
	// Returns false when the campaign no longer qualifies.
	MarkCampaignFailed(ctx context.Context, campaignID uuid.UUID, now time.Time) (bool, error)

	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)

	CreateMember(ctx context.Context, member *models.GroupMember) (*models.GroupMember, error)
	UpdateMemberStatus(ctx context.Context, memberID uuid.UUID, status enums.MemberStatus) error

	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)

	// MarkOrderCounted stamps counted_at once; returns false when the order
	// was already counted.
	MarkOrderCounted(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error)
	UpdateOrderStatuses(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a group-buy repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if err := r.db.WithContext(ctx).Create(campaign).Error; err != nil {
		return nil, err
	}
	return campaign, nil
}

func (r *repository) FindCampaignByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_people ASC")
		}).
		Where("id = ?", id).
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *repository) FindOpenCampaignsByProduct(ctx context.Context, productID uuid.UUID, now time.Time) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND status = ? AND expires_at > ?", productID, enums.CampaignStatusPending, now).
		Order("is_official DESC").
		Order("current_people DESC").
		Order("created_at DESC").
		Find(&campaigns).Error
	if err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (r *repository) FindDuePendingCampaigns(ctx context.Context, now time.Time, limit int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ? AND current_people < target_people", enums.CampaignStatusPending, now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&campaigns).Error; err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (r *repository) UpdateCampaignTier(ctx context.Context, campaignID uuid.UUID, tier int) error {
	return r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", campaignID).
		Update("current_tier", tier).Error
}

func (r *repository) GateOpenCampaign(ctx context.Context, campaignID uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE group_campaigns
		SET updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		  AND status = ?
		  AND expires_at > ?
		  AND current_people < target_people
	`, campaignID, enums.CampaignStatusPending, now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) IncrementCampaignPeople(ctx context.Context, campaignID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE group_campaigns
		SET current_people = current_people + 1,
			status = CASE WHEN current_people + 1 >= target_people THEN ? ELSE status END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		  AND status = ?
		  AND current_people < target_people
	`, enums.CampaignStatusSuccess, campaignID, enums.CampaignStatusPending)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) MarkCampaignFailed(ctx context.Context, campaignID uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE group_campaigns
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
		  AND status = ?
		  AND expires_at <= ?
		  AND current_people < target_people
	`, enums.CampaignStatusFailed, campaignID, enums.CampaignStatusPending, now)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_people ASC")
		}).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) CreateMember(ctx context.Context, member *models.GroupMember) (*models.GroupMember, error) {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return nil, err
	}
	return member, nil
}

func (r *repository) UpdateMemberStatus(ctx context.Context, memberID uuid.UUID, status enums.MemberStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("id = ?", memberID).
		Update("status", status).Error
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) MarkOrderCounted(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND counted_at IS NULL", orderID).
		Update("counted_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdateOrderStatuses(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}
