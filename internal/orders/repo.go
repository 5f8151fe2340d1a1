package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	"github.com/vientianelabs/khumsue-backend/pkg/pagination"
)

// ListQuery filters the admin order listing.
type ListQuery struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	CampaignID    *uuid.UUID
	Limit         int
	Cursor        *pagination.Cursor
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPhone(ctx context.Context, phone string) ([]models.Order, error)
	List(ctx context.Context, query ListQuery) ([]models.Order, *pagination.Cursor, error)
	Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Campaign").
		Preload("Member").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Campaign").
		Preload("Member").
		Joins("JOIN group_members ON group_members.id = orders.member_id").
		Where("group_members.phone = ?", phone).
		Order("orders.created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(query.Limit)

	q := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Member").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit))

	if query.Status != nil {
		q = q.Where("status = ?", *query.Status)
	}
	if query.PaymentStatus != nil {
		q = q.Where("payment_status = ?", *query.PaymentStatus)
	}
	if query.CampaignID != nil {
		q = q.Where("campaign_id = ?", *query.CampaignID)
	}
	if query.Cursor != nil {
		q = q.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			query.Cursor.CreatedAt, query.Cursor.CreatedAt, query.Cursor.ID,
		)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[len(orders)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return orders, next, nil
}

func (r *repository) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}
