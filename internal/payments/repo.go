package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	"github.com/vientianelabs/khumsue-backend/pkg/pagination"
)

// Repository persists payment proofs and the order/member columns the
// verification workflow touches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateProof(ctx context.Context, proof *models.PaymentProof) (*models.PaymentProof, error)
	FindLatestProofByOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentProof, error)
	ListPendingProofs(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.PaymentProof, *pagination.Cursor, error)
	UpdateProof(ctx context.Context, proofID uuid.UUID, updates map[string]any) error

	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateMemberStatus(ctx context.Context, memberID uuid.UUID, status enums.MemberStatus) error
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

func (r *repository) CreateProof(ctx context.Context, proof *models.PaymentProof) (*models.PaymentProof, error) {
	if err := r.db.WithContext(ctx).Create(proof).Error; err != nil {
		return nil, err
	}
	return proof, nil
}

func (r *repository) FindLatestProofByOrder(ctx context.Context, orderID uuid.UUID) (*models.PaymentProof, error) {
	var proof models.PaymentProof
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Order("id DESC").
		First(&proof).Error
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *repository) ListPendingProofs(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.PaymentProof, *pagination.Cursor, error) {
	limit = pagination.NormalizeLimit(limit)

	query := r.db.WithContext(ctx).
		Where("status = ?", enums.ProofStatusPending).
		Order("created_at ASC").
		Order("id ASC").
		Limit(pagination.LimitWithBuffer(limit))

	if cursor != nil {
		query = query.Where(
			"(created_at > ?) OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var proofs []models.PaymentProof
	if err := query.Find(&proofs).Error; err != nil {
		return nil, nil, err
	}

	var next *pagination.Cursor
	if len(proofs) > limit {
		proofs = proofs[:limit]
		last := proofs[len(proofs)-1]
		next = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	return proofs, next, nil
}

func (r *repository) UpdateProof(ctx context.Context, proofID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentProof{}).
		Where("id = ?", proofID).
		Updates(updates).Error
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

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) UpdateMemberStatus(ctx context.Context, memberID uuid.UUID, status enums.MemberStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("id = ?", memberID).
		Update("status", status).Error
}
