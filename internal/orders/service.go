package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
	"github.com/vientianelabs/khumsue-backend/pkg/pagination"
)

// Service answers order lookups and applies admin fulfillment updates.
type Service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("orders: repository is required")
	}
	if logg == nil {
		return nil, errors.New("orders: logger is required")
	}
	return &Service{repo: repo, logg: logg}, nil
}

func (s *Service) ByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	return order, nil
}

// ByPhone returns a buyer's orders, newest first. Phone is the only handle
// buyers have; there are no buyer accounts.
func (s *Service) ByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	return s.repo.FindByPhone(ctx, phone)
}

// ListParams filters the admin order listing.
type ListParams struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
	CampaignID    *uuid.UUID
	Limit         int
	Cursor        string
}

func (s *Service) ListAll(ctx context.Context, params ListParams) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	orders, next, err := s.repo.List(ctx, ListQuery{
		Status:        params.Status,
		PaymentStatus: params.PaymentStatus,
		CampaignID:    params.CampaignID,
		Limit:         params.Limit,
		Cursor:        cursor,
	})
	if err != nil {
		return nil, "", err
	}

	var nextCursor string
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return orders, nextCursor, nil
}

// FulfillmentInput carries the admin-editable fulfillment fields. Nil fields
// are left untouched.
type FulfillmentInput struct {
	Status         *enums.OrderStatus
	ShippingStatus *enums.ShippingStatus
	TrackingNumber *string
	Notes          *string
}

// UpdateFulfillment patches shipping progress on an order. Payment columns
// are off limits here; those only move through the verification workflow.
func (s *Service) UpdateFulfillment(ctx context.Context, orderID uuid.UUID, in FulfillmentInput) (*models.Order, error) {
	updates := map[string]any{}
	if in.Status != nil {
		if !in.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
		}
		updates["status"] = *in.Status
	}
	if in.ShippingStatus != nil {
		if !in.ShippingStatus.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipping status")
		}
		updates["shipping_status"] = *in.ShippingStatus
	}
	if in.TrackingNumber != nil {
		updates["tracking_number"] = *in.TrackingNumber
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	updates["updated_at"] = time.Now().UTC()

	if _, err := s.ByID(ctx, orderID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, orderID, updates); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID.String()), "order fulfillment updated")
	return s.ByID(ctx, orderID)
}
