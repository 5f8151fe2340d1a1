package dashboard

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

// Stats is the admin landing-page summary.
type Stats struct {
	TotalOrders      int64  `json:"total_orders"`
	PendingVerify    int64  `json:"pending_verify"`
	PendingCampaigns int64  `json:"pending_campaigns"`
	SuccessCampaigns int64  `json:"success_campaigns"`
	ActiveProducts   int64  `json:"active_products"`
	DepositRevenue   string `json:"deposit_revenue"`
	TotalRevenue     string `json:"total_revenue"`
}

// Service aggregates storefront counters for the admin dashboard.
type Service struct {
	db   *gorm.DB
	logg *logger.Logger
}

func NewService(db *gorm.DB, logg *logger.Logger) (*Service, error) {
	if db == nil {
		return nil, errors.New("dashboard: db is required")
	}
	if logg == nil {
		return nil, errors.New("dashboard: logger is required")
	}
	return &Service{db: db, logg: logg}, nil
}

// GetStats computes the dashboard summary. Revenue only counts orders whose
// payment survived verification; deposit revenue is what is actually banked,
// total revenue is the full order value once balances are collected.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("payment_status = ?", enums.PaymentStatusPendingVerify).
		Count(&stats.PendingVerify).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("status = ?", enums.CampaignStatusPending).
		Count(&stats.PendingCampaigns).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Campaign{}).
		Where("status = ?", enums.CampaignStatusSuccess).
		Count(&stats.SuccessCampaigns).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("status = ?", enums.ProductStatusActive).
		Count(&stats.ActiveProducts).Error; err != nil {
		return nil, err
	}

	var rows []struct {
		DepositAmount int64
		TotalPrice    int64
	}
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Select("deposit_amount", "total_price").
		Where("payment_status = ?", enums.PaymentStatusVerified).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	deposit := decimal.Zero
	total := decimal.Zero
	for _, row := range rows {
		deposit = deposit.Add(decimal.NewFromInt(row.DepositAmount))
		total = total.Add(decimal.NewFromInt(row.TotalPrice))
	}
	stats.DepositRevenue = deposit.String()
	stats.TotalRevenue = total.String()

	return stats, nil
}
