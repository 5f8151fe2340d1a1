package groupbuy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vientianelabs/khumsue-backend/internal/pricing"
	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
)

// SelectResult reports the campaign a buyer should join and whether it was
// created on the fly.
type SelectResult struct {
	Campaign *models.Campaign
	Created  bool
}

// SelectOrCreate picks the best open campaign for a product, preferring
// official pools, then fuller ones, then the newest. When no open campaign
// exists it starts a fresh one at the product's highest tier threshold with
// the default deadline.
func (s *Service) SelectOrCreate(ctx context.Context, productID uuid.UUID) (*SelectResult, error) {
	now := s.now()

	open, err := s.repo.FindOpenCampaignsByProduct(ctx, productID, now)
	if err != nil {
		return nil, err
	}
	for i := range open {
		if open[i].CurrentPeople < open[i].TargetPeople {
			return &SelectResult{Campaign: &open[i]}, nil
		}
	}

	var created *models.Campaign
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProductByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return err
		}
		if product.Status != enums.ProductStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product is not active")
		}
		target := pricing.HighestThreshold(product.Tiers)
		if target <= 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product has no price tiers")
		}

		created, err = repo.CreateCampaign(ctx, &models.Campaign{
			ID:           uuid.New(),
			ProductID:    product.ID,
			TargetPeople: target,
			CurrentTier:  -1,
			Status:       enums.CampaignStatusPending,
			ExpiresAt:    now.Add(s.campaignTTL()).UTC(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &SelectResult{Campaign: created, Created: true}, nil
}

func (s *Service) campaignTTL() time.Duration {
	if s.cfg.DefaultCampaignTTL > 0 {
		return s.cfg.DefaultCampaignTTL
	}
	return 48 * time.Hour
}
