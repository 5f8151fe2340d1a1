package groupbuy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/vientianelabs/khumsue-backend/internal/pricing"
	"github.com/vientianelabs/khumsue-backend/pkg/config"
	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the group-buy ledger: campaign creation, member joins and the
// verified-payment counter.
type Service struct {
	repo Repository
	tx   txRunner
	cfg  config.GroupBuyConfig
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, tx txRunner, cfg config.GroupBuyConfig, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("groupbuy: repository is required")
	}
	if tx == nil {
		return nil, errors.New("groupbuy: transaction runner is required")
	}
	if logg == nil {
		return nil, errors.New("groupbuy: logger is required")
	}
	return &Service{
		repo: repo,
		tx:   tx,
		cfg:  cfg,
		logg: logg,
		now:  time.Now,
	}, nil
}

// CreateCampaignInput describes a new campaign. TargetPeople must equal one of
// the product's tier thresholds so the pool finishes exactly on a tier price.
type CreateCampaignInput struct {
	ProductID    uuid.UUID
	TargetPeople int
	ExpiresAt    time.Time
	IsOfficial   bool
}

func (s *Service) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*models.Campaign, error) {
	now := s.now()
	if !in.ExpiresAt.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expires_at must be in the future")
	}

	var created *models.Campaign
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProductByID(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return err
		}
		if product.Status != enums.ProductStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product is not active")
		}
		if err := pricing.ValidateTiers(product.Tiers, product.OriginalPrice); err != nil {
			return err
		}
		if !pricing.TargetMatchesTier(product.Tiers, in.TargetPeople) {
			return pkgerrors.New(pkgerrors.CodeValidation, "target_people must match a price tier threshold")
		}

		created, err = repo.CreateCampaign(ctx, &models.Campaign{
			ID:           uuid.New(),
			ProductID:    product.ID,
			TargetPeople: in.TargetPeople,
			CurrentTier:  -1,
			Status:       enums.CampaignStatusPending,
			ExpiresAt:    in.ExpiresAt.UTC(),
			IsOfficial:   in.IsOfficial,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"campaign_id":   created.ID.String(),
		"product_id":    in.ProductID.String(),
		"target_people": in.TargetPeople,
	}), "campaign created")
	return created, nil
}

// JoinInput carries the buyer details for a campaign join.
type JoinInput struct {
	CampaignID    uuid.UUID
	Name          string
	Phone         string
	Address       string
	Quantity      int
	PaymentMethod enums.PaymentMethod
}

// JoinResult reports the frozen pricing of a successful join.
type JoinResult struct {
	Order    *models.Order
	Member   *models.GroupMember
	Campaign *models.Campaign
}

// Join admits a buyer to an open campaign. The unit price is frozen at the
// tier active for current_people+1; the campaign counter itself does not move
// until the payment is verified.
func (s *Service) Join(ctx context.Context, in JoinInput) (*JoinResult, error) {
	if in.Quantity <= 0 {
		in.Quantity = 1
	}
	now := s.now()

	var result *JoinResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Take the campaign row's write lock first so the precondition check
		// and the snapshot read below cannot interleave with a concurrent
		// ConfirmPayment.
		ok, err := repo.GateOpenCampaign(ctx, in.CampaignID, now)
		if err != nil {
			return err
		}

		campaign, err := repo.FindCampaignByID(ctx, in.CampaignID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
			}
			return err
		}
		if !ok {
			return joinRejection(campaign, now)
		}
		if campaign.Product == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "campaign has no product")
		}

		unitPrice := pricing.PriceFor(campaign.Product.Tiers, campaign.Product.OriginalPrice, campaign.CurrentPeople+1)
		totalPrice := unitPrice * int64(in.Quantity)
		deposit, balance := pricing.Split(totalPrice, s.cfg.DepositPercent)

		member, err := repo.CreateMember(ctx, &models.GroupMember{
			ID:            uuid.New(),
			CampaignID:    campaign.ID,
			Name:          in.Name,
			Phone:         in.Phone,
			Address:       in.Address,
			DepositAmount: deposit,
			FinalAmount:   balance,
			PaymentMethod: in.PaymentMethod,
			Status:        enums.MemberStatusJoined,
		})
		if err != nil {
			return err
		}

		order, err := repo.CreateOrder(ctx, &models.Order{
			ID:            uuid.New(),
			CampaignID:    campaign.ID,
			MemberID:      member.ID,
			ProductID:     campaign.ProductID,
			Quantity:      in.Quantity,
			UnitPrice:     unitPrice,
			TotalPrice:    totalPrice,
			DepositAmount: deposit,
			FinalAmount:   balance,
			Status:        enums.OrderStatusPendingDeposit,
			PaymentStatus: enums.PaymentStatusPending,
		})
		if err != nil {
			return err
		}

		result = &JoinResult{Order: order, Member: member, Campaign: campaign}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"campaign_id": in.CampaignID.String(),
		"order_id":    result.Order.ID.String(),
		"unit_price":  result.Order.UnitPrice,
	}), "member joined campaign")
	return result, nil
}

func joinRejection(campaign *models.Campaign, now time.Time) error {
	switch {
	case campaign.Status.IsTerminal():
		return pkgerrors.New(pkgerrors.CodeStateConflict, "campaign is closed")
	case !campaign.ExpiresAt.After(now):
		return pkgerrors.New(pkgerrors.CodeStateConflict, "campaign has expired")
	case campaign.CurrentPeople >= campaign.TargetPeople:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "campaign is full")
	default:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "campaign is not open")
	}
}

// ConfirmPayment advances the campaign counter for an order whose payment was
// verified. The counted_at stamp makes the operation idempotent: a second call
// for the same order returns CONFLICT and leaves the counter untouched.
func (s *Service) ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*models.Campaign, error) {
	now := s.now()

	var campaign *models.Campaign
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return err
		}

		counted, err := repo.MarkOrderCounted(ctx, order.ID, now)
		if err != nil {
			return err
		}
		if !counted {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already counted")
		}

		advanced, err := repo.IncrementCampaignPeople(ctx, order.CampaignID)
		if err != nil {
			return err
		}
		if !advanced {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "campaign is closed or full")
		}

		campaign, err = repo.FindCampaignByID(ctx, order.CampaignID)
		if err != nil {
			return err
		}
		if campaign.Product != nil {
			if idx := pricing.TierIndex(campaign.Product.Tiers, campaign.CurrentPeople); idx != campaign.CurrentTier {
				if err := repo.UpdateCampaignTier(ctx, campaign.ID, idx); err != nil {
					return err
				}
				campaign.CurrentTier = idx
			}
		}

		if err := repo.UpdateOrderStatuses(ctx, order.ID, enums.OrderStatusDepositPaid); err != nil {
			return err
		}
		if err := repo.UpdateMemberStatus(ctx, order.MemberID, enums.MemberStatusPaidDeposit); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id":        orderID.String(),
		"campaign_id":     campaign.ID.String(),
		"current_people":  campaign.CurrentPeople,
		"campaign_status": campaign.Status.String(),
	}), "payment counted")
	return campaign, nil
}

// GetCampaign loads one campaign with its product and tier table.
func (s *Service) GetCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	campaign, err := s.repo.FindCampaignByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
		}
		return nil, err
	}
	return campaign, nil
}

// OpenCampaigns lists joinable campaigns for a product in selection order.
func (s *Service) OpenCampaigns(ctx context.Context, productID uuid.UUID) ([]models.Campaign, error) {
	return s.repo.FindOpenCampaignsByProduct(ctx, productID, s.now())
}

// Reap marks one expired, under-filled campaign as failed. Campaigns that
// filled before expiry are left alone.
func (s *Service) Reap(ctx context.Context, campaignID uuid.UUID) error {
	now := s.now()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		reaped, err := repo.MarkCampaignFailed(ctx, campaignID, now)
		if err != nil {
			return err
		}
		if !reaped {
			campaign, err := repo.FindCampaignByID(ctx, campaignID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
				}
				return err
			}
			if campaign.Status != enums.CampaignStatusPending {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "campaign is not pending")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "campaign is not due for reaping")
		}
		return nil
	})
}

// ReapDue sweeps every pending campaign past its deadline. Failures are
// collected so one bad campaign does not stall the rest of the batch.
func (s *Service) ReapDue(ctx context.Context) (int, error) {
	due, err := s.repo.FindDuePendingCampaigns(ctx, s.now(), s.cfg.ReapBatchSize)
	if err != nil {
		return 0, err
	}

	var reaped int
	var errs error
	for _, campaign := range due {
		if err := s.Reap(ctx, campaign.ID); err != nil {
			s.logg.Error(s.logg.WithCampaignID(ctx, campaign.ID.String()), "campaign reap failed", err)
			errs = multierr.Append(errs, err)
			continue
		}
		reaped++
	}
	if reaped > 0 {
		s.logg.Info(s.logg.WithField(ctx, "count", reaped), "expired campaigns reaped")
	}
	return reaped, errs
}
