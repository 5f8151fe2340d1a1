package products

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vientianelabs/khumsue-backend/internal/pricing"
	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
	"github.com/vientianelabs/khumsue-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages the product catalog and its tier tables.
type Service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(repo Repository, tx txRunner, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("products: repository is required")
	}
	if tx == nil {
		return nil, errors.New("products: transaction runner is required")
	}
	if logg == nil {
		return nil, errors.New("products: logger is required")
	}
	return &Service{repo: repo, tx: tx, logg: logg}, nil
}

// TierInput is one row of a product's tier table.
type TierInput struct {
	MinPeople int
	Price     int64
}

// CreateInput is the admin product creation payload.
type CreateInput struct {
	Name          string
	NameLo        *string
	Description   string
	DescriptionLo *string
	Images        []string
	OriginalPrice int64
	Stock         int
	Category      string
	Tiers         []TierInput
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if in.OriginalPrice <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "original_price must be positive")
	}

	tiers := buildTiers(uuid.Nil, in.Tiers)
	if err := pricing.ValidateTiers(tiers, in.OriginalPrice); err != nil {
		return nil, err
	}

	var created *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.Create(ctx, &models.Product{
			ID:            uuid.New(),
			Name:          in.Name,
			NameLo:        in.NameLo,
			Description:   in.Description,
			DescriptionLo: in.DescriptionLo,
			Images:        in.Images,
			OriginalPrice: in.OriginalPrice,
			Stock:         in.Stock,
			Category:      in.Category,
			Status:        enums.ProductStatusActive,
		})
		if err != nil {
			return err
		}
		if err := repo.ReplaceTiers(ctx, product.ID, buildTiers(product.ID, in.Tiers)); err != nil {
			return err
		}
		created, err = repo.FindByID(ctx, product.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", created.ID.String()), "product created")
	return created, nil
}

// UpdateInput patches a product. Nil fields are left untouched; a non-nil
// Tiers replaces the whole tier table.
type UpdateInput struct {
	Name          *string
	NameLo        *string
	Description   *string
	DescriptionLo *string
	Images        []string
	OriginalPrice *int64
	Stock         *int
	Category      *string
	Status        *enums.ProductStatus
	Tiers         []TierInput
}

func (s *Service) Update(ctx context.Context, productID uuid.UUID, in UpdateInput) (*models.Product, error) {
	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindByID(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return err
		}

		updates := map[string]any{}
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
			}
			updates["name"] = *in.Name
		}
		if in.NameLo != nil {
			updates["name_lo"] = *in.NameLo
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.DescriptionLo != nil {
			updates["description_lo"] = *in.DescriptionLo
		}
		if in.OriginalPrice != nil {
			if *in.OriginalPrice <= 0 {
				return pkgerrors.New(pkgerrors.CodeValidation, "original_price must be positive")
			}
			updates["original_price"] = *in.OriginalPrice
		}
		if in.Stock != nil {
			updates["stock"] = *in.Stock
		}
		if in.Category != nil {
			updates["category"] = *in.Category
		}
		if in.Status != nil {
			if !in.Status.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
			}
			updates["status"] = *in.Status
		}

		originalPrice := product.OriginalPrice
		if in.OriginalPrice != nil {
			originalPrice = *in.OriginalPrice
		}

		if in.Tiers != nil {
			tiers := buildTiers(productID, in.Tiers)
			if err := pricing.ValidateTiers(tiers, originalPrice); err != nil {
				return err
			}
			if err := repo.ReplaceTiers(ctx, productID, tiers); err != nil {
				return err
			}
		} else if in.OriginalPrice != nil {
			// Price change must not leave existing tiers above the new ceiling.
			if err := pricing.ValidateTiers(product.Tiers, originalPrice); err != nil {
				return err
			}
		}

		if len(updates) > 0 {
			updates["updated_at"] = time.Now().UTC()
			if err := repo.Update(ctx, productID, updates); err != nil {
				return err
			}
		}
		updated, err = repo.FindByID(ctx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", productID.String()), "product updated")
	return updated, nil
}

// Deactivate retires a product from the storefront. Rows are never deleted;
// existing campaigns and orders keep their references.
func (s *Service) Deactivate(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.ByID(ctx, productID); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, productID, map[string]any{
		"status":     enums.ProductStatusInactive,
		"updated_at": time.Now().UTC(),
	}); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", productID.String()), "product deactivated")
	return nil
}

func (s *Service) ByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return product, nil
}

// ListParams filters the catalog listing.
type ListParams struct {
	Category   string
	ActiveOnly bool
	Limit      int
	Cursor     string
}

func (s *Service) List(ctx context.Context, params ListParams) ([]models.Product, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	items, next, err := s.repo.List(ctx, ListQuery{
		Category:   params.Category,
		ActiveOnly: params.ActiveOnly,
		Limit:      params.Limit,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, "", err
	}

	var nextCursor string
	if next != nil {
		nextCursor = pagination.EncodeCursor(*next)
	}
	return items, nextCursor, nil
}

func buildTiers(productID uuid.UUID, inputs []TierInput) []models.PriceTier {
	inputs = append([]TierInput(nil), inputs...)
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].MinPeople < inputs[j].MinPeople })

	tiers := make([]models.PriceTier, 0, len(inputs))
	for _, in := range inputs {
		tier := models.PriceTier{
			ProductID: productID,
			MinPeople: in.MinPeople,
			Price:     in.Price,
		}
		if productID != uuid.Nil {
			tier.ID = uuid.New()
		}
		tiers = append(tiers, tier)
	}
	return tiers
}
