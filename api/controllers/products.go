package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vientianelabs/khumsue-backend/api/responses"
	"github.com/vientianelabs/khumsue-backend/api/validators"
	productsvc "github.com/vientianelabs/khumsue-backend/internal/products"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

// ListProducts serves the public catalog. Only active products are visible.
func ListProducts(svc *productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, next, err := svc.List(r.Context(), productsvc.ListParams{
			Category:   strings.TrimSpace(r.URL.Query().Get("category")),
			ActiveOnly: true,
			Limit:      limit,
			Cursor:     strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": items, "next_cursor": next})
	}
}

// GetProduct returns a single product with its price tiers.
func GetProduct(svc *productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, err := svc.ByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminListProducts serves the back-office catalog including inactive rows.
func AdminListProducts(svc *productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, next, err := svc.List(r.Context(), productsvc.ListParams{
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": items, "next_cursor": next})
	}
}

type productTierRequest struct {
	MinPeople int   `json:"min_people" validate:"required,min=1"`
	Price     int64 `json:"price" validate:"required,min=1"`
}

type createProductRequest struct {
	Name          string               `json:"name" validate:"required"`
	NameLo        *string              `json:"name_lo,omitempty"`
	Description   string               `json:"description"`
	DescriptionLo *string              `json:"description_lo,omitempty"`
	Images        []string             `json:"images,omitempty"`
	OriginalPrice int64                `json:"original_price" validate:"required,min=1"`
	Stock         int                  `json:"stock" validate:"omitempty,min=0"`
	Category      string               `json:"category" validate:"required"`
	Tiers         []productTierRequest `json:"tiers" validate:"required,min=1,dive"`
}

func (p createProductRequest) toCreateInput() productsvc.CreateInput {
	tiers := make([]productsvc.TierInput, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		tiers = append(tiers, productsvc.TierInput{MinPeople: t.MinPeople, Price: t.Price})
	}
	return productsvc.CreateInput{
		Name:          strings.TrimSpace(p.Name),
		NameLo:        p.NameLo,
		Description:   strings.TrimSpace(p.Description),
		DescriptionLo: p.DescriptionLo,
		Images:        p.Images,
		OriginalPrice: p.OriginalPrice,
		Stock:         p.Stock,
		Category:      strings.TrimSpace(p.Category),
		Tiers:         tiers,
	}
}

// AdminCreateProduct provisions a product together with its tier ladder.
func AdminCreateProduct(svc *productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), payload.toCreateInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

type updateProductRequest struct {
	Name          *string              `json:"name,omitempty"`
	NameLo        *string              `json:"name_lo,omitempty"`
	Description   *string              `json:"description,omitempty"`
	DescriptionLo *string              `json:"description_lo,omitempty"`
	Images        []string             `json:"images,omitempty"`
	OriginalPrice *int64               `json:"original_price,omitempty" validate:"omitempty,min=1"`
	Stock         *int                 `json:"stock,omitempty" validate:"omitempty,min=0"`
	Category      *string              `json:"category,omitempty"`
	Status        *string              `json:"status,omitempty"`
	Tiers         []productTierRequest `json:"tiers,omitempty" validate:"omitempty,min=1,dive"`
}

func (p updateProductRequest) toUpdateInput() (productsvc.UpdateInput, error) {
	in := productsvc.UpdateInput{
		Name:          p.Name,
		NameLo:        p.NameLo,
		Description:   p.Description,
		DescriptionLo: p.DescriptionLo,
		Images:        p.Images,
		OriginalPrice: p.OriginalPrice,
		Stock:         p.Stock,
		Category:      p.Category,
	}
	if p.Status != nil {
		status, err := enums.ParseProductStatus(strings.TrimSpace(*p.Status))
		if err != nil {
			return productsvc.UpdateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		in.Status = &status
	}
	if len(p.Tiers) > 0 {
		tiers := make([]productsvc.TierInput, 0, len(p.Tiers))
		for _, t := range p.Tiers {
			tiers = append(tiers, productsvc.TierInput{MinPeople: t.MinPeople, Price: t.Price})
		}
		in.Tiers = tiers
	}
	return in, nil
}

// AdminUpdateProduct patches product fields and optionally replaces the tier ladder.
func AdminUpdateProduct(svc *productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toUpdateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// AdminDeactivateProduct hides a product from the storefront. Rows are never deleted.
func AdminDeactivateProduct(svc *productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "inactive"})
	}
}
