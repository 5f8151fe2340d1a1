package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vientianelabs/khumsue-backend/api/responses"
	"github.com/vientianelabs/khumsue-backend/api/validators"
	"github.com/vientianelabs/khumsue-backend/internal/groupbuy"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

// GetCampaign returns a campaign with its product and tier ladder.
func GetCampaign(svc *groupbuy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "campaignId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid campaign id"))
			return
		}

		campaign, err := svc.GetCampaign(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, campaign)
	}
}

// ProductCampaigns lists the open campaigns a buyer could join for a product.
func ProductCampaigns(svc *groupbuy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		campaigns, err := svc.OpenCampaigns(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": campaigns})
	}
}

// SelectCampaign picks the best joinable campaign for a product, creating a
// fresh one when none is open.
func SelectCampaign(svc *groupbuy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		result, err := svc.SelectOrCreate(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"campaign": result.Campaign,
			"created":  result.Created,
		})
	}
}

type joinCampaignRequest struct {
	Name          string `json:"name" validate:"required"`
	Phone         string `json:"phone" validate:"required"`
	Address       string `json:"address" validate:"required"`
	Quantity      int    `json:"quantity" validate:"omitempty,min=1"`
	PaymentMethod string `json:"payment_method" validate:"required"`
}

func (p joinCampaignRequest) toJoinInput(campaignID uuid.UUID) (groupbuy.JoinInput, error) {
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(p.PaymentMethod))
	if err != nil {
		return groupbuy.JoinInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	quantity := p.Quantity
	if quantity == 0 {
		quantity = 1
	}
	return groupbuy.JoinInput{
		CampaignID:    campaignID,
		Name:          strings.TrimSpace(p.Name),
		Phone:         strings.TrimSpace(p.Phone),
		Address:       strings.TrimSpace(p.Address),
		Quantity:      quantity,
		PaymentMethod: method,
	}, nil
}

// JoinCampaign admits a buyer to a campaign and returns the order carrying
// the frozen price split.
func JoinCampaign(svc *groupbuy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		campaignID, err := uuid.Parse(chi.URLParam(r, "campaignId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid campaign id"))
			return
		}

		var payload joinCampaignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toJoinInput(campaignID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Join(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"order":    result.Order,
			"member":   result.Member,
			"campaign": result.Campaign,
		})
	}
}

type createCampaignRequest struct {
	ProductID    string    `json:"product_id" validate:"required,uuid"`
	TargetPeople int       `json:"target_people" validate:"required,min=1"`
	ExpiresAt    time.Time `json:"expires_at" validate:"required"`
	IsOfficial   bool      `json:"is_official"`
}

// AdminCreateCampaign opens an official campaign with an explicit target and deadline.
func AdminCreateCampaign(svc *groupbuy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		var payload createCampaignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		campaign, err := svc.CreateCampaign(r.Context(), groupbuy.CreateCampaignInput{
			ProductID:    productID,
			TargetPeople: payload.TargetPeople,
			ExpiresAt:    payload.ExpiresAt,
			IsOfficial:   payload.IsOfficial,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, campaign)
	}
}

// AdminReapCampaign forces the failure path on an expired underfilled campaign.
func AdminReapCampaign(svc *groupbuy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaign service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "campaignId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid campaign id"))
			return
		}

		if err := svc.Reap(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": string(enums.CampaignStatusFailed)})
	}
}
