package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vientianelabs/khumsue-backend/api/middleware"
	"github.com/vientianelabs/khumsue-backend/api/responses"
	"github.com/vientianelabs/khumsue-backend/api/validators"
	ordersvc "github.com/vientianelabs/khumsue-backend/internal/orders"
	paymentsvc "github.com/vientianelabs/khumsue-backend/internal/payments"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

// GetOrder returns an order with its product, campaign and member preloaded.
func GetOrder(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.ByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// OrdersByPhone lets a buyer look up their orders without an account.
func OrdersByPhone(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orders, err := svc.ByPhone(r.Context(), r.URL.Query().Get("phone"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": orders})
	}
}

// AdminListOrders serves the back-office order table with filters and paging.
func AdminListOrders(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := ordersvc.ListParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseOrderStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status"))
				return
			}
			params.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
			status, parseErr := enums.ParsePaymentStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid payment status"))
				return
			}
			params.PaymentStatus = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("campaign_id")); raw != "" {
			campaignID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid campaign id"))
				return
			}
			params.CampaignID = &campaignID
		}

		orders, next, err := svc.ListAll(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": orders, "next_cursor": next})
	}
}

type updateOrderRequest struct {
	Status         *string `json:"status,omitempty"`
	ShippingStatus *string `json:"shipping_status,omitempty"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

func (p updateOrderRequest) toFulfillmentInput() (ordersvc.FulfillmentInput, error) {
	in := ordersvc.FulfillmentInput{
		TrackingNumber: p.TrackingNumber,
		Notes:          p.Notes,
	}
	if p.Status != nil {
		status, err := enums.ParseOrderStatus(strings.TrimSpace(*p.Status))
		if err != nil {
			return ordersvc.FulfillmentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		in.Status = &status
	}
	if p.ShippingStatus != nil {
		status, err := enums.ParseShippingStatus(strings.TrimSpace(*p.ShippingStatus))
		if err != nil {
			return ordersvc.FulfillmentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping status")
		}
		in.ShippingStatus = &status
	}
	return in, nil
}

// AdminUpdateOrder patches fulfillment fields. Payment state is off limits
// here; it only moves through the verification endpoints.
func AdminUpdateOrder(svc *ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toFulfillmentInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.UpdateFulfillment(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, order)
	}
}

// AdminApprovePayment verifies the latest proof on an order and advances the
// campaign counter.
func AdminApprovePayment(svc *paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		adminID, err := uuid.Parse(middleware.AdminIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "admin context missing"))
			return
		}

		if err := svc.Approve(r.Context(), orderID, adminID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": string(enums.PaymentStatusVerified)})
	}
}

type rejectPaymentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// AdminRejectPayment rejects the latest proof with a reason the buyer can act on.
func AdminRejectPayment(svc *paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		adminID, err := uuid.Parse(middleware.AdminIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "admin context missing"))
			return
		}

		var payload rejectPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Reject(r.Context(), orderID, adminID, strings.TrimSpace(payload.Reason)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": string(enums.PaymentStatusRejected)})
	}
}
