package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vientianelabs/khumsue-backend/api/responses"
	"github.com/vientianelabs/khumsue-backend/api/validators"
	ordersvc "github.com/vientianelabs/khumsue-backend/internal/orders"
	paymentsvc "github.com/vientianelabs/khumsue-backend/internal/payments"
	"github.com/vientianelabs/khumsue-backend/pkg/enums"
	pkgerrors "github.com/vientianelabs/khumsue-backend/pkg/errors"
	"github.com/vientianelabs/khumsue-backend/pkg/gateway/onepay"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
	"github.com/vientianelabs/khumsue-backend/pkg/pagination"
)

type submitProofRequest struct {
	ProofImageURL string `json:"proof_image_url" validate:"required,url"`
	Amount        int64  `json:"amount" validate:"required,min=1"`
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// SubmitProof attaches a transfer slip to an order and queues it for review.
func SubmitProof(svc *paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
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

		var payload submitProofRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.PaymentMethod))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		proof, err := svc.SubmitProof(r.Context(), paymentsvc.SubmitProofInput{
			OrderID:       orderID,
			ProofImageURL: payload.ProofImageURL,
			Amount:        payload.Amount,
			PaymentMethod: method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, proof)
	}
}

type createGatewayPaymentRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
}

// CreateGatewayPayment starts a BCEL OnePay payment for whatever the order
// currently owes: the deposit before the group fills, the balance after.
func CreateGatewayPayment(orders *ordersvc.Service, gateway *onepay.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if orders == nil || gateway == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway unavailable"))
			return
		}

		var payload createGatewayPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := uuid.Parse(payload.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := orders.ByID(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var amount int64
		var stage string
		switch order.Status {
		case enums.OrderStatusPendingDeposit:
			amount = order.DepositAmount
			stage = "deposit"
		case enums.OrderStatusPendingFinal:
			amount = order.TotalPrice - order.DepositAmount
			stage = "balance"
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no payment due"))
			return
		}
		if !order.PaymentStatus.AwaitingProof() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "order already has a payment under review"))
			return
		}

		payment, err := gateway.CreatePayment(r.Context(), onepay.CreatePaymentInput{
			OrderID:     order.ID.String(),
			Amount:      amount,
			Description: "khum sue " + stage,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"transaction_id": payment.TransactionID,
			"payment_url":    payment.PaymentURL,
			"qr_code":        payment.QRCode,
			"amount":         amount,
			"stage":          stage,
		})
	}
}

// GatewayCallback receives the OnePay verdict. The signature is checked
// before anything is trusted; unsigned or tampered callbacks get a 400 and
// are never applied.
func GatewayCallback(svc *paymentsvc.Service, gateway *onepay.Client, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || gateway == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway unavailable"))
			return
		}

		// The gateway is free to add fields; only the signed ones matter here.
		var cb onepay.Callback
		if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback payload"))
			return
		}

		if !gateway.VerifyCallbackSignature(cb) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid callback signature"))
			return
		}

		orderID, err := uuid.Parse(cb.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		if err := svc.RecordGatewayResult(r.Context(), orderID, cb.TransactionID, cb.Amount, cb.Success()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "accepted"})
	}
}

// AdminPendingProofs pages through proofs awaiting review, oldest first.
func AdminPendingProofs(svc *paymentsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		proofs, next, err := svc.ListPending(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": proofs, "next_cursor": next})
	}
}
