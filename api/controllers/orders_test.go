package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/vientianelabs/khumsue-backend/api/middleware"
)

func TestGetOrderRejectsInvalidID(t *testing.T) {
	svc := newOrdersService(t, testDB(t))

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/orders/nope", nil), "orderId", "nope")
	rec := httptest.NewRecorder()
	GetOrder(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOrdersByPhoneRequiresPhone(t *testing.T) {
	svc := newOrdersService(t, testDB(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rec := httptest.NewRecorder()
	OrdersByPhone(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without phone, got %d", rec.Code)
	}
}

func TestAdminListOrdersRejectsBadFilters(t *testing.T) {
	svc := newOrdersService(t, testDB(t))

	cases := []struct {
		name  string
		query string
	}{
		{name: "bogus status", query: "?status=flying"},
		{name: "bogus payment status", query: "?payment_status=maybe"},
		{name: "bogus campaign id", query: "?campaign_id=not-a-uuid"},
		{name: "limit too large", query: "?limit=5000"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders"+tc.query, nil)
			rec := httptest.NewRecorder()
			AdminListOrders(svc, testLogger()).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestAdminUpdateOrderRejectsBadStatus(t *testing.T) {
	svc := newOrdersService(t, testDB(t))
	orderID := uuid.New().String()

	req := jsonRequest(http.MethodPatch, "/api/admin/v1/orders/"+orderID, `{"status":"teleported"}`)
	req = withURLParam(req, "orderId", orderID)
	rec := httptest.NewRecorder()
	AdminUpdateOrder(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminApprovePaymentRequiresAdminContext(t *testing.T) {
	svc := newPaymentsService(t, testDB(t))
	orderID := uuid.New().String()

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/admin/v1/orders/"+orderID+"/approve", nil), "orderId", orderID)
	rec := httptest.NewRecorder()
	AdminApprovePayment(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without admin context, got %d", rec.Code)
	}
}

func TestAdminRejectPaymentRequiresReason(t *testing.T) {
	svc := newPaymentsService(t, testDB(t))
	orderID := uuid.New().String()

	req := jsonRequest(http.MethodPost, "/api/admin/v1/orders/"+orderID+"/reject", `{}`)
	req = withURLParam(req, "orderId", orderID)
	req = req.WithContext(middleware.WithAdminID(context.Background(), uuid.New().String()))
	rec := httptest.NewRecorder()
	AdminRejectPayment(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a reason, got %d", rec.Code)
	}
}
