package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vientianelabs/khumsue-backend/pkg/config"
	"github.com/vientianelabs/khumsue-backend/pkg/gateway/onepay"
)

func testGateway(t *testing.T) *onepay.Client {
	t.Helper()
	client, err := onepay.NewClient(config.OnePayConfig{
		MerchantID: "KHUMSUE01",
		APIKey:     "test-key",
		APISecret:  "test-secret",
		APIURL:     "http://localhost:0",
	}, testLogger())
	if err != nil {
		t.Fatalf("onepay client: %v", err)
	}
	return client
}

func TestSubmitProofRejectsInvalidOrderID(t *testing.T) {
	svc := newPaymentsService(t, testDB(t))

	req := jsonRequest(http.MethodPost, "/api/v1/orders/nope/proof", `{"proof_image_url":"https://cdn.example.la/slip.jpg","amount":30000,"payment_method":"transfer"}`)
	req = withURLParam(req, "orderId", "nope")
	rec := httptest.NewRecorder()
	SubmitProof(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitProofValidatesPayload(t *testing.T) {
	svc := newPaymentsService(t, testDB(t))
	orderID := "7e3d8a4e-8e1a-4c9b-b0cd-0e63cfd0a002"

	req := jsonRequest(http.MethodPost, "/api/v1/orders/"+orderID+"/proof", `{"amount":0}`)
	req = withURLParam(req, "orderId", orderID)
	rec := httptest.NewRecorder()
	SubmitProof(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing proof fields, got %d", rec.Code)
	}
}

// A tampered or unsigned callback must be dropped before it touches any
// order state.
func TestGatewayCallbackRejectsBadSignature(t *testing.T) {
	svc := newPaymentsService(t, testDB(t))
	gateway := testGateway(t)

	body := `{"order_id":"7e3d8a4e-8e1a-4c9b-b0cd-0e63cfd0a003","transaction_id":"TXN-1","amount":30000,"status":"success","signature":"deadbeef"}`
	req := jsonRequest(http.MethodPost, "/api/v1/payments/callback", body)
	rec := httptest.NewRecorder()
	GatewayCallback(svc, gateway, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for forged signature, got %d", rec.Code)
	}
}

func TestCreateGatewayPaymentValidation(t *testing.T) {
	orders := newOrdersService(t, testDB(t))
	gateway := testGateway(t)

	req := jsonRequest(http.MethodPost, "/api/v1/payments/create", `{"order_id":"not-a-uuid"}`)
	rec := httptest.NewRecorder()
	CreateGatewayPayment(orders, gateway, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
