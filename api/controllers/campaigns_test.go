package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetCampaignRejectsInvalidID(t *testing.T) {
	svc := newGroupBuyService(t, testDB(t))

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/nope", nil), "campaignId", "nope")
	rec := httptest.NewRecorder()
	GetCampaign(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid id, got %d", rec.Code)
	}
}

func TestGetCampaignServiceUnavailable(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/x", nil), "campaignId", "x")
	rec := httptest.NewRecorder()
	GetCampaign(nil, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when service is missing, got %d", rec.Code)
	}
}

func TestJoinCampaignValidation(t *testing.T) {
	svc := newGroupBuyService(t, testDB(t))
	campaignID := "7e3d8a4e-8e1a-4c9b-b0cd-0e63cfd0a001"

	cases := []struct {
		name string
		body string
	}{
		{name: "missing fields", body: `{"name":"Noy"}`},
		{name: "unknown payment method", body: `{"name":"Noy","phone":"02055511122","address":"Vientiane","payment_method":"paypal"}`},
		{name: "malformed json", body: `{"name":`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := jsonRequest(http.MethodPost, "/api/v1/campaigns/"+campaignID+"/join", tc.body)
			req = withURLParam(req, "campaignId", campaignID)
			rec := httptest.NewRecorder()
			JoinCampaign(svc, testLogger()).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestAdminCreateCampaignRejectsBadProductID(t *testing.T) {
	svc := newGroupBuyService(t, testDB(t))

	req := jsonRequest(http.MethodPost, "/api/admin/v1/campaigns", `{"product_id":"not-a-uuid","target_people":5,"expires_at":"2026-12-01T00:00:00Z"}`)
	rec := httptest.NewRecorder()
	AdminCreateCampaign(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
