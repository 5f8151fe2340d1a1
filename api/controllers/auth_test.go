package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vientianelabs/khumsue-backend/api/middleware"
)

func TestAdminLoginValidatesPayload(t *testing.T) {
	svc := newAuthService(t, testDB(t))

	cases := []struct {
		name string
		body string
	}{
		{name: "missing password", body: `{"email":"admin@khumsue.la"}`},
		{name: "bad email", body: `{"email":"not-an-email","password":"secret"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := jsonRequest(http.MethodPost, "/api/admin/v1/auth/login", tc.body)
			rec := httptest.NewRecorder()
			AdminLogin(svc, testLogger()).ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestAdminMeRequiresContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	AdminMe(nil, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when service is missing, got %d", rec.Code)
	}
}

func TestAdminMeRejectsBadAdminID(t *testing.T) {
	svc := newAuthService(t, testDB(t))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/auth/me", nil)
	req = req.WithContext(middleware.WithAdminID(context.Background(), "not-a-uuid"))
	rec := httptest.NewRecorder()
	AdminMe(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed admin id, got %d", rec.Code)
	}
}

func TestAdminMeMissingContext(t *testing.T) {
	svc := newAuthService(t, testDB(t))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	AdminMe(svc, testLogger()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without admin context, got %d", rec.Code)
	}
}
