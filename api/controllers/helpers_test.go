package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	authsvc "github.com/vientianelabs/khumsue-backend/internal/auth"
	"github.com/vientianelabs/khumsue-backend/internal/groupbuy"
	ordersvc "github.com/vientianelabs/khumsue-backend/internal/orders"
	paymentsvc "github.com/vientianelabs/khumsue-backend/internal/payments"
	productsvc "github.com/vientianelabs/khumsue-backend/internal/products"
	"github.com/vientianelabs/khumsue-backend/pkg/config"
	"github.com/vientianelabs/khumsue-backend/pkg/db/models"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// testDB opens a throwaway database. The guard-path tests in this package
// fail before any query runs, so no schema is loaded.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:controllers_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return gdb
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newGroupBuyService(t *testing.T, gdb *gorm.DB) *groupbuy.Service {
	t.Helper()
	svc, err := groupbuy.NewService(groupbuy.NewRepository(gdb), gormTxRunner{db: gdb}, config.GroupBuyConfig{DepositPercent: 30}, testLogger())
	if err != nil {
		t.Fatalf("group-buy service: %v", err)
	}
	return svc
}

func newOrdersService(t *testing.T, gdb *gorm.DB) *ordersvc.Service {
	t.Helper()
	svc, err := ordersvc.NewService(ordersvc.NewRepository(gdb), testLogger())
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	return svc
}

func newProductsService(t *testing.T, gdb *gorm.DB) *productsvc.Service {
	t.Helper()
	svc, err := productsvc.NewService(productsvc.NewRepository(gdb), gormTxRunner{db: gdb}, testLogger())
	if err != nil {
		t.Fatalf("products service: %v", err)
	}
	return svc
}

func newAuthService(t *testing.T, gdb *gorm.DB) *authsvc.Service {
	t.Helper()
	svc, err := authsvc.NewService(authsvc.NewRepository(gdb), config.JWTConfig{Secret: "test-secret", Issuer: "khumsue", ExpirationMinutes: 60}, config.PasswordConfig{}, testLogger())
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	return svc
}

type noopCounter struct{}

func (noopCounter) ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*models.Campaign, error) {
	return nil, nil
}

func newPaymentsService(t *testing.T, gdb *gorm.DB) *paymentsvc.Service {
	t.Helper()
	svc, err := paymentsvc.NewService(paymentsvc.NewRepository(gdb), gormTxRunner{db: gdb}, noopCounter{}, testLogger())
	if err != nil {
		t.Fatalf("payments service: %v", err)
	}
	return svc
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}
