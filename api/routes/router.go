package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vientianelabs/khumsue-backend/api/controllers"
	"github.com/vientianelabs/khumsue-backend/api/middleware"
	authsvc "github.com/vientianelabs/khumsue-backend/internal/auth"
	dashboardsvc "github.com/vientianelabs/khumsue-backend/internal/dashboard"
	"github.com/vientianelabs/khumsue-backend/internal/groupbuy"
	mediasvc "github.com/vientianelabs/khumsue-backend/internal/media"
	ordersvc "github.com/vientianelabs/khumsue-backend/internal/orders"
	paymentsvc "github.com/vientianelabs/khumsue-backend/internal/payments"
	productsvc "github.com/vientianelabs/khumsue-backend/internal/products"
	pkgauth "github.com/vientianelabs/khumsue-backend/pkg/auth"
	"github.com/vientianelabs/khumsue-backend/pkg/config"
	"github.com/vientianelabs/khumsue-backend/pkg/db"
	"github.com/vientianelabs/khumsue-backend/pkg/gateway/onepay"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
	pkgredis "github.com/vientianelabs/khumsue-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Every service is wired in
// cmd/api; nil entries make the matching handlers answer 500 instead of
// panicking.
type Deps struct {
	DB        db.Pinger
	Redis     *pkgredis.Client
	Auth      *authsvc.Service
	Products  *productsvc.Service
	GroupBuy  *groupbuy.Service
	Orders    *ordersvc.Service
	Payments  *paymentsvc.Service
	Media     *mediasvc.Service
	Dashboard *dashboardsvc.Service
	Gateway   *onepay.Client
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	// Storefront surface. No accounts: buyers are identified by phone number
	// and order IDs. Joins and proof submissions are idempotency-keyed.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Get("/products", controllers.ListProducts(deps.Products, logg))
		r.Get("/products/{productId}", controllers.GetProduct(deps.Products, logg))
		r.Get("/products/{productId}/campaigns", controllers.ProductCampaigns(deps.GroupBuy, logg))
		r.Post("/products/{productId}/campaigns/select", controllers.SelectCampaign(deps.GroupBuy, logg))

		r.Get("/campaigns/{campaignId}", controllers.GetCampaign(deps.GroupBuy, logg))
		r.Post("/campaigns/{campaignId}/join", controllers.JoinCampaign(deps.GroupBuy, logg))

		r.Get("/orders", controllers.OrdersByPhone(deps.Orders, logg))
		r.Get("/orders/{orderId}", controllers.GetOrder(deps.Orders, logg))
		r.Post("/orders/{orderId}/proof", controllers.SubmitProof(deps.Payments, logg))

		r.Post("/payments/create", controllers.CreateGatewayPayment(deps.Orders, deps.Gateway, logg))
		r.Post("/payments/callback", controllers.GatewayCallback(deps.Payments, deps.Gateway, logg))

		r.Post("/uploads", controllers.UploadMedia(deps.Media, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Post("/auth/login", controllers.AdminLogin(deps.Auth, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(pkgauth.RoleAdmin, logg))
			r.Use(middleware.Idempotency(deps.Redis, logg))

			r.Get("/auth/me", controllers.AdminMe(deps.Auth, logg))

			r.Get("/products", controllers.AdminListProducts(deps.Products, logg))
			r.Post("/products", controllers.AdminCreateProduct(deps.Products, logg))
			r.Patch("/products/{productId}", controllers.AdminUpdateProduct(deps.Products, logg))
			r.Delete("/products/{productId}", controllers.AdminDeactivateProduct(deps.Products, logg))

			r.Post("/campaigns", controllers.AdminCreateCampaign(deps.GroupBuy, logg))
			r.Post("/campaigns/{campaignId}/reap", controllers.AdminReapCampaign(deps.GroupBuy, logg))

			r.Get("/orders", controllers.AdminListOrders(deps.Orders, logg))
			r.Patch("/orders/{orderId}", controllers.AdminUpdateOrder(deps.Orders, logg))
			r.Post("/orders/{orderId}/approve", controllers.AdminApprovePayment(deps.Payments, logg))
			r.Post("/orders/{orderId}/reject", controllers.AdminRejectPayment(deps.Payments, logg))

			r.Get("/payments/pending", controllers.AdminPendingProofs(deps.Payments, logg))

			r.Post("/uploads", controllers.UploadMedia(deps.Media, logg))
			r.Get("/dashboard", controllers.AdminDashboard(deps.Dashboard, logg))
		})
	})

	return r
}
