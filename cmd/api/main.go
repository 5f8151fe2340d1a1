package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/vientianelabs/khumsue-backend/api/routes"
	authsvc "github.com/vientianelabs/khumsue-backend/internal/auth"
	dashboardsvc "github.com/vientianelabs/khumsue-backend/internal/dashboard"
	"github.com/vientianelabs/khumsue-backend/internal/groupbuy"
	mediasvc "github.com/vientianelabs/khumsue-backend/internal/media"
	ordersvc "github.com/vientianelabs/khumsue-backend/internal/orders"
	paymentsvc "github.com/vientianelabs/khumsue-backend/internal/payments"
	productsvc "github.com/vientianelabs/khumsue-backend/internal/products"
	"github.com/vientianelabs/khumsue-backend/pkg/config"
	"github.com/vientianelabs/khumsue-backend/pkg/db"
	"github.com/vientianelabs/khumsue-backend/pkg/gateway/onepay"
	"github.com/vientianelabs/khumsue-backend/pkg/logger"
	"github.com/vientianelabs/khumsue-backend/pkg/migrate"
	"github.com/vientianelabs/khumsue-backend/pkg/redis"
	"github.com/vientianelabs/khumsue-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}

	gatewayClient, err := onepay.NewClient(cfg.OnePay, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap payment gateway", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()

	authService, err := authsvc.NewService(authsvc.NewRepository(gormDB), cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	productService, err := productsvc.NewService(productsvc.NewRepository(gormDB), dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	groupbuyService, err := groupbuy.NewService(groupbuy.NewRepository(gormDB), dbClient, cfg.GroupBuy, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create group-buy service", err)
		os.Exit(1)
	}

	orderService, err := ordersvc.NewService(ordersvc.NewRepository(gormDB), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	paymentService, err := paymentsvc.NewService(paymentsvc.NewRepository(gormDB), dbClient, groupbuyService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	mediaService, err := mediasvc.NewService(gcsClient.BucketHandle(""), cfg.Media, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	dashboardService, err := dashboardsvc.NewService(gormDB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Deps{
			DB:        dbClient,
			Redis:     redisClient,
			Auth:      authService,
			Products:  productService,
			GroupBuy:  groupbuyService,
			Orders:    orderService,
			Payments:  paymentService,
			Media:     mediaService,
			Dashboard: dashboardService,
			Gateway:   gatewayClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
