package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/itsriyaas/digitalcard-backend/api/routes"
	authsvc "github.com/itsriyaas/digitalcard-backend/internal/auth"
	cartsvc "github.com/itsriyaas/digitalcard-backend/internal/cart"
	cataloguesvc "github.com/itsriyaas/digitalcard-backend/internal/catalogues"
	checkoutsvc "github.com/itsriyaas/digitalcard-backend/internal/checkout"
	couponsvc "github.com/itsriyaas/digitalcard-backend/internal/coupons"
	ordersvc "github.com/itsriyaas/digitalcard-backend/internal/orders"
	paymentsvc "github.com/itsriyaas/digitalcard-backend/internal/payments"
	productsvc "github.com/itsriyaas/digitalcard-backend/internal/products"
	"github.com/itsriyaas/digitalcard-backend/pkg/config"
	"github.com/itsriyaas/digitalcard-backend/pkg/db"
	"github.com/itsriyaas/digitalcard-backend/pkg/logger"
	"github.com/itsriyaas/digitalcard-backend/pkg/outbox"
	"github.com/itsriyaas/digitalcard-backend/pkg/redis"
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

	if err := db.MaybeAutoMigrate(context.Background(), cfg, logg, dbClient); err != nil {
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

	svcs, err := buildServices(cfg, logg, dbClient, redisClient)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, svcs),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-shutdownCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "error draining api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Services, error) {
	gormDB := dbClient.DB()

	authRepo := authsvc.NewRepository(gormDB)
	catalogueRepo := cataloguesvc.NewRepository(gormDB)
	productRepo := productsvc.NewRepository(gormDB)
	couponRepo := couponsvc.NewRepository(gormDB)
	cartRepo := cartsvc.NewRepository(gormDB)
	orderRepo := ordersvc.NewRepository(gormDB)
	paymentRepo := paymentsvc.NewRepository(gormDB)

	events := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authService, err := authsvc.NewService(authRepo, cfg.JWT, cfg.Password, logg)
	if err != nil {
		return routes.Services{}, err
	}
	catalogueService, err := cataloguesvc.NewService(catalogueRepo, redisClient, logg)
	if err != nil {
		return routes.Services{}, err
	}
	productService, err := productsvc.NewService(productRepo, logg)
	if err != nil {
		return routes.Services{}, err
	}
	couponService, err := couponsvc.NewService(couponRepo, logg)
	if err != nil {
		return routes.Services{}, err
	}
	cartService, err := cartsvc.NewService(cartRepo, productRepo, couponRepo, logg)
	if err != nil {
		return routes.Services{}, err
	}
	checkoutService, err := checkoutsvc.NewService(dbClient, cartRepo, productRepo, couponRepo, orderRepo, catalogueRepo, events, logg)
	if err != nil {
		return routes.Services{}, err
	}
	orderService, err := ordersvc.NewService(dbClient, orderRepo, productRepo, catalogueRepo, events, logg)
	if err != nil {
		return routes.Services{}, err
	}
	paymentService, err := paymentsvc.NewService(
		dbClient,
		paymentRepo,
		orderRepo,
		catalogueRepo,
		paymentsvc.NewHTTPGateway(cfg.Gateway),
		redisClient,
		events,
		cfg.Gateway,
		logg,
	)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:       authService,
		Catalogues: catalogueService,
		Products:   productService,
		Coupons:    couponService,
		Cart:       cartService,
		Checkout:   checkoutService,
		Orders:     orderService,
		Payments:   paymentService,
	}, nil
}
