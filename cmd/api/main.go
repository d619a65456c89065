package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unieats/unieats-backend/api/controllers"
	"github.com/unieats/unieats-backend/api/routes"
	"github.com/unieats/unieats-backend/internal/addresses"
	"github.com/unieats/unieats-backend/internal/cart"
	"github.com/unieats/unieats-backend/internal/checkout"
	"github.com/unieats/unieats-backend/internal/dues"
	"github.com/unieats/unieats-backend/internal/menu"
	"github.com/unieats/unieats-backend/internal/notify"
	"github.com/unieats/unieats-backend/internal/orders"
	"github.com/unieats/unieats-backend/internal/payments"
	"github.com/unieats/unieats-backend/internal/vendors"
	pkgcache "github.com/unieats/unieats-backend/pkg/cache"
	"github.com/unieats/unieats-backend/pkg/config"
	"github.com/unieats/unieats-backend/pkg/db"
	"github.com/unieats/unieats-backend/pkg/logger"
	"github.com/unieats/unieats-backend/pkg/metrics"
	"github.com/unieats/unieats-backend/pkg/migrate"
	"github.com/unieats/unieats-backend/pkg/razorpay"
	"github.com/unieats/unieats-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	registry := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(registry)

	notifier, err := notify.NewNotifier(redisClient, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	menuSvc, err := menu.NewService(menu.NewRepository(gormDB))
	exitOn(logg, "menu service", err)
	cartSvc, err := cart.NewService(cart.NewRepository(gormDB), menuSvc, dbClient)
	exitOn(logg, "cart service", err)
	addrSvc, err := addresses.NewService(addresses.NewRepository(gormDB))
	exitOn(logg, "addresses service", err)
	vendorSvc, err := vendors.NewService(vendors.NewRepository(gormDB))
	exitOn(logg, "vendors service", err)

	ordersRepo := orders.NewRepository(gormDB)
	ordersSvc, err := orders.NewService(ordersRepo, dbClient, notifier, orderMetrics)
	exitOn(logg, "orders service", err)

	var (
		checkoutSvc checkout.Service
		paymentsSvc payments.Service
	)
	if cfg.Razorpay.KeyID != "" && cfg.Razorpay.KeySecret != "" {
		gateway, err := razorpay.New(cfg.Razorpay)
		exitOn(logg, "razorpay client", err)
		checkoutSvc, err = checkout.NewService(ordersRepo, cartSvc, addrSvc, vendorSvc,
			gateway, dbClient, notifier, orderMetrics, logg)
		exitOn(logg, "checkout service", err)
		paymentsSvc, err = payments.NewService(ordersRepo, cartSvc, gateway, dbClient, notifier, orderMetrics)
		exitOn(logg, "payments service", err)
	} else {
		logg.Warn(context.Background(), "razorpay credentials absent; gateway payments disabled")
		checkoutSvc, err = checkout.NewService(ordersRepo, cartSvc, addrSvc, vendorSvc,
			nil, dbClient, notifier, orderMetrics, logg)
		exitOn(logg, "checkout service", err)
		paymentsSvc, err = payments.NewService(ordersRepo, cartSvc, nil, dbClient, notifier, orderMetrics)
		exitOn(logg, "payments service", err)
	}

	duesSvc, err := dues.NewService(dues.NewRepository(gormDB), dbClient, notifier, logg)
	exitOn(logg, "dues service", err)

	historyCache, err := pkgcache.NewService(redisClient, cfg.Cache.OrderHistoryTTL)
	exitOn(logg, "order history cache", err)

	handler := routes.NewRouter(routes.Deps{
		Config: cfg,
		Logger: logg,
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		IdemKeys:          redisClient,
		Registry:          registry,
		Cart:              cartSvc,
		Addresses:         addrSvc,
		Checkout:          checkoutSvc,
		Orders:            ordersSvc,
		Payments:          paymentsSvc,
		Vendors:           vendorSvc,
		Menu:              menuSvc,
		Dues:              duesSvc,
		OrderHistoryCache: historyCache,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{Addr: addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func exitOn(logg *logger.Logger, what string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+what, err)
	os.Exit(1)
}
