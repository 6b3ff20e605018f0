package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tokopangan/checkout-backend/config"
	"github.com/tokopangan/checkout-backend/internal/app/controller"
	"github.com/tokopangan/checkout-backend/internal/app/repository"
	"github.com/tokopangan/checkout-backend/internal/app/service"
	"github.com/tokopangan/checkout-backend/internal/db"
	"github.com/tokopangan/checkout-backend/internal/middleware"
	"github.com/tokopangan/checkout-backend/internal/router"
	"github.com/tokopangan/checkout-backend/internal/scheduler"
	"github.com/tokopangan/checkout-backend/internal/storage"
	"github.com/tokopangan/checkout-backend/pkg/logger"
	"github.com/tokopangan/checkout-backend/pkg/payment/midtrans"
	rediscache "github.com/tokopangan/checkout-backend/pkg/redis"
	"github.com/tokopangan/checkout-backend/pkg/shipping/komerce"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting checkout backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis is optional: without it logout cannot revoke tokens and shipping
	// options are not cached.
	var (
		blacklist service.TokenBlacklist
		revoked   middleware.RevocationChecker
		cache     service.JSONCache
	)
	if err := rediscache.Init(&cfg.Redis); err != nil {
		logger.Warn("Redis unavailable, continuing without token blacklist and cache", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		defer func() {
			if err := rediscache.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
		store := rediscache.NewStore(rediscache.GetClient())
		blacklist, revoked, cache = store, store, store
	}

	// Upstream clients
	shippingClient, err := komerce.NewClient(komerce.Config{
		BaseURL: cfg.Shipping.BaseURL,
		APIKey:  cfg.Shipping.APIKey,
		Timeout: cfg.Shipping.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to create shipping client", err)
	}
	paymentClient, err := midtrans.NewClient(midtrans.Config{
		ServerKey:   cfg.Payment.ServerKey,
		SnapBaseURL: cfg.Payment.SnapBaseURL,
		CoreBaseURL: cfg.Payment.CoreBaseURL,
		Timeout:     cfg.Payment.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to create payment client", err)
	}

	var images service.ImageStorage
	if cfg.S3.Bucket != "" && cfg.S3.BaseURL != "" {
		images = storage.NewS3Storage(
			context.Background(),
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
		)
	} else {
		logger.Warn("S3 not configured, product image uploads disabled")
	}

	// Initialize repositories
	database := db.GetDB()
	userRepo := repository.NewUserRepository(database)
	productRepo := repository.NewProductRepository(database)
	cartRepo := repository.NewCartRepository(database)
	orderRepo := repository.NewOrderRepository(database)
	paymentLogRepo := repository.NewPaymentLogRepository(database)

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		blacklist,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	productService := service.NewProductService(productRepo, images)
	cartService := service.NewCartService(cartRepo, productRepo)
	shippingService := service.NewShippingService(
		shippingClient,
		cache,
		cfg.Shipping.WarehouseLocationID,
		cfg.Shipping.OptionsCacheTTL,
	)
	paymentService := service.NewPaymentService(orderRepo, userRepo, paymentClient)
	checkoutService := service.NewCheckoutService(
		database,
		cartRepo,
		productRepo,
		orderRepo,
		shippingClient,
		paymentService,
		cfg.Shipping.WarehouseLocationID,
	)
	reconcileService := service.NewReconcileService(
		database,
		orderRepo,
		paymentLogRepo,
		paymentClient,
		cfg.Payment.ServerKey,
	)
	orderService := service.NewOrderService(orderRepo, paymentLogRepo)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService)
	checkoutController := controller.NewCheckoutController(checkoutService)
	shippingController := controller.NewShippingController(shippingService)
	orderController := controller.NewOrderController(orderService, paymentService)
	paymentController := controller.NewPaymentController(reconcileService)

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, revoked)

	r := router.NewRouter(
		authController,
		productController,
		cartController,
		checkoutController,
		shippingController,
		orderController,
		paymentController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Catch orders whose notification never arrived.
	sweeper := scheduler.NewPaymentSweeper(
		orderRepo,
		reconcileService,
		cfg.Scheduler.PaymentSweepSpec,
		cfg.Scheduler.PaymentSweepAfter,
	)
	if err := sweeper.Start(); err != nil {
		logger.Fatal("Failed to start payment sweeper", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	logger.Info("Server stopped successfully")
}
